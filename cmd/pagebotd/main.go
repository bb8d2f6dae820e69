// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zwlin/pagebot/internal/config"
	"github.com/zwlin/pagebot/internal/dispatch"
	"github.com/zwlin/pagebot/internal/engine"
	"github.com/zwlin/pagebot/internal/gateway"
	pblog "github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/media"
	"github.com/zwlin/pagebot/internal/resolver"
	"github.com/zwlin/pagebot/internal/session"
	"github.com/zwlin/pagebot/internal/stt"
	"github.com/zwlin/pagebot/internal/version"
	"github.com/zwlin/pagebot/internal/webhook"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagebotd: %v\n", err)
		os.Exit(1)
	}

	pblog.Configure(pblog.Config{
		Level:   cfg.LogLevel,
		Service: "pagebot",
		Version: version.Version,
	})
	logger := pblog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := session.NewStore()
	if cfg.SessionTTL > 0 {
		go store.RunJanitor(ctx, cfg.SweepInterval, cfg.SessionTTL)
		logger.Info().
			Dur("ttl", cfg.SessionTTL).
			Dur("interval", cfg.SweepInterval).
			Msg("session eviction enabled")
	}

	nlp := resolver.New(cfg.ResolverURL, cfg.ResolverToken)
	eng := engine.New(store, nlp, engine.DefaultRegistry(), cfg.TurnTimeout)

	recognizer := stt.New(cfg.STTBaseURL, cfg.STTUsername, cfg.STTPassword, cfg.STTModel)
	pipeline := media.New(recognizer, media.NewFFmpeg(cfg.FFmpegPath), cfg.StagingDir, cfg.PipelineTimeout)

	sender := gateway.New(cfg.SendEndpoint, cfg.PageAccessToken, cfg.SendRatePerSec, cfg.SendBurst)
	dispatcher := dispatch.New(eng, pipeline, sender, cfg.BatchConcurrency)

	server := webhook.NewServer(cfg, dispatcher, sender)

	logger.Info().Str("version", version.Version).Msg("pagebotd starting")
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("pagebotd stopped")
}
