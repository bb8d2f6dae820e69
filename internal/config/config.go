// SPDX-License-Identifier: MIT

// Package config loads and validates the pagebot daemon configuration.
// Precedence: environment variables > YAML file > built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the daemon.
type Config struct {
	// HTTP ingress
	Listen          string        `yaml:"listen"`
	WebhookRateRPM  int           `yaml:"webhookRateRPM"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Platform credentials
	AppSecret       string `yaml:"appSecret"`
	VerifyToken     string `yaml:"verifyToken"`
	PageAccessToken string `yaml:"pageAccessToken"`

	// Delivery gateway
	SendEndpoint   string  `yaml:"sendEndpoint"`
	SendRatePerSec float64 `yaml:"sendRatePerSec"`
	SendBurst      int     `yaml:"sendBurst"`

	// NLP resolver
	ResolverURL   string        `yaml:"resolverURL"`
	ResolverToken string        `yaml:"resolverToken"`
	TurnTimeout   time.Duration `yaml:"turnTimeout"`

	// Speech to text
	STTBaseURL  string `yaml:"sttBaseURL"`
	STTUsername string `yaml:"sttUsername"`
	STTPassword string `yaml:"sttPassword"`
	STTModel    string `yaml:"sttModel"`

	// Media pipeline
	FFmpegPath      string        `yaml:"ffmpegPath"`
	StagingDir      string        `yaml:"stagingDir"`
	PipelineTimeout time.Duration `yaml:"pipelineTimeout"`

	// Sessions
	SessionTTL    time.Duration `yaml:"sessionTTL"`
	SweepInterval time.Duration `yaml:"sweepInterval"`

	// Dispatch
	BatchConcurrency int `yaml:"batchConcurrency"`

	// Logging
	LogLevel string `yaml:"logLevel"`
}

// Defaults returns the built-in configuration baseline.
func Defaults() Config {
	return Config{
		Listen:           ":5000",
		WebhookRateRPM:   600,
		ShutdownTimeout:  10 * time.Second,
		SendEndpoint:     "https://graph.facebook.com/v2.6/me/messages",
		SendRatePerSec:   20,
		SendBurst:        40,
		TurnTimeout:      15 * time.Second,
		STTModel:         "zh-CN_NarrowbandModel",
		FFmpegPath:       "ffmpeg",
		StagingDir:       os.TempDir(),
		PipelineTimeout:  60 * time.Second,
		SessionTTL:       0, // 0 = sessions live for the process lifetime
		SweepInterval:    time.Minute,
		BatchConcurrency: 8,
		LogLevel:         "info",
	}
}

// Load builds the effective configuration. path may be empty, in which case
// only defaults and environment variables apply.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate refuses configurations the daemon cannot safely run with.
func (c *Config) Validate() error {
	var problems []error
	if c.AppSecret == "" {
		problems = append(problems, errors.New("appSecret is required"))
	}
	if c.VerifyToken == "" {
		problems = append(problems, errors.New("verifyToken is required"))
	}
	if c.PageAccessToken == "" {
		problems = append(problems, errors.New("pageAccessToken is required"))
	}
	if c.Listen == "" {
		problems = append(problems, errors.New("listen address is required"))
	}
	if c.BatchConcurrency < 1 {
		problems = append(problems, errors.New("batchConcurrency must be at least 1"))
	}
	if c.SessionTTL > 0 && c.SweepInterval <= 0 {
		problems = append(problems, errors.New("sweepInterval must be positive when sessionTTL is set"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}
