// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"time"
)

// ParseString reads a string from an environment variable or returns the
// current value unchanged.
func ParseString(key, current string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return current
}

// ParseInt reads an integer environment variable, keeping the current value
// on absence or parse failure.
func ParseInt(key string, current int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return current
}

// ParseFloat reads a float environment variable, keeping the current value
// on absence or parse failure.
func ParseFloat(key string, current float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return current
}

// ParseDuration reads a duration environment variable ("30s", "5m"), keeping
// the current value on absence or parse failure.
func ParseDuration(key string, current time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return current
}

func (c *Config) applyEnv() {
	c.Listen = ParseString("PAGEBOT_LISTEN", c.Listen)
	c.WebhookRateRPM = ParseInt("PAGEBOT_WEBHOOK_RATE_RPM", c.WebhookRateRPM)
	c.ShutdownTimeout = ParseDuration("PAGEBOT_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.AppSecret = ParseString("MESSENGER_APP_SECRET", c.AppSecret)
	c.VerifyToken = ParseString("MESSENGER_VALIDATION_TOKEN", c.VerifyToken)
	c.PageAccessToken = ParseString("MESSENGER_PAGE_ACCESS_TOKEN", c.PageAccessToken)

	c.SendEndpoint = ParseString("PAGEBOT_SEND_ENDPOINT", c.SendEndpoint)
	c.SendRatePerSec = ParseFloat("PAGEBOT_SEND_RATE", c.SendRatePerSec)
	c.SendBurst = ParseInt("PAGEBOT_SEND_BURST", c.SendBurst)

	c.ResolverURL = ParseString("PAGEBOT_RESOLVER_URL", c.ResolverURL)
	c.ResolverToken = ParseString("PAGEBOT_RESOLVER_TOKEN", c.ResolverToken)
	c.TurnTimeout = ParseDuration("PAGEBOT_TURN_TIMEOUT", c.TurnTimeout)

	c.STTBaseURL = ParseString("PAGEBOT_STT_URL", c.STTBaseURL)
	c.STTUsername = ParseString("PAGEBOT_STT_USERNAME", c.STTUsername)
	c.STTPassword = ParseString("PAGEBOT_STT_PASSWORD", c.STTPassword)
	c.STTModel = ParseString("PAGEBOT_STT_MODEL", c.STTModel)

	c.FFmpegPath = ParseString("PAGEBOT_FFMPEG", c.FFmpegPath)
	c.StagingDir = ParseString("PAGEBOT_STAGING_DIR", c.StagingDir)
	c.PipelineTimeout = ParseDuration("PAGEBOT_PIPELINE_TIMEOUT", c.PipelineTimeout)

	c.SessionTTL = ParseDuration("PAGEBOT_SESSION_TTL", c.SessionTTL)
	c.SweepInterval = ParseDuration("PAGEBOT_SWEEP_INTERVAL", c.SweepInterval)

	c.BatchConcurrency = ParseInt("PAGEBOT_BATCH_CONCURRENCY", c.BatchConcurrency)
	c.LogLevel = ParseString("PAGEBOT_LOG_LEVEL", c.LogLevel)
}
