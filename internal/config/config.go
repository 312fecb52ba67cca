package config

import (
	"fmt"
	"time"
)

const (
	EngineGoogle = "google"
	EngineOpenAI = "openai"
)

type Config struct {
	Env                        string
	DiscordToken               string
	DiscordGuildID             string
	DatabaseURL                string
	TranscriptionEngine        string
	EngineModel                string
	EngineLanguage             string
	TranslateToEnglish         bool
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	OpenAIAPIKey               string
	TickIntervalSec            int
	PauseThresholdSec          int
	MaxRenderedChars           int
	EngineTimeoutSec           int
	TranscriptWebhookURL       string
	MetricsAddr                string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.TranscriptionEngine {
	case EngineGoogle:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when TRANSCRIPTION_ENGINE=google")
		}
	case EngineOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when TRANSCRIPTION_ENGINE=openai")
		}
	default:
		return fmt.Errorf("TRANSCRIPTION_ENGINE must be %q or %q, got %q", EngineGoogle, EngineOpenAI, c.TranscriptionEngine)
	}
	if c.TickIntervalSec <= 0 {
		return fmt.Errorf("TICK_INTERVAL_SEC must be positive, got %d", c.TickIntervalSec)
	}
	if c.PauseThresholdSec <= 0 {
		return fmt.Errorf("PAUSE_THRESHOLD_SEC must be positive, got %d", c.PauseThresholdSec)
	}
	if c.MaxRenderedChars <= 0 {
		return fmt.Errorf("MAX_RENDERED_CHARS must be positive, got %d", c.MaxRenderedChars)
	}
	if c.EngineTimeoutSec <= 0 {
		return fmt.Errorf("ENGINE_TIMEOUT_SEC must be positive, got %d", c.EngineTimeoutSec)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "TRANSCRIPTION_ENGINE", value: c.TranscriptionEngine},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSec) * time.Second
}

func (c *Config) PauseThreshold() time.Duration {
	return time.Duration(c.PauseThresholdSec) * time.Second
}

func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.EngineTimeoutSec) * time.Second
}
