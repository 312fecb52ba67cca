package config

import "testing"

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		DiscordToken:        "token",
		DiscordGuildID:      "guild-1",
		DatabaseURL:         "postgres://localhost:5432/ptbot",
		TranscriptionEngine: EngineOpenAI,
		EngineModel:         "whisper-1",
		OpenAIAPIKey:        "sk-test",
		TickIntervalSec:     4,
		PauseThresholdSec:   5,
		MaxRenderedChars:    4000,
		EngineTimeoutSec:    30,
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DiscordToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing DISCORD_TOKEN")
	}
}

func TestValidate_UnknownEngine(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptionEngine = "whisperx"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestValidate_GoogleEngineNeedsCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.TranscriptionEngine = EngineGoogle
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for google engine without credentials")
	}
	cfg.GoogleCloudProjectID = "project-1"
	cfg.GoogleCloudCredentialsJSON = "{}"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid google config, got error: %v", err)
	}
}

func TestValidate_NonPositiveIntervals(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"tick interval", func(c *Config) { c.TickIntervalSec = 0 }},
		{"pause threshold", func(c *Config) { c.PauseThresholdSec = -1 }},
		{"max rendered chars", func(c *Config) { c.MaxRenderedChars = 0 }},
		{"engine timeout", func(c *Config) { c.EngineTimeoutSec = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for non-positive %s", tt.name)
			}
		})
	}
}
