package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	internalconfig "github.com/MLG-SERBUR/PtBot/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	DiscordToken               string `env:"DISCORD_TOKEN,required"`
	DiscordGuildID             string `env:"DISCORD_GUILD_ID,required"`
	DatabaseURL                string `env:"DATABASE_URL,required"`
	TranscriptionEngine        string `env:"TRANSCRIPTION_ENGINE" envDefault:"openai"`
	EngineModel                string `env:"ENGINE_MODEL" envDefault:"whisper-1"`
	EngineLanguage             string `env:"ENGINE_LANGUAGE" envDefault:"auto"`
	TranslateToEnglish         bool   `env:"TRANSLATE_TO_ENGLISH" envDefault:"false"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	OpenAIAPIKey               string `env:"OPENAI_API_KEY"`
	TickIntervalSec            int    `env:"TICK_INTERVAL_SEC" envDefault:"4"`
	PauseThresholdSec          int    `env:"PAUSE_THRESHOLD_SEC" envDefault:"5"`
	MaxRenderedChars           int    `env:"MAX_RENDERED_CHARS" envDefault:"4000"`
	EngineTimeoutSec           int    `env:"ENGINE_TIMEOUT_SEC" envDefault:"30"`
	TranscriptWebhookURL       string `env:"TRANSCRIPT_WEBHOOK_URL"`
	MetricsAddr                string `env:"METRICS_ADDR"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		DiscordToken:               raw.DiscordToken,
		DiscordGuildID:             raw.DiscordGuildID,
		DatabaseURL:                raw.DatabaseURL,
		TranscriptionEngine:        raw.TranscriptionEngine,
		EngineModel:                raw.EngineModel,
		EngineLanguage:             raw.EngineLanguage,
		TranslateToEnglish:         raw.TranslateToEnglish,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		TickIntervalSec:            raw.TickIntervalSec,
		PauseThresholdSec:          raw.PauseThresholdSec,
		MaxRenderedChars:           raw.MaxRenderedChars,
		EngineTimeoutSec:           raw.EngineTimeoutSec,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
		MetricsAddr:                raw.MetricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
