package transcriber

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/MLG-SERBUR/PtBot/internal/audio"
	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
)

type WhisperConfig struct {
	APIKey    string
	Model     string
	Language  string
	Translate bool
}

// WhisperTranscriber sends clips to the OpenAI audio API. With Translate set
// the engine returns English regardless of the spoken language.
type WhisperTranscriber struct {
	client    *openai.Client
	model     string
	language  string
	translate bool
}

func NewWhisperTranscriber(cfg WhisperConfig) transcriber.Transcriber {
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	language := cfg.Language
	if language == "auto" {
		// Whisper autodetects when no language hint is given.
		language = ""
	}
	return &WhisperTranscriber{
		client:    openai.NewClient(cfg.APIKey),
		model:     model,
		language:  language,
		translate: cfg.Translate,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, clip transcriber.Clip) (string, error) {
	if err := clip.Validate(); err != nil {
		return "", err
	}
	wav, err := audio.EncodeWAV(clip.PCM, clip.Channels, clip.SampleRateHz)
	if err != nil {
		return "", fmt.Errorf("encode clip as wav: %w", err)
	}

	req := openai.AudioRequest{
		Model:    t.model,
		FilePath: "clip.wav",
		Reader:   bytes.NewReader(wav),
		Language: t.language,
	}
	var resp openai.AudioResponse
	if t.translate {
		resp, err = t.client.CreateTranslation(ctx, req)
	} else {
		resp, err = t.client.CreateTranscription(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("whisper request failed: %w", err)
	}
	return resp.Text, nil
}
