package transcriber

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/MLG-SERBUR/PtBot/internal/config"
	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		switch c.TranscriptionEngine {
		case config.EngineGoogle:
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.EngineModel,
				Language:        c.EngineLanguage,
			}), nil
		case config.EngineOpenAI:
			return NewWhisperTranscriber(WhisperConfig{
				APIKey:    c.OpenAIAPIKey,
				Model:     c.EngineModel,
				Language:  c.EngineLanguage,
				Translate: c.TranslateToEnglish,
			}), nil
		default:
			return nil, fmt.Errorf("unknown transcription engine %q", c.TranscriptionEngine)
		}
	})
}
