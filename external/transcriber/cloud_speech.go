package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
	Language        string
}

// CloudSpeechTranscriber recognizes one clip at a time through the Google
// Cloud Speech v2 batch Recognize call.
type CloudSpeechTranscriber struct {
	cfg CloudSpeechConfig

	initOnce sync.Once
	initErr  error
	client   *speech.Client
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	cfg.Location = strings.TrimSpace(cfg.Location)
	if cfg.Location == "" {
		cfg.Location = "global"
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	return &CloudSpeechTranscriber{cfg: cfg}
}

func (t *CloudSpeechTranscriber) Transcribe(ctx context.Context, clip transcriber.Clip) (string, error) {
	if err := clip.Validate(); err != nil {
		return "", err
	}
	if err := t.ensureClient(ctx); err != nil {
		return "", err
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.cfg.ProjectID, t.cfg.Location),
		Config: &speechpb.RecognitionConfig{
			Model:         t.cfg.Model,
			LanguageCodes: []string{t.cfg.Language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(clip.SampleRateHz),
					AudioChannelCount: int32(clip.Channels),
				},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: clip.PCM},
	})
	if err != nil {
		if s, ok := status.FromError(err); ok && s.Code() == codes.DeadlineExceeded {
			return "", fmt.Errorf("cloud speech recognize timed out: %w", err)
		}
		return "", fmt.Errorf("cloud speech recognize failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(alts[0].GetTranscript())
	}
	return sb.String(), nil
}

func (t *CloudSpeechTranscriber) ensureClient(ctx context.Context) error {
	t.initOnce.Do(func() {
		creds, err := credentials.DetectDefault(&credentials.DetectOptions{
			CredentialsJSON: []byte(t.cfg.CredentialsJSON),
			Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
		})
		if err != nil {
			t.initErr = fmt.Errorf("detect credentials: %w", err)
			return
		}
		opts := []option.ClientOption{
			option.WithAuthCredentials(creds),
		}
		if t.cfg.Location != "global" {
			opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.cfg.Location, speechAPIEndpointPort)))
		}
		client, err := speech.NewClient(context.WithoutCancel(ctx), opts...)
		if err != nil {
			t.initErr = fmt.Errorf("create speech client: %w", err)
			return
		}
		t.client = client
		slog.Info("cloud speech client initialized", "location", t.cfg.Location, "model", t.cfg.Model)
	})
	return t.initErr
}
