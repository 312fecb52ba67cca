package webhook

import "context"

const TranscriptWebhookSchemaVersion = "2026-08-01"

type TranscriptWebhookSegment struct {
	Index       int    `json:"index"`
	SpokenAt    string `json:"spoken_at"`
	SpeakerID   string `json:"speaker_id"`
	SpeakerName string `json:"speaker_name"`
	Text        string `json:"text"`
}

type TranscriptWebhookPayload struct {
	SchemaVersion   string                     `json:"schema_version"`
	SessionID       string                     `json:"session_id"`
	GuildID         string                     `json:"guild_id"`
	ChannelID       string                     `json:"channel_id"`
	StartAt         string                     `json:"start_at"`
	EndAt           string                     `json:"end_at"`
	DurationSeconds int64                      `json:"duration_seconds"`
	StopReason      string                     `json:"stop_reason"`
	SegmentCount    int                        `json:"segment_count"`
	Segments        []TranscriptWebhookSegment `json:"segments"`
	Transcript      string                     `json:"transcript"`
}

type Sender interface {
	SendTranscript(ctx context.Context, payload TranscriptWebhookPayload) error
}
