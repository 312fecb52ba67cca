package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/MLG-SERBUR/PtBot/internal/webhook"
)

// buildTranscriptText renders the plain-text attachment posted when a
// session ends. Segment lines carry the elapsed time since session start.
func buildTranscriptText(sessionID string, startedAt, endedAt time.Time, segments []TranscriptSegment, nameFor func(speakerID string) string) []byte {
	lines := []string{
		fmt.Sprintf("Session: %s", sessionID),
		fmt.Sprintf("Period: %s ~ %s", startedAt.Format(time.RFC3339), endedAt.Format(time.RFC3339)),
		"",
	}
	for _, seg := range segments {
		elapsed := seg.At.Sub(startedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", formatElapsedHMS(elapsed), nameFor(seg.SpeakerID), seg.Text))
	}
	return []byte(strings.Join(lines, "\n"))
}

func buildTranscriptWebhookPayload(sessionID, guildID, channelID, stopReason string, startedAt, endedAt time.Time, segments []TranscriptSegment, nameFor func(speakerID string) string) webhook.TranscriptWebhookPayload {
	durationSeconds := int64(endedAt.Sub(startedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	payloadSegments := make([]webhook.TranscriptWebhookSegment, 0, len(segments))
	transcriptLines := make([]string, 0, len(segments))
	for i, seg := range segments {
		name := nameFor(seg.SpeakerID)
		payloadSegments = append(payloadSegments, webhook.TranscriptWebhookSegment{
			Index:       i,
			SpokenAt:    seg.At.Format(time.RFC3339),
			SpeakerID:   seg.SpeakerID,
			SpeakerName: name,
			Text:        seg.Text,
		})
		transcriptLines = append(transcriptLines, fmt.Sprintf("%s: %s", name, seg.Text))
	}

	return webhook.TranscriptWebhookPayload{
		SchemaVersion:   webhook.TranscriptWebhookSchemaVersion,
		SessionID:       sessionID,
		GuildID:         guildID,
		ChannelID:       channelID,
		StartAt:         startedAt.Format(time.RFC3339),
		EndAt:           endedAt.Format(time.RFC3339),
		DurationSeconds: durationSeconds,
		StopReason:      stopReason,
		SegmentCount:    len(segments),
		Segments:        payloadSegments,
		Transcript:      strings.Join(transcriptLines, "\n"),
	}
}

func formatElapsedHMS(d time.Duration) string {
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
