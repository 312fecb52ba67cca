package session

import (
	"strings"
	"testing"
	"time"
)

func testNameFor(speakerID string) string {
	switch speakerID {
	case "u1":
		return "Alice"
	case "u2":
		return "Bob"
	}
	return "User ID: " + speakerID
}

func TestBuildTranscriptText(t *testing.T) {
	startedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(2 * time.Minute)
	segments := []TranscriptSegment{
		{At: startedAt.Add(15 * time.Second), SpeakerID: "u1", Text: "hello everyone"},
		{At: startedAt.Add(75 * time.Second), SpeakerID: "u2", Text: "glad to be here"},
	}

	body := string(buildTranscriptText("session-1", startedAt, endedAt, segments, testNameFor))

	if !strings.Contains(body, "Session: session-1") {
		t.Fatalf("session line not found in body: %s", body)
	}
	if !strings.Contains(body, "Period: "+startedAt.Format(time.RFC3339)) {
		t.Fatalf("period line not found in body: %s", body)
	}
	if !strings.Contains(body, "00:00:15 Alice: hello everyone") {
		t.Fatalf("first segment line not found in body: %s", body)
	}
	if !strings.Contains(body, "00:01:15 Bob: glad to be here") {
		t.Fatalf("second segment line not found in body: %s", body)
	}
}

func TestBuildTranscriptText_ClampsPreSessionTimestamps(t *testing.T) {
	startedAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	segments := []TranscriptSegment{
		{At: startedAt.Add(-3 * time.Second), SpeakerID: "u1", Text: "early"},
	}
	body := string(buildTranscriptText("session-1", startedAt, startedAt.Add(time.Minute), segments, testNameFor))
	if !strings.Contains(body, "00:00:00 Alice: early") {
		t.Fatalf("expected negative elapsed to clamp to zero, body: %s", body)
	}
}

func TestBuildTranscriptWebhookPayload(t *testing.T) {
	startedAt := time.Date(2026, 8, 28, 19, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(45 * time.Second)
	segments := []TranscriptSegment{
		{At: startedAt.Add(10 * time.Second), SpeakerID: "u1", Text: "first"},
		{At: startedAt.Add(30 * time.Second), SpeakerID: "u2", Text: "second"},
	}

	payload := buildTranscriptWebhookPayload("session-1", "guild-1", "vc-1", stopReasonManualSlash, startedAt, endedAt, segments, testNameFor)

	if payload.SchemaVersion != "2026-08-01" {
		t.Fatalf("unexpected schema_version: %s", payload.SchemaVersion)
	}
	if payload.SessionID != "session-1" || payload.GuildID != "guild-1" || payload.ChannelID != "vc-1" {
		t.Fatalf("unexpected identifiers: %+v", payload)
	}
	if payload.StopReason != stopReasonManualSlash {
		t.Fatalf("unexpected stop_reason: %s", payload.StopReason)
	}
	if payload.DurationSeconds != 45 {
		t.Fatalf("unexpected duration_seconds: %d", payload.DurationSeconds)
	}
	if payload.SegmentCount != 2 || len(payload.Segments) != 2 {
		t.Fatalf("unexpected segment counts: %+v", payload)
	}
	if payload.Segments[0].Index != 0 || payload.Segments[1].Index != 1 {
		t.Fatalf("unexpected segment indices: %+v", payload.Segments)
	}
	if payload.Segments[0].SpokenAt != segments[0].At.Format(time.RFC3339) {
		t.Fatalf("unexpected spoken_at: %s", payload.Segments[0].SpokenAt)
	}
	if payload.Segments[1].SpeakerName != "Bob" {
		t.Fatalf("unexpected speaker name: %s", payload.Segments[1].SpeakerName)
	}
	if payload.Transcript != "Alice: first\nBob: second" {
		t.Fatalf("unexpected flat transcript: %q", payload.Transcript)
	}
}

func TestFormatElapsedHMS(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61 * time.Minute, "01:01:00"},
		{(2*3600 + 3*60 + 4) * time.Second, "02:03:04"},
	}
	for _, tc := range cases {
		if got := formatElapsedHMS(tc.in); got != tc.want {
			t.Errorf("formatElapsedHMS(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
