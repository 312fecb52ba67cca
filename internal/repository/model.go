package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is the audit row for one voice-channel transcription run. Only
// lifecycle bookkeeping is stored; transcript text lives in memory for the
// lifetime of the pipeline and is never persisted.
type Session struct {
	ID           string
	GuildID      string
	ChannelID    string
	StartedAt    time.Time
	EndedAt      *time.Time
	Status       SessionStatus
	StopReason   string
	SegmentCount int
}
