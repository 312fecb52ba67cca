package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	GuildID   string
	ChannelID string
	StartedAt time.Time
}

type CompleteSessionInput struct {
	SessionID    string
	EndedAt      time.Time
	StopReason   string
	SegmentCount int
}

type Repository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	UpdateSessionCompleted(ctx context.Context, input CompleteSessionInput) error
	GetRunningSessionByChannel(ctx context.Context, guildID, channelID string) (*Session, error)
}
