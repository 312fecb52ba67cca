package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MLG-SERBUR/PtBot/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (guild_id, channel_id, started_at, status)
		 VALUES ($1, $2, $3, 'running')
		 RETURNING id, guild_id, channel_id, started_at, ended_at, status, stop_reason, segment_count`,
		input.GuildID, input.ChannelID, input.StartedAt)
	var s repository.Session
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.GuildID, &s.ChannelID, &s.StartedAt, &endedAt, &s.Status, &s.StopReason, &s.SegmentCount)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) UpdateSessionCompleted(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET status = 'completed', ended_at = $2, stop_reason = $3, segment_count = $4 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.StopReason, input.SegmentCount)
	return err
}

func (r *PostgresRepository) GetRunningSessionByChannel(ctx context.Context, guildID, channelID string) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, guild_id, channel_id, started_at, ended_at, status, stop_reason, segment_count
		 FROM sessions WHERE guild_id = $1 AND channel_id = $2 AND status = 'running'
		 LIMIT 1`,
		guildID, channelID)
	var s repository.Session
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.GuildID, &s.ChannelID, &s.StartedAt, &endedAt, &s.Status, &s.StopReason, &s.SegmentCount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}
