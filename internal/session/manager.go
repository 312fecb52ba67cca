package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MLG-SERBUR/PtBot/internal/audio"
	"github.com/MLG-SERBUR/PtBot/internal/config"
	"github.com/MLG-SERBUR/PtBot/internal/discord"
	"github.com/MLG-SERBUR/PtBot/internal/metrics"
	"github.com/MLG-SERBUR/PtBot/internal/render"
	"github.com/MLG-SERBUR/PtBot/internal/repository"
	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
	"github.com/MLG-SERBUR/PtBot/internal/webhook"
)

// Manager owns one transcription pipeline per active voice session, keyed by
// guild and voice channel.
type Manager struct {
	cfg        *config.Config
	repo       repository.Repository
	discord    discord.Client
	engine     transcriber.Transcriber
	sink       render.Sink
	webhook    webhook.Sender
	newDecoder audio.DecoderFactory
	met        *metrics.Metrics

	botUserID string

	mu       sync.Mutex
	sessions map[string]*runningSession
}

type runningSession struct {
	repoSession  *repository.Session
	voice        discord.VoiceConnection
	decoder      audio.Decoder
	pipeline     *Pipeline
	participants map[string]struct{}
}

func NewManager(cfg *config.Config, repo repository.Repository, dc discord.Client, engine transcriber.Transcriber, sink render.Sink, wh webhook.Sender, newDecoder audio.DecoderFactory, met *metrics.Metrics) *Manager {
	return &Manager{
		cfg:        cfg,
		repo:       repo,
		discord:    dc,
		engine:     engine,
		sink:       sink,
		webhook:    wh,
		newDecoder: newDecoder,
		met:        met,
		sessions:   make(map[string]*runningSession),
	}
}

func (m *Manager) SetBotUserID(userID string) {
	m.botUserID = userID
}

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{Name: slashCommandStart, Description: slashCommandStartDescription},
		{Name: slashCommandStop, Description: slashCommandStopDescription},
	}
}

func (m *Manager) sessionKey(guildID, channelID string) string {
	return guildID + ":" + channelID
}

func (m *Manager) HandleSlashCommand(event discord.SlashCommandEvent) {
	if event.GuildID != m.cfg.DiscordGuildID {
		_ = event.RespondEphemeral(messageEphemeralWrongGuild)
		return
	}

	channelID, err := m.discord.GetUserVoiceChannelID(event.GuildID, event.UserID)
	if err != nil {
		slog.Error("failed to look up user voice channel", "error", err, "guild_id", event.GuildID, "user_id", event.UserID)
		_ = event.RespondEphemeral(messageEphemeralVoiceLookupFailed)
		return
	}
	if channelID == "" {
		_ = event.RespondEphemeral(messageEphemeralJoinVCFirst)
		return
	}

	switch event.CommandName {
	case slashCommandStart:
		m.handleStartCommand(event, channelID)
	case slashCommandStop:
		m.handleStopCommand(event, channelID)
	default:
		_ = event.RespondEphemeral(messageEphemeralUnknownCommand)
	}
}

func (m *Manager) handleStartCommand(event discord.SlashCommandEvent, channelID string) {
	key := m.sessionKey(event.GuildID, channelID)
	m.mu.Lock()
	_, exists := m.sessions[key]
	m.mu.Unlock()
	if exists {
		_ = event.RespondEphemeral(messageEphemeralAlreadyRunning)
		return
	}
	if err := m.startSession(event.GuildID, channelID, event.UserID); err != nil {
		slog.Error("failed to start session", "error", err, "guild_id", event.GuildID, "channel_id", channelID)
		_ = event.RespondEphemeral(messageEphemeralStartFailed)
		return
	}
	_ = event.RespondEphemeral(startEphemeral(channelID))
}

func (m *Manager) handleStopCommand(event discord.SlashCommandEvent, channelID string) {
	key := m.sessionKey(event.GuildID, channelID)
	m.mu.Lock()
	_, exists := m.sessions[key]
	m.mu.Unlock()
	if !exists {
		_ = event.RespondEphemeral(messageEphemeralNotRunning)
		return
	}
	if err := m.stopSession(event.GuildID, channelID, stopReasonManualSlash); err != nil {
		slog.Error("failed to stop session", "error", err, "guild_id", event.GuildID, "channel_id", channelID)
		_ = event.RespondEphemeral(messageEphemeralStopFailed)
		return
	}
	_ = event.RespondEphemeral(stopEphemeral(channelID))
}

func (m *Manager) HandleVoiceStateUpdate(event discord.VoiceStateEvent) {
	if event.GuildID != m.cfg.DiscordGuildID {
		return
	}

	if event.BeforeChannelID != "" && event.BeforeChannelID != event.AfterChannelID {
		if event.UserID == m.botUserID && m.botUserID != "" {
			if m.hasSession(event.GuildID, event.BeforeChannelID) {
				slog.Warn("bot was removed from voice channel", "guild_id", event.GuildID, "channel_id", event.BeforeChannelID)
				if err := m.stopSession(event.GuildID, event.BeforeChannelID, stopReasonBotRemoved); err != nil {
					slog.Error("failed to stop session after bot removal", "error", err)
				}
			}
			return
		}
		m.removeParticipantAndMaybeStop(event.GuildID, event.BeforeChannelID, event.UserID)
	}

	if event.AfterChannelID != "" && !event.UserIsBot {
		m.addParticipant(event.GuildID, event.AfterChannelID, event.UserID)
	}
}

func (m *Manager) hasSession(guildID, channelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[m.sessionKey(guildID, channelID)]
	return ok
}

func (m *Manager) addParticipant(guildID, channelID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs, ok := m.sessions[m.sessionKey(guildID, channelID)]
	if !ok {
		return
	}
	rs.participants[userID] = struct{}{}
}

func (m *Manager) removeParticipantAndMaybeStop(guildID, channelID, userID string) {
	m.mu.Lock()
	rs, ok := m.sessions[m.sessionKey(guildID, channelID)]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(rs.participants, userID)
	remaining := len(rs.participants)
	m.mu.Unlock()
	if remaining > 0 {
		return
	}
	if err := m.stopSession(guildID, channelID, stopReasonParticipantsLeft); err != nil {
		slog.Error("failed to stop session after participants left", "error", err)
	}
}

func (m *Manager) startSession(guildID, channelID, userID string) error {
	key := m.sessionKey(guildID, channelID)
	slog.Info("start session requested", "session_key", key, "user_id", userID)

	ctx := context.Background()
	orphan, err := m.repo.GetRunningSessionByChannel(ctx, guildID, channelID)
	if err != nil {
		return fmt.Errorf("query running session: %w", err)
	}
	if orphan != nil {
		slog.Warn("found orphan running session; closing and continuing", "session_id", orphan.ID)
		if err := m.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
			SessionID:  orphan.ID,
			EndedAt:    time.Now(),
			StopReason: "orphan cleanup on restart",
		}); err != nil {
			return fmt.Errorf("complete orphan session: %w", err)
		}
	}

	voice, err := m.discord.JoinVoiceChannel(guildID, channelID)
	if err != nil {
		return fmt.Errorf("join voice channel: %w", err)
	}
	created, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		GuildID:   guildID,
		ChannelID: channelID,
		StartedAt: time.Now(),
	})
	if err != nil {
		_ = voice.Disconnect()
		return fmt.Errorf("create session: %w", err)
	}

	decoder := m.newDecoder()
	pipeline := NewPipeline(PipelineConfig{
		SessionID:        created.ID,
		ChannelID:        channelID,
		TickInterval:     m.cfg.TickInterval(),
		PauseThreshold:   m.cfg.PauseThreshold(),
		EngineTimeout:    m.cfg.EngineTimeout(),
		MaxRenderedChars: m.cfg.MaxRenderedChars,
		ResolveName: func(speakerID string) (string, error) {
			return m.discord.ResolveDisplayName(guildID, speakerID)
		},
		OnFatal: func(fatalErr error) {
			slog.Error("pipeline reported fatal error; stopping session", "error", fatalErr, "session_id", created.ID)
			if err := m.stopSession(guildID, channelID, stopReasonFatalError); err != nil {
				slog.Error("failed to stop session after fatal error", "error", err, "session_id", created.ID)
			}
		},
	}, m.engine, m.sink, m.met)
	if err := pipeline.Start(); err != nil {
		decoder.Close()
		_ = voice.Disconnect()
		return fmt.Errorf("start pipeline: %w", err)
	}

	participants := map[string]struct{}{userID: {}}
	if listed, err := m.discord.ListVoiceChannelParticipants(guildID, channelID); err == nil {
		for _, p := range listed {
			if p.IsBot {
				continue
			}
			participants[p.UserID] = struct{}{}
		}
	}

	m.mu.Lock()
	m.sessions[key] = &runningSession{
		repoSession:  created,
		voice:        voice,
		decoder:      decoder,
		pipeline:     pipeline,
		participants: participants,
	}
	m.mu.Unlock()
	m.met.ActiveSessions.Inc()
	slog.Info("session activated", "session_key", key, "session_id", created.ID, "participants", len(participants))

	_ = m.discord.SendChannelMessage(channelID, messageStartChannel)

	var receivedPackets int64
	go voice.ReceiveAudio(func(speakerID string, opusPacket []byte) {
		n := atomic.AddInt64(&receivedPackets, 1)
		if n == 1 || n%500 == 0 {
			slog.Debug("receiving opus packets", "session_id", created.ID, "speaker_id", speakerID, "total_packets", n)
		}
		pcm, err := decoder.DecodePacket(speakerID, opusPacket)
		if err != nil {
			slog.Debug("failed to decode opus packet", "error", err, "session_id", created.ID, "speaker_id", speakerID)
			return
		}
		if len(pcm) > 0 {
			pipeline.Write(speakerID, pcm, time.Now())
		}
	})
	return nil
}

func (m *Manager) stopSession(guildID, channelID, reason string) error {
	key := m.sessionKey(guildID, channelID)
	m.mu.Lock()
	rs, ok := m.sessions[key]
	if ok {
		delete(m.sessions, key)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}

	slog.Info("stopping session", "session_id", rs.repoSession.ID, "channel_id", channelID, "reason", reason)
	if err := rs.pipeline.Stop(); err != nil {
		slog.Warn("pipeline stop returned error", "error", err, "session_id", rs.repoSession.ID)
	}
	rs.decoder.Close()
	_ = rs.voice.Disconnect()
	m.met.ActiveSessions.Dec()

	go m.finalizeSession(rs, channelID, reason)
	return nil
}

// Shutdown tears down every running session on process exit.
func (m *Manager) Shutdown() {
	m.stopAll(stopReasonServerClosed)
}

func (m *Manager) stopAll(reason string) {
	m.mu.Lock()
	keys := make([][2]string, 0, len(m.sessions))
	for _, rs := range m.sessions {
		keys = append(keys, [2]string{rs.repoSession.GuildID, rs.repoSession.ChannelID})
	}
	m.mu.Unlock()
	for _, k := range keys {
		if err := m.stopSession(k[0], k[1], reason); err != nil {
			slog.Error("failed to stop session during shutdown", "error", err, "guild_id", k[0], "channel_id", k[1])
		}
	}
}

func (m *Manager) finalizeSession(rs *runningSession, channelID, reason string) {
	ctx := context.Background()
	s := rs.repoSession
	endedAt := time.Now()
	segments := rs.pipeline.Segments()
	nameFor := rs.pipeline.SpeakerName

	_ = m.discord.SendChannelMessage(channelID, stopChannelMessage(reason))
	if len(segments) > 0 {
		body := buildTranscriptText(s.ID, s.StartedAt, endedAt, segments, nameFor)
		_ = m.discord.SendChannelMessageWithFile(discord.FileMessage{
			ChannelID: channelID,
			Content:   messageAttachmentContent,
			Filename:  fmt.Sprintf("transcript-%s.txt", s.ID),
			FileBody:  body,
		})
	}

	if err := m.repo.UpdateSessionCompleted(ctx, repository.CompleteSessionInput{
		SessionID:    s.ID,
		EndedAt:      endedAt,
		StopReason:   reason,
		SegmentCount: len(segments),
	}); err != nil {
		slog.Error("failed to complete session", "error", err, "session_id", s.ID)
	}

	payload := buildTranscriptWebhookPayload(s.ID, s.GuildID, s.ChannelID, reason, s.StartedAt, endedAt, segments, nameFor)
	if err := m.webhook.SendTranscript(ctx, payload); err != nil {
		slog.Error("failed to send webhook transcript", "error", err, "session_id", s.ID)
	}
}
