package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MLG-SERBUR/PtBot/internal/audio"
	"github.com/MLG-SERBUR/PtBot/internal/config"
	"github.com/MLG-SERBUR/PtBot/internal/discord"
	"github.com/MLG-SERBUR/PtBot/internal/metrics"
	"github.com/MLG-SERBUR/PtBot/internal/repository"
	"github.com/MLG-SERBUR/PtBot/internal/webhook"
)

type mockRepository struct {
	mu             sync.Mutex
	createCount    int
	completedCalls []repository.CompleteSessionInput
	runningSession *repository.Session
}

func (m *mockRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCount++
	return &repository.Session{
		ID:        fmt.Sprintf("session-%d", m.createCount),
		GuildID:   input.GuildID,
		ChannelID: input.ChannelID,
		StartedAt: input.StartedAt,
		Status:    repository.SessionStatusRunning,
	}, nil
}

func (m *mockRepository) UpdateSessionCompleted(_ context.Context, input repository.CompleteSessionInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedCalls = append(m.completedCalls, input)
	return nil
}

func (m *mockRepository) GetRunningSessionByChannel(_ context.Context, _, _ string) (*repository.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.runningSession
	m.runningSession = nil
	return s, nil
}

func (m *mockRepository) completed() []repository.CompleteSessionInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.CompleteSessionInput, len(m.completedCalls))
	copy(out, m.completedCalls)
	return out
}

type mockDiscordClient struct {
	mu                   sync.Mutex
	sendCalls            []string
	fileCalls            []discord.FileMessage
	userVoiceChannelByID map[string]string
	participants         []discord.VoiceParticipant
}

func (m *mockDiscordClient) Connect(_ context.Context) error { return nil }
func (m *mockDiscordClient) Close() error                    { return nil }
func (m *mockDiscordClient) JoinVoiceChannel(_, _ string) (discord.VoiceConnection, error) {
	return &mockVoiceConnection{}, nil
}
func (m *mockDiscordClient) SendChannelMessage(_ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, content)
	return nil
}
func (m *mockDiscordClient) SendChannelMessageWithFile(msg discord.FileMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fileCalls = append(m.fileCalls, msg)
	return nil
}
func (m *mockDiscordClient) RegisterVoiceStateUpdateHandler(_ func(discord.VoiceStateEvent)) {}
func (m *mockDiscordClient) RegisterSlashCommandHandler(_ func(discord.SlashCommandEvent))   {}
func (m *mockDiscordClient) UpsertGuildSlashCommands(_ string, _ []discord.SlashCommandDefinition) error {
	return nil
}
func (m *mockDiscordClient) GetUserVoiceChannelID(_, userID string) (string, error) {
	if m.userVoiceChannelByID == nil {
		return "", nil
	}
	return m.userVoiceChannelByID[userID], nil
}
func (m *mockDiscordClient) ListVoiceChannelParticipants(_, _ string) ([]discord.VoiceParticipant, error) {
	return m.participants, nil
}
func (m *mockDiscordClient) GetBotUserID() (string, error) { return "bot-self", nil }
func (m *mockDiscordClient) ResolveDisplayName(_, userID string) (string, error) {
	return "Member " + userID, nil
}
func (m *mockDiscordClient) Run() error { return nil }

func (m *mockDiscordClient) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sendCalls))
	copy(out, m.sendCalls)
	return out
}

type mockVoiceConnection struct{}

func (m *mockVoiceConnection) Disconnect() error                   { return nil }
func (m *mockVoiceConnection) ReceiveAudio(_ func(string, []byte)) {}

type mockWebhookSender struct {
	mu       sync.Mutex
	payloads []webhook.TranscriptWebhookPayload
}

func (m *mockWebhookSender) SendTranscript(_ context.Context, payload webhook.TranscriptWebhookPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payloads = append(m.payloads, payload)
	return nil
}

type mockDecoder struct{}

func (m *mockDecoder) DecodePacket(_ string, _ []byte) ([]byte, error) { return nil, nil }
func (m *mockDecoder) Close()                                          {}

func newTestManager(repo repository.Repository, dc discord.Client) *Manager {
	cfg := &config.Config{
		Env:               "test",
		DiscordGuildID:    "guild-1",
		TickIntervalSec:   3600,
		PauseThresholdSec: 5,
		MaxRenderedChars:  4000,
		EngineTimeoutSec:  1,
	}
	m := NewManager(cfg, repo, dc, &mockEngine{}, &mockSink{}, &mockWebhookSender{},
		func() audio.Decoder { return &mockDecoder{} },
		metrics.New(prometheus.NewRegistry()))
	m.SetBotUserID("bot-self")
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHandleSlashCommand_RejectsOtherGuild(t *testing.T) {
	manager := newTestManager(&mockRepository{}, &mockDiscordClient{})

	var got string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "guild-2",
		CommandName: slashCommandStart,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			got = content
			return nil
		},
	})
	if got != messageEphemeralWrongGuild {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestHandleSlashCommand_StartRequiresVoiceChannel(t *testing.T) {
	manager := newTestManager(&mockRepository{}, &mockDiscordClient{})

	var got string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "guild-1",
		CommandName: slashCommandStart,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			got = content
			return nil
		},
	})
	if got != messageEphemeralJoinVCFirst {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestHandleSlashCommand_StopReturnsNotRunning(t *testing.T) {
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(&mockRepository{}, dc)

	var got string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "guild-1",
		CommandName: slashCommandStop,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			got = content
			return nil
		},
	})
	if got != messageEphemeralNotRunning {
		t.Fatalf("unexpected response: %q", got)
	}
}

func TestHandleSlashCommand_StartAndStopSuccess(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(repo, dc)

	var startResp string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "guild-1",
		CommandName: slashCommandStart,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			startResp = content
			return nil
		},
	})
	if startResp != startEphemeral("vc-1") {
		t.Fatalf("unexpected start response: %q", startResp)
	}
	if !manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected running session after start command")
	}
	if repo.createCount != 1 {
		t.Fatalf("expected one session row, got %d", repo.createCount)
	}

	var stopResp string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:     "guild-1",
		CommandName: slashCommandStop,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			stopResp = content
			return nil
		},
	})
	if stopResp != stopEphemeral("vc-1") {
		t.Fatalf("unexpected stop response: %q", stopResp)
	}
	if manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected session to be gone after stop command")
	}

	waitFor(t, "session completion", func() bool { return len(repo.completed()) == 1 })
	done := repo.completed()[0]
	if done.SessionID != "session-1" || done.StopReason != stopReasonManualSlash {
		t.Fatalf("unexpected completion: %+v", done)
	}
}

func TestHandleSlashCommand_StartTwiceReturnsAlreadyRunning(t *testing.T) {
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(&mockRepository{}, dc)

	var first, second string
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID: "guild-1", CommandName: slashCommandStart, UserID: "user-1",
		RespondEphemeral: func(content string) error { first = content; return nil },
	})
	manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID: "guild-1", CommandName: slashCommandStart, UserID: "user-1",
		RespondEphemeral: func(content string) error { second = content; return nil },
	})
	if first != startEphemeral("vc-1") {
		t.Fatalf("unexpected first response: %q", first)
	}
	if second != messageEphemeralAlreadyRunning {
		t.Fatalf("unexpected second response: %q", second)
	}
}

func TestStartSession_ClosesOrphanRow(t *testing.T) {
	repo := &mockRepository{
		runningSession: &repository.Session{ID: "session-orphan", GuildID: "guild-1", ChannelID: "vc-1"},
	}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(repo, dc)

	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = manager.stopSession("guild-1", "vc-1", stopReasonManualSlash) })

	completions := repo.completed()
	if len(completions) != 1 || completions[0].SessionID != "session-orphan" {
		t.Fatalf("expected the orphan row to be closed first, got %+v", completions)
	}
}

func TestHandleVoiceStateUpdate_IgnoresOtherGuild(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(repo, dc)
	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = manager.stopSession("guild-1", "vc-1", stopReasonManualSlash) })

	manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:         "guild-2",
		UserID:          "user-1",
		BeforeChannelID: "vc-1",
	})
	if !manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected another guild's event to be ignored")
	}
}

func TestHandleVoiceStateUpdate_StopsWhenLastParticipantLeaves(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(repo, dc)
	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:         "guild-1",
		UserID:          "user-1",
		BeforeChannelID: "vc-1",
	})
	if manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected session to stop when the channel emptied")
	}
	waitFor(t, "session completion", func() bool { return len(repo.completed()) == 1 })
	if got := repo.completed()[0].StopReason; got != stopReasonParticipantsLeft {
		t.Fatalf("unexpected stop reason: %q", got)
	}
}

func TestHandleVoiceStateUpdate_KeepsSessionWhileOthersRemain(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{
		userVoiceChannelByID: map[string]string{"user-1": "vc-1"},
		participants: []discord.VoiceParticipant{
			{UserID: "user-1"},
			{UserID: "user-2"},
			{UserID: "helper-bot", IsBot: true},
		},
	}
	manager := newTestManager(repo, dc)
	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = manager.stopSession("guild-1", "vc-1", stopReasonManualSlash) })

	manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:         "guild-1",
		UserID:          "user-1",
		BeforeChannelID: "vc-1",
	})
	if !manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected session to continue while user-2 remains")
	}
}

func TestHandleVoiceStateUpdate_StopsWhenBotIsRemoved(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1"}}
	manager := newTestManager(repo, dc)
	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	manager.HandleVoiceStateUpdate(discord.VoiceStateEvent{
		GuildID:         "guild-1",
		UserID:          "bot-self",
		UserIsBot:       true,
		BeforeChannelID: "vc-1",
	})
	if manager.hasSession("guild-1", "vc-1") {
		t.Fatal("expected session to stop after the bot was removed")
	}
	waitFor(t, "session completion", func() bool { return len(repo.completed()) == 1 })
	if got := repo.completed()[0].StopReason; got != stopReasonBotRemoved {
		t.Fatalf("unexpected stop reason: %q", got)
	}
}

func TestShutdown_StopsEverySession(t *testing.T) {
	repo := &mockRepository{}
	dc := &mockDiscordClient{userVoiceChannelByID: map[string]string{"user-1": "vc-1", "user-2": "vc-2"}}
	manager := newTestManager(repo, dc)
	if err := manager.startSession("guild-1", "vc-1", "user-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := manager.startSession("guild-1", "vc-2", "user-2"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	manager.Shutdown()
	if manager.hasSession("guild-1", "vc-1") || manager.hasSession("guild-1", "vc-2") {
		t.Fatal("expected all sessions to stop on shutdown")
	}
	waitFor(t, "session completions", func() bool { return len(repo.completed()) == 2 })
	for _, done := range repo.completed() {
		if done.StopReason != stopReasonServerClosed {
			t.Fatalf("unexpected stop reason: %q", done.StopReason)
		}
	}
}
