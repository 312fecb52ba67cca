package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MLG-SERBUR/PtBot/internal/metrics"
	"github.com/MLG-SERBUR/PtBot/internal/render"
	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
)

type PipelineState int

const (
	StateIdle PipelineState = iota
	StateActive
	StateShuttingDown
	StateStopped
)

var (
	ErrAlreadyStarted = errors.New("transcription pipeline already started")
	ErrNotActive      = errors.New("transcription pipeline is not active")
)

type PipelineConfig struct {
	SessionID        string
	ChannelID        string
	TickInterval     time.Duration
	PauseThreshold   time.Duration
	EngineTimeout    time.Duration
	MaxRenderedChars int
	ResolveName      func(speakerID string) (string, error)
	// OnFatal is invoked (on its own goroutine) when the pipeline hits an
	// unrecoverable error such as an audio format mismatch.
	OnFatal func(err error)
}

// Pipeline owns the per-speaker buffers, runs the periodic transcription
// tick, and keeps the rendered document up to date. Audio delivery and the
// tick loop are decoupled by the buffer swap: a slow engine call never blocks
// an inbound write.
type Pipeline struct {
	cfg      PipelineConfig
	engine   transcriber.Transcriber
	sink     render.Sink
	met      *metrics.Metrics
	store    *TranscriptStore
	renderer *Renderer
	buffers  *bufferSet

	mu         sync.Mutex
	state      PipelineState
	cancel     context.CancelFunc
	done       chan struct{}
	documentID string
}

func NewPipeline(cfg PipelineConfig, engine transcriber.Transcriber, sink render.Sink, met *metrics.Metrics) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		engine:   engine,
		sink:     sink,
		met:      met,
		store:    NewTranscriptStore(),
		renderer: NewRenderer(cfg.PauseThreshold, cfg.MaxRenderedChars, cfg.ResolveName),
		buffers:  newBufferSet(),
	}
}

// Start spawns the tick loop. Exactly one start per pipeline instance.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateIdle {
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.state = StateActive
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx)
	return nil
}

// Write appends decoded PCM for a speaker. Outside Active state the audio is
// accepted but ignored; frames routinely trail in after a stop request.
func (p *Pipeline) Write(speakerID string, pcm []byte, at time.Time) {
	p.mu.Lock()
	active := p.state == StateActive
	p.mu.Unlock()
	if !active || len(pcm) == 0 {
		return
	}
	p.buffers.get(speakerID).append(pcm, at)
}

// Stop cancels the tick loop, waits for any in-flight tick to finish so no
// buffer is left mid-drain, performs the final render, and releases the
// buffers. Idempotent in the sense that later calls return ErrNotActive.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if p.state != StateActive {
		p.mu.Unlock()
		return ErrNotActive
	}
	p.state = StateShuttingDown
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done

	p.renderAndPush(context.Background(), true)

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
	p.buffers.release()
	return nil
}

func (p *Pipeline) State() PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Segments returns the full segment history.
func (p *Pipeline) Segments() []TranscriptSegment {
	return p.store.Segments()
}

// SpeakerName returns the cached display name used in the rendered document.
func (p *Pipeline) SpeakerName(speakerID string) string {
	return p.renderer.DisplayName(speakerID)
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()
	slog.Info("transcription tick loop started", "session_id", p.cfg.SessionID, "interval", p.cfg.TickInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("transcription tick loop stopped", "session_id", p.cfg.SessionID, "segments", p.store.Len())
			return
		case <-ticker.C:
			// A tick that outlasts the interval makes the ticker drop
			// intervening fires; ticks are never queued.
			if err := p.processTick(ctx); err != nil {
				slog.Error("fatal pipeline error", "error", err, "session_id", p.cfg.SessionID)
				if p.cfg.OnFatal != nil {
					go p.cfg.OnFatal(err)
				}
				return
			}
		}
	}
}

// processTick drains every non-empty speaker buffer and transcribes the
// drained audio. Engine failures are per-speaker soft failures; only a
// format-contract violation aborts the pipeline.
func (p *Pipeline) processTick(ctx context.Context) error {
	appended := 0
	for speakerID, buf := range p.buffers.snapshot() {
		pcm, lastWrite := buf.drain()
		if len(pcm) == 0 {
			continue
		}
		p.met.DrainedPCMBytes.Add(float64(len(pcm)))

		clip := transcriber.NewClip(pcm)
		text, err := p.transcribeClip(ctx, clip)
		if err != nil {
			if errors.Is(err, transcriber.ErrFormatMismatch) {
				return err
			}
			p.met.EngineFailures.Inc()
			slog.Warn("transcription failed for speaker; skipping this tick",
				"error", err, "session_id", p.cfg.SessionID, "speaker_id", speakerID, "pcm_bytes", len(pcm))
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		p.store.Append(TranscriptSegment{At: lastWrite, SpeakerID: speakerID, Text: text})
		p.met.SegmentsTotal.Inc()
		appended++
	}
	p.met.TicksTotal.Inc()
	if appended > 0 {
		p.renderAndPush(ctx, false)
	}
	return nil
}

func (p *Pipeline) transcribeClip(ctx context.Context, clip transcriber.Clip) (string, error) {
	if err := clip.Validate(); err != nil {
		return "", err
	}
	callCtx := ctx
	if p.cfg.EngineTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.cfg.EngineTimeout)
		defer cancel()
	}
	p.met.EngineCalls.Inc()
	start := time.Now()
	text, err := p.engine.Transcribe(callCtx, clip)
	p.met.EngineDuration.Observe(time.Since(start).Seconds())
	return text, err
}

// renderAndPush rebuilds the document and creates or edits the displayed
// message. A missing edit target means the message was deleted externally; a
// fresh document is created and subsequent edits target it.
func (p *Pipeline) renderAndPush(ctx context.Context, final bool) {
	content := p.renderer.Render(p.store.Segments())
	p.met.RendersTotal.Inc()

	p.mu.Lock()
	documentID := p.documentID
	p.mu.Unlock()

	if documentID != "" {
		err := p.sink.Edit(ctx, p.cfg.ChannelID, documentID, content, final)
		if err == nil {
			return
		}
		if !errors.Is(err, render.ErrNotFound) {
			slog.Error("failed to edit transcript document", "error", err, "session_id", p.cfg.SessionID)
			return
		}
		slog.Warn("transcript document disappeared; recreating", "session_id", p.cfg.SessionID, "document_id", documentID)
	}

	newID, err := p.sink.Create(ctx, p.cfg.ChannelID, content, final)
	if err != nil {
		slog.Error("failed to create transcript document", "error", err, "session_id", p.cfg.SessionID)
		return
	}
	p.mu.Lock()
	p.documentID = newID
	p.mu.Unlock()
}
