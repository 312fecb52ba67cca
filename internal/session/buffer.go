package session

import (
	"sync"
	"time"
)

// speakerBuffer accumulates PCM between ticks for a single speaker. The
// delivery path appends, the tick path swaps; both go through the buffer's
// own mutex so no cross-speaker locking is needed.
type speakerBuffer struct {
	mu        sync.Mutex
	pcm       []byte
	lastWrite time.Time
}

func (b *speakerBuffer) append(pcm []byte, at time.Time) {
	if len(pcm) == 0 {
		return
	}
	b.mu.Lock()
	b.pcm = append(b.pcm, pcm...)
	b.lastWrite = at
	b.mu.Unlock()
}

// drain swaps in an empty buffer and returns the accumulated bytes together
// with the time of the last write. The returned slice is exclusively owned by
// the caller; audio arriving afterwards lands in fresh storage.
func (b *speakerBuffer) drain() ([]byte, time.Time) {
	b.mu.Lock()
	pcm := b.pcm
	at := b.lastWrite
	b.pcm = nil
	b.mu.Unlock()
	return pcm, at
}

type bufferSet struct {
	mu      sync.Mutex
	buffers map[string]*speakerBuffer
}

func newBufferSet() *bufferSet {
	return &bufferSet{buffers: make(map[string]*speakerBuffer)}
}

func (s *bufferSet) get(speakerID string) *speakerBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buffers[speakerID]
	if !ok {
		b = &speakerBuffer{}
		s.buffers[speakerID] = b
	}
	return b
}

// snapshot returns the current speaker set so the tick path can iterate
// without holding the map lock across engine calls.
func (s *bufferSet) snapshot() map[string]*speakerBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*speakerBuffer, len(s.buffers))
	for id, b := range s.buffers {
		out[id] = b
	}
	return out
}

func (s *bufferSet) release() {
	s.mu.Lock()
	s.buffers = make(map[string]*speakerBuffer)
	s.mu.Unlock()
}
