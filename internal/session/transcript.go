package session

import (
	"sync"
	"time"
)

// TranscriptSegment is one immutable unit of recognized text attributed to a
// speaker and a time.
type TranscriptSegment struct {
	At        time.Time
	SpeakerID string
	Text      string
}

// TranscriptStore is the append-only in-memory record of a session's
// segments. Timestamps are kept non-decreasing: segments are appended in
// tick order, and a segment that would go backwards (map iteration inside a
// tick has no fixed order) is clamped to the previous timestamp.
type TranscriptStore struct {
	mu       sync.Mutex
	segments []TranscriptSegment
}

func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

func (s *TranscriptStore) Append(seg TranscriptSegment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.segments); n > 0 && seg.At.Before(s.segments[n-1].At) {
		seg.At = s.segments[n-1].At
	}
	s.segments = append(s.segments, seg)
}

// Segments returns a copy of the full history.
func (s *TranscriptStore) Segments() []TranscriptSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TranscriptSegment, len(s.segments))
	copy(out, s.segments)
	return out
}

func (s *TranscriptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}
