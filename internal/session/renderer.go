package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	listeningPlaceholder = "Listening..."
	paragraphTimeLayout  = "15:04:05"

	ansiReset     = "\x1b[0m"
	ansiTimestamp = "\x1b[33m"
)

// One color per speaker, assigned in first-heard order and reused cyclically.
var speakerColors = []string{
	"31",   // red
	"32",   // green
	"34",   // blue
	"35",   // magenta
	"36",   // cyan
	"1;31", // bright red
	"1;32", // bright green
	"1;33", // bright yellow
	"1;34", // bright blue
	"1;35", // bright magenta
	"1;36", // bright cyan
}

// Renderer turns the segment history into one displayable ANSI document,
// grouped per speaker with pause-based paragraph breaks.
type Renderer struct {
	pauseThreshold time.Duration
	maxChars       int
	resolveName    func(speakerID string) (string, error)

	names  map[string]string
	colors map[string]string
}

func NewRenderer(pauseThreshold time.Duration, maxChars int, resolveName func(speakerID string) (string, error)) *Renderer {
	return &Renderer{
		pauseThreshold: pauseThreshold,
		maxChars:       maxChars,
		resolveName:    resolveName,
		names:          make(map[string]string),
		colors:         make(map[string]string),
	}
}

func (r *Renderer) Render(segments []TranscriptSegment) string {
	if len(segments) == 0 {
		return listeningPlaceholder
	}

	speakerOrder := make([]string, 0)
	bySpeaker := make(map[string][]TranscriptSegment)
	for _, seg := range segments {
		if _, ok := bySpeaker[seg.SpeakerID]; !ok {
			speakerOrder = append(speakerOrder, seg.SpeakerID)
		}
		bySpeaker[seg.SpeakerID] = append(bySpeaker[seg.SpeakerID], seg)
	}

	blocks := make([]string, 0, len(speakerOrder))
	for _, speakerID := range speakerOrder {
		header := r.colorFor(speakerID) + r.displayName(speakerID) + ansiReset
		blocks = append(blocks, header+"\n"+r.buildParagraphs(bySpeaker[speakerID]))
	}

	doc := "```ansi\n" + strings.Join(blocks, "\n\n") + "\n```"
	return truncateFront(doc, r.maxChars)
}

// buildParagraphs merges consecutive segments of one speaker into a
// paragraph while the gap between them stays within the pause threshold; a
// longer silence starts a new timestamped paragraph.
func (r *Renderer) buildParagraphs(segments []TranscriptSegment) string {
	var sb strings.Builder
	var lastAt time.Time
	for i, seg := range segments {
		text := rewriteSentenceBreaks(seg.Text)
		if i == 0 || seg.At.Sub(lastAt) > r.pauseThreshold {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(ansiTimestamp + "[" + seg.At.Format(paragraphTimeLayout) + "]" + ansiReset + " ")
			sb.WriteString(text)
		} else {
			sb.WriteString(" ")
			sb.WriteString(text)
		}
		lastAt = seg.At
	}
	return sb.String()
}

func (r *Renderer) displayName(speakerID string) string {
	if name, ok := r.names[speakerID]; ok {
		return name
	}
	name, err := r.resolveName(speakerID)
	if err != nil || name == "" {
		slog.Warn("display name resolution failed; using speaker id fallback", "speaker_id", speakerID, "error", err)
		name = fmt.Sprintf("User ID: %s", speakerID)
	}
	r.names[speakerID] = name
	return name
}

// DisplayName exposes the cached resolution for transcript finalization.
func (r *Renderer) DisplayName(speakerID string) string {
	return r.displayName(speakerID)
}

func (r *Renderer) colorFor(speakerID string) string {
	code, ok := r.colors[speakerID]
	if !ok {
		code = speakerColors[len(r.colors)%len(speakerColors)]
		r.colors[speakerID] = code
	}
	return "\x1b[" + code + "m"
}

// rewriteSentenceBreaks turns sentence-boundary punctuation into line breaks
// for readability.
func rewriteSentenceBreaks(text string) string {
	replacer := strings.NewReplacer(". ", ".\n", "? ", "?\n", "! ", "!\n")
	return replacer.Replace(text)
}

// truncateFront keeps the trailing maxChars characters so the most recent
// conversation stays visible when the document outgrows the sink's limit.
func truncateFront(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[len(runes)-maxChars:])
}
