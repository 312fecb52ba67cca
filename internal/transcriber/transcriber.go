package transcriber

import (
	"context"
	"errors"
	"fmt"
)

// Fixed audio contract shared with the voice transport. Every clip handed to
// an engine must match these values; a mismatch is a wiring bug, not a
// runtime condition to recover from.
const (
	ClipChannels        = 2
	ClipSampleWidthBits = 16
	ClipSampleRateHz    = 48000
)

var ErrFormatMismatch = errors.New("audio clip format does not match the transport contract")

type Clip struct {
	Channels        int
	SampleWidthBits int
	SampleRateHz    int
	PCM             []byte
}

func NewClip(pcm []byte) Clip {
	return Clip{
		Channels:        ClipChannels,
		SampleWidthBits: ClipSampleWidthBits,
		SampleRateHz:    ClipSampleRateHz,
		PCM:             pcm,
	}
}

func (c Clip) Validate() error {
	if c.Channels != ClipChannels || c.SampleWidthBits != ClipSampleWidthBits || c.SampleRateHz != ClipSampleRateHz {
		return fmt.Errorf("%w: got %dch/%dbit/%dHz", ErrFormatMismatch, c.Channels, c.SampleWidthBits, c.SampleRateHz)
	}
	if len(c.PCM)%(ClipChannels*ClipSampleWidthBits/8) != 0 {
		return fmt.Errorf("%w: pcm length %d is not frame aligned", ErrFormatMismatch, len(c.PCM))
	}
	return nil
}

type Transcriber interface {
	Transcribe(ctx context.Context, clip Clip) (string, error)
}
