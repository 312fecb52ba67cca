package audio

// Decoder converts per-speaker Opus packets from the voice transport into
// interleaved 16-bit little-endian PCM at the transport sample rate. Each
// speaker keeps its own decoder state.
type Decoder interface {
	DecodePacket(speakerID string, opusPacket []byte) ([]byte, error)
	Close()
}

type DecoderFactory func() Decoder
