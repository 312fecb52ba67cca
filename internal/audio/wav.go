package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps raw interleaved 16-bit little-endian PCM in a RIFF/WAVE
// container so engines that only accept self-describing files can consume it.
func EncodeWAV(pcm []byte, channels, sampleRateHz int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, fmt.Errorf("cannot encode empty pcm data")
	}
	if channels <= 0 || sampleRateHz <= 0 {
		return nil, fmt.Errorf("invalid wav parameters: channels=%d sample_rate=%d", channels, sampleRateHz)
	}
	bytesPerFrame := channels * 2
	if len(pcm)%bytesPerFrame != 0 {
		return nil, fmt.Errorf("pcm length %d is not a multiple of the frame size %d", len(pcm), bytesPerFrame)
	}

	dataSize := uint32(len(pcm))
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRateHz),
		ByteRate:      uint32(sampleRateHz) * uint32(channels) * 2,
		BlockAlign:    uint16(channels) * 2,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write wav header: %w", err)
	}
	buf.Write(pcm)
	return buf.Bytes(), nil
}
