//go:build !opus

package audio

import "github.com/MLG-SERBUR/PtBot/internal/audio"

type noopDecoder struct{}

func NewOpusDecoder() audio.Decoder {
	return &noopDecoder{}
}

func (d *noopDecoder) DecodePacket(_ string, _ []byte) ([]byte, error) {
	return nil, nil
}

func (d *noopDecoder) Close() {}
