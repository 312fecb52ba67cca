package audio

import (
	"github.com/samber/do/v2"

	"github.com/MLG-SERBUR/PtBot/internal/audio"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, audio.DecoderFactory(func() audio.Decoder {
		return NewOpusDecoder()
	}))
}
