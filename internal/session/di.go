package session

import (
	"github.com/samber/do/v2"

	"github.com/MLG-SERBUR/PtBot/internal/audio"
	"github.com/MLG-SERBUR/PtBot/internal/config"
	"github.com/MLG-SERBUR/PtBot/internal/discord"
	"github.com/MLG-SERBUR/PtBot/internal/metrics"
	"github.com/MLG-SERBUR/PtBot/internal/render"
	"github.com/MLG-SERBUR/PtBot/internal/repository"
	"github.com/MLG-SERBUR/PtBot/internal/transcriber"
	"github.com/MLG-SERBUR/PtBot/internal/webhook"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		return NewManager(
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[repository.Repository](i),
			do.MustInvoke[discord.Client](i),
			do.MustInvoke[transcriber.Transcriber](i),
			do.MustInvoke[render.Sink](i),
			do.MustInvoke[webhook.Sender](i),
			do.MustInvoke[audio.DecoderFactory](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
}
