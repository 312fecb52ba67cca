package discord

import (
	"github.com/samber/do/v2"

	"github.com/MLG-SERBUR/PtBot/internal/config"
	discordpkg "github.com/MLG-SERBUR/PtBot/internal/discord"
	"github.com/MLG-SERBUR/PtBot/internal/render"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.DiscordToken), nil
	})
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		return do.MustInvoke[*Client](i), nil
	})
	do.Provide(injector, func(i do.Injector) (render.Sink, error) {
		return NewEmbedSink(do.MustInvoke[*Client](i)), nil
	})
}
