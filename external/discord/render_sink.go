package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/MLG-SERBUR/PtBot/internal/render"
)

const (
	liveEmbedTitle  = "Live Transcription"
	finalEmbedTitle = "Transcription Complete"

	liveEmbedColor  = 0xED4245 // discord red
	finalEmbedColor = 0x57F287 // discord green
)

// EmbedSink renders the transcript document as a single embed message that is
// edited in place on every update.
type EmbedSink struct {
	client *Client
}

func NewEmbedSink(client *Client) render.Sink {
	return &EmbedSink{client: client}
}

func (s *EmbedSink) Create(ctx context.Context, channelID, content string, final bool) (string, error) {
	_ = ctx
	msg, err := s.client.session.ChannelMessageSendEmbed(channelID, transcriptEmbed(content, final))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (s *EmbedSink) Edit(ctx context.Context, channelID, documentID, content string, final bool) error {
	_ = ctx
	_, err := s.client.session.ChannelMessageEditEmbed(channelID, documentID, transcriptEmbed(content, final))
	if err != nil {
		if isRESTNotFound(err) {
			return render.ErrNotFound
		}
		return err
	}
	return nil
}

func transcriptEmbed(content string, final bool) *discordgo.MessageEmbed {
	title := liveEmbedTitle
	color := liveEmbedColor
	if final {
		title = finalEmbedTitle
		color = finalEmbedColor
	}
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: content,
		Color:       color,
	}
}
