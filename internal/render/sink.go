package render

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Edit when the target document no longer exists,
// for example because someone deleted the message out from under the bot.
var ErrNotFound = errors.New("render target document not found")

// Sink is the surface that displays the live transcript document. Create
// returns an opaque document ID that later edits target.
type Sink interface {
	Create(ctx context.Context, channelID, content string, final bool) (string, error)
	Edit(ctx context.Context, channelID, documentID, content string, final bool) error
}
