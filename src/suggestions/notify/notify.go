// Package notify delivers best-effort DMs to suggestion authors. Delivery
// failures are logged and dropped; a closed DM must never fail a resolution.
package notify

import (
	"context"
	"errors"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/communitykit/suggestbox/src/suggestions/transport"
)

type Dispatcher struct {
	tp transport.Transport
}

func NewDispatcher(tp transport.Transport) *Dispatcher {
	return &Dispatcher{tp: tp}
}

// SuggestionResolved tells the author their suggestion reached a terminal
// state, attaching the final display embed.
func (d *Dispatcher) SuggestionResolved(ctx context.Context, authorID string, approved bool, embed *discordgo.MessageEmbed) {
	if authorID == "" {
		return
	}
	content := "Your suggestion has been rejected!"
	if approved {
		content = "Your suggestion has been approved!"
	}
	if err := d.tp.SendDirect(ctx, authorID, content, embed); err != nil {
		if errors.Is(err, transport.ErrForbidden) {
			return
		}
		log.Printf("notify: dm to %s failed: %v", authorID, err)
	}
}
