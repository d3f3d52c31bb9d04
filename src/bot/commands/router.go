package commands

import (
	"errors"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/communitykit/suggestbox/src/suggestions/engine"
)

// OnInteractionCreate routes slash commands and button presses to their
// handlers. Register it once on the session.
func (h *Handler) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		switch name {
		case CommandSuggest:
			h.handleSuggest(s, i)
		case CommandApprove:
			h.handleResolve(s, i, true)
		case CommandReject:
			h.handleResolve(s, i, false)
		case CommandAddReason:
			h.handleAddReason(s, i)
		case CommandShowSuggestion:
			h.handleShow(s, i)
		case CommandSuggestSet:
			h.handleSuggestSet(s, i)
		case CommandBan:
			h.handleBan(s, i)
		case CommandUnban:
			h.handleUnban(s, i)
		case CommandListBans:
			h.handleListBans(s, i)
		case CommandClearBans:
			h.handleClearBans(s, i)
		case CommandPickUser:
			h.handlePickUser(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		parts := strings.SplitN(customID, ":", 3)
		if parts[0] == "clearbans" && len(parts) == 3 {
			h.handleClearBansComponent(s, i, parts[1], parts[2])
		}
	}
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.Printf("commands: respond: %v", err)
	}
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, content string, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Embeds:  []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("commands: respond embed: %v", err)
	}
}

// tick is the success acknowledgment for moderation commands.
func tick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respond(s, i, "✅", true)
}

// respondError maps an engine error to its user-facing one-liner. Internal
// detail stays in the logs.
func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	content, known := userFacingError(err)
	if !known {
		log.Printf("commands: %s: %v", interactionLabel(i), err)
	}
	respond(s, i, content, true)
}

// userFacingError returns the reply text for an error and whether it was one
// of the engine's known kinds.
func userFacingError(err error) (string, bool) {
	switch {
	case errors.Is(err, engine.ErrNoChannelConfigured):
		return "Uh oh, no channel has been set for suggestions.", true
	case errors.Is(err, engine.ErrChannelDeleted):
		return "Uh oh, it looks like the suggestion channel has been deleted.", true
	case errors.Is(err, engine.ErrNotFound):
		return "Uh oh, that suggestion doesn't seem to exist.", true
	case errors.Is(err, engine.ErrSourceMessageMissing):
		return "Uh oh, message with this ID doesn't exist.", true
	case errors.Is(err, engine.ErrAlreadyFinished):
		return "This suggestion has been finished already.", true
	case errors.Is(err, engine.ErrNotRejected):
		return "This suggestion hasn't been rejected.", true
	case errors.Is(err, engine.ErrReasonAlreadySet):
		return "This suggestion already has a reason.", true
	case errors.Is(err, engine.ErrBanned):
		return "You are banned from making suggestions.", true
	case errors.Is(err, engine.ErrReactionRefused):
		return "Uh oh, I cannot use that emoji.", true
	}
	return "Something went wrong, please try again later.", false
}

// interactionLabel names an interaction for logs. Button presses carry
// component data, not command data; reading the wrong one panics.
func interactionLabel(i *discordgo.InteractionCreate) string {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		return i.MessageComponentData().CustomID
	}
	return i.Type.String()
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
