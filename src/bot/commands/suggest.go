package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/communitykit/suggestbox/src/suggestions/engine"
	"github.com/communitykit/suggestbox/src/suggestions/transport"
)

func (h *Handler) handleSuggest(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !fromGuildMember(i) {
		respond(s, i, "Suggestions only work inside a server.", true)
		return
	}

	user := i.Member.User
	limiterKey := i.GuildID + ":" + user.ID
	if !h.limiter.CanUse(limiterKey) {
		wait := h.limiter.TimeUntilNext(limiterKey).Round(time.Second)
		respond(s, i, fmt.Sprintf("You're suggesting too fast, try again in %s.", wait), true)
		return
	}

	opts := optionMap(i.ApplicationCommandData().Options)
	body := opts["suggestion"].StringValue()

	var attachmentURL string
	if opt, ok := opts["image"]; ok {
		attachmentID := opt.Value.(string)
		if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
			if att, ok := resolved.Attachments[attachmentID]; ok {
				attachmentURL = att.URL
			}
		}
	}

	res, err := h.engine.Submit(context.Background(), engine.SubmitRequest{
		GuildID: i.GuildID,
		Author: transport.User{
			ID:            user.ID,
			Name:          user.Username,
			Discriminator: user.Discriminator,
			AvatarURL:     user.AvatarURL(""),
		},
		Body:          body,
		AttachmentURL: attachmentURL,
	})
	if err != nil {
		respondError(s, i, err)
		return
	}

	respond(s, i, fmt.Sprintf("Your suggestion has been sent for approval! (#%d)", res.SuggestionID), true)
}

func (h *Handler) handleResolve(s *discordgo.Session, i *discordgo.InteractionCreate, approve bool) {
	if !fromGuildMember(i) {
		respond(s, i, "This command only works inside a server.", true)
		return
	}

	opts := optionMap(i.ApplicationCommandData().Options)
	id := uint64(opts["id"].IntValue())

	var reason string
	if opt, ok := opts["reason"]; ok {
		reason = opt.StringValue()
	}

	_, err := h.engine.Resolve(context.Background(), engine.ResolveRequest{
		GuildID:     i.GuildID,
		ModeratorID: i.Member.User.ID,
		ID:          id,
		Approve:     approve,
		Reason:      reason,
	})
	if err != nil {
		respondError(s, i, err)
		return
	}
	tick(s, i)
}

func (h *Handler) handleAddReason(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	id := uint64(opts["id"].IntValue())
	reason := opts["reason"].StringValue()

	_, err := h.engine.AddReason(context.Background(), i.GuildID, id, reason)
	if err != nil {
		respondError(s, i, err)
		return
	}
	tick(s, i)
}

func (h *Handler) handleShow(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i.ApplicationCommandData().Options)
	id := uint64(opts["id"].IntValue())

	display, err := h.engine.Show(context.Background(), i.GuildID, id)
	if err != nil {
		respondError(s, i, err)
		return
	}
	respondEmbed(s, i, display.Content, display.Embed)
}
