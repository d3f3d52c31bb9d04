package commands

import (
	"context"
	"log"
	"regexp"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/communitykit/suggestbox/src/suggestions/engine"
)

func (h *Handler) handleSuggestSet(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub := i.ApplicationCommandData().Options[0]
	opts := optionMap(sub.Options)
	ctx := context.Background()

	switch sub.Name {
	case "channel":
		h.setChannel(s, i, ctx, opts, engine.TransitionSubmit)
	case "approved":
		h.setChannel(s, i, ctx, opts, engine.TransitionApprove)
	case "rejected":
		h.setChannel(s, i, ctx, opts, engine.TransitionReject)
	case "same":
		same := opts["enabled"].BoolValue()
		if err := h.engine.SetSameChannel(ctx, i.GuildID, same); err != nil {
			respondError(s, i, err)
			return
		}
		if same {
			respond(s, i, "Suggestions won't be reposted anywhere, only their title will change accordingly.", false)
		} else {
			respond(s, i, "Suggestions will go to their appropriate channels upon approving/rejecting.", false)
		}
	case "upemoji":
		h.setEmoji(s, i, ctx, opts, true)
	case "downemoji":
		h.setEmoji(s, i, ctx, opts, false)
	case "autodelete":
		state, err := h.engine.ToggleDeleteOnSubmit(ctx, i.GuildID, explicitToggle(opts))
		if err != nil {
			respondError(s, i, err)
			return
		}
		if state {
			respond(s, i, "Auto deletion is now enabled.", false)
		} else {
			respond(s, i, "Auto deletion is now disabled.", false)
		}
	case "delete":
		state, err := h.engine.ToggleDeleteOnResolve(ctx, i.GuildID, explicitToggle(opts))
		if err != nil {
			respondError(s, i, err)
			return
		}
		if state {
			respond(s, i, "Suggestions will be deleted upon approving/rejecting from the original suggestion channel.", false)
		} else {
			respond(s, i, "Suggestions will stay in the original channel after approving/rejecting.", false)
		}
	case "attachments":
		state, err := h.engine.ToggleAllowAttachments(ctx, i.GuildID, explicitToggle(opts))
		if err != nil {
			respondError(s, i, err)
			return
		}
		if state {
			respond(s, i, "Attachments are now allowed on suggestions.", false)
		} else {
			respond(s, i, "Attachments are no longer allowed on suggestions.", false)
		}
	case "settings":
		h.showSettings(s, i, ctx)
	}
}

func explicitToggle(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) *bool {
	if opt, ok := opts["enabled"]; ok {
		v := opt.BoolValue()
		return &v
	}
	return nil
}

func (h *Handler) setChannel(s *discordgo.Session, i *discordgo.InteractionCreate, ctx context.Context, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, t engine.Transition) {
	var channelID string
	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(s).ID
	}
	if err := h.engine.SetChannel(ctx, i.GuildID, t, channelID); err != nil {
		respondError(s, i, err)
		return
	}
	tick(s, i)
}

// customEmojiPattern matches the <:name:id> (or animated <a:name:id>) form
// a user pastes for a guild emoji.
var customEmojiPattern = regexp.MustCompile(`^<(a?):([A-Za-z0-9_]+):([0-9]+)>$`)

// parseEmoji normalizes user input to the API name discordgo reacts with:
// "name:id" for guild emoji, the glyph itself for unicode.
func parseEmoji(input string) string {
	if m := customEmojiPattern.FindStringSubmatch(input); m != nil {
		return m[2] + ":" + m[3]
	}
	return input
}

// setEmoji validates the emoji by reacting to our own reply before storing
// it; an emoji the bot cannot use would break vote seeding.
func (h *Handler) setEmoji(s *discordgo.Session, i *discordgo.InteractionCreate, ctx context.Context, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, up bool) {
	opt, ok := opts["emoji"]
	if !ok {
		if err := h.engine.SetVoteEmoji(ctx, i.GuildID, up, ""); err != nil {
			respondError(s, i, err)
			return
		}
		tick(s, i)
		return
	}

	emoji := parseEmoji(opt.StringValue())
	respond(s, i, "Checking that emoji...", false)
	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		log.Printf("commands: fetch interaction response: %v", err)
		return
	}
	if err := s.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
		editResponse(s, i, "Uh oh, I cannot use that emoji.")
		return
	}
	if err := h.engine.SetVoteEmoji(ctx, i.GuildID, up, emoji); err != nil {
		editResponse(s, i, "Something went wrong, please try again later.")
		return
	}
	editResponse(s, i, "✅")
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	if err != nil {
		log.Printf("commands: edit response: %v", err)
	}
}

func channelMention(id string) string {
	if id == "" {
		return "None"
	}
	return "<#" + id + ">"
}

func onOff(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

func (h *Handler) showSettings(s *discordgo.Session, i *discordgo.InteractionCreate, ctx context.Context) {
	gs, err := h.engine.Settings(ctx, i.GuildID)
	if err != nil {
		respondError(s, i, err)
		return
	}
	up, down := engine.VoteEmojis(gs)

	embed := &discordgo.MessageEmbed{
		Title:     "Suggestion settings (guild):",
		Color:     0x5865F2,
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "*required to function properly"},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Same channel*:", Value: onOff(gs.SameChannel)},
			{Name: "Suggest channel*:", Value: channelMention(gs.SubmissionChannelID), Inline: true},
			{Name: "Approved channel:", Value: channelMention(gs.ApprovedChannelID), Inline: true},
			{Name: "Rejected channel:", Value: channelMention(gs.RejectedChannelID), Inline: true},
			{Name: "Up emoji:", Value: displayEmoji(up), Inline: true},
			{Name: "Down emoji:", Value: displayEmoji(down), Inline: true},
			{Name: "Delete /suggest upon use:", Value: onOff(gs.DeleteOnSubmit)},
			{Name: "Delete suggestion upon approving/rejecting:", Value: onOff(gs.DeleteOnResolve)},
			{Name: "Allow attachments:", Value: onOff(gs.AllowAttachments)},
		},
	}
	respondEmbed(s, i, "", embed)
}

// displayEmoji turns a stored API name back into something rendered in chat.
func displayEmoji(apiName string) string {
	if customEmojiPattern.MatchString("<:" + apiName + ">") {
		return "<:" + apiName + ">"
	}
	return apiName
}
