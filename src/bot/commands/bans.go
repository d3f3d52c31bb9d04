package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// canModerate applies the ban hierarchy rules: no acting on yourself, never
// on the guild owner, and only on members ranked strictly below you unless
// you own the guild.
func canModerate(s *discordgo.Session, i *discordgo.InteractionCreate, targetID string, targetMember *discordgo.Member) bool {
	moderatorID := i.Member.User.ID
	if targetID == moderatorID {
		return false
	}

	guild, err := s.State.Guild(i.GuildID)
	if err != nil {
		guild, err = s.Guild(i.GuildID)
		if err != nil {
			log.Printf("commands: fetch guild %s: %v", i.GuildID, err)
			return false
		}
	}
	if targetID == guild.OwnerID {
		return false
	}
	if moderatorID == guild.OwnerID {
		return true
	}
	return topRolePosition(guild, targetMember) < topRolePosition(guild, i.Member)
}

func topRolePosition(guild *discordgo.Guild, m *discordgo.Member) int {
	pos := 0
	if m == nil {
		return pos
	}
	for _, roleID := range m.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Position > pos {
				pos = role.Position
			}
		}
	}
	return pos
}

func resolvedMember(i *discordgo.InteractionCreate, userID string) *discordgo.Member {
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		return resolved.Members[userID]
	}
	return nil
}

// fromGuildMember reports whether the interaction came from inside a guild.
// DM invocations carry no member.
func fromGuildMember(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.User != nil
}

func (h *Handler) handleBan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !fromGuildMember(i) {
		respond(s, i, "This command only works inside a server.", true)
		return
	}

	target := optionMap(i.ApplicationCommandData().Options)["user"].UserValue(s)
	if !canModerate(s, i, target.ID, resolvedMember(i, target.ID)) {
		respond(s, i, "You can't ban that user from making suggestions.", true)
		return
	}

	added, err := h.bans.Ban(context.Background(), i.GuildID, target.ID, i.Member.User.ID)
	if err != nil {
		respondError(s, i, err)
		return
	}
	if !added {
		respond(s, i, "That user is already banned from making suggestions.", true)
		return
	}
	tick(s, i)
}

func (h *Handler) handleUnban(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !fromGuildMember(i) {
		respond(s, i, "This command only works inside a server.", true)
		return
	}

	target := optionMap(i.ApplicationCommandData().Options)["user"].UserValue(s)
	if !canModerate(s, i, target.ID, resolvedMember(i, target.ID)) {
		respond(s, i, "You can't unban that user from making suggestions.", true)
		return
	}

	removed, err := h.bans.Unban(context.Background(), i.GuildID, target.ID)
	if err != nil {
		respondError(s, i, err)
		return
	}
	if !removed {
		respond(s, i, "That user isn't banned from making suggestions.", true)
		return
	}
	tick(s, i)
}

func (h *Handler) handleListBans(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ids, err := h.bans.ListBanned(context.Background(), i.GuildID)
	if err != nil {
		respondError(s, i, err)
		return
	}
	if len(ids) == 0 {
		respond(s, i, "No users are banned from making suggestions.", true)
		return
	}

	mentions := make([]string, len(ids))
	for n, id := range ids {
		mentions[n] = "<@" + id + ">"
	}
	respond(s, i, "Banned from making suggestions: "+strings.Join(mentions, ", "), true)
}

func (h *Handler) handleClearBans(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !fromGuildMember(i) {
		respond(s, i, "This command only works inside a server.", true)
		return
	}

	ctx := context.Background()
	ids, err := h.bans.ListBanned(ctx, i.GuildID)
	if err != nil {
		respondError(s, i, err)
		return
	}
	if len(ids) == 0 {
		respond(s, i, "No users are banned from making suggestions.", true)
		return
	}

	moderatorID := i.Member.User.ID
	if err := h.confirm.Begin(ctx, i.GuildID, moderatorID); err != nil {
		respondError(s, i, err)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Are you sure you want to clear all %d users banned from making suggestions?", len(ids)),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Yes, clear them",
							Style:    discordgo.DangerButton,
							CustomID: "clearbans:confirm:" + moderatorID,
						},
						discordgo.Button{
							Label:    "No",
							Style:    discordgo.SecondaryButton,
							CustomID: "clearbans:cancel:" + moderatorID,
						},
					},
				},
			},
		},
	})
	if err != nil {
		log.Printf("commands: clearbans prompt: %v", err)
	}
}

// handleClearBansComponent finishes the clear-bans confirmation flow. The
// pending token lives in Redis for 30 seconds; a press after expiry aborts
// with no mutation.
func (h *Handler) handleClearBansComponent(s *discordgo.Session, i *discordgo.InteractionCreate, action, moderatorID string) {
	if i.Member == nil || i.Member.User.ID != moderatorID {
		respond(s, i, "This confirmation isn't for you.", true)
		return
	}

	ctx := context.Background()
	var content string
	switch action {
	case "confirm":
		pending, err := h.confirm.Consume(ctx, i.GuildID, moderatorID)
		if err != nil {
			respondError(s, i, err)
			return
		}
		if !pending {
			content = "You never responded in time, please use the command again to clear all the banned members."
			break
		}
		if _, err := h.bans.Clear(ctx, i.GuildID); err != nil {
			respondError(s, i, err)
			return
		}
		content = "✅"
	case "cancel":
		if err := h.confirm.Cancel(ctx, i.GuildID, moderatorID); err != nil {
			log.Printf("commands: cancel clearbans: %v", err)
		}
		content = "Ok, I won't unban anyone."
	default:
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Printf("commands: clearbans update: %v", err)
	}
}
