// Package commands is the slash-command surface. It parses interactions,
// enforces who-may-moderate rules and turns engine errors into short
// plain-text replies; all suggestion semantics live in the engine.
package commands

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/communitykit/suggestbox/src/suggestions/bans"
	"github.com/communitykit/suggestbox/src/suggestions/engine"
)

const (
	CommandSuggest        = "suggest"
	CommandApprove        = "approve"
	CommandReject         = "reject"
	CommandAddReason      = "addreason"
	CommandShowSuggestion = "showsuggestion"
	CommandSuggestSet     = "suggestset"
	CommandBan            = "suggestban"
	CommandUnban          = "suggestunban"
	CommandListBans       = "suggestbans"
	CommandClearBans      = "suggestclearbans"
	CommandPickUser       = "pickuser"
)

// SuggestCooldown is the per-member pause between submissions in a guild.
const SuggestCooldown = 60 * time.Second

var (
	manageGuildPerms = int64(discordgo.PermissionManageGuild)
	banMemberPerms   = int64(discordgo.PermissionBanMembers)
	manageRolePerms  = int64(discordgo.PermissionManageRoles)
	minSuggestionID  = float64(1)
)

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandSuggest: {
		Name:        CommandSuggest,
		Description: "Suggest something",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "suggestion",
				Description: "Your suggestion",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionAttachment,
				Name:        "image",
				Description: "Optional image to attach",
			},
		},
	},
	CommandApprove: {
		Name:                     CommandApprove,
		Description:              "Approve a suggestion",
		DefaultMemberPermissions: &manageGuildPerms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "id",
				Description: "Suggestion number",
				Required:    true,
				MinValue:    &minSuggestionID,
			},
		},
	},
	CommandReject: {
		Name:                     CommandReject,
		Description:              "Reject a suggestion",
		DefaultMemberPermissions: &manageGuildPerms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "id",
				Description: "Suggestion number",
				Required:    true,
				MinValue:    &minSuggestionID,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Why the suggestion was rejected",
			},
		},
	},
	CommandAddReason: {
		Name:                     CommandAddReason,
		Description:              "Add a reason to a rejected suggestion",
		DefaultMemberPermissions: &manageGuildPerms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "id",
				Description: "Suggestion number",
				Required:    true,
				MinValue:    &minSuggestionID,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Why the suggestion was rejected",
				Required:    true,
			},
		},
	},
	CommandShowSuggestion: {
		Name:                     CommandShowSuggestion,
		Description:              "Show a suggestion",
		DefaultMemberPermissions: &manageGuildPerms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "id",
				Description: "Suggestion number",
				Required:    true,
				MinValue:    &minSuggestionID,
			},
		},
	},
	CommandSuggestSet: {
		Name:                     CommandSuggestSet,
		Description:              "Suggestion settings",
		DefaultMemberPermissions: &manageGuildPerms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "channel",
				Description: "Set the channel for suggestions; omit to disable suggestions",
				Options: []*discordgo.ApplicationCommandOption{
					channelOption("Channel new suggestions go to"),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "approved",
				Description: "Set the channel for approved suggestions; omit to stop reposting them",
				Options: []*discordgo.ApplicationCommandOption{
					channelOption("Channel approved suggestions move to"),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "rejected",
				Description: "Set the channel for rejected suggestions; omit to stop reposting them",
				Options: []*discordgo.ApplicationCommandOption{
					channelOption("Channel rejected suggestions move to"),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "same",
				Description: "Keep finished suggestions in the suggestion channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "enabled",
						Description: "Edit in place instead of moving",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "upemoji",
				Description: "Set a custom upvote emoji; omit to restore ✅",
				Options: []*discordgo.ApplicationCommandOption{
					emojiOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "downemoji",
				Description: "Set a custom downvote emoji; omit to restore ❎",
				Options: []*discordgo.ApplicationCommandOption{
					emojiOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "autodelete",
				Description: "Toggle deleting the request message after submitting",
				Options: []*discordgo.ApplicationCommandOption{
					toggleOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Toggle deleting suggestions from the suggestion channel once finished",
				Options: []*discordgo.ApplicationCommandOption{
					toggleOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "attachments",
				Description: "Toggle allowing an attached image on suggestions",
				Options: []*discordgo.ApplicationCommandOption{
					toggleOption(),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "settings",
				Description: "See current settings",
			},
		},
	},
	CommandBan: {
		Name:                     CommandBan,
		Description:              "Ban a member from making suggestions",
		DefaultMemberPermissions: &banMemberPerms,
		Options: []*discordgo.ApplicationCommandOption{
			userOption("Member to ban"),
		},
	},
	CommandUnban: {
		Name:                     CommandUnban,
		Description:              "Unban a member from making suggestions",
		DefaultMemberPermissions: &banMemberPerms,
		Options: []*discordgo.ApplicationCommandOption{
			userOption("Member to unban"),
		},
	},
	CommandListBans: {
		Name:                     CommandListBans,
		Description:              "List members banned from making suggestions",
		DefaultMemberPermissions: &banMemberPerms,
	},
	CommandClearBans: {
		Name:                     CommandClearBans,
		Description:              "Clear all suggestion bans",
		DefaultMemberPermissions: &manageGuildPerms,
	},
	CommandPickUser: {
		Name:                     CommandPickUser,
		Description:              "Pick a random member",
		DefaultMemberPermissions: &manageRolePerms,
	},
}

var defaultCommandOrder = []string{
	CommandSuggest,
	CommandApprove,
	CommandReject,
	CommandAddReason,
	CommandShowSuggestion,
	CommandSuggestSet,
	CommandBan,
	CommandUnban,
	CommandListBans,
	CommandClearBans,
	CommandPickUser,
}

func channelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  description,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

func emojiOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "emoji",
		Description: "The emoji to use",
	}
}

func toggleOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionBoolean,
		Name:        "enabled",
		Description: "Explicit state; omit to flip",
	}
}

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

// RegisterSlashCommands registers every suggestion command for a guild.
func RegisterSlashCommands(s *discordgo.Session, guildID string) error {
	if guildID == "" {
		return fmt.Errorf("commands: guildID is required to register slash commands")
	}

	var failures []string
	for _, name := range defaultCommandOrder {
		definition := commandDefinitions[name]
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, definition); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			log.Printf("commands: failed to register %q: %v", name, err)
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("commands: registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

// Handler holds what the command handlers need.
type Handler struct {
	engine  *engine.Engine
	bans    *bans.Registry
	confirm *bans.ConfirmStore
	limiter *RateLimiter
}

func NewHandler(eng *engine.Engine, reg *bans.Registry, confirm *bans.ConfirmStore) *Handler {
	limiter := NewRateLimiter(SuggestCooldown)
	limiter.StartCleanup(5 * time.Minute)
	return &Handler{engine: eng, bans: reg, confirm: confirm, limiter: limiter}
}

// Close stops the cooldown cleanup goroutine.
func (h *Handler) Close() {
	h.limiter.Stop()
}
