package engine

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/communitykit/suggestbox/src/suggestions/types"
)

const embedColor = 0x5865F2

const unknownAuthorName = "Unknown"

// AuthorInfo is the byline shown on a suggestion. It comes from a live
// profile lookup when possible and from the snapshot captured at submission
// when the author is no longer resolvable.
type AuthorInfo struct {
	ID            string
	Name          string
	Discriminator string
	AvatarURL     string
}

func (e *Engine) authorInfo(ctx context.Context, rec types.Suggestion) AuthorInfo {
	if rec.AuthorID == "" {
		// Cleared by the erasure sweep.
		return AuthorInfo{Name: unknownAuthorName}
	}
	info := AuthorInfo{
		ID:            rec.AuthorID,
		Name:          rec.AuthorName,
		Discriminator: rec.AuthorDiscriminator,
	}
	u, err := e.tp.FetchUser(ctx, rec.AuthorID)
	if err != nil {
		return info
	}
	info.Name = u.Name
	info.Discriminator = u.Discriminator
	info.AvatarURL = u.AvatarURL
	return info
}

func titleFor(rec types.Suggestion, author AuthorInfo) string {
	switch {
	case rec.Finished && rec.Approved:
		return fmt.Sprintf("Approved suggestion by %s", author.Name)
	case rec.Finished && rec.Rejected:
		return fmt.Sprintf("Rejected suggestion by %s", author.Name)
	default:
		return fmt.Sprintf("Suggestion by %s", author.Name)
	}
}

// buildDisplay renders the stored record as message content plus embed. The
// live message is built the same way at submission time; Show and AddReason
// rebuild from the record so the display never drifts from stored state.
func buildDisplay(rec types.Suggestion, author AuthorInfo) (string, *discordgo.MessageEmbed) {
	content := fmt.Sprintf("Suggestion #%d", rec.SuggestionID)
	embed := &discordgo.MessageEmbed{
		Color:       embedColor,
		Description: rec.Body,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    titleFor(rec, author),
			IconURL: author.AvatarURL,
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Suggested by %s#%s (%s)", author.Name, author.Discriminator, author.ID),
		},
	}
	if rec.HasReason {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Reason:",
			Value: rec.ReasonText,
		})
	}
	return content, embed
}

// setEmbedAuthor rewrites the byline on an already-posted embed, keeping
// whatever fields resolution appended.
func setEmbedAuthor(embed *discordgo.MessageEmbed, name, iconURL string) {
	if embed.Author == nil {
		embed.Author = &discordgo.MessageEmbedAuthor{}
	}
	embed.Author.Name = name
	embed.Author.IconURL = iconURL
}

func addEmbedField(embed *discordgo.MessageEmbed, name, value string) {
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: name, Value: value})
}

// Display is a rendered suggestion ready to send.
type Display struct {
	Content string
	Embed   *discordgo.MessageEmbed
}
