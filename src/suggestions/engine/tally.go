package engine

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/communitykit/suggestbox/src/suggestions/types"
)

// Default vote emoji, used when a guild has not configured custom ones.
const (
	DefaultUpEmoji   = "✅"
	DefaultDownEmoji = "❎"
)

// VoteEmojis returns the guild's up/down symbols with defaults applied.
func VoteEmojis(gs types.GuildSettings) (up, down string) {
	up, down = gs.UpEmoji, gs.DownEmoji
	if up == "" {
		up = DefaultUpEmoji
	}
	if down == "" {
		down = DefaultDownEmoji
	}
	return up, down
}

// Tally counts the up and down votes on a message. The bot seeds one
// reaction of each kind when the suggestion is posted, so one is subtracted
// from each raw count. Absent reactions count as zero.
func Tally(reactions []*discordgo.MessageReactions, up, down string) (upCount, downCount int) {
	for _, r := range reactions {
		if r == nil || r.Emoji.APIName() == "" {
			continue
		}
		switch r.Emoji.APIName() {
		case up:
			upCount = r.Count - 1
		case down:
			downCount = r.Count - 1
		}
	}
	if upCount < 0 {
		upCount = 0
	}
	if downCount < 0 {
		downCount = 0
	}
	return upCount, downCount
}

// FormatResults renders a tally the way it appears in the Results field.
func FormatResults(upCount, downCount int, up, down string) string {
	return fmt.Sprintf("%dx %s\n%dx %s", upCount, up, downCount, down)
}
