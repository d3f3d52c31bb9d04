// Package transport is the engine's view of the chat platform. The engine
// never touches a discordgo session directly; everything goes through this
// interface so tests can run against an in-memory fake.
package transport

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrNotFound covers deleted messages, channels and unknown users.
	ErrNotFound = errors.New("transport: not found")
	// ErrForbidden covers missing permissions, including closed DMs.
	ErrForbidden = errors.New("transport: forbidden")
)

// Message is a fetched channel message reduced to what the engine needs.
type Message struct {
	ID        string
	ChannelID string
	Content   string
	Embed     *discordgo.MessageEmbed
	Reactions []*discordgo.MessageReactions
}

// User is a resolved member profile.
type User struct {
	ID            string
	Name          string
	Discriminator string
	AvatarURL     string
}

type Transport interface {
	// PostMessage sends content and an embed to a channel and returns the
	// new message id.
	PostMessage(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error)
	EditMessage(ctx context.Context, channelID, messageID, content string, embed *discordgo.MessageEmbed) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error
	// ReactionUsers lists members who reacted with emoji on a message.
	ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]User, error)
	// FetchUser resolves a member profile; ErrNotFound means the caller
	// should fall back to the snapshot captured at submission time.
	FetchUser(ctx context.Context, userID string) (*User, error)
	// SendDirect DMs a user. ErrForbidden is expected and non-fatal when
	// the user has DMs closed.
	SendDirect(ctx context.Context, userID, content string, embed *discordgo.MessageEmbed) error
}
