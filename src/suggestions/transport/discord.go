package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// Discord adapts a discordgo session to the Transport interface.
type Discord struct {
	session *discordgo.Session
}

func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// wrapErr maps discordgo REST failures onto the transport sentinels so the
// engine can react without knowing about HTTP.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case http.StatusForbidden:
			return fmt.Errorf("%s: %w", op, ErrForbidden)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (d *Discord) PostMessage(ctx context.Context, channelID, content string, embed *discordgo.MessageEmbed) (string, error) {
	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embed:   embed,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", wrapErr("transport: post message", err)
	}
	return msg.ID, nil
}

func (d *Discord) EditMessage(ctx context.Context, channelID, messageID, content string, embed *discordgo.MessageEmbed) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.SetContent(content)
	edit.SetEmbed(embed)
	_, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return wrapErr("transport: edit message", err)
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return wrapErr("transport: delete message", err)
}

func (d *Discord) FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error) {
	msg, err := d.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr("transport: fetch message", err)
	}
	out := &Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Content:   msg.Content,
		Reactions: msg.Reactions,
	}
	if len(msg.Embeds) > 0 {
		out.Embed = msg.Embeds[0]
	}
	return out, nil
}

func (d *Discord) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	err := d.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx))
	return wrapErr("transport: add reaction", err)
}

func (d *Discord) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	err := d.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx))
	return wrapErr("transport: remove reaction", err)
}

// reactionPageSize is the Discord API maximum per reactor-list request.
const reactionPageSize = 100

func (d *Discord) ReactionUsers(ctx context.Context, channelID, messageID, emoji string) ([]User, error) {
	var out []User
	afterID := ""
	for {
		users, err := d.session.MessageReactions(channelID, messageID, emoji,
			reactionPageSize, "", afterID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, wrapErr("transport: reaction users", err)
		}
		for _, u := range users {
			out = append(out, User{
				ID:            u.ID,
				Name:          u.Username,
				Discriminator: u.Discriminator,
				AvatarURL:     u.AvatarURL(""),
			})
		}
		if len(users) < reactionPageSize {
			return out, nil
		}
		afterID = users[len(users)-1].ID
	}
}

func (d *Discord) FetchUser(ctx context.Context, userID string) (*User, error) {
	u, err := d.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, wrapErr("transport: fetch user", err)
	}
	return &User{
		ID:            u.ID,
		Name:          u.Username,
		Discriminator: u.Discriminator,
		AvatarURL:     u.AvatarURL(""),
	}, nil
}

func (d *Discord) SendDirect(ctx context.Context, userID, content string, embed *discordgo.MessageEmbed) error {
	ch, err := d.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return wrapErr("transport: open dm", err)
	}
	_, err = d.session.ChannelMessageSendComplex(ch.ID, &discordgo.MessageSend{
		Content: content,
		Embed:   embed,
	}, discordgo.WithContext(ctx))
	return wrapErr("transport: send dm", err)
}
