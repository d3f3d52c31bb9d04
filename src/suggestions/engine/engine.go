// Package engine implements the suggestion lifecycle: submission, the
// Pending -> Approved/Rejected state machine, channel routing, vote tallies
// and the reaction guard. It owns no state of its own; everything durable
// lives behind the store and the ban registry.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/communitykit/suggestbox/src/suggestions/bans"
	"github.com/communitykit/suggestbox/src/suggestions/notify"
	"github.com/communitykit/suggestbox/src/suggestions/store"
	"github.com/communitykit/suggestbox/src/suggestions/transport"
	"github.com/communitykit/suggestbox/src/suggestions/types"
)

type Engine struct {
	store  *store.Store
	bans   *bans.Registry
	tp     transport.Transport
	notify *notify.Dispatcher
}

func New(st *store.Store, reg *bans.Registry, tp transport.Transport, nd *notify.Dispatcher) *Engine {
	return &Engine{store: st, bans: reg, tp: tp, notify: nd}
}

// Store exposes the underlying store for the erasure sweep and the ops API.
func (e *Engine) Store() *store.Store { return e.store }

// Bans exposes the ban registry for the command layer.
func (e *Engine) Bans() *bans.Registry { return e.bans }

// Settings returns the guild's settings, creating defaults on first access.
func (e *Engine) Settings(ctx context.Context, guildID string) (types.GuildSettings, error) {
	return e.store.Settings(ctx, guildID)
}

type SubmitRequest struct {
	GuildID       string
	Author        transport.User
	Body          string
	AttachmentURL string
	// Trigger identifies the message that carried the request, when there
	// is one; it is deleted when the guild has delete-on-submit enabled.
	TriggerChannelID string
	TriggerMessageID string
}

type SubmitResult struct {
	SuggestionID   uint64
	ChannelID      string
	MessageID      string
	TriggerDeleted bool
}

// Submit posts a new suggestion. The ban check runs before any state is
// touched; exactly one record is created per successful call.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	gs, err := e.store.Settings(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	channelID, ok := ResolveChannel(gs, TransitionSubmit)
	if !ok {
		return nil, ErrNoChannelConfigured
	}

	banned, err := e.bans.IsBanned(ctx, req.GuildID, req.Author.ID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, ErrBanned
	}

	id, err := e.store.NextID(ctx, req.GuildID)
	if err != nil {
		return nil, err
	}

	rec := types.Suggestion{
		GuildID:             req.GuildID,
		SuggestionID:        id,
		AuthorID:            req.Author.ID,
		AuthorName:          req.Author.Name,
		AuthorDiscriminator: req.Author.Discriminator,
		Body:                req.Body,
	}

	content, embed := buildDisplay(rec, AuthorInfo{
		ID:            req.Author.ID,
		Name:          req.Author.Name,
		Discriminator: req.Author.Discriminator,
		AvatarURL:     req.Author.AvatarURL,
	})
	if req.AttachmentURL != "" && gs.AllowAttachments {
		embed.Image = &discordgo.MessageEmbedImage{URL: req.AttachmentURL}
	}

	msgID, err := e.tp.PostMessage(ctx, channelID, content, embed)
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil, ErrChannelDeleted
		}
		return nil, err
	}

	rec.MessageID = msgID
	if err := e.store.Create(ctx, rec); err != nil {
		// ErrAlreadyExists means the allocator invariant broke; nothing
		// sane can be done for this request.
		log.Printf("engine: create suggestion %s/%d: %v", req.GuildID, id, err)
		return nil, err
	}

	up, down := VoteEmojis(gs)
	for _, emoji := range []string{up, down} {
		if err := e.tp.AddReaction(ctx, channelID, msgID, emoji); err != nil {
			if errors.Is(err, transport.ErrForbidden) {
				return nil, fmt.Errorf("%w: %s", ErrReactionRefused, emoji)
			}
			return nil, err
		}
	}

	res := &SubmitResult{SuggestionID: id, ChannelID: channelID, MessageID: msgID}
	if gs.DeleteOnSubmit && req.TriggerChannelID != "" && req.TriggerMessageID != "" {
		if err := e.tp.DeleteMessage(ctx, req.TriggerChannelID, req.TriggerMessageID); err != nil {
			log.Printf("engine: delete trigger message: %v", err)
		} else {
			res.TriggerDeleted = true
		}
	}
	return res, nil
}

type ResolveRequest struct {
	GuildID     string
	ModeratorID string
	ID          uint64
	Approve     bool
	Reason      string // rejections only
}

// Resolve moves a suggestion to its terminal state. The finished-check and
// the terminal write run under the per-suggestion lock, so of two
// concurrent resolutions exactly one succeeds and the other sees
// ErrAlreadyFinished.
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (*Display, error) {
	var (
		display  *Display
		authorID string
	)

	err := e.store.WithResolveLock(req.GuildID, req.ID, func() error {
		gs, err := e.store.Settings(ctx, req.GuildID)
		if err != nil {
			return err
		}

		rec, err := e.store.Get(ctx, req.GuildID, req.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if rec.Finished {
			return ErrAlreadyFinished
		}

		source := gs.SubmissionChannelID
		oldMsg, err := e.tp.FetchMessage(ctx, source, rec.MessageID)
		if err != nil {
			if errors.Is(err, transport.ErrNotFound) {
				return ErrSourceMessageMissing
			}
			return err
		}

		author := e.authorInfo(ctx, rec)
		content := oldMsg.Content
		if content == "" {
			content = fmt.Sprintf("Suggestion #%d", rec.SuggestionID)
		}
		embed := oldMsg.Embed
		if embed == nil {
			_, embed = buildDisplay(rec, author)
		}

		verb := "Rejected"
		if req.Approve {
			verb = "Approved"
		}
		setEmbedAuthor(embed, fmt.Sprintf("%s suggestion by %s", verb, author.Name), author.AvatarURL)

		up, down := VoteEmojis(gs)
		upCount, downCount := Tally(oldMsg.Reactions, up, down)
		addEmbedField(embed, "Results:", FormatResults(upCount, downCount, up, down))
		if req.Reason != "" {
			addEmbedField(embed, "Reason:", req.Reason)
		}

		transition := TransitionReject
		if req.Approve {
			transition = TransitionApprove
		}
		dest, hasDest := ResolveChannel(gs, transition)

		newMessageID := rec.MessageID
		switch {
		case hasDest && gs.SameChannel:
			// Edit in place; the message does not move.
			if err := e.tp.EditMessage(ctx, source, rec.MessageID, content, embed); err != nil {
				if errors.Is(err, transport.ErrNotFound) {
					return ErrSourceMessageMissing
				}
				return err
			}
		case hasDest:
			if gs.DeleteOnResolve {
				if err := e.tp.DeleteMessage(ctx, source, rec.MessageID); err != nil {
					log.Printf("engine: delete source message %s/%s: %v", source, rec.MessageID, err)
				}
			}
			posted, err := e.tp.PostMessage(ctx, dest, content, embed)
			if err != nil {
				if !errors.Is(err, transport.ErrNotFound) {
					return err
				}
				// Destination vanished between routing and posting; fall
				// back to the no-destination outcome.
				log.Printf("engine: destination channel %s gone: %v", dest, err)
				newMessageID = types.MessageOrphaned
			} else {
				newMessageID = posted
			}
		default:
			// No destination configured: the state change stands, the
			// message is reposted nowhere.
			if gs.DeleteOnResolve {
				if err := e.tp.DeleteMessage(ctx, source, rec.MessageID); err != nil {
					log.Printf("engine: delete source message %s/%s: %v", source, rec.MessageID, err)
				}
			}
			newMessageID = types.MessageOrphaned
		}

		updated, err := e.store.Mutate(ctx, req.GuildID, req.ID, func(cur *types.Suggestion) error {
			if cur.Finished {
				return ErrAlreadyFinished
			}
			cur.Finished = true
			cur.Approved = req.Approve
			cur.Rejected = !req.Approve
			if req.Reason != "" {
				cur.HasReason = true
				cur.ReasonText = req.Reason
			}
			cur.MessageID = newMessageID
			return nil
		})
		if err != nil {
			return err
		}

		authorID = updated.AuthorID
		display = &Display{Content: content, Embed: embed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notify.SuggestionResolved(ctx, authorID, req.Approve, display.Embed)
	return display, nil
}

// AddReason back-fills a reason on a rejected suggestion. Permitted exactly
// once, and only on rejections.
func (e *Engine) AddReason(ctx context.Context, guildID string, id uint64, reason string) (*Display, error) {
	var display *Display

	err := e.store.WithResolveLock(guildID, id, func() error {
		gs, err := e.store.Settings(ctx, guildID)
		if err != nil {
			return err
		}

		rec, err := e.store.Get(ctx, guildID, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !rec.Rejected {
			return ErrNotRejected
		}
		if rec.HasReason {
			return ErrReasonAlreadySet
		}

		rec.HasReason = true
		rec.ReasonText = reason
		author := e.authorInfo(ctx, rec)
		content, embed := buildDisplay(rec, author)

		channelID, _ := ResolveChannel(gs, TransitionReject)
		if channelID != "" && rec.MessageID != types.MessageOrphaned {
			// Best effort: the stored reason is authoritative even when
			// the live message can no longer be edited.
			if err := e.tp.EditMessage(ctx, channelID, rec.MessageID, content, embed); err != nil {
				log.Printf("engine: edit message %s/%s for reason: %v", channelID, rec.MessageID, err)
			}
		}

		_, err = e.store.Mutate(ctx, guildID, id, func(cur *types.Suggestion) error {
			cur.HasReason = true
			cur.ReasonText = reason
			return nil
		})
		if err != nil {
			return err
		}

		display = &Display{Content: content, Embed: embed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return display, nil
}

// Show rebuilds the display for a suggestion from stored state.
func (e *Engine) Show(ctx context.Context, guildID string, id uint64) (*Display, error) {
	rec, err := e.store.Get(ctx, guildID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	author := e.authorInfo(ctx, rec)
	content, embed := buildDisplay(rec, author)
	return &Display{Content: content, Embed: embed}, nil
}

// ReactionGuard enforces single-choice voting: when a member adds a
// reaction to a message in the submission channel, their other reactions on
// that message are removed. It may race with a resolution reading the
// tally; the tally just reflects whatever state existed at read time.
func (e *Engine) ReactionGuard(ctx context.Context, guildID, channelID, messageID, userID, addedEmoji string) error {
	gs, err := e.store.Settings(ctx, guildID)
	if err != nil {
		return err
	}
	if gs.SubmissionChannelID == "" || channelID != gs.SubmissionChannelID {
		return nil
	}

	msg, err := e.tp.FetchMessage(ctx, channelID, messageID)
	if err != nil {
		if errors.Is(err, transport.ErrNotFound) {
			return nil
		}
		return err
	}

	for _, r := range msg.Reactions {
		emoji := r.Emoji.APIName()
		if emoji == addedEmoji {
			continue
		}
		users, err := e.tp.ReactionUsers(ctx, channelID, messageID, emoji)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.ID == userID {
				if err := e.tp.RemoveReaction(ctx, channelID, messageID, emoji, userID); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}
