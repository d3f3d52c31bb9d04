package engine

import (
	"context"

	"github.com/communitykit/suggestbox/src/suggestions/types"
)

// Settings mutations. All of them go through the store's guild lock; the
// command layer decides who is allowed to call them.

// SetChannel binds the channel for a transition. An empty channelID clears
// the binding: submissions become disabled, resolutions stop reposting.
func (e *Engine) SetChannel(ctx context.Context, guildID string, t Transition, channelID string) error {
	_, err := e.store.UpdateSettings(ctx, guildID, func(gs *types.GuildSettings) {
		switch t {
		case TransitionSubmit:
			gs.SubmissionChannelID = channelID
		case TransitionApprove:
			gs.ApprovedChannelID = channelID
		case TransitionReject:
			gs.RejectedChannelID = channelID
		}
	})
	return err
}

// SetSameChannel switches between edit-in-place and repost-and-move modes.
func (e *Engine) SetSameChannel(ctx context.Context, guildID string, same bool) error {
	_, err := e.store.UpdateSettings(ctx, guildID, func(gs *types.GuildSettings) {
		gs.SameChannel = same
	})
	return err
}

// SetVoteEmoji stores a custom up or down vote emoji; empty restores the
// default. The command layer validates the emoji is usable first.
func (e *Engine) SetVoteEmoji(ctx context.Context, guildID string, up bool, emoji string) error {
	_, err := e.store.UpdateSettings(ctx, guildID, func(gs *types.GuildSettings) {
		if up {
			gs.UpEmoji = emoji
		} else {
			gs.DownEmoji = emoji
		}
	})
	return err
}

// toggle flips a boolean field, or sets it when an explicit value is given,
// and reports the resulting state.
func (e *Engine) toggle(ctx context.Context, guildID string, explicit *bool, field func(*types.GuildSettings) *bool) (bool, error) {
	var state bool
	_, err := e.store.UpdateSettings(ctx, guildID, func(gs *types.GuildSettings) {
		f := field(gs)
		if explicit != nil {
			*f = *explicit
		} else {
			*f = !*f
		}
		state = *f
	})
	return state, err
}

// ToggleDeleteOnSubmit controls whether the triggering request message is
// deleted after a successful submission.
func (e *Engine) ToggleDeleteOnSubmit(ctx context.Context, guildID string, explicit *bool) (bool, error) {
	return e.toggle(ctx, guildID, explicit, func(gs *types.GuildSettings) *bool { return &gs.DeleteOnSubmit })
}

// ToggleDeleteOnResolve controls whether the original suggestion message is
// deleted from the submission channel on approval/rejection.
func (e *Engine) ToggleDeleteOnResolve(ctx context.Context, guildID string, explicit *bool) (bool, error) {
	return e.toggle(ctx, guildID, explicit, func(gs *types.GuildSettings) *bool { return &gs.DeleteOnResolve })
}

// ToggleAllowAttachments controls whether a submission may carry an image.
func (e *Engine) ToggleAllowAttachments(ctx context.Context, guildID string, explicit *bool) (bool, error) {
	return e.toggle(ctx, guildID, explicit, func(gs *types.GuildSettings) *bool { return &gs.AllowAttachments })
}
