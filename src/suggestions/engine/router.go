package engine

import "github.com/communitykit/suggestbox/src/suggestions/types"

// Transition names the routing decision being made.
type Transition int

const (
	TransitionSubmit Transition = iota
	TransitionApprove
	TransitionReject
)

// ResolveChannel picks the destination channel for a transition. ok=false
// means no channel is configured for it: a submission cannot proceed, while
// a resolution keeps its state change but reposts nowhere.
//
// In same-channel mode approvals and rejections stay in the submission
// channel and the message is edited in place instead of moved.
func ResolveChannel(gs types.GuildSettings, t Transition) (string, bool) {
	switch t {
	case TransitionSubmit:
		return gs.SubmissionChannelID, gs.SubmissionChannelID != ""
	case TransitionApprove:
		if gs.SameChannel {
			return gs.SubmissionChannelID, gs.SubmissionChannelID != ""
		}
		return gs.ApprovedChannelID, gs.ApprovedChannelID != ""
	case TransitionReject:
		if gs.SameChannel {
			return gs.SubmissionChannelID, gs.SubmissionChannelID != ""
		}
		return gs.RejectedChannelID, gs.RejectedChannelID != ""
	}
	return "", false
}
