package engine

import "errors"

// Engine operations fail with exactly one of these kinds. The command layer
// turns them into user-facing text; nothing else leaks out.
var (
	ErrNoChannelConfigured  = errors.New("no suggestion channel configured")
	ErrChannelDeleted       = errors.New("suggestion channel deleted")
	ErrNotFound             = errors.New("suggestion does not exist")
	ErrAlreadyFinished      = errors.New("suggestion already finished")
	ErrNotRejected          = errors.New("suggestion is not rejected")
	ErrReasonAlreadySet     = errors.New("suggestion already has a reason")
	ErrBanned               = errors.New("member is banned from suggesting")
	ErrSourceMessageMissing = errors.New("suggestion message missing")
	ErrReactionRefused      = errors.New("cannot use that emoji")
)
