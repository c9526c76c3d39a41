package services

import "errors"

var (
	// ErrNotFound signals a missing user, opportunity, subscription or
	// notification. Handlers map it to 404.
	ErrNotFound = errors.New("not found")

	// ErrAlreadySubscribed is the no-op signal for a duplicate subscribe.
	// It is distinguishable from success but is not a failure.
	ErrAlreadySubscribed = errors.New("already subscribed")

	// ErrDuplicateBinding signals that a (platform, address) pair already
	// has an active binding, possibly on another user.
	ErrDuplicateBinding = errors.New("platform binding already in use")
)
