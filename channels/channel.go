package channels

import (
	"context"
	"errors"
	"log"

	"github.com/eduoppbot/eduoppbot/model"
)

// Channel is the capability every chat platform implements. Send errors are
// consumed by the dispatcher; they must never panic. Start is a no-op when
// credentials are unconfigured, and Stop is safe to call even if Start
// never completed.
type Channel interface {
	Kind() model.Platform
	Configured() bool
	Start() error
	Stop() error
	Send(ctx context.Context, recipient, text string) error
}

// PermanentError marks a send failure that retrying cannot fix, such as an
// invalid or blocked recipient.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is marked non-retryable
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ErrChannelUnavailable is returned when a send targets a platform that has
// no configured channel.
var ErrChannelUnavailable = errors.New("channel not configured")

// Registry holds the set of constructed channels. It is built once at
// startup and passed explicitly to whatever needs to send.
type Registry struct {
	channels map[model.Platform]Channel
}

// NewRegistry builds a registry from the given channels, keyed by kind
func NewRegistry(chs ...Channel) *Registry {
	r := &Registry{channels: make(map[model.Platform]Channel, len(chs))}
	for _, ch := range chs {
		r.channels[ch.Kind()] = ch
	}
	return r
}

// Get returns the channel for the given platform
func (r *Registry) Get(kind model.Platform) (Channel, bool) {
	ch, ok := r.channels[kind]
	return ch, ok
}

// Send delivers text to recipient on the given platform
func (r *Registry) Send(ctx context.Context, kind model.Platform, recipient, text string) error {
	ch, ok := r.channels[kind]
	if !ok || !ch.Configured() {
		return ErrChannelUnavailable
	}
	return ch.Send(ctx, recipient, text)
}

// StartAll starts every configured channel. A channel that fails to start
// is skipped with a warning; startup never aborts over a single platform.
func (r *Registry) StartAll() {
	for kind, ch := range r.channels {
		if err := ch.Start(); err != nil {
			log.Printf("Warning: failed to start %s channel: %v", kind, err)
		}
	}
}

// StopAll stops every channel
func (r *Registry) StopAll() {
	for kind, ch := range r.channels {
		if err := ch.Stop(); err != nil {
			log.Printf("Error stopping %s channel: %v", kind, err)
		}
	}
}
