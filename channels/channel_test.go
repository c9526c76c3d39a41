package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/eduoppbot/eduoppbot/model"
	"github.com/stretchr/testify/assert"
)

func TestPermanentError(t *testing.T) {
	base := errors.New("blocked by user")
	wrapped := Permanent(base)

	assert.True(t, IsPermanent(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "blocked by user", wrapped.Error())

	assert.False(t, IsPermanent(base))
	assert.Nil(t, Permanent(nil))
}

func TestRegistrySendUnknownPlatform(t *testing.T) {
	registry := NewRegistry()

	err := registry.Send(context.Background(), model.PlatformTelegram, "123", "hi")
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestRegistrySendUnconfiguredChannel(t *testing.T) {
	registry := NewRegistry(NewTelegramChannel(""))

	err := registry.Send(context.Background(), model.PlatformTelegram, "123", "hi")
	assert.ErrorIs(t, err, ErrChannelUnavailable)
}

func TestCommandReply(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/start", welcomeReply},
		{"hello", welcomeReply},
		{"  /HELP  ", helpReply},
		{"/register", registerReply},
		{"/preferences", preferencesReply},
		{"/opportunities", opportunitiesReply},
		{"what is this", fallbackReply},
		{"", fallbackReply},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CommandReply(tt.input))
		})
	}
}
