package gateway

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	t.Run("slack api error", func(t *testing.T) {
		err := slack.SlackErrorResponse{Err: "channel_not_found"}
		assert.Equal(t, "channel_not_found", ErrorCode(err))
	})

	t.Run("wrapped slack api error", func(t *testing.T) {
		err := fmt.Errorf("listing pins: %w", slack.SlackErrorResponse{Err: "not_in_channel"})
		assert.Equal(t, "not_in_channel", ErrorCode(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "dial tcp: timeout", ErrorCode(errors.New("dial tcp: timeout")))
	})
}

func TestDescribe(t *testing.T) {
	t.Run("known code has hint", func(t *testing.T) {
		msg, hint := Describe(slack.SlackErrorResponse{Err: "already_pinned"})
		assert.Equal(t, "Slack API error: already_pinned", msg)
		assert.Contains(t, hint, "already pinned")
	})

	t.Run("unknown code has no hint", func(t *testing.T) {
		msg, hint := Describe(slack.SlackErrorResponse{Err: "mystery_error"})
		assert.Equal(t, "Slack API error: mystery_error", msg)
		assert.Empty(t, hint)
	})

	t.Run("non-api error passes through", func(t *testing.T) {
		msg, hint := Describe(errors.New("open config: no such file"))
		assert.Equal(t, "open config: no such file", msg)
		assert.Empty(t, hint)
	})

	t.Run("rate limit reports retry-after", func(t *testing.T) {
		msg, hint := Describe(&slack.RateLimitedError{RetryAfter: 30 * time.Second})
		assert.Equal(t, "Slack API error: rate_limited", msg)
		assert.Contains(t, hint, "30s")
	})
}
