// Package slack posts upgrade request notifications to an admin channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	perrors "github.com/Ali-xra/ai-startup-mentor-sub000/internal/errors"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/retry"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

// BotAPI abstracts the Slack API client for testing.
type BotAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

// Notifier posts to a single channel.
type Notifier struct {
	api     BotAPI
	channel string
	retry   retry.Config
	logger  zerolog.Logger
}

// NewNotifier creates a notifier using a bot token.
func NewNotifier(botToken, channel string, logger zerolog.Logger) *Notifier {
	return newNotifier(slack.New(botToken), channel, logger)
}

func newNotifier(api BotAPI, channel string, logger zerolog.Logger) *Notifier {
	n := &Notifier{
		api:     api,
		channel: channel,
		retry:   retry.DefaultConfig(),
		logger:  logger.With().Str("component", "slack").Logger(),
	}
	n.retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		n.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying slack post")
	}
	return n
}

// NotifyUpgradeRequest posts a new request. Rate-limited and 5xx responses are retried.
func (n *Notifier) NotifyUpgradeRequest(ctx context.Context, r *upgrade.Request) error {
	blocks := UpgradeRequestBlocks(r)
	fallback := UpgradeSummary(r)

	var ts string
	err := retry.Do(ctx, n.retry, func(ctx context.Context) error {
		_, msgTS, err := n.api.PostMessageContext(ctx, n.channel,
			slack.MsgOptionText(fallback, false),
			slack.MsgOptionBlocks(blocks...),
		)
		if err != nil {
			return classify(err)
		}
		ts = msgTS
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to post upgrade request %s: %w", r.ID, err)
	}

	n.logger.Debug().Str("request_id", r.ID).Str("channel", n.channel).Str("ts", ts).Msg("upgrade request posted")
	return nil
}

// Ping verifies the bot token.
func (n *Notifier) Ping(ctx context.Context) error {
	if _, err := n.api.AuthTestContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps Slack client errors onto retryable API errors where it can.
func classify(err error) error {
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		return &perrors.APIError{Service: "slack", StatusCode: 429, Message: "rate limited", Err: err, RetryAfter: rl.RetryAfter}
	}
	var se slack.StatusCodeError
	if errors.As(err, &se) {
		return &perrors.APIError{Service: "slack", StatusCode: se.Code, Message: se.Status, Err: err}
	}
	return err
}
