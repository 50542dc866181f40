package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"
)

const (
	maxRetries = 3
	baseDelay  = time.Second
)

// messagePoster is the slice of the Slack API used here, extracted so
// tests can substitute a fake.
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackAnnouncer posts a short promotion announcement to a channel.
type SlackAnnouncer struct {
	client  messagePoster
	channel string
	delay   time.Duration
	log     *slog.Logger
}

func NewSlackAnnouncer(token, channel string, log *slog.Logger) *SlackAnnouncer {
	return &SlackAnnouncer{
		client:  slack.New(token),
		channel: channel,
		delay:   baseDelay,
		log:     log,
	}
}

func (a *SlackAnnouncer) Congratulate(ctx context.Context, username, reason string) {
	text := fmt.Sprintf(":tada: *%s* was promoted to the collaborators team (%s)", username, reason)

	err := a.withRetry(func() error {
		_, _, err := a.client.PostMessageContext(ctx, a.channel,
			slack.MsgOptionText(text, false))
		return err
	})
	if err != nil {
		a.log.Warn("could not announce promotion on Slack",
			slog.String("username", username),
			slog.String("channel", a.channel),
			slog.Any("error", err))
		return
	}
	a.log.Info("promotion announced on Slack",
		slog.String("username", username),
		slog.String("channel", a.channel))
}

// withRetry retries the provided function with exponential backoff.
func (a *SlackAnnouncer) withRetry(fn func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		time.Sleep(a.delay * (1 << i))
	}
	return fmt.Errorf("after %d retries, last error: %w", maxRetries, err)
}
