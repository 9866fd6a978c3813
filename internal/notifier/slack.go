// Package notifier delivers notices to the configured Slack channel.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

type slackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

type Slack struct {
	client  slackAPI
	channel string
	logger  *slog.Logger
}

func NewSlack(botToken, channel string, logger *slog.Logger) *Slack {
	return &Slack{
		client:  slack.New(botToken),
		channel: channel,
		logger:  logger,
	}
}

func (s *Slack) PostMessage(ctx context.Context, text string) error {
	_, ts, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.postMessage: %w", err)
	}

	s.logger.Debug("posted message", "channel", s.channel, "ts", ts)
	return nil
}
