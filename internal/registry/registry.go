// Package registry manages which channels are watched, driven by chat
// commands ("add <channel>" / "delete <channel>").
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ChannelRegistry is the subset of channel storage the command handler
// needs. Both writes report whether they changed anything.
type ChannelRegistry interface {
	Insert(ctx context.Context, channelID string) (bool, error)
	Delete(ctx context.Context, channelID string) (bool, error)
}

type Service struct {
	channels ChannelRegistry
	logger   *slog.Logger
}

func NewService(channels ChannelRegistry, logger *slog.Logger) *Service {
	return &Service{channels: channels, logger: logger}
}

const missingArgReply = "引数としてチャンネルIDかチャンネルのURLを指定してください。"

// HandleMessage interprets one mention of the bot and returns the reply
// to post. Messages without a recognized command are ignored with an
// empty reply.
func (s *Service) HandleMessage(ctx context.Context, text string) (string, error) {
	fields := strings.Fields(text)

	for i, field := range fields {
		switch field {
		case "add":
			return s.register(ctx, argAfter(fields, i))
		case "delete":
			return s.unregister(ctx, argAfter(fields, i))
		}
	}

	return "", nil
}

func (s *Service) register(ctx context.Context, arg string) (string, error) {
	channelID := ParseChannelID(arg)
	if channelID == "" {
		return missingArgReply, nil
	}

	inserted, err := s.channels.Insert(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("register channel: %w", err)
	}

	if !inserted {
		return fmt.Sprintf("このチャンネルは既に通知対象に追加されています: https://www.youtube.com/channel/%s", channelID), nil
	}

	s.logger.Info("channel registered", "channel_id", channelID)
	return fmt.Sprintf("このチャンネルを通知対象に追加しました: https://www.youtube.com/channel/%s", channelID), nil
}

func (s *Service) unregister(ctx context.Context, arg string) (string, error) {
	channelID := ParseChannelID(arg)
	if channelID == "" {
		return missingArgReply, nil
	}

	deleted, err := s.channels.Delete(ctx, channelID)
	if err != nil {
		return "", fmt.Errorf("unregister channel: %w", err)
	}

	if !deleted {
		return fmt.Sprintf("このチャンネルは通知対象ではありません: https://www.youtube.com/channel/%s", channelID), nil
	}

	s.logger.Info("channel unregistered", "channel_id", channelID)
	return fmt.Sprintf("このチャンネルを通知対象から削除しました: https://www.youtube.com/channel/%s", channelID), nil
}

func argAfter(fields []string, i int) string {
	if i+1 >= len(fields) {
		return ""
	}
	return fields[i+1]
}

// ParseChannelID accepts a bare channel id or a channel URL, possibly
// wrapped in Slack's <...> link markup, and returns the id.
func ParseChannelID(arg string) string {
	id := strings.Trim(arg, "<>")
	id = strings.TrimPrefix(id, "https://www.youtube.com/channel/")
	id = strings.TrimPrefix(id, "http://www.youtube.com/channel/")
	if i := strings.IndexAny(id, "/?|"); i >= 0 {
		id = id[:i]
	}
	return id
}
