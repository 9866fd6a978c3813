// Package feed fetches a channel's video feed from YouTube's public
// Atom endpoint. The feed only carries the most recent uploads, which
// is all the notify job needs.
package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/domain"
)

type Source struct {
	client *http.Client
	cfg    config.FeedConfig
	logger *slog.Logger
}

func NewSource(cfg config.FeedConfig, logger *slog.Logger) *Source {
	return &Source{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch retrieves and parses one channel's feed. Transient failures are
// retried with a fixed delay; a 404 means the channel currently has no
// feed and yields an empty result rather than an error.
func (s *Source) Fetch(ctx context.Context, channelID string) (*domain.Feed, error) {
	feedURL := fmt.Sprintf("%s?channel_id=%s", s.cfg.BaseURL, channelID)

	var lastErr error
	for i := 0; i < s.cfg.MaxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		s.logger.Debug("get feed", "url", feedURL, "attempt", i+1)

		feed, err := s.fetchOnce(ctx, channelID, feedURL)
		if err == nil {
			return feed, nil
		}

		lastErr = err
		s.logger.Warn("get feed failed", "url", feedURL, "attempt", i+1, "error", err)
	}

	return nil, fmt.Errorf("get feed %s: %w", feedURL, lastErr)
}

func (s *Source) fetchOnce(ctx context.Context, channelID, feedURL string) (*domain.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &domain.Feed{ChannelID: channelID}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed atomFeed
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse atom feed: %w", err)
	}

	feed := &domain.Feed{
		ChannelID: channelID,
		Title:     parsed.Title,
		Items:     make([]domain.FeedItem, 0, len(parsed.Entries)),
	}
	for _, entry := range parsed.Entries {
		if entry.VideoID == "" {
			continue
		}
		feed.Items = append(feed.Items, domain.FeedItem{
			VideoID: entry.VideoID,
			Title:   entry.Title,
			Updated: entry.Updated,
		})
	}

	return feed, nil
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Title   string      `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string    `xml:"id"`
	VideoID   string    `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	ChannelID string    `xml:"http://www.youtube.com/xml/schemas/2015 channelId"`
	Title     string    `xml:"title"`
	Published time.Time `xml:"published"`
	Updated   time.Time `xml:"updated"`
}
