// Package youtube resolves authoritative video metadata through the
// YouTube Data API v3.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"streaming_watcher/internal/config"
	"streaming_watcher/internal/domain"
)

type Source struct {
	service *youtube.Service
	logger  *slog.Logger
}

func NewSource(ctx context.Context, cfg config.YouTubeConfig, logger *slog.Logger) (*Source, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("youtube api key required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Source{service: service, logger: logger}, nil
}

// ListVideos fetches one page of metadata for the given video ids.
// Each call costs one quota unit regardless of how many ids it carries.
func (s *Source) ListVideos(ctx context.Context, videoIDs []string, pageToken string) (*domain.VideoPage, error) {
	call := s.service.Videos.List([]string{"liveStreamingDetails", "snippet", "status"}).
		Id(videoIDs...).
		MaxResults(50).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	s.logger.Debug("call youtubeApi.videos.list", "ids", videoIDs, "page_token", pageToken)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}

	page := &domain.VideoPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		meta := domain.VideoMetadata{VideoID: item.Id}

		if item.LiveStreamingDetails != nil && item.LiveStreamingDetails.ScheduledStartTime != "" {
			if t, err := time.Parse(time.RFC3339, item.LiveStreamingDetails.ScheduledStartTime); err == nil {
				meta.ScheduledStartTime = &t
			}
		}
		if item.Snippet != nil {
			if item.Snippet.PublishedAt != "" {
				if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
					meta.PublishedAt = &t
				}
			}
			meta.ChannelID = item.Snippet.ChannelId
			meta.ChannelTitle = item.Snippet.ChannelTitle
		}
		if item.Status != nil {
			meta.PrivacyStatus = domain.PrivacyStatus(item.Status.PrivacyStatus)
		}

		page.Items = append(page.Items, meta)
	}

	return page, nil
}
