package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"streaming_watcher/internal/domain"
)

type ChannelStore interface {
	List(ctx context.Context) ([]domain.Channel, error)
}

type VideoStore interface {
	GetByIDs(ctx context.Context, channelID string, videoIDs []string) (map[string]*domain.Video, error)
	Upsert(ctx context.Context, video *domain.Video) error
	UpdateNotifyMode(ctx context.Context, channelID, videoID string, mode domain.NotifyMode) error
	Delete(ctx context.Context, channelID, videoID string) error
}

type GateStore interface {
	GetAll(ctx context.Context) (map[string]time.Time, error)
	Set(ctx context.Context, name string, nextEligibleAt time.Time) error
}

type FeedSource interface {
	Fetch(ctx context.Context, channelID string) (*domain.Feed, error)
}

type MetadataSource interface {
	ListVideos(ctx context.Context, videoIDs []string, pageToken string) (*domain.VideoPage, error)
}

type MentionScanner interface {
	Scan(ctx context.Context, accountID string, known map[string]struct{}) (*domain.MentionScan, error)
}

type Messenger interface {
	PostMessage(ctx context.Context, text string) error
}

type Publisher interface {
	Publish(ctx context.Context, event *domain.NotificationEvent) error
	Close() error
}
