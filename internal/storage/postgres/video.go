package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"streaming_watcher/internal/domain"
)

type VideoStore struct {
	db *sqlx.DB
}

func NewVideoStore(db *sqlx.DB) *VideoStore {
	return &VideoStore{db: db}
}

func (s *VideoStore) GetByIDs(ctx context.Context, channelID string, videoIDs []string) (map[string]*domain.Video, error) {
	if len(videoIDs) == 0 {
		return make(map[string]*domain.Video), nil
	}

	query := `
		SELECT channel_id, video_id, title, start_time, updated_time, notify_mode,
			privacy_status, is_live_streaming, is_collab, collab_channel_id,
			collab_channel_title, created_at
		FROM notified_videos
		WHERE channel_id = $1 AND video_id = ANY($2)`

	var videos []domain.Video
	if err := s.db.SelectContext(ctx, &videos, query, channelID, pq.Array(videoIDs)); err != nil {
		return nil, err
	}

	result := make(map[string]*domain.Video, len(videos))
	for i := range videos {
		result[videos[i].VideoID] = &videos[i]
	}
	return result, nil
}

func (s *VideoStore) Upsert(ctx context.Context, video *domain.Video) error {
	query := `
		INSERT INTO notified_videos (
			channel_id, video_id, title, start_time, updated_time, notify_mode,
			privacy_status, is_live_streaming, is_collab, collab_channel_id,
			collab_channel_title
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (channel_id, video_id) DO UPDATE SET
			title = EXCLUDED.title,
			start_time = EXCLUDED.start_time,
			updated_time = EXCLUDED.updated_time,
			notify_mode = EXCLUDED.notify_mode,
			privacy_status = EXCLUDED.privacy_status,
			is_live_streaming = EXCLUDED.is_live_streaming,
			is_collab = EXCLUDED.is_collab,
			collab_channel_id = EXCLUDED.collab_channel_id,
			collab_channel_title = EXCLUDED.collab_channel_title`

	_, err := s.db.ExecContext(ctx, query,
		video.ChannelID,
		video.VideoID,
		video.Title,
		video.StartTime,
		video.UpdatedTime,
		video.NotifyMode,
		video.PrivacyStatus,
		video.IsLiveStreaming,
		video.IsCollab,
		video.CollabChannelID,
		video.CollabChannelTitle,
	)
	return err
}

func (s *VideoStore) UpdateNotifyMode(ctx context.Context, channelID, videoID string, mode domain.NotifyMode) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notified_videos SET notify_mode = $3 WHERE channel_id = $1 AND video_id = $2`,
		channelID, videoID, mode)
	return err
}

func (s *VideoStore) Delete(ctx context.Context, channelID, videoID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM notified_videos WHERE channel_id = $1 AND video_id = $2`,
		channelID, videoID)
	return err
}
