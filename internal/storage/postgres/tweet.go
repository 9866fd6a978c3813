package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// TweetStore tracks processed tweets and the video links resolved from
// them. Both writes are idempotent so an interrupted scan can replay.
type TweetStore struct {
	db *sqlx.DB
}

func NewTweetStore(db *sqlx.DB) *TweetStore {
	return &TweetStore{db: db}
}

func (s *TweetStore) LastSeenID(ctx context.Context, accountID string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		`SELECT COALESCE(MAX(tweet_id), 0) FROM seen_tweets WHERE account_id = $1`,
		accountID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

func (s *TweetStore) MarkSeen(ctx context.Context, accountID string, tweetID int64) error {
	query := `
		INSERT INTO seen_tweets (account_id, tweet_id)
		VALUES ($1, $2)
		ON CONFLICT (account_id, tweet_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, accountID, tweetID)
	return err
}

func (s *TweetStore) SaveLink(ctx context.Context, tweetID int64, videoID string) error {
	query := `
		INSERT INTO tweet_video_links (tweet_id, video_id)
		VALUES ($1, $2)
		ON CONFLICT (tweet_id, video_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, tweetID, videoID)
	return err
}
