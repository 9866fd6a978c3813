package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"streaming_watcher/internal/domain"
)

type ChannelStore struct {
	db *sqlx.DB
}

func NewChannelStore(db *sqlx.DB) *ChannelStore {
	return &ChannelStore{db: db}
}

func (s *ChannelStore) List(ctx context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	query := `
		SELECT channel_id, twitter_account_id, created_at
		FROM channels
		ORDER BY created_at, channel_id`

	if err := s.db.SelectContext(ctx, &channels, query); err != nil {
		return nil, err
	}
	return channels, nil
}

// Insert registers a channel. It reports whether the channel was newly
// added; registering an existing channel is not an error.
func (s *ChannelStore) Insert(ctx context.Context, channelID string) (bool, error) {
	query := `
		INSERT INTO channels (channel_id)
		VALUES ($1)
		ON CONFLICT (channel_id) DO NOTHING`

	res, err := s.db.ExecContext(ctx, query, channelID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a channel and reports whether it existed. Tracked
// videos cascade away with it.
func (s *ChannelStore) Delete(ctx context.Context, channelID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetTwitterAccount links or unlinks the channel's social account.
func (s *ChannelStore) SetTwitterAccount(ctx context.Context, channelID string, accountID *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE channels SET twitter_account_id = $2 WHERE channel_id = $1`,
		channelID, accountID)
	return err
}
