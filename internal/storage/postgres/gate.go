package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// GateStore persists one next-eligible timestamp per rate limit.
type GateStore struct {
	db *sqlx.DB
}

func NewGateStore(db *sqlx.DB) *GateStore {
	return &GateStore{db: db}
}

func (s *GateStore) GetAll(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gate_name, next_eligible_at FROM notification_gates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, err
		}
		result[name] = at
	}

	return result, rows.Err()
}

func (s *GateStore) Set(ctx context.Context, name string, nextEligibleAt time.Time) error {
	query := `
		INSERT INTO notification_gates (gate_name, next_eligible_at)
		VALUES ($1, $2)
		ON CONFLICT (gate_name) DO UPDATE SET
			next_eligible_at = EXCLUDED.next_eligible_at`

	_, err := s.db.ExecContext(ctx, query, name, nextEligibleAt)
	return err
}
