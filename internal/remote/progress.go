package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mschirtzinger/learntrack/internal/plan"
)

// SaveProgress upserts the user's single progress row, storing the
// entire phase collection as an opaque JSON blob. Last-write-wins: no
// merge, no optimistic concurrency check.
func (db *DB) SaveProgress(ctx context.Context, userID string, phases []plan.Phase) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	blob, err := json.Marshal(phases)
	if err != nil {
		return fmt.Errorf("failed to marshal phases: %w", err)
	}

	query := `
	INSERT INTO user_progress (user_id, phases, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		phases = excluded.phases,
		updated_at = excluded.updated_at
	`

	_, err = db.conn.ExecContext(ctx, query, userID, string(blob), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert progress for %s: %w", userID, err)
	}

	return nil
}

// LoadProgress returns the user's phase collection. ok is false when no
// row exists yet for this user; that is not an error.
func (db *DB) LoadProgress(ctx context.Context, userID string) (phases []plan.Phase, ok bool, err error) {
	var blob string
	row := db.conn.QueryRowContext(ctx, `SELECT phases FROM user_progress WHERE user_id = ?`, userID)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load progress for %s: %w", userID, err)
	}

	if err := json.Unmarshal([]byte(blob), &phases); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal progress for %s: %w", userID, err)
	}

	return phases, true, nil
}
