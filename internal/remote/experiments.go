package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mschirtzinger/learntrack/internal/plan"
)

// SaveExperiments replaces the user's entire experiment row-set with
// exps. Delete and re-insert run in ONE transaction, so a failed insert
// rolls back the delete and the store never passes through a transient
// empty state. Rows that survive the replace keep their original
// created_at, so creation order is stable across load-modify-save
// cycles regardless of the slice order the caller hands in.
func (db *DB) SaveExperiments(ctx context.Context, userID string, exps []plan.Experiment) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := createdStamps(ctx, tx, userID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_experiments WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear experiments for %s: %w", userID, err)
	}

	query := `
	INSERT INTO user_experiments (
		id, user_id, name, date, model_type,
		avg_fps, avg_inference_time, avg_cpu_temp, fitness,
		parameters, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for i, exp := range exps {
		params, err := json.Marshal(exp.Parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters for %s: %w", exp.ID, err)
		}

		// New rows stamp after every surviving row. Nanosecond offsets
		// keep rows inserted in one batch distinguishable.
		createdAt, ok := created[exp.ID]
		if !ok {
			createdAt = now.Add(time.Duration(i) * time.Nanosecond).UnixNano()
		}

		_, err = tx.ExecContext(ctx, query,
			exp.ID,
			userID,
			exp.Name,
			exp.Date.UTC().Format(time.RFC3339),
			exp.ModelType,
			exp.AvgFPS,
			exp.AvgInferenceTime,
			exp.AvgCPUTemp,
			floatToNull(exp.Fitness),
			string(params),
			stringToNull(exp.Notes),
			createdAt,
			now.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert experiment %s: %w", exp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit experiments for %s: %w", userID, err)
	}

	return nil
}

// LoadExperiments returns all of the user's experiments, newest first by
// creation order. An empty result is not an error.
func (db *DB) LoadExperiments(ctx context.Context, userID string) ([]plan.Experiment, error) {
	query := `
	SELECT id, name, date, model_type,
	       avg_fps, avg_inference_time, avg_cpu_temp, fitness,
	       parameters, notes
	FROM user_experiments
	WHERE user_id = ?
	ORDER BY created_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments for %s: %w", userID, err)
	}
	defer rows.Close()

	var exps []plan.Experiment
	for rows.Next() {
		var exp plan.Experiment
		var dateStr, paramsJSON string
		var fitness sql.NullFloat64
		var notes sql.NullString

		err := rows.Scan(
			&exp.ID,
			&exp.Name,
			&dateStr,
			&exp.ModelType,
			&exp.AvgFPS,
			&exp.AvgInferenceTime,
			&exp.AvgCPUTemp,
			&fitness,
			&paramsJSON,
			&notes,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			exp.Date = t
		}
		if err := json.Unmarshal([]byte(paramsJSON), &exp.Parameters); err != nil {
			return nil, fmt.Errorf("failed to unmarshal parameters for %s: %w", exp.ID, err)
		}
		if fitness.Valid {
			f := fitness.Float64
			exp.Fitness = &f
		}
		if notes.Valid {
			exp.Notes = notes.String
		}

		exps = append(exps, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating experiments: %w", err)
	}

	return exps, nil
}

// createdStamps reads the user's current id-to-created_at mapping so a
// replace can carry the stamps of surviving rows forward.
func createdStamps(ctx context.Context, tx *sql.Tx, userID string) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, created_at FROM user_experiments WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read creation stamps for %s: %w", userID, err)
	}
	defer rows.Close()

	stamps := make(map[string]int64)
	for rows.Next() {
		var id string
		var createdAt int64
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan creation stamp: %w", err)
		}
		stamps[id] = createdAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating creation stamps: %w", err)
	}
	return stamps, nil
}

// floatToNull converts a float pointer to a nullable SQL float.
func floatToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// stringToNull converts an empty string to SQL NULL.
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
