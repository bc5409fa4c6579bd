package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"careerpath/internal/examservice"
)

// StartAttempt runs as one transaction so the open-attempt lookup, the
// attempt limit and the insert see the same rows.
func (r *Repository) StartAttempt(ctx context.Context, attempt examservice.Attempt, maxAttempts int) (examservice.Attempt, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return examservice.Attempt{}, err
	}
	defer tx.Rollback()

	open, found, err := openAttempt(ctx, tx, attempt.TestID, attempt.Learner)
	if err != nil {
		return examservice.Attempt{}, err
	}
	if found {
		return open, nil
	}

	if maxAttempts > 0 {
		var used int
		if err := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM attempts WHERE test_id = ? AND learner = ?`,
			attempt.TestID,
			attempt.Learner,
		).Scan(&used); err != nil {
			return examservice.Attempt{}, err
		}
		if used >= maxAttempts {
			return examservice.Attempt{}, examservice.ErrMaxAttempts
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO attempts (attempt_id, test_id, learner, started_at_unix) VALUES (?, ?, ?, ?)`,
		attempt.ID,
		attempt.TestID,
		attempt.Learner,
		attempt.StartedAt.UnixNano(),
	); err != nil {
		return examservice.Attempt{}, err
	}

	if err := tx.Commit(); err != nil {
		return examservice.Attempt{}, err
	}
	return attempt, nil
}

// SubmitAttempt stores result against the learner's open attempt and closes
// it. A repeated idempotency key returns the first stored result unchanged.
func (r *Repository) SubmitAttempt(ctx context.Context, params examservice.SubmitParams, result examservice.Result) (examservice.Result, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return examservice.Result{}, err
	}
	defer tx.Rollback()

	if params.IdempotencyKey != "" {
		var stored string
		err := tx.QueryRowContext(
			ctx,
			`SELECT result_json FROM results WHERE test_id = ? AND learner = ? AND idempotency_key = ?`,
			params.TestID,
			params.Learner,
			params.IdempotencyKey,
		).Scan(&stored)
		switch {
		case err == nil:
			var previous examservice.Result
			if err := json.Unmarshal([]byte(stored), &previous); err != nil {
				return examservice.Result{}, err
			}
			return previous, nil
		case !errors.Is(err, sql.ErrNoRows):
			return examservice.Result{}, err
		}
	}

	attempt, found, err := openAttempt(ctx, tx, params.TestID, params.Learner)
	if err != nil {
		return examservice.Result{}, err
	}
	if !found {
		return examservice.Result{}, examservice.ErrNotStarted
	}

	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now().UTC()
	}
	result.AttemptID = attempt.ID
	encoded, err := json.Marshal(result)
	if err != nil {
		return examservice.Result{}, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO results (attempt_id, test_id, learner, idempotency_key, result_json, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		params.TestID,
		params.Learner,
		params.IdempotencyKey,
		string(encoded),
		result.SubmittedAt.UnixNano(),
	); err != nil {
		return examservice.Result{}, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE attempts SET submitted_at_unix = ? WHERE attempt_id = ?`,
		result.SubmittedAt.UnixNano(),
		attempt.ID,
	); err != nil {
		return examservice.Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return examservice.Result{}, err
	}
	return result, nil
}

func openAttempt(ctx context.Context, tx *sql.Tx, testID, learner string) (examservice.Attempt, bool, error) {
	var (
		attempt       examservice.Attempt
		startedAtUnix int64
	)
	err := tx.QueryRowContext(
		ctx,
		`SELECT attempt_id, test_id, learner, started_at_unix
		 FROM attempts
		 WHERE test_id = ? AND learner = ? AND submitted_at_unix IS NULL
		 LIMIT 1`,
		testID,
		learner,
	).Scan(&attempt.ID, &attempt.TestID, &attempt.Learner, &startedAtUnix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return examservice.Attempt{}, false, nil
		}
		return examservice.Attempt{}, false, err
	}
	attempt.StartedAt = time.Unix(0, startedAtUnix).UTC()
	return attempt, true, nil
}
