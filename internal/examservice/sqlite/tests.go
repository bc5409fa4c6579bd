package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"careerpath/internal/examservice"
)

// SaveTest replaces the test and its questions. Attempts already recorded
// for the test id are kept.
func (r *Repository) SaveTest(ctx context.Context, test examservice.Test, questions []examservice.Question) error {
	if test.CreatedAt.IsZero() {
		test.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE test_id = ?`, test.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO tests (test_id, title, category, difficulty, duration_minutes, passing_score, max_attempts, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		test.ID,
		test.Title,
		test.Category,
		test.Difficulty,
		test.DurationMinutes,
		test.PassingScore,
		test.MaxAttempts,
		test.CreatedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	for idx, question := range questions {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO questions (test_id, question_id, position, question_text, question_image, option_a, option_b, option_c, option_d, answer, marks)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			test.ID,
			question.ID,
			idx,
			question.Text,
			question.Image,
			question.Options[0],
			question.Options[1],
			question.Options[2],
			question.Options[3],
			question.Answer,
			question.Marks,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetTest(ctx context.Context, testID string) (examservice.Test, []examservice.Question, error) {
	test, err := scanTest(r.db.QueryRowContext(
		ctx,
		`SELECT test_id, title, category, difficulty, duration_minutes, passing_score, max_attempts, created_at_unix
		 FROM tests WHERE test_id = ?`,
		testID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return examservice.Test{}, nil, examservice.ErrTestNotFound
		}
		return examservice.Test{}, nil, err
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT question_id, position, question_text, question_image, option_a, option_b, option_c, option_d, answer, marks
		 FROM questions
		 WHERE test_id = ?
		 ORDER BY position ASC`,
		testID,
	)
	if err != nil {
		return examservice.Test{}, nil, err
	}
	defer rows.Close()

	questions := make([]examservice.Question, 0)
	for rows.Next() {
		var question examservice.Question
		if err := rows.Scan(
			&question.ID,
			&question.Position,
			&question.Text,
			&question.Image,
			&question.Options[0],
			&question.Options[1],
			&question.Options[2],
			&question.Options[3],
			&question.Answer,
			&question.Marks,
		); err != nil {
			return examservice.Test{}, nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return examservice.Test{}, nil, err
	}

	return test, questions, nil
}

func (r *Repository) ListTests(ctx context.Context) ([]examservice.TestSummary, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT t.test_id, t.title, t.category, t.difficulty, t.duration_minutes, t.passing_score, t.max_attempts, t.created_at_unix,
		        COUNT(q.question_id), COALESCE(SUM(q.marks), 0)
		 FROM tests t
		 LEFT JOIN questions q ON q.test_id = t.test_id
		 GROUP BY t.test_id
		 ORDER BY t.created_at_unix DESC, t.test_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tests := make([]examservice.TestSummary, 0)
	for rows.Next() {
		var (
			summary       examservice.TestSummary
			createdAtUnix int64
		)
		if err := rows.Scan(
			&summary.ID,
			&summary.Title,
			&summary.Category,
			&summary.Difficulty,
			&summary.DurationMinutes,
			&summary.PassingScore,
			&summary.MaxAttempts,
			&createdAtUnix,
			&summary.QuestionCount,
			&summary.TotalMarks,
		); err != nil {
			return nil, err
		}
		summary.CreatedAt = time.Unix(0, createdAtUnix).UTC()
		tests = append(tests, summary)
	}
	return tests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTest(row rowScanner) (examservice.Test, error) {
	var (
		test          examservice.Test
		createdAtUnix int64
	)
	if err := row.Scan(
		&test.ID,
		&test.Title,
		&test.Category,
		&test.Difficulty,
		&test.DurationMinutes,
		&test.PassingScore,
		&test.MaxAttempts,
		&createdAtUnix,
	); err != nil {
		return examservice.Test{}, err
	}
	test.CreatedAt = time.Unix(0, createdAtUnix).UTC()
	return test, nil
}
