package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const defaultPath = "careerpath-exams.db"

// Repository stores tests, attempts and graded results in SQLite.
type Repository struct {
	db *sql.DB
}

func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := &Repository{db: db}
	if err := repo.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tests (
			test_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			passing_score REAL NOT NULL,
			max_attempts INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			test_id TEXT NOT NULL,
			question_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			question_text TEXT NOT NULL,
			question_image TEXT NOT NULL,
			option_a TEXT NOT NULL,
			option_b TEXT NOT NULL,
			option_c TEXT NOT NULL,
			option_d TEXT NOT NULL,
			answer TEXT NOT NULL,
			marks REAL NOT NULL,
			PRIMARY KEY (test_id, question_id)
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			attempt_id TEXT PRIMARY KEY,
			test_id TEXT NOT NULL,
			learner TEXT NOT NULL,
			started_at_unix INTEGER NOT NULL,
			submitted_at_unix INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			attempt_id TEXT PRIMARY KEY,
			test_id TEXT NOT NULL,
			learner TEXT NOT NULL,
			idempotency_key TEXT NOT NULL,
			result_json TEXT NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_position ON questions(test_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_test_learner ON attempts(test_id, learner);`,
		// At most one unsubmitted attempt per learner and test.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attempts_open ON attempts(test_id, learner) WHERE submitted_at_unix IS NULL;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_results_key ON results(test_id, learner, idempotency_key) WHERE idempotency_key <> '';`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
