package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/sopmatch/internal/domain/model"
)

const submissionsSchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	text         TEXT NOT NULL,
	has_prefs    INTEGER NOT NULL DEFAULT 0,
	field        TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT '',
	review_depth TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
)`

// SQLiteSubmissionStore persists submissions in a SQLite file.
type SQLiteSubmissionStore struct {
	db   *sql.DB
	opts storeOptions
}

// OpenSQLiteSubmissionStore opens or creates the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLiteSubmissionStore(path string, opts ...StoreOption) (*SQLiteSubmissionStore, error) {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(submissionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteSubmissionStore{db: db, opts: o}, nil
}

func (s *SQLiteSubmissionStore) Put(ctx context.Context, sub model.Submission) (model.Submission, bool, error) {
	if err := validateSubmission(sub); err != nil {
		return model.Submission{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Submission{}, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.opts.now()
	created := now
	var prevCreated string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM submissions WHERE id = ?`, sub.ID).Scan(&prevCreated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return model.Submission{}, false, fmt.Errorf("lookup submission %s: %w", sub.ID, err)
	default:
		if created, err = time.Parse(time.RFC3339Nano, prevCreated); err != nil {
			return model.Submission{}, false, fmt.Errorf("parse created_at: %w", err)
		}
	}
	isNew := prevCreated == ""

	var p model.Preferences
	if sub.Preferences != nil {
		p = *sub.Preferences
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, text, has_prefs, field, priority, review_depth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			has_prefs = excluded.has_prefs,
			field = excluded.field,
			priority = excluded.priority,
			review_depth = excluded.review_depth,
			updated_at = excluded.updated_at`,
		sub.ID, sub.Text, sub.Preferences != nil, p.Field, p.Priority, p.ReviewDepth,
		created.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return model.Submission{}, false, fmt.Errorf("upsert submission %s: %w", sub.ID, err)
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&total); err != nil {
		return model.Submission{}, false, fmt.Errorf("count submissions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Submission{}, false, fmt.Errorf("commit: %w", err)
	}

	recordPut(isNew, total)
	return model.Submission{
		ID:          sub.ID,
		Text:        sub.Text,
		Preferences: clonePreferences(sub.Preferences),
		CreatedAt:   created,
		UpdatedAt:   now,
	}, isNew, nil
}

func (s *SQLiteSubmissionStore) Get(ctx context.Context, id string) (model.Submission, error) {
	var (
		sub                  model.Submission
		hasPrefs             bool
		p                    model.Preferences
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, text, has_prefs, field, priority, review_depth, created_at, updated_at
		FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Text, &hasPrefs, &p.Field, &p.Priority, &p.ReviewDepth, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("get submission %s: %w", id, err)
	}

	if hasPrefs {
		sub.Preferences = &p
	}
	if sub.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Submission{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return model.Submission{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return sub, nil
}

func (s *SQLiteSubmissionStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Health checks database connectivity.
func (s *SQLiteSubmissionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteSubmissionStore) Close() error {
	return s.db.Close()
}
