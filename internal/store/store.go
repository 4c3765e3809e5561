// Package store persists users and validation-run history in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// New constructs the Store from DATABASE_URL or the POSTGRES_* env vars.
func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// ValidationRun is one stored validation result.
type ValidationRun struct {
	ID           string
	UserID       string
	PackageName  string
	Valid        bool
	ErrorCount   int
	WarningCount int
	Report       []byte
	CreatedAt    time.Time
}

// InsertValidationRun stores one run and returns its id. IDs are generated
// client-side so the caller can hand the id back before commit visibility.
func (s *Store) InsertValidationRun(ctx context.Context, run ValidationRun) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO validation_runs (id, user_id, package_name, valid, error_count, warning_count, report) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, run.UserID, run.PackageName, run.Valid, run.ErrorCount, run.WarningCount, run.Report)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListValidationRuns returns a user's runs, newest first, without the report
// payload.
func (s *Store) ListValidationRuns(ctx context.Context, userID string) ([]ValidationRun, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, package_name, valid, error_count, warning_count, created_at FROM validation_runs WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ValidationRun
	for rows.Next() {
		var r ValidationRun
		if err := rows.Scan(&r.ID, &r.UserID, &r.PackageName, &r.Valid, &r.ErrorCount, &r.WarningCount, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetValidationRun returns one run with its full report. Lookup is scoped to
// the owning user.
func (s *Store) GetValidationRun(ctx context.Context, id, userID string) (ValidationRun, error) {
	var r ValidationRun
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, package_name, valid, error_count, warning_count, report, created_at FROM validation_runs WHERE id=$1 AND user_id=$2`,
		id, userID).Scan(&r.ID, &r.UserID, &r.PackageName, &r.Valid, &r.ErrorCount, &r.WarningCount, &r.Report, &r.CreatedAt)
	return r, err
}
