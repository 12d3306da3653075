// Package postgres provides a PostgreSQL-backed store using a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/store"
)

// pgerrcode values used below.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		seq  BIGSERIAL PRIMARY KEY,
		id   TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		born INTEGER,
		CONSTRAINT authors_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		seq       BIGSERIAL PRIMARY KEY,
		id        TEXT    NOT NULL UNIQUE,
		title     TEXT    NOT NULL,
		published INTEGER NOT NULL,
		author_id TEXT    NOT NULL REFERENCES authors(id),
		genres    TEXT[]  NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id)`,
}

// Store provides PostgreSQL persistence for books and authors.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to the database at url and creates the tables if needed.
func Open(ctx context.Context, url string, logger zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("exec schema: %w", err)
		}
	}

	logger.Debug().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Msg("postgres store opened")

	return &Store{pool: pool, logger: logger}, nil
}

// Authors returns the author store.
func (s *Store) Authors() store.AuthorStore { return &authorStore{pool: s.pool, logger: s.logger} }

// Books returns the book store.
func (s *Store) Books() store.BookStore { return &bookStore{pool: s.pool} }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (s *Store) Close() error {
	s.pool.Close()
	s.logger.Debug().Msg("postgres store closed")
	return nil
}

// truncate empties both tables. Used by tests against a shared database.
func (s *Store) truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE books, authors RESTART IDENTITY`)
	return err
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// conditions accumulates WHERE clauses with numbered placeholders.
type conditions struct {
	conds []string
	args  []any
}

func (c *conditions) add(format string, arg any) {
	c.args = append(c.args, arg)
	c.conds = append(c.conds, fmt.Sprintf(format, len(c.args)))
}

func (c *conditions) String() string {
	if len(c.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.conds, " AND ")
}
