package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/id"
	"github.com/hmans/shelf/internal/store"
)

const authorColumns = `id, name, born`

type authorStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func authorWhere(f store.AuthorFilter) (string, []any) {
	var conds []string
	var args []any
	if f.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *f.ID)
	}
	if f.Name != nil {
		conds = append(conds, "name = ?")
		args = append(args, *f.Name)
	}
	return where(conds), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuthor(row scanner) (*catalog.Author, error) {
	var a catalog.Author
	var born sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &born); err != nil {
		return nil, err
	}
	if born.Valid {
		year := int(born.Int64)
		a.Born = &year
	}
	return &a, nil
}

func (s *authorStore) FindOne(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
	cond, args := authorWhere(f)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+authorColumns+` FROM authors`+cond+` ORDER BY seq LIMIT 1`, args...)

	a, err := scanAuthor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find author", err)
	}
	return a, nil
}

func (s *authorStore) FindAll(ctx context.Context, f store.AuthorFilter) ([]*catalog.Author, error) {
	cond, args := authorWhere(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+authorColumns+` FROM authors`+cond+` ORDER BY seq`, args...)
	if err != nil {
		return nil, catalog.Unavailable("list authors", err)
	}
	defer rows.Close()

	authors := []*catalog.Author{}
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, catalog.Unavailable("scan author", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.Unavailable("list authors", err)
	}
	return authors, nil
}

func (s *authorStore) Count(ctx context.Context, f store.AuthorFilter) (int, error) {
	cond, args := authorWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`+cond, args...).Scan(&n); err != nil {
		return 0, catalog.Unavailable("count authors", err)
	}
	return n, nil
}

func (s *authorStore) Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	rec := a.Clone()
	if rec.ID == "" {
		newID, err := id.New()
		if err != nil {
			return nil, err
		}
		rec.ID = newID
	}

	var born sql.NullInt64
	if rec.Born != nil {
		born = sql.NullInt64{Int64: int64(*rec.Born), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO authors (id, name, born) VALUES (?, ?, ?)`, rec.ID, rec.Name, born)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Debug().Str("name", rec.Name).Msg("author name already taken")
			return nil, catalog.Conflict("author %q already exists", rec.Name)
		}
		return nil, catalog.Unavailable("insert author", err)
	}
	return rec, nil
}

func (s *authorStore) Update(ctx context.Context, authorID string, u catalog.AuthorUpdate) (*catalog.Author, error) {
	if u.Born != nil {
		res, err := s.db.ExecContext(ctx, `UPDATE authors SET born = ? WHERE id = ?`, *u.Born, authorID)
		if err != nil {
			return nil, catalog.Unavailable("update author", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, catalog.NotFound("author %q not found", authorID)
		}
	}

	a, err := s.FindOne(ctx, store.ByID(authorID))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, catalog.NotFound("author %q not found", authorID)
	}
	return a, err
}
