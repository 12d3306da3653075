package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/id"
	"github.com/hmans/shelf/internal/store"
)

const authorColumns = `id, name, born`

type authorStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func authorWhere(f store.AuthorFilter) *conditions {
	c := &conditions{}
	if f.ID != nil {
		c.add("id = $%d", *f.ID)
	}
	if f.Name != nil {
		c.add("name = $%d", *f.Name)
	}
	return c
}

func scanAuthor(row pgx.Row) (*catalog.Author, error) {
	var a catalog.Author
	var born *int32
	if err := row.Scan(&a.ID, &a.Name, &born); err != nil {
		return nil, err
	}
	if born != nil {
		year := int(*born)
		a.Born = &year
	}
	return &a, nil
}

func (s *authorStore) FindOne(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
	c := authorWhere(f)
	row := s.pool.QueryRow(ctx, `SELECT `+authorColumns+` FROM authors`+c.String()+` ORDER BY seq LIMIT 1`, c.args...)

	a, err := scanAuthor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find author", err)
	}
	return a, nil
}

func (s *authorStore) FindAll(ctx context.Context, f store.AuthorFilter) ([]*catalog.Author, error) {
	c := authorWhere(f)
	rows, err := s.pool.Query(ctx, `SELECT `+authorColumns+` FROM authors`+c.String()+` ORDER BY seq`, c.args...)
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
	c := authorWhere(f)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM authors`+c.String(), c.args...).Scan(&n); err != nil {
		return 0, catalog.Unavailable("count authors", err)
	}
	return int(n), nil
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

	_, err := s.pool.Exec(ctx, `INSERT INTO authors (id, name, born) VALUES ($1, $2, $3)`, rec.ID, rec.Name, rec.Born)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			s.logger.Debug().Str("name", rec.Name).Msg("author name already taken")
			return nil, catalog.Conflict("author %q already exists", rec.Name)
		}
		return nil, catalog.Unavailable("insert author", err)
	}
	return rec, nil
}

func (s *authorStore) Update(ctx context.Context, authorID string, u catalog.AuthorUpdate) (*catalog.Author, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE authors SET born = COALESCE($2, born) WHERE id = $1 RETURNING `+authorColumns,
		authorID, u.Born)

	a, err := scanAuthor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.NotFound("author %q not found", authorID)
	}
	if err != nil {
		return nil, catalog.Unavailable("update author", err)
	}
	return a, nil
}
