package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/id"
	"github.com/hmans/shelf/internal/store"
)

const bookColumns = `id, title, published, author_id, genres`

type bookStore struct {
	pool *pgxpool.Pool
}

func bookWhere(f store.BookFilter) *conditions {
	c := &conditions{}
	if f.AuthorID != nil {
		c.add("author_id = $%d", *f.AuthorID)
	}
	if f.Genre != nil {
		c.add("$%d = ANY(genres)", *f.Genre)
	}
	return c
}

func scanBook(row pgx.Row) (*catalog.Book, error) {
	var b catalog.Book
	var published int32
	if err := row.Scan(&b.ID, &b.Title, &published, &b.AuthorID, &b.Genres); err != nil {
		return nil, err
	}
	b.Published = int(published)
	if b.Genres == nil {
		b.Genres = []string{}
	}
	return &b, nil
}

func (s *bookStore) FindOne(ctx context.Context, bookID string) (*catalog.Book, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, bookID)

	b, err := scanBook(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find book", err)
	}
	return b, nil
}

func (s *bookStore) FindAll(ctx context.Context, f store.BookFilter) ([]*catalog.Book, error) {
	c := bookWhere(f)
	rows, err := s.pool.Query(ctx, `SELECT `+bookColumns+` FROM books`+c.String()+` ORDER BY seq`, c.args...)
	if err != nil {
		return nil, catalog.Unavailable("list books", err)
	}
	defer rows.Close()

	books := []*catalog.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, catalog.Unavailable("scan book", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.Unavailable("list books", err)
	}
	return books, nil
}

func (s *bookStore) Count(ctx context.Context, f store.BookFilter) (int, error) {
	c := bookWhere(f)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`+c.String(), c.args...).Scan(&n); err != nil {
		return 0, catalog.Unavailable("count books", err)
	}
	return int(n), nil
}

func (s *bookStore) Insert(ctx context.Context, b *catalog.Book) (*catalog.Book, error) {
	rec := b.Clone()
	if rec.ID == "" {
		newID, err := id.New()
		if err != nil {
			return nil, err
		}
		rec.ID = newID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO books (id, title, published, author_id, genres) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Title, rec.Published, rec.AuthorID, rec.Genres)
	if err != nil {
		switch pgCode(err) {
		case foreignKeyViolation:
			return nil, catalog.NotFound("author %q not found", rec.AuthorID)
		case uniqueViolation:
			return nil, catalog.Conflict("book id %q already exists", rec.ID)
		}
		return nil, catalog.Unavailable("insert book", err)
	}
	return rec, nil
}
