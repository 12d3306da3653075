package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/id"
	"github.com/hmans/shelf/internal/store"
)

const bookColumns = `id, title, published, author_id, genres`

type bookStore struct {
	db *sql.DB
}

// bookWhere builds the filter clause. Genres are stored as a JSON array, so
// membership is tested with json_each.
func bookWhere(f store.BookFilter) (string, []any) {
	var conds []string
	var args []any
	if f.AuthorID != nil {
		conds = append(conds, "author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if f.Genre != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(books.genres) WHERE json_each.value = ?)")
		args = append(args, *f.Genre)
	}
	return where(conds), args
}

func scanBook(row scanner) (*catalog.Book, error) {
	var b catalog.Book
	var genres string
	if err := row.Scan(&b.ID, &b.Title, &b.Published, &b.AuthorID, &genres); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(genres), &b.Genres); err != nil {
		return nil, err
	}
	if b.Genres == nil {
		b.Genres = []string{}
	}
	return &b, nil
}

func (s *bookStore) FindOne(ctx context.Context, bookID string) (*catalog.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, bookID)

	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, catalog.Unavailable("find book", err)
	}
	return b, nil
}

func (s *bookStore) FindAll(ctx context.Context, f store.BookFilter) ([]*catalog.Book, error) {
	cond, args := bookWhere(f)
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books`+cond+` ORDER BY seq`, args...)
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
	cond, args := bookWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+cond, args...).Scan(&n); err != nil {
		return 0, catalog.Unavailable("count books", err)
	}
	return n, nil
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

	genres, err := json.Marshal(rec.Genres)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO books (id, title, published, author_id, genres) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Title, rec.Published, rec.AuthorID, string(genres))
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return nil, catalog.NotFound("author %q not found", rec.AuthorID)
		case isUniqueViolation(err):
			return nil, catalog.Conflict("book id %q already exists", rec.ID)
		}
		return nil, catalog.Unavailable("insert book", err)
	}
	return rec, nil
}
