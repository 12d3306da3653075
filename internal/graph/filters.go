package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

// BookFilter translates the author-name and genre arguments of the book
// queries into a store filter. Authors are referenced by ID in the store, so
// the name is looked up first; ok is false when no author has that name,
// which means no book can match. Both arguments are trimmed the same way
// addBook trims the values it stores.
func BookFilter(ctx context.Context, authors store.AuthorStore, author, genre *string) (f store.BookFilter, ok bool, err error) {
	if genre != nil {
		g := strings.TrimSpace(*genre)
		f.Genre = &g
	}
	if author == nil {
		return f, true, nil
	}

	a, err := authors.FindOne(ctx, store.ByName(strings.TrimSpace(*author)))
	if errors.Is(err, catalog.ErrNotFound) {
		return f, false, nil
	}
	if err != nil {
		return f, false, err
	}
	f.AuthorID = &a.ID
	return f, true, nil
}
