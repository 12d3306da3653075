// Package store defines the entity stores that hold books and authors, and
// the find-or-create contract shared by every backend.
package store

import (
	"context"

	"github.com/hmans/shelf/internal/catalog"
)

// Drivers understood by the bootstrap code.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// AuthorFilter selects authors by equality. Nil fields do not constrain.
type AuthorFilter struct {
	ID   *string
	Name *string
}

// ByName selects the author with the given name.
func ByName(name string) AuthorFilter {
	return AuthorFilter{Name: &name}
}

// ByID selects the author with the given ID.
func ByID(id string) AuthorFilter {
	return AuthorFilter{ID: &id}
}

// Matches reports whether a satisfies the filter.
func (f AuthorFilter) Matches(a *catalog.Author) bool {
	if f.ID != nil && a.ID != *f.ID {
		return false
	}
	if f.Name != nil && a.Name != *f.Name {
		return false
	}
	return true
}

// BookFilter selects books by author reference and genre membership.
// Nil fields do not constrain; both set means both must hold.
type BookFilter struct {
	AuthorID *string
	Genre    *string
}

// Matches reports whether b satisfies the filter.
func (f BookFilter) Matches(b *catalog.Book) bool {
	if f.AuthorID != nil && b.AuthorID != *f.AuthorID {
		return false
	}
	if f.Genre != nil && !b.HasGenre(*f.Genre) {
		return false
	}
	return true
}

// AuthorStore persists authors. Implementations must enforce name uniqueness:
// Insert of a name that already exists fails with catalog.ErrConflict.
type AuthorStore interface {
	// FindOne returns the first matching author or catalog.ErrNotFound.
	FindOne(ctx context.Context, filter AuthorFilter) (*catalog.Author, error)
	// FindAll returns matching authors in insertion order.
	FindAll(ctx context.Context, filter AuthorFilter) ([]*catalog.Author, error)
	Count(ctx context.Context, filter AuthorFilter) (int, error)
	// Insert assigns an ID and stores the author.
	Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error)
	// Update applies u to the author with the given ID and returns the result.
	Update(ctx context.Context, id string, u catalog.AuthorUpdate) (*catalog.Author, error)
}

// BookStore persists books. Insert fails with catalog.ErrNotFound when the
// book's AuthorID does not reference an existing author.
type BookStore interface {
	FindOne(ctx context.Context, id string) (*catalog.Book, error)
	// FindAll returns matching books in insertion order.
	FindAll(ctx context.Context, filter BookFilter) ([]*catalog.Book, error)
	Count(ctx context.Context, filter BookFilter) (int, error)
	Insert(ctx context.Context, b *catalog.Book) (*catalog.Book, error)
}

// Store groups the entity stores of one backend.
type Store interface {
	Authors() AuthorStore
	Books() BookStore
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
