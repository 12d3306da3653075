// Package memory provides a thread-safe in-process store for books and authors.
// It keeps the same guarantees as the database backends: unique author names,
// author references checked on book insert, and insertion-ordered listings.
package memory

import (
	"context"
	"sync"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/id"
	"github.com/hmans/shelf/internal/store"
)

// Store holds all records in memory.
type Store struct {
	mu sync.RWMutex

	authors     []*catalog.Author
	authorByID  map[string]*catalog.Author
	authorNames map[string]string // name -> ID

	books    []*catalog.Book
	bookByID map[string]*catalog.Book
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		authorByID:  make(map[string]*catalog.Author),
		authorNames: make(map[string]string),
		bookByID:    make(map[string]*catalog.Book),
	}
}

// Authors returns the author store.
func (s *Store) Authors() store.AuthorStore { return authorStore{s} }

// Books returns the book store.
func (s *Store) Books() store.BookStore { return bookStore{s} }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Close is a no-op.
func (s *Store) Close() error { return nil }

type authorStore struct{ s *Store }

func (as authorStore) FindOne(ctx context.Context, filter store.AuthorFilter) (*catalog.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := as.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Use the indexes for the common single-key lookups.
	switch {
	case filter.ID != nil:
		if a, ok := s.authorByID[*filter.ID]; ok && filter.Matches(a) {
			return a.Clone(), nil
		}
		return nil, catalog.ErrNotFound
	case filter.Name != nil:
		if a, ok := s.authorByID[s.authorNames[*filter.Name]]; ok {
			return a.Clone(), nil
		}
		return nil, catalog.ErrNotFound
	}

	if len(s.authors) == 0 {
		return nil, catalog.ErrNotFound
	}
	return s.authors[0].Clone(), nil
}

func (as authorStore) FindAll(ctx context.Context, filter store.AuthorFilter) ([]*catalog.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := as.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Author, 0, len(s.authors))
	for _, a := range s.authors {
		if filter.Matches(a) {
			result = append(result, a.Clone())
		}
	}
	return result, nil
}

func (as authorStore) Count(ctx context.Context, filter store.AuthorFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := as.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, a := range s.authors {
		if filter.Matches(a) {
			n++
		}
	}
	return n, nil
}

func (as authorStore) Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := as.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.authorNames[a.Name]; exists {
		return nil, catalog.Conflict("author %q already exists", a.Name)
	}

	rec := a.Clone()
	if rec.ID == "" {
		newID, err := id.New()
		if err != nil {
			return nil, err
		}
		rec.ID = newID
	} else if _, exists := s.authorByID[rec.ID]; exists {
		return nil, catalog.Conflict("author id %q already exists", rec.ID)
	}

	s.authors = append(s.authors, rec)
	s.authorByID[rec.ID] = rec
	s.authorNames[rec.Name] = rec.ID
	return rec.Clone(), nil
}

func (as authorStore) Update(ctx context.Context, authorID string, u catalog.AuthorUpdate) (*catalog.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := as.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.authorByID[authorID]
	if !ok {
		return nil, catalog.NotFound("author %q not found", authorID)
	}
	u.Apply(rec)
	return rec.Clone(), nil
}

type bookStore struct{ s *Store }

func (bs bookStore) FindOne(ctx context.Context, bookID string) (*catalog.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := bs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.bookByID[bookID]; ok {
		return b.Clone(), nil
	}
	return nil, catalog.ErrNotFound
}

func (bs bookStore) FindAll(ctx context.Context, filter store.BookFilter) ([]*catalog.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := bs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*catalog.Book, 0, len(s.books))
	for _, b := range s.books {
		if filter.Matches(b) {
			result = append(result, b.Clone())
		}
	}
	return result, nil
}

func (bs bookStore) Count(ctx context.Context, filter store.BookFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := bs.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, b := range s.books {
		if filter.Matches(b) {
			n++
		}
	}
	return n, nil
}

func (bs bookStore) Insert(ctx context.Context, b *catalog.Book) (*catalog.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := bs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authorByID[b.AuthorID]; !ok {
		return nil, catalog.NotFound("author %q not found", b.AuthorID)
	}

	rec := b.Clone()
	if rec.ID == "" {
		newID, err := id.New()
		if err != nil {
			return nil, err
		}
		rec.ID = newID
	} else if _, exists := s.bookByID[rec.ID]; exists {
		return nil, catalog.Conflict("book id %q already exists", rec.ID)
	}

	s.books = append(s.books, rec)
	s.bookByID[rec.ID] = rec
	return rec.Clone(), nil
}
