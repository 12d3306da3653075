// Package storetest holds the behaviour every store backend must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

// Factory returns a new, empty store. It should register cleanup with t.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AuthorInsertAndFind", func(t *testing.T) { testAuthorInsertAndFind(t, newStore(t)) })
	t.Run("AuthorUniqueName", func(t *testing.T) { testAuthorUniqueName(t, newStore(t)) })
	t.Run("AuthorUpdate", func(t *testing.T) { testAuthorUpdate(t, newStore(t)) })
	t.Run("AuthorOrder", func(t *testing.T) { testAuthorOrder(t, newStore(t)) })
	t.Run("BookInsertAndFind", func(t *testing.T) { testBookInsertAndFind(t, newStore(t)) })
	t.Run("BookRequiresAuthor", func(t *testing.T) { testBookRequiresAuthor(t, newStore(t)) })
	t.Run("BookFilters", func(t *testing.T) { testBookFilters(t, newStore(t)) })
	t.Run("FindOrCreateAuthor", func(t *testing.T) { testFindOrCreateAuthor(t, newStore(t)) })
	t.Run("ConcurrentFindOrCreate", func(t *testing.T) { testConcurrentFindOrCreate(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) { require.NoError(t, newStore(t).Ping(context.Background())) })
}

func mustAuthor(t *testing.T, s store.Store, name string) *catalog.Author {
	t.Helper()
	a, err := s.Authors().Insert(context.Background(), &catalog.Author{Name: name})
	require.NoError(t, err)
	return a
}

func mustBook(t *testing.T, s store.Store, title string, author *catalog.Author, genres ...string) *catalog.Book {
	t.Helper()
	b, err := s.Books().Insert(context.Background(), &catalog.Book{
		Title:     title,
		Published: 2000,
		AuthorID:  author.ID,
		Genres:    genres,
	})
	require.NoError(t, err)
	return b
}

func testAuthorInsertAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustAuthor(t, s, "Robert Martin")
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Robert Martin", a.Name)
	assert.Nil(t, a.Born)

	byName, err := s.Authors().FindOne(ctx, store.ByName("Robert Martin"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, byName.ID)

	byID, err := s.Authors().FindOne(ctx, store.ByID(a.ID))
	require.NoError(t, err)
	assert.Equal(t, "Robert Martin", byID.Name)

	_, err = s.Authors().FindOne(ctx, store.ByName("Nobody"))
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "want ErrNotFound, got %v", err)

	n, err := s.Authors().Count(ctx, store.AuthorFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testAuthorUniqueName(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustAuthor(t, s, "Fyodor Dostoevsky")

	_, err := s.Authors().Insert(ctx, &catalog.Author{Name: "Fyodor Dostoevsky"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrConflict), "want ErrConflict, got %v", err)

	n, err := s.Authors().Count(ctx, store.ByName("Fyodor Dostoevsky"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testAuthorUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustAuthor(t, s, "Joshua Kerievsky")

	born := 1964
	updated, err := s.Authors().Update(ctx, a.ID, catalog.AuthorUpdate{Born: &born})
	require.NoError(t, err)
	require.NotNil(t, updated.Born)
	assert.Equal(t, 1964, *updated.Born)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, "Joshua Kerievsky", updated.Name)

	reread, err := s.Authors().FindOne(ctx, store.ByID(a.ID))
	require.NoError(t, err)
	require.NotNil(t, reread.Born)
	assert.Equal(t, 1964, *reread.Born)

	// An empty update leaves born alone.
	same, err := s.Authors().Update(ctx, a.ID, catalog.AuthorUpdate{})
	require.NoError(t, err)
	require.NotNil(t, same.Born)
	assert.Equal(t, 1964, *same.Born)

	_, err = s.Authors().Update(ctx, "missing", catalog.AuthorUpdate{Born: &born})
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "want ErrNotFound, got %v", err)
}

func testAuthorOrder(t *testing.T, s store.Store) {
	names := []string{"Sandi Metz", "Martin Fowler", "Kent Beck", "Ada Lovelace"}
	for _, n := range names {
		mustAuthor(t, s, n)
	}

	all, err := s.Authors().FindAll(context.Background(), store.AuthorFilter{})
	require.NoError(t, err)
	require.Len(t, all, len(names))
	for i, a := range all {
		assert.Equal(t, names[i], a.Name, "author %d out of insertion order", i)
	}
}

func testBookInsertAndFind(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustAuthor(t, s, "Robert Martin")

	b := mustBook(t, s, "Clean Code", a, "refactoring", "non-fiction")
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, a.ID, b.AuthorID)
	assert.Equal(t, []string{"refactoring", "non-fiction"}, b.Genres)

	got, err := s.Books().FindOne(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Clean Code", got.Title)
	assert.Equal(t, 2000, got.Published)
	assert.Equal(t, []string{"refactoring", "non-fiction"}, got.Genres)

	noGenres := mustBook(t, s, "Agile Software Development", a)
	got, err = s.Books().FindOne(ctx, noGenres.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Genres)
	assert.Empty(t, got.Genres)

	_, err = s.Books().FindOne(ctx, "missing")
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "want ErrNotFound, got %v", err)
}

func testBookRequiresAuthor(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Books().Insert(ctx, &catalog.Book{Title: "Orphan", Published: 1999, AuthorID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrNotFound), "want ErrNotFound, got %v", err)

	n, err := s.Books().Count(ctx, store.BookFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testBookFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	martin := mustAuthor(t, s, "Robert Martin")
	fowler := mustAuthor(t, s, "Martin Fowler")

	mustBook(t, s, "Clean Code", martin, "refactoring")
	mustBook(t, s, "Agile Software Development", martin, "agile", "patterns", "design")
	mustBook(t, s, "Refactoring", fowler, "refactoring")
	mustBook(t, s, "Refactoring to patterns", fowler, "refactoring", "patterns")

	str := func(s string) *string { return &s }
	titles := func(books []*catalog.Book) []string {
		out := make([]string, len(books))
		for i, b := range books {
			out[i] = b.Title
		}
		return out
	}

	tests := []struct {
		name   string
		filter store.BookFilter
		want   []string
	}{
		{"no filter", store.BookFilter{}, []string{"Clean Code", "Agile Software Development", "Refactoring", "Refactoring to patterns"}},
		{"by author", store.BookFilter{AuthorID: &martin.ID}, []string{"Clean Code", "Agile Software Development"}},
		{"by genre", store.BookFilter{Genre: str("refactoring")}, []string{"Clean Code", "Refactoring", "Refactoring to patterns"}},
		{"by author and genre", store.BookFilter{AuthorID: &fowler.ID, Genre: str("patterns")}, []string{"Refactoring to patterns"}},
		{"unknown genre", store.BookFilter{Genre: str("crime")}, []string{}},
		{"empty genre", store.BookFilter{Genre: str("")}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.Books().FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(books))

			n, err := s.Books().Count(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func testFindOrCreateAuthor(t *testing.T, s store.Store) {
	ctx := context.Background()

	a, created, err := store.FindOrCreateAuthor(ctx, s.Authors(), "Kent Beck")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.FindOrCreateAuthor(ctx, s.Authors(), "Kent Beck")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)
}

func testConcurrentFindOrCreate(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 16

	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, _, err := store.FindOrCreateAuthor(ctx, s.Authors(), "Concurrent Author")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = a.ID
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, fmt.Sprintf("worker %d", i))
	}
	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i], "worker %d resolved a different author", i)
	}

	n, err := s.Authors().Count(ctx, store.ByName("Concurrent Author"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
