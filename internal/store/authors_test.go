package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/catalog"
)

// scriptedAuthors replays canned results for FindOne and Insert.
type scriptedAuthors struct {
	finds   []findResult
	inserts []error
	nFind   int
	nInsert int
}

type findResult struct {
	author *catalog.Author
	err    error
}

func (s *scriptedAuthors) FindOne(ctx context.Context, f AuthorFilter) (*catalog.Author, error) {
	r := s.finds[s.nFind]
	s.nFind++
	return r.author, r.err
}

func (s *scriptedAuthors) FindAll(context.Context, AuthorFilter) ([]*catalog.Author, error) {
	return nil, nil
}

func (s *scriptedAuthors) Count(context.Context, AuthorFilter) (int, error) { return 0, nil }

func (s *scriptedAuthors) Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	err := s.inserts[s.nInsert]
	s.nInsert++
	if err != nil {
		return nil, err
	}
	c := a.Clone()
	c.ID = "new"
	return c, nil
}

func (s *scriptedAuthors) Update(context.Context, string, catalog.AuthorUpdate) (*catalog.Author, error) {
	return nil, errors.New("unexpected update")
}

func TestFindOrCreateAuthor(t *testing.T) {
	ctx := context.Background()
	existing := &catalog.Author{ID: "a1", Name: "Robert Martin"}
	storageDown := catalog.Unavailable("query", errors.New("connection refused"))

	t.Run("existing", func(t *testing.T) {
		s := &scriptedAuthors{finds: []findResult{{author: existing}}}
		a, created, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "a1", a.ID)
		assert.Equal(t, 0, s.nInsert)
	})

	t.Run("created", func(t *testing.T) {
		s := &scriptedAuthors{
			finds:   []findResult{{err: catalog.ErrNotFound}},
			inserts: []error{nil},
		}
		a, created, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "new", a.ID)
		assert.Equal(t, "Robert Martin", a.Name)
	})

	t.Run("lost race re-reads once", func(t *testing.T) {
		s := &scriptedAuthors{
			finds:   []findResult{{err: catalog.ErrNotFound}, {author: existing}},
			inserts: []error{catalog.Conflict("duplicate")},
		}
		a, created, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "a1", a.ID)
		assert.Equal(t, 2, s.nFind)
		assert.Equal(t, 1, s.nInsert)
	})

	t.Run("persistent conflict surfaces", func(t *testing.T) {
		s := &scriptedAuthors{
			finds:   []findResult{{err: catalog.ErrNotFound}, {err: catalog.ErrNotFound}},
			inserts: []error{catalog.Conflict("duplicate")},
		}
		_, _, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrConflict), "want ErrConflict, got %v", err)
		assert.Equal(t, 2, s.nFind)
		assert.Equal(t, 1, s.nInsert)
	})

	t.Run("lookup failure", func(t *testing.T) {
		s := &scriptedAuthors{finds: []findResult{{err: storageDown}}}
		_, _, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		assert.True(t, errors.Is(err, catalog.ErrUnavailable), "want ErrUnavailable, got %v", err)
		assert.Equal(t, 0, s.nInsert)
	})

	t.Run("insert failure", func(t *testing.T) {
		s := &scriptedAuthors{
			finds:   []findResult{{err: catalog.ErrNotFound}},
			inserts: []error{storageDown},
		}
		_, _, err := FindOrCreateAuthor(ctx, s, "Robert Martin")
		assert.True(t, errors.Is(err, catalog.ErrUnavailable), "want ErrUnavailable, got %v", err)
		assert.Equal(t, 1, s.nFind)
	})
}

func TestFilterMatches(t *testing.T) {
	a := &catalog.Author{ID: "a1", Name: "Robert Martin"}
	assert.True(t, AuthorFilter{}.Matches(a))
	assert.True(t, ByName("Robert Martin").Matches(a))
	assert.False(t, ByName("robert martin").Matches(a))
	assert.True(t, ByID("a1").Matches(a))
	assert.False(t, AuthorFilter{ID: ptr("a1"), Name: ptr("Other")}.Matches(a))

	b := &catalog.Book{AuthorID: "a1", Genres: []string{"refactoring", "design"}}
	assert.True(t, BookFilter{}.Matches(b))
	assert.True(t, BookFilter{AuthorID: ptr("a1"), Genre: ptr("design")}.Matches(b))
	assert.False(t, BookFilter{AuthorID: ptr("a2"), Genre: ptr("design")}.Matches(b))
	assert.False(t, BookFilter{Genre: ptr("")}.Matches(b))
}

func ptr(s string) *string { return &s }
