package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/graph"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/memory"
)

func TestLoad(t *testing.T) {
	f, err := Load("testdata/library.yml")
	require.NoError(t, err)

	assert.Len(t, f.Authors, 5)
	assert.Len(t, f.Books, 7)
	require.NotNil(t, f.Authors[0].Born)
	assert.Equal(t, 1952, *f.Authors[0].Born)
	assert.Nil(t, f.Authors[3].Born)
	assert.Equal(t, []string{"agile", "patterns", "design"}, f.Books[1].Genres)
}

func TestParse(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f, err := Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, f.Authors)
		assert.Empty(t, f.Books)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("authors:\n  - name: Sandi Metz\n    birthYear: 1970\n"))
		assert.Error(t, err)
	})
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	r := &graph.Resolver{Store: s}

	f, err := Load("testdata/library.yml")
	require.NoError(t, err)

	res, err := Apply(ctx, r, f)
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsCreated: 5, BooksAdded: 7}, res)

	n, err := r.Query().BookCount(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	dostoevsky, err := s.Authors().FindOne(ctx, store.ByName("Fyodor Dostoevsky"))
	require.NoError(t, err)
	require.NotNil(t, dostoevsky.Born)
	assert.Equal(t, 1821, *dostoevsky.Born)

	count, err := r.Author().BookCount(ctx, dostoevsky)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	t.Run("re-apply reuses authors", func(t *testing.T) {
		res, err := Apply(ctx, r, f)
		require.NoError(t, err)
		assert.Equal(t, Result{BooksAdded: 7}, res)

		authors, err := r.Query().AuthorCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, authors)
	})

	t.Run("born updated", func(t *testing.T) {
		born := 1953
		res, err := Apply(ctx, r, &File{Authors: []Author{{Name: "Robert Martin", Born: &born}}})
		require.NoError(t, err)
		assert.Equal(t, Result{AuthorsUpdated: 1}, res)
	})
}

func TestApplyImplicitAuthor(t *testing.T) {
	ctx := context.Background()
	r := &graph.Resolver{Store: memory.New()}

	res, err := Apply(ctx, r, &File{Books: []Book{
		{Title: "Clean Code", Published: 2008, Author: "Robert Martin"},
		{Title: "Clean Architecture", Published: 2017, Author: "Robert Martin"},
	}})
	require.NoError(t, err)
	assert.Equal(t, Result{AuthorsCreated: 1, BooksAdded: 2}, res)
}

func TestApplyInvalidBook(t *testing.T) {
	r := &graph.Resolver{Store: memory.New()}

	res, err := Apply(context.Background(), r, &File{Books: []Book{
		{Title: "Clean Code", Published: 2008, Author: "Robert Martin"},
		{Title: "", Published: 2017, Author: "Robert Martin"},
	}})
	assert.ErrorContains(t, err, "books[1]")
	assert.Equal(t, 1, res.BooksAdded)
}
