package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmans/shelf/internal/catalog"
)

func TestValidateNewBook(t *testing.T) {
	v := New()

	t.Run("valid", func(t *testing.T) {
		err := v.Validate(catalog.NewBook{Title: "Clean Code", Published: 2008, Author: "Robert Martin"})
		assert.NoError(t, err)
	})

	t.Run("valid with genres", func(t *testing.T) {
		err := v.Validate(catalog.NewBook{Title: "Clean Code", Author: "Robert Martin", Genres: []string{"refactoring"}})
		assert.NoError(t, err)
	})

	t.Run("missing title and author", func(t *testing.T) {
		err := v.Validate(catalog.NewBook{Published: 2008})
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrValidation))

		var ce *catalog.Error
		require.True(t, errors.As(err, &ce))
		fields, ok := ce.Details.(map[string]string)
		require.True(t, ok, "details should be a field map, got %T", ce.Details)
		assert.Equal(t, "is required", fields["title"])
		assert.Equal(t, "is required", fields["author"])
		assert.NotContains(t, fields, "published")
	})

	t.Run("empty genre label", func(t *testing.T) {
		err := v.Validate(catalog.NewBook{Title: "T", Author: "A", Genres: []string{"ok", ""}})
		require.Error(t, err)

		var ce *catalog.Error
		require.True(t, errors.As(err, &ce))
		fields := ce.Details.(map[string]string)
		assert.Contains(t, fields, "genres[1]")
	})
}

func TestValidateAuthorEdit(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(catalog.AuthorEdit{Author: "Robert Martin", BirthYear: 1952}))

	err := v.Validate(catalog.AuthorEdit{BirthYear: 1952})
	require.Error(t, err)
	assert.Equal(t, catalog.CodeValidation, catalog.CodeOf(err))
	assert.Contains(t, err.Error(), "author is required")
}
