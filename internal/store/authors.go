package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/catalog"
)

// FindOrCreateAuthor returns the author called name, creating it when absent.
// created reports whether this call inserted the record.
//
// Two callers racing on a new name may both miss the lookup; the store's
// unique constraint makes the slower insert fail with catalog.ErrConflict, and
// that caller re-reads the winner's record exactly once. If the re-read still
// finds nothing the conflict is returned.
func FindOrCreateAuthor(ctx context.Context, authors AuthorStore, name string) (a *catalog.Author, created bool, err error) {
	a, err = authors.FindOne(ctx, ByName(name))
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return nil, false, fmt.Errorf("find author %q: %w", name, err)
	}

	a, err = authors.Insert(ctx, &catalog.Author{Name: name})
	if err == nil {
		return a, true, nil
	}
	if !errors.Is(err, catalog.ErrConflict) {
		return nil, false, fmt.Errorf("create author %q: %w", name, err)
	}

	zerolog.Ctx(ctx).Debug().Str("author", name).Msg("author created concurrently, re-reading")

	a, err = authors.FindOne(ctx, ByName(name))
	switch {
	case err == nil:
		return a, false, nil
	case errors.Is(err, catalog.ErrNotFound):
		return nil, false, catalog.Conflict("author %q conflicts with an existing record that could not be read back", name)
	default:
		return nil, false, fmt.Errorf("re-read author %q: %w", name, err)
	}
}
