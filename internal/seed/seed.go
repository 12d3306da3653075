// Package seed imports authors and books from a YAML file.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hmans/shelf/internal/graph"
	"github.com/hmans/shelf/internal/store"
)

// File is the seed file layout.
//
//	authors:
//	  - name: Robert Martin
//	    born: 1952
//	books:
//	  - title: Clean Code
//	    published: 2008
//	    author: Robert Martin
//	    genres: [refactoring]
type File struct {
	Authors []Author `yaml:"authors"`
	Books   []Book   `yaml:"books"`
}

// Author is an author entry. Born is optional.
type Author struct {
	Name string `yaml:"name"`
	Born *int   `yaml:"born,omitempty"`
}

// Book is a book entry. Its author is created if no author entry names it.
type Book struct {
	Title     string   `yaml:"title"`
	Published int      `yaml:"published"`
	Author    string   `yaml:"author"`
	Genres    []string `yaml:"genres,omitempty"`
}

// Result counts what Apply changed.
type Result struct {
	AuthorsCreated int
	AuthorsUpdated int
	BooksAdded     int
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &f, nil
}

// Apply creates the file's authors and then adds its books through the
// mutation resolvers, so seeded data passes the same validation as API input.
// Authors that already exist are reused; a born year in the file overwrites
// the stored one. Books are always added.
func Apply(ctx context.Context, r *graph.Resolver, f *File) (Result, error) {
	var res Result
	log := zerolog.Ctx(ctx)

	for i, entry := range f.Authors {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return res, fmt.Errorf("authors[%d]: name is required", i)
		}

		a, created, err := store.FindOrCreateAuthor(ctx, r.Store.Authors(), name)
		if err != nil {
			return res, fmt.Errorf("authors[%d]: %w", i, err)
		}
		if created {
			res.AuthorsCreated++
		}

		if entry.Born != nil && (a.Born == nil || *a.Born != *entry.Born) {
			if _, err := r.Mutation().EditAuthor(ctx, name, *entry.Born); err != nil {
				return res, fmt.Errorf("authors[%d]: %w", i, err)
			}
			if !created {
				res.AuthorsUpdated++
			}
		}
	}

	for i, entry := range f.Books {
		before, err := r.Store.Authors().Count(ctx, store.AuthorFilter{})
		if err != nil {
			return res, fmt.Errorf("books[%d]: %w", i, err)
		}

		if _, err := r.Mutation().AddBook(ctx, entry.Title, entry.Published, entry.Author, entry.Genres); err != nil {
			return res, fmt.Errorf("books[%d] %q: %w", i, entry.Title, err)
		}
		res.BooksAdded++

		after, err := r.Store.Authors().Count(ctx, store.AuthorFilter{})
		if err != nil {
			return res, fmt.Errorf("books[%d]: %w", i, err)
		}
		res.AuthorsCreated += after - before
	}

	log.Info().
		Int("authors_created", res.AuthorsCreated).
		Int("authors_updated", res.AuthorsUpdated).
		Int("books_added", res.BooksAdded).
		Msg("seed applied")
	return res, nil
}
