package graph

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.84

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
)

// BookCount is the resolver for the bookCount field.
func (r *authorResolver) BookCount(ctx context.Context, obj *catalog.Author) (int, error) {
	n, err := r.Store.Books().Count(ctx, store.BookFilter{AuthorID: &obj.ID})
	if err != nil {
		return 0, fmt.Errorf("count books of %q: %w", obj.Name, err)
	}
	return n, nil
}

// Author is the resolver for the author field.
func (r *bookResolver) Author(ctx context.Context, obj *catalog.Book) (*catalog.Author, error) {
	a, err := r.Store.Authors().FindOne(ctx, store.ByID(obj.AuthorID))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, catalog.NotFound("author %q of book %q not found", obj.AuthorID, obj.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve author of book %q: %w", obj.ID, err)
	}
	return a, nil
}

// AddBook is the resolver for the addBook field.
func (r *mutationResolver) AddBook(ctx context.Context, title string, published int, author string, genres []string) (*catalog.Book, error) {
	input := catalog.NewBook{
		Title:     strings.TrimSpace(title),
		Published: published,
		Author:    strings.TrimSpace(author),
		Genres:    make([]string, 0, len(genres)),
	}
	for _, g := range genres {
		input.Genres = append(input.Genres, strings.TrimSpace(g))
	}
	if err := validate.Validate(input); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx)

	// The author must exist before the book referencing it is inserted.
	a, created, err := store.FindOrCreateAuthor(ctx, r.Store.Authors(), input.Author)
	if err != nil {
		return nil, fmt.Errorf("add book %q: %w", input.Title, err)
	}
	if created {
		log.Info().Str("author", a.Name).Str("author_id", a.ID).Msg("author created")
	}

	b, err := r.Store.Books().Insert(ctx, &catalog.Book{
		Title:     input.Title,
		Published: input.Published,
		AuthorID:  a.ID,
		Genres:    input.Genres,
	})
	if err != nil {
		return nil, fmt.Errorf("add book %q: %w", input.Title, err)
	}

	log.Info().
		Str("book_id", b.ID).
		Str("title", b.Title).
		Str("author", a.Name).
		Msg("book added")
	return b, nil
}

// EditAuthor is the resolver for the editAuthor field.
// An unknown author yields a null result rather than an error.
func (r *mutationResolver) EditAuthor(ctx context.Context, author string, birthYear int) (*catalog.Author, error) {
	input := catalog.AuthorEdit{Author: strings.TrimSpace(author), BirthYear: birthYear}
	if err := validate.Validate(input); err != nil {
		return nil, err
	}

	authors := r.Store.Authors()
	a, err := authors.FindOne(ctx, store.ByName(input.Author))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("edit author %q: %w", input.Author, err)
	}

	updated, err := authors.Update(ctx, a.ID, catalog.AuthorUpdate{Born: &input.BirthYear})
	if err != nil {
		return nil, fmt.Errorf("edit author %q: %w", input.Author, err)
	}

	zerolog.Ctx(ctx).Info().
		Str("author", updated.Name).
		Int("born", input.BirthYear).
		Msg("author birth year set")
	return updated, nil
}

// BookCount is the resolver for the bookCount field.
func (r *queryResolver) BookCount(ctx context.Context, author *string) (int, error) {
	f, ok, err := BookFilter(ctx, r.Store.Authors(), author, nil)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	if !ok {
		return 0, nil
	}

	n, err := r.Store.Books().Count(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// AuthorCount is the resolver for the authorCount field.
func (r *queryResolver) AuthorCount(ctx context.Context) (int, error) {
	n, err := r.Store.Authors().Count(ctx, store.AuthorFilter{})
	if err != nil {
		return 0, fmt.Errorf("count authors: %w", err)
	}
	return n, nil
}

// AllBooks is the resolver for the allBooks field.
func (r *queryResolver) AllBooks(ctx context.Context, author *string, genre *string) ([]*catalog.Book, error) {
	f, ok, err := BookFilter(ctx, r.Store.Authors(), author, genre)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	if !ok {
		return []*catalog.Book{}, nil
	}

	books, err := r.Store.Books().FindAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// AllAuthors is the resolver for the allAuthors field.
func (r *queryResolver) AllAuthors(ctx context.Context) ([]*catalog.Author, error) {
	authors, err := r.Store.Authors().FindAll(ctx, store.AuthorFilter{})
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	return authors, nil
}

// Author returns AuthorResolver implementation.
func (r *Resolver) Author() AuthorResolver { return &authorResolver{r} }

// Book returns BookResolver implementation.
func (r *Resolver) Book() BookResolver { return &bookResolver{r} }

// Mutation returns MutationResolver implementation.
func (r *Resolver) Mutation() MutationResolver { return &mutationResolver{r} }

// Query returns QueryResolver implementation.
func (r *Resolver) Query() QueryResolver { return &queryResolver{r} }

type authorResolver struct{ *Resolver }
type bookResolver struct{ *Resolver }
type mutationResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }
