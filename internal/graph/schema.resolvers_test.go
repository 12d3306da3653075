package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/memory"
)

func setupTestResolver(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	s := memory.New()
	return &Resolver{Store: s}, s
}

func addTestBook(t *testing.T, r *Resolver, title string, published int, author string, genres ...string) *catalog.Book {
	t.Helper()
	b, err := r.Mutation().AddBook(context.Background(), title, published, author, genres)
	if err != nil {
		t.Fatalf("AddBook(%q) error = %v", title, err)
	}
	return b
}

func ptr(s string) *string { return &s }

// spyStore wraps a real store so tests can observe or override author operations.
type spyStore struct {
	store.Store
	authors *spyAuthors
}

func (s *spyStore) Authors() store.AuthorStore { return s.authors }

type spyAuthors struct {
	store.AuthorStore
	findOne func(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error)
	insert  func(ctx context.Context, a *catalog.Author) (*catalog.Author, error)

	finds   atomic.Int32
	inserts atomic.Int32
	updates atomic.Int32
}

func (s *spyAuthors) FindOne(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
	s.finds.Add(1)
	if s.findOne != nil {
		return s.findOne(ctx, f)
	}
	return s.AuthorStore.FindOne(ctx, f)
}

func (s *spyAuthors) Insert(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
	s.inserts.Add(1)
	if s.insert != nil {
		return s.insert(ctx, a)
	}
	return s.AuthorStore.Insert(ctx, a)
}

func (s *spyAuthors) Update(ctx context.Context, id string, u catalog.AuthorUpdate) (*catalog.Author, error) {
	s.updates.Add(1)
	return s.AuthorStore.Update(ctx, id, u)
}

func setupSpyResolver(t *testing.T) (*Resolver, *spyAuthors, *memory.Store) {
	t.Helper()
	mem := memory.New()
	spy := &spyAuthors{AuthorStore: mem.Authors()}
	return &Resolver{Store: &spyStore{Store: mem, authors: spy}}, spy, mem
}

func TestAddBookScenario(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx := context.Background()
	qr := resolver.Query()

	t.Run("first book creates the author", func(t *testing.T) {
		b, err := resolver.Mutation().AddBook(ctx, "Clean Code", 2008, "Robert Martin", []string{"non-fiction"})
		if err != nil {
			t.Fatalf("AddBook() error = %v", err)
		}
		if b.ID == "" {
			t.Error("AddBook() returned a book without ID")
		}
		if b.Title != "Clean Code" || b.Published != 2008 {
			t.Errorf("AddBook() = %+v", b)
		}

		if n, _ := qr.AuthorCount(ctx); n != 1 {
			t.Errorf("AuthorCount() = %d, want 1", n)
		}
		if n, _ := qr.BookCount(ctx, nil); n != 1 {
			t.Errorf("BookCount() = %d, want 1", n)
		}

		authors, err := qr.AllAuthors(ctx)
		if err != nil {
			t.Fatalf("AllAuthors() error = %v", err)
		}
		if len(authors) != 1 || authors[0].Name != "Robert Martin" {
			t.Fatalf("AllAuthors() = %+v", authors)
		}
		if authors[0].Born != nil {
			t.Errorf("implicitly created author has born = %d, want nil", *authors[0].Born)
		}
		if n, _ := resolver.Author().BookCount(ctx, authors[0]); n != 1 {
			t.Errorf("Author.BookCount() = %d, want 1", n)
		}
	})

	t.Run("second book reuses the author", func(t *testing.T) {
		addTestBook(t, resolver, "Agile software development", 2002, "Robert Martin", "agile", "patterns", "design")

		if n, _ := qr.AuthorCount(ctx); n != 1 {
			t.Errorf("AuthorCount() = %d, want 1", n)
		}
		if n, _ := qr.BookCount(ctx, nil); n != 2 {
			t.Errorf("BookCount() = %d, want 2", n)
		}
		authors, _ := qr.AllAuthors(ctx)
		if n, _ := resolver.Author().BookCount(ctx, authors[0]); n != 2 {
			t.Errorf("Author.BookCount() = %d, want 2", n)
		}
	})

	t.Run("edit author", func(t *testing.T) {
		got, err := resolver.Mutation().EditAuthor(ctx, "Robert Martin", 1952)
		if err != nil {
			t.Fatalf("EditAuthor() error = %v", err)
		}
		if got == nil || got.Born == nil || *got.Born != 1952 {
			t.Fatalf("EditAuthor() = %+v, want born 1952", got)
		}

		got, err = resolver.Mutation().EditAuthor(ctx, "Nobody", 1900)
		if err != nil {
			t.Fatalf("EditAuthor(unknown) error = %v", err)
		}
		if got != nil {
			t.Errorf("EditAuthor(unknown) = %+v, want nil", got)
		}
	})
}

func TestAddBookGenres(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	t.Run("absent genres", func(t *testing.T) {
		b := addTestBook(t, resolver, "Refactoring", 1999, "Martin Fowler")
		if b.Genres == nil || len(b.Genres) != 0 {
			t.Errorf("Genres = %#v, want empty non-nil slice", b.Genres)
		}
	})

	t.Run("order kept", func(t *testing.T) {
		b := addTestBook(t, resolver, "Design Patterns", 1994, "Erich Gamma", "patterns", "design", "classic")
		want := []string{"patterns", "design", "classic"}
		if fmt.Sprint(b.Genres) != fmt.Sprint(want) {
			t.Errorf("Genres = %v, want %v", b.Genres, want)
		}
	})

	t.Run("trimmed", func(t *testing.T) {
		b := addTestBook(t, resolver, "  The Demon  ", 1872, " Fyodor Dostoevsky ", " classic ")
		if b.Title != "The Demon" {
			t.Errorf("Title = %q, want trimmed", b.Title)
		}
		if b.Genres[0] != "classic" {
			t.Errorf("Genres[0] = %q, want %q", b.Genres[0], "classic")
		}
		a, err := resolver.Book().Author(context.Background(), b)
		if err != nil {
			t.Fatalf("Book.Author() error = %v", err)
		}
		if a.Name != "Fyodor Dostoevsky" {
			t.Errorf("author name = %q, want trimmed", a.Name)
		}
	})
}

func TestAddBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
		genres []string
		field  string
	}{
		{"empty title", "", "Robert Martin", nil, "title"},
		{"blank title", "   ", "Robert Martin", nil, "title"},
		{"empty author", "Clean Code", "", nil, "author"},
		{"blank author", "Clean Code", "\t", nil, "author"},
		{"empty genre", "Clean Code", "Robert Martin", []string{"classic", " "}, "genres[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, spy, mem := setupSpyResolver(t)
			ctx := context.Background()

			b, err := resolver.Mutation().AddBook(ctx, tt.title, 2008, tt.author, tt.genres)
			if b != nil {
				t.Errorf("AddBook() = %+v, want nil", b)
			}
			if !errors.Is(err, catalog.ErrValidation) {
				t.Fatalf("AddBook() error = %v, want validation error", err)
			}

			var ce *catalog.Error
			errors.As(err, &ce)
			fields, _ := ce.Details.(map[string]string)
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("validation details = %v, want field %q", fields, tt.field)
			}

			if n := spy.finds.Load() + spy.inserts.Load(); n != 0 {
				t.Errorf("store touched %d times before validation failed", n)
			}
			if n, _ := mem.Books().Count(ctx, store.BookFilter{}); n != 0 {
				t.Errorf("books stored = %d, want 0", n)
			}
		})
	}
}

func TestQueryFilters(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx := context.Background()
	qr := resolver.Query()

	addTestBook(t, resolver, "Clean Code", 2008, "Robert Martin", "refactoring")
	addTestBook(t, resolver, "Agile software development", 2002, "Robert Martin", "agile", "patterns", "design")
	addTestBook(t, resolver, "Refactoring, edition 2", 2018, "Martin Fowler", "refactoring")
	addTestBook(t, resolver, "Crime and punishment", 1866, "Fyodor Dostoevsky", "classic", "crime")
	addTestBook(t, resolver, "The Demon", 1872, "Fyodor Dostoevsky", "classic", "revolution")

	titles := func(books []*catalog.Book) []string {
		out := make([]string, len(books))
		for i, b := range books {
			out[i] = b.Title
		}
		return out
	}

	tests := []struct {
		name   string
		author *string
		genre  *string
		want   []string
	}{
		{"no filter", nil, nil, []string{"Clean Code", "Agile software development", "Refactoring, edition 2", "Crime and punishment", "The Demon"}},
		{"by author", ptr("Robert Martin"), nil, []string{"Clean Code", "Agile software development"}},
		{"by genre", nil, ptr("refactoring"), []string{"Clean Code", "Refactoring, edition 2"}},
		{"author and genre", ptr("Fyodor Dostoevsky"), ptr("crime"), []string{"Crime and punishment"}},
		{"author and genre disjoint", ptr("Martin Fowler"), ptr("classic"), []string{}},
		{"unknown author", ptr("Nobody"), nil, []string{}},
		{"unknown genre", nil, ptr("poetry"), []string{}},
		{"empty author is a constraint", ptr(""), nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := qr.AllBooks(ctx, tt.author, tt.genre)
			if err != nil {
				t.Fatalf("AllBooks() error = %v", err)
			}
			if got == nil {
				t.Fatal("AllBooks() returned nil slice")
			}
			if fmt.Sprint(titles(got)) != fmt.Sprint(tt.want) {
				t.Errorf("AllBooks() = %v, want %v", titles(got), tt.want)
			}

			if tt.genre == nil {
				n, err := qr.BookCount(ctx, tt.author)
				if err != nil {
					t.Fatalf("BookCount() error = %v", err)
				}
				if n != len(tt.want) {
					t.Errorf("BookCount() = %d, want %d", n, len(tt.want))
				}
			}
		})
	}
}

func TestQueryFiltersTrimArguments(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx := context.Background()
	qr := resolver.Query()

	addTestBook(t, resolver, "Clean Code", 2008, " Robert Martin ", " refactoring ")

	for _, name := range []string{"Robert Martin", " Robert Martin ", "\tRobert Martin\n"} {
		n, err := qr.BookCount(ctx, &name)
		if err != nil {
			t.Fatalf("BookCount(%q) error = %v", name, err)
		}
		if n != 1 {
			t.Errorf("BookCount(%q) = %d, want 1", name, n)
		}

		books, err := qr.AllBooks(ctx, &name, ptr(" refactoring"))
		if err != nil {
			t.Fatalf("AllBooks(%q) error = %v", name, err)
		}
		if len(books) != 1 || books[0].Title != "Clean Code" {
			t.Errorf("AllBooks(%q) = %v, want [Clean Code]", name, books)
		}
	}

	// the same padded name edits the author the filters found
	a, err := resolver.Mutation().EditAuthor(ctx, " Robert Martin ", 1952)
	if err != nil {
		t.Fatalf("EditAuthor() error = %v", err)
	}
	if a == nil || a.Name != "Robert Martin" {
		t.Fatalf("EditAuthor() = %v, want Robert Martin", a)
	}
}

func TestAllAuthorsOrderAndCounts(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx := context.Background()

	addTestBook(t, resolver, "Clean Code", 2008, "Robert Martin")
	addTestBook(t, resolver, "Refactoring", 1999, "Martin Fowler")
	addTestBook(t, resolver, "Agile software development", 2002, "Robert Martin")
	addTestBook(t, resolver, "Crime and punishment", 1866, "Fyodor Dostoevsky")

	authors, err := resolver.Query().AllAuthors(ctx)
	if err != nil {
		t.Fatalf("AllAuthors() error = %v", err)
	}

	want := []struct {
		name  string
		books int
	}{
		{"Robert Martin", 2},
		{"Martin Fowler", 1},
		{"Fyodor Dostoevsky", 1},
	}
	if len(authors) != len(want) {
		t.Fatalf("AllAuthors() returned %d authors, want %d", len(authors), len(want))
	}
	for i, w := range want {
		if authors[i].Name != w.name {
			t.Errorf("authors[%d] = %q, want %q", i, authors[i].Name, w.name)
		}
		n, err := resolver.Author().BookCount(ctx, authors[i])
		if err != nil {
			t.Fatalf("BookCount() error = %v", err)
		}
		if n != w.books {
			t.Errorf("%s bookCount = %d, want %d", w.name, n, w.books)
		}
	}
}

func TestEditAuthor(t *testing.T) {
	t.Run("known author", func(t *testing.T) {
		resolver, spy, _ := setupSpyResolver(t)
		ctx := context.Background()
		b := addTestBook(t, resolver, "Clean Code", 2008, "Robert Martin")

		before, _ := resolver.Book().Author(ctx, b)
		got, err := resolver.Mutation().EditAuthor(ctx, "Robert Martin", 1952)
		if err != nil {
			t.Fatalf("EditAuthor() error = %v", err)
		}
		if got.ID != before.ID || got.Name != before.Name {
			t.Errorf("EditAuthor() changed identity: %+v -> %+v", before, got)
		}
		if *got.Born != 1952 {
			t.Errorf("Born = %d, want 1952", *got.Born)
		}
		if spy.updates.Load() != 1 {
			t.Errorf("updates = %d, want 1", spy.updates.Load())
		}

		after, _ := resolver.Book().Author(ctx, b)
		if after.Born == nil || *after.Born != 1952 {
			t.Errorf("stored born = %v, want 1952", after.Born)
		}
	})

	t.Run("unknown author performs no update", func(t *testing.T) {
		resolver, spy, _ := setupSpyResolver(t)
		ctx := context.Background()
		addTestBook(t, resolver, "Clean Code", 2008, "Robert Martin")

		got, err := resolver.Mutation().EditAuthor(ctx, "Nobody", 1900)
		if err != nil {
			t.Fatalf("EditAuthor() error = %v", err)
		}
		if got != nil {
			t.Errorf("EditAuthor() = %+v, want nil", got)
		}
		if spy.updates.Load() != 0 {
			t.Errorf("updates = %d, want 0", spy.updates.Load())
		}
		if n, _ := resolver.Query().AuthorCount(ctx); n != 1 {
			t.Errorf("AuthorCount() = %d, want 1", n)
		}
	})

	t.Run("blank name", func(t *testing.T) {
		resolver, spy, _ := setupSpyResolver(t)
		_, err := resolver.Mutation().EditAuthor(context.Background(), "  ", 1900)
		if !errors.Is(err, catalog.ErrValidation) {
			t.Errorf("EditAuthor() error = %v, want validation error", err)
		}
		if spy.finds.Load() != 0 {
			t.Errorf("finds = %d, want 0", spy.finds.Load())
		}
	})
}

func TestAddBookConcurrentSameAuthor(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx := context.Background()
	const n = 32

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := resolver.Mutation().AddBook(ctx, fmt.Sprintf("Book %d", i), 2000+i, "Joshua Kerievsky", []string{"refactoring"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("AddBook() error = %v", err)
		}
	}

	if got, _ := resolver.Query().AuthorCount(ctx); got != 1 {
		t.Errorf("AuthorCount() = %d, want 1", got)
	}
	if got, _ := resolver.Query().BookCount(ctx, ptr("Joshua Kerievsky")); got != n {
		t.Errorf("BookCount() = %d, want %d", got, n)
	}
}

func TestAddBookConflict(t *testing.T) {
	t.Run("lost race re-reads the winner", func(t *testing.T) {
		resolver, spy, mem := setupSpyResolver(t)
		ctx := context.Background()

		// The first lookup misses; a competing request then inserts the author
		// just before ours does.
		var lookups atomic.Int32
		spy.findOne = func(ctx context.Context, f store.AuthorFilter) (*catalog.Author, error) {
			if lookups.Add(1) == 1 {
				return nil, catalog.ErrNotFound
			}
			return mem.Authors().FindOne(ctx, f)
		}
		spy.insert = func(ctx context.Context, a *catalog.Author) (*catalog.Author, error) {
			if _, err := mem.Authors().Insert(ctx, a); err != nil {
				t.Fatalf("competing insert: %v", err)
			}
			return mem.Authors().Insert(ctx, a)
		}

		b, err := resolver.Mutation().AddBook(ctx, "Clean Code", 2008, "Robert Martin", nil)
		if err != nil {
			t.Fatalf("AddBook() error = %v", err)
		}
		if lookups.Load() != 2 {
			t.Errorf("lookups = %d, want 2", lookups.Load())
		}

		authors, _ := mem.Authors().FindAll(ctx, store.AuthorFilter{})
		if len(authors) != 1 {
			t.Fatalf("authors = %d, want 1", len(authors))
		}
		if b.AuthorID != authors[0].ID {
			t.Errorf("book author = %q, want %q", b.AuthorID, authors[0].ID)
		}
	})

	t.Run("persistent conflict is surfaced", func(t *testing.T) {
		resolver, spy, mem := setupSpyResolver(t)
		ctx := context.Background()

		spy.findOne = func(context.Context, store.AuthorFilter) (*catalog.Author, error) {
			return nil, catalog.ErrNotFound
		}
		spy.insert = func(_ context.Context, a *catalog.Author) (*catalog.Author, error) {
			return nil, catalog.Conflict("author %q already exists", a.Name)
		}

		b, err := resolver.Mutation().AddBook(ctx, "Clean Code", 2008, "Robert Martin", nil)
		if b != nil {
			t.Errorf("AddBook() = %+v, want nil", b)
		}
		if catalog.CodeOf(err) != catalog.CodeConflict {
			t.Fatalf("AddBook() error = %v, want CONFLICT", err)
		}
		if spy.finds.Load() != 2 || spy.inserts.Load() != 1 {
			t.Errorf("finds = %d, inserts = %d, want 2 and 1", spy.finds.Load(), spy.inserts.Load())
		}
		if n, _ := mem.Books().Count(ctx, store.BookFilter{}); n != 0 {
			t.Errorf("books stored = %d, want 0", n)
		}
	})
}

func TestAddBookStorageFailure(t *testing.T) {
	resolver, spy, mem := setupSpyResolver(t)
	ctx := context.Background()

	spy.insert = func(context.Context, *catalog.Author) (*catalog.Author, error) {
		return nil, catalog.Unavailable("insert author", errors.New("connection reset"))
	}

	_, err := resolver.Mutation().AddBook(ctx, "Clean Code", 2008, "Robert Martin", nil)
	if !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("AddBook() error = %v, want unavailable", err)
	}
	if n, _ := mem.Books().Count(ctx, store.BookFilter{}); n != 0 {
		t.Errorf("books stored = %d, want 0", n)
	}
	if n, _ := mem.Authors().Count(ctx, store.AuthorFilter{}); n != 0 {
		t.Errorf("authors stored = %d, want 0", n)
	}
}

func TestCanceledContext(t *testing.T) {
	resolver, _ := setupTestResolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := resolver.Mutation().AddBook(ctx, "Clean Code", 2008, "Robert Martin", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("AddBook() error = %v, want context.Canceled", err)
	}
	if _, err := resolver.Query().AllBooks(ctx, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("AllBooks() error = %v, want context.Canceled", err)
	}
}

func TestBookAuthorMissing(t *testing.T) {
	resolver, _ := setupTestResolver(t)

	_, err := resolver.Book().Author(context.Background(), &catalog.Book{ID: "b1", AuthorID: "gone"})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("Book.Author() error = %v, want not found", err)
	}
}
