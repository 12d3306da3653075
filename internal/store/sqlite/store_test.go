package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q, want wal", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "shelf.db")

	s, err := Open(ctx, dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	a, err := s.Authors().Insert(ctx, &catalog.Author{Name: "Robert Martin"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := s.Books().Insert(ctx, &catalog.Book{Title: "Clean Code", Published: 2008, AuthorID: a.ID, Genres: []string{"refactoring"}}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	s.Close()

	s, err = Open(ctx, dbPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	n, err := s.Books().Count(ctx, store.BookFilter{AuthorID: &a.ID})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d after reopen, want 1", n)
	}
}

func TestLogsStoreEvents(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	s, err := Open(ctx, filepath.Join(t.TempDir(), "shelf.db"), logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if _, err := s.Authors().Insert(ctx, &catalog.Author{Name: "Robert Martin"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	_, err = s.Authors().Insert(ctx, &catalog.Author{Name: "Robert Martin"})
	if !errors.Is(err, catalog.ErrConflict) {
		t.Fatalf("duplicate Insert() error = %v, want conflict", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	out := buf.String()
	for _, msg := range []string{"sqlite store opened", "author name already taken", "sqlite store closed"} {
		if !strings.Contains(out, msg) {
			t.Errorf("log output missing %q:\n%s", msg, out)
		}
	}
}
