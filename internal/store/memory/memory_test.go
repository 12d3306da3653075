package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/hmans/shelf/internal/catalog"
	"github.com/hmans/shelf/internal/store"
	"github.com/hmans/shelf/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	a, err := s.Authors().Insert(ctx, &catalog.Author{Name: "Robert Martin"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	a.Name = "Someone Else"

	got, err := s.Authors().FindOne(ctx, store.ByID(a.ID))
	if err != nil {
		t.Fatalf("FindOne() error = %v", err)
	}
	if got.Name != "Robert Martin" {
		t.Errorf("stored author mutated through returned pointer: Name = %q", got.Name)
	}
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Authors().Insert(ctx, &catalog.Author{Name: "X"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Insert() error = %v, want context.Canceled", err)
	}
	if _, err := s.Books().Count(ctx, store.BookFilter{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Count() error = %v, want context.Canceled", err)
	}

	n, err := s.Authors().Count(context.Background(), store.AuthorFilter{})
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want 0, nil", n, err)
	}
}
