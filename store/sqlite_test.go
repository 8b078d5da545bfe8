package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/eringen/postapi/store"
	"github.com/eringen/postapi/store/storetest"
)

func setupTestStore(t *testing.T) (*store.SQLite, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_blog.db")

	s, err := store.OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func TestSQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := setupTestStore(t)
		return s
	})
}

func TestOpenSQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "blog.db")
	s, err := store.Open(context.Background(), "sqlite://"+path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "blog.db")

	s, err := store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	created, err := s.InsertOne(ctx, store.Post{Author: "Jane", Title: "Testing 1, 2, 3", Content: "Hello."})
	if err != nil {
		t.Fatalf("InsertOne failed: %v", err)
	}
	s.Close()

	s, err = store.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("post should survive reopening the database")
	}
	if got.Title != "Testing 1, 2, 3" {
		t.Errorf("Title = %q, want %q", got.Title, "Testing 1, 2, 3")
	}
}

func TestSQLiteUpdateKeepsOmittedFields(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.InsertOne(ctx, store.Post{Author: "Jane", Title: "Original Title", Content: "Original content"})
	if err != nil {
		t.Fatalf("InsertOne failed: %v", err)
	}

	title := "Updated Title"
	if err := s.UpdateByID(ctx, created.ID, store.Fields{Title: &title}); err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}

	got, err := s.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
	}
	if got.Author != "Jane" {
		t.Errorf("Author = %q, want %q", got.Author, "Jane")
	}
	if got.Content != "Original content" {
		t.Errorf("Content = %q, want %q", got.Content, "Original content")
	}
}

func TestSQLiteClosedStoreReturnsStoreError(t *testing.T) {
	s, cleanup := setupTestStore(t)
	cleanup()

	_, err := s.Count(context.Background())
	var se *store.Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *store.Error, got %v", err)
	}
	if se.Op != "count" {
		t.Errorf("Op = %q, want %q", se.Op, "count")
	}
}
