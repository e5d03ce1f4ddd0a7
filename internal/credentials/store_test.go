package credentials

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "tokens.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundtrip(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("octocat", "ghp_first"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	token, err := store.Get("octocat")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if token != "ghp_first" {
		t.Errorf("token = %q", token)
	}
}

func TestPutReplacesExistingToken(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("octocat", "ghp_first"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put("octocat", "ghp_second"); err != nil {
		t.Fatalf("Put (replace): %v", err)
	}

	token, err := store.Get("octocat")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if token != "ghp_second" {
		t.Errorf("token = %q, want replacement", token)
	}
}

func TestGetUnknownLogin(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Get("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("octocat", "ghp_first"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete("octocat"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get("octocat"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete("octocat"); err != nil {
		t.Errorf("deleting absent login: %v", err)
	}
}
