package tokenstore

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(afero.NewMemMapFs(), "/state/bulletin")
}

func TestGet_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	token, ok := s.Get()
	if ok {
		t.Fatalf("expected absent token, got %q", token)
	}
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("abc.def.ghi"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	token, ok := s.Get()
	if !ok {
		t.Fatal("expected token to be present")
	}
	if token != "abc.def.ghi" {
		t.Errorf("expected token abc.def.ghi, got %q", token)
	}
}

func TestSet_Overwrites(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("first"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("second"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	token, _ := s.Get()
	if token != "second" {
		t.Errorf("expected token second, got %q", token)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if err := s.Set("tok"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, ok := s.Get(); ok {
		t.Error("expected token to be gone after Clear")
	}
}

func TestClear_AlreadyEmpty(t *testing.T) {
	s := newTestStore(t)

	if err := s.Clear(); err != nil {
		t.Errorf("Clear on empty store should not fail: %v", err)
	}
}

func TestGet_UnreadableMedium(t *testing.T) {
	// A read-only empty fs stands in for a context with no persistent
	// storage access: Get must report absent, not fail.
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/state/bulletin")

	if _, ok := s.Get(); ok {
		t.Error("expected absent token on unreadable medium")
	}
}

func TestGet_WhitespaceSlot(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/state/bulletin")
	if err := afero.WriteFile(fs, "/state/bulletin/token", []byte("  \n"), 0o600); err != nil {
		t.Fatalf("seed slot: %v", err)
	}

	if _, ok := s.Get(); ok {
		t.Error("whitespace-only slot should read as absent")
	}
}
