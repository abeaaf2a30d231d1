package pos

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetGetDelete(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}

	if v, err := s.Get(TokenKey); err != nil || v != "" {
		t.Fatalf("empty store: got %q, %v", v, err)
	}

	if err := s.Set(TokenKey, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("other", "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := s.Get(TokenKey); v != "abc" {
		t.Fatalf("Get = %q, want abc", v)
	}

	if err := s.Delete(TokenKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v, _ := s.Get(TokenKey); v != "" {
		t.Fatalf("Get after delete = %q", v)
	}
	if v, _ := s.Get("other"); v != "x" {
		t.Fatalf("unrelated key lost: %q", v)
	}
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("Delete of a missing key: %v", err)
	}
}

func TestStore_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	s1, _ := OpenStore(dir)
	if err := s1.Set(TokenKey, "persisted"); err != nil {
		t.Fatal(err)
	}

	s2, err := OpenStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := s2.Get(TokenKey); v != "persisted" {
		t.Fatalf("Get = %q", v)
	}
}

func TestStore_FileIsPrivate(t *testing.T) {
	s, _ := OpenStore(t.TempDir())
	if err := s.Set(TokenKey, "abc"); err != nil {
		t.Fatal(err)
	}

	fi, err := os.Stat(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}
}

func TestStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "storage.yaml"), []byte("- not\n- a map\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, _ := OpenStore(dir)
	if _, err := s.Get(TokenKey); err == nil {
		t.Fatal("expected an error for a corrupt store")
	}
}
