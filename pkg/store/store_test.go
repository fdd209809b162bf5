package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// testStoreContract exercises the behaviour every backend must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := s.Get(ctx, "layout:missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := s.Set(ctx, "layout:a", []byte("one"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "layout:b", []byte("two"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "other:c", []byte("three"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := s.Get(ctx, "layout:a")
	if err != nil || !hit {
		t.Fatalf("Get(a) = hit %v, err %v", hit, err)
	}
	if string(data) != "one" {
		t.Errorf("Get(a) = %q, want %q", data, "one")
	}

	// Overwrite.
	if err := s.Set(ctx, "layout:a", []byte("uno"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, _, _ := s.Get(ctx, "layout:a"); string(data) != "uno" {
		t.Errorf("Get(a) after overwrite = %q, want %q", data, "uno")
	}

	keys, err := s.List(ctx, "layout:")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"layout:a", "layout:b"}, keys); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "layout:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := s.Get(ctx, "layout:a"); hit {
		t.Error("deleted key still present")
	}
	if err := s.Delete(ctx, "layout:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func testStoreExpiry(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if err := s.Set(ctx, "layout:short", []byte("x"), time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, hit, err := s.Get(ctx, "layout:short"); err != nil || hit {
		t.Errorf("expired Get = hit %v, err %v; want miss", hit, err)
	}
	keys, err := s.List(ctx, "layout:")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List returned expired keys %v", keys)
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if err := s.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := s.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullStore should not store data")
	}
	if keys, _ := s.List(ctx, ""); len(keys) != 0 {
		t.Errorf("List = %v, want none", keys)
	}
	if s.Backend() != BackendNone {
		t.Errorf("Backend() = %q", s.Backend())
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreContract(t, s)
}

func TestFileStoreExpiry(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	testStoreExpiry(t, s)
}

func TestFileStoreCorruptEntry(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if err := s.Set(ctx, "layout:a", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}

	path := s.path("layout:a")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := s.Get(ctx, "layout:a"); err != nil || hit {
		t.Errorf("corrupt Get = hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if err := s.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	h := Hash([]byte("k"))
	if _, err := os.Stat(filepath.Join(dir, h[:2], h[2:]+".json")); err != nil {
		t.Errorf("entry not at hashed path: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), SQLiteConfig{Path: filepath.Join(t.TempDir(), "layouts.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	testStoreContract(t, s)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	testStoreExpiry(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cfg     Config
		backend string
	}{
		{Config{Dir: t.TempDir()}, BackendFile},
		{Config{Backend: BackendFile, Dir: t.TempDir()}, BackendFile},
		{Config{Backend: BackendNone}, BackendNone},
		{Config{Backend: BackendSQLite, SQLite: SQLiteConfig{Path: ":memory:"}}, BackendSQLite},
	}
	for _, tt := range tests {
		s, err := Open(ctx, tt.cfg)
		if err != nil {
			t.Fatalf("Open(%+v): %v", tt.cfg, err)
		}
		if s.Backend() != tt.backend {
			t.Errorf("Backend() = %q, want %q", s.Backend(), tt.backend)
		}
		s.Close()
	}

	if _, err := Open(ctx, Config{Backend: "etcd"}); err == nil {
		t.Error("Open should reject unknown backends")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	if got := k.LayoutKey("home"); got != "layout:home" {
		t.Errorf("LayoutKey = %q", got)
	}

	scoped := NewScopedKeyer(nil, "team-a:")
	if got := scoped.LayoutKey("home"); got != "team-a:layout:home" {
		t.Errorf("scoped LayoutKey = %q", got)
	}
	if got := scoped.LayoutPrefix(); got != "team-a:layout:" {
		t.Errorf("scoped LayoutPrefix = %q", got)
	}

	if name, ok := layoutName(scoped, "team-a:layout:home"); !ok || name != "home" {
		t.Errorf("layoutName = %q, %v", name, ok)
	}
	if _, ok := layoutName(scoped, "layout:home"); ok {
		t.Error("layoutName should reject keys from another scope")
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob(`a*b?[c]\`); got != `a\*b\?\[c\]\\` {
		t.Errorf("escapeGlob = %q", got)
	}
}

func TestRetryWithBackoff(t *testing.T) {
	oldDelay := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = oldDelay })

	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("retryable then success", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return Retryable(boom)
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d; want nil, 3", err, calls)
		}
	})

	t.Run("permanent error", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("err = %v, calls = %d; want boom, 1", err, calls)
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return Retryable(boom) })
		if err != boom {
			t.Errorf("err = %v, want unwrapped boom", err)
		}
		if IsRetryable(err) {
			t.Error("exhausted error should be unwrapped")
		}
	})

	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}
