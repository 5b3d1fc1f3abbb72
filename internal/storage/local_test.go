package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, strings.NewReader("file body"), "procedure.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(key, "_procedure.pdf") {
		t.Errorf("key = %q, want uuid-prefixed original name", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "file body" {
		t.Errorf("content = %q, want original", data)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil || !ok {
		t.Errorf("Exists = %v, %v, want true", ok, err)
	}
}

func TestSaveKeysNeverCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	k1, err := store.Save(ctx, strings.NewReader("a"), "same.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	k2, err := store.Save(ctx, strings.NewReader("b"), "same.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if k1 == k2 {
		t.Errorf("two saves of %q produced the same key %q", "same.pdf", k1)
	}
}

func TestSaveSanitizesFilename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
	}{
		{"path traversal", "../../etc/passwd"},
		{"absolute path", "/etc/passwd"},
		{"backslashes", `..\..\boot.ini`},
		{"empty", ""},
		{"dot", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := store.Save(ctx, strings.NewReader("x"), tt.filename, "text/plain")
			if err != nil {
				t.Fatalf("Save(%q): %v", tt.filename, err)
			}
			if strings.ContainsAny(key, "/\\") {
				t.Errorf("key %q contains path separators", key)
			}
			if _, err := store.Open(ctx, key); err != nil {
				t.Errorf("Open(%q): %v", key, err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, strings.NewReader("x"), "f.txt", "text/plain")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ok, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("file still exists after Delete")
	}

	// Deleting a missing key is not an error
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("Delete of missing key = %v, want nil", err)
	}
}
