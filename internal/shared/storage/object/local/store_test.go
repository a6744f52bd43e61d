package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mime, err := store.Save(ctx, "guest-1", "label.pdf", strings.NewReader("%PDF-1.4 label"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("%PDF-1.4 label")) {
		t.Fatalf("unexpected size %d", size)
	}
	if mime != "application/pdf" {
		t.Fatalf("unexpected mime %q", mime)
	}
	if !strings.HasSuffix(key, "_label.pdf") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "%PDF-1.4 label" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestSaveWithKeyRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, err := store.SaveWithKey(ctx, "../escape.txt", "text/plain", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, err := store.Open(ctx, "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
	if _, _, _, err := store.Save(ctx, "u", "../x", strings.NewReader("x")); err == nil {
		t.Fatalf("expected unsafe file name to be rejected")
	}
}

func TestSaveWithKeyOverwrites(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	for _, body := range []string{"first", "second"} {
		if _, err := store.SaveWithKey(ctx, "reports/u/weekly.txt", "text/plain", strings.NewReader(body)); err != nil {
			t.Fatalf("SaveWithKey: %v", err)
		}
	}
	rc, err := store.Open(ctx, "reports/u/weekly.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "second" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}
