package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "guest-device-1"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	got, err := SanitizeFileName(" labels/oat milk.pdf ")
	if err != nil || got != "labels_oat milk.pdf" {
		t.Fatalf("unexpected result %q %v", got, err)
	}
	for _, bad := range []string{"", "   ", "../secret"} {
		if _, err := SanitizeFileName(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
