package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	obj, err := store.Save(context.Background(), "203.0.113.7", "my treatment.txt", strings.NewReader("INT. SPACE STATION - NIGHT"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.SizeBytes != int64(len("INT. SPACE STATION - NIGHT")) {
		t.Fatalf("unexpected size %d", obj.SizeBytes)
	}
	if !strings.HasPrefix(obj.MimeType, "text/plain") {
		t.Fatalf("unexpected mime %q", obj.MimeType)
	}
	if !strings.HasSuffix(obj.Key, "_my treatment.txt") {
		t.Fatalf("unexpected key %q", obj.Key)
	}

	rc, err := store.Open(context.Background(), obj.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "INT. SPACE STATION - NIGHT" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestSaveRejectsTraversalName(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Save(context.Background(), "scope", "../x.pdf", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for traversal name")
	}
}

func TestDeleteRemovesObject(t *testing.T) {
	store := New(t.TempDir())
	obj, err := store.Save(context.Background(), "scope", "notes.txt", strings.NewReader("draft"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(context.Background(), obj.Key); err == nil {
		t.Fatalf("expected object to be gone")
	}
	if err := store.Delete(context.Background(), obj.Key); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
	if err := store.Delete(context.Background(), "../escape.txt"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}
