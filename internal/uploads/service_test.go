package uploads

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"filmdecks-backend/internal/shared/storage/object/local"
	"filmdecks-backend/internal/shared/telemetry"
)

func countStored(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return n
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	restore := telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(restore)
	dir := t.TempDir()
	return NewService(local.New(dir)), dir
}

func TestUploadKeepsExtractedFile(t *testing.T) {
	svc, dir := newTestService(t)
	up, err := svc.Upload(context.Background(), "203.0.113.9", "pitch.txt", "text/plain", strings.NewReader("Two rivals share a boat."))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.ExtractedText != "Two rivals share a boat." {
		t.Fatalf("unexpected text %q", up.ExtractedText)
	}
	if got := countStored(t, dir); got != 1 {
		t.Fatalf("expected 1 stored file, got %d", got)
	}
}

func TestUploadDiscardsRejectedFiles(t *testing.T) {
	cases := []struct {
		name        string
		fileName    string
		contentType string
		data        []byte
		want        error
	}{
		{"empty", "empty.txt", "text/plain", nil, ErrInvalidInput},
		{"unsupported", "still.png", "image/png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ErrUnsupported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, dir := newTestService(t)
			_, err := svc.Upload(context.Background(), "203.0.113.9", tc.fileName, tc.contentType, bytes.NewReader(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := countStored(t, dir); got != 0 {
				t.Fatalf("expected rejected upload to be removed, found %d files", got)
			}
		})
	}
}
