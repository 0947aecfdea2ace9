package object

import (
	"context"
	"io"
)

// Object describes a stored upload.
type Object struct {
	Key       string
	SizeBytes int64
	MimeType  string
}

// ObjectStore saves uploaded files under a scope, reads them back by key and
// removes them. Deleting a missing key is not an error.
type ObjectStore interface {
	Save(ctx context.Context, scope string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
