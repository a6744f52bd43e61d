package object

import (
	"context"
	"io"
)

// ObjectStore saves and retrieves binary objects such as uploaded nutrition
// labels, exported reports and catalog datasets.
type ObjectStore interface {
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
