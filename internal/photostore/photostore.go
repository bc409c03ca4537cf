// Package photostore holds encoded image bytes. Records elsewhere refer to
// blobs by the storage key returned from Save.
package photostore

import (
	"context"
	"io"
)

type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	// Get returns domain.ErrNotFound (wrapped) for unknown keys.
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
	// Purge removes every stored blob.
	Purge(ctx context.Context) error
}
