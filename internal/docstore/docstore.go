// Package docstore persists the app's two JSON documents (settings and
// recording metadata) behind one interface, so the rest of the app
// never knows whether it runs on a writable disk or on a platform that
// only offers an S3-compatible blob namespace.
package docstore

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get when no document exists under the key.
var ErrNotExist = errors.New("document does not exist")

// DocumentStore reads and writes whole documents by key. Implementations
// must be safe for concurrent use. Writes replace the previous document;
// a write failure must surface, never fall back to another medium.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}
