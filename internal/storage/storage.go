package storage

import (
	"context"
	"errors"
)

// Snapshot keys. The engine persists two independent blobs: the full rule
// collection and the capped activity log.
const (
	KeyRules = "automation:rules"
	KeyLogs  = "automation:logs"
)

// ErrNotFound is returned when a key has no snapshot yet (first start).
var ErrNotFound = errors.New("snapshot not found")

// BlobStore is the persistence boundary: load everything at startup, save
// the whole collection after each mutation.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
