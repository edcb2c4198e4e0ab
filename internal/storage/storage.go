package storage

import (
	"context"
	"time"
)

// Package storage contains the object-store abstraction used by the
// verification pipeline. The pipeline downloads finalized log objects
// to an exclusively-owned local copy and annotates the source object
// with its computed hash.

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client interface.
type Storage interface {
	// DownloadToFile fetches the object into a new file under dir and
	// returns the local path. The caller owns the file and must remove
	// it when done, on every exit path.
	DownloadToFile(ctx context.Context, key, dir string) (string, error)

	// Stat returns object metadata without fetching the content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// SetObjectTags replaces the object's tag set. Used to annotate the
	// source object with its sha256 hash; callers treat failure as
	// non-fatal.
	SetObjectTags(ctx context.Context, key string, tags map[string]string) error

	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
