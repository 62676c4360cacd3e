package storage

import (
	"context"
	"fmt"
)

// Storage is the file store the deletion handlers purge. The surrounding
// platform writes the objects; this engine only ever removes them. Keys are
// slash-separated and start with the owning asset uid
// (assetuid/submissionid/filename), so DeletePrefix on an asset uid removes
// every attachment of that form. Deleting a key that is already gone is not
// an error: handlers must be re-runnable.
type Storage interface {
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

// Options selects and configures a backend.
type Options struct {
	Backend  string // "local" or "minio"
	Root     string
	Endpoint string
	Key      string
	Secret   string
	Bucket   string
	Secure   bool
}

func New(opts Options) (Storage, error) {
	switch opts.Backend {
	case "local":
		return NewLocal(opts.Root)
	case "minio":
		return NewMinio(opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
