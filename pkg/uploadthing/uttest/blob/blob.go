// Package blob stores uploaded file bodies for the fake UploadThing server.
// Metadata lives in uttest.Store; only the bytes go through a Store here.
//
// These stores back a test double. They are never a deployable UploadThing
// storage backend.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no blob exists under a key
var ErrNotFound = errors.New("blob not found")

// Store persists file bodies by file key
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Kind names a Store implementation
type Kind string

const (
	KindMemory Kind = "memory"
	KindFS     Kind = "fs"
	KindS3     Kind = "s3"
)

// Config selects and configures a Store
type Config struct {
	Kind Kind
	FS   FSConfig
	S3   S3Config
}

// New builds the Store named by cfg.Kind; an empty kind means memory
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Kind {
	case KindMemory, "":
		return NewMemory(), nil
	case KindFS:
		return NewFS(cfg.FS)
	case KindS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store %q", cfg.Kind)
	}
}
