// Package storage persists which Imgur images have already been published.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store tracks which images were published, per source. Marks expire after
// Options.ImageTTL so long-lived albums do not grow the store without bound.
type Store interface {
	Close() error
	SeenImage(sourceID, imageID string) (bool, error)
	MarkImage(sourceID, imageID string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ImageTTL        time.Duration
	CleanupInterval time.Duration
	// RedisURL is required by the redis backend, e.g. redis://localhost:6379/0.
	RedisURL string
}

const (
	TypeBBolt = "bbolt"
	TypeRedis = "redis"
	TypeNone  = "none"

	defaultImageTTL        = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case TypeRedis:
		return openRedis(opts.RedisURL, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ImageTTL <= 0 {
		opts.ImageTTL = defaultImageTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) SeenImage(string, string) (bool, error) { return false, nil }
func (noopStore) MarkImage(string, string) error         { return nil }
