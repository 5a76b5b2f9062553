// Package db holds the document store abstraction used by the repositories
// and its OxiDB, MongoDB and in-memory backends.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedURI is returned by Open for an unknown connection scheme.
var ErrUnsupportedURI = errors.New("db: unsupported store uri")

// FindOptions controls ordering and paging of Find.
// A zero Limit means no limit.
type FindOptions struct {
	Sort  string
	Desc  bool
	Skip  int
	Limit int
}

// Store is the subset of document store operations the service needs.
// Queries are equality matches on top-level fields; an empty query
// matches every document. Returned documents carry their id as a
// string under "_id".
type Store interface {
	Insert(ctx context.Context, collection string, doc map[string]any) (string, error)
	Find(ctx context.Context, collection string, query map[string]any, opts FindOptions) ([]map[string]any, error)
	FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error)
	Count(ctx context.Context, collection string, query map[string]any) (int, error)
	EnsureIndex(ctx context.Context, collection, field string, unique bool) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options selects and configures a backend.
type Options struct {
	URI      string
	Database string
	PoolSize int
}

// Open connects to the store named by opts.URI. Supported schemes are
// oxidb://host:port, mongodb://, mongodb+srv:// and memory://.
func Open(ctx context.Context, opts Options) (Store, error) {
	u, err := url.Parse(opts.URI)
	if err != nil {
		return nil, fmt.Errorf("db: parse store uri: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "oxidb":
		size := opts.PoolSize
		if size < 1 {
			size = 1
		}
		return NewPool(ctx, u.Host, size)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, opts.URI, opts.Database)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, u.Scheme)
	}
}
