package db

import (
	"context"
	"fmt"
	"sync"
)

// Opener creates the underlying store on first use.
type Opener func(ctx context.Context) (Store, error)

// Lazy is a Store that connects on first use and reuses the connection
// afterwards. Concurrent first calls wait for a single open; a failed
// open is retried by the next call.
type Lazy struct {
	open  Opener
	mu    sync.Mutex
	store Store
}

// NewLazy returns a handle that calls open on first use.
func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	s, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("db: open store: %w", err)
	}
	l.store = s
	return s, nil
}

func (l *Lazy) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	s, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return s.Insert(ctx, collection, doc)
}

func (l *Lazy) Find(ctx context.Context, collection string, query map[string]any, opts FindOptions) ([]map[string]any, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, collection, query, opts)
}

func (l *Lazy) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, collection, query)
}

func (l *Lazy) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	s, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, collection, query)
}

func (l *Lazy) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.EnsureIndex(ctx, collection, field, unique)
}

func (l *Lazy) Ping(ctx context.Context) error {
	s, err := l.get(ctx)
	if err != nil {
		return err
	}
	return s.Ping(ctx)
}

// Close closes the underlying store if it was ever opened.
func (l *Lazy) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close(ctx)
	l.store = nil
	return err
}
