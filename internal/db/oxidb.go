package db

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parisxmas/icpform/internal/oxidb"
)

// TimeLayout is how timestamps are written to OxiDB. It is fixed width in
// UTC so that sorting the strings sorts the instants.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	dialTimeout       = 5 * time.Second
	keepaliveInterval = 10 * time.Second
)

// Pool is a round-robin connection pool for OxiDB with auto-reconnect.
type Pool struct {
	addr    string
	clients []*oxidb.Client
	mu      []sync.RWMutex
	idx     uint64
	stop    chan struct{}
	once    sync.Once
}

// NewPool creates a pool of size OxiDB connections to addr.
func NewPool(ctx context.Context, addr string, size int) (*Pool, error) {
	p := &Pool{
		addr:    addr,
		clients: make([]*oxidb.Client, size),
		mu:      make([]sync.RWMutex, size),
		stop:    make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		c, err := p.dial(ctx)
		if err != nil {
			p.Close(ctx)
			return nil, fmt.Errorf("pool: connect client %d: %w", i, err)
		}
		p.clients[i] = c
	}
	// Keepalive pings prevent the server's idle timeout.
	go p.keepalive()
	return p, nil
}

func (p *Pool) dial(ctx context.Context) (*oxidb.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	return oxidb.Dial(ctx, p.addr)
}

// get returns the next client in round-robin order.
func (p *Pool) get() *oxidb.Client {
	n := atomic.AddUint64(&p.idx, 1)
	i := int(n % uint64(len(p.clients)))
	p.mu[i].RLock()
	defer p.mu[i].RUnlock()
	return p.clients[i]
}

// reconnect replaces a broken client at index i.
func (p *Pool) reconnect(i int) {
	c, err := p.dial(context.Background())
	if err != nil {
		log.Printf("pool: reconnect client %d failed: %v", i, err)
		return
	}
	p.mu[i].Lock()
	old := p.clients[i]
	p.clients[i] = c
	p.mu[i].Unlock()
	if old != nil {
		old.Close()
	}
}

func (p *Pool) keepalive() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			for i := range p.clients {
				p.mu[i].RLock()
				c := p.clients[i]
				p.mu[i].RUnlock()
				ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
				_, err := c.Ping(ctx)
				cancel()
				if err != nil {
					log.Printf("pool: client %d ping failed, reconnecting: %v", i, err)
					p.reconnect(i)
				}
			}
		}
	}
}

func (p *Pool) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	result, err := p.get().Insert(ctx, collection, encodeTimes(doc))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

func (p *Pool) Find(ctx context.Context, collection string, query map[string]any, opts FindOptions) ([]map[string]any, error) {
	fo := &oxidb.FindOptions{}
	if opts.Sort != "" {
		dir := 1
		if opts.Desc {
			dir = -1
		}
		fo.Sort = map[string]any{opts.Sort: dir}
	}
	if opts.Skip > 0 {
		fo.Skip = &opts.Skip
	}
	if opts.Limit > 0 {
		fo.Limit = &opts.Limit
	}
	docs, err := p.get().Find(ctx, collection, numericIDQuery(query), fo)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		normalizeID(d)
	}
	return docs, nil
}

func (p *Pool) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	doc, err := p.get().FindOne(ctx, collection, numericIDQuery(query))
	if err != nil || doc == nil {
		return nil, err
	}
	normalizeID(doc)
	return doc, nil
}

func (p *Pool) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	return p.get().Count(ctx, collection, numericIDQuery(query))
}

func (p *Pool) EnsureIndex(ctx context.Context, collection, field string, unique bool) error {
	if unique {
		return p.get().CreateUniqueIndex(ctx, collection, field)
	}
	return p.get().CreateIndex(ctx, collection, field)
}

func (p *Pool) Ping(ctx context.Context) error {
	_, err := p.get().Ping(ctx)
	return err
}

// Close stops the keepalive loop and closes all connections.
func (p *Pool) Close(ctx context.Context) error {
	p.once.Do(func() { close(p.stop) })
	for i, c := range p.clients {
		if c != nil {
			c.Close()
			p.clients[i] = nil
		}
	}
	return nil
}

// encodeTimes rewrites time.Time values into TimeLayout strings.
func encodeTimes(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if t, ok := v.(time.Time); ok {
			out[k] = t.UTC().Format(TimeLayout)
			continue
		}
		out[k] = v
	}
	return out
}

// normalizeID converts the _id field from numeric (float64) to string
// since OxiDB returns auto-increment numeric IDs.
func normalizeID(doc map[string]any) {
	if id, ok := doc["_id"]; ok {
		switch v := id.(type) {
		case float64:
			doc["_id"] = strconv.FormatFloat(v, 'f', 0, 64)
		case int:
			doc["_id"] = strconv.Itoa(v)
		}
	}
}

// extractID gets the inserted document ID from an OxiDB insert response.
func extractID(result map[string]any) string {
	switch v := result["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return ""
}

// numericIDQuery converts a string "_id" to the numeric form OxiDB stores.
func numericIDQuery(query map[string]any) map[string]any {
	id, ok := query["_id"].(string)
	if !ok {
		return query
	}
	n, err := strconv.ParseFloat(id, 64)
	if err != nil {
		return query
	}
	out := make(map[string]any, len(query))
	for k, v := range query {
		out[k] = v
	}
	out["_id"] = n
	return out
}
