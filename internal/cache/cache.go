package cache

import (
	"context"
	"shib-price-bot/internal/types"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Store keeps tickers for a limited time.
type Store interface {
	Get(ctx context.Context, book string) (types.Ticker, bool, error)
	Set(ctx context.Context, book string, t types.Ticker, ttl time.Duration) error
}

type item struct {
	ticker     types.Ticker
	expiration time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]item
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]item),
		now:   time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, book string) (types.Ticker, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if it, found := m.items[book]; found && m.now().Before(it.expiration) {
		return it.ticker, true, nil
	}
	delete(m.items, book)
	return types.Ticker{}, false, nil
}

func (m *MemoryStore) Set(_ context.Context, book string, t types.Ticker, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[book] = item{
		ticker:     t,
		expiration: m.now().Add(ttl),
	}
	return nil
}

// Fetcher returns the ticker of a single order book.
type Fetcher interface {
	Ticker(ctx context.Context, book string) (types.Ticker, error)
}

// CachedFetcher serves tickers from a Store and falls through to the wrapped
// Fetcher on a miss. Store failures are logged and treated as misses.
type CachedFetcher struct {
	next  Fetcher
	store Store
	ttl   time.Duration
}

func NewFetcher(next Fetcher, store Store, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, store: store, ttl: ttl}
}

func (c *CachedFetcher) Ticker(ctx context.Context, book string) (types.Ticker, error) {
	t, found, err := c.store.Get(ctx, book)
	if err != nil {
		log.Warnf("ticker cache read failed for %s: %v", book, err)
	} else if found {
		log.Debugf("returning cached ticker for %s", book)
		return t, nil
	}

	t, err = c.next.Ticker(ctx, book)
	if err != nil {
		return t, err
	}

	if err := c.store.Set(ctx, book, t, c.ttl); err != nil {
		log.Warnf("ticker cache write failed for %s: %v", book, err)
	}
	return t, nil
}
