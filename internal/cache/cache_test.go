package cache

import (
	"context"
	"os"
	"shib-price-bot/internal/types"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) Ticker(_ context.Context, book string) (types.Ticker, error) {
	f.calls++
	if f.err != nil {
		return types.Ticker{}, f.err
	}
	return types.Ticker{Book: book, Last: decimal.RequireFromString("17.0")}, nil
}

func TestMemoryStoreExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Set(ctx, "usd_mxn", types.Ticker{Book: "usd_mxn"}, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, found, _ := store.Get(ctx, "usd_mxn"); !found {
		t.Fatal("expected a fresh entry to be found")
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := store.Get(ctx, "usd_mxn"); found {
		t.Fatal("expected the entry to expire")
	}
}

func TestCachedFetcherServesFromCache(t *testing.T) {
	next := &countingFetcher{}
	fetcher := NewFetcher(next, NewMemoryStore(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tk, err := fetcher.Ticker(ctx, "usd_mxn")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tk.Last.String() != "17" {
			t.Errorf("unexpected ticker %+v", tk)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected one upstream call, got %d", next.calls)
	}
}

func TestCachedFetcherDoesNotCacheFailures(t *testing.T) {
	next := &countingFetcher{err: errors.Wrap(types.ErrUpstream, "down")}
	fetcher := NewFetcher(next, NewMemoryStore(), time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := fetcher.Ticker(ctx, "usd_mxn"); !errors.Is(err, types.ErrUpstream) {
			t.Fatalf("expected ErrUpstream, got %v", err)
		}
	}
	if next.calls != 2 {
		t.Errorf("expected failures to reach upstream every time, got %d calls", next.calls)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store := NewRedisStore(addr, os.Getenv("REDIS_PASSWORD"), 0)
	defer store.Close()
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	in := types.Ticker{
		Book:      "shib_usd",
		Last:      decimal.RequireFromString("0.00001"),
		High:      decimal.RequireFromString("0.000011"),
		Low:       decimal.RequireFromString("0.000009"),
		CreatedAt: "2024-01-01T00:00:00+00:00",
	}
	if err := store.Set(ctx, "test_book", in, time.Minute); err != nil {
		t.Fatalf("failed to set ticker: %v", err)
	}

	out, found, err := store.Get(ctx, "test_book")
	if err != nil || !found {
		t.Fatalf("expected ticker, found=%v err=%v", found, err)
	}
	if !out.Last.Equal(in.Last) || out.CreatedAt != in.CreatedAt {
		t.Errorf("expected %+v, got %+v", in, out)
	}

	if _, found, err := store.Get(ctx, "missing_book"); found || err != nil {
		t.Errorf("expected a clean miss, found=%v err=%v", found, err)
	}
}
