package bitso

import (
	"context"
	"net/http"
	"net/http/httptest"
	"shib-price-bot/internal/types"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) (*Client, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Retry:   RetryPolicy{MaxAttempts: attempts, Backoff: time.Millisecond},
	}), &hits
}

func TestTickerSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/ticker/" || r.URL.Query().Get("book") != "shib_usd" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`{"success":true,"payload":{"book":"shib_usd","last":"0.00001","high":"0.000011","low":"0.000009","change_24":"1.5","volume":"2500000","created_at":"2024-01-01T00:00:00+00:00"}}`))
	}, 1)

	ticker, err := client.Ticker(context.Background(), "shib_usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticker.Last.String() != "0.00001" {
		t.Errorf("expected last 0.00001, got %s", ticker.Last)
	}
	if ticker.Change24.String() != "1.5" {
		t.Errorf("expected change_24 1.5, got %s", ticker.Change24)
	}
	if ticker.Volume.IntPart() != 2500000 {
		t.Errorf("expected volume 2500000, got %s", ticker.Volume)
	}
	if ticker.CreatedAt != "2024-01-01T00:00:00+00:00" {
		t.Errorf("unexpected created_at %q", ticker.CreatedAt)
	}
}

func TestTickerOptionalFieldsDefaultToZero(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"payload":{"last":"17.0","high":"17.2","low":16.9}}`))
	}, 1)

	ticker, err := client.Ticker(context.Background(), "usd_mxn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ticker.Change24.IsZero() || !ticker.Volume.IsZero() {
		t.Errorf("expected zero defaults, got change %s volume %s", ticker.Change24, ticker.Volume)
	}
	if ticker.Book != "usd_mxn" {
		t.Errorf("expected book to default to the requested one, got %q", ticker.Book)
	}
	if ticker.Low.String() != "16.9" {
		t.Errorf("expected numeric low to be accepted, got %s", ticker.Low)
	}
}

func TestTickerUpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"success false", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"error":{"code":"0301","message":"Unknown OrderBook"}}`))
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"broken json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":tr`))
		}},
		{"missing payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, hits := newTestClient(t, tt.handler, 3)

			_, err := client.Ticker(context.Background(), "shib_usd")
			if !errors.Is(err, types.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
			if got := atomic.LoadInt32(hits); got != 3 {
				t.Errorf("expected 3 attempts, got %d", got)
			}
		})
	}
}

func TestTickerRetryRecovers(t *testing.T) {
	var calls int32
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"payload":{"last":"17.0","high":"17.2","low":"16.9"}}`))
	}, 3)

	if _, err := client.Ticker(context.Background(), "usd_mxn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(hits); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestTickerDataShapeIsNotRetried(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"non numeric last", `{"success":true,"payload":{"last":"abc","high":"1","low":"1"}}`},
		{"missing high", `{"success":true,"payload":{"last":"1","low":"1"}}`},
		{"non numeric volume", `{"success":true,"payload":{"last":"1","high":"1","low":"1","volume":"lots"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, 3)

			_, err := client.Ticker(context.Background(), "shib_usd")
			if !errors.Is(err, types.ErrDataShape) {
				t.Fatalf("expected ErrDataShape, got %v", err)
			}
			if got := atomic.LoadInt32(hits); got != 1 {
				t.Errorf("expected a single attempt, got %d", got)
			}
		})
	}
}

func TestTickerTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 1)
	client.httpClient.Timeout = 50 * time.Millisecond

	_, err := client.Ticker(context.Background(), "shib_usd")
	if !errors.Is(err, types.ErrUpstream) {
		t.Fatalf("expected ErrUpstream on timeout, got %v", err)
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 5, Backoff: time.Hour}

	calls := 0
	err := policy.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.Wrap(types.ErrUpstream, "boom")
	})
	if !errors.Is(err, types.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
