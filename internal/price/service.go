package price

import (
	"context"
	"shib-price-bot/internal/types"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Fetcher returns the ticker of a single order book.
type Fetcher interface {
	Ticker(ctx context.Context, book string) (types.Ticker, error)
}

// Books names the order books a quote is built from. When Direct is set the
// token is read from that book and Token/FX are ignored.
type Books struct {
	Token  string
	FX     string
	Direct string
}

// Service runs the quote pipeline and records every successful quote in the
// shared history.
type Service struct {
	fetcher Fetcher
	history *History
	books   Books
	now     func() time.Time

	mu         sync.Mutex
	lastSource string
}

// NewService creates a quote service
func NewService(f Fetcher, h *History, b Books) *Service {
	return &Service{
		fetcher: f,
		history: h,
		books:   b,
		now:     time.Now,
	}
}

func (s *Service) History() *History {
	return s.history
}

// Quote fetches the books, computes the cross price and pushes it to the
// history. Both books must be fetched for the quote to succeed.
func (s *Service) Quote(ctx context.Context) (types.CrossPrice, error) {
	var (
		cp     types.CrossPrice
		source string
	)

	if s.books.Direct != "" {
		t, err := s.fetcher.Ticker(ctx, s.books.Direct)
		if err != nil {
			return cp, errors.Wrapf(err, "fetch %s", s.books.Direct)
		}
		cp = FromDirect(t, s.now())
		source = t.CreatedAt
	} else {
		var (
			wg              sync.WaitGroup
			token, fx       types.Ticker
			tokenErr, fxErr error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			token, tokenErr = s.fetcher.Ticker(ctx, s.books.Token)
		}()
		go func() {
			defer wg.Done()
			fx, fxErr = s.fetcher.Ticker(ctx, s.books.FX)
		}()
		wg.Wait()

		if tokenErr != nil {
			return cp, errors.Wrapf(tokenErr, "fetch %s", s.books.Token)
		}
		if fxErr != nil {
			return cp, errors.Wrapf(fxErr, "fetch %s", s.books.FX)
		}
		cp = Compute(token, fx, s.now())
		if token.CreatedAt != "" && fx.CreatedAt != "" {
			source = token.CreatedAt + "|" + fx.CreatedAt
		}
	}

	if cp.Price.Sign() <= 0 {
		return cp, errors.Wrapf(types.ErrDataShape, "non-positive cross price %s", cp.Price)
	}

	s.record(cp, source)
	return cp, nil
}

// record pushes cp unless it was built from the same tickers as the previous
// sample, which happens while the tickers are served from cache.
func (s *Service) record(cp types.CrossPrice, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if source != "" && source == s.lastSource {
		log.Debugf("tickers unchanged since %s, sample not recorded", source)
		return
	}
	s.lastSource = source
	s.history.Push(Sample{Price: cp.Price.InexactFloat64(), At: cp.At})
}

// StartSampler quotes every interval until ctx is done, so the history fills
// without user traffic.
func (s *Service) StartSampler(ctx context.Context, interval time.Duration) {
	go s.sample(ctx, interval)
	log.Infof("price sampler started, interval %s", interval)
}

func (s *Service) sample(ctx context.Context, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("panic recovered in price sampler: %v, restarting in 10 seconds", r)
			select {
			case <-ctx.Done():
			case <-time.After(10 * time.Second):
				go s.sample(ctx, interval)
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("price sampler stopped")
			return
		case <-ticker.C:
			cp, err := s.Quote(ctx)
			if err != nil {
				log.Warnf("price sample failed: %v", err)
				continue
			}
			log.Debugf("price sampled: %s (%d samples)", cp.Price, s.history.Len())
		}
	}
}
