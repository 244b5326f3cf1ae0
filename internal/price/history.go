package price

import (
	"shib-price-bot/internal/types"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultHistorySize is the number of samples kept when no size is configured.
const DefaultHistorySize = 15

// Sample is one computed cross price kept in the history.
type Sample struct {
	Price float64
	At    time.Time
}

// History is a bounded FIFO of recent prices, safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	samples []Sample
	size    int
}

// NewHistory creates an empty history holding at most size samples.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		samples: make([]Sample, 0, size),
		size:    size,
	}
}

// Push appends s, evicting the oldest sample when the history is full.
func (h *History) Push(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == h.size {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.size-1]
	}
	h.samples = append(h.samples, s)
}

// Snapshot returns a copy of the samples, oldest first.
func (h *History) Snapshot() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

func (h *History) Cap() int {
	return h.size
}

// MovingAverage is the mean of the last min(window, Len()) prices.
func (h *History) MovingAverage(window int) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0, errors.Wrap(types.ErrInsufficientData, "moving average of empty history")
	}
	return movingAverage(h.samples, window), nil
}

// ExponentialMovingAverage seeds with the mean of the first window prices and
// smooths the rest with multiplier 2/(window+1). Histories shorter than
// window yield their simple mean.
func (h *History) ExponentialMovingAverage(window int) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.samples) == 0 {
		return 0, errors.Wrap(types.ErrInsufficientData, "exponential moving average of empty history")
	}
	return exponentialMovingAverage(h.samples, window), nil
}

// Averages holds the indicators of one consistent view of the history.
type Averages struct {
	Samples int
	Short   float64
	Long    float64
	EMA     float64
}

// Averages computes the short and long moving averages and the EMA under a
// single lock, so all of them see the same samples.
func (h *History) Averages(short, long, emaWindow int) (Averages, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.samples)
	if n == 0 {
		return Averages{}, errors.Wrap(types.ErrInsufficientData, "averages of empty history")
	}
	return Averages{
		Samples: n,
		Short:   movingAverage(h.samples, short),
		Long:    movingAverage(h.samples, long),
		EMA:     exponentialMovingAverage(h.samples, emaWindow),
	}, nil
}

func movingAverage(samples []Sample, window int) float64 {
	n := len(samples)
	if window > 0 && window < n {
		return mean(samples[n-window:])
	}
	return mean(samples)
}

func exponentialMovingAverage(samples []Sample, window int) float64 {
	if window <= 0 || len(samples) < window {
		return mean(samples)
	}

	multiplier := 2 / float64(window+1)
	ema := mean(samples[:window])
	for _, s := range samples[window:] {
		ema = (s.Price-ema)*multiplier + ema
	}
	return ema
}

func mean(samples []Sample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.Price
	}
	return sum / float64(len(samples))
}
