package commands

import (
	"context"
	"fmt"
	"shib-price-bot/internal/chart"
	"shib-price-bot/lib/helpers"
	"shib-price-bot/lib/translation"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const chartCacheDuration = 5 * time.Minute

type cacheItem struct {
	ChartData  []byte
	Caption    string
	Expiration time.Time
}

func (c *Commands) cacheGet(key string) (*cacheItem, bool) {
	c.chartMu.Lock()
	defer c.chartMu.Unlock()

	if item, found := c.chartCache[key]; found && time.Now().Before(item.Expiration) {
		return item, true
	}
	return nil, false
}

func (c *Commands) cacheSet(key string, chartData []byte, caption string, duration time.Duration) {
	c.chartMu.Lock()
	defer c.chartMu.Unlock()

	now := time.Now()
	for k, item := range c.chartCache {
		if now.After(item.Expiration) {
			delete(c.chartCache, k)
		}
	}
	c.chartCache[key] = &cacheItem{
		ChartData:  chartData,
		Caption:    caption,
		Expiration: now.Add(duration),
	}
}

// CommandChart renders the price history as a PNG. With fewer than two
// samples it returns no image and a progress caption.
func (c *Commands) CommandChart(ctx context.Context) ([]byte, string, error) {
	log.Debug("processing command /grafica")

	if _, err := c.quotes.Quote(ctx); err != nil {
		log.Warnf("command /grafica: drawing history without a fresh quote: %v", err)
	}

	samples := c.quotes.History().Snapshot()
	if len(samples) < 2 {
		return nil, collectingReply(len(samples), 2), nil
	}

	key := fmt.Sprintf("%d:%d", len(samples), samples[len(samples)-1].At.UnixNano())
	if cachedItem, found := c.cacheGet(key); found {
		log.Debugf("returning cached chart %s", key)
		return cachedItem.ChartData, cachedItem.Caption, nil
	}

	title := fmt.Sprintf("%s/%s", c.symbols.Token, c.symbols.Fiat)
	chartData, err := chart.RenderHistory(title, samples, func(v float64) string {
		return helpers.FormatFixed(v, priceDecimals, false)
	})
	if err != nil {
		return nil, "", errors.Wrap(err, "command /grafica")
	}

	caption := translation.Translate("📉 *%s* · últimas %d muestras", c.pair(), len(samples))
	c.cacheSet(key, chartData, caption, chartCacheDuration)

	return chartData, caption, nil
}
