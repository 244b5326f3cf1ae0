package commands

import (
	"context"
	"shib-price-bot/internal/types"
	"shib-price-bot/lib/helpers"
	"shib-price-bot/lib/translation"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ReferenceSource quotes a coin in a fiat currency from an independent venue.
type ReferenceSource interface {
	Quote(coinID, currency string) (float64, error)
}

// PaprikaSource reads reference quotes from CoinPaprika.
type PaprikaSource struct {
	client *coinpaprika.Client
}

func NewPaprikaSource(apiProKey string) *PaprikaSource {
	if apiProKey != "" {
		return &PaprikaSource{client: coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &PaprikaSource{client: coinpaprika.NewClient(nil)}
}

func (s *PaprikaSource) Quote(coinID, currency string) (float64, error) {
	ticker, err := s.client.Tickers.GetByID(coinID, &coinpaprika.TickersOptions{Quotes: currency})
	if err != nil {
		return 0, errors.Wrapf(types.ErrUpstream, "coinpaprika ticker %s: %v", coinID, err)
	}

	quote, found := ticker.Quotes[currency]
	if !found || quote.Price == nil {
		return 0, errors.Wrapf(types.ErrDataShape, "coinpaprika ticker %s has no %s quote", coinID, currency)
	}
	return *quote.Price, nil
}

// CommandReference compares the Bitso cross price with the reference quote.
func (c *Commands) CommandReference(ctx context.Context) (string, error) {
	log.Debug("processing command /referencia")

	if c.reference == nil {
		return translation.Translate("Referencia no disponible\\."), nil
	}

	cp, err := c.quotes.Quote(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /referencia")
	}

	ref, err := c.reference.Quote(c.coinID, c.symbols.Fiat)
	if err != nil {
		return "", errors.Wrap(err, "command /referencia")
	}
	if ref <= 0 {
		return "", errors.Wrapf(types.ErrDivisionByZero, "command /referencia: reference price %v", ref)
	}

	bitso := cp.Price.InexactFloat64()
	spread := (bitso - ref) / ref * 100

	return translation.Translate(
		"🏦 *Bitso %s*: $%s\n🌶 *CoinPaprika*: $%s\n↔️ *Diferencia*: %s%%",
		c.pair(),
		formatPrice(bitso),
		formatPrice(ref),
		helpers.FormatSignedPercent(spread, true),
	), nil
}
