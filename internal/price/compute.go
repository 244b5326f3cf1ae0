package price

import (
	"shib-price-bot/internal/types"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Compute derives the token price in fiat from the token/USD and USD/fiat
// tickers. High and low are converted with the same USD/fiat rate.
func Compute(tokenUsd, usdFiat types.Ticker, at time.Time) types.CrossPrice {
	rate := usdFiat.Last
	return types.CrossPrice{
		Price:    tokenUsd.Last.Mul(rate),
		High:     tokenUsd.High.Mul(rate),
		Low:      tokenUsd.Low.Mul(rate),
		Change24: tokenUsd.Change24,
		Volume:   tokenUsd.Volume,
		At:       at,
	}
}

// FromDirect builds a CrossPrice from a book already quoted in fiat.
func FromDirect(t types.Ticker, at time.Time) types.CrossPrice {
	return types.CrossPrice{
		Price:    t.Last,
		High:     t.High,
		Low:      t.Low,
		Change24: t.Change24,
		Volume:   t.Volume,
		At:       at,
	}
}

// InverseAmount returns how many tokens amount of fiat buys at price.
func InverseAmount(amount, price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsZero() {
		return decimal.Zero, errors.Wrapf(types.ErrDivisionByZero, "inverse of %s", amount)
	}
	return amount.Div(price), nil
}
