package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker is a snapshot of one Bitso order book at fetch time.
type Ticker struct {
	Book      string          `json:"book"`
	Last      decimal.Decimal `json:"last"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Change24  decimal.Decimal `json:"change_24"`
	Volume    decimal.Decimal `json:"volume"`
	CreatedAt string          `json:"created_at"`
}

// CrossPrice is the token price expressed in the fiat currency, derived from
// the token/USD and USD/fiat books (or read directly from a token/fiat book).
type CrossPrice struct {
	Price    decimal.Decimal `json:"price"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Change24 decimal.Decimal `json:"change_24"`
	Volume   decimal.Decimal `json:"volume"`
	At       time.Time       `json:"at"`
}
