package strategy

import (
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/types"

	"github.com/pkg/errors"
)

// Action is the suggested move for the current price.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

// Thresholds are the multiplicative factors of the signal heuristic.
type Thresholds struct {
	ShortWindow int
	LongWindow  int
	EMAWindow   int
	MinSamples  int

	BuyEMAFactor  float64
	BuyMAFactor   float64
	MinVolume     float64
	SellEMAFactor float64
	SellMAFactor  float64

	BuyStopLoss    float64
	BuyTakeProfit  float64
	SellStopLoss   float64
	SellTakeProfit float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ShortWindow: 5,
		LongWindow:  10,
		EMAWindow:   10,
		MinSamples:  5,

		BuyEMAFactor:  0.98,
		BuyMAFactor:   0.997,
		MinVolume:     1_000_000,
		SellEMAFactor: 1.15,
		SellMAFactor:  1.003,

		BuyStopLoss:    0.94,
		BuyTakeProfit:  1.10,
		SellStopLoss:   1.03,
		SellTakeProfit: 0.97,
	}
}

// Inputs of a single classification.
type Inputs struct {
	Price  float64
	High   float64
	Low    float64
	Volume float64
	MA5    float64
	MA10   float64
	EMA10  float64
}

// Signal is the classified action. StopLoss and TakeProfit are only set
// when HasLevels is true (BUY and SELL).
type Signal struct {
	Action     Action
	StopLoss   float64
	TakeProfit float64
	HasLevels  bool
}

// Classify applies the rules in order, first match wins:
// BUY on a dip below both averages with the short average above the long one
// and enough volume, SELL on a spike over the EMA or a rise over a falling
// short average, WAIT otherwise.
func Classify(in Inputs, th Thresholds) Signal {
	p := in.Price

	if p < in.EMA10*th.BuyEMAFactor &&
		p < in.MA5*th.BuyMAFactor &&
		in.MA5 > in.MA10 &&
		in.Volume > th.MinVolume {
		return Signal{
			Action:     ActionBuy,
			StopLoss:   p * th.BuyStopLoss,
			TakeProfit: p * th.BuyTakeProfit,
			HasLevels:  true,
		}
	}

	if p > in.EMA10*th.SellEMAFactor || (p > in.MA5*th.SellMAFactor && in.MA5 < in.MA10) {
		return Signal{
			Action:     ActionSell,
			StopLoss:   p * th.SellStopLoss,
			TakeProfit: p * th.SellTakeProfit,
			HasLevels:  true,
		}
	}

	return Signal{Action: ActionWait}
}

// Volatility is the 24h range as a percentage of the current price.
func Volatility(high, low, price float64) float64 {
	if price == 0 {
		return 0
	}
	return (high - low) / price * 100
}

// Averager exposes the averages the heuristic needs from a price history.
// All values must come from the same view of the history.
type Averager interface {
	Averages(short, long, emaWindow int) (price.Averages, error)
}

// Report is everything /estrategia shows to the user.
type Report struct {
	Inputs
	Volatility float64
	Samples    int
	Signal     Signal
}

// Evaluate classifies the cross price against the history. The history must
// hold at least th.MinSamples samples.
func Evaluate(cp types.CrossPrice, h Averager, th Thresholds) (Report, error) {
	avg, err := h.Averages(th.ShortWindow, th.LongWindow, th.EMAWindow)
	if err != nil && !errors.Is(err, types.ErrInsufficientData) {
		return Report{}, err
	}
	if err != nil || avg.Samples < th.MinSamples {
		return Report{Samples: avg.Samples}, errors.Wrapf(types.ErrInsufficientData, "%d of %d samples", avg.Samples, th.MinSamples)
	}

	in := Inputs{
		Price:  cp.Price.InexactFloat64(),
		High:   cp.High.InexactFloat64(),
		Low:    cp.Low.InexactFloat64(),
		Volume: cp.Volume.InexactFloat64(),
		MA5:    avg.Short,
		MA10:   avg.Long,
		EMA10:  avg.EMA,
	}

	return Report{
		Inputs:     in,
		Volatility: Volatility(in.High, in.Low, in.Price),
		Samples:    avg.Samples,
		Signal:     Classify(in, th),
	}, nil
}
