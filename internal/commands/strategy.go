package commands

import (
	"context"
	"shib-price-bot/internal/strategy"
	"shib-price-bot/internal/types"
	"shib-price-bot/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CommandStrategy quotes the pair and classifies it. Until the history holds
// enough samples it answers with a progress message instead of an error.
func (c *Commands) CommandStrategy(ctx context.Context) (string, error) {
	log.Debug("processing command /estrategia")

	cp, err := c.quotes.Quote(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /estrategia")
	}

	report, err := strategy.Evaluate(cp, c.quotes.History(), c.thresholds)
	if errors.Is(err, types.ErrInsufficientData) {
		return collectingReply(report.Samples, c.thresholds.MinSamples), nil
	}
	if err != nil {
		return "", errors.Wrap(err, "command /estrategia")
	}

	log.Debugf("strategy signal %s at %.8f (ma5 %.8f, ma10 %.8f, ema10 %.8f)",
		report.Signal.Action, report.Price, report.MA5, report.MA10, report.EMA10)

	return FormatReport(report, c.symbols), nil
}

func collectingReply(have, need int) string {
	return translation.Translate(
		"⏳ Recopilando datos \\(%d/%d muestras\\)\\. Intenta de nuevo en unos minutos\\.",
		have, need,
	)
}
