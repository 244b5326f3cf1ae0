package commands

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func (c *Commands) CommandPrice(ctx context.Context) (string, error) {
	log.Debug("processing command /precio")

	cp, err := c.quotes.Quote(ctx)
	if err != nil {
		return "", errors.Wrap(err, "command /precio")
	}

	text, err := FormatQuote(cp, c.symbols)
	if err != nil {
		return "", errors.Wrap(err, "command /precio")
	}
	return text, nil
}
