package commands

import (
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/strategy"
	"shib-price-bot/lib/helpers"
	"shib-price-bot/lib/translation"
	"sync"
)

// Symbols are the display names of the quoted pair.
type Symbols struct {
	Token string
	Fiat  string
}

// Commands implements the bot commands on top of the quote service.
type Commands struct {
	quotes     *price.Service
	thresholds strategy.Thresholds
	symbols    Symbols
	reference  ReferenceSource
	coinID     string

	chartMu    sync.Mutex
	chartCache map[string]*cacheItem
}

// Config of the command set. Reference may be nil to disable /referencia.
type Config struct {
	Quotes     *price.Service
	Thresholds strategy.Thresholds
	Symbols    Symbols
	Reference  ReferenceSource
	CoinID     string
}

func New(c Config) *Commands {
	return &Commands{
		quotes:     c.Quotes,
		thresholds: c.Thresholds,
		symbols:    c.Symbols,
		reference:  c.Reference,
		coinID:     c.CoinID,
		chartCache: make(map[string]*cacheItem),
	}
}

func (c *Commands) CommandStart() string {
	return translation.Translate("👋 ¡Bot %s activado\\! Usa /precio", helpers.EscapeMarkdownV2(c.symbols.Token))
}

func (c *Commands) CommandHelp() string {
	return translation.Translate(
		"*Comandos*\n\n/precio \\- precio %s/%s\n/estrategia \\- señal de compra o venta\n/grafica \\- gráfica de precios recientes\n/referencia \\- comparación con CoinPaprika",
		helpers.EscapeMarkdownV2(c.symbols.Token),
		helpers.EscapeMarkdownV2(c.symbols.Fiat),
	)
}

func (c *Commands) pair() string {
	return helpers.EscapeMarkdownV2(c.symbols.Token + "/" + c.symbols.Fiat)
}
