package commands

import (
	"fmt"
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/strategy"
	"shib-price-bot/internal/types"
	"shib-price-bot/lib/helpers"
	"shib-price-bot/lib/translation"
	"strings"

	"github.com/shopspring/decimal"
)

const priceDecimals = 8

var hundred = decimal.NewFromInt(100)

func formatPrice(p float64) string {
	return helpers.FormatFixed(p, priceDecimals, true)
}

// FormatQuote renders the /precio reply: price, 24h change and how many
// tokens 100 units of fiat buy.
func FormatQuote(cp types.CrossPrice, s Symbols) (string, error) {
	inverse, err := price.InverseAmount(hundred, cp.Price)
	if err != nil {
		return "", err
	}

	return translation.Translate(
		"🐕 *%s*: $%s\n📈 *24h*: %s%%\n💵 *100 %s* \\= %s %s",
		helpers.EscapeMarkdownV2(s.Token+"/"+s.Fiat),
		formatPrice(cp.Price.InexactFloat64()),
		helpers.FormatSignedPercent(cp.Change24.InexactFloat64(), true),
		helpers.EscapeMarkdownV2(s.Fiat),
		helpers.FormatRoundedUS(inverse.Round(0).IntPart(), true),
		helpers.EscapeMarkdownV2(s.Token),
	), nil
}

// FormatReport renders the /estrategia reply.
func FormatReport(r strategy.Report, s Symbols) string {
	var b strings.Builder

	b.WriteString(translation.Translate(
		"📊 *Estrategia %s*\n\nPrecio: $%s\nMA5: $%s\nMA10: $%s\nEMA10: $%s\nVolatilidad 24h: %s%%\nVolumen 24h: %s %s\n\nSeñal: %s",
		helpers.EscapeMarkdownV2(s.Token+"/"+s.Fiat),
		formatPrice(r.Price),
		formatPrice(r.MA5),
		formatPrice(r.MA10),
		formatPrice(r.EMA10),
		helpers.EscapeMarkdownV2(fmt.Sprintf("%.2f", r.Volatility)),
		helpers.FormatVolume(r.Volume),
		helpers.EscapeMarkdownV2(s.Token),
		signalLabel(r.Signal.Action),
	))

	if r.Signal.HasLevels {
		b.WriteString(translation.Translate(
			"\n🛑 Stop loss: $%s\n🎯 Take profit: $%s",
			formatPrice(r.Signal.StopLoss),
			formatPrice(r.Signal.TakeProfit),
		))
	}

	b.WriteString(translation.Translate("\n\n_Indicativo, no es asesoría financiera\\._"))
	return b.String()
}

func signalLabel(a strategy.Action) string {
	switch a {
	case strategy.ActionBuy:
		return translation.Translate("🟢 *COMPRAR*")
	case strategy.ActionSell:
		return translation.Translate("🔴 *VENDER*")
	default:
		return translation.Translate("🟡 *ESPERAR*")
	}
}
