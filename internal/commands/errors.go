package commands

import (
	"shib-price-bot/internal/types"
	"shib-price-bot/lib/translation"

	"github.com/pkg/errors"
)

// ErrorReply maps a failed command to the text the user sees.
func ErrorReply(err error) string {
	switch {
	case errors.Is(err, types.ErrUpstream):
		return translation.Translate("🔴 Datos no disponibles\\. Intenta más tarde")
	case errors.Is(err, types.ErrInsufficientData):
		return translation.Translate("⏳ Aún recopilando datos\\. Intenta de nuevo en unos minutos\\.")
	default:
		return translation.Translate("⚠️ Error temporal\\. Ya lo estoy solucionando")
	}
}
