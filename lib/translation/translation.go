package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Message IDs are the Spanish texts, so "es" needs no catalogue.
const defaultLanguage = "es"

func Configure(localesDir, lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = defaultLanguage
	}
	gotext.Configure(localesDir, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return defaultLanguage
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
