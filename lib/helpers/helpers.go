package helpers

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var markdownV2Special = []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

func EscapeMarkdownV2(text string) string {
	for _, char := range markdownV2Special {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// StripMarkdownV2 turns a MarkdownV2 message into plain text: escapes are
// resolved and unescaped formatting characters are dropped.
func StripMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	escaped := false
	for _, r := range text {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*' || r == '_' || r == '`' || r == '~':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatFixed prints price with a fixed number of decimals and thousands separators.
func FormatFixed(price float64, decimals int, escapeMarkdown bool) string {
	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatSignedPercent prints a percentage with two decimals and an explicit sign.
func FormatSignedPercent(percent float64, escapeMarkdown bool) string {
	formatted := fmt.Sprintf("%+.2f", percent)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

func FormatRoundedUS(value int64, escapeMarkdown bool) string {
	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%d", value)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

func FormatVolume(volume float64) string {
	return EscapeMarkdownV2(humanize.Comma(int64(volume + 0.5)))
}
