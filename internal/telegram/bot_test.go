package telegram

import (
	"context"
	"shib-price-bot/internal/commands"
	"shib-price-bot/internal/price"
	"shib-price-bot/internal/strategy"
	"shib-price-bot/internal/types"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	errs []error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return tgbotapi.Message{}, err
	}
	return tgbotapi.Message{}, nil
}

type fakeFetcher struct {
	err error
}

func (f fakeFetcher) Ticker(_ context.Context, book string) (types.Ticker, error) {
	if f.err != nil {
		return types.Ticker{}, f.err
	}
	if book == "usd_mxn" {
		return types.Ticker{Last: decimal.RequireFromString("17.0")}, nil
	}
	return types.Ticker{Last: decimal.RequireFromString("0.00001"), Change24: decimal.RequireFromString("-0.5")}, nil
}

func newTestBot(f price.Fetcher, sender *fakeSender) *Bot {
	return newTestBotWithHistory(f, sender, price.NewHistory(15))
}

func newTestBotWithHistory(f price.Fetcher, sender *fakeSender, h *price.History) *Bot {
	svc := price.NewService(f, h, price.Books{Token: "shib_usd", FX: "usd_mxn"})
	cmds := commands.New(commands.Config{
		Quotes:     svc,
		Thresholds: strategy.DefaultThresholds(),
		Symbols:    commands.Symbols{Token: "SHIB", Fiat: "MXN"},
	})
	return &Bot{Commands: cmds, sender: sender}
}

func commandUpdate(text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func TestHandleUpdateCommands(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"/start", "activado"},
		{"/precio", "588,235 SHIB"},
		{"/estrategia", "Recopilando datos"},
		{"/ayuda", "/referencia"},
		{"/referencia", "no disponible"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			b := newTestBot(fakeFetcher{}, &fakeSender{})
			if got := b.HandleUpdate(context.Background(), commandUpdate(tt.text)); !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in reply %q", tt.want, got)
			}
		})
	}
}

func TestHandleUpdateUpstreamFailure(t *testing.T) {
	b := newTestBot(fakeFetcher{err: errors.Wrap(types.ErrUpstream, "success=false")}, &fakeSender{})

	for _, cmd := range []string{"/precio", "/estrategia"} {
		got := b.HandleUpdate(context.Background(), commandUpdate(cmd))
		if !strings.Contains(got, "Datos no disponibles") {
			t.Errorf("%s: expected a retry-later reply, got %q", cmd, got)
		}
	}
}

func TestHandleUpdateChartSendsPhoto(t *testing.T) {
	if got := newTestBot(fakeFetcher{}, &fakeSender{}).HandleUpdate(context.Background(), commandUpdate("/grafica")); !strings.Contains(got, "1/2") {
		t.Fatalf("expected a collecting reply, got %q", got)
	}

	h := price.NewHistory(15)
	h.Push(price.Sample{Price: 0.000168, At: time.Now().Add(-time.Hour)})
	sender := &fakeSender{}
	b := newTestBotWithHistory(fakeFetcher{}, sender, h)

	if got := b.HandleUpdate(context.Background(), commandUpdate("/grafica")); got != "" {
		t.Fatalf("expected the chart to be sent as a photo, got %q", got)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one photo, got %d messages", len(sender.sent))
	}
	photo, ok := sender.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected a photo, got %T", sender.sent[0])
	}
	if photo.ReplyToMessageID != 7 || photo.ChatID != 42 {
		t.Errorf("photo sent to the wrong message: %+v", photo.BaseChat)
	}
}

func TestSendMessageFallsBackToPlainText(t *testing.T) {
	sender := &fakeSender{errs: []error{
		&tgbotapi.Error{Code: 400, Message: "Bad Request: can't parse entities: character '.' is reserved"},
	}}
	b := newTestBot(fakeFetcher{}, sender)

	if err := b.SendMessage(Message{ChatID: 42, MessageID: 7, Text: "*SHIB*: $0\\.00017"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected a retry, got %d sends", len(sender.sent))
	}

	first := sender.sent[0].(tgbotapi.MessageConfig)
	if first.ParseMode != tgbotapi.ModeMarkdownV2 {
		t.Errorf("expected the first send to use MarkdownV2, got %q", first.ParseMode)
	}
	plain := sender.sent[1].(tgbotapi.MessageConfig)
	if plain.ParseMode != "" || plain.Text != "SHIB: $0.00017" {
		t.Errorf("unexpected fallback message: mode %q text %q", plain.ParseMode, plain.Text)
	}
}

func TestSendMessageOtherErrorsAreReturned(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("network down")}}
	b := newTestBot(fakeFetcher{}, sender)

	if err := b.SendMessage(Message{ChatID: 42, Text: "hola"}); err == nil {
		t.Fatal("expected an error")
	}
	if len(sender.sent) != 1 {
		t.Errorf("expected no retry for non-markup errors, got %d sends", len(sender.sent))
	}
}
