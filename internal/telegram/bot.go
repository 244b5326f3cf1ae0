package telegram

import (
	"context"
	"shib-price-bot/internal/commands"
	"shib-price-bot/lib/helpers"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, cmds *commands.Commands) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		Commands: cmds,
		sender:   bot,
	}, nil
}

// GetUpdatesChannel registers the webhook or starts long polling, depending
// on the configured mode.
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	if b.Config.Mode == ModeWebhook {
		wh, err := tgbotapi.NewWebhook(strings.TrimRight(b.Config.WebhookURL, "/") + b.Config.WebhookPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid webhook url")
		}
		if _, err := b.Bot.Request(wh); err != nil {
			return nil, errors.Wrap(err, "could not register webhook")
		}
		log.Infof("webhook registered, listening on %s", b.Config.WebhookPath)
		return b.Bot.ListenForWebhook(b.Config.WebhookPath), nil
	}

	if _, err := b.Bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, errors.Wrap(err, "could not delete webhook")
	}

	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a MarkdownV2 message. If Telegram rejects the markup the
// message is sent again as plain text.
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	_, err := b.sender.Send(msg)
	if err != nil && isMarkupError(err) {
		log.Warnf("markup rejected, sending plain text: %v", err)
		msg.Text = helpers.StripMarkdownV2(m.Text)
		msg.ParseMode = ""
		_, err = b.sender.Send(msg)
	}
	return errors.Wrapf(err, "could not send message: %v", m)
}

// SendPhoto sends a PNG with a MarkdownV2 caption, falling back to a plain
// caption like SendMessage.
func (b *Bot) SendPhoto(chatID int64, replyTo int, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: png,
	})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2
	photo.ReplyToMessageID = replyTo

	_, err := b.sender.Send(photo)
	if err != nil && isMarkupError(err) {
		photo.Caption = helpers.StripMarkdownV2(caption)
		photo.ParseMode = ""
		_, err = b.sender.Send(photo)
	}
	return errors.Wrap(err, "could not send chart")
}

func isMarkupError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, "can't parse entities")
	}
	return strings.Contains(err.Error(), "can't parse entities")
}

// HandleUpdate runs the command carried by the update and returns the reply
// text. Commands that reply with a photo send it themselves and return "".
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	log.Debugf("received command: %s", u.Message.Command())

	var (
		text string
		err  error
	)

	switch u.Message.Command() {
	case "start":
		text = b.Commands.CommandStart()
	case "precio":
		text, err = b.Commands.CommandPrice(ctx)
	case "estrategia":
		text, err = b.Commands.CommandStrategy(ctx)
	case "referencia":
		text, err = b.Commands.CommandReference(ctx)
	case "grafica":
		var chartData []byte
		chartData, text, err = b.Commands.CommandChart(ctx)
		if err == nil && chartData != nil {
			if err := b.SendPhoto(u.Message.Chat.ID, u.Message.MessageID, chartData, text); err != nil {
				log.Error("error sending chart: ", err)
				return commands.ErrorReply(err)
			}
			return ""
		}
	default:
		text = b.Commands.CommandHelp()
	}

	if err != nil {
		log.WithField("command", u.Message.Command()).Error(err)
		return commands.ErrorReply(err)
	}
	return text
}
