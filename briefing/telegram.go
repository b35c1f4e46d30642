package briefing

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alpine-pulse/dashboard"
)

// sender is the subset of the Telegram bot API the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers a compact briefing to a Telegram chat.
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

// NewTelegramNotifier connects to the Telegram bot API with the given token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// newTelegramNotifierWithSender is used by tests to inject a fake bot.
func newTelegramNotifierWithSender(bot sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

const maxTelegramThemes = 5

// Notify sends the summary message.
func (t *TelegramNotifier) Notify(o dashboard.Output) error {
	msg := tgbotapi.NewMessage(t.chatID, formatMessage(o))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send briefing: %w", err)
	}
	return nil
}

func formatMessage(o dashboard.Output) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⛰ <b>Alpine Pulse</b> — %s\n\n", o.Date)
	fmt.Fprintf(&b, "Mentions: <b>%d</b>\n", o.Summary.TotalMentions)
	fmt.Fprintf(&b, "Positive %d%% · Neutral %d%% · Negative %d%%\n",
		o.Summary.PositivePct, o.Summary.NeutralPct, o.Summary.NegativePct)

	if len(o.Themes) > 0 {
		b.WriteString("\n<b>Top themes</b>\n")
		for i, t := range o.Themes {
			if i >= maxTelegramThemes {
				break
			}
			fmt.Fprintf(&b, "• %s — %d (%s)\n", t.Name, t.Mentions, t.Sentiment)
		}
	}

	if n := len(o.Government); n > 0 {
		fmt.Fprintf(&b, "\n🏛 %d government/policy mention(s) flagged\n", n)
	}
	return b.String()
}
