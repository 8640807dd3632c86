package notification

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

// TelegramConfig holds Telegram bot credentials.
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatID   string
}

// TelegramNotifier sends signal messages to a Telegram chat with an inline
// button that links straight to the execution webhook.
type TelegramNotifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
}

// NewTelegramNotifier creates a Telegram notifier. A missing token or chat
// id disables the notifier instead of failing startup.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	if !cfg.Enabled || cfg.BotToken == "" || cfg.ChatID == "" {
		return &TelegramNotifier{}, nil
	}

	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, chatID: chatID, enabled: true}, nil
}

func (t *TelegramNotifier) Name() string {
	return "telegram"
}

func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

func (t *TelegramNotifier) Send(signal *Signal) error {
	msg := tgbotapi.NewMessage(t.chatID, formatSignalMessage(signal))
	msg.ParseMode = "Markdown"

	if signal.ActionURL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Buy", signal.ActionURL),
			),
		)
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// formatSignalMessage renders the operator-facing text for a signal.
func formatSignalMessage(signal *Signal) string {
	var b strings.Builder
	b.WriteString("🚨 *BUY SIGNAL DETECTED* 🚨\n\n")
	fmt.Fprintf(&b, "*Market:* %s\n", signal.Symbol)
	fmt.Fprintf(&b, "*Detector:* %s\n", signal.Detector)
	if signal.Reason != "" {
		fmt.Fprintf(&b, "*Reason:* %s\n", signal.Reason)
	}
	if link := binanceTradeLink(signal.Symbol); link != "" {
		fmt.Fprintf(&b, "\n[View on Binance](%s)", link)
	}
	return b.String()
}

// binanceTradeLink builds the public trade page URL for a "BASE/QUOTE" pair.
func binanceTradeLink(symbol string) string {
	parts := strings.SplitN(symbol, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return fmt.Sprintf("https://www.binance.com/en/trade/%s_%s", parts[0], parts[1])
}
