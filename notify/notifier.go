// Package notify delivers seat alerts to Telegram and hands undeliverable
// ones to a fallback.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	ReasonMissingConfig = "missing_config"
	ReasonBotInitFailed = "bot_init_failed"
)

type Notifier interface {
	SendAlert(ctx context.Context, message, imagePath string) error
}

// FallbackHandler receives alerts that did not reach Telegram and why.
type FallbackHandler func(ctx context.Context, message, imagePath, reason string) error

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BotFactory func(token string) (Sender, error)

func NewBot(token string) (Sender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// LogFallback only logs the alert.
func LogFallback(logger *zap.Logger) FallbackHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, message, imagePath, reason string) error {
		logger.Warn("fallback alert",
			zap.String("reason", reason), zap.String("image", imagePath), zap.String("message", message))
		return nil
	}
}

type TelegramNotifier struct {
	token    string
	chatID   string
	factory  BotFactory
	fallback FallbackHandler
	logger   *zap.Logger

	mu  sync.Mutex
	bot Sender
}

type Option func(*TelegramNotifier)

func WithBotFactory(factory BotFactory) Option {
	return func(n *TelegramNotifier) { n.factory = factory }
}

func WithFallback(fallback FallbackHandler) Option {
	return func(n *TelegramNotifier) { n.fallback = fallback }
}

func NewTelegramNotifier(token, chatID string, logger *zap.Logger, opts ...Option) *TelegramNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		factory: NewBot,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.fallback == nil {
		n.fallback = LogFallback(logger)
	}
	return n
}

func (n *TelegramNotifier) IsConfigured() bool {
	return n.token != "" && n.chatID != ""
}

// SendAlert sends message and then the image at imagePath, if any. Anything
// that stops delivery goes to the fallback, whose error is returned.
func (n *TelegramNotifier) SendAlert(ctx context.Context, message, imagePath string) error {
	if !n.IsConfigured() {
		return n.fallback(ctx, message, imagePath, ReasonMissingConfig)
	}
	bot := n.getBot()
	if bot == nil {
		return n.fallback(ctx, message, imagePath, ReasonBotInitFailed)
	}
	if err := n.send(bot, message, imagePath); err != nil {
		n.logger.Error("failed to send telegram alert", zap.Error(err))
		return n.fallback(ctx, message, imagePath, err.Error())
	}
	return nil
}

func (n *TelegramNotifier) send(bot Sender, message, imagePath string) error {
	chatID, err := strconv.ParseInt(n.chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", n.chatID, err)
	}
	n.logger.Info("sending telegram alert")
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, message)); err != nil {
		return err
	}
	if imagePath != "" {
		if _, err := bot.Send(tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(imagePath))); err != nil {
			return err
		}
	}
	return nil
}

// getBot builds the bot on first use; a failed build is retried on the next alert.
func (n *TelegramNotifier) getBot() Sender {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.bot != nil {
		return n.bot
	}
	bot, err := n.factory(n.token)
	if err != nil {
		n.logger.Error("unable to initialise telegram bot", zap.Error(err))
		return nil
	}
	n.bot = bot
	return bot
}
