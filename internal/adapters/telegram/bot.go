package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/fxdesk/cnyfix/internal/adapters/config"
	"github.com/fxdesk/cnyfix/pkg/logger"
)

// Bot is the single-user Telegram surface of the fixing predictor.
// Only messages from the configured chat are processed.
type Bot struct {
	api            *tgbotapi.BotAPI
	chatID         int64
	commandHandler CommandHandler
}

// CommandHandler handles bot commands
type CommandHandler interface {
	HandleFix(ctx context.Context, args string) (string, error)
	HandleMarket(ctx context.Context) (string, error)
	HandleTrend(ctx context.Context, args string) (string, error)
	HandleRefresh(ctx context.Context) (string, error)
	HandleStatus(ctx context.Context) (string, error)
}

// NewBot creates new Telegram bot
func NewBot(cfg *config.TelegramConfig, handler CommandHandler) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat_id is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("telegram bot initialized",
		zap.String("username", api.Self.UserName),
	)

	return &Bot{
		api:            api,
		chatID:         cfg.ChatID,
		commandHandler: handler,
	}, nil
}

// Start starts listening for commands
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	logger.Info("telegram bot started, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			// Only process messages from configured chat
			if update.Message.Chat.ID != b.chatID {
				continue
			}

			go b.handleCommand(ctx, update.Message)
		}
	}
}

// handleCommand processes incoming commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	command := message.Command()
	args := message.CommandArguments()

	logger.Info("received telegram command",
		zap.String("command", command),
		zap.Int64("from_chat", message.Chat.ID),
	)

	var response string
	var err error

	switch command {
	case "start", "help":
		response = helpMessage()
	case "fix":
		response, err = b.commandHandler.HandleFix(ctx, args)
	case "market":
		response, err = b.commandHandler.HandleMarket(ctx)
	case "trend":
		response, err = b.commandHandler.HandleTrend(ctx, args)
	case "refresh":
		response, err = b.commandHandler.HandleRefresh(ctx)
	case "status":
		response, err = b.commandHandler.HandleStatus(ctx)
	default:
		response = fmt.Sprintf("❓ Unknown command: /%s\nUse /help to see available commands", command)
	}

	if err != nil {
		response = fmt.Sprintf("❌ %v", err)
		logger.Error("command handler error", zap.Error(err), zap.String("command", command))
	}

	if err := b.SendMessage(response); err != nil {
		logger.Error("failed to send telegram response", zap.Error(err))
	}
}

// SendMessage sends text message to the configured chat
func (b *Bot) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "Markdown"

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func helpMessage() string {
	return "🇨🇳 *USD/CNY Fixing Predictor*\n\n" +
		"Estimates the daily central parity rate from the prior close,\n" +
		"the prior fixing, overnight basket moves and a manual CCF.\n\n" +
		"*Commands*\n" +
		"/fix `<prev_close> <prev_fix> <ccf_pips>` — predict today's fixing\n" +
		"/market — overnight basket moves\n" +
		"/trend `<pair>` — stored-close trend (default USDCNY)\n" +
		"/refresh — invalidate the snapshot cache\n" +
		"/status — collaborator health\n\n" +
		"Example: `/fix 6.9850 6.9820 -10`\n" +
		"Positive CCF smooths depreciation (lifts the fix), negative\n" +
		"smooths appreciation."
}
