// Package telegram bridges the assistant to Telegram chats via long polling.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/deskd-io/deskd/internal/connector"
)

// Config holds Telegram connector configuration.
type Config struct {
	Token     string  // Bot token from @BotFather
	AllowFrom []int64 // Allowed Telegram user IDs (empty = allow all)
}

// Connector implements the connector.Connector interface for Telegram.
type Connector struct {
	bot     *tgbotapi.BotAPI
	config  Config
	handler connector.Handler
	logger  *slog.Logger
	cancel  context.CancelFunc

	mu          sync.Mutex
	generations map[int64]int // /new bumps a chat's generation to reset its session
}

// New creates a new Telegram connector.
func New(cfg Config, handler connector.Handler, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:         bot,
		config:      cfg,
		handler:     handler,
		logger:      logger,
		generations: make(map[int64]int),
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// Start begins long-polling for updates. Blocks until context is cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started", "bot", c.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			c.handleUpdate(ctx, update)

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Connector) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	userID := msg.From.ID

	// Access control
	if len(c.config.AllowFrom) > 0 && !contains(c.config.AllowFrom, userID) {
		c.logger.Warn("unauthorized user", "user_id", userID, "username", msg.From.UserName)
		return
	}

	if msg.IsCommand() {
		c.handleCommand(ctx, msg)
		return
	}

	text := msg.Text
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}

	c.dispatch(ctx, msg, text)
}

func (c *Connector) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		help := strings.Join([]string{
			"I'm your IT support assistant. Describe a problem and I'll help.",
			"",
			"/new — Start a fresh conversation",
			"/ticket <id> — Check a ticket's status",
			"/stats — Show helpdesk statistics",
			"/help — Show this help message",
		}, "\n")
		c.reply(chatID, help)

	case "new":
		c.mu.Lock()
		c.generations[chatID]++
		c.mu.Unlock()
		c.reply(chatID, "Starting a fresh conversation. What can I help you with?")

	case "ticket":
		id := strings.TrimSpace(msg.CommandArguments())
		if id == "" {
			c.reply(chatID, "Usage: /ticket <ticket id>")
			return
		}
		c.dispatch(ctx, msg, "What is the status of ticket "+id+"?")

	case "stats":
		c.dispatch(ctx, msg, "Show me the helpdesk statistics")

	default:
		c.reply(chatID, "Unknown command. Try /help.")
	}
}

func (c *Connector) dispatch(ctx context.Context, msg *tgbotapi.Message, text string) {
	chatID := msg.Chat.ID

	// Typing indicator while the reply is prepared
	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	c.bot.Send(typing)

	inbound := connector.Inbound{
		Channel:  "telegram",
		SenderID: strconv.FormatInt(msg.From.ID, 10),
		ChatID:   c.sessionKey(chatID),
		Content:  text,
	}

	reply, err := c.handler(ctx, inbound)
	if err != nil {
		c.logger.Error("inbound handler error", "chat_id", chatID, "error", err)
		c.reply(chatID, "Sorry, something went wrong handling that. Please try again.")
		return
	}
	if strings.TrimSpace(reply) == "" {
		return
	}
	c.sendFormatted(chatID, reply)
}

// sessionKey derives a stable session identifier for a chat; /new bumps the
// generation so the chat gets a clean session.
func (c *Connector) sessionKey(chatID int64) string {
	c.mu.Lock()
	gen := c.generations[chatID]
	c.mu.Unlock()
	if gen == 0 {
		return strconv.FormatInt(chatID, 10)
	}
	return fmt.Sprintf("%d.%d", chatID, gen)
}

func (c *Connector) sendFormatted(chatID int64, text string) {
	tgMsg := tgbotapi.NewMessage(chatID, ToHTML(text))
	tgMsg.ParseMode = "HTML"
	tgMsg.DisableWebPagePreview = true

	if _, err := c.bot.Send(tgMsg); err != nil {
		// Fallback to plain text if HTML fails
		c.logger.Warn("HTML send failed, falling back to plain text",
			"chat_id", chatID,
			"error", err,
		)
		tgMsg.Text = StripMarkdown(text)
		tgMsg.ParseMode = ""
		c.bot.Send(tgMsg)
	}
}

func (c *Connector) reply(chatID int64, text string) {
	c.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
