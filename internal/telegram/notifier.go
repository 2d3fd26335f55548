package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fpt/klein-relay/internal/relay"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
)

const (
	DefaultTextTimeout  = 10 * time.Second
	DefaultPhotoTimeout = 30 * time.Second

	photoFileName = "image.png"
)

// Config configures a Notifier.
type Config struct {
	Token string
	// APIEndpoint is a format string taking the token and the method name.
	// Empty means tgbotapi.APIEndpoint.
	APIEndpoint  string
	TextTimeout  time.Duration
	PhotoTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *pkgLogger.Logger
}

// Notifier delivers relay replies through the Telegram Bot API.
// It implements relay.Notifier, relay.CallbackAcknowledger and relay.TypingIndicator.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	logger *pkgLogger.Logger
}

var (
	_ relay.Notifier             = (*Notifier)(nil)
	_ relay.CallbackAcknowledger = (*Notifier)(nil)
	_ relay.TypingIndicator      = (*Notifier)(nil)
)

// NewNotifier creates a notifier. It calls getMe once to verify the token.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = DefaultTextTimeout
	}
	if cfg.PhotoTimeout <= 0 {
		cfg.PhotoTimeout = DefaultPhotoTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("telegram")
	} else {
		logger = logger.WithComponent("telegram")
	}

	client := &timeoutClient{inner: httpClient, text: cfg.TextTimeout, photo: cfg.PhotoTimeout}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %s", redactToken(err.Error(), cfg.Token))
	}
	logger.InfoWithIntention(pkgLogger.IntentionStatus, "Telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{bot: bot, logger: logger}, nil
}

// Username returns the bot's Telegram username
func (n *Notifier) Username() string {
	return n.bot.Self.UserName
}

// SendText sends text as Markdown, split to fit Telegram's message limit.
// The keyboard is attached to the last chunk only. A chunk Telegram cannot
// parse as Markdown is resent as plain text.
func (n *Notifier) SendText(ctx context.Context, chatID int64, text string, keyboard relay.Keyboard) {
	if text == "" {
		n.logger.Warn("Refusing to send empty message", "chat_id", chatID)
		return
	}

	chunks := splitMessage(text, maxMessageLength)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			n.logger.Warn("Send abandoned", "chat_id", chatID, "error", n.redact(err))
			return
		}

		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if i == len(chunks)-1 && len(keyboard) > 0 {
			msg.ReplyMarkup = toInlineKeyboard(keyboard)
		}

		_, err := n.bot.Send(msg)
		if err != nil && isParseError(err) {
			n.logger.Debug("Markdown rejected, resending as plain text", "chat_id", chatID)
			msg.ParseMode = ""
			_, err = n.bot.Send(msg)
		}
		if err != nil {
			n.logger.Error("Failed to send message", "chat_id", chatID, "chunk", i+1, "chunks", len(chunks), "error", n.redact(err))
			return
		}
	}
	n.logger.DebugWithIntention(pkgLogger.IntentionOutbound, "Message sent", "chat_id", chatID, "chunks", len(chunks))
}

// SendPhoto uploads image bytes with a plain-text caption
func (n *Notifier) SendPhoto(ctx context.Context, chatID int64, image []byte, caption string) {
	if err := ctx.Err(); err != nil {
		n.logger.Warn("Send abandoned", "chat_id", chatID, "error", n.redact(err))
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: photoFileName, Bytes: image})
	photo.Caption = truncate(caption, maxCaptionLength)

	if _, err := n.bot.Send(photo); err != nil {
		n.logger.Error("Failed to send photo", "chat_id", chatID, "bytes", len(image), "error", n.redact(err))
		return
	}
	n.logger.DebugWithIntention(pkgLogger.IntentionOutbound, "Photo sent", "chat_id", chatID, "bytes", len(image))
}

// AnswerCallback stops the client-side spinner of a pressed button
func (n *Notifier) AnswerCallback(ctx context.Context, callbackID string) {
	if _, err := n.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		n.logger.Warn("Failed to answer callback", "callback_id", callbackID, "error", n.redact(err))
	}
}

// SendTyping shows the typing status in the chat
func (n *Notifier) SendTyping(ctx context.Context, chatID int64) {
	if _, err := n.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		n.logger.Debug("Failed to send typing action", "chat_id", chatID, "error", n.redact(err))
	}
}

// RegisterWebhook points Telegram at the relay's webhook URL
func (n *Notifier) RegisterWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %s", n.redact(err))
	}
	if _, err := n.bot.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %s", n.redact(err))
	}
	n.logger.InfoWithIntention(pkgLogger.IntentionConfig, "Webhook registered", "url", redactToken(webhookURL, n.bot.Token))
	return nil
}

func toInlineKeyboard(keyboard relay.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			switch b.Kind {
			case relay.ButtonPrefill:
				query := b.Data
				buttons = append(buttons, tgbotapi.InlineKeyboardButton{
					Text:                         b.Text,
					SwitchInlineQueryCurrentChat: &query,
				})
			default:
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func isParseError(err error) bool {
	var tgErr *tgbotapi.Error
	if !errors.As(err, &tgErr) {
		return false
	}
	return tgErr.Code == http.StatusBadRequest && strings.Contains(tgErr.Message, "can't parse entities")
}

// redact renders err with the bot token removed; transport errors embed the request URL.
func (n *Notifier) redact(err error) string {
	return redactToken(err.Error(), n.bot.Token)
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}

// timeoutClient bounds each Bot API call, which the library issues without a
// context. Uploads get the longer photo timeout.
type timeoutClient struct {
	inner *http.Client
	text  time.Duration
	photo time.Duration
}

func (c *timeoutClient) Do(req *http.Request) (*http.Response, error) {
	timeout := c.text
	if strings.HasSuffix(req.URL.Path, "/sendPhoto") {
		timeout = c.photo
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := c.inner.Do(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
