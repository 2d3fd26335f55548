package relay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fpt/klein-relay/pkg/domain"
	pkgLogger "github.com/fpt/klein-relay/pkg/logger"
	"github.com/fpt/klein-relay/pkg/message"
)

// ConversationStore is the subset of conversation.Store the dispatcher uses
type ConversationStore interface {
	Get(userID int64) []message.Turn
	AppendAndTruncate(userID int64, turns ...message.Turn) []message.Turn
	Reset(userID int64)
}

// Config wires a Dispatcher
type Config struct {
	Store    ConversationStore
	LLM      domain.LLM
	Images   domain.ImageGenerator // nil disables /image
	Notifier Notifier
	Branding Branding
	// ExposeErrors sends provider error details to the chat; otherwise a generic apology is sent
	ExposeErrors bool
	Logger       *pkgLogger.Logger
}

// Dispatcher routes inbound events to fixed responses or the AI client.
// It keeps no state of its own besides per-user exchange locks.
type Dispatcher struct {
	store        ConversationStore
	llm          domain.LLM
	images       domain.ImageGenerator
	notifier     Notifier
	templates    *Templates
	exposeErrors bool
	locks        *userLocks
	logger       *pkgLogger.Logger
}

// NewDispatcher creates a dispatcher. Store, LLM and Notifier are required.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	if cfg.Store == nil || cfg.LLM == nil || cfg.Notifier == nil {
		return nil, errors.New("dispatcher requires a store, an LLM and a notifier")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pkgLogger.NewComponentLogger("dispatcher")
	} else {
		logger = logger.WithComponent("dispatcher")
	}
	return &Dispatcher{
		store:        cfg.Store,
		llm:          cfg.LLM,
		images:       cfg.Images,
		notifier:     cfg.Notifier,
		templates:    NewTemplates(cfg.Branding, cfg.LLM.ModelID(), cfg.Images != nil),
		exposeErrors: cfg.ExposeErrors,
		locks:        newUserLocks(),
		logger:       logger,
	}, nil
}

// Dispatch handles one event to completion. It never fails: AI errors become
// chat replies and delivery errors are logged by the notifier.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	log := d.logger.WithEvent(uuid.NewString())

	switch e := ev.(type) {
	case Message:
		d.handleMessage(ctx, log, e)
	case *Message:
		d.handleMessage(ctx, log, *e)
	case CallbackQuery:
		d.handleCallback(ctx, log, e)
	case *CallbackQuery:
		d.handleCallback(ctx, log, *e)
	default:
		log.Debug("Ignoring unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, log *pkgLogger.Logger, msg Message) {
	if strings.TrimSpace(msg.Text) == "" {
		log.DebugWithIntention(pkgLogger.IntentionInbound, "Ignoring message without text", "chat_id", msg.ChatID)
		return
	}

	if !strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		log.InfoWithIntention(pkgLogger.IntentionInbound, "Message received", "chat_id", msg.ChatID, "user_id", msg.UserID, "length", len(msg.Text))
		d.handleChat(ctx, log, msg)
		return
	}
	name, arg, ok := parseCommand(msg.Text)
	if !ok {
		log.Debug("Ignoring malformed command", "text", msg.Text)
		return
	}

	log.InfoWithIntention(pkgLogger.IntentionCommand, "Command received", "command", name, "chat_id", msg.ChatID, "user_id", msg.UserID)
	switch name {
	case CommandStart:
		d.notifier.SendText(ctx, msg.ChatID, d.templates.Welcome(), d.templates.MainMenu())
	case CommandHelp:
		d.notifier.SendText(ctx, msg.ChatID, d.templates.Help(), d.templates.MainMenu())
	case CommandAbout:
		d.notifier.SendText(ctx, msg.ChatID, d.templates.About(), d.templates.MainMenu())
	case CommandReset:
		d.reset(ctx, log, msg.ChatID, msg.UserID)
	case CommandImage:
		d.handleImage(ctx, log, msg.ChatID, arg)
	default:
		log.Debug("Ignoring unknown command", "command", name)
	}
}

func (d *Dispatcher) handleCallback(ctx context.Context, log *pkgLogger.Logger, cb CallbackQuery) {
	log.InfoWithIntention(pkgLogger.IntentionInbound, "Callback received", "data", cb.Data, "chat_id", cb.ChatID, "user_id", cb.UserID)

	if ack, ok := d.notifier.(CallbackAcknowledger); ok && cb.ID != "" {
		ack.AnswerCallback(ctx, cb.ID)
	}

	switch cb.Data {
	case CallbackAbout:
		d.notifier.SendText(ctx, cb.ChatID, d.templates.About(), d.templates.MainMenu())
	case CallbackCredits:
		d.notifier.SendText(ctx, cb.ChatID, d.templates.Credits(), d.templates.MainMenu())
	case CallbackHelp:
		d.notifier.SendText(ctx, cb.ChatID, d.templates.Help(), d.templates.MainMenu())
	case CallbackReset:
		d.reset(ctx, log, cb.ChatID, cb.UserID)
	case CallbackImageHelp:
		d.notifier.SendText(ctx, cb.ChatID, d.templates.ImageHelp(), d.templates.MainMenu())
	default:
		log.Debug("Ignoring unknown callback", "data", cb.Data)
	}
}

// handleChat runs one exchange. The user's lock is held from reading the
// history until the answer is committed, so concurrent messages from the same
// user see each other's turns.
func (d *Dispatcher) handleChat(ctx context.Context, log *pkgLogger.Logger, msg Message) {
	unlock := d.locks.Lock(msg.UserID)
	defer unlock()

	if typing, ok := d.notifier.(TypingIndicator); ok {
		typing.SendTyping(ctx, msg.ChatID)
	}

	history := d.store.Get(msg.UserID)
	start := time.Now()
	answer, err := d.llm.Complete(ctx, history, msg.Text)
	if err != nil {
		log.WarnWithIntention(pkgLogger.IntentionWarning, "Completion failed", "user_id", msg.UserID, "model", d.llm.ModelID(), "error", err)
		d.notifier.SendText(ctx, msg.ChatID, d.templates.AIError(d.describe(err)), d.templates.MainMenu())
		return
	}
	log.InfoWithIntention(pkgLogger.IntentionAI, "Completion received",
		"user_id", msg.UserID, "history", len(history), "elapsed", time.Since(start).Round(time.Millisecond))

	d.store.AppendAndTruncate(msg.UserID, message.NewUserTurn(msg.Text), message.NewAssistantTurn(answer))
	d.notifier.SendText(ctx, msg.ChatID, answer, d.templates.MainMenu())
}

func (d *Dispatcher) handleImage(ctx context.Context, log *pkgLogger.Logger, chatID int64, prompt string) {
	if d.images == nil {
		d.notifier.SendText(ctx, chatID, d.templates.ImageUnavailable(), d.templates.MainMenu())
		return
	}
	if prompt == "" {
		d.notifier.SendText(ctx, chatID, d.templates.ImageUsage(), nil)
		return
	}

	d.notifier.SendText(ctx, chatID, d.templates.ImageWorking(), nil)
	start := time.Now()
	img, err := d.images.GenerateImage(ctx, prompt)
	if err != nil {
		log.WarnWithIntention(pkgLogger.IntentionWarning, "Image generation failed", "chat_id", chatID, "error", err)
		d.notifier.SendText(ctx, chatID, d.templates.ImageFailed(d.describe(err)), d.templates.MainMenu())
		return
	}
	log.InfoWithIntention(pkgLogger.IntentionAI, "Image generated", "chat_id", chatID, "bytes", len(img), "elapsed", time.Since(start).Round(time.Millisecond))
	d.notifier.SendPhoto(ctx, chatID, img, d.templates.ImageCaption(prompt))
}

// reset waits for any in-flight exchange of the user so it cannot commit afterwards
func (d *Dispatcher) reset(ctx context.Context, log *pkgLogger.Logger, chatID, userID int64) {
	unlock := d.locks.Lock(userID)
	d.store.Reset(userID)
	unlock()

	log.InfoWithIntention(pkgLogger.IntentionSuccess, "Conversation reset", "user_id", userID)
	d.notifier.SendText(ctx, chatID, d.templates.ResetDone(), d.templates.MainMenu())
}

// describe returns the user-facing error detail, or "" when details are hidden
func (d *Dispatcher) describe(err error) string {
	if !d.exposeErrors {
		return ""
	}
	return err.Error()
}
