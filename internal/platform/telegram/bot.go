package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phrazzld/scry-remind/internal/dialog"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/redact"
)

// Commands answered with the usage hint.
const (
	CommandStart = "start"
	CommandHelp  = "help"
)

// DefaultPollTimeout is the long polling timeout in seconds.
const DefaultPollTimeout = 60

var (
	// ErrNilDependency is returned by New when a collaborator is missing.
	ErrNilDependency = errors.New("telegram: required dependency is nil")

	// ErrSendFailed is returned when the Bot API rejects or drops a message.
	// The wrapped text is redacted and never contains the bot token.
	ErrSendFailed = errors.New("telegram: send failed")
)

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

var _ API = (*tgbotapi.BotAPI)(nil)

// Dialog produces replies for user input.
type Dialog interface {
	HandleText(ctx context.Context, chatID int64, text string) dialog.Reply
	HandleAnswer(ctx context.Context, chatID int64, token string) dialog.Reply
	Help(chatID int64) dialog.Reply
	Notification(task *domain.Task) (dialog.Reply, error)
}

// Config holds transport settings.
type Config struct {
	// PollTimeout is the long polling timeout in seconds.
	PollTimeout int
}

// Bot serves one bot account.
type Bot struct {
	api    API
	dialog Dialog
	config Config
	logger *slog.Logger
}

// Connect authenticates against the Bot API with token.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %s", redact.Error(err))
	}
	api.Debug = debug
	return api, nil
}

// New creates a Bot.
func New(api API, d Dialog, config Config, logger *slog.Logger) (*Bot, error) {
	if api == nil || d == nil {
		return nil, ErrNilDependency
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:    api,
		dialog: d,
		config: config,
		logger: logger.With(slog.String("component", "telegram")),
	}, nil
}

// Run receives updates until ctx is cancelled or the update channel closes.
// Updates are handled one at a time in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("receiving updates", slog.Int("poll_timeout_seconds", u.Timeout))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("stopped receiving updates")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes a single update to the dialog and delivers its reply.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := b.logger.With(slog.Int("update_id", update.UpdateID))
	ctx = logger.WithLogger(ctx, log)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, log, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, log *slog.Logger, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	var reply dialog.Reply
	switch {
	case msg.IsCommand():
		log.Debug("command received",
			slog.Int64("chat_id", chatID),
			slog.String("command", msg.Command()))
		reply = b.dialog.Help(chatID)
	case msg.Text == "":
		reply = b.dialog.Help(chatID)
	default:
		reply = b.dialog.HandleText(ctx, chatID, msg.Text)
	}

	if _, err := b.api.Send(newMessage(reply)); err != nil {
		log.Error("failed to send reply",
			slog.String("error", redact.Error(err)),
			slog.Int64("chat_id", chatID))
	}
}

func (b *Bot) handleCallback(ctx context.Context, log *slog.Logger, query *tgbotapi.CallbackQuery) {
	// Stop the client's progress indicator whatever happens to the answer.
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			log.Warn("failed to acknowledge callback", slog.String("error", redact.Error(err)))
		}
	}()

	// Buttons on inline-mode messages have no message to edit.
	if query.Message == nil || query.Message.Chat == nil {
		log.Debug("callback without message", slog.String("callback_id", query.ID))
		return
	}

	chatID := query.Message.Chat.ID
	reply := b.dialog.HandleAnswer(ctx, chatID, query.Data)

	if _, err := b.api.Send(newEdit(query.Message.MessageID, reply)); err != nil {
		log.Error("failed to edit message",
			slog.String("error", redact.Error(err)),
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", query.Message.MessageID))
	}
}

// Notify sends the reminder question for task.
func (b *Bot) Notify(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	reply, err := b.dialog.Notification(task)
	if err != nil {
		return fmt.Errorf("build reminder: %w", err)
	}

	if _, err := b.api.Send(newMessage(reply)); err != nil {
		return fmt.Errorf("%w: %s", ErrSendFailed, redact.Error(err))
	}

	logger.FromContextOrDefault(ctx, b.logger).Debug("reminder sent",
		slog.String("task_id", task.ID.String()),
		slog.Int64("chat_id", task.ChatID))
	return nil
}
