package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-remind/internal/codec"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/service"
	"github.com/phrazzld/scry-remind/internal/store"
)

// Button labels.
const (
	LabelYes    = "Yes"
	LabelNo     = "No"
	LabelRemove = "Remove"
)

// ErrNilTaskService is returned by NewController without a task service.
var ErrNilTaskService = errors.New("task service cannot be nil")

// Button is an inline button whose Data is a codec token.
type Button struct {
	Label string
	Data  string
}

// Reply is a message for the transport to deliver, as a new message or as an
// edit of the message whose button was pressed.
type Reply struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
	Outcome Outcome
}

// TaskService is the subset of task operations the dialog drives.
type TaskService interface {
	CreateTask(ctx context.Context, chatID int64, content string) (*domain.Task, error)
	FindTask(ctx context.Context, chatID int64, content string) (*domain.Task, error)
	RecordAnswer(ctx context.Context, task *domain.Task, remembered bool) (*service.AnswerResult, error)
	SetDone(ctx context.Context, task *domain.Task) error
}

// Controller handles user input for every chat.
type Controller struct {
	tasks  TaskService
	logger *slog.Logger
}

// NewController creates a Controller.
func NewController(tasks TaskService, logger *slog.Logger) (*Controller, error) {
	if tasks == nil {
		return nil, ErrNilTaskService
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "dialog")),
	}, nil
}

// HandleText answers a plain message with a confirmation question carrying
// the term in its Yes button. Nothing is stored until the user confirms.
func (c *Controller) HandleText(ctx context.Context, chatID int64, text string) Reply {
	content := domain.NormalizeContent(text)
	if content == "" {
		return c.Help(chatID)
	}

	yes, err := codec.Encode(codec.AddTask, content)
	if err != nil {
		log := logger.FromContextOrDefault(ctx, c.logger)
		if errors.Is(err, codec.ErrPayloadTooLong) {
			log.Debug("term too long",
				slog.Int64("chat_id", chatID),
				slog.Int("bytes", len(content)))
			return c.reply(chatID, OutcomeTooLong, "", 0)
		}
		log.Warn("cannot encode term",
			slog.String("error", err.Error()),
			slog.Int64("chat_id", chatID))
		return c.reply(chatID, OutcomeHelp, "", 0)
	}

	no, err := codec.Encode(codec.Cancel, "")
	if err != nil {
		return c.reply(chatID, OutcomeError, "", 0)
	}

	r := c.reply(chatID, OutcomeConfirmAdd, content, 0)
	r.Buttons = [][]Button{{
		{Label: LabelYes, Data: yes},
		{Label: LabelNo, Data: no},
	}}
	return r
}

// HandleAnswer applies a pressed button's token and returns the text that
// replaces the message the button belonged to. Every input yields a reply.
func (c *Controller) HandleAnswer(ctx context.Context, chatID int64, token string) Reply {
	log := logger.FromContextOrDefault(ctx, c.logger).With(slog.Int64("chat_id", chatID))

	option, content, err := codec.Parse(token)
	if err != nil {
		log.Warn("undecodable answer token", slog.String("error", err.Error()))
		return c.reply(chatID, OutcomeError, "", 0)
	}

	var task *domain.Task
	if _, quiz := quizActions[option]; quiz {
		task, err = c.tasks.FindTask(ctx, chatID, content)
		if err != nil && !errors.Is(err, store.ErrTaskNotFound) {
			log.Error("failed to look up task", slog.String("error", err.Error()))
			return c.reply(chatID, OutcomeError, "", 0)
		}
	}

	action, err := Decide(task, option)
	if err != nil {
		log.Debug("answer rejected",
			slog.String("option", option.String()),
			slog.String("error", err.Error()))
		if errors.Is(err, store.ErrInvalidTransition) {
			return c.reply(chatID, OutcomeAlreadyAnswered, content, 0)
		}
		return c.reply(chatID, OutcomeError, "", 0)
	}

	log.Debug("applying answer", slog.String("action", action.String()))

	switch action {
	case ActionCreate:
		return c.create(ctx, log, chatID, content)
	case ActionDiscard:
		return c.reply(chatID, OutcomeDiscarded, "", 0)
	case ActionRemember, ActionForget:
		return c.recordAnswer(ctx, log, chatID, task, action == ActionRemember)
	case ActionRemove:
		if err := c.tasks.SetDone(ctx, task); err != nil {
			return c.failure(log, chatID, content, err)
		}
		return c.reply(chatID, OutcomeRemoved, content, 0)
	default:
		return c.reply(chatID, OutcomeError, "", 0)
	}
}

func (c *Controller) create(ctx context.Context, log *slog.Logger, chatID int64, content string) Reply {
	task, err := c.tasks.CreateTask(ctx, chatID, content)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateActiveTask):
			return c.reply(chatID, OutcomeDuplicate, content, 0)
		case errors.Is(err, domain.ErrValidation):
			return c.reply(chatID, OutcomeHelp, "", 0)
		default:
			log.Error("failed to create task", slog.String("error", err.Error()))
			return c.reply(chatID, OutcomeError, "", 0)
		}
	}
	return c.reply(chatID, OutcomeAdded, task.Content, 0)
}

func (c *Controller) recordAnswer(
	ctx context.Context,
	log *slog.Logger,
	chatID int64,
	task *domain.Task,
	remembered bool,
) Reply {
	result, err := c.tasks.RecordAnswer(ctx, task, remembered)
	if err != nil {
		return c.failure(log, chatID, task.Content, err)
	}

	switch {
	case result.Learned:
		return c.reply(chatID, OutcomeLearned, task.Content, 0)
	case remembered:
		return c.reply(chatID, OutcomeRemembered, task.Content, result.Interval)
	default:
		return c.reply(chatID, OutcomeForgot, task.Content, result.Interval)
	}
}

// failure maps a task change error to a reply. A lost race with another
// answer is not an error from the user's point of view.
func (c *Controller) failure(log *slog.Logger, chatID int64, content string, err error) Reply {
	if errors.Is(err, store.ErrInvalidTransition) {
		return c.reply(chatID, OutcomeAlreadyAnswered, content, 0)
	}
	log.Error("failed to apply answer", slog.String("error", err.Error()))
	return c.reply(chatID, OutcomeError, "", 0)
}

// Help returns the usage hint.
func (c *Controller) Help(chatID int64) Reply {
	return c.reply(chatID, OutcomeHelp, "", 0)
}

// Notification returns the reminder question for task with Yes, No and
// Remove buttons.
func (c *Controller) Notification(task *domain.Task) (Reply, error) {
	if task == nil {
		return Reply{}, store.ErrTaskNotFound
	}

	tokens := make(map[codec.AnswerOption]string, len(quizActions))
	for option := range quizActions {
		token, err := codec.Encode(option, task.Content)
		if err != nil {
			return Reply{}, fmt.Errorf("encode %s button for task %s: %w", option, task.ID, err)
		}
		tokens[option] = token
	}

	r := c.reply(task.ChatID, OutcomeQuestion, task.Content, 0)
	r.Buttons = [][]Button{
		{
			{Label: LabelYes, Data: tokens[codec.Remember]},
			{Label: LabelNo, Data: tokens[codec.Forgot]},
		},
		{
			{Label: LabelRemove, Data: tokens[codec.Remove]},
		},
	}
	return r, nil
}

func (c *Controller) reply(chatID int64, outcome Outcome, content string, interval time.Duration) Reply {
	return Reply{
		ChatID:  chatID,
		Text:    Render(outcome, content, interval),
		Outcome: outcome,
	}
}
