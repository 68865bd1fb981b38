package telegram_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phrazzld/scry-remind/internal/dialog"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/domain/srs"
	"github.com/phrazzld/scry-remind/internal/mocks"
	"github.com/phrazzld/scry-remind/internal/platform/logger"
	"github.com/phrazzld/scry-remind/internal/platform/telegram"
	"github.com/phrazzld/scry-remind/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	chatID   int64 = 42
	botToken       = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"
)

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  chan tgbotapi.Update
	config   tgbotapi.UpdateConfig
	stopped  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = config
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) lastSent(t *testing.T) tgbotapi.Chattable {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	api     *fakeAPI
	bot     *telegram.Bot
	service service.TaskService
	logs    *logger.TestLogBuffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	srsService, err := srs.NewDefaultService()
	require.NoError(t, err)
	svc, err := service.NewTaskService(mocks.NewMockTaskStore(), srsService, nil)
	require.NoError(t, err)
	controller, err := dialog.NewController(svc, nil)
	require.NoError(t, err)

	log, logs := logger.NewTestLogger()
	api := newFakeAPI()
	bot, err := telegram.New(api, controller, telegram.Config{}, log)
	require.NoError(t, err)

	return &fixture{api: api, bot: bot, service: svc, logs: logs}
}

func textUpdate(text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 10,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
		},
	}
}

func commandUpdate(command string) tgbotapi.Update {
	update := textUpdate("/" + command)
	update.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return update
}

func callbackUpdate(data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 11,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

func callbackData(t *testing.T, markup *tgbotapi.InlineKeyboardMarkup) [][]string {
	t.Helper()
	require.NotNil(t, markup)

	rows := make([][]string, 0, len(markup.InlineKeyboard))
	for _, row := range markup.InlineKeyboard {
		data := make([]string, 0, len(row))
		for _, button := range row {
			require.NotNil(t, button.CallbackData)
			data = append(data, *button.CallbackData)
		}
		rows = append(rows, data)
	}
	return rows
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := telegram.New(nil, nil, telegram.Config{}, nil)
	assert.ErrorIs(t, err, telegram.ErrNilDependency)
}

func TestHandleUpdate_TextAsksForConfirmation(t *testing.T) {
	f := newFixture(t)

	f.bot.HandleUpdate(context.Background(), textUpdate("osmosis"))

	msg, ok := f.api.lastSent(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, chatID, msg.ChatID)
	assert.Equal(t, "Do you want to save *osmosis*?", msg.Text)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)

	markup, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"4:osmosis", "5"}}, callbackData(t, markup))
	assert.Equal(t, "Yes", markup.InlineKeyboard[0][0].Text)
}

func TestHandleUpdate_CommandsGetHelp(t *testing.T) {
	for _, command := range []string{telegram.CommandStart, telegram.CommandHelp, "unknown"} {
		t.Run(command, func(t *testing.T) {
			f := newFixture(t)

			f.bot.HandleUpdate(context.Background(), commandUpdate(command))

			msg, ok := f.api.lastSent(t).(tgbotapi.MessageConfig)
			require.True(t, ok)
			assert.Equal(t, "Just write me a term you want to remember", msg.Text)
			assert.Nil(t, msg.ReplyMarkup)
		})
	}
}

func TestHandleUpdate_CallbackEditsMessage(t *testing.T) {
	f := newFixture(t)

	f.bot.HandleUpdate(context.Background(), callbackUpdate("4:osmosis"))

	edit, ok := f.api.lastSent(t).(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, chatID, edit.ChatID)
	assert.Equal(t, 11, edit.MessageID)
	assert.Equal(t, "You will receive reminder about *osmosis* soon", edit.Text)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, edit.ParseMode)
	assert.Nil(t, edit.ReplyMarkup, "answered message loses its keyboard")

	require.Len(t, f.api.requests, 1)
	ack, ok := f.api.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", ack.CallbackQueryID)

	task, err := f.service.FindTask(context.Background(), chatID, "osmosis")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, task.Status)
}

func TestHandleUpdate_CallbackWithoutMessageIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	update := callbackUpdate("5")
	update.CallbackQuery.Message = nil
	f.bot.HandleUpdate(context.Background(), update)

	assert.Empty(t, f.api.sent)
	assert.Len(t, f.api.requests, 1)
}

func TestHandleUpdate_SendErrorIsRedacted(t *testing.T) {
	f := newFixture(t)
	f.api.sendErr = errors.New(`Post "https://api.telegram.org/bot` + botToken + `/sendMessage": EOF`)

	f.bot.HandleUpdate(context.Background(), textUpdate("osmosis"))

	assert.True(t, f.logs.ContainsMessage("failed to send reply"))
	assert.NotContains(t, f.logs.String(), botToken)
}

func TestNotify(t *testing.T) {
	f := newFixture(t)
	task, err := domain.NewTask(chatID, "osmosis", time.Now())
	require.NoError(t, err)

	require.NoError(t, f.bot.Notify(context.Background(), task))

	msg, ok := f.api.lastSent(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, "Do you remember the meaning of *osmosis*?", msg.Text)
	markup, ok := msg.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"1:osmosis", "2:osmosis"}, {"3:osmosis"}}, callbackData(t, markup))
}

func TestNotify_Errors(t *testing.T) {
	task, err := domain.NewTask(chatID, "osmosis", time.Now())
	require.NoError(t, err)

	t.Run("send failure", func(t *testing.T) {
		f := newFixture(t)
		f.api.sendErr = errors.New(`Post "https://api.telegram.org/bot` + botToken + `/sendMessage": EOF`)

		err := f.bot.Notify(context.Background(), task)
		assert.ErrorIs(t, err, telegram.ErrSendFailed)
		assert.NotContains(t, err.Error(), botToken)
	})

	t.Run("cancelled context", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := f.bot.Notify(ctx, task)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.api.sent)
	})
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.bot.Run(ctx) }()

	f.api.updates <- textUpdate("osmosis")
	require.Eventually(t, func() bool {
		f.api.mu.Lock()
		defer f.api.mu.Unlock()
		return len(f.api.sent) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	f.api.mu.Lock()
	defer f.api.mu.Unlock()
	assert.True(t, f.api.stopped)
	assert.Equal(t, telegram.DefaultPollTimeout, f.api.config.Timeout)
}
