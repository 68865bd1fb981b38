package dialog_test

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/phrazzld/scry-remind/internal/dialog"
	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `a\_b\*c\[d\]\(e\)`, dialog.EscapeMarkdown("a_b*c[d](e)"))
	assert.Equal(t, `1\+1\=2\.`, dialog.EscapeMarkdown("1+1=2."))
	assert.Equal(t, `back\\slash`, dialog.EscapeMarkdown(`back\slash`))
	assert.Equal(t, "plain words", dialog.EscapeMarkdown("plain words"))
}

func TestEscapeMarkdown_MatchesBotLibrary(t *testing.T) {
	const reserved = "_*[]()~`>#+-=|{}.!"
	for _, c := range reserved {
		ch := string(c)
		assert.Equal(t, tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, ch), dialog.EscapeMarkdown(ch), "escape of %q", ch)
	}

	text := "a_b*c [link](url) ~x~ `code` > #1 +2 -3 =4 |5| {6}. done!"
	assert.Equal(t, tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text), dialog.EscapeMarkdown(text))

	// MarkdownV2 also reserves the backslash, which the library leaves as is.
	assert.Equal(t, `\\`, dialog.EscapeMarkdown(`\`))
	assert.Equal(t, `\`, tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, `\`))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		outcome  dialog.Outcome
		content  string
		interval time.Duration
		want     string
	}{
		{
			name:    "confirm add",
			outcome: dialog.OutcomeConfirmAdd,
			content: "osmosis",
			want:    `Do you want to save *osmosis*?`,
		},
		{
			name:    "question escapes content",
			outcome: dialog.OutcomeQuestion,
			content: "x_1 (a*b)",
			want:    `Do you remember the meaning of *x\_1 \(a\*b\)*?`,
		},
		{
			name:    "added",
			outcome: dialog.OutcomeAdded,
			content: "osmosis",
			want:    `You will receive reminder about *osmosis* soon`,
		},
		{
			name:     "remembered shows whole seconds",
			outcome:  dialog.OutcomeRemembered,
			interval: 2*time.Minute + 500*time.Millisecond,
			want:     `Good job\! Next notification in 120 sec`,
		},
		{
			name:    "learned",
			outcome: dialog.OutcomeLearned,
			content: "osmosis",
			want:    `Awesome\! Seems like you've learned *osmosis*`,
		},
		{
			name:    "help",
			outcome: dialog.OutcomeHelp,
			want:    "Just write me a term you want to remember",
		},
		{
			name:    "too long",
			outcome: dialog.OutcomeTooLong,
			want:    "The term is too long, please send a shorter one",
		},
		{
			name:    "unknown outcome falls back to error text",
			outcome: dialog.Outcome(0),
			want:    "Some error with database occurred",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, dialog.Render(tc.outcome, tc.content, tc.interval))
		})
	}
}
