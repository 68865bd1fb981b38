package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Outcome identifies the reply sent to the user.
type Outcome int

const (
	OutcomeConfirmAdd Outcome = iota + 1
	OutcomeQuestion
	OutcomeAdded
	OutcomeDiscarded
	OutcomeRemoved
	OutcomeRemembered
	OutcomeLearned
	OutcomeForgot
	OutcomeHelp
	OutcomeDuplicate
	OutcomeTooLong
	OutcomeAlreadyAnswered
	OutcomeError
)

// placeholder says what a template's %s is filled with.
type placeholder int

const (
	noArg placeholder = iota
	contentArg
	secondsArg
)

type replyTemplate struct {
	format string
	arg    placeholder
}

var templates = map[Outcome]replyTemplate{
	OutcomeConfirmAdd:      {"Do you want to save %s?", contentArg},
	OutcomeQuestion:        {"Do you remember the meaning of %s?", contentArg},
	OutcomeAdded:           {"You will receive reminder about %s soon", contentArg},
	OutcomeDiscarded:       {"As you wish", noArg},
	OutcomeRemoved:         {"As you wish", noArg},
	OutcomeRemembered:      {"Good job! Next notification in %s sec", secondsArg},
	OutcomeLearned:         {"Awesome! Seems like you've learned %s", contentArg},
	OutcomeForgot:          {"Notification counter was reset", noArg},
	OutcomeHelp:            {"Just write me a term you want to remember", noArg},
	OutcomeDuplicate:       {"%s is already being learned", contentArg},
	OutcomeTooLong:         {"The term is too long, please send a shorter one", noArg},
	OutcomeAlreadyAnswered: {"This question was already answered", noArg},
	OutcomeError:           {"Some error with database occurred", noArg},
}

// markdownEscaper escapes every character MarkdownV2 treats as markup,
// including the backslash that tgbotapi.EscapeText leaves alone.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"~", `\~`,
	"`", "\\`",
	">", `\>`,
	"#", `\#`,
	"+", `\+`,
	"-", `\-`,
	"=", `\=`,
	"|", `\|`,
	"{", `\{`,
	"}", `\}`,
	".", `\.`,
	"!", `\!`,
)

// EscapeMarkdown escapes s so it renders literally in MarkdownV2 mode.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Bold renders content in bold with its metacharacters escaped.
func Bold(content string) string {
	return "*" + EscapeMarkdown(content) + "*"
}

// Render returns the MarkdownV2 reply text for outcome. Content is shown in
// bold; interval is shown in whole seconds.
func Render(outcome Outcome, content string, interval time.Duration) string {
	tmpl, ok := templates[outcome]
	if !ok {
		tmpl = templates[OutcomeError]
	}

	// The format text holds no '%' other than its verb, and escaping never
	// produces one.
	format := EscapeMarkdown(tmpl.format)
	switch tmpl.arg {
	case contentArg:
		return fmt.Sprintf(format, Bold(content))
	case secondsArg:
		return fmt.Sprintf(format, strconv.FormatInt(int64(interval/time.Second), 10))
	default:
		return format
	}
}
