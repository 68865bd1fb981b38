package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPayloadBytes is the largest token the transport accepts, in UTF-8 bytes.
const MaxPayloadBytes = 64

// Separator splits the option tag from the content. It never occurs in a tag.
const Separator = ":"

// AnswerOption is the single-character tag identifying which button was pressed.
type AnswerOption string

// Answer options. The values are part of the wire format of buttons already
// delivered to users and must not change.
const (
	Remember AnswerOption = "1"
	Forgot   AnswerOption = "2"
	Remove   AnswerOption = "3"
	AddTask  AnswerOption = "4"
	Cancel   AnswerOption = "5"
)

var (
	// ErrPayloadTooLong is returned when the encoded token would exceed MaxPayloadBytes.
	ErrPayloadTooLong = errors.New("payload too long")

	// ErrUnknownOption is returned when encoding with an option outside the enumeration.
	ErrUnknownOption = errors.New("unknown answer option")

	// ErrUnexpectedContent is returned when content is supplied for Cancel.
	ErrUnexpectedContent = errors.New("answer option carries no content")

	// ErrInvalidContent is returned when content is not valid UTF-8.
	ErrInvalidContent = errors.New("content is not valid UTF-8")

	// ErrInvalidToken is returned when a token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")
)

// Options returns every answer option in tag order.
func Options() []AnswerOption {
	return []AnswerOption{Remember, Forgot, Remove, AddTask, Cancel}
}

// IsValid reports whether o is one of the defined answer options.
func (o AnswerOption) IsValid() bool {
	switch o {
	case Remember, Forgot, Remove, AddTask, Cancel:
		return true
	default:
		return false
	}
}

// CarriesContent reports whether tokens for o include a term.
func (o AnswerOption) CarriesContent() bool {
	return o.IsValid() && o != Cancel
}

// String returns a readable name for logs.
func (o AnswerOption) String() string {
	switch o {
	case Remember:
		return "remember"
	case Forgot:
		return "forgot"
	case Remove:
		return "remove"
	case AddTask:
		return "add_task"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("unknown(%q)", string(o))
	}
}

// MaxContentBytes returns how many bytes of content fit in a token for o.
func MaxContentBytes(o AnswerOption) int {
	if !o.CarriesContent() {
		return 0
	}
	return MaxPayloadBytes - len(o) - len(Separator)
}

// Encode builds the token for option and content.
func Encode(option AnswerOption, content string) (string, error) {
	if !option.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOption, string(option))
	}

	if !option.CarriesContent() {
		if content != "" {
			return "", fmt.Errorf("%w: %s", ErrUnexpectedContent, option)
		}
		return string(option), nil
	}

	if !utf8.ValidString(content) {
		return "", ErrInvalidContent
	}

	token := string(option) + Separator + content
	if len(token) > MaxPayloadBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d",
			ErrPayloadTooLong, len(token), MaxPayloadBytes)
	}

	return token, nil
}

// Decode returns the content carried by token. Cancel tokens decode to "".
func Decode(token string) (string, error) {
	_, content, err := parse(token)
	return content, err
}

// AnswerOf returns the answer option of token.
func AnswerOf(token string) (AnswerOption, error) {
	option, _, err := parse(token)
	return option, err
}

// Parse returns both halves of token.
func Parse(token string) (AnswerOption, string, error) {
	return parse(token)
}

func parse(token string) (AnswerOption, string, error) {
	if token == "" || len(token) > MaxPayloadBytes {
		return "", "", fmt.Errorf("%w: length %d", ErrInvalidToken, len(token))
	}

	option := AnswerOption(token[:1])
	if !option.IsValid() {
		return "", "", fmt.Errorf("%w: unknown tag %q", ErrInvalidToken, token[:1])
	}

	rest := token[1:]
	if !option.CarriesContent() {
		if rest != "" {
			return "", "", fmt.Errorf("%w: %s carries no content", ErrInvalidToken, option)
		}
		return option, "", nil
	}

	// The tag is exactly one byte, so the first separator always belongs to the framing.
	content, ok := strings.CutPrefix(rest, Separator)
	if !ok {
		return "", "", fmt.Errorf("%w: missing separator", ErrInvalidToken)
	}

	return option, content, nil
}
