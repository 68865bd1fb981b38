package dialog

import (
	"fmt"

	"github.com/phrazzld/scry-remind/internal/codec"
	"github.com/phrazzld/scry-remind/internal/domain"
	"github.com/phrazzld/scry-remind/internal/store"
)

// FreeText stands for a plain message that carries no answer token.
const FreeText codec.AnswerOption = ""

// Action is what the controller must do in response to an input.
type Action int

const (
	// ActionConfirmAdd asks the user whether the term should be saved.
	ActionConfirmAdd Action = iota + 1
	// ActionCreate stores a new task.
	ActionCreate
	// ActionDiscard drops a term the user decided not to save.
	ActionDiscard
	// ActionRemember records a "yes, I remember" answer.
	ActionRemember
	// ActionForget records a "no, I forgot" answer.
	ActionForget
	// ActionRemove retires the task.
	ActionRemove
)

var actionNames = map[Action]string{
	ActionConfirmAdd: "confirm_add",
	ActionCreate:     "create",
	ActionDiscard:    "discard",
	ActionRemember:   "remember",
	ActionForget:     "forget",
	ActionRemove:     "remove",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// quizActions maps the answers to a reminder question onto their actions.
var quizActions = map[codec.AnswerOption]Action{
	codec.Remember: ActionRemember,
	codec.Forgot:   ActionForget,
	codec.Remove:   ActionRemove,
}

// Decide returns the action for option given the task it refers to.
//
// Creation inputs (FreeText, AddTask, Cancel) do not refer to a stored task
// and ignore task. Quiz answers require a task that is waiting for an answer:
// a nil task yields store.ErrTaskNotFound and a task in any other status
// yields store.ErrInvalidTransition.
func Decide(task *domain.Task, option codec.AnswerOption) (Action, error) {
	switch option {
	case FreeText:
		return ActionConfirmAdd, nil
	case codec.AddTask:
		return ActionCreate, nil
	case codec.Cancel:
		return ActionDiscard, nil
	}

	action, ok := quizActions[option]
	if !ok {
		return 0, fmt.Errorf("%w: %q", codec.ErrUnknownOption, string(option))
	}
	if task == nil {
		return 0, store.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusWaitingAnswer {
		return 0, fmt.Errorf("%w: %s answer on %s task", store.ErrInvalidTransition, option, task.Status)
	}
	return action, nil
}
