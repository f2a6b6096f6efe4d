package entities

import (
	"fmt"
	"strconv"
)

// ActionType represents the type of command the model chose
type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionTypeSubmit ActionType = "type_submit"
	ActionAnswer     ActionType = "answer"
)

// Action represents a single command parsed from one model reply.
// ID is a slot id and is only meaningful against the element
// enumeration that produced the summary sent in the same cycle.
type Action struct {
	Type ActionType `json:"type" yaml:"type"`
	ID   int        `json:"id,omitempty" yaml:"id,omitempty"`
	Text string     `json:"text,omitempty" yaml:"text,omitempty"`
}

// Click - clicks the element in slot id
func Click(id int) Action {
	return Action{Type: ActionClick, ID: id}
}

// TypeSubmit - types text into the element in slot id and presses Enter
func TypeSubmit(id int, text string) Action {
	return Action{Type: ActionTypeSubmit, ID: id, Text: text}
}

// Answer - ends the run with text as the final output
func Answer(text string) Action {
	return Action{Type: ActionAnswer, Text: text}
}

// IsTerminal reports whether the action ends the run
func (a Action) IsTerminal() bool {
	return a.Type == ActionAnswer
}

// TargetsElement reports whether the action addresses a slot id
func (a Action) TargetsElement() bool {
	return a.Type == ActionClick || a.Type == ActionTypeSubmit
}

// String renders the action in the command grammar. Text is quoted as is;
// the grammar has no escapes, so parsing the result gives back the action
// whenever Text has no surrounding quotes and no whitespace runs.
func (a Action) String() string {
	switch a.Type {
	case ActionClick:
		return "CLICK " + strconv.Itoa(a.ID)
	case ActionTypeSubmit:
		return fmt.Sprintf(`TYPE %d "%s"`, a.ID, a.Text)
	case ActionAnswer:
		return fmt.Sprintf(`ANSWER "%s"`, a.Text)
	default:
		return string(a.Type)
	}
}

// RiskLevel represents how dangerous executing an action looks
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)
