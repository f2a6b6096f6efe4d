// Package command parses the model's reply into an Action.
//
// The grammar is one command per reply, whitespace-delimited, with a
// case-sensitive keyword:
//
//	CLICK <id>
//	TYPE <id> "<text>"
//	ANSWER "<text>"
//
// TYPESUBMIT and END are accepted as aliases of TYPE and ANSWER.
package command

import (
	"browser_agent/domain/entities"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Grammar documents the canonical commands for the model
const Grammar = `- CLICK X - click on a given element. You can only click on links, buttons, and inputs!
- TYPE X "TEXT" - type the specified text into the input with id X and press ENTER
- ANSWER "TEXT" - Respond to the user with the specified text once you have completed the objective`

// keywords is the single keyword table, aliases included.
var keywords = map[string]entities.ActionType{
	"CLICK":      entities.ActionClick,
	"TYPE":       entities.ActionTypeSubmit,
	"TYPESUBMIT": entities.ActionTypeSubmit,
	"ANSWER":     entities.ActionAnswer,
	"END":        entities.ActionAnswer,
}

var (
	ErrNoCommand      = errors.New("no command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingID      = errors.New("missing element id")
	ErrInvalidID      = errors.New("invalid element id")
)

// ParseError reports why a reply is not a command. It matches both its
// Reason and entities.ErrProtocol under errors.Is.
type ParseError struct {
	Reason error
	Token  string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Token)
}

func (e *ParseError) Unwrap() []error {
	return []error{e.Reason, entities.ErrProtocol}
}

// Parse parses one reply. It does not check ids against any page.
func Parse(reply string) (entities.Action, error) {
	tokens := strings.Fields(reply)
	if len(tokens) == 0 {
		return entities.Action{}, &ParseError{Reason: ErrNoCommand}
	}

	keyword := tokens[0]
	kind, ok := keywords[keyword]
	if !ok {
		return entities.Action{}, &ParseError{Reason: ErrUnknownCommand, Token: keyword}
	}

	switch kind {
	case entities.ActionClick:
		id, err := parseID(keyword, tokens[1:])
		if err != nil {
			return entities.Action{}, err
		}
		return entities.Click(id), nil

	case entities.ActionTypeSubmit:
		id, err := parseID(keyword, tokens[1:])
		if err != nil {
			return entities.Action{}, err
		}
		return entities.TypeSubmit(id, joinText(tokens[2:])), nil

	case entities.ActionAnswer:
		return entities.Answer(joinText(tokens[1:])), nil
	}

	return entities.Action{}, &ParseError{Reason: ErrUnknownCommand, Token: keyword}
}

func parseID(keyword string, rest []string) (int, error) {
	if len(rest) == 0 {
		return 0, &ParseError{Reason: ErrMissingID, Token: keyword}
	}
	id, err := strconv.Atoi(rest[0])
	if err != nil || id < 0 {
		return 0, &ParseError{Reason: ErrInvalidID, Token: rest[0]}
	}
	return id, nil
}

// joinText rejoins tokens with single spaces and strips surrounding quotes.
// Nothing is unescaped.
func joinText(tokens []string) string {
	return strings.Trim(strings.Join(tokens, " "), `"`)
}
