// Package conversation owns the running message history with the model.
// It resets the history to the system preamble whenever the page host
// changes, builds each prompt, and parses the reply into an Action.
package conversation

import (
	"browser_agent/application/command"
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/logging"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 100
)

// Manager is not safe for concurrent use; the control loop is its only caller.
type Manager struct {
	goal        string
	model       interfaces.ChatModel
	modelName   string
	temperature float64
	maxTokens   int
	tokens      interfaces.TokenCounter
	logger      *logrus.Logger

	lastHost string
	hasHost  bool
	history  *history
}

// Option configures a Manager
type Option func(*Manager)

// WithModelName sets the model requested from the provider
func WithModelName(name string) Option {
	return func(m *Manager) {
		m.modelName = name
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(m *Manager) {
		m.temperature = t
	}
}

// WithMaxTokens caps the reply length
func WithMaxTokens(n int) Option {
	return func(m *Manager) {
		m.maxTokens = n
	}
}

// WithTokenCounter enables prompt size logging
func WithTokenCounter(c interfaces.TokenCounter) Option {
	return func(m *Manager) {
		m.tokens = c
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a conversation for goal holding only the system preamble.
func New(goal string, model interfaces.ChatModel, opts ...Option) *Manager {
	m := &Manager{
		goal:        goal,
		model:       model,
		modelName:   DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		history:     newHistory(entities.SystemMessage(systemPrompt)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	return m
}

// Goal returns the fixed objective
func (m *Manager) Goal() string {
	return m.goal
}

// Messages returns a copy of the current history
func (m *Manager) Messages() []entities.Message {
	return m.history.messages()
}

// Len returns the number of messages in the history
func (m *Manager) Len() int {
	return m.history.len()
}

// RequestAction asks the model for the next action on the page at
// currentURL described by summary.
func (m *Manager) RequestAction(ctx context.Context, currentURL, summary string) (entities.Action, error) {
	if err := m.enforceContextLength(currentURL); err != nil {
		return entities.Action{}, err
	}

	m.history.append(entities.UserMessage(userPrompt(m.goal, currentURL, summary)))
	messages := m.history.messages()

	if m.tokens != nil {
		if n, err := m.tokens.CountMessages(messages); err == nil {
			m.logger.WithFields(logrus.Fields{"messages": len(messages), "prompt_tokens": n}).Debug("Prompt size")
		} else {
			m.logger.WithError(err).Debug("Could not count prompt tokens")
		}
	}

	resp, err := m.model.Complete(ctx, entities.CompletionRequest{
		Messages:    messages,
		Model:       m.modelName,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return entities.Action{}, fmt.Errorf("%w: %w", entities.ErrModel, err)
	}

	reply := strings.TrimSpace(resp.Content)
	m.logger.WithFields(logrus.Fields{
		"total_tokens": resp.TotalTokens,
		"reply":        reply,
	}).Debug("Got a response")

	m.history.append(entities.AssistantMessage(reply))

	return command.Parse(reply)
}

// enforceContextLength drops earlier turns when the host changes so the
// model never reasons about a previous site's elements.
func (m *Manager) enforceContextLength(currentURL string) error {
	u, err := url.Parse(currentURL)
	if err != nil {
		return fmt.Errorf("%w: parse url %q: %w", entities.ErrInput, currentURL, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("%w: parse url %q: missing scheme", entities.ErrInput, currentURL)
	}

	host := u.Hostname()
	if m.hasHost && host != m.lastHost {
		m.logger.WithFields(logrus.Fields{"from": m.lastHost, "to": host}).Debug("Host changed, clearing context")
		m.history.resetToPreamble()
	}
	m.lastHost = host
	m.hasHost = true

	return nil
}
