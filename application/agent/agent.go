package agent

import (
	"browser_agent/application/summarizer"
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/logging"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStabilityTimeout = 5 * time.Second
	enterKey                = "Enter"
)

var (
	// ErrOutOfRange - the action names a slot id the current enumeration does not have
	ErrOutOfRange = fmt.Errorf("%w: element id out of range", entities.ErrProtocol)
	// ErrCycleLimit - the run used every cycle it was allowed
	ErrCycleLimit = errors.New("cycle limit reached")
)

// Requester asks the model for the next action
type Requester interface {
	RequestAction(ctx context.Context, currentURL, summary string) (entities.Action, error)
}

// observation is everything captured in Observing for one cycle. Actions
// chosen in the same cycle resolve against its elements.
type observation struct {
	url      string
	elements []interfaces.Element
	summary  entities.Summary
}

type Agent struct {
	page         interfaces.Page
	conversation Requester
	risk         interfaces.RiskAssessor
	logger       *logrus.Logger

	stabilityTimeout  time.Duration
	includeParagraphs bool
	maxCycles         int

	runID  string
	state  entities.State
	cycles int
}

// Option configures an Agent
type Option func(*Agent)

// WithStabilityTimeout sets the ceiling on waiting for the page to settle
func WithStabilityTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.stabilityTimeout = d
	}
}

// WithParagraphs includes paragraph text in summaries
func WithParagraphs(include bool) Option {
	return func(a *Agent) {
		a.includeParagraphs = include
	}
}

// WithMaxCycles bounds the number of cycles; 0 means unbounded
func WithMaxCycles(n int) Option {
	return func(a *Agent) {
		a.maxCycles = n
	}
}

// WithRiskAssessor logs a warning before actions it rates above low
func WithRiskAssessor(r interfaces.RiskAssessor) Option {
	return func(a *Agent) {
		a.risk = r
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(a *Agent) {
		a.runID = id
	}
}

// NewAgent - creates a control loop driving page
func NewAgent(page interfaces.Page, conversation Requester, opts ...Option) *Agent {
	a := &Agent{
		page:              page,
		conversation:      conversation,
		stabilityTimeout:  DefaultStabilityTimeout,
		includeParagraphs: true,
		runID:             uuid.NewString(),
		state:             entities.StateObserving,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	return a
}

// RunID returns the id attached to every log line of the run
func (a *Agent) RunID() string {
	return a.runID
}

// State returns the state the loop is in, or failed in
func (a *Agent) State() entities.State {
	return a.state
}

// Cycles returns how many cycles have started
func (a *Agent) Cycles() int {
	return a.cycles
}

// Run cycles Observing → Deciding → Acting until the model answers. It
// returns the answer text, or the first error, which ends the run.
func (a *Agent) Run(ctx context.Context) (string, error) {
	log := a.logger.WithField("run_id", a.runID)
	a.state = entities.StateObserving

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("run canceled: %w", ctx.Err())
		default:
		}

		if a.maxCycles > 0 && a.cycles >= a.maxCycles {
			return "", fmt.Errorf("%w: %d", ErrCycleLimit, a.maxCycles)
		}
		a.cycles++
		cycleLog := log.WithField("cycle", a.cycles)

		a.state = entities.StateObserving
		obs, err := a.observe(ctx)
		if err != nil {
			return "", err
		}
		cycleLog.WithFields(logrus.Fields{
			"url":      obs.url,
			"elements": len(obs.elements),
			"lines":    len(obs.summary.Lines),
		}).Debug("Observed page")

		a.state = entities.StateDeciding
		action, err := a.conversation.RequestAction(ctx, obs.url, obs.summary.String())
		if err != nil {
			return "", err
		}
		cycleLog.WithField("action", action.String()).Info("Action chosen")

		a.state = entities.StateActing
		if err := a.act(ctx, cycleLog, obs, action); err != nil {
			return "", err
		}

		if action.IsTerminal() {
			a.state = entities.StateDone
			return action.Text, nil
		}
	}
}

func (a *Agent) observe(ctx context.Context) (observation, error) {
	if err := a.waitForStability(ctx); err != nil {
		return observation{}, err
	}

	elements, err := a.page.QueryElements(ctx, entities.ElementSelector)
	if err != nil {
		return observation{}, fmt.Errorf("%w: query elements: %w", entities.ErrBrowser, err)
	}

	currentURL, err := a.page.CurrentURL(ctx)
	if err != nil {
		return observation{}, fmt.Errorf("%w: current url: %w", entities.ErrBrowser, err)
	}

	summary, err := summarizer.Summarize(ctx, elements, a.includeParagraphs)
	if err != nil {
		return observation{}, err
	}

	return observation{url: currentURL, elements: elements, summary: summary}, nil
}

// waitForStability bounds the wait; hitting the ceiling means proceeding
// with whatever is on the page.
func (a *Agent) waitForStability(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, a.stabilityTimeout)
	defer cancel()

	err := a.page.WaitForStability(waitCtx, a.stabilityTimeout)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return fmt.Errorf("%w: wait for page: %w", entities.ErrBrowser, err)
}

func (a *Agent) act(ctx context.Context, log *logrus.Entry, obs observation, action entities.Action) error {
	if action.IsTerminal() {
		return nil
	}
	if !action.TargetsElement() {
		return fmt.Errorf("%w: unsupported action %q", entities.ErrProtocol, action.Type)
	}

	el, err := resolve(obs, action)
	if err != nil {
		return err
	}
	a.assess(ctx, log, obs, action)

	switch action.Type {
	case entities.ActionClick:
		if err := el.Click(ctx); err != nil {
			return fmt.Errorf("%w: click element %d: %w", entities.ErrBrowser, action.ID, err)
		}

	case entities.ActionTypeSubmit:
		if err := el.TypeText(ctx, action.Text); err != nil {
			return fmt.Errorf("%w: type into element %d: %w", entities.ErrBrowser, action.ID, err)
		}
		if err := el.PressKey(ctx, enterKey); err != nil {
			return fmt.Errorf("%w: submit element %d: %w", entities.ErrBrowser, action.ID, err)
		}

	default:
		return fmt.Errorf("%w: unsupported action %q", entities.ErrProtocol, action.Type)
	}

	return nil
}

func resolve(obs observation, action entities.Action) (interfaces.Element, error) {
	if action.ID < 0 || action.ID >= len(obs.elements) {
		return nil, fmt.Errorf("%w: %d (page has %d elements)", ErrOutOfRange, action.ID, len(obs.elements))
	}
	return obs.elements[action.ID], nil
}

func (a *Agent) assess(ctx context.Context, log *logrus.Entry, obs observation, action entities.Action) {
	if a.risk == nil {
		return
	}
	var label string
	if line, ok := obs.summary.Line(action.ID); ok {
		label = line.Text
	}
	if level := a.risk.Assess(ctx, action, obs.url, label); level != entities.RiskLow {
		log.WithFields(logrus.Fields{
			"risk":    level,
			"action":  action.String(),
			"element": label,
		}).Warn("Executing risky action")
	}
}
