// Package terminal is the command-line entry point: it loads settings, wires
// the browser and model backends, and runs the agent for one goal.
package terminal

import (
	"browser_agent/application/agent"
	"browser_agent/application/conversation"
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/ai"
	"browser_agent/infrastructure/browser"
	"browser_agent/infrastructure/config"
	"browser_agent/infrastructure/logging"
	"browser_agent/infrastructure/security"
	"browser_agent/infrastructure/storage"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BrowserFactory launches a browser for cfg
type BrowserFactory func(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.Browser, error)

// ModelFactory builds a chat model for cfg
type ModelFactory func(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (interfaces.ChatModel, error)

type TerminalInterface struct {
	newBrowser BrowserFactory
	newModel   ModelFactory
	in         io.Reader
	out        io.Writer
	errOut     io.Writer

	configFile string
	envFile    string
	inspect    bool
}

// Option replaces a default dependency, mainly for tests
type Option func(*TerminalInterface)

func WithBrowserFactory(f BrowserFactory) Option {
	return func(t *TerminalInterface) {
		t.newBrowser = f
	}
}

func WithModelFactory(f ModelFactory) Option {
	return func(t *TerminalInterface) {
		t.newModel = f
	}
}

// WithIO sets where the goal is read from and where the answer and logs go
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(t *TerminalInterface) {
		t.in = in
		t.out = out
		t.errOut = errOut
	}
}

func NewTerminalInterface(opts ...Option) *TerminalInterface {
	t := &TerminalInterface{
		newBrowser: browser.New,
		newModel:   ai.New,
		envFile:    ".env",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Command builds `browser-agent [goal]`
func (t *TerminalInterface) Command() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "browser-agent [goal]",
		Short: "Drive a web browser with a language model until it answers a goal",
		Long: "browser-agent opens a browser, shows the model a compact summary of each page, " +
			"and carries out the CLICK, TYPE and ANSWER commands it replies with. " +
			"Without a goal argument the goal is read from standard input.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return t.run(cmd.Context(), v, args)
		},
	}
	if t.in != nil {
		cmd.SetIn(t.in)
		cmd.SetOut(t.out)
		cmd.SetErr(t.errOut)
	}

	flags := cmd.Flags()
	flags.StringVarP(&t.configFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.BoolVar(&t.inspect, "inspect", false, "show the browser window instead of running headless")
	flags.String("backend", config.BackendPlaywright, "browser backend: playwright, selenium, rod or chromedp")
	flags.String("provider", config.ProviderOpenAI, "model provider: openai or gemini")
	flags.String("model", "", "model name (default depends on the provider)")
	flags.String("start-url", "https://duckduckgo.com/", "page the browser opens first")
	flags.Int("max-cycles", 0, "stop after this many cycles; 0 means no limit")
	flags.Bool("paragraphs", true, "include paragraph text in page summaries")
	flags.String("transcript", "", "write the conversation to this file (.yaml or .json) when the run ends")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	for key, flag := range map[string]string{
		"browser.backend":          "backend",
		"llm.provider":             "provider",
		"llm.model":                "model",
		"browser.start_url":        "start-url",
		"agent.max_cycles":         "max-cycles",
		"agent.include_paragraphs": "paragraphs",
		"agent.transcript_path":    "transcript",
		"log.level":                "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func (t *TerminalInterface) run(ctx context.Context, v *viper.Viper, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// .env is optional
	if err := godotenv.Load(t.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", t.envFile, err)
	}

	cfg, err := config.Load(v, t.configFile)
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrInput, err)
	}
	if t.inspect {
		cfg.Browser.Headless = false
	}

	logger, err := logging.New(cfg.Log, t.errOut)
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrInput, err)
	}

	goal, err := t.readGoal(args)
	if err != nil {
		return err
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = ai.DefaultModel(cfg.LLM.Provider)
	}
	model, err := t.newModel(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize %s model: %w", entities.ErrModel, cfg.LLM.Provider, err)
	}

	br, err := t.newBrowser(cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize %s browser: %w", entities.ErrBrowser, cfg.Browser.Backend, err)
	}
	defer func() {
		if err := br.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close browser")
		}
	}()

	page, err := br.NewPage(ctx, cfg.Browser.StartURL)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", entities.ErrBrowser, cfg.Browser.StartURL, err)
	}

	convOpts := []conversation.Option{
		conversation.WithModelName(cfg.LLM.Model),
		conversation.WithTemperature(cfg.LLM.Temperature),
		conversation.WithMaxTokens(cfg.LLM.MaxTokens),
		conversation.WithLogger(logger),
	}
	// counting only feeds debug logs and may download encoding data
	if logger.IsLevelEnabled(logrus.DebugLevel) && cfg.LLM.Provider == config.ProviderOpenAI {
		convOpts = append(convOpts, conversation.WithTokenCounter(ai.NewTokenCounter(cfg.LLM.Model)))
	}
	conv := conversation.New(goal, model, convOpts...)

	ag := agent.NewAgent(page, conv,
		agent.WithStabilityTimeout(cfg.Browser.StabilityTimeout),
		agent.WithParagraphs(cfg.Agent.IncludeParagraphs),
		agent.WithMaxCycles(cfg.Agent.MaxCycles),
		agent.WithRiskAssessor(security.NewAssessor(logger)),
		agent.WithLogger(logger),
	)

	log := logger.WithField("run_id", ag.RunID())
	log.WithFields(logrus.Fields{
		"goal":     goal,
		"backend":  cfg.Browser.Backend,
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
	}).Info("Starting run")

	started := time.Now()
	answer, runErr := ag.Run(ctx)

	if cfg.Agent.TranscriptPath != "" {
		transcript := entities.Transcript{
			RunID:      ag.RunID(),
			Goal:       goal,
			Answer:     answer,
			Cycles:     ag.Cycles(),
			Messages:   conv.Messages(),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}
		if runErr != nil {
			transcript.Error = runErr.Error()
		}
		if err := storage.NewTranscriptFile(cfg.Agent.TranscriptPath).SaveTranscript(transcript); err != nil {
			log.WithError(err).Warn("Failed to save transcript")
		} else {
			log.WithField("path", cfg.Agent.TranscriptPath).Info("Saved transcript")
		}
	}

	if runErr != nil {
		log.WithFields(logrus.Fields{
			"state":  ag.State(),
			"cycles": ag.Cycles(),
		}).WithError(runErr).Error("Run failed")
		return runErr
	}

	log.WithField("cycles", ag.Cycles()).Info("Run finished")
	fmt.Fprintln(t.output(), answer)
	return nil
}

func (t *TerminalInterface) readGoal(args []string) (string, error) {
	if goal := strings.TrimSpace(strings.Join(args, " ")); goal != "" {
		return goal, nil
	}
	if t.in == nil {
		return "", fmt.Errorf("%w: no goal given", entities.ErrInput)
	}

	fmt.Fprint(t.output(), "What should the browser agent do?\n> ")
	line, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: read goal: %w", entities.ErrInput, err)
	}
	goal := strings.TrimSpace(line)
	if goal == "" {
		return "", fmt.Errorf("%w: no goal given", entities.ErrInput)
	}
	return goal, nil
}

func (t *TerminalInterface) output() io.Writer {
	if t.out == nil {
		return io.Discard
	}
	return t.out
}
