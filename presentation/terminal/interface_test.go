package terminal

import (
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/config"
	"browser_agent/internal/pagetest"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type scriptedModel struct {
	replies []string
	calls   int
}

func (s *scriptedModel) Complete(ctx context.Context, req entities.CompletionRequest) (entities.Completion, error) {
	s.calls++
	if s.calls > len(s.replies) {
		return entities.Completion{}, errors.New("script exhausted")
	}
	return entities.Completion{Role: entities.RoleAssistant, Content: s.replies[s.calls-1]}, nil
}

type harness struct {
	browser   *pagetest.Browser
	model     *scriptedModel
	search    *pagetest.Element
	browserCf config.BrowserConfig
	llmCf     config.LLMConfig
	launched  bool
	stdout    bytes.Buffer
	stderr    bytes.Buffer
}

func newHarness(t *testing.T, replies ...string) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}

	h := &harness{
		search: pagetest.Input("Search"),
		model:  &scriptedModel{replies: replies},
	}
	h.browser = &pagetest.Browser{Page: &pagetest.Page{Snapshots: []pagetest.Snapshot{
		{URL: "https://duckduckgo.com/", Elements: []*pagetest.Element{h.search}},
		{URL: "https://duckduckgo.com/?q=go", Elements: []*pagetest.Element{pagetest.Link("The Go Programming Language", "https://go.dev/")}},
	}}}
	return h
}

func (h *harness) execute(stdin string, args ...string) error {
	ti := NewTerminalInterface(
		WithIO(strings.NewReader(stdin), &h.stdout, &h.stderr),
		WithBrowserFactory(func(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.Browser, error) {
			h.launched = true
			h.browserCf = cfg
			return h.browser, nil
		}),
		WithModelFactory(func(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (interfaces.ChatModel, error) {
			h.llmCf = cfg
			return h.model, nil
		}),
	)
	cmd := ti.Command()
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	return cmd.ExecuteContext(context.Background())
}

func TestCommand_AnswersGoal(t *testing.T) {
	h := newHarness(t, `TYPE 0 "golang"`, `ANSWER "go.dev"`)

	err := h.execute("", "find", "the", "go", "website")
	require.NoError(t, err)

	assert.Equal(t, "go.dev\n", h.stdout.String())
	assert.Equal(t, []string{"https://duckduckgo.com/"}, h.browser.Opened())
	assert.True(t, h.browser.Closed())
	assert.Equal(t, []string{"golang"}, h.search.Typed())
	assert.Equal(t, 2, h.model.calls)

	assert.True(t, h.browserCf.Headless)
	assert.Equal(t, "gpt-4o", h.llmCf.Model)
}

func TestCommand_GoalFromStdin(t *testing.T) {
	h := newHarness(t, `ANSWER "nothing to do"`)

	err := h.execute("  say hello  \n")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h.stdout.String(), "What should the browser agent do?"))
	assert.True(t, strings.HasSuffix(h.stdout.String(), "nothing to do\n"))
}

func TestCommand_EmptyGoal(t *testing.T) {
	h := newHarness(t)

	err := h.execute("\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrInput))
	assert.False(t, h.launched)
}

func TestCommand_Flags(t *testing.T) {
	h := newHarness(t, `ANSWER "ok"`)

	err := h.execute("", "--inspect", "--backend", "rod", "--provider", "gemini",
		"--start-url", "https://example.com/", "--max-cycles", "3", "goal")
	require.NoError(t, err)

	assert.False(t, h.browserCf.Headless)
	assert.Equal(t, config.BackendRod, h.browserCf.Backend)
	assert.Equal(t, config.ProviderGemini, h.llmCf.Provider)
	assert.Equal(t, "gemini-2.0-flash", h.llmCf.Model)
	assert.Equal(t, []string{"https://example.com/"}, h.browser.Opened())
}

func TestCommand_InvalidConfig(t *testing.T) {
	h := newHarness(t)

	err := h.execute("", "--backend", "netscape", "goal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrInput))
	assert.False(t, h.launched)
}

func TestCommand_ModelFactoryFailure(t *testing.T) {
	h := newHarness(t)
	ti := NewTerminalInterface(
		WithIO(strings.NewReader(""), &h.stdout, &h.stderr),
		WithModelFactory(func(ctx context.Context, cfg config.LLMConfig, logger *logrus.Logger) (interfaces.ChatModel, error) {
			return nil, errors.New("no key")
		}),
		WithBrowserFactory(func(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.Browser, error) {
			h.launched = true
			return h.browser, nil
		}),
	)
	cmd := ti.Command()
	cmd.SetArgs([]string{"--log-level", "error", "goal"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrModel))
	assert.False(t, h.launched)
}

func TestCommand_RunFailureWritesTranscript(t *testing.T) {
	h := newHarness(t, "CLICK 7")
	path := filepath.Join(t.TempDir(), "run.yaml")

	err := h.execute("", "--transcript", path, "goal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrProtocol))
	assert.True(t, h.browser.Closed())
	assert.Empty(t, h.stdout.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var transcript entities.Transcript
	require.NoError(t, yaml.Unmarshal(data, &transcript))
	assert.Equal(t, "goal", transcript.Goal)
	assert.Equal(t, 1, transcript.Cycles)
	assert.NotEmpty(t, transcript.Error)
	require.Len(t, transcript.Messages, 3)
	assert.Equal(t, entities.AssistantMessage("CLICK 7"), transcript.Messages[2])
}

func TestCommand_BrowserOpenFailure(t *testing.T) {
	h := newHarness(t)
	h.browser.NewPageErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	err := h.execute("", "goal")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrBrowser))
	assert.True(t, h.browser.Closed())
}
