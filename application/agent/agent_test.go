package agent

import (
	"browser_agent/application/command"
	"browser_agent/application/conversation"
	"browser_agent/domain/entities"
	"browser_agent/internal/pagetest"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// fixedRequester returns the same action every cycle
type fixedRequester struct {
	action entities.Action
	err    error
	calls  int
	urls   []string
}

func (f *fixedRequester) RequestAction(ctx context.Context, currentURL, summary string) (entities.Action, error) {
	f.calls++
	f.urls = append(f.urls, currentURL)
	return f.action, f.err
}

type recordingRisk struct {
	level  entities.RiskLevel
	labels []string
}

func (r *recordingRisk) Assess(ctx context.Context, action entities.Action, pageURL, label string) entities.RiskLevel {
	r.labels = append(r.labels, label)
	return r.level
}

func fiveButtons() []*pagetest.Element {
	return []*pagetest.Element{
		pagetest.Button("a"), pagetest.Button("b"), pagetest.Button("c"),
		pagetest.Button("d"), pagetest.Button("e"),
	}
}

func TestRun_SearchThenAnswer(t *testing.T) {
	search := pagetest.Input("Search")
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{
		{URL: "https://duckduckgo.com/", Elements: []*pagetest.Element{search}},
		{URL: "https://duckduckgo.com/?q=cats", Elements: []*pagetest.Element{pagetest.Image("cat")}},
	}}
	model := &scriptedModel{replies: []string{`TYPE 0 "cats"`, `ANSWER "Found cat pictures."`}}
	conv := conversation.New("search for cats", model)
	a := NewAgent(page, conv)

	answer, err := a.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Found cat pictures.", answer)
	assert.Equal(t, entities.StateDone, a.State())
	assert.Equal(t, 2, a.Cycles())
	assert.Equal(t, []string{"cats"}, search.Typed())
	assert.Equal(t, []string{"Enter"}, search.Pressed())
	assert.Len(t, page.Waits(), 2)

	msgs := conv.Messages()
	require.Len(t, msgs, 5)
	assert.Contains(t, msgs[1].Content, "<input id=0>Search</input>")
	assert.Contains(t, msgs[3].Content, `<img id=0 alt="cat"/>`)
}

func TestRun_ClickResolvesAgainstSameEnumeration(t *testing.T) {
	first := fiveButtons()
	second := fiveButtons()
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{
		{URL: "https://a.example/", Elements: first},
		{URL: "https://a.example/next", Elements: second},
	}}
	model := &scriptedModel{replies: []string{"CLICK 3", `ANSWER "ok"`}}

	answer, err := NewAgent(page, conversation.New("goal", model)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, 1, first[3].Clicks())
	for _, el := range second {
		assert.Zero(t, el.Clicks())
	}
}

// Backends arm their load listener inside Click and PressKey and consume it
// in WaitForStability, so every action must be followed by a wait before the
// page is read again.
func TestRun_WaitsAfterEveryAction(t *testing.T) {
	search := pagetest.Input("Search")
	link := pagetest.Link("next", "/next")
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{
		{URL: "https://a.example/", Elements: []*pagetest.Element{search}},
		{URL: "https://a.example/?q=x", Elements: []*pagetest.Element{link}},
		{URL: "https://a.example/next", Elements: []*pagetest.Element{pagetest.Paragraph("done")}},
	}}
	model := &scriptedModel{replies: []string{`TYPE 0 "x"`, "CLICK 0", `ANSWER "ok"`}}

	_, err := NewAgent(page, conversation.New("goal", model)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"wait", "query", "type", "press",
		"wait", "query", "click",
		"wait", "query",
	}, page.Calls())
}

func TestRun_OutOfRangeAborts(t *testing.T) {
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{{URL: "https://a.example/", Elements: fiveButtons()}}}
	model := &scriptedModel{replies: []string{"CLICK 99"}}
	a := NewAgent(page, conversation.New("goal", model))

	_, err := a.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, err, entities.ErrProtocol)
	assert.Equal(t, entities.StateActing, a.State())
	assert.Equal(t, 1, model.calls)
}

func TestRun_ParseFailureAborts(t *testing.T) {
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{{URL: "https://a.example/", Elements: fiveButtons()}}}
	a := NewAgent(page, conversation.New("goal", &scriptedModel{replies: []string{"FOO bar"}}))

	_, err := a.Run(context.Background())

	assert.ErrorIs(t, err, command.ErrUnknownCommand)
	assert.Equal(t, entities.StateDeciding, a.State())
}

func TestRun_BrowserFailuresAbort(t *testing.T) {
	boom := errors.New("target closed")
	tests := []struct {
		name  string
		page  *pagetest.Page
		state entities.State
	}{
		{
			name:  "wait fails",
			page:  &pagetest.Page{WaitErr: boom, Snapshots: []pagetest.Snapshot{{URL: "https://a.example/"}}},
			state: entities.StateObserving,
		},
		{
			name:  "query fails",
			page:  &pagetest.Page{QueryErr: boom, Snapshots: []pagetest.Snapshot{{URL: "https://a.example/"}}},
			state: entities.StateObserving,
		},
		{
			name:  "url fails",
			page:  &pagetest.Page{URLErr: boom, Snapshots: []pagetest.Snapshot{{URL: "https://a.example/"}}},
			state: entities.StateObserving,
		},
		{
			name: "summary read fails",
			page: &pagetest.Page{Snapshots: []pagetest.Snapshot{{
				URL:      "https://a.example/",
				Elements: []*pagetest.Element{{Tag: "BUTTON", Err: boom}},
			}}},
			state: entities.StateObserving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &fixedRequester{action: entities.Answer("never")}
			a := NewAgent(tt.page, req)

			_, err := a.Run(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, entities.ErrBrowser)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, tt.state, a.State())
			assert.Zero(t, req.calls)
		})
	}
}

func TestRun_WaitCeilingIsNotAFailure(t *testing.T) {
	page := &pagetest.Page{
		WaitErr:   context.DeadlineExceeded,
		Snapshots: []pagetest.Snapshot{{URL: "https://a.example/"}},
	}
	req := &fixedRequester{action: entities.Answer("done")}

	answer, err := NewAgent(page, req, WithStabilityTimeout(time.Second)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "done", answer)
	assert.Equal(t, []time.Duration{time.Second}, page.Waits())
}

func TestRun_ModelFailureAborts(t *testing.T) {
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{{URL: "https://a.example/"}}}
	a := NewAgent(page, conversation.New("goal", &scriptedModel{}))

	_, err := a.Run(context.Background())

	assert.ErrorIs(t, err, entities.ErrModel)
}

func TestRun_CycleLimit(t *testing.T) {
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{{URL: "https://a.example/", Elements: fiveButtons()}}}
	req := &fixedRequester{action: entities.Click(0)}

	_, err := NewAgent(page, req, WithMaxCycles(3)).Run(context.Background())

	assert.ErrorIs(t, err, ErrCycleLimit)
	assert.Equal(t, 3, req.calls)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := &fixedRequester{action: entities.Answer("x")}

	_, err := NewAgent(&pagetest.Page{}, req).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, req.calls)
}

func TestRun_AssessesRiskWithElementLabel(t *testing.T) {
	buy := pagetest.Button("Buy now")
	page := &pagetest.Page{Snapshots: []pagetest.Snapshot{
		{URL: "https://shop.example/checkout", Elements: []*pagetest.Element{buy}},
		{URL: "https://shop.example/done"},
	}}
	risk := &recordingRisk{level: entities.RiskHigh}
	model := &scriptedModel{replies: []string{"CLICK 0", `ANSWER "bought"`}}

	answer, err := NewAgent(page, conversation.New("buy", model), WithRiskAssessor(risk)).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "bought", answer)
	assert.Equal(t, []string{"Buy now"}, risk.labels)
	assert.Equal(t, 1, buy.Clicks())
}

func TestRun_ParagraphsToggle(t *testing.T) {
	for _, include := range []bool{true, false} {
		page := &pagetest.Page{Snapshots: []pagetest.Snapshot{
			{URL: "https://a.example/", Elements: []*pagetest.Element{pagetest.Paragraph("body text")}},
		}}
		model := &scriptedModel{replies: []string{`ANSWER "x"`}}
		conv := conversation.New("goal", model)

		_, err := NewAgent(page, conv, WithParagraphs(include)).Run(context.Background())
		require.NoError(t, err)

		prompt := conv.Messages()[1].Content
		if include {
			assert.Contains(t, prompt, "<p id=0>body text</p>")
		} else {
			assert.NotContains(t, prompt, "body text")
		}
	}
}

func TestNewAgent_RunID(t *testing.T) {
	assert.NotEmpty(t, NewAgent(&pagetest.Page{}, &fixedRequester{}).RunID())
	assert.Equal(t, "run-1", NewAgent(&pagetest.Page{}, &fixedRequester{}, WithRunID("run-1")).RunID())
}
