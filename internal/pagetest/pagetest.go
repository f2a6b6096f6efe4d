// Package pagetest provides in-memory pages and elements for tests of code
// that drives a browser through domain/interfaces.
package pagetest

import (
	"browser_agent/domain/interfaces"
	"context"
	"fmt"
	"sync"
	"time"
)

// Element is a scripted element handle. Nil Attrs means no attributes.
type Element struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Headings bool

	// Err, when set, is returned by every read.
	Err error

	mu      sync.Mutex
	page    *Page
	clicks  int
	typed   []string
	pressed []string
}

var _ interfaces.Element = (*Element)(nil)

func Button(text string) *Element { return &Element{Tag: "BUTTON", Text: text} }

func Paragraph(text string) *Element { return &Element{Tag: "P", Text: text} }

func Image(alt string) *Element {
	return &Element{Tag: "IMG", Attrs: map[string]string{"alt": alt}}
}

func Link(text, href string) *Element {
	return &Element{Tag: "A", Text: text, Attrs: map[string]string{"href": href}}
}

func Input(placeholder string) *Element {
	return &Element{Tag: "INPUT", Attrs: map[string]string{"placeholder": placeholder}}
}

func (e *Element) TagName(ctx context.Context) (string, error) {
	return e.Tag, e.Err
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	return e.Text, e.Err
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if e.Err != nil {
		return "", false, e.Err
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) HasDescendant(ctx context.Context, selector string) (bool, error) {
	return e.Headings, e.Err
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	e.clicks++
	page := e.page
	e.mu.Unlock()
	page.record("click")
	return nil
}

func (e *Element) TypeText(ctx context.Context, text string) error {
	e.mu.Lock()
	e.typed = append(e.typed, text)
	page := e.page
	e.mu.Unlock()
	page.record("type")
	return nil
}

func (e *Element) PressKey(ctx context.Context, key string) error {
	e.mu.Lock()
	e.pressed = append(e.pressed, key)
	page := e.page
	e.mu.Unlock()
	page.record("press")
	return nil
}

// Clicks returns how many times the element was clicked
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Typed returns every string typed into the element
func (e *Element) Typed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.typed...)
}

// Pressed returns every key pressed on the element
func (e *Element) Pressed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.pressed...)
}

// Snapshot is what the page shows during one cycle
type Snapshot struct {
	URL      string
	Elements []*Element
}

// Page replays snapshots, advancing one per QueryElements call. The last
// snapshot repeats once the script runs out.
type Page struct {
	Snapshots []Snapshot

	// WaitErr, QueryErr and URLErr inject failures into the matching call.
	WaitErr  error
	QueryErr error
	URLErr   error

	mu      sync.Mutex
	next    int
	current int
	waits   []time.Duration
	calls   []string
}

// record is a no-op for elements never handed out by a Page
func (p *Page) record(call string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

var _ interfaces.Page = (*Page)(nil)

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	if p.URLErr != nil {
		return "", p.URLErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Snapshots) == 0 {
		return "", fmt.Errorf("pagetest: no snapshots")
	}
	return p.Snapshots[p.current].URL, nil
}

func (p *Page) WaitForStability(ctx context.Context, timeout time.Duration) error {
	p.mu.Lock()
	p.waits = append(p.waits, timeout)
	p.calls = append(p.calls, "wait")
	p.mu.Unlock()
	return p.WaitErr
}

func (p *Page) QueryElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Snapshots) == 0 {
		return nil, fmt.Errorf("pagetest: no snapshots")
	}
	p.current = min(p.next, len(p.Snapshots)-1)
	p.next++
	p.calls = append(p.calls, "query")

	out := make([]interfaces.Element, len(p.Snapshots[p.current].Elements))
	for i, el := range p.Snapshots[p.current].Elements {
		el.mu.Lock()
		el.page = p
		el.mu.Unlock()
		out[i] = el
	}
	return out, nil
}

// Waits returns the timeout passed to each WaitForStability call
func (p *Page) Waits() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.waits...)
}

// Calls returns the page traffic in order: "wait" and "query" for page calls,
// "click", "type" and "press" for actions on elements the page handed out.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Browser hands out Page for every NewPage call and records what it was asked
type Browser struct {
	Page       *Page
	NewPageErr error

	mu     sync.Mutex
	opened []string
	closed bool
}

var _ interfaces.Browser = (*Browser)(nil)

func (b *Browser) NewPage(ctx context.Context, url string) (interfaces.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, url)
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	return b.Page, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Opened returns the URLs passed to NewPage
func (b *Browser) Opened() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.opened...)
}

func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
