package browser

import (
	"browser_agent/domain/interfaces"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/sirupsen/logrus"
)

type chromedpBrowser struct {
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *logrus.Logger
}

// NewChromedp - starts Chrome over the DevTools protocol
func NewChromedp(opts Options) (interfaces.Browser, error) {
	logger := opts.logger()

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1280, 720),
	)
	if opts.BinaryPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.BinaryPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Errorf),
	)

	// first Run starts the browser
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &chromedpBrowser{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

func (c *chromedpBrowser) NewPage(ctx context.Context, url string) (interfaces.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)

	if err := ctx.Err(); err != nil {
		tabCancel()
		return nil, err
	}

	// the first Run on a tab must use the tab's own context; it owns the target
	c.logger.Infof("Navigating to: %s", url)
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return &chromedpPage{tabCtx: tabCtx, logger: c.logger}, nil
}

func (c *chromedpBrowser) Close() error {
	err := chromedp.Cancel(c.browserCtx)
	c.browserCancel()
	c.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWith runs actions on the tab, abandoning them when the caller's ctx ends
func runWith(ctx, tabCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type chromedpPage struct {
	tabCtx context.Context
	logger *logrus.Logger
	nav    navigationSlot
}

// armNavigation listens for the tab's next load event before an action fires.
func (p *chromedpPage) armNavigation() {
	ctx, cancel := context.WithCancel(p.tabCtx)
	nav := newNavigation(cancel)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			nav.fire()
		}
	})
	p.nav.arm(nav)
}

func (p *chromedpPage) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := runWith(ctx, p.tabCtx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (p *chromedpPage) WaitForStability(ctx context.Context, timeout time.Duration) error {
	if nav := p.nav.take(); nav != nil {
		p.logger.Debug("Waiting for navigation armed by the last action")
		return nav.await(ctx, timeout)
	}

	waitCtx, cancel := context.WithTimeout(p.tabCtx, timeout)
	defer cancel()

	err := runWith(ctx, waitCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (p *chromedpPage) QueryElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	var nodes []*cdp.Node
	if err := runWith(ctx, p.tabCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	elements := make([]interfaces.Element, len(nodes))
	for i, n := range nodes {
		elements[i] = &chromedpElement{tabCtx: p.tabCtx, node: n, page: p}
	}
	return elements, nil
}

type chromedpElement struct {
	tabCtx context.Context
	node   *cdp.Node
	page   *chromedpPage
}

func (e *chromedpElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromedpElement) TagName(ctx context.Context) (string, error) {
	return e.node.NodeName, nil
}

func (e *chromedpElement) InnerText(ctx context.Context) (string, error) {
	var text string
	if err := runWith(ctx, e.tabCtx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}

func (e *chromedpElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	if err := runWith(ctx, e.tabCtx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (e *chromedpElement) HasDescendant(ctx context.Context, selector string) (bool, error) {
	var nodes []*cdp.Node
	err := runWith(ctx, e.tabCtx, chromedp.Nodes(selector, &nodes,
		chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (e *chromedpElement) Click(ctx context.Context) error {
	e.page.armNavigation()
	if err := runWith(ctx, e.tabCtx, chromedp.MouseClickNode(e.node)); err != nil {
		e.page.nav.disarm()
		return err
	}
	return nil
}

func (e *chromedpElement) TypeText(ctx context.Context, text string) error {
	return runWith(ctx, e.tabCtx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *chromedpElement) PressKey(ctx context.Context, key string) error {
	k, ok := chromedpKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	e.page.armNavigation()
	if err := runWith(ctx, e.tabCtx, chromedp.SendKeys(e.ids(), k, chromedp.ByNodeID)); err != nil {
		e.page.nav.disarm()
		return err
	}
	return nil
}

var chromedpKeys = map[string]string{
	"enter":     kb.Enter,
	"tab":       kb.Tab,
	"escape":    kb.Escape,
	"backspace": kb.Backspace,
}
