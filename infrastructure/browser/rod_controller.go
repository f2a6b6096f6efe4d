package browser

import (
	"browser_agent/domain/interfaces"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

type rodBrowser struct {
	browser *rod.Browser
	lnch    *launcher.Launcher
	stealth bool
	logger  *logrus.Logger
}

// NewRod - launches a local Chrome through rod's launcher and connects to it
func NewRod(opts Options) (interfaces.Browser, error) {
	logger := opts.logger()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if opts.BinaryPath != "" {
		l = l.Bin(opts.BinaryPath)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	wsURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	logger.WithFields(logrus.Fields{"url": wsURL, "stealth": opts.Stealth}).Info("Launched local chrome")

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &rodBrowser{browser: b, lnch: l, stealth: opts.Stealth, logger: logger}, nil
}

func (r *rodBrowser) NewPage(ctx context.Context, url string) (interfaces.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if r.stealth {
		page, err = stealth.Page(r.browser)
	} else {
		page, err = r.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	r.logger.Infof("Navigating to: %s", url)
	if err := page.Context(ctx).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return &rodPage{page: page, logger: r.logger}, nil
}

func (r *rodBrowser) Close() error {
	err := r.browser.Close()
	r.lnch.Kill()
	r.lnch.Cleanup()
	return err
}

type rodPage struct {
	page   *rod.Page
	logger *logrus.Logger
	nav    navigationSlot
}

// armNavigation subscribes to the next load event before an action fires, so
// a navigation that completes quickly is not missed by WaitForStability.
func (p *rodPage) armNavigation() {
	ctx, cancel := context.WithCancel(context.Background())
	nav := newNavigation(cancel)
	wait := p.page.Context(ctx).WaitNavigation(proto.PageLifecycleEventNameLoad)
	go func() {
		wait()
		if ctx.Err() == nil {
			nav.fire()
		}
	}()

	p.nav.arm(nav)
}

func (p *rodPage) CurrentURL(ctx context.Context) (string, error) {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (p *rodPage) WaitForStability(ctx context.Context, timeout time.Duration) error {
	if nav := p.nav.take(); nav != nil {
		p.logger.Debug("Waiting for navigation armed by the last action")
		return nav.await(ctx, timeout)
	}

	err := p.page.Context(ctx).Timeout(timeout).WaitLoad()
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return nil
	}
	return err
}

func (p *rodPage) QueryElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	found, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]interfaces.Element, len(found))
	for i, el := range found {
		elements[i] = &rodElement{el: el, page: p}
	}
	return elements, nil
}

type rodElement struct {
	el   *rod.Element
	page *rodPage
}

func (e *rodElement) TagName(ctx context.Context) (string, error) {
	v, err := e.el.Context(ctx).Property("tagName")
	if err != nil {
		return "", err
	}
	return v.Str(), nil
}

func (e *rodElement) InnerText(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e *rodElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *rodElement) HasDescendant(ctx context.Context, selector string) (bool, error) {
	found, err := e.el.Context(ctx).Elements(selector)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (e *rodElement) Click(ctx context.Context) error {
	e.page.armNavigation()
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		e.page.nav.disarm()
		return err
	}
	return nil
}

func (e *rodElement) TypeText(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

func (e *rodElement) PressKey(ctx context.Context, key string) error {
	k, ok := rodKeys[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	e.page.armNavigation()
	if err := e.el.Context(ctx).Type(k); err != nil {
		e.page.nav.disarm()
		return err
	}
	return nil
}

var rodKeys = map[string]input.Key{
	"enter":     input.Enter,
	"tab":       input.Tab,
	"escape":    input.Escape,
	"backspace": input.Backspace,
}
