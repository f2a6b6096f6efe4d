package browser

import (
	"browser_agent/domain/interfaces"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const (
	storageStateFile = "state.json"
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type playwrightBrowser struct {
	pw          *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	storagePath string
	logger      *logrus.Logger
}

// NewPlaywright - launches Chromium through playwright
func NewPlaywright(opts Options) (interfaces.Browser, error) {
	logger := opts.logger()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     chromeArgs,
	}
	if opts.BinaryPath != "" {
		launch.ExecutablePath = playwright.String(opts.BinaryPath)
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		UserAgent: playwright.String(userAgent),
	}

	var storagePath string
	if opts.UserDataDir != "" {
		if err := os.MkdirAll(opts.UserDataDir, 0755); err != nil {
			_ = browser.Close()
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to create user data directory: %w", err)
		}
		storagePath = filepath.Join(opts.UserDataDir, storageStateFile)
		if _, err := os.Stat(storagePath); err == nil {
			contextOptions.StorageStatePath = playwright.String(storagePath)
			logger.Infof("Restoring browser state from: %s", storagePath)
		}
	}

	bctx, err := browser.NewContext(contextOptions)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	return &playwrightBrowser{
		pw:          pw,
		browser:     browser,
		context:     bctx,
		storagePath: storagePath,
		logger:      logger,
	}, nil
}

// NewPage - opens a tab and navigates it
func (b *playwrightBrowser) NewPage(ctx context.Context, url string) (interfaces.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	b.logger.Infof("Navigating to: %s", url)
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return &playwrightPage{page: page}, nil
}

// Close - saves state when a user data dir is configured, then shuts everything down
func (b *playwrightBrowser) Close() error {
	var errs []error

	if b.storagePath != "" {
		if _, err := b.context.StorageState(b.storagePath); err != nil && !isClosed(err) {
			errs = append(errs, fmt.Errorf("failed to save browser state: %w", err))
		}
	}
	if err := b.context.Close(); err != nil && !isClosed(err) {
		errs = append(errs, fmt.Errorf("failed to close context: %w", err))
	}
	if err := b.browser.Close(); err != nil && !isClosed(err) {
		errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

func isClosed(err error) bool {
	return strings.Contains(err.Error(), "closed")
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) CurrentURL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) WaitForStability(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateLoad,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return nil
	}
	return err
}

func (p *playwrightPage) QueryElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]interfaces.Element, len(handles))
	for i, h := range handles {
		elements[i] = &playwrightElement{handle: h}
	}
	return elements, nil
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) TagName(ctx context.Context) (string, error) {
	v, err := e.handle.Evaluate("el => el.tagName")
	if err != nil {
		return "", err
	}
	tag, _ := v.(string)
	return tag, nil
}

func (e *playwrightElement) InnerText(ctx context.Context) (string, error) {
	return e.handle.InnerText()
}

// Attribute evaluates getAttribute directly; GetAttribute cannot tell an
// absent attribute from an empty one.
func (e *playwrightElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.handle.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (e *playwrightElement) HasDescendant(ctx context.Context, selector string) (bool, error) {
	found, err := e.handle.QuerySelector(selector)
	if err != nil {
		return false, err
	}
	return found != nil, nil
}

func (e *playwrightElement) Click(ctx context.Context) error {
	return e.handle.Click()
}

func (e *playwrightElement) TypeText(ctx context.Context, text string) error {
	return e.handle.Type(text)
}

func (e *playwrightElement) PressKey(ctx context.Context, key string) error {
	return e.handle.Press(key)
}
