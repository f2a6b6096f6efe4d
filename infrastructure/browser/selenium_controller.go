package browser

import (
	"browser_agent/domain/interfaces"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const (
	defaultDriverPort = 9515
	readyPollInterval = 100 * time.Millisecond
)

type seleniumBrowser struct {
	wd      selenium.WebDriver
	service *selenium.Service
	logger  *logrus.Logger
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
		return "", fmt.Errorf("chromedriver not found at %s", configured)
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
	}
	if home, err := os.UserHomeDir(); err == nil {
		commonPaths = append(commonPaths, filepath.Join(home, "bin", "chromedriver"))
	}

	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("chromedriver not found. Please install it or set browser.driver_path")
}

// findChromeBinary - finds Chrome/Chromium browser executable path, or "" to let the driver decide
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// NewSelenium - starts chromedriver and opens a WebDriver session
func NewSelenium(opts Options) (interfaces.Browser, error) {
	logger := opts.logger()

	driverPath, err := findChromeDriver(opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.Infof("Using ChromeDriver at: %s", driverPath)

	port := opts.DriverPort
	if port == 0 {
		port = defaultDriverPort
	}

	service, err := selenium.NewChromeDriverService(driverPath, port)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	args := append([]string{}, chromeArgs...)
	if opts.Headless {
		args = append(args, "--headless=new")
	}
	if opts.UserDataDir != "" {
		if err := os.MkdirAll(opts.UserDataDir, 0755); err != nil {
			_ = service.Stop()
			return nil, fmt.Errorf("failed to create user data directory: %w", err)
		}
		args = append(args, "--user-data-dir="+opts.UserDataDir)
		logger.Infof("Using user data directory: %s (sessions will be preserved)", opts.UserDataDir)
	}

	chromeCaps := chrome.Capabilities{Args: args}
	if binary := findChromeBinary(opts.BinaryPath); binary != "" {
		logger.Infof("Using Chrome binary at: %s", binary)
		chromeCaps.Path = binary
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", port))
	if err != nil {
		_ = service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver: Chrome browser not found. Please install Google Chrome or set browser.binary_path. Error: %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &seleniumBrowser{wd: wd, service: service, logger: logger}, nil
}

// NewPage - navigates the session's window; WebDriver drives one window at a time
func (s *seleniumBrowser) NewPage(ctx context.Context, url string) (interfaces.Page, error) {
	s.logger.Infof("Navigating to: %s", url)
	if err := s.wd.Get(url); err != nil {
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return &seleniumPage{wd: s.wd}, nil
}

func (s *seleniumBrowser) Close() error {
	return errors.Join(s.wd.Quit(), s.service.Stop())
}

type seleniumPage struct {
	wd selenium.WebDriver
}

func (p *seleniumPage) CurrentURL(ctx context.Context) (string, error) {
	return p.wd.CurrentURL()
}

// WaitForStability polls document.readyState until it is complete or timeout passes
func (p *seleniumPage) WaitForStability(ctx context.Context, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		state, err := p.wd.ExecuteScript("return document.readyState;", nil)
		if err != nil {
			return err
		}
		if state == "complete" {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
		}
	}
}

func (p *seleniumPage) QueryElements(ctx context.Context, selector string) ([]interfaces.Element, error) {
	found, err := p.wd.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	elements := make([]interfaces.Element, len(found))
	for i, we := range found {
		elements[i] = &seleniumElement{wd: p.wd, el: we}
	}
	return elements, nil
}

type seleniumElement struct {
	wd selenium.WebDriver
	el selenium.WebElement
}

func (e *seleniumElement) TagName(ctx context.Context) (string, error) {
	return e.el.TagName()
}

func (e *seleniumElement) InnerText(ctx context.Context) (string, error) {
	return e.el.Text()
}

func (e *seleniumElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.wd.ExecuteScript("return arguments[0].getAttribute(arguments[1]);", []interface{}{e.el, name})
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

func (e *seleniumElement) HasDescendant(ctx context.Context, selector string) (bool, error) {
	found, err := e.el.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (e *seleniumElement) Click(ctx context.Context) error {
	return e.el.Click()
}

func (e *seleniumElement) TypeText(ctx context.Context, text string) error {
	return e.el.SendKeys(text)
}

func (e *seleniumElement) PressKey(ctx context.Context, key string) error {
	return e.el.SendKeys(seleniumKey(key))
}

// seleniumKey maps key names to WebDriver key codes; anything else is sent as typed
func seleniumKey(key string) string {
	switch strings.ToLower(key) {
	case "enter":
		return selenium.EnterKey
	case "tab":
		return selenium.TabKey
	case "escape":
		return selenium.EscapeKey
	case "backspace":
		return selenium.BackspaceKey
	default:
		return key
	}
}
