package browser

import (
	"browser_agent/infrastructure/logging"

	"github.com/sirupsen/logrus"
)

// Options holds launch settings shared by every backend. Each backend
// ignores the fields it has no use for.
type Options struct {
	Headless bool
	// Stealth patches common automation fingerprints (rod)
	Stealth bool
	// DriverPath locates chromedriver (selenium)
	DriverPath string
	// DriverPort is the local chromedriver port (selenium)
	DriverPort int
	// BinaryPath overrides browser discovery
	BinaryPath string
	// UserDataDir keeps cookies and storage between runs when set
	UserDataDir string
	Logger      *logrus.Logger
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.Discard()
}

// chromeArgs are the launch flags every Chromium-based backend passes
var chromeArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--disable-popup-blocking",
	"--disable-infobars",
	"--disable-notifications",
	"--no-sandbox",
}
