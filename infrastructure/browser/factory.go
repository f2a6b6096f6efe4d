package browser

import (
	"browser_agent/domain/interfaces"
	"browser_agent/infrastructure/config"
	"fmt"

	"github.com/sirupsen/logrus"
)

// New launches the configured backend
func New(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.Browser, error) {
	opts := Options{
		Headless:    cfg.Headless,
		Stealth:     cfg.Stealth,
		DriverPath:  cfg.DriverPath,
		DriverPort:  cfg.DriverPort,
		BinaryPath:  cfg.BinaryPath,
		UserDataDir: cfg.UserDataDir,
		Logger:      logger,
	}

	switch cfg.Backend {
	case config.BackendPlaywright, "":
		return NewPlaywright(opts)
	case config.BackendSelenium:
		return NewSelenium(opts)
	case config.BackendRod:
		return NewRod(opts)
	case config.BackendChromedp:
		return NewChromedp(opts)
	default:
		return nil, fmt.Errorf("unknown browser backend %q", cfg.Backend)
	}
}
