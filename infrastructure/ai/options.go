package ai

import (
	"browser_agent/infrastructure/logging"
	"time"

	"github.com/sirupsen/logrus"
)

type clientOptions struct {
	baseURL    string
	maxRetries int
	timeout    time.Duration
	logger     *logrus.Logger
}

// ClientOption configures a provider client
type ClientOption func(*clientOptions)

// WithBaseURL points the client at an OpenAI-compatible or proxy endpoint
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

func WithMaxRetries(n int) ClientOption {
	return func(o *clientOptions) {
		o.maxRetries = n
	}
}

// WithTimeout bounds each request; 0 leaves it to the caller's context
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

func WithLogger(logger *logrus.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

func buildOptions(opts []ClientOption) clientOptions {
	o := clientOptions{maxRetries: 2}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	return o
}
