package interfaces

import (
	"context"
	"time"
)

// Browser defines the interface for a running browser process
type Browser interface {
	// NewPage opens a page and navigates it to url
	NewPage(ctx context.Context, url string) (Page, error)

	// Close releases the browser and everything it launched
	Close() error
}

// Page defines the interface for the single page the agent drives
type Page interface {
	// CurrentURL returns the page's current URL
	CurrentURL(ctx context.Context) (string, error)

	// WaitForStability waits for pending navigation to settle, at most timeout.
	// Reaching the ceiling is not an error.
	WaitForStability(ctx context.Context, timeout time.Duration) error

	// QueryElements enumerates elements matching selector in document order
	QueryElements(ctx context.Context, selector string) ([]Element, error)
}

// Element defines the interface for one enumerated element handle.
// Handles are only valid until the next enumeration.
type Element interface {
	// TagName returns the element's tag name
	TagName(ctx context.Context) (string, error)

	// InnerText returns the rendered text, empty when there is none
	InnerText(ctx context.Context) (string, error)

	// Attribute returns the attribute value and whether it is present
	Attribute(ctx context.Context, name string) (string, bool, error)

	// HasDescendant reports whether any descendant matches selector
	HasDescendant(ctx context.Context, selector string) (bool, error)

	// Click clicks the element
	Click(ctx context.Context) error

	// TypeText types text into the element
	TypeText(ctx context.Context, text string) error

	// PressKey dispatches a named key press, e.g. "Enter"
	PressKey(ctx context.Context, key string) error
}
