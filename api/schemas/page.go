// api/schemas/page.go
package schemas

import (
	"context"
	"time"
)

// Rect is an element's bounding rectangle in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is a transient handle to a live control. Selector is a resilient
// CSS selector generated against the current document; it stays valid only
// until the page mutates, which is why handles are never retained across
// pipeline steps.
type Element struct {
	Selector string `json:"selector"`
	Tag      string `json:"tag"`
	Type     string `json:"type,omitempty"`
	Role     string `json:"role,omitempty"`
	Visible  bool   `json:"visible"`
	Rect     Rect   `json:"rect"`
	Text     string `json:"text,omitempty"`
}

// KeyChord is a keyboard shortcut: a key plus active modifiers. Values map to
// the CDP input.DispatchKeyEvent modifiers bitfield.
type KeyChord struct {
	Key       string
	Modifiers KeyModifier
}

// KeyModifier represents keyboard modifiers (Alt, Ctrl, Meta, Shift).
type KeyModifier int

const (
	ModNone  KeyModifier = 0
	ModAlt   KeyModifier = 1
	ModCtrl  KeyModifier = 2
	ModMeta  KeyModifier = 4
	ModShift KeyModifier = 8
)

// Page is the browser-session abstraction the locator, interactor, and
// healer consume. One live page is exclusively owned by the pipeline for a
// run's duration; access is serialized by the cooperative control flow.
type Page interface {
	// Navigate loads a URL and waits for the page to stabilize.
	Navigate(ctx context.Context, url string) error

	// QueryAll returns every element matching the CSS selector, with
	// visibility and geometry resolved. Zero matches is not an error.
	QueryAll(ctx context.Context, css string) ([]Element, error)

	// WaitVisible polls until the selector's first match is visible or the
	// timeout elapses. Guards against selecting a control still animating in.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click dispatches a click on the selector's first match.
	Click(ctx context.Context, selector string) error

	// Type sends text to the selector's first match, character by character.
	Type(ctx context.Context, selector, text string) error

	// PressChord sends a keyboard shortcut to the selector's first match.
	PressChord(ctx context.Context, selector string, chord KeyChord) error

	// SelectOption chooses an option of a native select element by value or
	// visible text.
	SelectOption(ctx context.Context, selector, value string) error

	// Evaluate runs a JavaScript expression against the live document and
	// unmarshals the serializable result into out.
	Evaluate(ctx context.Context, expr string, out any) error

	// Screenshot captures the viewport to the given path.
	Screenshot(ctx context.Context, path string) error

	// FindText invokes the browser's native find-in-page search and returns
	// the bounding rectangle of the best match.
	FindText(ctx context.Context, query string) (Rect, bool, error)

	// ScrollToTop scrolls the page to its stable origin.
	ScrollToTop(ctx context.Context) error
}
