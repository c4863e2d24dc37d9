// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/config"
)

// Session is one live browser tab and implements schemas.Page. A session is
// exclusively owned by one pipeline run; access is serialized by the
// cooperative control flow, so no locking guards the CDP calls themselves.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	closeOnce sync.Once
}

// Compile-time interface check.
var _ schemas.Page = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("session").With(zap.String("session_id", id)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close tears down the tab.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		s.cancel()
	})
}

// runActions executes chromedp actions respecting both the session lifetime
// and the caller's context.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads a URL, waits for the document to be ready, then waits the
// configured post-load quiet period so late-rendering controls settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))

	navTimeout := s.cfg.Network.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(ctx, navTimeout)
	defer navCancel()

	if err := s.runActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		return fmt.Errorf("navigation failed for '%s': %w", url, err)
	}

	if wait := s.cfg.Network.PostLoadWait; wait > 0 {
		if err := s.runActions(ctx, chromedp.Sleep(wait)); err != nil {
			return err
		}
	}
	return nil
}

// QueryAll evaluates the matching elements with visibility and geometry
// resolved page-side. Zero matches is not an error.
func (s *Session) QueryAll(ctx context.Context, css string) ([]schemas.Element, error) {
	var els []schemas.Element
	if err := s.Evaluate(ctx, QueryAllScript(css), &els); err != nil {
		return nil, fmt.Errorf("query '%s' failed: %w", css, err)
	}
	return els, nil
}

// WaitVisible polls until the selector's first match is visible.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.runActions(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element '%s' did not become visible within %s: %w", selector, timeout, err)
	}
	return nil
}

// Click scrolls the element into view and dispatches a click.
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.runActions(ctx,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("click failed for '%s': %w", selector, err)
	}
	return nil
}

// Type sends text to the element character by character, with the configured
// inter-key delay.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	delay := s.cfg.Browser.TypeDelay
	actions := []chromedp.Action{chromedp.Focus(selector, chromedp.ByQuery)}
	for _, r := range text {
		actions = append(actions, chromedp.SendKeys(selector, string(r), chromedp.ByQuery))
		if delay > 0 {
			actions = append(actions, chromedp.Sleep(delay))
		}
	}
	if err := s.runActions(ctx, actions...); err != nil {
		return fmt.Errorf("type failed for '%s': %w", selector, err)
	}
	return nil
}

// PressChord focuses the element and sends a keyboard shortcut.
func (s *Session) PressChord(ctx context.Context, selector string, chord schemas.KeyChord) error {
	if err := s.runActions(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.KeyEvent(chord.Key, chromedp.KeyModifiers(input.Modifier(chord.Modifiers))),
	); err != nil {
		return fmt.Errorf("key chord failed for '%s': %w", selector, err)
	}
	return nil
}

// SelectOption chooses an option of a native select element by value or
// visible text, then fires the input and change events frameworks listen for.
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	var found bool
	if err := s.Evaluate(ctx, SelectOptionScript(selector, value), &found); err != nil {
		return fmt.Errorf("select failed for '%s': %w", selector, err)
	}
	if !found {
		return fmt.Errorf("option '%s' not found in select '%s'", value, selector)
	}
	return nil
}

// Evaluate runs a JavaScript expression and unmarshals the result into out.
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	return s.runActions(ctx, chromedp.Evaluate(expr, out))
}

// Screenshot captures the viewport to the given path, creating parent
// directories as needed.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.runActions(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("screenshot capture failed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	s.logger.Debug("Screenshot captured", zap.String("path", path))
	return nil
}

// FindText runs the browser's native DOM text search and returns the bounding
// rectangle of the best match. A match without renderable geometry falls
// through to the next result.
func (s *Session) FindText(ctx context.Context, query string) (schemas.Rect, bool, error) {
	var rect schemas.Rect
	found := false

	err := s.runActions(ctx, chromedp.ActionFunc(func(c context.Context) error {
		// The search index requires the agent to know the document first.
		if _, err := dom.GetDocument().Do(c); err != nil {
			return err
		}

		searchID, count, err := dom.PerformSearch(query).Do(c)
		if err != nil {
			return err
		}
		defer dom.DiscardSearchResults(searchID).Do(c)

		if count == 0 {
			return nil
		}

		limit := count
		if limit > 5 {
			limit = 5
		}
		ids, err := dom.GetSearchResults(searchID, 0, limit).Do(c)
		if err != nil {
			return err
		}

		for _, id := range ids {
			box, err := dom.GetBoxModel().WithNodeID(id).Do(c)
			if err != nil || box == nil || len(box.Content) < 8 {
				continue
			}
			rect = rectFromQuad(box.Content)
			found = true
			return nil
		}
		return nil
	}))
	if err != nil {
		return schemas.Rect{}, false, fmt.Errorf("find-in-page failed for '%s': %w", query, err)
	}
	return rect, found, nil
}

// ScrollToTop scrolls the page to its stable origin.
func (s *Session) ScrollToTop(ctx context.Context) error {
	return s.Evaluate(ctx, `window.scrollTo(0, 0)`, nil)
}

// rectFromQuad converts a CDP content quad (x1,y1,...,x4,y4) to a Rect.
func rectFromQuad(quad []float64) schemas.Rect {
	minX, minY := quad[0], quad[1]
	maxX, maxY := quad[0], quad[1]
	for i := 2; i+1 < len(quad); i += 2 {
		if quad[i] < minX {
			minX = quad[i]
		}
		if quad[i] > maxX {
			maxX = quad[i]
		}
		if quad[i+1] < minY {
			minY = quad[i+1]
		}
		if quad[i+1] > maxY {
			maxY = quad[i+1]
		}
	}
	return schemas.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
