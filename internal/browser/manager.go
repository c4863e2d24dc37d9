// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/internal/config"
)

// Manager owns the browser process lifecycle. It builds the exec allocator
// from configuration and hands out sessions; the pipeline owns exactly one
// session for a run's duration.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu       sync.Mutex
	sessions []*Session
}

// NewManager creates a browser manager rooted at ctx.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)
	return &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// execOptions translates the application config into chromedp allocator
// options.
func execOptions(cfg *config.Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems and in containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
	)

	if !cfg.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Browser.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if w, h := cfg.Browser.Viewport["width"], cfg.Browser.Viewport["height"]; w > 0 && h > 0 {
		opts = append(opts, chromedp.WindowSize(w, h))
	}

	for _, arg := range cfg.Browser.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// NewSession opens a fresh tab and returns the session wrapper around it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Force target creation so failures surface here, not on first use.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser target: %w", err)
	}

	s := newSession(tabCtx, tabCancel, m.cfg, m.logger)
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()

	m.logger.Debug("Browser session created", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes all sessions and tears down the browser process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	m.allocCancel()
	m.logger.Debug("Browser manager shut down.")
}
