// internal/healer/healer.go
package healer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/browser"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/locator"
	"github.com/xkilldash9x/autoform-cli/internal/retry"
)

// Healer repairs stale catalog selectors offline: it re-discovers each hinted
// control through the looser locator tiers and emits advisory correction
// records. It never mutates the catalog it reads; a maintenance step applies
// the records later.
type Healer struct {
	page   schemas.Page
	cfg    config.HealConfig
	logger *zap.Logger
}

func New(page schemas.Page, cfg config.HealConfig, logger *zap.Logger) *Healer {
	return &Healer{page: page, cfg: cfg, logger: logger.Named("healer")}
}

// HealService navigates to the service's form and checks every hinted
// dimension, collecting a correction record per stale selector. Discovery
// failures are fail-forward: a hint that cannot be healed is logged and
// skipped rather than aborting the pass.
func (h *Healer) HealService(ctx context.Context, svc schemas.ServiceCatalog) ([]schemas.CorrectionRecord, error) {
	if err := h.page.Navigate(ctx, svc.URL); err != nil {
		return nil, retry.Errorf(retry.KindNavigation, "navigate to %q: %v", svc.URL, err)
	}

	var records []schemas.CorrectionRecord
	for _, hint := range svc.Dimensions {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		record, err := h.HealHint(ctx, hint)
		if err != nil {
			h.logger.Warn("Hint could not be healed",
				zap.String("service", svc.Name),
				zap.String("key", hint.Key),
				zap.Error(err),
			)
			continue
		}
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}

// HealHint checks whether a hint's CSS selector still resolves to a visible
// control. A healthy or unhinted selector yields a nil record. A stale one
// triggers re-discovery through aria-label, role-and-name, and nearest-
// interactive text walk, in that order; the replacement selector is confirmed
// against the live page before it is recorded.
func (h *Healer) HealHint(ctx context.Context, hint schemas.FieldHint) (*schemas.CorrectionRecord, error) {
	if hint.CSSSelector == "" {
		return nil, nil
	}

	healthy, err := h.selectorAlive(ctx, hint.CSSSelector)
	if err != nil {
		return nil, retry.Errorf(retry.KindCatalogHeal, "probe %q: %v", hint.CSSSelector, err)
	}
	if healthy {
		return nil, nil
	}

	term := locator.SearchTerm(hint)
	replacement, strategy, err := h.discover(ctx, term)
	if err != nil {
		return nil, err
	}
	if replacement == nil {
		return nil, retry.Errorf(retry.KindStaleSelector,
			"selector %q is stale and no replacement was found for %q", hint.CSSSelector, hint.Key)
	}

	confirmed, err := h.selectorAlive(ctx, replacement.Selector)
	if err != nil || !confirmed {
		return nil, retry.Errorf(retry.KindCatalogHeal,
			"replacement %q for %q did not survive confirmation", replacement.Selector, hint.Key)
	}
	// The liveness probe is instantaneous; a control still animating in can
	// pass it and then vanish. The wait settles the candidate before it is
	// recorded.
	if err := h.page.WaitVisible(ctx, replacement.Selector, h.visibilityWait()); err != nil {
		return nil, retry.Errorf(retry.KindCatalogHeal,
			"replacement %q for %q never settled visible: %v", replacement.Selector, hint.Key, err)
	}

	h.logger.Info("Selector healed",
		zap.String("key", hint.Key),
		zap.String("old", hint.CSSSelector),
		zap.String("new", replacement.Selector),
		zap.String("strategy", string(strategy)),
	)
	return &schemas.CorrectionRecord{
		DimensionKey: hint.Key,
		OldSelector:  hint.CSSSelector,
		NewSelector:  replacement.Selector,
		Strategy:     strategy,
		HealedAt:     time.Now().UTC(),
	}, nil
}

// discover runs the healing ladder: aria-label substring, then role plus
// accessible name over the interactive roles, then the text walk to the
// nearest interactive control.
func (h *Healer) discover(ctx context.Context, term string) (*schemas.Element, schemas.LocatorStrategy, error) {
	type probe struct {
		strategy schemas.LocatorStrategy
		scripts  []string
	}
	probes := []probe{
		{schemas.StrategyAriaLabel, []string{browser.AriaLabelScript(term)}},
		{schemas.StrategyRole, h.roleScripts(term)},
		{schemas.StrategyProximity, []string{browser.NearestInteractiveScript(term)}},
	}

	for _, p := range probes {
		for _, script := range p.scripts {
			var found []schemas.Element
			if err := h.page.Evaluate(ctx, script, &found); err != nil {
				return nil, schemas.StrategyNone, retry.Errorf(retry.KindCatalogHeal, "discovery probe: %v", err)
			}
			for idx := range found {
				if found[idx].Visible {
					return &found[idx], p.strategy, nil
				}
			}
		}
	}
	return nil, schemas.StrategyNone, nil
}

func (h *Healer) selectorAlive(ctx context.Context, css string) (bool, error) {
	found, err := h.page.QueryAll(ctx, css)
	if err != nil {
		return false, err
	}
	for _, e := range found {
		if e.Visible {
			return true, nil
		}
	}
	return false, nil
}

func (h *Healer) visibilityWait() time.Duration {
	if h.cfg.VisibilityWait > 0 {
		return h.cfg.VisibilityWait
	}
	return 3 * time.Second
}

func (h *Healer) roleScripts(term string) []string {
	roles := h.cfg.Roles
	if len(roles) == 0 {
		roles = []string{"checkbox", "switch", "radio", "spinbutton", "combobox", "textbox", "button"}
	}
	scripts := make([]string, 0, len(roles))
	for _, role := range roles {
		scripts = append(scripts, browser.RoleNameScript(role, term))
	}
	return scripts
}
