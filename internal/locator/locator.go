// internal/locator/locator.go
package locator

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/browser"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/retry"
)

// errTierMiss signals that a tier produced no usable candidate and the walk
// should continue downward. It never escapes Locate.
var errTierMiss = errors.New("tier produced no visible candidate")

// orderedRoles is the fixed probe order for the role-based tier. Specific
// control roles come before the generic ones so a "Number of instances"
// spinbutton is not shadowed by an unrelated textbox.
var orderedRoles = []string{"checkbox", "switch", "radio", "spinbutton", "combobox", "textbox", "button"}

// Locator resolves a dimension's catalog hint to a live control by walking a
// fixed ladder of strategies: the catalog CSS selector, aria-label substring
// match, label association, role plus accessible name, and finally native
// find-in-page text search with a proximity scan below the match.
type Locator struct {
	page   schemas.Page
	cfg    config.PipelineConfig
	logger *zap.Logger
}

func New(page schemas.Page, cfg config.PipelineConfig, logger *zap.Logger) *Locator {
	return &Locator{page: page, cfg: cfg, logger: logger.Named("locator")}
}

// Locate walks the strategy tiers in order and returns the first control that
// survives the visibility wait. Exhausting every tier yields a
// LOCATOR_NOT_FOUND failure; a tier that matches multiple controls with an
// out-of-range disambiguation index yields LOCATOR_AMBIGUOUS and aborts the
// walk, since trying looser tiers against an ambiguous page risks filling the
// wrong control.
func (l *Locator) Locate(ctx context.Context, hint schemas.FieldHint) (schemas.LocatorResult, error) {
	term := SearchTerm(hint)

	type tier struct {
		strategy schemas.LocatorStrategy
		run      func(context.Context) ([]schemas.Element, error)
	}
	tiers := []tier{
		{schemas.StrategyCSS, func(c context.Context) ([]schemas.Element, error) {
			if hint.CSSSelector == "" {
				return nil, nil
			}
			return l.page.QueryAll(c, hint.CSSSelector)
		}},
		{schemas.StrategyAriaLabel, func(c context.Context) ([]schemas.Element, error) {
			return l.queryScript(c, browser.AriaLabelScript(term))
		}},
		{schemas.StrategyLabel, func(c context.Context) ([]schemas.Element, error) {
			return l.queryScript(c, browser.LabelAssocScript(term))
		}},
		{schemas.StrategyRole, func(c context.Context) ([]schemas.Element, error) {
			for _, role := range orderedRoles {
				found, err := l.queryScript(c, browser.RoleNameScript(role, term))
				if err != nil {
					return nil, err
				}
				if hasVisible(found) {
					return found, nil
				}
			}
			return nil, nil
		}},
		{schemas.StrategyProximity, func(c context.Context) ([]schemas.Element, error) {
			return l.proximityScan(c, term)
		}},
	}

	for _, t := range tiers {
		candidates, err := t.run(ctx)
		if err != nil {
			return schemas.LocatorResult{Status: schemas.StatusFailed}, err
		}

		element, err := l.pick(ctx, candidates, hint)
		if errors.Is(err, errTierMiss) {
			continue
		}
		if err != nil {
			return schemas.LocatorResult{Status: schemas.StatusFailed}, err
		}

		l.logger.Debug("Control located",
			zap.String("key", hint.Key),
			zap.String("strategy", string(t.strategy)),
			zap.String("selector", element.Selector),
		)
		return schemas.LocatorResult{
			Status:    schemas.StatusSuccess,
			Element:   element,
			FieldType: fieldType(hint, element),
			Strategy:  t.strategy,
		}, nil
	}

	return schemas.LocatorResult{Status: schemas.StatusFailed},
		retry.Errorf(retry.KindLocatorNotFound, "no control found for dimension %q (term %q)", hint.Key, term)
}

// pick filters to visible candidates, applies the disambiguation index, and
// confirms the winner is settled on screen before handing it out.
func (l *Locator) pick(ctx context.Context, candidates []schemas.Element, hint schemas.FieldHint) (schemas.Element, error) {
	visible := candidates[:0:0]
	for _, c := range candidates {
		if c.Visible {
			visible = append(visible, c)
		}
	}
	if len(visible) == 0 {
		return schemas.Element{}, errTierMiss
	}

	index := hint.DisambiguationIndex
	if index >= len(visible) {
		return schemas.Element{}, retry.Errorf(retry.KindLocatorAmbiguous,
			"dimension %q matched %d controls but disambiguation index is %d", hint.Key, len(visible), index)
	}
	if len(visible) > 1 && hint.DisambiguationIndex == 0 {
		l.logger.Debug("Multiple visible matches, taking the first",
			zap.String("key", hint.Key),
			zap.Int("matches", len(visible)),
		)
	}

	element := visible[index]
	if err := l.page.WaitVisible(ctx, element.Selector, l.visibilityWait()); err != nil {
		// The generated selector went stale between query and wait; let the
		// walk try a looser tier.
		l.logger.Debug("Candidate failed visibility wait",
			zap.String("selector", element.Selector),
			zap.Error(err),
		)
		return schemas.Element{}, errTierMiss
	}
	return element, nil
}

// proximityScan is the last-resort tier: scroll to the page's stable origin,
// find the hint's text anywhere on the page, then take the first interactive
// control inside the band below its bounding rectangle. The scroll is load-
// bearing: FindText reports viewport-relative geometry while the band filter
// measures document coordinates, and the two agree only at origin.
func (l *Locator) proximityScan(ctx context.Context, term string) ([]schemas.Element, error) {
	if err := l.page.ScrollToTop(ctx); err != nil {
		return nil, err
	}
	rect, found, err := l.page.FindText(ctx, term)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return l.queryScript(ctx, browser.BandScript(rect.Y, l.bandPx()))
}

func (l *Locator) queryScript(ctx context.Context, script string) ([]schemas.Element, error) {
	var out []schemas.Element
	if err := l.page.Evaluate(ctx, script, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Locator) visibilityWait() time.Duration {
	if l.cfg.VisibilityWait > 0 {
		return l.cfg.VisibilityWait
	}
	return 3 * time.Second
}

func (l *Locator) bandPx() float64 {
	if l.cfg.ProximityBandPx > 0 {
		return l.cfg.ProximityBandPx
	}
	return 150
}

func hasVisible(elements []schemas.Element) bool {
	for _, e := range elements {
		if e.Visible {
			return true
		}
	}
	return false
}

// SearchTerm derives the human-readable text the label tiers match against:
// the catalog's fallback label when present, otherwise the dimension key with
// its separators spaced out. The healer shares this derivation so a healed
// selector is discovered against the same text a live run would use.
func SearchTerm(hint schemas.FieldHint) string {
	if hint.FallbackLabel != "" {
		return hint.FallbackLabel
	}
	term := strings.NewReplacer("_", " ", "-", " ").Replace(hint.Key)
	return strings.TrimSpace(term)
}

// fieldType prefers the catalog's declared type and falls back to inferring
// one from the located element's tag, input type, and role.
func fieldType(hint schemas.FieldHint, element schemas.Element) schemas.FieldType {
	if hint.FieldType != "" {
		return schemas.NormalizeFieldType(hint.FieldType)
	}
	switch {
	case element.Tag == "select" || element.Role == "combobox":
		if element.Tag == "select" {
			return schemas.FieldSelect
		}
		return schemas.FieldCombobox
	case element.Type == "checkbox" || element.Role == "checkbox" || element.Role == "switch":
		return schemas.FieldToggle
	case element.Type == "radio" || element.Role == "radio":
		return schemas.FieldRadio
	case element.Type == "number" || element.Role == "spinbutton":
		return schemas.FieldNumber
	default:
		return schemas.FieldText
	}
}
