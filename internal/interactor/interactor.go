// internal/interactor/interactor.go
package interactor

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/browser"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/retry"
)

// Interactor writes a resolved value into a located control and verifies the
// write took effect. One strategy per field type; the whole strategy plus its
// verification read-back forms a single retriable attempt.
type Interactor struct {
	page   schemas.Page
	cfg    *config.Config
	logger *zap.Logger
}

func New(page schemas.Page, cfg *config.Config, logger *zap.Logger) *Interactor {
	return &Interactor{page: page, cfg: cfg, logger: logger.Named("interactor")}
}

// Fill runs the fill-and-verify engagement for one dimension under the shared
// retry policy. Exhaustion on an optional dimension degrades to skipped; a
// required one fails with a best-effort diagnostic screenshot. RetriesUsed is
// always attempts-1, so a first-try success reports 0. The terminal error is
// returned alongside the result so the caller can classify its kind.
func (i *Interactor) Fill(ctx context.Context, key, value string, hint schemas.FieldHint, located schemas.LocatorResult) (schemas.FillResult, error) {
	opts := retry.Options{
		StepName:   fmt.Sprintf("fill:%s", key),
		MaxRetries: i.cfg.Pipeline.MaxRetries,
		Delay:      i.cfg.Pipeline.RetryDelay,
	}

	verified := false
	attempts, err := retry.WithRetry(ctx, i.logger, opts, func(c context.Context) error {
		v, fillErr := i.fillOnce(c, value, hint, located)
		verified = v
		return fillErr
	})
	retriesUsed := attempts - 1
	if retriesUsed < 0 {
		retriesUsed = 0
	}

	if err == nil {
		return schemas.FillResult{
			Status:      schemas.StatusSuccess,
			Message:     fmt.Sprintf("filled via %s strategy", located.FieldType),
			RetriesUsed: retriesUsed,
			Verified:    verified,
		}, nil
	}

	result := schemas.FillResult{
		Message:     err.Error(),
		RetriesUsed: retriesUsed,
	}
	if retry.Categorize(err).ShouldScreenshot {
		result.Screenshot = i.captureScreenshot(ctx, key)
	}
	if hint.Required {
		result.Status = schemas.StatusFailed
	} else {
		result.Status = schemas.StatusSkipped
		result.Message = fmt.Sprintf("optional dimension not filled: %v", err)
	}
	return result, err
}

// fillOnce executes one attempt: the type-specific write strategy followed by
// its verification read-back. The returned bool reports whether verification
// actually confirmed the value, as opposed to being assumed or skipped.
func (i *Interactor) fillOnce(ctx context.Context, value string, hint schemas.FieldHint, located schemas.LocatorResult) (bool, error) {
	selector := located.Element.Selector

	switch located.FieldType {
	case schemas.FieldNumber, schemas.FieldText:
		if err := i.fillText(ctx, selector, numericPart(value, hint)); err != nil {
			return false, err
		}
		if err := i.fillUnitSibling(ctx, value, hint); err != nil {
			return false, err
		}
		return true, i.verifyText(ctx, selector, numericPart(value, hint))

	case schemas.FieldSelect:
		if err := checkOptions(hint, value); err != nil {
			return false, err
		}
		if err := i.page.SelectOption(ctx, selector, value); err != nil {
			return false, retry.Errorf(retry.KindFieldInteraction, "select %q: %v", selector, err)
		}
		return true, i.verifySelect(ctx, selector, value)

	case schemas.FieldCombobox:
		if err := checkOptions(hint, value); err != nil {
			return false, err
		}
		if err := i.fillCombobox(ctx, selector, value); err != nil {
			return false, err
		}
		// No reliable read-back on a custom combobox; assume correct when
		// the strategy raised nothing.
		return false, nil

	case schemas.FieldToggle:
		desired := truthy(value)
		if err := i.setChecked(ctx, selector, desired); err != nil {
			return false, err
		}
		return true, i.verifyChecked(ctx, selector, desired)

	case schemas.FieldRadio:
		target, err := i.resolveRadio(ctx, value, located)
		if err != nil {
			return false, err
		}
		if err := i.setChecked(ctx, target, true); err != nil {
			return false, err
		}
		return true, i.verifyChecked(ctx, target, true)

	case schemas.FieldInstanceSearch:
		// The "value" is a row selection, not a scalar; verification is
		// skipped for this type.
		return false, i.fillInstanceSearch(ctx, selector, value)

	default:
		if err := i.fillText(ctx, selector, value); err != nil {
			return false, err
		}
		return true, i.verifyText(ctx, selector, value)
	}
}

// fillText is the clear-then-type path: click, select-all (platform-aware
// chord), delete, type character by character. If the read-back after typing
// still shows stale content, fall back to assigning the value property and
// dispatching input/change notifications.
func (i *Interactor) fillText(ctx context.Context, selector, value string) error {
	if err := i.page.Click(ctx, selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "click %q: %v", selector, err)
	}
	if err := i.page.PressChord(ctx, selector, selectAllChord()); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "select-all on %q: %v", selector, err)
	}
	if err := i.page.PressChord(ctx, selector, schemas.KeyChord{Key: "\b"}); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "clear %q: %v", selector, err)
	}
	if err := i.page.Type(ctx, selector, value); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "type into %q: %v", selector, err)
	}

	current, err := i.readValue(ctx, selector)
	if err != nil || current == value {
		return err
	}

	// Last resort: write the value property directly.
	var assigned bool
	if err := i.page.Evaluate(ctx, browser.SetValueScript(selector, value), &assigned); err != nil || !assigned {
		return retry.Errorf(retry.KindFieldInteraction, "value assignment on %q failed", selector)
	}
	return nil
}

func (i *Interactor) fillCombobox(ctx context.Context, selector, value string) error {
	if err := i.page.Click(ctx, selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "open combobox %q: %v", selector, err)
	}
	if err := i.page.Type(ctx, selector, value); err != nil {
		// Some comboboxes are pick-only; carry on to the listbox scan.
		i.logger.Debug("Combobox rejected typed filter", zap.String("selector", selector), zap.Error(err))
	}
	i.settle(ctx)

	var options []schemas.Element
	if err := i.page.Evaluate(ctx, browser.ListboxOptionScript(value), &options); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "scan listbox for %q: %v", value, err)
	}
	if len(options) == 0 {
		return retry.Errorf(retry.KindFieldInteraction, "no listbox option matches %q", value)
	}
	if err := i.page.Click(ctx, options[0].Selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "pick option %q: %v", options[0].Selector, err)
	}
	return nil
}

func (i *Interactor) fillInstanceSearch(ctx context.Context, selector, value string) error {
	if err := i.page.Click(ctx, selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "click search box %q: %v", selector, err)
	}
	if err := i.page.Type(ctx, selector, value); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "type filter %q: %v", value, err)
	}
	i.settle(ctx)

	var rows []schemas.Element
	if err := i.page.Evaluate(ctx, browser.InstanceRowScript(value), &rows); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "scan results for %q: %v", value, err)
	}
	if len(rows) == 0 {
		return retry.Errorf(retry.KindFieldInteraction, "no results row matches %q", value)
	}
	if err := i.page.Click(ctx, rows[0].Selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "select row for %q: %v", value, err)
	}
	return nil
}

// resolveRadio finds the member of the radio group whose accessible name
// matches the wanted value. The located element anchors the group; when the
// value names a different member, the role scan supplies it.
func (i *Interactor) resolveRadio(ctx context.Context, value string, located schemas.LocatorResult) (string, error) {
	var members []schemas.Element
	if err := i.page.Evaluate(ctx, browser.RoleNameScript("radio", value), &members); err != nil {
		return "", retry.Errorf(retry.KindFieldInteraction, "scan radio group for %q: %v", value, err)
	}
	for _, m := range members {
		if m.Visible {
			return m.Selector, nil
		}
	}
	// Fall back to the located control itself (single-option groups).
	return located.Element.Selector, nil
}

func (i *Interactor) setChecked(ctx context.Context, selector string, desired bool) error {
	current, err := i.readChecked(ctx, selector)
	if err != nil {
		return err
	}
	if current == desired {
		return nil
	}
	if err := i.page.Click(ctx, selector); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "toggle %q: %v", selector, err)
	}
	return nil
}

// fillUnitSibling writes the unit token of a "120 GB"-style value into the
// unit dropdown next to the number field, when the catalog declares one.
func (i *Interactor) fillUnitSibling(ctx context.Context, value string, hint schemas.FieldHint) error {
	if hint.UnitSibling == "" {
		return nil
	}
	unit := unitPart(value)
	if unit == "" {
		return nil
	}
	if err := i.page.SelectOption(ctx, hint.UnitSibling, unit); err != nil {
		return retry.Errorf(retry.KindFieldInteraction, "unit sibling %q: %v", hint.UnitSibling, err)
	}
	return nil
}

// -- verification read-backs --

func (i *Interactor) verifyText(ctx context.Context, selector, expected string) error {
	current, err := i.readValue(ctx, selector)
	if err != nil {
		return err
	}
	if current != expected {
		return retry.Errorf(retry.KindFieldVerification, "read-back %q, expected %q", current, expected)
	}
	return nil
}

func (i *Interactor) verifySelect(ctx context.Context, selector, expected string) error {
	var current *string
	if err := i.page.Evaluate(ctx, browser.SelectedTextScript(selector), &current); err != nil {
		return retry.Errorf(retry.KindFieldVerification, "read selected option of %q: %v", selector, err)
	}
	if current == nil {
		return retry.Errorf(retry.KindFieldVerification, "select %q vanished during verification", selector)
	}
	if !strings.Contains(strings.ToLower(*current), strings.ToLower(expected)) &&
		!strings.Contains(strings.ToLower(expected), strings.ToLower(*current)) {
		return retry.Errorf(retry.KindFieldVerification, "selected %q, expected %q", *current, expected)
	}
	return nil
}

func (i *Interactor) verifyChecked(ctx context.Context, selector string, desired bool) error {
	current, err := i.readChecked(ctx, selector)
	if err != nil {
		return err
	}
	if current != desired {
		return retry.Errorf(retry.KindFieldVerification, "checked state is %t, expected %t", current, desired)
	}
	return nil
}

func (i *Interactor) readValue(ctx context.Context, selector string) (string, error) {
	var out *string
	if err := i.page.Evaluate(ctx, browser.ReadValueScript(selector), &out); err != nil {
		return "", retry.Errorf(retry.KindFieldVerification, "read value of %q: %v", selector, err)
	}
	if out == nil {
		return "", retry.Errorf(retry.KindFieldVerification, "control %q vanished during read-back", selector)
	}
	return *out, nil
}

func (i *Interactor) readChecked(ctx context.Context, selector string) (bool, error) {
	var out *bool
	if err := i.page.Evaluate(ctx, browser.CheckedStateScript(selector), &out); err != nil {
		return false, retry.Errorf(retry.KindFieldVerification, "read checked state of %q: %v", selector, err)
	}
	if out == nil {
		return false, retry.Errorf(retry.KindFieldVerification, "control %q vanished during read-back", selector)
	}
	return *out, nil
}

// -- helpers --

func (i *Interactor) settle(ctx context.Context) {
	wait := i.cfg.Pipeline.SettleWait
	if wait <= 0 {
		wait = 1500 * time.Millisecond
	}
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func (i *Interactor) captureScreenshot(ctx context.Context, key string) string {
	dir := i.cfg.Artifacts.ScreenshotDir
	if dir == "" {
		dir = "artifacts/screenshots"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", sanitize(key), uuid.NewString()[:8]))
	if err := i.page.Screenshot(ctx, path); err != nil {
		i.logger.Warn("Diagnostic screenshot failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return path
}

func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}

func selectAllChord() schemas.KeyChord {
	if runtime.GOOS == "darwin" {
		return schemas.KeyChord{Key: "a", Modifiers: schemas.ModMeta}
	}
	return schemas.KeyChord{Key: "a", Modifiers: schemas.ModCtrl}
}

// checkOptions rejects a value the catalog's declared option list cannot
// produce, before any page interaction. The match is the same bidirectional
// case-insensitive substring rule the select verification uses, so a value
// that passes here can also verify.
func checkOptions(hint schemas.FieldHint, value string) error {
	if len(hint.Options) == 0 {
		return nil
	}
	want := strings.ToLower(value)
	for _, opt := range hint.Options {
		have := strings.ToLower(opt)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return nil
		}
	}
	return retry.Errorf(retry.KindFieldVerification,
		"value %q is not among the cataloged options %v", value, hint.Options)
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	default:
		return false
	}
}

// numericPart strips a trailing unit token ("120 GB" -> "120") when the
// catalog declares a unit sibling; otherwise the value passes through intact.
func numericPart(value string, hint schemas.FieldHint) string {
	if hint.UnitSibling == "" {
		return value
	}
	fields := strings.Fields(value)
	if len(fields) == 2 {
		return fields[0]
	}
	return value
}

// unitPart extracts the unit token of a "number unit" pair, if present.
func unitPart(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 2 {
		return fields[1]
	}
	return ""
}
