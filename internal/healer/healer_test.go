// File: internal/healer/healer_test.go
package healer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/browser"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/mocks"
	"github.com/xkilldash9x/autoform-cli/internal/retry"
)

func visibleElement(selector string) schemas.Element {
	return schemas.Element{Selector: selector, Tag: "input", Visible: true}
}

func TestHealHint_HealthySelectorNeedsNothing(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "instance_count", CSSSelector: "#count"}

	page.On("QueryAll", mock.Anything, "#count").
		Return([]schemas.Element{visibleElement("#count")}, nil)

	h := New(page, config.HealConfig{}, zap.NewNop())
	record, err := h.HealHint(context.Background(), hint)

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestHealHint_UnhintedSelectorIsIgnored(t *testing.T) {
	page := new(mocks.MockPage)
	h := New(page, config.HealConfig{}, zap.NewNop())

	record, err := h.HealHint(context.Background(), schemas.FieldHint{Key: "free_form"})
	require.NoError(t, err)
	assert.Nil(t, record)
	page.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHealHint_StaleSelectorHealsThroughAriaLabel(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "storage_amount", CSSSelector: "#old-storage", FallbackLabel: "Storage amount"}
	replacement := visibleElement(`input[data-testid="storage"]`)

	page.On("QueryAll", mock.Anything, "#old-storage").
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Storage amount"), mock.Anything).
		Return([]schemas.Element{replacement}, nil)
	page.On("QueryAll", mock.Anything, replacement.Selector).
		Return([]schemas.Element{replacement}, nil)
	page.On("WaitVisible", mock.Anything, replacement.Selector, mock.Anything).Return(nil)

	h := New(page, config.HealConfig{}, zap.NewNop())
	record, err := h.HealHint(context.Background(), hint)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "storage_amount", record.DimensionKey)
	assert.Equal(t, "#old-storage", record.OldSelector)
	assert.Equal(t, replacement.Selector, record.NewSelector)
	assert.Equal(t, schemas.StrategyAriaLabel, record.Strategy)
	assert.False(t, record.HealedAt.IsZero())
}

func TestHealHint_NoReplacementIsStaleSelectorError(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "tenancy", CSSSelector: "#gone", FallbackLabel: "Tenancy"}

	page.On("QueryAll", mock.Anything, "#gone").
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return([]schemas.Element{}, nil)

	h := New(page, config.HealConfig{}, zap.NewNop())
	record, err := h.HealHint(context.Background(), hint)

	require.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, retry.KindStaleSelector, retry.KindOf(err))
	assert.False(t, retry.Categorize(err).Retriable)
}

func TestHealHint_UnconfirmedReplacementIsHealError(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "os", CSSSelector: "#old-os", FallbackLabel: "Operating system"}
	ghost := visibleElement("#flickering")

	page.On("QueryAll", mock.Anything, "#old-os").
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Operating system"), mock.Anything).
		Return([]schemas.Element{ghost}, nil)
	// The replacement no longer matches when probed again.
	page.On("QueryAll", mock.Anything, "#flickering").
		Return([]schemas.Element{}, nil)

	h := New(page, config.HealConfig{}, zap.NewNop())
	record, err := h.HealHint(context.Background(), hint)

	require.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, retry.KindCatalogHeal, retry.KindOf(err))
}

func TestHealHint_ReplacementThatNeverSettlesIsHealError(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "engine", CSSSelector: "#old-engine", FallbackLabel: "Database engine"}
	flicker := visibleElement("#engine-modal")

	page.On("QueryAll", mock.Anything, "#old-engine").
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Database engine"), mock.Anything).
		Return([]schemas.Element{flicker}, nil)
	// The instantaneous probe sees the candidate mid-animation...
	page.On("QueryAll", mock.Anything, "#engine-modal").
		Return([]schemas.Element{flicker}, nil)
	// ...but it never settles into stable visibility.
	page.On("WaitVisible", mock.Anything, "#engine-modal", mock.Anything).
		Return(context.DeadlineExceeded)

	h := New(page, config.HealConfig{VisibilityWait: 10 * time.Millisecond}, zap.NewNop())
	record, err := h.HealHint(context.Background(), hint)

	require.Error(t, err)
	assert.Nil(t, record)
	assert.Equal(t, retry.KindCatalogHeal, retry.KindOf(err))
}

func TestHealService_FailsForwardPastUnhealableHints(t *testing.T) {
	page := new(mocks.MockPage)
	svc := schemas.ServiceCatalog{
		Name: "EC2",
		URL:  "https://example.test/ec2",
		Dimensions: []schemas.FieldHint{
			{Key: "broken", CSSSelector: "#broken", FallbackLabel: "Broken"},
			{Key: "healthy", CSSSelector: "#healthy"},
		},
	}

	page.On("Navigate", mock.Anything, svc.URL).Return(nil)
	// Every probe for the first hint comes back empty: stale, unhealable.
	page.On("QueryAll", mock.Anything, "#broken").
		Return([]schemas.Element{}, nil)
	page.On("QueryAll", mock.Anything, "#healthy").
		Return([]schemas.Element{visibleElement("#healthy")}, nil)
	page.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).
		Return([]schemas.Element{}, nil)

	h := New(page, config.HealConfig{}, zap.NewNop())
	records, err := h.HealService(context.Background(), svc)

	require.NoError(t, err)
	assert.Empty(t, records, "one hint unhealable, the other healthy")
	page.AssertCalled(t, "Navigate", mock.Anything, svc.URL)
}
