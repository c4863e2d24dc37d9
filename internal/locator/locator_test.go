// File: internal/locator/locator_test.go
package locator

import (
	"context"
	"testing"

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

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxRetries:      2,
		VisibilityWait:  100,
		ProximityBandPx: 150,
	}
}

func element(selector string) schemas.Element {
	return schemas.Element{Selector: selector, Tag: "input", Type: "text", Visible: true}
}

func TestLocate_CSSTierWins(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "instance_count", CSSSelector: "#count", FieldType: "NUMBER"}

	page.On("QueryAll", mock.Anything, "#count").
		Return([]schemas.Element{element("#count")}, nil)
	page.On("WaitVisible", mock.Anything, "#count", mock.Anything).Return(nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.NoError(t, err)
	assert.Equal(t, schemas.StatusSuccess, result.Status)
	assert.Equal(t, schemas.StrategyCSS, result.Strategy)
	assert.Equal(t, schemas.FieldNumber, result.FieldType)
	assert.Equal(t, "#count", result.Element.Selector)
	page.AssertExpectations(t)
}

func TestLocate_CSSMissFallsToAriaLabel(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "storage", CSSSelector: "#stale", FallbackLabel: "Storage amount"}

	page.On("QueryAll", mock.Anything, "#stale").
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Storage amount"), mock.Anything).
		Return([]schemas.Element{element("input[data-testid=\"storage\"]")}, nil)
	page.On("WaitVisible", mock.Anything, "input[data-testid=\"storage\"]", mock.Anything).Return(nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyAriaLabel, result.Strategy)
	page.AssertExpectations(t)
}

func TestLocate_InvisibleCandidatesAreSkipped(t *testing.T) {
	page := new(mocks.MockPage)
	hidden := schemas.Element{Selector: "#hidden", Tag: "input", Visible: false}
	hint := schemas.FieldHint{Key: "os", CSSSelector: "#hidden", FallbackLabel: "Operating system"}

	page.On("QueryAll", mock.Anything, "#hidden").
		Return([]schemas.Element{hidden}, nil)
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Operating system"), mock.Anything).
		Return([]schemas.Element{element("#os")}, nil)
	page.On("WaitVisible", mock.Anything, "#os", mock.Anything).Return(nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyAriaLabel, result.Strategy)
}

func TestLocate_DisambiguationIndexPicksAmongMatches(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "vcpus", CSSSelector: ".spin", DisambiguationIndex: 1}

	page.On("QueryAll", mock.Anything, ".spin").
		Return([]schemas.Element{element(".spin:nth-child(1)"), element(".spin:nth-child(2)")}, nil)
	page.On("WaitVisible", mock.Anything, ".spin:nth-child(2)", mock.Anything).Return(nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.NoError(t, err)
	assert.Equal(t, ".spin:nth-child(2)", result.Element.Selector)
}

func TestLocate_OutOfRangeIndexIsAmbiguous(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "vcpus", CSSSelector: ".spin", DisambiguationIndex: 5}

	page.On("QueryAll", mock.Anything, ".spin").
		Return([]schemas.Element{element(".a"), element(".b")}, nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.Error(t, err)
	assert.Equal(t, schemas.StatusFailed, result.Status)
	assert.Equal(t, retry.KindLocatorAmbiguous, retry.KindOf(err))
	assert.False(t, retry.Categorize(err).Retriable)
}

func TestLocate_ExhaustedTiersReportNotFound(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "tenancy", FallbackLabel: "Tenancy"}

	// No CSS hint, so tier one is skipped outright.
	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Tenancy"), mock.Anything).
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.LabelAssocScript("Tenancy"), mock.Anything).
		Return([]schemas.Element{}, nil)
	for _, role := range orderedRoles {
		page.On("Evaluate", mock.Anything, browser.RoleNameScript(role, "Tenancy"), mock.Anything).
			Return([]schemas.Element{}, nil)
	}
	page.On("ScrollToTop", mock.Anything).Return(nil)
	page.On("FindText", mock.Anything, "Tenancy").Return(schemas.Rect{}, false, nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.Error(t, err)
	assert.Equal(t, schemas.StatusFailed, result.Status)
	assert.Equal(t, retry.KindLocatorNotFound, retry.KindOf(err))
	page.AssertExpectations(t)
}

func TestLocate_ProximityBandUsesFindTextRect(t *testing.T) {
	page := new(mocks.MockPage)
	hint := schemas.FieldHint{Key: "memory", FallbackLabel: "Memory (GiB)"}
	rect := schemas.Rect{X: 10, Y: 420, Width: 80, Height: 16}

	page.On("Evaluate", mock.Anything, browser.AriaLabelScript("Memory (GiB)"), mock.Anything).
		Return([]schemas.Element{}, nil)
	page.On("Evaluate", mock.Anything, browser.LabelAssocScript("Memory (GiB)"), mock.Anything).
		Return([]schemas.Element{}, nil)
	for _, role := range orderedRoles {
		page.On("Evaluate", mock.Anything, browser.RoleNameScript(role, "Memory (GiB)"), mock.Anything).
			Return([]schemas.Element{}, nil)
	}
	page.On("ScrollToTop", mock.Anything).Return(nil)
	page.On("FindText", mock.Anything, "Memory (GiB)").Return(rect, true, nil)
	page.On("Evaluate", mock.Anything, browser.BandScript(rect.Y, 150), mock.Anything).
		Return([]schemas.Element{element("#memory-input")}, nil)
	page.On("WaitVisible", mock.Anything, "#memory-input", mock.Anything).Return(nil)

	l := New(page, testPipelineConfig(), zap.NewNop())
	result, err := l.Locate(context.Background(), hint)

	require.NoError(t, err)
	assert.Equal(t, schemas.StrategyProximity, result.Strategy)
	assert.Equal(t, "#memory-input", result.Element.Selector)
	// The text search reports viewport geometry and the band filter measures
	// document geometry, so the scan must reset scroll before searching.
	page.AssertCalled(t, "ScrollToTop", mock.Anything)
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "Instance type", SearchTerm(schemas.FieldHint{Key: "instance_type", FallbackLabel: "Instance type"}))
	assert.Equal(t, "instance type", SearchTerm(schemas.FieldHint{Key: "instance_type"}))
	assert.Equal(t, "multi az", SearchTerm(schemas.FieldHint{Key: "multi-az"}))
}

func TestFieldTypeInference(t *testing.T) {
	testCases := []struct {
		name    string
		hint    schemas.FieldHint
		element schemas.Element
		want    schemas.FieldType
	}{
		{"declared type wins", schemas.FieldHint{FieldType: "SELECT"}, schemas.Element{Tag: "input", Type: "checkbox"}, schemas.FieldSelect},
		{"select tag", schemas.FieldHint{}, schemas.Element{Tag: "select"}, schemas.FieldSelect},
		{"combobox role", schemas.FieldHint{}, schemas.Element{Tag: "div", Role: "combobox"}, schemas.FieldCombobox},
		{"checkbox input", schemas.FieldHint{}, schemas.Element{Tag: "input", Type: "checkbox"}, schemas.FieldToggle},
		{"switch role", schemas.FieldHint{}, schemas.Element{Tag: "button", Role: "switch"}, schemas.FieldToggle},
		{"radio input", schemas.FieldHint{}, schemas.Element{Tag: "input", Type: "radio"}, schemas.FieldRadio},
		{"number input", schemas.FieldHint{}, schemas.Element{Tag: "input", Type: "number"}, schemas.FieldNumber},
		{"plain text input", schemas.FieldHint{}, schemas.Element{Tag: "input", Type: "text"}, schemas.FieldText},
		{"unrecognized declared type falls back to text", schemas.FieldHint{FieldType: "WIDGET"}, schemas.Element{Tag: "input"}, schemas.FieldText},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, fieldType(tc.hint, tc.element))
		})
	}
}
