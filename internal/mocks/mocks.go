// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

// -- Page Mock --

// MockPage mocks the schemas.Page browser abstraction so the locator,
// interactor, healer, and pipeline can be tested without a live browser.
type MockPage struct {
	mock.Mock
}

var _ schemas.Page = (*MockPage)(nil)

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) QueryAll(ctx context.Context, css string) ([]schemas.Element, error) {
	args := m.Called(ctx, css)
	elements, _ := args.Get(0).([]schemas.Element)
	return elements, args.Error(1)
}

func (m *MockPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	args := m.Called(ctx, selector, timeout)
	return args.Error(0)
}

func (m *MockPage) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPage) Type(ctx context.Context, selector, text string) error {
	args := m.Called(ctx, selector, text)
	return args.Error(0)
}

func (m *MockPage) PressChord(ctx context.Context, selector string, chord schemas.KeyChord) error {
	args := m.Called(ctx, selector, chord)
	return args.Error(0)
}

func (m *MockPage) SelectOption(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

// Evaluate copies the expectation's configured result into out. Configure it
// with a schemas.Element slice, a *string, a *bool, or a function that writes
// out directly via Run.
func (m *MockPage) Evaluate(ctx context.Context, expr string, out any) error {
	args := m.Called(ctx, expr, out)
	if result := args.Get(0); result != nil {
		switch target := out.(type) {
		case *[]schemas.Element:
			if v, ok := result.([]schemas.Element); ok {
				*target = v
			}
		case **string:
			if v, ok := result.(string); ok {
				*target = &v
			}
		case **bool:
			if v, ok := result.(bool); ok {
				*target = &v
			}
		case *bool:
			if v, ok := result.(bool); ok {
				*target = v
			}
		}
	}
	return args.Error(1)
}

func (m *MockPage) Screenshot(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockPage) FindText(ctx context.Context, query string) (schemas.Rect, bool, error) {
	args := m.Called(ctx, query)
	rect, _ := args.Get(0).(schemas.Rect)
	return rect, args.Bool(1), args.Error(2)
}

func (m *MockPage) ScrollToTop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
