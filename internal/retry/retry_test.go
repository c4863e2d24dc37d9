// File: internal/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestCategorize(t *testing.T) {
	testCases := []struct {
		kind           Kind
		wantCategory   string
		wantRetriable  bool
		wantScreenshot bool
	}{
		{KindLocatorNotFound, "locator", false, true},
		{KindLocatorAmbiguous, "locator", false, true},
		{KindFieldInteraction, "field_interaction", true, true},
		{KindFieldVerification, "field_verification", true, true},
		{KindNavigation, "navigation", false, true},
		{KindServiceNotFound, "navigation", false, true},
		{KindRegionSelection, "navigation", false, true},
		{KindBrowserTimeout, "browser", true, false},
		{KindBrowser, "browser", false, false},
		{KindStaleSelector, "catalog", false, false},
		{KindCatalogHeal, "catalog", false, false},
		{KindUnknown, "unknown", true, true},
	}

	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			cls := Categorize(NewError(tc.kind, errors.New("boom")))
			assert.Equal(t, tc.wantCategory, cls.Category)
			assert.Equal(t, tc.wantRetriable, cls.Retriable)
			assert.Equal(t, tc.wantScreenshot, cls.ShouldScreenshot)
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Run("tagged errors surface their kind through wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", Errorf(KindNavigation, "inner"))
		assert.Equal(t, KindNavigation, KindOf(err))
	})

	t.Run("untagged deadline counts as browser timeout", func(t *testing.T) {
		err := fmt.Errorf("wait: %w", context.DeadlineExceeded)
		assert.Equal(t, KindBrowserTimeout, KindOf(err))
	})

	t.Run("anything else is unknown", func(t *testing.T) {
		assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	})
}

func TestWithRetry_FirstTrySuccess(t *testing.T) {
	attempts, err := WithRetry(context.Background(), zap.NewNop(), Options{StepName: "op"},
		func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_ExhaustsRetriableError(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), zap.NewNop(),
		Options{StepName: "op", MaxRetries: 2, Delay: time.Millisecond},
		func(context.Context) error {
			calls++
			return Errorf(KindFieldVerification, "mismatch on call %d", calls)
		})

	require.Error(t, err)
	assert.Equal(t, 3, calls, "initial attempt plus two retries")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 2, attempts-1, "retriesUsed reported as attempts-1")
	assert.Equal(t, KindFieldVerification, KindOf(err))
}

func TestWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	attempts, err := WithRetry(context.Background(), zap.NewNop(),
		Options{StepName: "op", MaxRetries: 2, Delay: time.Millisecond},
		func(context.Context) error {
			calls++
			if calls < 3 {
				return Errorf(KindFieldInteraction, "flaky")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_NonRetriableNeverWaits(t *testing.T) {
	start := time.Now()
	attempts, err := WithRetry(context.Background(), zap.NewNop(),
		Options{StepName: "op", MaxRetries: 2, Delay: 500 * time.Millisecond},
		func(context.Context) error {
			return Errorf(KindLocatorNotFound, "gone")
		})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "non-retriable errors re-raise immediately")
}

func TestWithRetry_BackoffGrowsByFactor(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := 40 * time.Millisecond
	var stamps []time.Time
	_, err := WithRetry(context.Background(), zap.NewNop(),
		Options{StepName: "op", MaxRetries: 2, Delay: base},
		func(context.Context) error {
			stamps = append(stamps, time.Now())
			return Errorf(KindFieldInteraction, "always")
		})
	require.Error(t, err)
	require.Len(t, stamps, 3)

	firstWait := stamps[1].Sub(stamps[0])
	secondWait := stamps[2].Sub(stamps[1])

	// delay * 1.5^(n-1): 40ms then 60ms, with scheduler tolerance.
	assert.GreaterOrEqual(t, firstWait, base)
	assert.Less(t, firstWait, 3*base)
	assert.GreaterOrEqual(t, secondWait, 60*time.Millisecond)
	assert.Greater(t, secondWait, firstWait)
}

func TestWithRetry_HonorsCancellationAfterAttempt(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	attempts, err := WithRetry(ctx, zap.NewNop(),
		Options{StepName: "op", MaxRetries: 5, Delay: time.Hour},
		func(context.Context) error {
			calls++
			cancel()
			return Errorf(KindFieldInteraction, "flaky")
		})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "the in-flight attempt completed, then cancellation stopped the loop")
	assert.Equal(t, 1, attempts)
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, 1000*time.Millisecond, backoffDelay(time.Second, 1))
	assert.Equal(t, 1500*time.Millisecond, backoffDelay(time.Second, 2))
	assert.Equal(t, 2250*time.Millisecond, backoffDelay(time.Second, 3))
}

func TestDo_CarriesResult(t *testing.T) {
	got, attempts, err := Do(context.Background(), zap.NewNop(), Options{StepName: "op"},
		func(context.Context) (string, error) { return "value", nil })
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, attempts)
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := &Error{Kind: KindBrowser, Step: "navigate", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "navigate")
	assert.Contains(t, err.Error(), "BROWSER")
}
