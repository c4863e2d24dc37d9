// File: internal/retry/errors.go
package retry

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the closed set of failure kinds the pipeline can produce. Using a
// custom type ensures only predefined constants reach the classifier.
type Kind string

const (
	// -- Locator failures --
	KindLocatorNotFound  Kind = "LOCATOR_NOT_FOUND"
	KindLocatorAmbiguous Kind = "LOCATOR_AMBIGUOUS"

	// -- Field interaction failures --
	KindFieldInteraction  Kind = "FIELD_INTERACTION"
	KindFieldVerification Kind = "FIELD_VERIFICATION"

	// -- Navigation failures (fatal to the service) --
	KindNavigation      Kind = "NAVIGATION"
	KindServiceNotFound Kind = "SERVICE_NOT_FOUND"
	KindRegionSelection Kind = "REGION_SELECTION"

	// -- Session failures --
	KindBrowserTimeout Kind = "BROWSER_TIMEOUT"
	KindBrowser        Kind = "BROWSER"

	// -- Catalog maintenance failures (offline healing flow only) --
	KindStaleSelector Kind = "STALE_SELECTOR"
	KindCatalogHeal   Kind = "CATALOG_HEAL"

	KindUnknown Kind = "UNKNOWN"
)

// Error is a tagged pipeline error. It carries the failure kind plus the
// context a per-dimension report needs.
type Error struct {
	Kind         Kind
	Step         string
	DimensionKey string
	Err          error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Kind, e.Err)
	if e.Step != "" {
		msg = e.Step + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a failure kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf builds a tagged error from a format string.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Untagged context
// deadline errors count as browser timeouts; everything else untagged is
// unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindBrowserTimeout
	}
	return KindUnknown
}

// Classification is the retry policy's verdict on a failure.
type Classification struct {
	Category         string
	Retriable        bool
	ShouldScreenshot bool
}

// Categorize is a pure function from failure kind to classification. The
// table is closed: every kind maps to exactly one row.
func Categorize(err error) Classification {
	switch KindOf(err) {
	case KindLocatorNotFound, KindLocatorAmbiguous:
		return Classification{Category: "locator", Retriable: false, ShouldScreenshot: true}
	case KindFieldInteraction:
		return Classification{Category: "field_interaction", Retriable: true, ShouldScreenshot: true}
	case KindFieldVerification:
		return Classification{Category: "field_verification", Retriable: true, ShouldScreenshot: true}
	case KindNavigation, KindServiceNotFound, KindRegionSelection:
		return Classification{Category: "navigation", Retriable: false, ShouldScreenshot: true}
	case KindBrowserTimeout:
		return Classification{Category: "browser", Retriable: true, ShouldScreenshot: false}
	case KindBrowser:
		return Classification{Category: "browser", Retriable: false, ShouldScreenshot: false}
	case KindStaleSelector, KindCatalogHeal:
		return Classification{Category: "catalog", Retriable: false, ShouldScreenshot: false}
	default:
		return Classification{Category: "unknown", Retriable: true, ShouldScreenshot: true}
	}
}
