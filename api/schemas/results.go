// api/schemas/results.go
package schemas

import "time"

// AttemptStatus is the terminal state of a locate or fill attempt.
type AttemptStatus string

const (
	StatusSuccess AttemptStatus = "success"
	StatusSkipped AttemptStatus = "skipped"
	StatusFailed  AttemptStatus = "failed"
)

// LocatorStrategy names the tier that produced a control.
type LocatorStrategy string

const (
	StrategyCSS       LocatorStrategy = "css"
	StrategyAriaLabel LocatorStrategy = "aria-label"
	StrategyLabel     LocatorStrategy = "label"
	StrategyRole      LocatorStrategy = "role"
	StrategyProximity LocatorStrategy = "text-proximity"
	StrategyNone      LocatorStrategy = ""
)

// LocatorResult is the outcome of resolving a dimension key to a live
// control. The Element handle is transient: the caller uses it within the
// same pipeline step and must not retain it across steps.
type LocatorResult struct {
	Status    AttemptStatus
	Element   Element
	FieldType FieldType
	Strategy  LocatorStrategy
}

// FillResult is the outcome of one fill-and-verify engagement with a control.
type FillResult struct {
	Status      AttemptStatus
	Message     string
	RetriesUsed int
	Screenshot  string
	Verified    bool
}

// SkipReason distinguishes the flavors of "skipped" that behave identically
// for gating but must stay apart in telemetry.
type SkipReason string

const (
	SkipPromptDeferred   SkipReason = "prompt_deferred"
	SkipNotRequired      SkipReason = "not_required"
	SkipOptionalNotFound SkipReason = "optional_not_found"
	SkipServiceAborted   SkipReason = "service_aborted"
)

// DimensionStatus is the per-dimension terminal state reported to the run
// report.
type DimensionStatus string

const (
	DimensionFilled    DimensionStatus = "filled"
	DimensionSkipped   DimensionStatus = "skipped"
	DimensionFailed    DimensionStatus = "failed"
	DimensionCancelled DimensionStatus = "cancelled"
)

// DimensionResult is the structured fail-forward record for one attempted
// dimension.
type DimensionResult struct {
	Key            string          `json:"key"`
	Status         DimensionStatus `json:"status"`
	SkipReason     SkipReason      `json:"skip_reason,omitempty"`
	Strategy       LocatorStrategy `json:"strategy,omitempty"`
	RetriesUsed    int             `json:"retries_used"`
	Verified       bool            `json:"verified"`
	ErrorDetail    string          `json:"error_detail,omitempty"`
	ScreenshotPath string          `json:"screenshot_path,omitempty"`
}

// ServiceReport aggregates the dimension results of one service.
type ServiceReport struct {
	Name       string            `json:"name"`
	Status     DimensionStatus   `json:"status"`
	Error      string            `json:"error,omitempty"`
	Dimensions []DimensionResult `json:"dimensions"`
}

// GroupReport aggregates per-service reports.
type GroupReport struct {
	Name     string          `json:"name"`
	Services []ServiceReport `json:"services"`
}

// RunReport is the final artifact of a fill run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Profile    string         `json:"profile,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Groups     []GroupReport  `json:"groups"`
	Summary    map[string]int `json:"summary"`
}

// CorrectionRecord is the healer's advisory old-to-new selector mapping. It
// never mutates a live run's catalog; a maintenance step applies it later.
type CorrectionRecord struct {
	DimensionKey string          `json:"dimension_key"`
	OldSelector  string          `json:"old_selector"`
	NewSelector  string          `json:"new_selector"`
	Strategy     LocatorStrategy `json:"strategy"`
	HealedAt     time.Time       `json:"healed_at"`
}
