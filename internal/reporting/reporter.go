// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Summarize tallies terminal dimension states across the whole report and
// stores the counts on the report itself.
func Summarize(report *schemas.RunReport) {
	summary := map[string]int{
		string(schemas.DimensionFilled):    0,
		string(schemas.DimensionSkipped):   0,
		string(schemas.DimensionFailed):    0,
		string(schemas.DimensionCancelled): 0,
	}
	for _, group := range report.Groups {
		for _, svc := range group.Services {
			for _, dim := range svc.Dimensions {
				summary[string(dim.Status)]++
			}
		}
	}
	report.Summary = summary
}

// WriteReport serializes the run report to the given path, creating parent
// directories as needed.
func WriteReport(path string, report *schemas.RunReport) error {
	Summarize(report)

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing run report %q: %w", path, err)
	}
	return nil
}

// WriteCorrections serializes the healer's correction records.
func WriteCorrections(path string, records []schemas.CorrectionRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding corrections: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing corrections %q: %w", path, err)
	}
	return nil
}

// LogSummary prints the run's terminal tallies at info level.
func LogSummary(logger *zap.Logger, report *schemas.RunReport) {
	logger.Info("Run complete",
		zap.String("run_id", report.RunID),
		zap.Int("filled", report.Summary[string(schemas.DimensionFilled)]),
		zap.Int("skipped", report.Summary[string(schemas.DimensionSkipped)]),
		zap.Int("failed", report.Summary[string(schemas.DimensionFailed)]),
		zap.Int("cancelled", report.Summary[string(schemas.DimensionCancelled)]),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
}
