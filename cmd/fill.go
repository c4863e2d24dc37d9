// File: cmd/fill.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/browser"
	"github.com/xkilldash9x/autoform-cli/internal/catalog"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/observability"
	"github.com/xkilldash9x/autoform-cli/internal/pipeline"
	"github.com/xkilldash9x/autoform-cli/internal/profile"
	"github.com/xkilldash9x/autoform-cli/internal/reporting"
)

var (
	fillProfilePath   string
	fillCatalogPath   string
	fillOverridesPath string
	fillReportPath    string
)

// newFillCmd creates and returns the fill command.
func newFillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Resolve a profile and write its values into the target web forms.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			// Interrupt translates to the pipeline's cooperative checkpoints:
			// the in-flight attempt finishes, then the run reports cancelled.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runFill(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVar(&fillProfilePath, "profile", "", "Path to the profile JSON declaring the values to fill.")
	cmd.Flags().StringVar(&fillCatalogPath, "catalog", "", "Path to the service catalog JSON.")
	cmd.Flags().StringVar(&fillOverridesPath, "overrides", "", "Optional path to an overrides JSON file.")
	cmd.Flags().StringVar(&fillReportPath, "report", "", "Run report output path (defaults to artifacts.report_path).")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// runFill contains the testable business logic for the fill command.
func runFill(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	prof, err := profile.Load(fillProfilePath)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(fillCatalogPath)
	if err != nil {
		return err
	}

	var overrides []schemas.Override
	if fillOverridesPath != "" {
		overrides, err = profile.LoadOverrides(fillOverridesPath)
		if err != nil {
			return err
		}
	}

	// The pre-flight gate: no browser is launched while a required dimension
	// is unresolved.
	if err := pipeline.Resolve(prof, overrides, logger); err != nil {
		return err
	}

	manager := browser.NewManager(ctx, cfg, logger)
	defer manager.Shutdown()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("starting browser session: %w", err)
	}
	defer session.Close()

	pipe := pipeline.New(session, cat, cfg, logger)
	report, runErr := pipe.Run(ctx, prof)

	reportPath := fillReportPath
	if reportPath == "" {
		reportPath = cfg.Artifacts.ReportPath
	}
	if writeErr := reporting.WriteReport(reportPath, report); writeErr != nil {
		logger.Error("Failed to write run report", zap.Error(writeErr))
		if runErr == nil {
			runErr = writeErr
		}
	} else {
		logger.Info("Run report written", zap.String("path", reportPath))
	}
	reporting.LogSummary(logger, report)

	return runErr
}
