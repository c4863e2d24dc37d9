// File: cmd/heal.go
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
	"github.com/xkilldash9x/autoform-cli/internal/healer"
	"github.com/xkilldash9x/autoform-cli/internal/observability"
	"github.com/xkilldash9x/autoform-cli/internal/reporting"
)

var (
	healCatalogPath string
	healService     string
	healOutPath     string
)

// newHealCmd creates and returns the heal command: the offline catalog
// maintenance flow that re-discovers stale selectors and emits advisory
// correction records. It never rewrites the catalog it reads.
func newHealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heal",
		Short: "Probe catalog selectors against the live pages and record corrections for stale ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runHeal(ctx, cfg, observability.GetLogger())
		},
	}

	cmd.Flags().StringVar(&healCatalogPath, "catalog", "", "Path to the service catalog JSON.")
	cmd.Flags().StringVar(&healService, "service", "", "Heal only this service (default: all).")
	cmd.Flags().StringVar(&healOutPath, "out", "", "Correction records output path (defaults to heal.output_path).")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

// runHeal contains the testable business logic for the heal command.
func runHeal(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cat, err := catalog.Load(healCatalogPath)
	if err != nil {
		return err
	}

	var targets []schemas.ServiceCatalog
	if healService != "" {
		svc, ok := catalog.Service(cat, healService)
		if !ok {
			return fmt.Errorf("service %q has no catalog entry", healService)
		}
		targets = append(targets, svc)
	} else {
		for _, svc := range cat.Services {
			targets = append(targets, svc)
		}
	}

	manager := browser.NewManager(ctx, cfg, logger)
	defer manager.Shutdown()

	session, err := manager.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("starting browser session: %w", err)
	}
	defer session.Close()

	h := healer.New(session, cfg.Heal, logger)
	var records []schemas.CorrectionRecord
	for _, svc := range targets {
		if err := ctx.Err(); err != nil {
			break
		}
		healed, err := h.HealService(ctx, svc)
		if err != nil {
			logger.Error("Service could not be healed", zap.String("service", svc.Name), zap.Error(err))
			continue
		}
		records = append(records, healed...)
	}

	outPath := healOutPath
	if outPath == "" {
		outPath = cfg.Heal.OutputPath
	}
	if err := reporting.WriteCorrections(outPath, records); err != nil {
		return err
	}
	logger.Info("Correction records written",
		zap.String("path", outPath),
		zap.Int("corrections", len(records)),
	)
	return nil
}
