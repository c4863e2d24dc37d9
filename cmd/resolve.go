// File: cmd/resolve.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/observability"
	"github.com/xkilldash9x/autoform-cli/internal/pipeline"
	"github.com/xkilldash9x/autoform-cli/internal/profile"
)

var (
	resolveProfilePath   string
	resolveOverridesPath string
	resolveOutPath       string
)

// newResolveCmd creates and returns the resolve command: a dry run of the
// value resolver and its pre-flight gate, with no browser involved.
func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a profile's values without touching a browser.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), observability.GetLogger())
		},
	}

	cmd.Flags().StringVar(&resolveProfilePath, "profile", "", "Path to the profile JSON.")
	cmd.Flags().StringVar(&resolveOverridesPath, "overrides", "", "Optional path to an overrides JSON file.")
	cmd.Flags().StringVar(&resolveOutPath, "out", "", "Optional path to save the resolved profile.")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

// runResolve contains the testable business logic for the resolve command.
func runResolve(_ context.Context, logger *zap.Logger) error {
	prof, err := profile.Load(resolveProfilePath)
	if err != nil {
		return err
	}

	var overrides []schemas.Override
	if resolveOverridesPath != "" {
		overrides, err = profile.LoadOverrides(resolveOverridesPath)
		if err != nil {
			return err
		}
	}

	gateErr := pipeline.Resolve(prof, overrides, logger)

	resolved, skipped := 0, 0
	for _, g := range prof.Groups {
		for _, s := range g.Services {
			for _, d := range s.Dimensions {
				switch d.ResolutionStatus {
				case schemas.ResolutionResolved:
					resolved++
				case schemas.ResolutionSkipped:
					skipped++
				}
			}
		}
	}
	logger.Info("Resolution pass complete",
		zap.Int("resolved", resolved),
		zap.Int("skipped", skipped),
		zap.Bool("gate_passed", gateErr == nil),
	)

	if resolveOutPath != "" {
		if err := profile.Save(resolveOutPath, prof); err != nil {
			return err
		}
		logger.Info("Resolved profile saved", zap.String("path", resolveOutPath))
	}

	if gateErr != nil {
		return fmt.Errorf("pre-flight gate failed: %w", gateErr)
	}
	return nil
}
