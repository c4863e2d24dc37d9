// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
	"github.com/xkilldash9x/autoform-cli/internal/catalog"
	"github.com/xkilldash9x/autoform-cli/internal/config"
	"github.com/xkilldash9x/autoform-cli/internal/interactor"
	"github.com/xkilldash9x/autoform-cli/internal/locator"
	"github.com/xkilldash9x/autoform-cli/internal/resolver"
	"github.com/xkilldash9x/autoform-cli/internal/retry"
)

// errRunFatal aborts the whole run; it wraps a browser-session failure that
// no later service could survive.
var errRunFatal = errors.New("run aborted by browser failure")

// Pipeline walks a resolved profile against the live target: for each service
// it navigates, selects the region, then locates and fills each dimension in
// catalog order. Failures fail forward into per-dimension results; only a
// non-timeout browser error aborts the run.
type Pipeline struct {
	page    schemas.Page
	catalog *schemas.Catalog
	cfg     *config.Config
	logger  *zap.Logger

	locator    *locator.Locator
	interactor *interactor.Interactor
}

func New(page schemas.Page, cat *schemas.Catalog, cfg *config.Config, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		page:       page,
		catalog:    cat,
		cfg:        cfg,
		logger:     logger.Named("pipeline"),
		locator:    locator.New(page, cfg.Pipeline, logger),
		interactor: interactor.New(page, cfg, logger),
	}
}

// Resolve runs the value resolver over the profile, applies overrides, and
// enforces the pre-flight gate. It is the only step that happens before any
// browser action: a required dimension the priority chain cannot resolve
// aborts here, with every unresolved entry listed.
func Resolve(p *schemas.Profile, overrides []schemas.Override, logger *zap.Logger) error {
	r := resolver.New(logger)
	if len(overrides) > 0 {
		if err := r.ApplyOverrides(p, overrides); err != nil {
			return err
		}
	}
	unresolved := r.ResolveProfile(p)
	return resolver.AssertNoUnresolved(unresolved)
}

// Run executes the already-resolved profile. The returned report is complete
// even on error: services and dimensions past a fatal point carry their
// terminal status instead of being dropped.
func (p *Pipeline) Run(ctx context.Context, prof *schemas.Profile) (*schemas.RunReport, error) {
	report := &schemas.RunReport{
		RunID:     uuid.NewString(),
		Profile:   prof.Name,
		StartedAt: time.Now().UTC(),
	}

	var runErr error
	for _, group := range prof.Groups {
		groupReport := schemas.GroupReport{Name: group.Name}
		for si := range group.Services {
			svc := &group.Services[si]

			if runErr != nil || ctx.Err() != nil {
				groupReport.Services = append(groupReport.Services, abortedService(svc, ctx.Err() != nil))
				continue
			}

			svcReport, fatal := p.runService(ctx, group.Name, svc)
			groupReport.Services = append(groupReport.Services, svcReport)
			if fatal != nil {
				p.logger.Error("Browser failure is fatal to the run", zap.Error(fatal))
				runErr = fmt.Errorf("%w: %v", errRunFatal, fatal)
			}
		}
		report.Groups = append(report.Groups, groupReport)
	}

	report.FinishedAt = time.Now().UTC()
	if runErr != nil {
		return report, runErr
	}
	return report, ctx.Err()
}

// runService drives one service page end to end. Navigation and region
// selection failures are fatal to the service: remaining dimensions report
// skipped with the service-aborted reason, and the run moves on. The second
// return value is non-nil only for a run-fatal browser failure.
func (p *Pipeline) runService(ctx context.Context, groupName string, svc *schemas.Service) (schemas.ServiceReport, error) {
	report := schemas.ServiceReport{Name: svc.Name, Status: schemas.DimensionFilled}
	log := p.logger.With(zap.String("group", groupName), zap.String("service", svc.Name))

	cat, ok := catalog.Service(p.catalog, svc.Name)
	if !ok {
		err := retry.Errorf(retry.KindServiceNotFound, "service %q has no catalog entry", svc.Name)
		log.Error("Service skipped", zap.Error(err))
		return failService(report, svc, err), nil
	}

	log.Info("Navigating to service form", zap.String("url", cat.URL))
	if err := p.page.Navigate(ctx, cat.URL); err != nil {
		wrapped := retry.NewError(retry.KindNavigation, err)
		log.Error("Navigation failed", zap.Error(wrapped))
		return failService(report, svc, wrapped), nil
	}

	if err := p.selectRegion(ctx, cat, svc.Region); err != nil {
		log.Error("Region selection failed", zap.Error(err))
		return failService(report, svc, err), nil
	}

	for _, dim := range orderedDimensions(cat, svc) {
		// Cancellation checkpoint between dimensions, never mid-fill.
		if err := ctx.Err(); err != nil {
			report.Dimensions = append(report.Dimensions, schemas.DimensionResult{
				Key:    dim.Key,
				Status: schemas.DimensionCancelled,
			})
			report.Status = schemas.DimensionCancelled
			continue
		}

		result, fatal := p.runDimension(ctx, log, cat, dim)
		report.Dimensions = append(report.Dimensions, result)

		if result.Status == schemas.DimensionFailed {
			report.Status = schemas.DimensionFailed
		}
		if fatal != nil {
			report.Error = fatal.Error()
			return report, fatal
		}
	}
	return report, nil
}

// runDimension locates and fills one resolved dimension, translating the
// outcome into its structured fail-forward record. The second return value is
// non-nil only when the failure kind is fatal to the run.
func (p *Pipeline) runDimension(ctx context.Context, log *zap.Logger, cat schemas.ServiceCatalog, dim *schemas.Dimension) (schemas.DimensionResult, error) {
	result := schemas.DimensionResult{Key: dim.Key}

	switch dim.ResolutionStatus {
	case schemas.ResolutionResolved:
		// Proceed to locate and fill.
	case schemas.ResolutionSkipped:
		result.Status = schemas.DimensionSkipped
		if dim.ResolutionSource == schemas.SourcePrompt {
			result.SkipReason = schemas.SkipPromptDeferred
		} else {
			result.SkipReason = schemas.SkipNotRequired
		}
		return result, nil
	default:
		// Unresolved dimensions never reach the browser when the gate ran;
		// reaching here means the caller bypassed it.
		result.Status = schemas.DimensionFailed
		result.ErrorDetail = fmt.Sprintf("dimension %q reached the pipeline unresolved", dim.Key)
		return result, nil
	}

	hint, ok := cat.Hint(dim.Key)
	if !ok {
		hint = schemas.FieldHint{Key: dim.Key, Required: dim.Required}
	}

	located, _, locErr := retry.Do(ctx, log, retry.Options{
		StepName:   fmt.Sprintf("locate:%s", dim.Key),
		MaxRetries: p.cfg.Pipeline.MaxRetries,
		Delay:      p.cfg.Pipeline.RetryDelay,
	}, func(c context.Context) (schemas.LocatorResult, error) {
		return p.locator.Locate(c, hint)
	})
	if locErr != nil {
		result.ErrorDetail = locErr.Error()
		if retry.KindOf(locErr) == retry.KindBrowser {
			result.Status = schemas.DimensionFailed
			return result, locErr
		}
		if !hint.Required && !dim.Required {
			result.Status = schemas.DimensionSkipped
			result.SkipReason = schemas.SkipOptionalNotFound
			return result, nil
		}
		result.Status = schemas.DimensionFailed
		result.ScreenshotPath = p.failureScreenshot(ctx, log, dim.Key, locErr)
		return result, nil
	}
	result.Strategy = located.Strategy

	fill, fillErr := p.interactor.Fill(ctx, dim.Key, dim.ValueString(), hint, located)
	result.RetriesUsed = fill.RetriesUsed
	result.Verified = fill.Verified
	result.ScreenshotPath = fill.Screenshot
	switch fill.Status {
	case schemas.StatusSuccess:
		result.Status = schemas.DimensionFilled
		log.Info("Dimension filled",
			zap.String("key", dim.Key),
			zap.String("strategy", string(located.Strategy)),
			zap.Int("retries", fill.RetriesUsed),
			zap.Bool("verified", fill.Verified),
		)
	case schemas.StatusSkipped:
		result.Status = schemas.DimensionSkipped
		result.SkipReason = schemas.SkipOptionalNotFound
		result.ErrorDetail = fill.Message
	default:
		result.Status = schemas.DimensionFailed
		result.ErrorDetail = fill.Message
	}
	if fillErr != nil && retry.KindOf(fillErr) == retry.KindBrowser {
		return result, fillErr
	}
	return result, nil
}

// selectRegion applies the service's region choice through the catalog's
// region selector. A declared region with no selector, or a selector the page
// rejects, is fatal to the service.
func (p *Pipeline) selectRegion(ctx context.Context, cat schemas.ServiceCatalog, region string) error {
	if region == "" {
		return nil
	}
	if cat.RegionSelector == "" {
		return retry.Errorf(retry.KindRegionSelection,
			"service %q declares region %q but its catalog has no region selector", cat.Name, region)
	}
	if err := p.page.SelectOption(ctx, cat.RegionSelector, region); err != nil {
		return retry.Errorf(retry.KindRegionSelection, "selecting region %q: %v", region, err)
	}
	return nil
}

func (p *Pipeline) failureScreenshot(ctx context.Context, log *zap.Logger, key string, err error) string {
	if !retry.Categorize(err).ShouldScreenshot {
		return ""
	}
	path := fmt.Sprintf("%s/%s-%s.png", p.cfg.Artifacts.ScreenshotDir, key, uuid.NewString()[:8])
	if shotErr := p.page.Screenshot(ctx, path); shotErr != nil {
		log.Warn("Diagnostic screenshot failed", zap.String("key", key), zap.Error(shotErr))
		return ""
	}
	return path
}

// orderedDimensions yields the service's dimensions in catalog order first,
// then any profile dimensions the catalog does not mention, in profile order.
func orderedDimensions(cat schemas.ServiceCatalog, svc *schemas.Service) []*schemas.Dimension {
	byKey := make(map[string]*schemas.Dimension, len(svc.Dimensions))
	for di := range svc.Dimensions {
		byKey[svc.Dimensions[di].Key] = &svc.Dimensions[di]
	}

	ordered := make([]*schemas.Dimension, 0, len(svc.Dimensions))
	seen := make(map[string]bool, len(svc.Dimensions))
	for _, hint := range cat.Dimensions {
		if dim, ok := byKey[hint.Key]; ok {
			ordered = append(ordered, dim)
			seen[hint.Key] = true
		}
	}
	for di := range svc.Dimensions {
		if !seen[svc.Dimensions[di].Key] {
			ordered = append(ordered, &svc.Dimensions[di])
		}
	}
	return ordered
}

// failService marks every dimension of a service skipped after a
// service-fatal failure.
func failService(report schemas.ServiceReport, svc *schemas.Service, err error) schemas.ServiceReport {
	report.Status = schemas.DimensionFailed
	report.Error = err.Error()
	for _, dim := range svc.Dimensions {
		report.Dimensions = append(report.Dimensions, schemas.DimensionResult{
			Key:         dim.Key,
			Status:      schemas.DimensionSkipped,
			SkipReason:  schemas.SkipServiceAborted,
			ErrorDetail: "service aborted before this dimension",
		})
	}
	return report
}

// abortedService reports a service the run never reached, either because the
// run went fatal or because cancellation arrived first.
func abortedService(svc *schemas.Service, cancelled bool) schemas.ServiceReport {
	status := schemas.DimensionFailed
	detail := "run aborted before this service"
	if cancelled {
		status = schemas.DimensionCancelled
		detail = "run cancelled before this service"
	}
	report := schemas.ServiceReport{Name: svc.Name, Status: status, Error: detail}
	for _, dim := range svc.Dimensions {
		report.Dimensions = append(report.Dimensions, schemas.DimensionResult{
			Key:         dim.Key,
			Status:      status,
			SkipReason:  schemas.SkipServiceAborted,
			ErrorDetail: detail,
		})
	}
	return report
}

