// File: internal/resolver/overrides.go
package resolver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

// OverrideError reports every override whose (group, service, dimension)
// target does not exist in the profile. Aggregated, not first-failure.
type OverrideError struct {
	Unmatched []schemas.Override
}

func (e *OverrideError) Error() string {
	targets := make([]string, 0, len(e.Unmatched))
	for _, o := range e.Unmatched {
		targets = append(targets, fmt.Sprintf("%s/%s/%s", o.Group, o.Service, o.Dimension))
	}
	return fmt.Sprintf("%d override(s) matched no dimension: %s",
		len(e.Unmatched), strings.Join(targets, ", "))
}

// ApplyOverrides forces each override's value onto its target dimension's
// user value and clears prior resolution state so the chain re-evaluates.
// Overrides whose target does not exist anywhere in the profile are an
// error; nothing is silently dropped.
func (r *Resolver) ApplyOverrides(p *schemas.Profile, overrides []schemas.Override) error {
	var unmatched []schemas.Override

	for _, o := range overrides {
		matched := false
		for gi := range p.Groups {
			g := &p.Groups[gi]
			if g.Name != o.Group {
				continue
			}
			for si := range g.Services {
				s := &g.Services[si]
				if s.Name != o.Service {
					continue
				}
				for di := range s.Dimensions {
					d := &s.Dimensions[di]
					if d.Key != o.Dimension {
						continue
					}
					d.UserValue = o.Value
					d.ClearResolution()
					matched = true
					r.logger.Info("Override applied",
						zap.String("group", o.Group),
						zap.String("service", o.Service),
						zap.String("dimension", o.Dimension),
					)
				}
			}
		}
		if !matched {
			unmatched = append(unmatched, o)
		}
	}

	if len(unmatched) > 0 {
		return &OverrideError{Unmatched: unmatched}
	}
	return nil
}
