// File: internal/resolver/resolver.go
package resolver

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

// Resolver walks a profile and derives a concrete value for every dimension
// through the fixed priority chain: user value, then default, then prompt
// deferral, then silent skip for optional dimensions. It is the sole writer
// of dimension resolution state; downstream stages only read.
type Resolver struct {
	logger *zap.Logger
}

// New creates a Resolver.
func New(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("resolver")}
}

// ResolutionError aborts a run before any browser action. It carries every
// required-and-unresolved entry, never just the first.
type ResolutionError struct {
	Unresolved []schemas.UnresolvedDimension
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d required dimension(s) could not be resolved:", len(e.Unresolved))
	for _, u := range e.Unresolved {
		b.WriteString("\n  - " + u.String())
	}
	return b.String()
}

// ResolveDimension applies the priority chain to a single dimension, first
// match wins, no blending. It returns an UnresolvedDimension entry iff the
// dimension is required and nothing in the chain produced a value.
func (r *Resolver) ResolveDimension(groupName, serviceName string, d *schemas.Dimension) *schemas.UnresolvedDimension {
	switch {
	case d.UserValue != nil:
		d.ResolvedValue = d.UserValue
		d.ResolutionSource = schemas.SourceUserValue
		d.ResolutionStatus = schemas.ResolutionResolved

	case d.DefaultValue != nil:
		d.ResolvedValue = d.DefaultValue
		d.ResolutionSource = schemas.SourceDefaultValue
		d.ResolutionStatus = schemas.ResolutionResolved

	case d.PromptMessage != "":
		// A human answers this one interactively later; do not block here.
		d.ResolvedValue = nil
		d.ResolutionSource = schemas.SourcePrompt
		d.ResolutionStatus = schemas.ResolutionSkipped

	case !d.Required:
		// Optional with nothing to say: dropped silently, never an error.
		d.ResolvedValue = nil
		d.ResolutionSource = schemas.SourceNone
		d.ResolutionStatus = schemas.ResolutionSkipped

	default:
		d.ResolvedValue = nil
		d.ResolutionSource = schemas.SourceNone
		d.ResolutionStatus = schemas.ResolutionUnresolved
		return &schemas.UnresolvedDimension{
			GroupName:    groupName,
			ServiceName:  serviceName,
			DimensionKey: d.Key,
			Required:     true,
			Reason:       "no user value, no default, and no prompt for a required dimension",
		}
	}

	r.logger.Debug("Dimension resolved",
		zap.String("group", groupName),
		zap.String("service", serviceName),
		zap.String("dimension", d.Key),
		zap.String("source", string(d.ResolutionSource)),
		zap.String("status", string(d.ResolutionStatus)),
	)
	return nil
}

// ResolveProfile resolves every dimension of every service and returns the
// collected unresolved entries. Mutates the profile's dimensions in place.
func (r *Resolver) ResolveProfile(p *schemas.Profile) []schemas.UnresolvedDimension {
	var unresolved []schemas.UnresolvedDimension
	for gi := range p.Groups {
		g := &p.Groups[gi]
		for si := range g.Services {
			s := &g.Services[si]
			for di := range s.Dimensions {
				if entry := r.ResolveDimension(g.Name, s.Name, &s.Dimensions[di]); entry != nil {
					unresolved = append(unresolved, *entry)
				}
			}
		}
	}
	return unresolved
}

// AssertNoUnresolved is the single fail-fast checkpoint before any browser
// action. It is idempotent and side-effect-free so dry runs can call it
// without touching a browser. The returned error's list equals exactly the
// required subset of the input.
func AssertNoUnresolved(unresolved []schemas.UnresolvedDimension) error {
	var required []schemas.UnresolvedDimension
	for _, u := range unresolved {
		if u.Required {
			required = append(required, u)
		}
	}
	if len(required) == 0 {
		return nil
	}
	return &ResolutionError{Unresolved: required}
}
