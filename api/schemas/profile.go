// api/schemas/profile.go
package schemas

import (
	"fmt"
	"strconv"
)

// ResolutionSource identifies which link of the priority chain produced a
// dimension's value.
type ResolutionSource string

const (
	SourceUserValue    ResolutionSource = "user_value"
	SourceDefaultValue ResolutionSource = "default_value"
	SourcePrompt       ResolutionSource = "prompt"
	SourceNone         ResolutionSource = ""
)

// ResolutionStatus is the terminal state of one resolution pass over a
// dimension. It is set exactly once per pass.
type ResolutionStatus string

const (
	ResolutionResolved   ResolutionStatus = "resolved"
	ResolutionSkipped    ResolutionStatus = "skipped"
	ResolutionUnresolved ResolutionStatus = "unresolved"
)

// Dimension is one named field value to be resolved and eventually written to
// the target form. UserValue and DefaultValue may each be absent (nil); the
// profile JSON allows both strings and numbers, so they are held untyped and
// normalized through ValueString when written to the page.
type Dimension struct {
	Key           string `json:"key"`
	UserValue     any    `json:"user_value,omitempty"`
	DefaultValue  any    `json:"default_value,omitempty"`
	PromptMessage string `json:"prompt_message,omitempty"`
	Required      bool   `json:"required"`

	// Resolution state. Written only by the resolver.
	ResolvedValue    any              `json:"resolved_value,omitempty"`
	ResolutionSource ResolutionSource `json:"resolution_source,omitempty"`
	ResolutionStatus ResolutionStatus `json:"resolution_status,omitempty"`
}

// ClearResolution nulls out prior resolution state so a later pass re-derives
// it. Called when an override rewrites the dimension's user value.
func (d *Dimension) ClearResolution() {
	d.ResolvedValue = nil
	d.ResolutionSource = SourceNone
	d.ResolutionStatus = ""
}

// ValueString renders the resolved value as the string that gets typed into
// the form. JSON numbers arrive as float64; integral values must not grow a
// trailing ".0".
func (d *Dimension) ValueString() string {
	return ValueString(d.ResolvedValue)
}

// ValueString normalizes an untyped profile value to its form representation.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Service is one target form (one page of the estimator) with its ordered
// dimensions.
type Service struct {
	Name       string      `json:"name"`
	Region     string      `json:"region,omitempty"`
	Dimensions []Dimension `json:"dimensions"`
}

// Group is a named collection of services.
type Group struct {
	Name     string    `json:"name"`
	Services []Service `json:"services"`
}

// Profile declares everything the pipeline should reproduce on the target
// application.
type Profile struct {
	Name   string  `json:"name,omitempty"`
	Groups []Group `json:"groups"`
}

// Override is an external instruction "for group G, service S, dimension D,
// force value V", keyed by the triple.
type Override struct {
	Group     string `json:"group"`
	Service   string `json:"service"`
	Dimension string `json:"dimension"`
	Value     any    `json:"value"`
}

// UnresolvedDimension records a required dimension the priority chain could
// not resolve. The pre-flight gate aborts on any of these.
type UnresolvedDimension struct {
	GroupName    string `json:"group_name"`
	ServiceName  string `json:"service_name"`
	DimensionKey string `json:"dimension_key"`
	Required     bool   `json:"required"`
	Reason       string `json:"reason"`
}

func (u UnresolvedDimension) String() string {
	return fmt.Sprintf("%s/%s/%s: %s", u.GroupName, u.ServiceName, u.DimensionKey, u.Reason)
}
