// api/schemas/catalog.go
package schemas

import "strings"

// FieldType classifies a form control for the interactor's dispatch table.
type FieldType string

const (
	FieldNumber         FieldType = "NUMBER"
	FieldText           FieldType = "TEXT"
	FieldSelect         FieldType = "SELECT"
	FieldCombobox       FieldType = "COMBOBOX"
	FieldToggle         FieldType = "TOGGLE"
	FieldRadio          FieldType = "RADIO"
	FieldInstanceSearch FieldType = "INSTANCE_SEARCH"
)

// NormalizeFieldType maps a raw catalog string to a known FieldType.
// Unrecognized types fall back to TEXT, which shares the NUMBER strategy.
func NormalizeFieldType(raw string) FieldType {
	switch FieldType(strings.ToUpper(strings.TrimSpace(raw))) {
	case FieldNumber:
		return FieldNumber
	case FieldSelect:
		return FieldSelect
	case FieldCombobox:
		return FieldCombobox
	case FieldToggle:
		return FieldToggle
	case FieldRadio:
		return FieldRadio
	case FieldInstanceSearch:
		return FieldInstanceSearch
	default:
		return FieldText
	}
}

// FieldHint is the catalog's per-dimension locator guidance. All fields except
// Key are optional; absent hints push the locator down its fallback tiers.
type FieldHint struct {
	Key                 string   `json:"key"`
	FieldType           string   `json:"field_type"`
	CSSSelector         string   `json:"css_selector,omitempty"`
	FallbackLabel       string   `json:"fallback_label,omitempty"`
	DisambiguationIndex int      `json:"disambiguation_index,omitempty"`
	UnitSibling         string   `json:"unit_sibling,omitempty"`
	Options             []string `json:"options,omitempty"`
	Required            bool     `json:"required"`
}

// ServiceCatalog describes one target form: where it lives and the hints for
// each dimension, in fill order.
type ServiceCatalog struct {
	Name           string      `json:"name"`
	URL            string      `json:"url"`
	RegionSelector string      `json:"region_selector,omitempty"`
	Dimensions     []FieldHint `json:"dimensions"`
}

// Catalog is the full hint set, keyed by service name.
type Catalog struct {
	Services map[string]ServiceCatalog `json:"services"`
}

// Hint returns the catalog hint for a dimension key within a service, if any.
func (c ServiceCatalog) Hint(key string) (FieldHint, bool) {
	for _, h := range c.Dimensions {
		if h.Key == key {
			return h, true
		}
	}
	return FieldHint{}, false
}
