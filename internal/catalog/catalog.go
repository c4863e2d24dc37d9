// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/xeipuuv/gojsonschema"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

//go:embed schema/catalog.schema.json
var catalogSchema string

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultServiceKey is the catalog entry consulted for services that have no
// entry of their own.
const DefaultServiceKey = "default"

// Load reads and validates a service catalog file. Validation is fail-fast:
// an invalid document reports every schema violation at once instead of the
// first one encountered.
func Load(path string) (*schemas.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates raw catalog JSON against the embedded schema and decodes it.
func Parse(raw []byte) (*schemas.Catalog, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(catalogSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}
	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("catalog failed schema validation:\n  - %s", strings.Join(issues, "\n  - "))
	}

	var cat schemas.Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return &cat, nil
}

// Service looks up a service's catalog entry by name, case-insensitively.
// A catalog may carry a "default" entry that serves any service without one
// of its own; that entry keeps its URL but lends out its field hints.
func Service(cat *schemas.Catalog, name string) (schemas.ServiceCatalog, bool) {
	if svc, ok := cat.Services[name]; ok {
		return svc, true
	}
	for key, svc := range cat.Services {
		if key == DefaultServiceKey {
			continue
		}
		if strings.EqualFold(key, name) || strings.EqualFold(svc.Name, name) {
			return svc, true
		}
	}
	if svc, ok := cat.Services[DefaultServiceKey]; ok {
		svc.Name = name
		return svc, true
	}
	return schemas.ServiceCatalog{}, false
}
