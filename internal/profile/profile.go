// internal/profile/profile.go
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/autoform-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Load reads a profile declaration from disk.
func Load(path string) (*schemas.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", path, err)
	}
	var p schemas.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %q: %w", path, err)
	}
	if len(p.Groups) == 0 {
		return nil, fmt.Errorf("profile %q declares no groups", path)
	}
	return &p, nil
}

// Save writes a profile back to disk, resolution state included, so a
// dry-run's output can be inspected or replayed.
func Save(path string, p *schemas.Profile) error {
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing profile %q: %w", path, err)
	}
	return nil
}

// LoadOverrides reads an override file: a JSON array of group/service/
// dimension/value instructions.
func LoadOverrides(path string) ([]schemas.Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading overrides %q: %w", path, err)
	}
	var overrides []schemas.Override
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("decoding overrides %q: %w", path, err)
	}
	return overrides, nil
}
