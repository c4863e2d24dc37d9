// File: internal/browser/js_test.go
package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptBuilders_EmbedQuotedArguments(t *testing.T) {
	script := QueryAllScript(`input[name="count"]`)
	assert.Contains(t, script, `"input[name=\"count\"]"`, "selector must be quoted for safe embedding")
	assert.Contains(t, script, "describe(")

	script = AriaLabelScript(`Storage "amount"`)
	assert.Contains(t, script, `"Storage \"amount\""`)
	assert.Contains(t, script, "[aria-label]")

	script = SelectOptionScript("#os", "Linux")
	assert.Contains(t, script, `"#os"`)
	assert.Contains(t, script, `"Linux"`)
	assert.Contains(t, script, "dispatchEvent")
}

func TestRoleNameScript_KnownAndUnknownRoles(t *testing.T) {
	script := RoleNameScript("spinbutton", "Instance count")
	assert.Contains(t, script, `input[type=\"number\"]`)
	assert.Contains(t, script, "accessibleName(el)")

	// An unknown role degrades to an explicit role-attribute query.
	script = RoleNameScript("slider", "Volume")
	assert.Contains(t, script, `[role=\"slider\"]`)
}

func TestBandScript_EmbedsGeometry(t *testing.T) {
	script := BandScript(420.5, 150)
	assert.Contains(t, script, "420.5")
	assert.Contains(t, script, "150")
	assert.Contains(t, script, "rect.y - b.rect.y", "band candidates sort top-to-bottom")
}

func TestSetValueScript_UsesNativeSetter(t *testing.T) {
	script := SetValueScript("#count", "12")
	assert.Contains(t, script, "getOwnPropertyDescriptor")
	assert.Contains(t, script, "Event('input'")
	assert.Contains(t, script, "Event('change'")
}

func TestScripts_AreSelfContainedExpressions(t *testing.T) {
	scripts := []string{
		QueryAllScript("#a"),
		AriaLabelScript("x"),
		LabelAssocScript("x"),
		RoleNameScript("textbox", "x"),
		BandScript(0, 150),
		NearestInteractiveScript("x"),
		InstanceRowScript("x"),
		ListboxOptionScript("x"),
		SelectOptionScript("#a", "v"),
		SetValueScript("#a", "v"),
		ReadValueScript("#a"),
		SelectedTextScript("#a"),
		CheckedStateScript("#a"),
	}
	for _, script := range scripts {
		trimmed := strings.TrimSpace(script)
		assert.True(t, strings.HasPrefix(trimmed, "(() => {"), "script must be an IIFE: %.40s", trimmed)
		assert.True(t, strings.HasSuffix(trimmed, "})()"), "script must evaluate to its return value")
	}
}
