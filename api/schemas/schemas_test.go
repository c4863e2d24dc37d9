// File: api/schemas/schemas_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueString(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "t3.micro", "t3.micro"},
		{"integral float stays integral", float64(30), "30"},
		{"fractional float keeps precision", 2.5, "2.5"},
		{"bool", true, "true"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValueString(tc.in))
		})
	}
}

func TestDimension_ClearResolution(t *testing.T) {
	d := Dimension{
		Key:              "instance_type",
		ResolvedValue:    "t3.micro",
		ResolutionSource: SourceUserValue,
		ResolutionStatus: ResolutionResolved,
	}
	d.ClearResolution()
	assert.Nil(t, d.ResolvedValue)
	assert.Equal(t, SourceNone, d.ResolutionSource)
	assert.Empty(t, d.ResolutionStatus)
}

func TestNormalizeFieldType(t *testing.T) {
	assert.Equal(t, FieldNumber, NormalizeFieldType("NUMBER"))
	assert.Equal(t, FieldSelect, NormalizeFieldType(" select "))
	assert.Equal(t, FieldInstanceSearch, NormalizeFieldType("instance_search"))
	assert.Equal(t, FieldText, NormalizeFieldType("TEXT"))
	assert.Equal(t, FieldText, NormalizeFieldType("TELEPORT"), "unrecognized falls back to TEXT")
	assert.Equal(t, FieldText, NormalizeFieldType(""))
}

func TestUnresolvedDimension_String(t *testing.T) {
	u := UnresolvedDimension{
		GroupName:    "compute",
		ServiceName:  "EC2",
		DimensionKey: "tenancy",
		Required:     true,
		Reason:       "nothing set",
	}
	assert.Equal(t, "compute/EC2/tenancy: nothing set", u.String())
}
