package numbering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fieldCodes(g *Generator) map[string]string {
	out := map[string]string{}
	for _, e := range ValidateConfig(g) {
		out[e.Field] = e.Code
	}
	return out
}

func TestValidateConfig_Valid(t *testing.T) {
	g := &Generator{ProductCode: "POL", Mask: "POL-########", ResetPolicy: ResetYearly, MaxValue: 99999999}
	assert.Empty(t, ValidateConfig(g))
}

func TestValidateConfig_Rules(t *testing.T) {
	tests := []struct {
		name  string
		g     Generator
		field string
		code  string
	}{
		{"empty product", Generator{Mask: "#", ResetPolicy: ResetNever, MaxValue: 9}, "productCode", CodeRequired},
		{"blank product", Generator{ProductCode: "  ", Mask: "#", ResetPolicy: ResetNever, MaxValue: 9}, "productCode", CodeRequired},
		{"no placeholder", Generator{ProductCode: "P", Mask: "NOFIELD", ResetPolicy: ResetNever, MaxValue: 9}, "mask", CodeNoPlaceholder},
		{"two runs", Generator{ProductCode: "P", Mask: "##-##", ResetPolicy: ResetNever, MaxValue: 9}, "mask", CodeMultiplePlaceholders},
		{"zero max", Generator{ProductCode: "P", Mask: "###", ResetPolicy: ResetNever, MaxValue: 0}, "maxValue", CodeNotPositive},
		{"negative max", Generator{ProductCode: "P", Mask: "###", ResetPolicy: ResetNever, MaxValue: -5}, "maxValue", CodeNotPositive},
		{"max wider than mask", Generator{ProductCode: "P", Mask: "###", ResetPolicy: ResetNever, MaxValue: 1000}, "maxValue", CodeExceedsMask},
		{"bad policy", Generator{ProductCode: "P", Mask: "###", ResetPolicy: "DAILY", MaxValue: 9}, "resetPolicy", CodeInvalid},
		{"missing policy", Generator{ProductCode: "P", Mask: "###", MaxValue: 9}, "resetPolicy", CodeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := fieldCodes(&tt.g)
			assert.Equal(t, tt.code, codes[tt.field])
			assert.Len(t, codes, 1)
		})
	}
}

func TestValidateConfig_CollectsAll(t *testing.T) {
	g := &Generator{Mask: "NOFIELD", ResetPolicy: "SOMETIMES", MaxValue: -1}
	codes := fieldCodes(g)
	assert.Equal(t, map[string]string{
		"productCode": CodeRequired,
		"mask":        CodeNoPlaceholder,
		"resetPolicy": CodeInvalid,
		"maxValue":    CodeNotPositive,
	}, codes)
}

func TestValidateConfig_Idempotent(t *testing.T) {
	g := &Generator{ProductCode: "", Mask: "NOFIELD", ResetPolicy: ResetMonthly, MaxValue: 0}
	assert.Equal(t, ValidateConfig(g), ValidateConfig(g))
}

func TestApplyDefaults(t *testing.T) {
	g := &Generator{ProductCode: " POL ", Mask: "POL-########"}
	g.ApplyDefaults()
	assert.Equal(t, "POL", g.ProductCode)
	assert.Equal(t, DefaultMaxValue, g.MaxValue)

	narrow := &Generator{Mask: "INV-####"}
	narrow.ApplyDefaults()
	assert.Equal(t, int64(9999), narrow.MaxValue)

	explicit := &Generator{Mask: "INV-####", MaxValue: -3}
	explicit.ApplyDefaults()
	assert.Equal(t, int64(-3), explicit.MaxValue)
}

func TestParseResetPolicy(t *testing.T) {
	assert.Equal(t, ResetMonthly, ParseResetPolicy(" monthly "))
	assert.False(t, ParseResetPolicy("weekly").Valid())
}
