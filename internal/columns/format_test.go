package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateFormat_Apply(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  string
		cast  Cast
		value string
		want  string
	}{
		{"percent", "{:.1%}", CastFloat, "0.0123", "1.2%"},
		{"grouped int", "{:,d}", CastInt, "1234567", "1,234,567"},
		{"underscore grouping", "{:_}", CastInt, "1234567", "1_234_567"},
		{"int cast truncates", "{}", CastInt, "100.5", "100"},
		{"right aligned string", "{:>8}", CastStr, "abc", "     abc"},
		{"centered", "{:^7}", CastStr, "ab", "  ab   "},
		{"custom fill", "{:*<5}", CastStr, "ab", "ab***"},
		{"zero padded fixed", "{:08.3f}", CastFloat, "3.14159", "0003.142"},
		{"negative zero padded", "{:06.1f}", CastFloat, "-2.25", "-002.2"},
		{"grouped fixed", "{:,.2f}", CastFloat, "1234.5", "1,234.50"},
		{"plus sign exponent", "{:+.1e}", CastFloat, "12345", "+1.2e+04"},
		{"general precision", "{:.3}", CastFloat, "3.14159", "3.14"},
		{"float repr", "{}", CastFloat, "2", "2.0"},
		{"auto int", "{} reads", CastAuto, "42", "42 reads"},
		{"auto float", "{:.2f}", CastAuto, "0.5", "0.50"},
		{"auto string", "[{}]", CastAuto, "ALK", "[ALK]"},
		{"hex", "{:x}", CastInt, "255", "ff"},
		{"alternate upper hex", "{:#X}", CastInt, "255", "0XFF"},
		{"escaped braces", "{{{}}}", CastInt, "5", "{5}"},
		{"positional field", "{0:.0%}", CastFloat, "0.25", "25%"},
		{"string truncation", "{:.3}", CastStr, "BRAFV600E", "BRA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemplateFormat{Template: tt.tmpl, Cast: tt.cast}.Apply(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateFormat_Errors(t *testing.T) {
	tests := []struct {
		name  string
		tmpl  string
		cast  Cast
		value string
	}{
		{"not a float", "{:.2f}", CastFloat, "-"},
		{"not an int", "{:d}", CastInt, "abc"},
		{"int code on float", "{:d}", CastFloat, "1.5"},
		{"numeric spec on string", "{:,}", CastStr, "abc"},
		{"unclosed brace", "{:.2f", CastFloat, "1"},
		{"single closing brace", "}", CastFloat, "1"},
		{"named field", "{value}", CastFloat, "1"},
		{"bad spec", "{:q}", CastFloat, "1"},
		{"precision on int", "{:.2d}", CastInt, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TemplateFormat{Template: tt.tmpl, Cast: tt.cast}.Apply(tt.value)
			assert.Error(t, err)
			if err != nil && tt.name == "not a float" {
				assert.Equal(t, tt.value, got)
			}
		})
	}
}

func TestReplaceFormat_Apply(t *testing.T) {
	got, err := ReplaceFormat{Old: "&", New: ", "}.Apply("splice_region_variant&intron_variant")
	require.NoError(t, err)
	assert.Equal(t, "splice_region_variant, intron_variant", got)

	got, err = ReplaceFormat{Old: "x", New: "y"}.Apply("ALK")
	require.NoError(t, err)
	assert.Equal(t, "ALK", got)
}

func TestReprFloat(t *testing.T) {
	assert.Equal(t, "100.5", reprFloat(100.5))
	assert.Equal(t, "0.0", reprFloat(0))
	assert.Equal(t, "1e-05", reprFloat(0.00001))
}
