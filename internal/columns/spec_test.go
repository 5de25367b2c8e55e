package columns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataPath(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func headers(cols []*Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header()
	}
	return out
}

func TestLoad_Fixtures(t *testing.T) {
	tests := []struct {
		file string
		want []string
	}{
		{"report_columns.yaml", []string{
			"sample", "chr", "start", "stop", "ref", "alt", "report", "gvcf_depth", "ref_depth", "alt_depth",
			"Analyzable", "Min_read_depth300", "Gene", "Variant_type", "Consequence", "Callers", "Comment",
		}},
		{"report_columns_order.yaml", []string{
			"stop", "start", "chr", "Gene", "sample", "ref", "alt", "report", "gvcf_depth", "ref_depth", "alt_depth",
			"Analyzable", "Min_read_depth300", "Variant_type", "Consequence", "Callers", "Comment",
		}},
		{"report_columns_hide.yaml", []string{
			"Gene", "sample", "start", "ref", "alt", "report", "gvcf_depth", "ref_depth", "alt_depth",
			"Analyzable", "Variant_type", "Consequence", "Callers", "Comment",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			spec, err := Load(testdataPath(tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.want, headers(spec.Layout()))
			assert.Equal(t, "DP", spec.DepthField)
			assert.Nil(t, spec.Levels)
		})
	}
}

func TestParse_Rules(t *testing.T) {
	doc := `
columns:
  gvcf_depth:
    field: MIN_DP
    format: "{:.1f}"
  Gene:
    from: vep
    field: SYMBOL
    extract_regex: "[A-Z]+"
  Exon:
    from: hotspot
    field: EXON
  VAF:
    from: function
    name: get_vaf
    variables: [var]
    format: [string, "{:.1%}"]
  Depth:
    from: variable
    field: depth
    format: [string, "{:,d}", int]
  Site:
    from: merge
    divider: ":"
    elements:
      chr: {}
      start: {}
  Pick:
    from: select
    select: "[0]"
    else: [1]
    condition: "1:"
    elements:
      Gene:
        from: vep
        field: SYMBOL
      Comment:
        from: hotspot
        field: COMMENT
  Conseq:
    from: vep
    field: Consequence
    format: [replace, "&", ", "]
levels:
  - [500, high, "yes"]
  - [0, low, "no"]
`
	spec, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "MIN_DP", spec.DepthField)
	assert.Equal(t, Levels{{500, "high", "yes"}, {0, "low", "no"}}, spec.Levels)
	require.Len(t, spec.Columns, 8)

	depth := spec.Column("gvcf_depth")
	assert.Nil(t, depth.Rule)
	assert.Equal(t, TemplateFormat{Template: "{:.1f}"}, depth.Format)

	gene, ok := spec.Column("Gene").Rule.(VEPRule)
	require.True(t, ok)
	assert.Equal(t, "SYMBOL", gene.Field)
	require.NotNil(t, gene.Extract)

	assert.Equal(t, HotspotRule{Field: "EXON"}, spec.Column("Exon").Rule)
	assert.Equal(t, FunctionRule{Name: "get_vaf", Variables: []string{"var"}}, spec.Column("VAF").Rule)
	assert.Equal(t, TemplateFormat{Template: "{:.1%}", Cast: CastFloat}, spec.Column("VAF").Format)
	assert.Equal(t, VariableRule{Field: "depth"}, spec.Column("Depth").Rule)
	assert.Equal(t, TemplateFormat{Template: "{:,d}", Cast: CastInt}, spec.Column("Depth").Format)
	assert.Equal(t, ReplaceFormat{Old: "&", New: ", "}, spec.Column("Conseq").Format)

	site := spec.Column("Site")
	merge, ok := site.Rule.(MergeRule)
	require.True(t, ok)
	assert.Equal(t, ":", merge.Divider)
	assert.Equal(t, []string{"chr", "start"}, headers(merge.Elements))
	assert.Equal(t, "Site_chr:start", site.Header())

	sel, ok := spec.Column("Pick").Rule.(SelectRule)
	require.True(t, ok)
	assert.Equal(t, "[0]", sel.Select.String())
	require.NotNil(t, sel.Else)
	assert.Equal(t, "1", sel.Else.String())
	require.NotNil(t, sel.Condition)
	assert.Equal(t, "1:", sel.Condition.String())
	assert.Equal(t, ",", sel.Divider)
}

func TestParse_NestedMergeHeader(t *testing.T) {
	doc := `
columns:
  Pos:
    from: merge
    divider: "|"
    elements:
      chr: {}
      Span:
        from: merge
        divider: "-"
        elements:
          start: {}
          stop: {}
`
	spec, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	layout := spec.Layout()
	assert.Equal(t, "Pos_chr|Span_start-stop", layout[len(layout)-1].Header())
}

func TestParse_Empty(t *testing.T) {
	spec, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Builtins, headers(spec.Layout()))
	assert.Equal(t, "DP", spec.DepthField)

	spec, err = Parse(strings.NewReader("columns:\n"))
	require.NoError(t, err)
	assert.Empty(t, spec.Columns)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown source", "columns:\n  X:\n    from: sql\n", `unknown source "sql"`},
		{"unknown function", "columns:\n  X:\n    from: function\n    name: eval\n", `unknown function "eval"`},
		{"wrong arity", "columns:\n  X:\n    from: function\n    name: is_indel\n    variables: [var, ref]\n", "takes 1 arguments"},
		{"unknown attribute", "columns:\n  X:\n    from: hotspot\n    field: COLOR\n", `unknown hotspot attribute "COLOR"`},
		{"unknown variable", "columns:\n  X:\n    from: variable\n    field: nope\n", `unknown variable "nope"`},
		{"vep without field", "columns:\n  X:\n    from: vep\n", "needs a field"},
		{"bad regex", "columns:\n  X:\n    from: vep\n    field: SYMBOL\n    extract_regex: \"(\"\n", "extract_regex"},
		{"merge without divider", "columns:\n  X:\n    from: merge\n    elements:\n      chr: {}\n", "needs a divider"},
		{"merge without elements", "columns:\n  X:\n    from: merge\n    divider: ','\n", "missing elements"},
		{"select without expression", "columns:\n  X:\n    from: select\n    elements:\n      chr: {}\n", "needs a select expression"},
		{"bad slice", "columns:\n  X:\n    from: select\n    select: '[a]'\n    elements:\n      chr: {}\n", "select:"},
		{"no from", "columns:\n  Gene:\n    field: SYMBOL\n", "missing 'from'"},
		{"no from in element", "columns:\n  X:\n    from: merge\n    divider: ','\n    elements:\n      Gene: {}\n", "missing 'from'"},
		{"order in element", "columns:\n  X:\n    from: merge\n    divider: ','\n    elements:\n      chr:\n        order: 1\n", "top-level"},
		{"bad format", "columns:\n  chr:\n    format: [upper]\n", `unknown format "upper"`},
		{"bad cast", "columns:\n  chr:\n    format: [string, '{}', bool]\n", `unknown cast "bool"`},
		{"bad visible", "columns:\n  chr:\n    visible: maybe\n", "expected 0, 1 or a boolean"},
		{"negative order", "columns:\n  chr:\n    order: -1\n", "must not be negative"},
		{"unknown key", "rows: {}\n", `unknown key "rows"`},
		{"bad level", "levels:\n  - [x, ok, 'yes']\n", "invalid level"},
		{"short level", "levels:\n  - [30, ok]\n", "expected [min, status, analyzable]"},
		{"not a mapping", "- a\n- b\n", "top level must be a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ConfigErrorType(t *testing.T) {
	_, err := Parse(strings.NewReader("columns:\n  X:\n    from: sql\n"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "X", ce.Column)
}

func TestLayout(t *testing.T) {
	doc := `
columns:
  Extra:
    from: variable
    field: depth
  Hidden:
    from: variable
    field: depth
    visible: false
  report:
    order: 20
  sample:
    visible: 0
  First:
    from: variable
    field: chrom
    order: 0
`
	spec, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First", "report", "chr", "start", "stop", "ref", "alt", "gvcf_depth", "ref_depth", "alt_depth",
		"Extra",
	}, headers(spec.Layout()))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
