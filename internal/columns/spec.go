// Package columns parses report column definitions and projects report rows
// through them.
package columns

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inodb/hotspot-report/internal/hotspot"
)

// Rule computes the value of a column. The concrete types are VEPRule,
// HotspotRule, FunctionRule, VariableRule, MergeRule and SelectRule.
type Rule interface {
	rule()
}

// VEPRule reads a CSQ sub-field of the annotated record.
type VEPRule struct {
	Field   string
	Extract *regexp.Regexp // optional extract_regex
}

// HotspotRule reads an attribute of the matched region.
type HotspotRule struct {
	Field string
}

// FunctionRule calls a registered helper. Variables resolve against the row;
// unresolved names are passed as literal strings. Column indexes a tuple
// result.
type FunctionRule struct {
	Name      string
	Variables []string
	Column    *int
}

// VariableRule reads a named row value.
type VariableRule struct {
	Field string
}

// MergeRule joins the values of its elements with Divider.
type MergeRule struct {
	Divider  string
	Elements []*Column
}

// SelectRule picks element values with a slice expression. Else is used
// when the pick is empty, or when Condition selects only empty values.
type SelectRule struct {
	Elements  []*Column
	Select    Slice
	Else      *Slice
	Condition *Slice
	Divider   string
}

func (VEPRule) rule()      {}
func (HotspotRule) rule()  {}
func (FunctionRule) rule() {}
func (VariableRule) rule() {}
func (MergeRule) rule()    {}
func (SelectRule) rule()   {}

// Column is one declared column. A nil Rule marks a default column.
type Column struct {
	Name    string
	Rule    Rule
	Format  Format
	Order   *int
	Visible bool

	depthField string // gvcf_depth only
}

// Header returns the header name. Merge columns append their element names.
func (c *Column) Header() string {
	m, ok := c.Rule.(MergeRule)
	if !ok {
		return c.Name
	}
	names := make([]string, len(m.Elements))
	for i, e := range m.Elements {
		names[i] = e.Header()
	}
	return c.Name + "_" + strings.Join(names, m.Divider)
}

// Spec is a parsed column definition file.
type Spec struct {
	Columns    []*Column
	Levels     Levels // nil when the file declares none
	DepthField string // gVCF FORMAT key read for depth
}

// ConfigError reports an invalid column definition.
type ConfigError struct {
	Column  string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Column == "" {
		return "column config: " + e.Message
	}
	return fmt.Sprintf("column config %q: %s", e.Column, e.Message)
}

// DefaultSpec returns the spec of a run without a column file.
func DefaultSpec() *Spec {
	return &Spec{DepthField: "DP"}
}

// Load parses the column file at path.
func Load(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open column config: %w", err)
	}
	defer f.Close()

	spec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse reads a column definition document. Declaration order is kept.
func Parse(r io.Reader) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultSpec(), nil
		}
		return nil, fmt.Errorf("parse column config: %w", err)
	}
	if len(doc.Content) == 0 {
		return DefaultSpec(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Message: "top level must be a mapping"}
	}

	spec := DefaultSpec()
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "columns":
			cols, err := parseColumns(val, true)
			if err != nil {
				return nil, err
			}
			spec.Columns = cols
		case "levels":
			levels, err := parseLevels(val)
			if err != nil {
				return nil, err
			}
			spec.Levels = levels
		default:
			return nil, &ConfigError{Message: fmt.Sprintf("unknown key %q at line %d", key, root.Content[i].Line)}
		}
	}

	if c := spec.Column("gvcf_depth"); c != nil && c.depthField != "" {
		spec.DepthField = c.depthField
	}
	return spec, nil
}

// Column returns the declared top-level column called name.
func (s *Spec) Column(name string) *Column {
	for _, c := range s.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flag accepts 0/1 as well as booleans.
type flag bool

func (f *flag) UnmarshalYAML(n *yaml.Node) error {
	var b bool
	if err := n.Decode(&b); err == nil {
		*f = flag(b)
		return nil
	}
	var i int
	if err := n.Decode(&i); err != nil {
		return fmt.Errorf("line %d: expected 0, 1 or a boolean, got %q", n.Line, n.Value)
	}
	*f = i != 0
	return nil
}

type rawColumn struct {
	From         string    `yaml:"from"`
	Field        string    `yaml:"field"`
	Name         string    `yaml:"name"`
	Variables    []string  `yaml:"variables"`
	Column       *int      `yaml:"column"`
	ExtractRegex string    `yaml:"extract_regex"`
	Divider      *string   `yaml:"divider"`
	Elements     yaml.Node `yaml:"elements"`
	Select       yaml.Node `yaml:"select"`
	Else         yaml.Node `yaml:"else"`
	Condition    yaml.Node `yaml:"condition"`
	Format       yaml.Node `yaml:"format"`
	Order        *int      `yaml:"order"`
	Visible      *flag     `yaml:"visible"`
}

func parseColumns(n *yaml.Node, top bool) ([]*Column, error) {
	if n.Kind != yaml.MappingNode {
		if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
			return nil, nil
		}
		return nil, &ConfigError{Message: fmt.Sprintf("line %d: columns must be a mapping", n.Line)}
	}
	cols := make([]*Column, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		for _, c := range cols {
			if c.Name == name {
				return nil, &ConfigError{Column: name, Message: "declared twice"}
			}
		}
		c, err := parseColumn(name, n.Content[i+1], top)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func parseColumn(name string, n *yaml.Node, top bool) (*Column, error) {
	var raw rawColumn
	if n.Kind == yaml.MappingNode {
		if err := n.Decode(&raw); err != nil {
			return nil, &ConfigError{Column: name, Message: err.Error()}
		}
	} else if !(n.Kind == yaml.ScalarNode && n.Tag == "!!null") {
		return nil, &ConfigError{Column: name, Message: fmt.Sprintf("line %d: expected a mapping", n.Line)}
	}

	c := &Column{Name: name, Order: raw.Order, Visible: true}
	if raw.Visible != nil {
		c.Visible = bool(*raw.Visible)
	}
	if !top && (raw.Order != nil || raw.Visible != nil) {
		return nil, &ConfigError{Column: name, Message: "order and visible apply to top-level columns only"}
	}
	if raw.Order != nil && *raw.Order < 0 {
		return nil, &ConfigError{Column: name, Message: "order must not be negative"}
	}

	if raw.Format.Kind != 0 {
		f, err := parseFormat(&raw.Format)
		if err != nil {
			return nil, &ConfigError{Column: name, Message: err.Error()}
		}
		c.Format = f
	}

	rule, err := parseRule(name, &raw)
	if err != nil {
		return nil, err
	}
	c.Rule = rule
	if rule == nil {
		if !isBuiltin(name) {
			return nil, &ConfigError{Column: name, Message: "missing 'from' on a non-default column"}
		}
		if name == "gvcf_depth" && top {
			c.depthField = raw.Field
		}
	}
	return c, nil
}

func parseRule(name string, raw *rawColumn) (Rule, error) {
	cfgErr := func(format string, args ...any) error {
		return &ConfigError{Column: name, Message: fmt.Sprintf(format, args...)}
	}

	switch raw.From {
	case "":
		return nil, nil
	case "vep":
		if raw.Field == "" {
			return nil, cfgErr("vep column needs a field")
		}
		r := VEPRule{Field: raw.Field}
		if raw.ExtractRegex != "" {
			re, err := regexp.Compile(raw.ExtractRegex)
			if err != nil {
				return nil, cfgErr("extract_regex: %v", err)
			}
			r.Extract = re
		}
		return r, nil
	case "hotspot":
		if !hotspot.IsAttribute(raw.Field) {
			return nil, cfgErr("unknown hotspot attribute %q", raw.Field)
		}
		return HotspotRule{Field: raw.Field}, nil
	case "function":
		if err := checkArity(raw.Name, len(raw.Variables)); err != nil {
			return nil, cfgErr("%v", err)
		}
		if raw.Column != nil && *raw.Column < 0 {
			return nil, cfgErr("column index must not be negative")
		}
		return FunctionRule{Name: raw.Name, Variables: raw.Variables, Column: raw.Column}, nil
	case "variable":
		if !IsLocal(raw.Field) {
			return nil, cfgErr("unknown variable %q", raw.Field)
		}
		return VariableRule{Field: raw.Field}, nil
	case "merge":
		elems, err := parseElements(name, &raw.Elements)
		if err != nil {
			return nil, err
		}
		if raw.Divider == nil {
			return nil, cfgErr("merge column needs a divider")
		}
		return MergeRule{Divider: *raw.Divider, Elements: elems}, nil
	case "select":
		elems, err := parseElements(name, &raw.Elements)
		if err != nil {
			return nil, err
		}
		r := SelectRule{Elements: elems, Divider: ","}
		if raw.Divider != nil {
			r.Divider = *raw.Divider
		}
		if raw.Select.Kind == 0 {
			return nil, cfgErr("select column needs a select expression")
		}
		if r.Select, err = parseSliceNode(&raw.Select); err != nil {
			return nil, cfgErr("select: %v", err)
		}
		if raw.Else.Kind != 0 {
			s, err := parseSliceNode(&raw.Else)
			if err != nil {
				return nil, cfgErr("else: %v", err)
			}
			r.Else = &s
		}
		if raw.Condition.Kind != 0 {
			s, err := parseSliceNode(&raw.Condition)
			if err != nil {
				return nil, cfgErr("condition: %v", err)
			}
			r.Condition = &s
		}
		return r, nil
	}
	return nil, cfgErr("unknown source %q", raw.From)
}

func parseElements(name string, n *yaml.Node) ([]*Column, error) {
	if n.Kind == 0 {
		return nil, &ConfigError{Column: name, Message: "missing elements"}
	}
	elems, err := parseColumns(n, false)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, &ConfigError{Column: name, Message: "elements must not be empty"}
	}
	return elems, nil
}

// parseSliceNode accepts "[1:]", "1:" or a one-element sequence.
func parseSliceNode(n *yaml.Node) (Slice, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseSlice(n.Value)
	case yaml.SequenceNode:
		if len(n.Content) == 1 && n.Content[0].Kind == yaml.ScalarNode {
			return ParseSlice(n.Content[0].Value)
		}
	}
	return Slice{}, fmt.Errorf("line %d: expected a slice expression", n.Line)
}

// parseFormat accepts a template scalar, [replace, old, new] or
// [string, template] with an optional int, float or str cast.
func parseFormat(n *yaml.Node) (Format, error) {
	if n.Kind == yaml.ScalarNode {
		return TemplateFormat{Template: n.Value, Cast: CastAuto}, nil
	}
	var parts []string
	if err := n.Decode(&parts); err != nil || len(parts) == 0 {
		return nil, fmt.Errorf("line %d: invalid format", n.Line)
	}
	switch parts[0] {
	case "replace":
		if len(parts) != 3 {
			return nil, fmt.Errorf("replace format takes old and new values")
		}
		return ReplaceFormat{Old: parts[1], New: parts[2]}, nil
	case "string":
		switch len(parts) {
		case 2:
			return TemplateFormat{Template: parts[1], Cast: CastFloat}, nil
		case 3:
			cast := Cast(parts[2])
			if cast != CastInt && cast != CastFloat && cast != CastStr {
				return nil, fmt.Errorf("unknown cast %q", parts[2])
			}
			return TemplateFormat{Template: parts[1], Cast: cast}, nil
		}
		return nil, fmt.Errorf("string format takes a template and an optional cast")
	}
	return nil, fmt.Errorf("unknown format %q", parts[0])
}

func parseLevels(n *yaml.Node) (Levels, error) {
	var raw [][]string
	if err := n.Decode(&raw); err != nil {
		return nil, &ConfigError{Message: fmt.Sprintf("levels: %v", err)}
	}
	entries := make([]string, len(raw))
	for i, r := range raw {
		if len(r) != 3 {
			return nil, &ConfigError{Message: fmt.Sprintf("levels entry %d: expected [min, status, analyzable]", i+1)}
		}
		entries[i] = strings.Join(r, ":")
	}
	levels, err := ParseLevels(entries)
	if err != nil {
		return nil, &ConfigError{Message: err.Error()}
	}
	return levels, nil
}

// Layout returns the output columns in order. Default columns keep their
// place unless hidden or given an explicit order; declared columns without
// an order follow them in declaration order.
func (s *Spec) Layout() []*Column {
	type placed struct {
		order int
		col   *Column
	}

	builtins := slices.Clone(Builtins)
	var out []placed
	biggest := -1
	for _, c := range s.Columns {
		if isBuiltin(c.Name) && (!c.Visible || c.Order != nil) {
			builtins = slices.DeleteFunc(builtins, func(b string) bool { return b == c.Name })
		}
		if c.Order != nil {
			out = append(out, placed{*c.Order, c})
			biggest = max(biggest, *c.Order)
		}
	}
	for _, name := range builtins {
		c := s.Column(name)
		if c == nil {
			c = &Column{Name: name, Visible: true}
		}
		biggest++
		out = append(out, placed{biggest, c})
	}
	for _, c := range s.Columns {
		if c.Order != nil || isBuiltin(c.Name) || !c.Visible {
			continue
		}
		biggest++
		out = append(out, placed{biggest, c})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].order < out[j].order })
	cols := make([]*Column, len(out))
	for i, p := range out {
		cols[i] = p.col
	}
	return cols
}
