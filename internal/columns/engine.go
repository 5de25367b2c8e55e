package columns

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/hotspot-report/internal/hotspot"
	"github.com/inodb/hotspot-report/internal/vcf"
)

// Engine projects rows onto the output columns of a Spec.
type Engine struct {
	layout []*Column
	csq    vcf.CSQLayout
	levels Levels
	logger *zap.Logger
}

// NewEngine creates an engine for spec. csq maps CSQ sub-field names of the
// annotated VCF and may be nil.
func NewEngine(spec *Spec, csq vcf.CSQLayout) *Engine {
	levels := spec.Levels
	if levels == nil {
		levels = DefaultLevels
	}
	return &Engine{
		layout: spec.Layout(),
		csq:    csq,
		levels: levels,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for format warnings.
func (e *Engine) SetLogger(l *zap.Logger) {
	e.logger = l
}

// SetLevels replaces the read-level table exposed as "levels".
func (e *Engine) SetLevels(l Levels) {
	e.levels = l
}

// Levels returns the read-level table in use.
func (e *Engine) Levels() Levels {
	return e.levels
}

// Header returns the output header names.
func (e *Engine) Header() []string {
	h := make([]string, len(e.layout))
	for i, c := range e.layout {
		h[i] = c.Header()
	}
	return h
}

// Evaluate returns one rendered value per output column. Values that cannot
// be computed render as "-".
func (e *Engine) Evaluate(row *Row) []string {
	out := make([]string, len(e.layout))
	for i, c := range e.layout {
		out[i] = e.column(c, row)
	}
	return out
}

func (e *Engine) column(c *Column, row *Row) string {
	v := e.value(c, row)
	if c.Format == nil {
		return v
	}
	f, err := c.Format.Apply(v)
	if err != nil {
		if v != Missing {
			e.logger.Warn("unable to format column value",
				zap.String("column", c.Name),
				zap.String("value", v),
				zap.Error(err))
		}
		return v
	}
	return f
}

func (e *Engine) value(c *Column, row *Row) string {
	switch r := c.Rule.(type) {
	case nil:
		v, _ := row.Builtin(c.Name)
		return v
	case VEPRule:
		s, ok := e.csq.Field(row.annotated(), r.Field)
		if !ok {
			s = Missing
		}
		if r.Extract != nil {
			s = extract(r.Extract, s)
		}
		return s
	case HotspotRule:
		if row.Region == nil {
			return Missing
		}
		s, _ := row.Region.Attribute(r.Field)
		return orMissing(s)
	case FunctionRule:
		return e.call(c.Name, r, row)
	case VariableRule:
		v, _ := row.Local(r.Field, e.levels)
		return render(v)
	case MergeRule:
		vals := make([]string, len(r.Elements))
		for i, el := range r.Elements {
			vals[i] = e.column(el, row)
		}
		return strings.Join(vals, r.Divider)
	case SelectRule:
		return e.pick(r, row)
	}
	return Missing
}

func (e *Engine) call(name string, r FunctionRule, row *Row) string {
	args := make([]any, len(r.Variables))
	for i, v := range r.Variables {
		if val, ok := row.Local(v, e.levels); ok {
			args[i] = val
		} else {
			args[i] = v
		}
	}

	result, err := callHelper(r.Name, args)
	if err != nil {
		if !errors.Is(err, ErrMissing) {
			e.logger.Debug("column function failed",
				zap.String("column", name),
				zap.String("function", r.Name),
				zap.Error(err))
		}
		return Missing
	}

	if r.Column != nil {
		tuple, ok := result.([]string)
		if !ok || *r.Column >= len(tuple) {
			return Missing
		}
		return orMissing(tuple[*r.Column])
	}
	return render(result)
}

// pick evaluates a select column. The primary pick is replaced by the else
// pick when the condition slice holds no value, or, without a condition,
// when the primary pick is empty.
func (e *Engine) pick(r SelectRule, row *Row) string {
	vals := make([]string, len(r.Elements))
	for i, el := range r.Elements {
		vals[i] = e.column(el, row)
	}

	out := strings.Join(r.Select.Apply(vals), r.Divider)
	var fallback bool
	if r.Condition != nil {
		fallback = !anyPresent(r.Condition.Apply(vals))
	} else {
		fallback = out == "" || out == Missing
	}
	if fallback {
		switch {
		case r.Else != nil:
			out = strings.Join(r.Else.Apply(vals), r.Divider)
		case r.Condition != nil:
			out = Missing
		}
	}
	return orMissing(out)
}

func anyPresent(vals []string) bool {
	for _, v := range vals {
		if v != "" && v != Missing {
			return true
		}
	}
	return false
}

// render converts a helper result or row value to its column text.
func render(v any) string {
	switch x := v.(type) {
	case nil:
		return Missing
	case string:
		return orMissing(x)
	case []string:
		return orMissing(strings.Join(x, ","))
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case int:
		return strconv.Itoa(x)
	case *vcf.Variant:
		if x == nil {
			return Missing
		}
		return x.String()
	case *hotspot.Region:
		if x == nil {
			return Missing
		}
		return x.String()
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
