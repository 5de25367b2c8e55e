package columns

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/inodb/hotspot-report/internal/hotspot"
	"github.com/inodb/hotspot-report/internal/vcf"
)

// Missing is rendered for every value that is not available.
const Missing = "-"

// Row is the context one report line is projected from.
type Row struct {
	Sample     string
	Chrom      string // accession form
	ShortChrom string
	Start      int64
	Stop       int64
	Ref        string
	Alt        string
	Report     string
	Depth      float64 // gVCF depth
	RefDepth   string
	AltDepth   string

	Variant   *vcf.Variant    // nil for uncovered catalog positions
	Annotated *vcf.Variant    // record carrying CSQ; Variant when nil
	Region    *hotspot.Region // nil for unassigned variants
}

// annotated returns the record CSQ fields are read from.
func (r *Row) annotated() *vcf.Variant {
	if r.Annotated != nil {
		return r.Annotated
	}
	return r.Variant
}

// Builtins lists the default report columns in output order.
var Builtins = []string{
	"sample", "chr", "start", "stop", "ref", "alt",
	"report", "gvcf_depth", "ref_depth", "alt_depth",
}

func isBuiltin(name string) bool {
	return slices.Contains(Builtins, name)
}

// Builtin returns the rendered value of a default column.
func (r *Row) Builtin(name string) (string, bool) {
	switch name {
	case "sample":
		return r.Sample, true
	case "chr":
		return r.Chrom, true
	case "start":
		return strconv.FormatInt(r.Start, 10), true
	case "stop":
		return strconv.FormatInt(r.Stop, 10), true
	case "ref":
		return orMissing(r.Ref), true
	case "alt":
		return orMissing(r.Alt), true
	case "report":
		return r.Report, true
	case "gvcf_depth":
		return FormatNumber(r.Depth), true
	case "ref_depth":
		return orMissing(r.RefDepth), true
	case "alt_depth":
		return orMissing(r.AltDepth), true
	}
	return "", false
}

// locals are the names function arguments and variable columns resolve.
var locals = map[string]bool{
	"sample": true, "chr": true, "chrom": true, "start": true, "stop": true,
	"ref": true, "alt": true, "report": true, "gvcf_depth": true,
	"ref_depth": true, "alt_depth": true, "depth": true, "levels": true,
	"var": true, "variant": true, "hotspot": true,
}

// IsLocal reports whether name resolves against a row.
func IsLocal(name string) bool {
	return locals[name]
}

// Local resolves a named row value. levels is the run's read-level table.
func (r *Row) Local(name string, levels Levels) (any, bool) {
	switch name {
	case "chrom":
		return r.ShortChrom, true
	case "depth", "gvcf_depth":
		return r.Depth, true
	case "levels":
		return levels, true
	case "var", "variant":
		return r.Variant, true
	case "hotspot":
		return r.Region, true
	}
	return r.Builtin(name)
}

// FormatNumber renders integral values without a decimal point.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func orMissing(s string) string {
	if s == "" {
		return Missing
	}
	return s
}

// Level is one read-depth bucket: depths at or above Min get Status and
// Analyzable.
type Level struct {
	Min        int
	Status     string
	Analyzable string
}

// Levels is an ordered read-depth table, highest threshold first.
type Levels []Level

// ParseLevel parses "min:status:analyzable".
func ParseLevel(s string) (Level, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Level{}, fmt.Errorf("invalid level %q: expected min:status:analyzable", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Level{}, fmt.Errorf("invalid level %q: %w", s, err)
	}
	return Level{Min: n, Status: parts[1], Analyzable: parts[2]}, nil
}

// ParseLevels parses every entry of ss.
func ParseLevels(ss []string) (Levels, error) {
	levels := make(Levels, 0, len(ss))
	for _, s := range ss {
		l, err := ParseLevel(s)
		if err != nil {
			return nil, err
		}
		levels = append(levels, l)
	}
	return levels, nil
}

// DefaultLevels is the read-depth table used when none is configured.
var DefaultLevels = Levels{
	{Min: 300, Status: "ok", Analyzable: "yes"},
	{Min: 30, Status: "low", Analyzable: "yes"},
	{Min: 0, Status: "low", Analyzable: "not analyzable"},
}

// Classify returns the status and analyzable labels of the first level the
// depth reaches. Depths below every level give ("-", "zero").
func (l Levels) Classify(depth int) (status, analyzable string) {
	for _, lv := range l {
		if depth >= lv.Min {
			return lv.Status, lv.Analyzable
		}
	}
	return Missing, "zero"
}
