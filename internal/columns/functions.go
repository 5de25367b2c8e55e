package columns

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/hotspot-report/internal/hotspot"
	"github.com/inodb/hotspot-report/internal/vcf"
)

// ErrMissing reports that a helper had no data to work on. Columns render
// it as "-".
var ErrMissing = errors.New("missing value")

// helperFunc computes a column value from resolved arguments. Results are a
// string, a []string tuple, a bool, a float64 or nil.
type helperFunc func(args []any) (any, error)

type helper struct {
	fn      helperFunc
	minArgs int
	maxArgs int // -1 for variadic
}

var helpers = map[string]helper{
	"get_read_level":             {getReadLevel, 2, 2},
	"get_report_type":            {getReportType, 2, 2},
	"format_report_type":         {formatReportType, 1, 1},
	"regex_extract":              {regexExtract, 2, 2},
	"get_info_field":             {getInfoField, 2, 2},
	"get_annotation_data_info":   {getInfoField, 2, 2},
	"get_annotation_data_format": {getFormatField, 2, 2},
	"is_indel":                   {isIndel, 1, 1},
	"is_multibp_sub":             {isMultiBPSub, 1, 1},
	"clinical_flagged":           {clinicalFlagged, 1, 1},
	"get_vaf":                    {getVAF, 1, 2},
	"average":                    {average, 1, -1},
}

// IsHelper reports whether name is a registered helper.
func IsHelper(name string) bool {
	_, ok := helpers[name]
	return ok
}

func checkArity(name string, n int) error {
	h, ok := helpers[name]
	if !ok {
		return fmt.Errorf("unknown function %q", name)
	}
	if n < h.minArgs || (h.maxArgs >= 0 && n > h.maxArgs) {
		if h.minArgs == h.maxArgs {
			return fmt.Errorf("function %q takes %d arguments, got %d", name, h.minArgs, n)
		}
		return fmt.Errorf("function %q takes at least %d arguments, got %d", name, h.minArgs, n)
	}
	return nil
}

func callHelper(name string, args []any) (any, error) {
	if err := checkArity(name, len(args)); err != nil {
		return nil, err
	}
	return helpers[name].fn(args)
}

// getReadLevel buckets a depth with a level table and returns the
// (status, analyzable) pair.
func getReadLevel(args []any) (any, error) {
	levels, ok := args[0].(Levels)
	if !ok {
		return nil, fmt.Errorf("get_read_level: expected levels, got %T", args[0])
	}
	depth, err := toInt(args[1])
	if err != nil {
		return []string{Missing, "zero"}, nil
	}
	status, analyzable := levels.Classify(depth)
	return []string{status, analyzable}, nil
}

func getReportType(args []any) (any, error) {
	v, _ := args[0].(*vcf.Variant)
	if v == nil {
		return hotspot.CategoryHotspot.String(), nil
	}
	r, _ := args[1].(*hotspot.Region)
	return hotspot.VariantCategory(v, r).String(), nil
}

func formatReportType(args []any) (any, error) {
	r, err := toRegion(args[0])
	if err != nil {
		return nil, err
	}
	return hotspot.PositionCategory(r.Class).String(), nil
}

func regexExtract(args []any) (any, error) {
	value, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := toString(args[1])
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regex_extract: %w", err)
	}
	return extract(re, value), nil
}

func extract(re *regexp.Regexp, value string) string {
	m := re.FindString(value)
	if m == "" && !re.MatchString(value) {
		return Missing
	}
	return m
}

func getInfoField(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	key, err := toString(args[1])
	if err != nil {
		return nil, err
	}
	s, ok := v.InfoString(key)
	if !ok {
		return nil, nil
	}
	return s, nil
}

func getFormatField(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	key, err := toString(args[1])
	if err != nil {
		return nil, err
	}
	s, ok := v.SampleField("", key)
	if !ok {
		return nil, nil
	}
	return s, nil
}

// isIndel is true when one allele is a single base and the other longer.
func isIndel(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	return (len(v.Ref) == 1 && len(v.Alt) > 1) || (len(v.Alt) == 1 && len(v.Ref) > 1), nil
}

func isMultiBPSub(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	return len(v.Ref) > 1 && len(v.Alt) > 1, nil
}

// clinicalFlagged is "Yes" for dbSNP ids without a non-flagged entry.
func clinicalFlagged(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	rs, ok := v.InfoString("snp138")
	if !ok {
		return nil, ErrMissing
	}
	nonFlagged, _ := v.InfoString("snp138NonFlagged")
	if strings.HasPrefix(rs, "rs") && (nonFlagged == "-" || nonFlagged == ".") {
		return "Yes", nil
	}
	return "No", nil
}

// getVAF is the alternate share of the allele depths of a sample.
func getVAF(args []any) (any, error) {
	v, err := toVariant(args[0])
	if err != nil {
		return nil, err
	}
	sample := ""
	if len(args) > 1 {
		if sample, err = toString(args[1]); err != nil {
			return nil, err
		}
	}
	ad := v.AlleleDepths(sample)
	if len(ad) < 2 {
		return nil, ErrMissing
	}
	var total, alt float64
	for i, s := range ad {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, ErrMissing
		}
		total += n
		if i > 0 {
			alt += n
		}
	}
	if total == 0 {
		return nil, ErrMissing
	}
	return alt / total, nil
}

func average(args []any) (any, error) {
	var sum float64
	for _, a := range args {
		f, err := toFloat(a)
		if err != nil {
			return nil, err
		}
		sum += f
	}
	return sum / float64(len(args)), nil
}

func toVariant(a any) (*vcf.Variant, error) {
	v, _ := a.(*vcf.Variant)
	if v == nil {
		return nil, ErrMissing
	}
	return v, nil
}

func toRegion(a any) (*hotspot.Region, error) {
	r, _ := a.(*hotspot.Region)
	if r == nil {
		return nil, ErrMissing
	}
	return r, nil
}

func toString(a any) (string, error) {
	switch x := a.(type) {
	case string:
		return x, nil
	case float64:
		return FormatNumber(x), nil
	case int:
		return strconv.Itoa(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return "", ErrMissing
}

func toFloat(a any) (float64, error) {
	switch x := a.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", x)
		}
		return f, nil
	}
	return 0, ErrMissing
}

// toInt truncates numbers; strings must hold an integer.
func toInt(a any) (int, error) {
	switch x := a.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, fmt.Errorf("not a finite number: %v", x)
		}
		return int(x), nil
	case int:
		return x, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(x))
	}
	return 0, ErrMissing
}
