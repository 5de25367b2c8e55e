package columns

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format post-processes a rendered column value.
type Format interface {
	Apply(value string) (string, error)
}

// ReplaceFormat replaces every occurrence of Old with New.
type ReplaceFormat struct {
	Old, New string
}

// Apply implements Format.
func (f ReplaceFormat) Apply(value string) (string, error) {
	return strings.ReplaceAll(value, f.Old, f.New), nil
}

// Cast names the conversion applied before a template is rendered.
type Cast string

const (
	CastAuto  Cast = ""
	CastInt   Cast = "int"
	CastFloat Cast = "float"
	CastStr   Cast = "str"
)

// TemplateFormat renders the value through a brace template such as
// "{:.1%}" or "{:>8,d}".
type TemplateFormat struct {
	Template string
	Cast     Cast
}

// Apply implements Format.
func (f TemplateFormat) Apply(value string) (string, error) {
	v, err := castValue(value, f.Cast)
	if err != nil {
		return value, err
	}
	return renderTemplate(f.Template, v)
}

// fmtValue is a value with the dynamic type the template sees.
type fmtValue struct {
	kind byte // 'i', 'f' or 's'
	i    int64
	f    float64
	s    string
}

func castValue(value string, cast Cast) (fmtValue, error) {
	value = strings.TrimSpace(value)
	switch cast {
	case CastStr:
		return fmtValue{kind: 's', s: value}, nil
	case CastInt:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmtValue{}, fmt.Errorf("cannot convert %q to int", value)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmtValue{}, fmt.Errorf("cannot convert %q to int", value)
		}
		return fmtValue{kind: 'i', i: int64(f)}, nil
	case CastFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmtValue{}, fmt.Errorf("cannot convert %q to float", value)
		}
		return fmtValue{kind: 'f', f: f}, nil
	case CastAuto:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return fmtValue{kind: 'i', i: i}, nil
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return fmtValue{kind: 'f', f: f}, nil
		}
		return fmtValue{kind: 's', s: value}, nil
	}
	return fmtValue{}, fmt.Errorf("unknown cast %q", cast)
}

// renderTemplate substitutes every replacement field of tmpl with v.
// "{{" and "}}" are literal braces.
func renderTemplate(tmpl string, v fmtValue) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed '{' in format %q", tmpl)
			}
			out, err := renderField(tmpl[i+1:i+end], v)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("single '}' in format %q", tmpl)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func renderField(field string, v fmtValue) (string, error) {
	name, spec, _ := strings.Cut(field, ":")
	name, conv, hasConv := strings.Cut(name, "!")
	if name != "" && name != "0" {
		return "", fmt.Errorf("unsupported field name %q", name)
	}
	if hasConv {
		switch conv {
		case "s", "r":
			v = fmtValue{kind: 's', s: v.String()}
		default:
			return "", fmt.Errorf("unknown conversion %q", conv)
		}
	}
	return formatSpec(spec, v)
}

func (v fmtValue) String() string {
	switch v.kind {
	case 'i':
		return strconv.FormatInt(v.i, 10)
	case 'f':
		return reprFloat(v.f)
	}
	return v.s
}

var specPattern = regexp.MustCompile(`^(?:(.)?([<>=^]))?([+\- ])?(#)?(0)?(\d+)?([,_])?(?:\.(\d+))?([bdeEfFgGnosxX%])?$`)

type fmtSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	zero      bool
	width     int
	grouping  byte
	precision int // -1 when absent
	verb      byte
}

func parseSpec(spec string) (fmtSpec, error) {
	m := specPattern.FindStringSubmatch(spec)
	if m == nil {
		return fmtSpec{}, fmt.Errorf("invalid format spec %q", spec)
	}
	s := fmtSpec{fill: ' ', precision: -1}
	if m[1] != "" {
		s.fill, _ = utf8.DecodeRuneInString(m[1])
	}
	if m[2] != "" {
		s.align = m[2][0]
	}
	if m[3] != "" {
		s.sign = m[3][0]
	}
	s.alt = m[4] != ""
	s.zero = m[5] != ""
	if m[6] != "" {
		s.width, _ = strconv.Atoi(m[6])
	}
	if m[7] != "" {
		s.grouping = m[7][0]
	}
	if m[8] != "" {
		s.precision, _ = strconv.Atoi(m[8])
	}
	if m[9] != "" {
		s.verb = m[9][0]
	}
	if s.zero && s.align == 0 {
		s.fill, s.align = '0', '='
	}
	return s, nil
}

func formatSpec(spec string, v fmtValue) (string, error) {
	s, err := parseSpec(spec)
	if err != nil {
		return "", err
	}

	if v.kind == 's' {
		if s.verb != 0 && s.verb != 's' {
			return "", fmt.Errorf("unknown format code '%c' for string value", s.verb)
		}
		if s.sign != 0 || s.grouping != 0 || s.align == '=' {
			return "", fmt.Errorf("numeric options in format spec %q for string value", spec)
		}
		body := v.s
		if s.precision >= 0 && utf8.RuneCountInString(body) > s.precision {
			body = string([]rune(body)[:s.precision])
		}
		return pad("", body, s, '<'), nil
	}

	if s.verb == 's' {
		return "", fmt.Errorf("unknown format code 's' for numeric value")
	}

	var neg bool
	var body string
	switch {
	case v.kind == 'i' && (s.verb == 0 || s.verb == 'd' || s.verb == 'n'):
		if s.precision >= 0 {
			return "", fmt.Errorf("precision not allowed in integer format spec")
		}
		neg = v.i < 0
		body = groupInt(absInt(v.i), s.grouping)
	case v.kind == 'i' && strings.IndexByte("bxXo", s.verb) >= 0:
		neg = v.i < 0
		body = intBase(absInt(v.i), s.verb, s.alt)
	case v.kind == 'f' && strings.IndexByte("bdxXo", s.verb) >= 0 && s.verb != 0:
		return "", fmt.Errorf("unknown format code '%c' for float value", s.verb)
	default:
		f := v.f
		if v.kind == 'i' {
			f = float64(v.i)
		}
		neg = math.Signbit(f) && !math.IsNaN(f)
		body = formatFloat(math.Abs(f), s)
	}

	sign := ""
	switch {
	case neg:
		sign = "-"
	case s.sign == '+':
		sign = "+"
	case s.sign == ' ':
		sign = " "
	}
	return pad(sign, body, s, '>'), nil
}

func formatFloat(f float64, s fmtSpec) string {
	if math.IsInf(f, 0) {
		return "inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}

	prec := s.precision
	switch s.verb {
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		return groupFixed(strconv.FormatFloat(f, 'f', prec, 64), s.grouping)
	case '%':
		if prec < 0 {
			prec = 6
		}
		return groupFixed(strconv.FormatFloat(f*100, 'f', prec, 64), s.grouping) + "%"
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		return strconv.FormatFloat(f, s.verb, prec, 64)
	case 'g', 'G', 'n':
		verb := byte('g')
		if s.verb == 'G' {
			verb = 'G'
		}
		if prec < 0 {
			prec = 6
		}
		if prec == 0 {
			prec = 1
		}
		return strconv.FormatFloat(f, verb, prec, 64)
	}

	// No presentation type.
	if prec >= 0 {
		if prec == 0 {
			prec = 1
		}
		return strconv.FormatFloat(f, 'g', prec, 64)
	}
	return groupFixed(reprFloat(f), s.grouping)
}

// reprFloat renders the shortest decimal that round-trips, keeping a ".0"
// on integral values.
func reprFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

var groupPrinter = message.NewPrinter(language.English)

// groupInt renders n with optional thousands separators.
func groupInt(n uint64, sep byte) string {
	if sep == 0 {
		return strconv.FormatUint(n, 10)
	}
	out := groupPrinter.Sprintf("%d", n)
	if sep == '_' {
		out = strings.ReplaceAll(out, ",", "_")
	}
	return out
}

// groupFixed applies thousands separators to the integer part of a
// fixed-point rendering.
func groupFixed(s string, sep byte) string {
	if sep == 0 {
		return s
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n, err := strconv.ParseUint(intPart, 10, 64)
	if err != nil {
		return s
	}
	out := groupInt(n, sep)
	if hasFrac {
		out += "." + frac
	}
	return out
}

func intBase(n uint64, verb byte, alt bool) string {
	var base int
	var prefix string
	switch verb {
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	default:
		base, prefix = 16, "0x"
	}
	out := strconv.FormatUint(n, base)
	if verb == 'X' {
		out = strings.ToUpper(out)
		prefix = "0X"
	}
	if alt {
		out = prefix + out
	}
	return out
}

func absInt(i int64) uint64 {
	if i < 0 {
		return uint64(-(i + 1)) + 1
	}
	return uint64(i)
}

// pad applies width, fill and alignment. def is the alignment used when the
// spec names none.
func pad(sign, body string, s fmtSpec, def byte) string {
	n := utf8.RuneCountInString(sign) + utf8.RuneCountInString(body)
	if s.width <= n {
		return sign + body
	}
	fill := strings.Repeat(string(s.fill), s.width-n)
	align := s.align
	if align == 0 {
		align = def
	}
	switch align {
	case '<':
		return sign + body + fill
	case '=':
		return sign + fill + body
	case '^':
		left := (s.width - n) / 2
		return strings.Repeat(string(s.fill), left) + sign + body +
			strings.Repeat(string(s.fill), s.width-n-left)
	}
	return fill + sign + body
}
