package vcf

import (
	"strings"
)

// CSQLayout maps VEP CSQ sub-field names to their position in the
// pipe-delimited annotation string.
type CSQLayout map[string]int

// ParseCSQLayout extracts the CSQ field layout from VCF header lines.
// It returns false when the header carries no CSQ INFO definition.
func ParseCSQLayout(header []string) (CSQLayout, bool) {
	for _, line := range header {
		if !strings.HasPrefix(line, "##INFO=<") || !strings.Contains(line, "ID=CSQ,") {
			continue
		}
		desc := headerAttribute(line, "Description")
		i := strings.Index(desc, "Format: ")
		if i < 0 {
			return nil, false
		}
		layout := make(CSQLayout)
		for idx, name := range strings.Split(desc[i+len("Format: "):], "|") {
			layout[strings.TrimSpace(name)] = idx
		}
		return layout, true
	}
	return nil, false
}

// headerAttribute returns the (unquoted) value of key inside a structured
// ##KEY=<...> header line.
func headerAttribute(line, key string) string {
	i := strings.Index(line, key+"=")
	if i < 0 {
		return ""
	}
	rest := line[i+len(key)+1:]
	if strings.HasPrefix(rest, `"`) {
		rest = rest[1:]
		if j := strings.Index(rest, `"`); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	if j := strings.IndexAny(rest, ",>"); j >= 0 {
		return rest[:j]
	}
	return rest
}

// Field returns the named sub-field of the first CSQ entry of v.
// Missing annotation, unknown field names and empty values report false.
func (l CSQLayout) Field(v *Variant, name string) (string, bool) {
	if v == nil || l == nil {
		return "", false
	}
	idx, ok := l[name]
	if !ok {
		return "", false
	}
	csq, ok := v.InfoString("CSQ")
	if !ok || csq == "" {
		return "", false
	}
	if i := strings.IndexByte(csq, ','); i >= 0 {
		csq = csq[:i]
	}
	parts := strings.Split(csq, "|")
	if idx >= len(parts) || parts[idx] == "" {
		return "", false
	}
	return parts[idx], true
}
