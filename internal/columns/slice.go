package columns

import (
	"fmt"
	"strconv"
	"strings"
)

// Slice is an index or slice expression over a candidate list: [i], [a:b]
// or [a:b:c]. Negative values count from the end and omitted bounds take
// their usual defaults.
type Slice struct {
	single      bool
	index       int
	start, stop *int
	step        int
	expr        string
}

// ParseSlice parses an expression with or without the surrounding brackets.
func ParseSlice(expr string) (Slice, error) {
	s := Slice{expr: expr, step: 1}
	body := strings.TrimSpace(expr)
	if strings.HasPrefix(body, "[") {
		if !strings.HasSuffix(body, "]") {
			return Slice{}, fmt.Errorf("invalid slice %q: missing ']'", expr)
		}
		body = body[1 : len(body)-1]
	}

	parts := strings.Split(body, ":")
	if len(parts) > 3 {
		return Slice{}, fmt.Errorf("invalid slice %q", expr)
	}
	if len(parts) == 1 {
		i, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return Slice{}, fmt.Errorf("invalid index %q", expr)
		}
		s.single, s.index = true, i
		return s, nil
	}

	bound := func(p string) (*int, error) {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, nil
		}
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid slice %q", expr)
		}
		return &i, nil
	}

	var err error
	if s.start, err = bound(parts[0]); err != nil {
		return Slice{}, err
	}
	if s.stop, err = bound(parts[1]); err != nil {
		return Slice{}, err
	}
	if len(parts) == 3 {
		step, err := bound(parts[2])
		if err != nil {
			return Slice{}, err
		}
		if step != nil {
			if *step == 0 {
				return Slice{}, fmt.Errorf("invalid slice %q: step cannot be zero", expr)
			}
			s.step = *step
		}
	}
	return s, nil
}

// Single reports whether the expression selects one element.
func (s Slice) Single() bool {
	return s.single
}

func (s Slice) String() string {
	return s.expr
}

// Indices returns the positions selected from a list of length n. An index
// outside the list selects nothing.
func (s Slice) Indices(n int) []int {
	if s.single {
		i := s.index
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return nil
		}
		return []int{i}
	}

	var start, stop int
	if s.step > 0 {
		start, stop = 0, n
		if s.start != nil {
			start = clampBound(*s.start, n, 0, n)
		}
		if s.stop != nil {
			stop = clampBound(*s.stop, n, 0, n)
		}
	} else {
		start, stop = n-1, -1
		if s.start != nil {
			start = clampBound(*s.start, n, -1, n-1)
		}
		if s.stop != nil {
			stop = clampBound(*s.stop, n, -1, n-1)
		}
	}

	var out []int
	for i := start; (s.step > 0 && i < stop) || (s.step < 0 && i > stop); i += s.step {
		out = append(out, i)
	}
	return out
}

// clampBound resolves a negative bound against n and clamps it to [lo, hi].
func clampBound(b, n, lo, hi int) int {
	if b < 0 {
		b += n
	}
	return max(lo, min(b, hi))
}

// Apply returns the selected values.
func (s Slice) Apply(values []string) []string {
	idx := s.Indices(len(values))
	out := make([]string, 0, len(idx))
	for _, i := range idx {
		out = append(out, values[i])
	}
	return out
}
