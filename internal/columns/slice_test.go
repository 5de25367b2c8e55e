package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice_Indices(t *testing.T) {
	tests := []struct {
		expr string
		n    int
		want []int
	}{
		{"[0]", 3, []int{0}},
		{"[-1]", 3, []int{2}},
		{"[5]", 3, nil},
		{"[-4]", 3, nil},
		{"[1:]", 3, []int{1, 2}},
		{"[:2]", 3, []int{0, 1}},
		{"[-2:]", 3, []int{1, 2}},
		{"[::2]", 5, []int{0, 2, 4}},
		{"[::-1]", 3, []int{2, 1, 0}},
		{"[5:1:-2]", 6, []int{5, 3}},
		{"[1:10]", 3, []int{1, 2}},
		{"[2:1]", 3, nil},
		{"1:2", 3, []int{1}},
		{" [ 1 ] ", 3, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			s, err := ParseSlice(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Indices(tt.n))
		})
	}
}

func TestParseSlice_Errors(t *testing.T) {
	for _, expr := range []string{"[a]", "[1:2:0]", "[1", "[1:2:3:4]", "[x:]", ""} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseSlice(expr)
			assert.Error(t, err)
		})
	}
}

func TestSlice_Apply(t *testing.T) {
	values := []string{"a", "b", "c"}

	s, err := ParseSlice("[1:]")
	require.NoError(t, err)
	assert.False(t, s.Single())
	assert.Equal(t, []string{"b", "c"}, s.Apply(values))
	assert.Equal(t, "[1:]", s.String())

	s, err = ParseSlice("[0]")
	require.NoError(t, err)
	assert.True(t, s.Single())
	assert.Equal(t, []string{"a"}, s.Apply(values))

	assert.Empty(t, s.Apply(nil))
}
