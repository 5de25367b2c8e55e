package depth

import (
	"github.com/biogo/store/interval"
)

// Targets is a set of half-open ranges per chromosome used to restrict which
// gVCF records are kept in memory.
type Targets struct {
	trees map[string]*interval.IntTree
	n     uintptr
	dirty bool
}

// NewTargets returns an empty target set.
func NewTargets() *Targets {
	return &Targets{trees: make(map[string]*interval.IntTree)}
}

// Add includes [start, end) on chrom. Empty ranges are ignored.
func (t *Targets) Add(chrom string, start, end int64) error {
	if end <= start {
		return nil
	}
	tree, ok := t.trees[chrom]
	if !ok {
		tree = &interval.IntTree{}
		t.trees[chrom] = tree
	}
	t.n++
	t.dirty = true
	return tree.Insert(record{id: t.n, start: int(start), end: int(end)}, true)
}

// Overlaps reports whether [start, end) on chrom touches any target.
func (t *Targets) Overlaps(chrom string, start, end int64) bool {
	tree, ok := t.trees[chrom]
	if !ok || end <= start {
		return false
	}
	if t.dirty {
		for _, tr := range t.trees {
			tr.AdjustRanges()
		}
		t.dirty = false
	}
	return len(tree.Get(span{start: int(start), end: int(end)})) > 0
}

// Len returns the number of ranges added.
func (t *Targets) Len() int {
	return int(t.n)
}
