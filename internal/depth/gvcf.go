// Package depth answers read-depth queries from a genomic (all-sites) VCF.
package depth

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/biogo/store/interval"
	"go.uber.org/zap"

	"github.com/inodb/hotspot-report/internal/vcf"
)

// DefaultField is the FORMAT key read when none is configured.
const DefaultField = "DP"

// Source returns the depth over the 0-based half-open range [start, end).
type Source interface {
	Depth(chrom string, start, end int64) (float64, error)
}

// record is one gVCF line reduced to its reference span and depth.
type record struct {
	id         uintptr
	start, end int
	depth      float64
}

func (r record) Overlap(b interval.IntRange) bool {
	return r.start < b.End && b.Start < r.end
}

func (r record) ID() uintptr { return r.id }

func (r record) Range() interval.IntRange {
	return interval.IntRange{Start: r.start, End: r.end}
}

// span is a half-open query range.
type span struct {
	start, end int
}

func (s span) Overlap(b interval.IntRange) bool {
	return s.start < b.End && b.Start < s.end
}

func (s span) Range() interval.IntRange {
	return interval.IntRange{Start: s.start, End: s.end}
}

type cacheKey struct {
	chrom      string
	start, end int64
}

// GVCF holds the per-record depths of one sample, indexed by chromosome.
type GVCF struct {
	trees   map[string]*interval.IntTree
	records int
	cache   map[cacheKey]float64
	logger  *zap.Logger
}

// Options controls which records are loaded.
type Options struct {
	Sample  string   // sample column; empty selects the first
	Field   string   // FORMAT key holding the depth; empty means DP
	Targets *Targets // when set, only records overlapping a target are kept
	Logger  *zap.Logger
}

// Load reads a plain or gzip compressed gVCF.
func Load(path string, opts Options) (*GVCF, error) {
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return Read(p, opts)
}

// Read builds the depth index from an open parser.
func Read(p *vcf.Parser, opts Options) (*GVCF, error) {
	field := opts.Field
	if field == "" {
		field = DefaultField
	}
	if opts.Sample != "" && !slices.Contains(p.SampleNames(), opts.Sample) {
		return nil, fmt.Errorf("sample %q not found in genomic vcf", opts.Sample)
	}

	g := &GVCF{
		trees:  make(map[string]*interval.IntTree),
		cache:  make(map[cacheKey]float64),
		logger: opts.Logger,
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}

	skipped := 0
	for {
		v, err := p.Next()
		if err != nil {
			return nil, fmt.Errorf("read genomic vcf: %w", err)
		}
		if v == nil {
			break
		}

		start, end, err := recordSpan(v)
		if err != nil {
			return nil, &vcf.ParseError{Line: p.LineNumber(), Message: err.Error()}
		}
		if opts.Targets != nil && !opts.Targets.Overlaps(v.Chrom, start, end) {
			continue
		}

		raw, ok := v.SampleField(opts.Sample, field)
		if !ok {
			skipped++
			continue
		}
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &vcf.ParseError{
				Line:    p.LineNumber(),
				Message: fmt.Sprintf("invalid %s value %q", field, raw),
			}
		}

		tree, ok := g.trees[v.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			g.trees[v.Chrom] = tree
		}
		g.records++
		rec := record{id: uintptr(g.records), start: int(start), end: int(end), depth: d}
		if err := tree.Insert(rec, true); err != nil {
			return nil, fmt.Errorf("index %s: %w", v, err)
		}
	}

	for _, tree := range g.trees {
		tree.AdjustRanges()
	}

	g.logger.Info("loaded genomic vcf depths",
		zap.Int("records", g.records),
		zap.Int("missing_depth", skipped),
		zap.String("field", field))

	return g, nil
}

// recordSpan returns the 0-based half-open reference span of a gVCF record.
// A reference block reaches its INFO END position.
func recordSpan(v *vcf.Variant) (start, end int64, err error) {
	start, end = v.Start0(), v.Stop0()
	raw, ok := v.InfoString("END")
	if !ok {
		return start, end, nil
	}
	blockEnd, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || blockEnd < v.Pos {
		return 0, 0, fmt.Errorf("invalid END value %q", raw)
	}
	return start, max(end, blockEnd), nil
}

// Depth returns the mean depth of the records overlapping [start, end).
// A single record gives its own depth and no record gives 0.
func (g *GVCF) Depth(chrom string, start, end int64) (float64, error) {
	key := cacheKey{chrom, start, end}
	if d, ok := g.cache[key]; ok {
		return d, nil
	}

	var d float64
	if tree, ok := g.trees[chrom]; ok && end > start {
		hits := tree.Get(span{start: int(start), end: int(end)})
		if len(hits) > 0 {
			var sum float64
			for _, h := range hits {
				sum += h.(record).depth
			}
			d = sum / float64(len(hits))
		}
	}

	g.cache[key] = d
	return d, nil
}

// Len returns the number of indexed records.
func (g *GVCF) Len() int {
	return g.records
}
