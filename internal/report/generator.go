// Package report generates the hotspot report of one sample: catalog
// positions and called variants with their read depth, projected through
// the configured report columns.
package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/hotspot-report/internal/chrom"
	"github.com/inodb/hotspot-report/internal/columns"
	"github.com/inodb/hotspot-report/internal/depth"
	"github.com/inodb/hotspot-report/internal/hotspot"
	"github.com/inodb/hotspot-report/internal/output"
	"github.com/inodb/hotspot-report/internal/vcf"
)

// DefaultDepthCeiling is the depth above which uncovered region_all
// positions are left out of the report.
const DefaultDepthCeiling = 299

// Options configures a report run.
type Options struct {
	Sample        string
	HotspotsPath  string // "-" for no catalog
	VCFPath       string // annotated calls
	NoDupVCFPath  string // optional calls classified instead of VCFPath
	GVCFPath      string
	ReferencePath string // chromosome name table
	ColumnsPath   string // optional column definitions

	Levels       columns.Levels // overrides the column file levels
	DepthField   string         // overrides the column file gvcf_depth field
	DepthCeiling *float64       // nil means DefaultDepthCeiling
	SplitMulti   bool           // split multi-allelic records instead of failing
}

// Generator runs the report phases in order.
type Generator struct {
	opts    Options
	ceiling float64
	state   State
	logger  *zap.Logger

	tr         *chrom.Translation
	catalog    *hotspot.Catalog
	spec       *columns.Spec
	classifier *hotspot.Classifier
	engine     *columns.Engine
	depths     depth.Source
	annotated  map[string]*vcf.Variant // by variant key, set with NoDupVCFPath
	vcfSample  string

	hotspotRows int
	otherRows   int
}

// New creates a generator in state INIT.
func New(opts Options) *Generator {
	g := &Generator{opts: opts, ceiling: DefaultDepthCeiling, logger: zap.NewNop()}
	if opts.DepthCeiling != nil {
		g.ceiling = *opts.DepthCeiling
	}
	return g
}

// SetLogger sets the logger for progress and warning messages.
func (g *Generator) SetLogger(l *zap.Logger) {
	g.logger = l
}

// State returns the current phase.
func (g *Generator) State() State {
	return g.state
}

// Rows returns the number of catalog and unassigned rows emitted so far.
func (g *Generator) Rows() (hotspotRows, otherRows int) {
	return g.hotspotRows, g.otherRows
}

// Header returns the output header. It is available once the catalog is
// loaded.
func (g *Generator) Header() []string {
	if g.spec == nil {
		return nil
	}
	return columns.NewEngine(g.spec, nil).Header()
}

func (g *Generator) advance(op string, from, to State) error {
	if g.state != from {
		return &StateError{Op: op, Have: g.state, Want: from}
	}
	g.state = to
	g.logger.Debug("report state", zap.Stringer("state", to))
	return nil
}

// Run executes every phase and writes the report to w.
func (g *Generator) Run(ctx context.Context, w output.RowWriter) error {
	if err := g.Load(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.Classify(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Emit(ctx, w)
}

// Load reads the chromosome table, the hotspot catalog and the column
// definitions.
func (g *Generator) Load() error {
	if g.state != StateInit {
		return &StateError{Op: "load", Have: g.state, Want: StateInit}
	}

	tr, err := chrom.Load(g.opts.ReferencePath)
	if err != nil {
		return err
	}
	g.tr = tr

	cat, err := hotspot.LoadCatalog(g.opts.HotspotsPath)
	if err != nil {
		return err
	}
	g.catalog = cat

	g.spec = columns.DefaultSpec()
	if g.opts.ColumnsPath != "" {
		if g.spec, err = columns.Load(g.opts.ColumnsPath); err != nil {
			return err
		}
	}
	if g.opts.DepthField != "" {
		g.spec.DepthField = g.opts.DepthField
	}

	g.logger.Info("loaded hotspot catalog",
		zap.String("path", g.opts.HotspotsPath),
		zap.Int("regions", cat.Len()),
		zap.Int("chromosomes", tr.Len()))
	return g.advance("load", StateInit, StateCatalogLoaded)
}

// Classify assigns the called variants to catalog regions and loads the
// genomic VCF depths the report needs.
func (g *Generator) Classify() error {
	if g.state != StateCatalogLoaded {
		return &StateError{Op: "classify", Have: g.state, Want: StateCatalogLoaded}
	}

	annotated, err := vcf.NewParser(g.opts.VCFPath)
	if err != nil {
		return err
	}
	defer annotated.Close()

	csq, ok := vcf.ParseCSQLayout(annotated.Header())
	if ok {
		g.logger.Info("found vep annotation", zap.Int("fields", len(csq)))
	}
	g.engine = columns.NewEngine(g.spec, csq)
	g.engine.SetLogger(g.logger)
	if g.opts.Levels != nil {
		g.engine.SetLevels(g.opts.Levels)
	}

	var calls vcf.VariantParser = annotated
	if g.opts.NoDupVCFPath != "" {
		if g.annotated, err = g.indexAnnotated(annotated); err != nil {
			return err
		}
		nodup, err := vcf.NewParser(g.opts.NoDupVCFPath)
		if err != nil {
			return err
		}
		defer nodup.Close()
		calls = nodup
	}
	if g.vcfSample, err = g.sampleColumn(calls); err != nil {
		return err
	}

	g.classifier = hotspot.NewClassifier(g.catalog, g.tr)
	g.classifier.SetLogger(g.logger)
	src := g.source(calls)
	if err := g.classifier.Classify(src); err != nil {
		return fmt.Errorf("classify variants (line %d): %w", src.LineNumber(), err)
	}
	g.logger.Info("classified variants",
		zap.Int("variants", g.classifier.Count()),
		zap.Int("unassigned", len(g.classifier.Other())))

	targets, err := g.targets()
	if err != nil {
		return err
	}
	gvcf, err := depth.Load(g.opts.GVCFPath, depth.Options{
		Sample:  g.opts.Sample,
		Field:   g.spec.DepthField,
		Targets: targets,
		Logger:  g.logger,
	})
	if err != nil {
		return err
	}
	g.depths = gvcf

	return g.advance("classify", StateCatalogLoaded, StateVariantsClassified)
}

// indexAnnotated reads the annotated calls so rows classified from the
// no-duplicate calls can take their annotation.
func (g *Generator) indexAnnotated(p vcf.VariantParser) (map[string]*vcf.Variant, error) {
	idx := make(map[string]*vcf.Variant)
	src := g.source(p)
	for {
		v, err := src.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return idx, nil
		}
		if _, dup := idx[v.Key()]; !dup {
			idx[v.Key()] = v
		}
	}
}

// sampleColumn checks that the calls carry the report sample.
func (g *Generator) sampleColumn(p vcf.VariantParser) (string, error) {
	names := p.SampleNames()
	if len(names) == 0 || g.opts.Sample == "" {
		return "", nil
	}
	if !slices.Contains(names, g.opts.Sample) {
		return "", fmt.Errorf("sample %q not found in vcf (have %s)", g.opts.Sample, strings.Join(names, ", "))
	}
	return g.opts.Sample, nil
}

// targets covers every span a depth is looked up for.
func (g *Generator) targets() (*depth.Targets, error) {
	t := depth.NewTargets()
	add := func(chrom string, start, end int64) error {
		if err := t.Add(chrom, start, end); err != nil {
			return fmt.Errorf("depth target %s:%d-%d: %w", chrom, start+1, end, err)
		}
		return nil
	}
	err := g.catalog.Each(func(r *hotspot.Region) error {
		if err := add(g.shortChrom(r), r.ExtendedStart-1, r.ExtendedEnd); err != nil {
			return err
		}
		for _, b := range r.Buckets() {
			for _, v := range b.Variants {
				if err := add(v.Chrom, v.Start0(), v.Stop0()); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, v := range g.classifier.Other() {
		if err := add(v.Chrom, v.Start0(), v.Stop0()); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (g *Generator) shortChrom(r *hotspot.Region) string {
	short, err := g.tr.ToShort(r.Chrom)
	if err != nil {
		g.logger.Debug("catalog chromosome missing from table", zap.String("chrom", r.Chrom))
		return r.ShortChrom()
	}
	return short
}

func (g *Generator) longChrom(v *vcf.Variant) string {
	long, err := g.tr.Long(v.Chrom)
	if err != nil {
		return v.Chrom
	}
	return long
}

// Emit writes the header, then one row per reported catalog position or
// assigned variant, then one row per unassigned variant.
func (g *Generator) Emit(ctx context.Context, w output.RowWriter) error {
	if err := g.advance("emit", StateVariantsClassified, StateEmittingHotspotRows); err != nil {
		return err
	}
	if err := w.WriteHeader(g.engine.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	err := g.catalog.Each(func(r *hotspot.Region) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return g.emitRegion(r, w)
	})
	if err != nil {
		return err
	}
	g.logger.Info("hotspot entries", zap.Int("rows", g.hotspotRows))

	if err := g.advance("emit", StateEmittingHotspotRows, StateEmittingOtherRows); err != nil {
		return err
	}
	for _, v := range g.classifier.Other() {
		if err := g.emitVariant(v, nil, w); err != nil {
			return err
		}
		g.otherRows++
	}
	g.logger.Info("non-hotspot entries", zap.Int("rows", g.otherRows))

	return g.advance("emit", StateEmittingOtherRows, StateDone)
}

func (g *Generator) emitRegion(r *hotspot.Region, w output.RowWriter) error {
	short := g.shortChrom(r)
	for i, b := range r.Buckets() {
		if len(b.Variants) > 0 {
			for _, v := range b.Variants {
				if err := g.emitVariant(v, r, w); err != nil {
					return err
				}
				g.hotspotRows++
			}
			continue
		}
		if b.Extended || !r.AlwaysPrint() {
			continue
		}

		pos := r.ExtendedStart + int64(i)
		d, err := g.depth(short, pos-1, pos)
		if err != nil {
			return err
		}
		if r.Class == hotspot.ClassRegionAll && d > g.ceiling {
			continue
		}
		row := &columns.Row{
			Sample:     g.opts.Sample,
			Chrom:      r.Chrom,
			ShortChrom: short,
			Start:      pos,
			Stop:       pos,
			Report:     hotspot.PositionCategory(r.Class).String(),
			Depth:      d,
			Region:     r,
		}
		if err := w.Write(g.engine.Evaluate(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		g.hotspotRows++
	}
	return nil
}

func (g *Generator) emitVariant(v *vcf.Variant, r *hotspot.Region, w output.RowWriter) error {
	d, err := g.depth(v.Chrom, v.Start0(), v.Stop0())
	if err != nil {
		return err
	}
	row := &columns.Row{
		Sample:     g.opts.Sample,
		Chrom:      g.longChrom(v),
		ShortChrom: v.Chrom,
		Start:      v.Pos,
		Stop:       v.Stop0(),
		Ref:        v.Ref,
		Alt:        v.Alt,
		Report:     hotspot.VariantCategory(v, r).String(),
		Depth:      d,
		Variant:    v,
		Region:     r,
	}
	if ad := v.AlleleDepths(g.vcfSample); len(ad) > 0 {
		row.RefDepth = ad[0]
		row.AltDepth = strings.Join(ad[1:], ",")
	}
	if g.annotated != nil {
		row.Annotated = g.annotated[v.Key()]
		if row.Annotated == nil {
			// Without a matching annotated call the row carries no CSQ.
			row.Annotated = &vcf.Variant{}
		}
	}
	if err := w.Write(g.engine.Evaluate(row)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

func (g *Generator) depth(chrom string, start, end int64) (float64, error) {
	d, err := g.depths.Depth(chrom, start, end)
	if err != nil {
		return 0, fmt.Errorf("depth at %s:%d-%d: %w", chrom, start+1, end, err)
	}
	return d, nil
}

// source returns p, or p split per alternate allele when requested.
func (g *Generator) source(p vcf.VariantParser) vcf.VariantParser {
	if g.opts.SplitMulti {
		return &splitSource{VariantParser: p}
	}
	return p
}

// splitSource yields one record per alternate allele.
type splitSource struct {
	vcf.VariantParser
	pending []*vcf.Variant
}

func (s *splitSource) Next() (*vcf.Variant, error) {
	for len(s.pending) == 0 {
		v, err := s.VariantParser.Next()
		if err != nil || v == nil {
			return v, err
		}
		if len(v.Alts()) == 0 {
			return v, nil
		}
		s.pending = vcf.SplitMultiAllelic(v)
	}
	v := s.pending[0]
	s.pending = s.pending[1:]
	return v, nil
}

// IsAlleleError reports whether err stems from a record with zero or
// several alternate alleles.
func IsAlleleError(err error) bool {
	var ae *hotspot.AlleleError
	return errors.As(err, &ae)
}
