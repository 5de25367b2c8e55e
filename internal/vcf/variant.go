// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Variant represents a single genomic record from a VCF file.
type Variant struct {
	Chrom  string                 // Chromosome name (e.g., "chr2", "NC_000002.11")
	Pos    int64                  // 1-based genomic position
	ID     string                 // Variant identifier (e.g., rs ID)
	Ref    string                 // Reference allele
	Alt    string                 // Alternate allele(s), comma separated as in the file
	Qual   float64                // Quality score
	Filter string                 // Filter status (PASS or filter name)
	Info   map[string]interface{} // INFO field key-value pairs

	Format  []string   // FORMAT keys
	Samples [][]string // per-sample values, aligned with Format

	samples *sampleIndex // shared with the parser that produced the record
}

// sampleIndex maps sample names to their column offset.
type sampleIndex struct {
	names []string
	index map[string]int
}

func newSampleIndex(names []string) *sampleIndex {
	idx := &sampleIndex{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		idx.index[n] = i
	}
	return idx
}

// Alts returns the alternate alleles. A "." ALT yields no alleles.
func (v *Variant) Alts() []string {
	if v.Alt == "" || v.Alt == "." {
		return nil
	}
	return strings.Split(v.Alt, ",")
}

// End returns the 1-based inclusive position of the last reference base.
func (v *Variant) End() int64 {
	if len(v.Ref) == 0 {
		return v.Pos
	}
	return v.Pos + int64(len(v.Ref)) - 1
}

// Start0 returns the 0-based start of the reference allele.
func (v *Variant) Start0() int64 {
	return v.Pos - 1
}

// Stop0 returns the 0-based exclusive end of the reference allele.
func (v *Variant) Stop0() int64 {
	return v.Pos - 1 + int64(len(v.Ref))
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return len(v.Ref) != len(v.Alt)
}

// IsMultiBaseSub returns true for a substitution spanning more than one base.
func (v *Variant) IsMultiBaseSub() bool {
	return len(v.Ref) > 1 && len(v.Alt) > 1 && len(v.Ref) == len(v.Alt)
}

// Key identifies a record by chrom, position and alleles.
func (v *Variant) Key() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + ":" + v.Ref + ":" + v.Alt
}

// InfoString returns an INFO value as a string. Flags render as "true".
func (v *Variant) InfoString(key string) (string, bool) {
	val, ok := v.Info[key]
	if !ok {
		return "", false
	}
	switch x := val.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

// SampleField returns the FORMAT value of key for the named sample.
// An empty sample name selects the first sample column.
func (v *Variant) SampleField(sample, key string) (string, bool) {
	col := 0
	if sample != "" {
		if v.samples == nil {
			return "", false
		}
		i, ok := v.samples.index[sample]
		if !ok {
			return "", false
		}
		col = i
	}
	if col >= len(v.Samples) {
		return "", false
	}
	for i, k := range v.Format {
		if k != key {
			continue
		}
		values := v.Samples[col]
		if i >= len(values) || values[i] == "." || values[i] == "" {
			return "", false
		}
		return values[i], true
	}
	return "", false
}

// AlleleDepths returns the AD values of the named sample, reference first.
func (v *Variant) AlleleDepths(sample string) []string {
	ad, ok := v.SampleField(sample, "AD")
	if !ok {
		return nil
	}
	return strings.Split(ad, ",")
}

// String returns a compact chrom:pos ref>alt form for log messages.
func (v *Variant) String() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + " " + v.Ref + ">" + v.Alt
}
