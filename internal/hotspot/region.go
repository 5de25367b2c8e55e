package hotspot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/hotspot-report/internal/vcf"
)

var (
	cdsPattern  = regexp.MustCompile(`^c\..+|^-$`)
	aaPattern   = regexp.MustCompile(`^p\..+|^-$`)
	exonPattern = regexp.MustCompile(`^exon\d+$|^intronic$`)
	ncPrefix    = regexp.MustCompile(`^NC_0*|\.[0-9]*$`)
)

// Fields holds the raw values of one catalog row.
type Fields struct {
	Chrom     string
	Start     string
	End       string
	Gene      string
	CDS       string
	AA        string
	Report    string
	Comment   string
	Exon      string
	Accession string
}

// Bucket holds the variants assigned at one position of a region window.
type Bucket struct {
	Extended bool           // position lies outside the catalog interval
	Variants []*vcf.Variant // kept by reference, in assignment order
}

// Region is one catalog entry together with the variants assigned to it.
type Region struct {
	Chrom     string // accession form, e.g. NC_000002.11
	Start     int64  // 1-based inclusive
	End       int64  // 1-based inclusive
	Gene      string
	CDS       string
	AA        string
	Class     ReportClass
	Comment   string
	Exon      string
	Accession string

	ExtendedStart int64
	ExtendedEnd   int64

	buckets []Bucket
}

// NewRegion validates f and builds a region whose window equals its
// catalog interval.
func NewRegion(f Fields) (*Region, error) {
	start, err := strconv.ParseInt(strings.TrimSpace(f.Start), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "START", Value: f.Start, Reason: "not an integer"}
	}
	end, err := strconv.ParseInt(strings.TrimSpace(f.End), 10, 64)
	if err != nil {
		return nil, &ValidationError{Field: "END", Value: f.End, Reason: "not an integer"}
	}
	if start > end {
		return nil, &ValidationError{
			Field:  "START",
			Value:  f.Start,
			Reason: fmt.Sprintf("greater than end %d", end),
		}
	}
	if !cdsPattern.MatchString(f.CDS) {
		return nil, &ValidationError{Field: "CDS_MUTATION_SYNTAX", Value: f.CDS, Reason: `should start with "c." or be "-"`}
	}
	if !aaPattern.MatchString(f.AA) {
		return nil, &ValidationError{Field: "AA_MUTATION_SYNTAX", Value: f.AA, Reason: `should start with "p." or be "-"`}
	}
	class, err := ParseReportClass(f.Report)
	if err != nil {
		return nil, &ValidationError{Field: "REPORT", Value: f.Report, Reason: "unknown report class"}
	}
	if !exonPattern.MatchString(f.Exon) {
		return nil, &ValidationError{Field: "EXON", Value: f.Exon, Reason: `should be "exon<N>" or "intronic"`}
	}

	return &Region{
		Chrom:         f.Chrom,
		Start:         start,
		End:           end,
		Gene:          f.Gene,
		CDS:           f.CDS,
		AA:            f.AA,
		Class:         class,
		Comment:       f.Comment,
		Exon:          f.Exon,
		Accession:     f.Accession,
		ExtendedStart: start,
		ExtendedEnd:   end,
		buckets:       make([]Bucket, end-start+1),
	}, nil
}

// AlwaysPrint reports whether uncovered catalog positions are emitted.
func (r *Region) AlwaysPrint() bool { return r.Class.AlwaysPrint() }

// PrintAll reports whether the region belongs to the region_all class.
func (r *Region) PrintAll() bool { return r.Class.PrintAll() }

// ShortChrom derives a chrN name from the accession, e.g. NC_000002.11 -> chr2.
func (r *Region) ShortChrom() string {
	return "chr" + ncPrefix.ReplaceAllString(r.Chrom, "")
}

// Buckets returns the window buckets in position order. The bucket at index
// i covers position ExtendedStart+i.
func (r *Region) Buckets() []Bucket {
	return r.buckets
}

// Overlaps reports whether the 1-based inclusive span [start, stop] on chrom
// intersects the catalog interval.
func (r *Region) Overlaps(chrom string, start, stop int64) bool {
	return r.Chrom == chrom && start <= r.End && r.Start <= stop
}

// Assign attaches v to the region when it overlaps the catalog interval.
// chrom is the accession form of v.Chrom. The window grows to cover the
// variant span and existing buckets keep their variants. Indel regions
// never accept single-base substitutions.
func (r *Region) Assign(v *vcf.Variant, chrom string) bool {
	if r.Class == ClassIndel && v.IsSNV() {
		return false
	}
	vStart, vStop := v.Pos, v.End()
	if !r.Overlaps(chrom, vStart, vStop) {
		return false
	}

	if vStart < r.ExtendedStart || vStop > r.ExtendedEnd {
		r.grow(min(vStart, r.ExtendedStart), max(vStop, r.ExtendedEnd))
	}

	i := vStart - r.ExtendedStart
	r.buckets[i].Variants = append(r.buckets[i].Variants, v)
	return true
}

// grow re-derives the bucket array for the window [start, end]. Positions new
// to the window are marked extended.
func (r *Region) grow(start, end int64) {
	buckets := make([]Bucket, end-start+1)
	for i := range buckets {
		pos := start + int64(i)
		if pos >= r.ExtendedStart && pos <= r.ExtendedEnd {
			buckets[i] = r.buckets[pos-r.ExtendedStart]
		} else {
			buckets[i] = Bucket{Extended: true}
		}
	}
	r.buckets = buckets
	r.ExtendedStart = start
	r.ExtendedEnd = end
}

// Attribute returns a named region attribute for column projection.
// Names are matched case-insensitively.
func (r *Region) Attribute(name string) (string, bool) {
	switch strings.ToUpper(name) {
	case "CHROMOSOME", "CHR":
		return r.Chrom, true
	case "CHR_SHORT":
		return r.ShortChrom(), true
	case "START":
		return strconv.FormatInt(r.Start, 10), true
	case "END":
		return strconv.FormatInt(r.End, 10), true
	case "GENE":
		return r.Gene, true
	case "CDS_MUTATION_SYNTAX":
		return r.CDS, true
	case "AA_MUTATION_SYNTAX":
		return r.AA, true
	case "REPORT":
		return r.Class.String(), true
	case "COMMENT":
		return r.Comment, true
	case "EXON":
		return r.Exon, true
	case "ACCESSION_NUMBER":
		return r.Accession, true
	case "EXTENDED_START":
		return strconv.FormatInt(r.ExtendedStart, 10), true
	case "EXTENDED_END":
		return strconv.FormatInt(r.ExtendedEnd, 10), true
	case "ALWAYS_PRINT":
		return strconv.FormatBool(r.AlwaysPrint()), true
	case "PRINT_ALL":
		return strconv.FormatBool(r.PrintAll()), true
	}
	return "", false
}

// IsAttribute reports whether name is accepted by Attribute.
func IsAttribute(name string) bool {
	var r Region
	_, ok := r.Attribute(name)
	return ok
}

func (r *Region) String() string {
	return fmt.Sprintf("%s:%d-%d %s", r.Chrom, r.Start, r.End, r.Class)
}
