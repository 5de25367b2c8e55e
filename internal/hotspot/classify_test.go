package hotspot

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/hotspot-report/internal/chrom"
	"github.com/inodb/hotspot-report/internal/vcf"
)

func loadFixtures(t *testing.T) (*Catalog, *chrom.Translation) {
	t.Helper()
	cat, err := LoadCatalog(testdataPath("hotspots.tsv"))
	require.NoError(t, err)
	tr, err := chrom.Load(testdataPath("reference_info.tsv"))
	require.NoError(t, err)
	return cat, tr
}

func classifyFixture(t *testing.T) (*Catalog, *Classifier) {
	t.Helper()
	cat, tr := loadFixtures(t)

	p, err := vcf.NewParser(testdataPath("sample.vep.vcf"))
	require.NoError(t, err)
	defer p.Close()

	c := NewClassifier(cat, tr)
	require.NoError(t, c.Classify(p))
	return cat, c
}

// regionKeys lists chrom:pos ref>alt for every variant held by r.
func regionKeys(r *Region) []string {
	var keys []string
	for _, b := range r.Buckets() {
		for _, v := range b.Variants {
			keys = append(keys, v.String())
		}
	}
	return keys
}

func TestClassify_Fixture(t *testing.T) {
	cat, c := classifyFixture(t)

	assert.Equal(t, 7, c.Count())

	hot := cat.Regions(ClassHotspot)
	assert.Equal(t, []string{"chr2:29445271 G>A"}, regionKeys(hot[0]))
	assert.Equal(t, []string{"chr7:140498359 CTTT>C"}, regionKeys(hot[1]))
	assert.Empty(t, regionKeys(hot[2]))
	assert.Empty(t, regionKeys(hot[3]))

	all := cat.Regions(ClassRegionAll)
	assert.Empty(t, regionKeys(all[0]), "hotspot wins over region_all")
	assert.Equal(t, []string{"chr8:145738768 G>C"}, regionKeys(all[1]))

	assert.Equal(t, []string{"chr8:145742514 A>G"}, regionKeys(cat.Regions(ClassRegion)[0]))
	assert.Equal(t, []string{"chr16:81954789 C>GT"}, regionKeys(cat.Regions(ClassIndel)[0]))

	var other []string
	for _, v := range c.Other() {
		other = append(other, v.String())
	}
	assert.Equal(t, []string{"chr2:29445282 G>A", "chr16:81954789 C>G"}, other)
}

func TestClassify_Deterministic(t *testing.T) {
	cat1, c1 := classifyFixture(t)
	cat2, c2 := classifyFixture(t)

	var a, b []string
	collect := func(dst *[]string) func(*Region) error {
		return func(r *Region) error {
			*dst = append(*dst, r.String()+"="+strings.Join(regionKeys(r), ";"))
			return nil
		}
	}
	require.NoError(t, cat1.Each(collect(&a)))
	require.NoError(t, cat2.Each(collect(&b)))
	assert.Equal(t, a, b)
	assert.Equal(t, len(c1.Other()), len(c2.Other()))
}

func TestClassify_Precedence(t *testing.T) {
	cat := NewCatalog()
	// Added in reverse precedence order; insertion order must not matter.
	for _, class := range []string{"indel", "region", "region_all", "hotspot"} {
		f := testFields(class, "100", "110")
		f.CDS, f.AA = "-", "-"
		r, err := NewRegion(f)
		require.NoError(t, err)
		cat.Add(r)
	}
	tr, err := chrom.Read(strings.NewReader("chr7\tNC_000007.13\n"))
	require.NoError(t, err)

	c := NewClassifier(cat, tr)
	r, err := c.Add(&vcf.Variant{Chrom: "chr7", Pos: 105, Ref: "AT", Alt: "A"})
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, ClassHotspot, r.Class)

	// The first region in file order wins within a class.
	second, err := NewRegion(testFields("hotspot", "100", "110"))
	require.NoError(t, err)
	cat.Add(second)
	r, err = c.Add(&vcf.Variant{Chrom: "chr7", Pos: 106, Ref: "A", Alt: "G"})
	require.NoError(t, err)
	assert.Same(t, cat.Regions(ClassHotspot)[0], r)
	assert.Empty(t, regionKeys(second))
}

func TestClassify_AlleleError(t *testing.T) {
	cat, tr := loadFixtures(t)
	c := NewClassifier(cat, tr)

	for _, alt := range []string{"C,T", "."} {
		_, err := c.Add(&vcf.Variant{Chrom: "chr2", Pos: 1, Ref: "A", Alt: alt})
		var ae *AlleleError
		require.True(t, errors.As(err, &ae), alt)
	}
	assert.Equal(t, 0, c.Count())
}

func TestClassify_UnknownChromosome(t *testing.T) {
	cat, tr := loadFixtures(t)
	c := NewClassifier(cat, tr)

	r, err := c.Add(&vcf.Variant{Chrom: "chrUn_gl000220", Pos: 1, Ref: "A", Alt: "G"})
	require.NoError(t, err)
	assert.Nil(t, r)
	require.Len(t, c.Other(), 1)
}
