package hotspot

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/hotspot-report/internal/chrom"
	"github.com/inodb/hotspot-report/internal/vcf"
)

// VariantSource yields variants until it returns nil, nil.
type VariantSource interface {
	Next() (*vcf.Variant, error)
}

// Translator converts chromosome names to the accession form used by the
// catalog.
type Translator interface {
	Long(id string) (string, error)
}

// Classifier assigns variants to the first accepting catalog region.
type Classifier struct {
	catalog *Catalog
	tr      Translator
	other   []*vcf.Variant
	count   int
	logger  *zap.Logger
}

// NewClassifier creates a classifier over cat.
func NewClassifier(cat *Catalog, tr Translator) *Classifier {
	return &Classifier{
		catalog: cat,
		tr:      tr,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for debug messages.
func (c *Classifier) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Add assigns v to the first region, in precedence then file order, that
// accepts it. Variants accepted by no region are kept as unassigned.
// A record without exactly one alternate allele is an *AlleleError.
func (c *Classifier) Add(v *vcf.Variant) (*Region, error) {
	if alts := v.Alts(); len(alts) != 1 {
		return nil, &AlleleError{Variant: v.String(), Alleles: len(alts)}
	}
	c.count++

	long, err := c.tr.Long(v.Chrom)
	if err != nil {
		if !errors.Is(err, chrom.ErrUnknownChromosome) {
			return nil, err
		}
		// No catalog region lives on an untranslatable contig.
		c.logger.Debug("variant on untranslated chromosome", zap.Stringer("variant", v))
		c.other = append(c.other, v)
		return nil, nil
	}

	for _, class := range Precedence {
		for _, r := range c.catalog.Regions(class) {
			if r.Assign(v, long) {
				c.logger.Debug("variant assigned",
					zap.Stringer("variant", v),
					zap.Stringer("region", r))
				return r, nil
			}
		}
	}

	c.other = append(c.other, v)
	return nil, nil
}

// Classify drains src through Add.
func (c *Classifier) Classify(src VariantSource) error {
	for {
		v, err := src.Next()
		if err != nil {
			return fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			return nil
		}
		if _, err := c.Add(v); err != nil {
			return err
		}
	}
}

// Other returns the unassigned variants in input order.
func (c *Classifier) Other() []*vcf.Variant {
	return c.other
}

// Count returns the number of variants classified so far.
func (c *Classifier) Count() int {
	return c.count
}

// AlleleError reports a record that does not carry exactly one alternate
// allele. Multi-allelic records must be split before classification.
type AlleleError struct {
	Variant string
	Alleles int
}

func (e *AlleleError) Error() string {
	return fmt.Sprintf("variant %s has %d alternate alleles, expected 1", e.Variant, e.Alleles)
}
