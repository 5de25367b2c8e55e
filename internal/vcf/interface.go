package vcf

// VariantParser is a forward-only stream of VCF records.
type VariantParser interface {
	// Next returns nil, nil once the stream is exhausted.
	Next() (*Variant, error)

	// Header returns the meta-information and column header lines.
	Header() []string

	// SampleNames returns the sample columns in file order.
	SampleNames() []string

	// LineNumber returns the line of the last record read.
	LineNumber() int

	Close() error
}

var _ VariantParser = (*Parser)(nil)
