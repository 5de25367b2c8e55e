package vcf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestParser_AnnotatedVCF(t *testing.T) {
	testFile := findTestFile(t, "sample.vep.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil {
		t.Fatal("Expected a variant, got nil")
	}

	if v.Chrom != "chr2" {
		t.Errorf("Expected chrom chr2, got %s", v.Chrom)
	}
	if v.Pos != 29445271 {
		t.Errorf("Expected pos 29445271, got %d", v.Pos)
	}
	if v.Ref != "G" || v.Alt != "A" {
		t.Errorf("Expected G>A, got %s>%s", v.Ref, v.Alt)
	}
	if callers, _ := v.InfoString("CALLERS"); callers != "vardict" {
		t.Errorf("Expected CALLERS vardict, got %q", callers)
	}

	ad := v.AlleleDepths("sample1")
	if strings.Join(ad, ",") != "359,4" {
		t.Errorf("Expected AD 359,4, got %v", ad)
	}

	// Count the remaining records; the last line has no trailing newline.
	count := 1
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
	}
	if count != 7 {
		t.Errorf("Expected 7 variants, got %d", count)
	}
}

func TestParser_Gzip(t *testing.T) {
	raw, err := os.ReadFile(findTestFile(t, "sample.vep.vcf"))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	path := filepath.Join(t.TempDir(), "sample.vcf.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	parser, err := NewParser(path)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	if got := parser.SampleNames(); len(got) != 1 || got[0] != "sample1" {
		t.Errorf("Expected sample1, got %v", got)
	}
	v, err := parser.Next()
	if err != nil || v == nil {
		t.Fatalf("Expected first variant, got %v, %v", v, err)
	}
	if v.Pos != 29445271 {
		t.Errorf("Expected pos 29445271, got %d", v.Pos)
	}
}

func TestParser_Header(t *testing.T) {
	testFile := findTestFile(t, "sample.vep.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	header := parser.Header()
	if len(header) == 0 {
		t.Error("Expected header lines")
	}

	hasFileformat := false
	hasChromLine := false
	for _, line := range header {
		if line == "##fileformat=VCFv4.2" {
			hasFileformat = true
		}
		if strings.HasPrefix(line, "#CHROM") {
			hasChromLine = true
		}
	}

	if !hasFileformat {
		t.Error("Missing ##fileformat header")
	}
	if !hasChromLine {
		t.Error("Missing #CHROM header line")
	}
}

func TestParser_MissingChromLine(t *testing.T) {
	_, err := NewParserFromReader(strings.NewReader("##fileformat=VCFv4.2\nchr1\t1\t.\tA\tC\t.\t.\t.\n"))
	if err == nil {
		t.Fatal("Expected error for data line before #CHROM")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Errorf("Expected *ParseError, got %T", err)
	}
}

func TestSplitMultiAllelic(t *testing.T) {
	tests := []struct {
		name     string
		alt      string
		expected int
	}{
		{"single allele", "C", 1},
		{"two alleles", "C,T", 2},
		{"three alleles", "C,T,G", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Variant{
				Chrom:   "chr12",
				Pos:     100,
				Ref:     "A",
				Alt:     tt.alt,
				Format:  []string{"GT", "AD"},
				Samples: [][]string{{"0/1", "10,5"}},
			}

			variants := SplitMultiAllelic(v)
			if len(variants) != tt.expected {
				t.Errorf("Expected %d variants, got %d", tt.expected, len(variants))
			}

			for _, split := range variants {
				if strings.Contains(split.Alt, ",") {
					t.Errorf("Split variant should not contain comma in alt: %s", split.Alt)
				}
				if ad, _ := split.SampleField("", "AD"); ad != "10,5" {
					t.Errorf("Split variant lost sample data: %q", ad)
				}
			}
		})
	}
}

func TestParseCSQLayout(t *testing.T) {
	testFile := findTestFile(t, "sample.vep.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	layout, ok := ParseCSQLayout(parser.Header())
	if !ok {
		t.Fatal("Expected CSQ layout")
	}
	if layout["Allele"] != 0 || layout["SYMBOL"] != 3 || layout["BIOTYPE"] != 7 {
		t.Errorf("Unexpected layout indices: %v", layout)
	}

	v, err := parser.Next()
	if err != nil || v == nil {
		t.Fatalf("Expected first variant, got %v, %v", v, err)
	}
	if got, _ := layout.Field(v, "SYMBOL"); got != "ALK" {
		t.Errorf("Expected SYMBOL ALK, got %q", got)
	}
	if got, _ := layout.Field(v, "Consequence"); got != "synonymous_variant" {
		t.Errorf("Expected synonymous_variant, got %q", got)
	}
	if _, ok := layout.Field(v, "INTRON"); ok {
		t.Error("Empty CSQ field should report missing")
	}
	if _, ok := layout.Field(v, "NOT_A_FIELD"); ok {
		t.Error("Unknown CSQ field should report missing")
	}
	if _, ok := layout.Field(nil, "SYMBOL"); ok {
		t.Error("Nil variant should report missing")
	}
}

func TestParseCSQLayout_Absent(t *testing.T) {
	if _, ok := ParseCSQLayout([]string{"##fileformat=VCFv4.2"}); ok {
		t.Error("Expected no CSQ layout")
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "expected 8 columns, found 7",
	}

	expected := "vcf parse error at line 42: expected 8 columns, found 7"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
