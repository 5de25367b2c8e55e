package hotspot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Catalog column names, matched after upper-casing the header.
const (
	ColChr       = "CHR"
	ColStart     = "START"
	ColEnd       = "END"
	ColGene      = "GENE"
	ColCDS       = "CDS_MUTATION_SYNTAX"
	ColAA        = "AA_MUTATION_SYNTAX"
	ColReport    = "REPORT"
	ColComment   = "COMMENT"
	ColExon      = "EXON"
	ColAccession = "ACCESSION_NUMBER"
)

var requiredColumns = []string{
	ColChr, ColStart, ColEnd, ColGene, ColCDS, ColAA, ColReport, ColComment, ColExon, ColAccession,
}

// Reader streams regions from a tab-separated hotspot catalog.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    map[string]int
}

// NewReader opens a catalog file. Supports plain and gzip compressed files.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hotspot file: %w", err)
	}

	r := &Reader{file: file}

	br := bufio.NewReader(file)
	magic, _ := br.Peek(2)
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		r.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r.reader = bufio.NewReader(r.gzipReader)
	} else {
		r.reader = br
	}

	if err := r.parseHeader(); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// NewReaderFromReader creates a catalog reader from an io.Reader.
func NewReaderFromReader(in io.Reader) (*Reader, error) {
	r := &Reader{reader: bufio.NewReader(in)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// parseHeader reads the first non-blank line, which must start with #, and
// maps the upper-cased column names to their index.
func (r *Reader) parseHeader() error {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil && !(err == io.EOF && line != "") {
			if err == io.EOF {
				return &ParseError{Line: r.lineNumber, Message: "missing header row"}
			}
			return fmt.Errorf("read hotspot header: %w", err)
		}
		r.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			return &ParseError{Line: r.lineNumber, Message: "missing header row"}
		}

		r.columns = make(map[string]int)
		for i, name := range strings.Split(strings.TrimLeft(line, "#"), "\t") {
			r.columns[strings.ToUpper(strings.TrimSpace(name))] = i
		}
		for _, name := range requiredColumns {
			if _, ok := r.columns[name]; !ok {
				return &ParseError{
					Line:    r.lineNumber,
					Message: fmt.Sprintf("required column '%s' not found in header", name),
				}
			}
		}
		return nil
	}
}

// Next reads the next region from the catalog.
// Returns nil, nil when there are no more regions.
func (r *Reader) Next() (*Region, error) {
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("read hotspot line: %w", err)
			}
			if line == "" {
				return nil, nil
			}
		}
		r.lineNumber++

		line = strings.TrimRight(line, " \t\r\n")
		if line == "" {
			continue
		}

		return r.parseLine(line)
	}
}

func (r *Reader) parseLine(line string) (*Region, error) {
	row := strings.Split(line, "\t")
	get := func(name string) (string, error) {
		i := r.columns[name]
		if i >= len(row) {
			return "", &ParseError{
				Line:    r.lineNumber,
				Message: fmt.Sprintf("missing value for column '%s'", name),
			}
		}
		return row[i], nil
	}

	var f Fields
	for _, c := range []struct {
		name string
		dst  *string
	}{
		{ColChr, &f.Chrom},
		{ColStart, &f.Start},
		{ColEnd, &f.End},
		{ColGene, &f.Gene},
		{ColCDS, &f.CDS},
		{ColAA, &f.AA},
		{ColReport, &f.Report},
		{ColComment, &f.Comment},
		{ColExon, &f.Exon},
		{ColAccession, &f.Accession},
	} {
		v, err := get(c.name)
		if err != nil {
			return nil, err
		}
		*c.dst = v
	}

	region, err := NewRegion(f)
	if err != nil {
		return nil, fmt.Errorf("hotspot file line %d: %w", r.lineNumber, err)
	}
	return region, nil
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseError represents a malformed catalog file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("hotspot parse error at line %d: %s", e.Line, e.Message)
}

// ValidationError identifies a catalog field with an invalid value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
