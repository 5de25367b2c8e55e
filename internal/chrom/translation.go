// Package chrom maps between symbolic chromosome names and RefSeq accessions.
package chrom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// ErrUnknownChromosome is returned when a lookup key is not in the table.
var ErrUnknownChromosome = errors.New("unknown chromosome")

var (
	shortPattern = regexp.MustCompile(`^chr[XYM0-9]+$|^[XYM0-9]+$`)
	longPattern  = regexp.MustCompile(`^NC_0+\d+\.\d+$`)
)

// Translation is an immutable bidirectional chromosome name table.
type Translation struct {
	toLong  map[string]string
	toShort map[string]string
}

// Load builds a Translation from a reference-info file.
func Load(path string) (*Translation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chromosome table: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read builds a Translation from tab-separated rows holding one short and one
// long name in the first two columns, in either order. Lines starting with #
// and blank lines are skipped; further columns are ignored.
func Read(r io.Reader) (*Translation, error) {
	t := &Translation{
		toLong:  make(map[string]string),
		toShort: make(map[string]string),
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return nil, &ParseError{Line: line, Message: "expected at least 2 columns"}
		}
		a, b := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])

		switch {
		case shortPattern.MatchString(a) && longPattern.MatchString(b):
			t.toLong[a] = b
			t.toShort[b] = a
		case longPattern.MatchString(a) && shortPattern.MatchString(b):
			t.toLong[b] = a
			t.toShort[a] = b
		default:
			return nil, &ParseError{
				Line:    line,
				Message: fmt.Sprintf("cannot pair %q and %q as short/long chromosome names", a, b),
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chromosome table: %w", err)
	}

	return t, nil
}

// ToLong returns the accession for a short chromosome name.
func (t *Translation) ToLong(short string) (string, error) {
	long, ok := t.toLong[short]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChromosome, short)
	}
	return long, nil
}

// ToShort returns the short name for an accession.
func (t *Translation) ToShort(long string) (string, error) {
	short, ok := t.toShort[long]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChromosome, long)
	}
	return short, nil
}

// Long returns id unchanged when it already is an accession, otherwise its
// accession.
func (t *Translation) Long(id string) (string, error) {
	if longPattern.MatchString(id) {
		return id, nil
	}
	return t.ToLong(id)
}

// Len returns the number of chromosome pairs.
func (t *Translation) Len() int {
	return len(t.toLong)
}

// ParseError reports a malformed row in a chromosome table.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chromosome table error at line %d: %s", e.Line, e.Message)
}
