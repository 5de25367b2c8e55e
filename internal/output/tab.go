// Package output writes report rows.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RowWriter receives the report header followed by its rows.
type RowWriter interface {
	WriteHeader(columns []string) error
	Write(values []string) error
}

// TabWriter writes report rows in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns int
	rows    int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w), columns: -1}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader(columns []string) error {
	if tw.columns >= 0 {
		return fmt.Errorf("header already written")
	}
	tw.columns = len(columns)
	return tw.writeLine(columns)
}

// Write writes a single row. It must have one value per header column.
func (tw *TabWriter) Write(values []string) error {
	if tw.columns < 0 {
		return fmt.Errorf("row written before header")
	}
	if len(values) != tw.columns {
		return fmt.Errorf("row has %d values, header has %d columns", len(values), tw.columns)
	}
	if err := tw.writeLine(values); err != nil {
		return err
	}
	tw.rows++
	return nil
}

func (tw *TabWriter) writeLine(values []string) error {
	for i, v := range values {
		if i > 0 {
			if err := tw.w.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := tw.w.WriteString(sanitize(v)); err != nil {
			return err
		}
	}
	return tw.w.WriteByte('\n')
}

// sanitize keeps a value on one field of one line.
func sanitize(v string) string {
	if !strings.ContainsAny(v, "\t\r\n") {
		return v
	}
	return strings.NewReplacer("\t", " ", "\r", "", "\n", " ").Replace(v)
}

// Rows returns the number of rows written.
func (tw *TabWriter) Rows() int {
	return tw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// MultiWriter duplicates the header and rows to every writer.
type MultiWriter []RowWriter

// WriteHeader implements RowWriter.
func (m MultiWriter) WriteHeader(columns []string) error {
	for _, w := range m {
		if err := w.WriteHeader(columns); err != nil {
			return err
		}
	}
	return nil
}

// Write implements RowWriter.
func (m MultiWriter) Write(values []string) error {
	for _, w := range m {
		if err := w.Write(values); err != nil {
			return err
		}
	}
	return nil
}
