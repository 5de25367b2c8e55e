package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileFingerprint records which file served as a report input and its
// size and modification time when the report was written.
type FileFingerprint struct {
	Role    string // e.g. "vcf", "gvcf", "hotspots"
	Path    string // absolute
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints the input file at path.
func StatFile(role, path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("resolve %s input: %w", role, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, fmt.Errorf("stat %s input: %w", role, err)
	}
	if info.IsDir() {
		return FileFingerprint{}, fmt.Errorf("%s input %s is a directory", role, path)
	}
	return FileFingerprint{
		Role:    role,
		Path:    abs,
		Size:    info.Size(),
		ModTime: modTime(info),
	}, nil
}

// Modified reports whether the file on disk no longer matches the
// fingerprint. A removed file counts as modified.
func (f FileFingerprint) Modified() bool {
	info, err := os.Stat(f.Path)
	if err != nil {
		return true
	}
	return info.Size() != f.Size || !modTime(info).Equal(f.ModTime.UTC())
}

// modTime is truncated to the precision of a DuckDB TIMESTAMP.
func modTime(info os.FileInfo) time.Time {
	return info.ModTime().UTC().Truncate(time.Microsecond)
}
