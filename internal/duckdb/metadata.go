package duckdb

import (
	"os"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// metaLines renders the fingerprint as key=value lines under prefix.
func (f FileFingerprint) metaLines(prefix string) []string {
	return []string{
		prefix + "_size=" + strconv.FormatInt(f.Size, 10),
		prefix + "_modtime=" + f.ModTime.UTC().Format(time.RFC3339Nano),
	}
}

// matches reports whether meta holds the same fingerprint under prefix.
func (f FileFingerprint) matches(meta map[string]string, prefix string) bool {
	return meta[prefix+"_size"] == strconv.FormatInt(f.Size, 10) &&
		meta[prefix+"_modtime"] == f.ModTime.UTC().Format(time.RFC3339Nano)
}
