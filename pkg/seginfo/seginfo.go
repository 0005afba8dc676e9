// Package seginfo provides naming and discovery utilities for segment files.
//
// Filename format: a zero-padded, fixed-width decimal segment id followed by
// a fixed ".log" extension — for example "00000000000000000007.log". This
// keeps directory listing order and numeric id order identical, so the
// writer can discover the highest existing segment id (and readers can
// enumerate live segments) with a plain lexicographic sort; no timestamp or
// configurable prefix bookkeeping is needed the way the original
// "prefix_NNNNN_timestamp.seg" scheme required.
package seginfo

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/ignitekv/ignite/pkg/filesys"
)

// Extension is the fixed suffix every segment file carries.
const Extension = ".log"

// idWidth is wide enough that a uint64 id never needs truncation.
const idWidth = 20

// GenerateName returns the on-disk filename for segment id.
func GenerateName(id uint64) string {
	return fmt.Sprintf("%0*d%s", idWidth, id, Extension)
}

// ParseSegmentID extracts the segment id from a filename produced by
// GenerateName. fullPath may be a bare filename or a full path; only the
// base name is inspected.
func ParseSegmentID(fullPath string) (uint64, error) {
	_, filename := filepath.Split(fullPath)
	if !strings.HasSuffix(filename, Extension) {
		return 0, fmt.Errorf("filename %s does not have the %s extension", filename, Extension)
	}

	idStr := strings.TrimSuffix(filename, Extension)
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment id from %s: %w", filename, err)
	}
	return id, nil
}

// ListSegmentIDs returns every segment id found in segmentDir, sorted
// ascending. Entries that don't match the naming convention are ignored
// rather than failing the whole scan.
func ListSegmentIDs(segmentDir string) ([]uint64, error) {
	pattern := filepath.Join(segmentDir, "*"+Extension)
	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory with pattern %s: %w", pattern, err)
	}

	// Zero-padded ids sort identically by lexicographic and numeric order,
	// so a plain string sort recovers id order without parsing every name.
	slices.Sort(matches)

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		id, err := ParseSegmentID(m)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LatestSegmentID returns the highest segment id present in segmentDir.
// found is false when the directory contains no segment files yet.
func LatestSegmentID(segmentDir string) (id uint64, found bool, err error) {
	ids, err := ListSegmentIDs(segmentDir)
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}

// Path joins segmentDir with the filename for id.
func Path(segmentDir string, id uint64) string {
	return filepath.Join(segmentDir, GenerateName(id))
}

// GetFileInfo safely retrieves file system metadata for a given path.
func GetFileInfo(filePath string) (os.FileInfo, error) {
	file, err := os.OpenFile(filePath, os.O_RDONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err)
	}
	return stat, nil
}
