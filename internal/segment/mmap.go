package segment

import (
	"os"

	"github.com/tysonmote/gommap"

	"github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/seginfo"
)

// MmapReader is a read-only, memory-mapped view of a segment file. It must
// only ever be opened against a segment the writer has stopped appending to
// (a retired, immutable segment): gommap.Map takes a fixed-size snapshot of
// the file at open time, so a reader mapped over a still-growing active
// segment would never see bytes appended after the mapping was taken.
type MmapReader struct {
	id   uint64
	dir  string
	file *os.File
	mmap gommap.MMap
}

// OpenMmapReader maps the segment file for id read-only. Callers must only
// use this against a retired segment the writer will never append to again.
func OpenMmapReader(dir string, id uint64) (*MmapReader, error) {
	path := seginfo.Path(dir, id)
	file, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment file for mmap").
			WithSegmentID(int(id)).WithPath(path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file for mmap").
			WithSegmentID(int(id)).WithPath(path)
	}

	if info.Size() == 0 {
		// gommap.Map rejects zero-length mappings; an empty retired segment
		// has nothing to read anyway.
		return &MmapReader{id: id, dir: dir, file: file}, nil
	}

	m, err := gommap.Map(file.Fd(), gommap.PROT_READ, gommap.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to mmap segment file").
			WithSegmentID(int(id)).WithPath(path)
	}

	return &MmapReader{id: id, dir: dir, file: file, mmap: m}, nil
}

// ID returns the mapped segment's id.
func (m *MmapReader) ID() uint64 { return m.id }

// ReadAt returns a copy of length bytes at offset. A copy is returned
// (rather than a slice into the mapping) so the caller can hold the value
// after Close unmaps the underlying pages.
func (m *MmapReader) ReadAt(offset, length int64) ([]byte, error) {
	path := seginfo.Path(m.dir, m.id)
	if offset < 0 || length < 0 || offset+length > int64(len(m.mmap)) {
		return nil, errors.NewStorageError(nil, errors.ErrorCodeIO, "mmap read out of bounds").
			WithSegmentID(int(m.id)).WithOffset(int(offset)).WithPath(path)
	}
	out := make([]byte, length)
	copy(out, m.mmap[offset:offset+length])
	return out, nil
}

// Close unmaps the segment and closes its file handle.
func (m *MmapReader) Close() error {
	if m.mmap != nil {
		if err := m.mmap.UnsafeUnmap(); err != nil {
			m.file.Close()
			return err
		}
	}
	return m.file.Close()
}
