// Package segment implements the append-only log segment files that back
// the storage engine. A Segment is named by a monotonically increasing
// 64-bit id and, once the writer advances past it, never changes again.
package segment

import (
	"os"
	"path/filepath"

	"github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/seginfo"
)

// Segment is an append-only file readable by absolute byte offset.
// Append is safe to call from a single writer goroutine only (the engine
// guarantees this by serializing all mutations through one writer); ReadAt
// is safe for concurrent use by any number of readers, including while an
// Append is in flight, because os.File.ReadAt positions each read
// independently of the file's shared cursor.
type Segment struct {
	id    uint64
	dir   string
	file  *os.File
	size  int64
	fsync bool
}

// Create opens a brand new segment file for id in dir. It fails if a
// segment with that id already exists.
func Create(dir string, id uint64, fsync bool) (*Segment, error) {
	path := seginfo.Path(dir, id)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create segment file").
			WithSegmentID(int(id)).WithPath(path)
	}
	return &Segment{id: id, dir: dir, file: file, fsync: fsync}, nil
}

// Open opens an already-existing segment file for continued append at its
// current end.
func Open(dir string, id uint64, fsync bool) (*Segment, error) {
	path := seginfo.Path(dir, id)
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment file").
			WithSegmentID(int(id)).WithPath(path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat segment file").
			WithSegmentID(int(id)).WithPath(path)
	}

	return &Segment{id: id, dir: dir, file: file, size: info.Size(), fsync: fsync}, nil
}

// ID returns the segment's id.
func (s *Segment) ID() uint64 { return s.id }

// Path returns the segment's on-disk path.
func (s *Segment) Path() string { return seginfo.Path(s.dir, s.id) }

// Size returns the current size of the segment in bytes.
func (s *Segment) Size() int64 { return s.size }

// Append writes p at the current end of the segment and returns the byte
// offset where it was written. The write is flushed to the OS before
// returning (WriteAt goes straight to the file, with no user-space buffer)
// so that a subsequent ReadAt from
// another goroutine observes the bytes; when fsync is enabled the data is
// additionally synced to stable storage before Append returns.
func (s *Segment) Append(p []byte) (offset int64, err error) {
	offset = s.size

	n, err := s.file.WriteAt(p, offset)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append to segment").
			WithSegmentID(int(s.id)).WithOffset(int(offset)).WithPath(s.Path())
	}
	s.size += int64(n)

	if s.fsync {
		if err := s.file.Sync(); err != nil {
			return 0, errors.ClassifySyncError(err, seginfo.GenerateName(s.id), s.Path(), int(offset))
		}
	}

	return offset, nil
}

// ReadAt reads exactly length bytes starting at offset.
func (s *Segment) ReadAt(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := s.file.ReadAt(buf, offset); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read from segment").
			WithSegmentID(int(s.id)).WithOffset(int(offset)).WithPath(s.Path())
	}
	return buf, nil
}

// Sync flushes the segment file to stable storage regardless of the
// segment's configured fsync policy. The compactor calls this once after
// rewriting a segment, since its output replaces several retired segments
// and is worth the extra durability unconditionally.
func (s *Segment) Sync() error {
	if err := s.file.Sync(); err != nil {
		return errors.ClassifySyncError(err, seginfo.GenerateName(s.id), s.Path(), int(s.size))
	}
	return nil
}

// Close closes the underlying file handle.
func (s *Segment) Close() error {
	return s.file.Close()
}

// Remove deletes the segment file for id in dir. Used by the compactor once
// a segment has fallen below the safe point and no reader can still observe
// it.
func Remove(dir string, id uint64) error {
	path := seginfo.Path(dir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove retired segment file").
			WithSegmentID(int(id)).WithPath(path)
	}
	return nil
}

// Dir returns the directory a segment belongs to. Useful for helpers that
// only have a *Segment and need to construct sibling paths.
func Dir(s *Segment) string { return filepath.Clean(s.dir) }
