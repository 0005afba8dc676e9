package writer

import (
	"bufio"
	"io"
	"os"

	"github.com/ignitekv/ignite/internal/codec"
	"github.com/ignitekv/ignite/internal/index"
	"github.com/ignitekv/ignite/pkg/errors"
	"github.com/ignitekv/ignite/pkg/seginfo"
)

// recoverSegments replays every segment id in dir, in ascending order,
// applying each decoded record to idx exactly as Set/Remove would, and
// returns the total stale-byte count accumulated by entries that were
// overwritten or removed along the way. This is what lets a reopened store
// see the same key/value mapping it had before it was closed.
//
// The highest-numbered segment may end in a torn record (a crash mid-append,
// or a process killed between Append's WriteAt and the next call): that
// segment is truncated at the last complete record boundary and recovery
// continues as if the torn bytes were never written. A torn record in any
// earlier segment means a segment that should be immutable was corrupted,
// which recovery cannot repair, so it aborts open entirely.
func recoverSegments(dir string, idx *index.Index, ids []uint64) (staleBytes int64, err error) {
	for i, id := range ids {
		n, err := recoverSegment(dir, idx, id, i == len(ids)-1)
		if err != nil {
			return staleBytes, err
		}
		staleBytes += n
	}
	return staleBytes, nil
}

func recoverSegment(dir string, idx *index.Index, id uint64, isLast bool) (staleBytes int64, err error) {
	path := seginfo.Path(dir, id)
	file, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment file for recovery").
			WithSegmentID(int(id)).WithPath(path)
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var offset int64

	for {
		rec, n, decErr := codec.Decode(r)
		if decErr == io.EOF {
			break
		}
		if errors.IsUnexpectedEOF(decErr) {
			if !isLast {
				return staleBytes, decErr
			}
			if truncErr := file.Truncate(offset); truncErr != nil {
				return staleBytes, errors.NewStorageError(truncErr, errors.ErrorCodeIO, "failed to truncate torn trailing record").
					WithSegmentID(int(id)).WithOffset(int(offset)).WithPath(path)
			}
			break
		}
		if decErr != nil {
			return staleBytes, decErr
		}

		loc := index.Locator{SegmentID: id, Offset: offset, Length: int64(n)}
		switch rec.Kind {
		case codec.KindSet:
			if prev, had := idx.Put(rec.Key, loc); had {
				staleBytes += prev.Length
			}
		case codec.KindRemove:
			if prev, had := idx.Delete(rec.Key); had {
				staleBytes += prev.Length
			}
		}

		offset += int64(n)
	}

	return staleBytes, nil
}
