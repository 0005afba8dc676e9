// Package codec implements the on-disk binary format for a single log
// record. Records are self-delimiting: given a reader positioned at a
// record boundary, Decode consumes exactly one record and leaves the
// cursor at the next boundary, so a segment can be replayed front to back
// with no separate index of record boundaries.
//
// Wire format, all integers big-endian:
//
//	crc      uint32   // CRC32(IEEE) of everything after the length field
//	length   uint32   // byte length of everything after this field
//	tag      uint8    // tagSet or tagRemove
//	keyLen   uint32
//	key      []byte
//	valueLen uint32   // only present when tag == tagSet
//	value    []byte   // only present when tag == tagSet
package codec

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"

	kverrors "github.com/ignitekv/ignite/pkg/errors"
)

const (
	tagSet byte = iota + 1
	tagRemove
)

const headerWidth = 4 + 4 // crc + length

var enc = binary.BigEndian

// Kind distinguishes the two record variants.
type Kind uint8

const (
	// KindSet establishes or overwrites a binding.
	KindSet Kind = iota
	// KindRemove deletes a binding.
	KindRemove
)

// Record is the tagged union spec.md §3 describes: a Set carries a value,
// a Remove does not.
type Record struct {
	Kind  Kind
	Key   string
	Value string
}

// NewSet builds a Set record.
func NewSet(key, value string) Record {
	return Record{Kind: KindSet, Key: key, Value: value}
}

// NewRemove builds a Remove record.
func NewRemove(key string) Record {
	return Record{Kind: KindRemove, Key: key}
}

// Encode writes rec to w and returns the number of bytes written. The
// caller is responsible for flushing/syncing w as required by the segment's
// durability policy; Encode itself only serializes.
func Encode(w io.Writer, rec Record) (int, error) {
	tag := tagSet
	if rec.Kind == KindRemove {
		tag = tagRemove
	}

	body := make([]byte, 0, 1+4+len(rec.Key)+4+len(rec.Value))
	body = append(body, tag)
	body = appendLenPrefixed(body, rec.Key)
	if tag == tagSet {
		body = appendLenPrefixed(body, rec.Value)
	}

	header := make([]byte, headerWidth)
	enc.PutUint32(header[4:8], uint32(len(body)))
	enc.PutUint32(header[0:4], crc32.ChecksumIEEE(body))

	n, err := w.Write(header)
	if err != nil {
		return n, err
	}
	m, err := w.Write(body)
	return n + m, err
}

func appendLenPrefixed(dst []byte, s string) []byte {
	var lenBuf [4]byte
	enc.PutUint32(lenBuf[:], uint32(len(s)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, s...)
	return dst
}

// Decode reads exactly one record from r. It returns a *errors.StorageError
// wrapping errors.ErrUnexpectedEOF when r is exhausted before a full record
// is available (a crash-torn trailing write), and one with code
// errors.ErrorCodeCodec when the bytes read don't satisfy the CRC or don't
// parse as a well-formed record.
func Decode(r *bufio.Reader) (Record, int, error) {
	header := make([]byte, headerWidth)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			// Nothing read at all: a clean boundary, not a torn record.
			return Record{}, 0, io.EOF
		}
		return Record{}, 0, kverrors.NewUnexpectedEOFError(err)
	}

	wantCRC := enc.Uint32(header[0:4])
	length := enc.Uint32(header[4:8])

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		// The header promised `length` more bytes; anything short of that,
		// including a clean io.EOF, means the trailing record was torn.
		return Record{}, 0, kverrors.NewUnexpectedEOFError(err)
	}

	if gotCRC := crc32.ChecksumIEEE(body); gotCRC != wantCRC {
		return Record{}, 0, kverrors.NewCodecError(
			nil, "record checksum mismatch",
		).WithDetail("want", wantCRC).WithDetail("got", gotCRC)
	}

	rec, err := decodeBody(body)
	if err != nil {
		return Record{}, 0, err
	}

	return rec, headerWidth + len(body), nil
}

func decodeBody(body []byte) (Record, error) {
	if len(body) < 1 {
		return Record{}, kverrors.NewCodecError(nil, "record body missing tag byte")
	}
	tag := body[0]
	body = body[1:]

	key, body, err := readLenPrefixed(body)
	if err != nil {
		return Record{}, kverrors.NewCodecError(err, "failed to decode record key")
	}

	switch tag {
	case tagRemove:
		if len(body) != 0 {
			return Record{}, kverrors.NewCodecError(nil, "trailing bytes after remove record key")
		}
		return NewRemove(string(key)), nil
	case tagSet:
		value, rest, err := readLenPrefixed(body)
		if err != nil {
			return Record{}, kverrors.NewCodecError(err, "failed to decode record value")
		}
		if len(rest) != 0 {
			return Record{}, kverrors.NewCodecError(nil, "trailing bytes after set record value")
		}
		return NewSet(string(key), string(value)), nil
	default:
		return Record{}, kverrors.NewCodecError(nil, "unknown record tag")
	}
}

func readLenPrefixed(body []byte) (field []byte, rest []byte, err error) {
	if len(body) < 4 {
		return nil, nil, io.ErrUnexpectedEOF
	}
	n := enc.Uint32(body[0:4])
	body = body[4:]
	if uint32(len(body)) < n {
		return nil, nil, io.ErrUnexpectedEOF
	}
	return body[:n], body[n:], nil
}
