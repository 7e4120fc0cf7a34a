package dton

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// BuilderOptions define builder specific options.
type BuilderOptions struct {
	// Base64Prefix marks JSON strings which are decoded and stored as
	// binary blobs.
	// Default: "$B64$".
	Base64Prefix string

	// Strict reports operations on missing or mistyped node ids as
	// ErrBadNode, instead of silently ignoring them.
	// Default: false.
	Strict bool

	// SizeHint is the expected number of values. It is used to
	// pre-allocate staging space.
	// Default: 16.
	SizeHint int
}

func (o *BuilderOptions) norm() *BuilderOptions {
	var oo BuilderOptions
	if o != nil {
		oo = *o
	}

	if oo.Base64Prefix == "" {
		oo.Base64Prefix = DefaultBase64Prefix
	}
	if oo.SizeHint < 1 {
		oo.SizeHint = 16
	}

	return &oo
}

// --------------------------------------------------------------------

// segments stages the keys and values of a buffer and tracks the sizes
// needed to lay them out.
type segments struct {
	keys  []string
	kdata int // key text bytes, including NULs

	values   []value
	vdata    int // payload bytes
	lenSlots int // number of values with a length/node id field
}

func (s *segments) init(hint int) {
	s.keys = make([]string, 0, hint)
	s.values = make([]value, 0, hint)
}

func (s *segments) appendKey(key string) (int, error) {
	if !utf8.ValidString(key) {
		return 0, errors.Wrapf(ErrInvalidUTF8, "key %q", key)
	}

	ix := len(s.keys)
	s.keys = append(s.keys, key)
	s.kdata += len(key) + 1
	return ix, nil
}

func (s *segments) appendValue(v value) (int, error) {
	if v.typ == TypeString && !utf8.ValidString(v.text) {
		return 0, errors.Wrapf(ErrInvalidUTF8, "value %q", v.text)
	}

	ix := len(s.values)
	if v.hasLen {
		s.lenSlots++
	}
	s.vdata += v.size
	s.values = append(s.values, v)
	return ix, nil
}

// fixedBytes returns the size of all segment data which does not depend on
// the offset width.
func (s *segments) fixedBytes() int {
	return s.kdata + len(s.values) + s.vdata
}

// slots returns the number of width-sized fields in both segments.
func (s *segments) slots() int {
	return len(s.keys) + s.lenSlots
}

// --------------------------------------------------------------------

// writer fills a buffer of a pre-computed size.
type writer struct {
	buf   []byte
	off   int
	width int
}

// newWriter allocates the final buffer and writes the format tag and width.
func newWriter(size, width int) (*writer, error) {
	if uint64(size) > math.MaxUint32 {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes", size)
	}

	w := &writer{buf: make([]byte, size), width: width}
	w.putU8(formatTag)
	w.putU8(byte(width))
	return w, nil
}

func (w *writer) putU8(b byte) {
	w.buf[w.off] = b
	w.off++
}

// putUint writes n with the buffer's offset width.
func (w *writer) putUint(n int) {
	switch w.width {
	case 1:
		w.buf[w.off] = byte(n)
	case 2:
		binary.LittleEndian.PutUint16(w.buf[w.off:], uint16(n))
	case 4:
		binary.LittleEndian.PutUint32(w.buf[w.off:], uint32(n))
	default:
		return
	}
	w.off += w.width
}

func (w *writer) putBytes(p []byte) {
	w.off += copy(w.buf[w.off:], p)
}

func (w *writer) putString(s string) {
	w.off += copy(w.buf[w.off:], s)
}

func (w *writer) putBits(bits uint64, size int) {
	switch size {
	case 1:
		w.buf[w.off] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(w.buf[w.off:], uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(w.buf[w.off:], uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(w.buf[w.off:], bits)
	}
	w.off += size
}

// keyOffsets returns the absolute offset of each key, given the start of
// the key segment.
func (w *writer) keyOffsets(start int, keys []string) []int {
	offs := make([]int, len(keys))
	off := start
	for i, k := range keys {
		offs[i] = off
		off += w.width + len(k) + 1
	}
	return offs
}

// valueOffsets returns the absolute offset of each value, given the start
// of the value segment.
func (w *writer) valueOffsets(start int, values []value) []int {
	offs := make([]int, len(values))
	off := start
	for i := range values {
		v := &values[i]
		offs[i] = off
		off += 1 + v.size
		if v.hasLen {
			off += w.width
		}
	}
	return offs
}

// writeSegments writes the key segment and the value segment, each
// followed by a sentinel.
func (w *writer) writeSegments(s *segments) {
	for _, k := range s.keys {
		w.putUint(len(k) + 1)
		w.putString(k)
		w.putU8(0)
	}
	w.putU8(sentinel)

	for i := range s.values {
		v := &s.values[i]
		w.putU8(byte(v.typ))
		if v.hasLen {
			w.putUint(v.lenField())
		}

		switch v.typ {
		case TypeString:
			w.putString(v.text)
			w.putU8(0)
		case TypeBinary, TypeBase64:
			w.putBytes(v.data)
		case TypeMap, TypeArray:
		default:
			w.putBits(v.bits, v.size)
		}
	}
	w.putU8(sentinel)
}

// finish returns the buffer, asserting that it was filled exactly.
func (w *writer) finish() (Buffer, error) {
	if w.off != len(w.buf) {
		return nil, errors.AssertionFailedf("dton: wrote %d of %d bytes", w.off, len(w.buf))
	}
	return Buffer(w.buf), nil
}
