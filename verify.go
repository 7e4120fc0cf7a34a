package dton

import "github.com/cockroachdb/errors"

// Verify walks the whole buffer and checks that the node tables and both
// segments are laid out contiguously, with sentinels in between. Lookups do
// not depend on sentinels, Verify is intended for buffers from untrusted
// sources.
func (r *Reader) Verify() error {
	w := r.width
	size := len(r.data)

	if err := r.expectSentinel(2 + 3*w); err != nil {
		return errors.Wrap(err, "header")
	}

	// property tables
	pos := r.nodeOff + r.nnum*(1+w)
	for id := 1; id <= r.nnum; id++ {
		typ := r.NodeType(id)
		if !typ.IsNode() {
			return errors.Wrapf(ErrBadLayout, "node %d has type %s", id, typ)
		}

		ptr := r.table(id)
		if ptr != pos {
			return errors.Wrapf(ErrBadLayout, "node %d table at %d, expected %d", id, ptr, pos)
		}
		if ptr+w > size {
			return ErrTruncated
		}

		fields := 1
		if typ == TypeMap {
			fields = 2
		}
		pos = ptr + w + r.uint(ptr)*fields*w
		if pos > size {
			return errors.Wrapf(ErrTruncated, "node %d table", id)
		}
	}
	if err := r.expectSentinel(pos); err != nil {
		return errors.Wrap(err, "node tables")
	}
	pos++

	// key segment
	for i, n := 0, r.NumKeys(); i < n; i++ {
		if pos+w > size {
			return ErrTruncated
		}
		pos += w + r.uint(pos)
		if pos > size {
			return ErrTruncated
		}
		if r.data[pos-1] != 0 {
			return errors.Wrapf(ErrBadLayout, "key %d is not NUL terminated", i)
		}
	}
	if err := r.expectSentinel(pos); err != nil {
		return errors.Wrap(err, "key segment")
	}
	pos++

	// value segment
	for i, n := 0, r.NumValues(); i < n; i++ {
		if pos >= size {
			return ErrTruncated
		}

		typ := Type(r.data[pos])
		pos++
		switch {
		case typ.fixedSize() > 0:
			pos += typ.fixedSize()
		case typ.IsNode():
			pos += w
		case typ == TypeString || typ == TypeBinary || typ == TypeBase64:
			if pos+w > size {
				return ErrTruncated
			}
			pos += w + r.uint(pos)
		default:
			return errors.Wrapf(ErrBadLayout, "value %d has unknown type 0x%02x", i, byte(typ))
		}
	}
	if err := r.expectSentinel(pos); err != nil {
		return errors.Wrap(err, "value segment")
	}

	if pos+1 != size {
		return errors.Wrapf(ErrBadLayout, "%d trailing bytes", size-pos-1)
	}
	return nil
}

func (r *Reader) expectSentinel(pos int) error {
	if pos >= len(r.data) {
		return ErrTruncated
	}
	if r.data[pos] != sentinel {
		return errors.Wrapf(ErrBadSentinel, "at %d", pos)
	}
	return nil
}
