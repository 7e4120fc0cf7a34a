package dton

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// ReaderOptions define reader specific options.
type ReaderOptions struct {
	// Base64Prefix is prepended to base64 encoded blobs when values are
	// materialized as JSON.
	// Default: "$B64$".
	Base64Prefix string
}

func (o *ReaderOptions) norm() *ReaderOptions {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}

	if oo.Base64Prefix == "" {
		oo.Base64Prefix = DefaultBase64Prefix
	}

	return &oo
}

// Reader is a read-only view over an encoded buffer. Lookups never copy the
// buffer and never allocate, except for returned strings and JSON values.
// The buffer must not be modified while the reader is in use. Readers are
// safe for concurrent use.
//
// Lookups for missing nodes, keys or indices and for values of a different
// type return zero results: false, TypeNone or offset 0.
type Reader struct {
	data    []byte
	width   int
	nnum    int
	nodeOff int // start of the node table

	prefix string
}

// NewReader opens a reader over data.
func NewReader(data []byte, o *ReaderOptions) (*Reader, error) {
	if len(data) < 3 {
		return nil, ErrTruncated
	}
	if data[0] != formatTag {
		return nil, ErrBadFormat
	}

	w := int(data[1])
	if w != 1 && w != 2 && w != 4 {
		return nil, ErrBadWidth
	}

	nodeOff := 3 + 3*w
	if len(data) < nodeOff {
		return nil, ErrTruncated
	}

	nnum := getUint(data, 2, w)
	if len(data) < nodeOff+nnum*(1+w) {
		return nil, ErrTruncated
	}

	return &Reader{
		data:    data,
		width:   w,
		nnum:    nnum,
		nodeOff: nodeOff,
		prefix:  o.norm().Base64Prefix,
	}, nil
}

// Data returns the underlying buffer.
func (r *Reader) Data() []byte { return r.data }

// Width returns the offset width of the buffer.
func (r *Reader) Width() int { return r.width }

// NumNodes returns the number of nodes.
func (r *Reader) NumNodes() int { return r.nnum }

// NumKeys returns the number of distinct keys.
func (r *Reader) NumKeys() int { return r.uint(2 + r.width) }

// NumValues returns the number of values.
func (r *Reader) NumValues() int { return r.uint(2 + 2*r.width) }

// NodeType returns the type of node id, or TypeNone if it does not exist.
func (r *Reader) NodeType(id int) Type {
	if !r.hasNode(id) {
		return TypeNone
	}
	return Type(r.data[r.nodeEntry(id)])
}

// NumEntries returns the number of entries of node id.
func (r *Reader) NumEntries(id int) int {
	if !r.hasNode(id) {
		return 0
	}
	_, num := r.entries(id)
	return num
}

// FieldOffset returns the value offset of the most recently added entry
// with key in map node id, or 0 if there is none.
func (r *Reader) FieldOffset(id int, key string) int {
	if r.NodeType(id) != TypeMap {
		return 0
	}

	w := r.width
	klen := len(key) + 1
	ptr, num := r.entries(id)
	for i := num - 1; i >= 0; i-- {
		slot := ptr + w + 2*w*i
		koff := r.uint(slot)
		if r.uint(koff) != klen {
			continue
		}

		start := koff + w
		if end := start + len(key); end <= len(r.data) && string(r.data[start:end]) == key {
			return r.uint(slot + w)
		}
	}
	return 0
}

// EntryOffset returns the value offset of the index-th entry of node id,
// or 0 if the index is out of range.
func (r *Reader) EntryOffset(id, index int) int {
	if !r.hasNode(id) {
		return 0
	}

	ptr, num := r.entries(id)
	if index < 0 || index >= num {
		return 0
	}

	off := index * r.width
	if Type(r.data[r.nodeEntry(id)]) == TypeMap {
		off = 2*off + r.width
	}
	return r.uint(ptr + r.width + off)
}

// EntryKey returns the key of the index-th entry of map node id.
func (r *Reader) EntryKey(id, index int) (string, bool) {
	if r.NodeType(id) != TypeMap {
		return "", false
	}

	ptr, num := r.entries(id)
	if index < 0 || index >= num {
		return "", false
	}

	p := r.keyAt(r.uint(ptr + r.width + 2*r.width*index))
	if p == nil {
		return "", false
	}
	return string(p), true
}

// Fields returns the value offsets of map node id by key. Later entries
// win over earlier ones with the same key.
func (r *Reader) Fields(id int) map[string]int {
	if r.NodeType(id) != TypeMap {
		return nil
	}

	ptr, num := r.entries(id)
	fields := make(map[string]int, num)
	for i := 0; i < num; i++ {
		slot := ptr + r.width + 2*r.width*i
		if p := r.keyAt(r.uint(slot)); p != nil {
			fields[string(p)] = r.uint(slot + r.width)
		}
	}
	return fields
}

// TypeAt returns the type tag of the value at offset off.
func (r *Reader) TypeAt(off int) Type {
	if off < 1 || off >= len(r.data) {
		return TypeNone
	}
	return Type(r.data[off])
}

// BoolAt returns the bool value at offset off.
func (r *Reader) BoolAt(off int) (bool, bool) {
	p := r.fixedAt(off, TypeBool)
	if p == nil {
		return false, false
	}
	return p[0] == 1, true
}

// U8At returns the uint8 value at offset off.
func (r *Reader) U8At(off int) (uint8, bool) {
	p := r.fixedAt(off, TypeU8)
	if p == nil {
		return 0, false
	}
	return p[0], true
}

// I16At returns the int16 value at offset off.
func (r *Reader) I16At(off int) (int16, bool) {
	p := r.fixedAt(off, TypeI16)
	if p == nil {
		return 0, false
	}
	return int16(binary.LittleEndian.Uint16(p)), true
}

// U16At returns the uint16 value at offset off.
func (r *Reader) U16At(off int) (uint16, bool) {
	p := r.fixedAt(off, TypeU16)
	if p == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint16(p), true
}

// I32At returns the int32 value at offset off.
func (r *Reader) I32At(off int) (int32, bool) {
	p := r.fixedAt(off, TypeI32)
	if p == nil {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(p)), true
}

// U32At returns the uint32 value at offset off.
func (r *Reader) U32At(off int) (uint32, bool) {
	p := r.fixedAt(off, TypeU32)
	if p == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p), true
}

// F32At returns the float32 value at offset off.
func (r *Reader) F32At(off int) (float32, bool) {
	p := r.fixedAt(off, TypeF32)
	if p == nil {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p)), true
}

// I64At returns the int64 value at offset off.
func (r *Reader) I64At(off int) (int64, bool) {
	p := r.fixedAt(off, TypeI64)
	if p == nil {
		return 0, false
	}
	return int64(binary.LittleEndian.Uint64(p)), true
}

// U64At returns the uint64 value at offset off.
func (r *Reader) U64At(off int) (uint64, bool) {
	p := r.fixedAt(off, TypeU64)
	if p == nil {
		return 0, false
	}
	return binary.LittleEndian.Uint64(p), true
}

// F64At returns the float64 value at offset off.
func (r *Reader) F64At(off int) (float64, bool) {
	p := r.fixedAt(off, TypeF64)
	if p == nil {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(p)), true
}

// StringAt returns the string value at offset off. Strings which are not
// valid UTF-8 are reported as missing.
func (r *Reader) StringAt(off int) (string, bool) {
	if r.TypeAt(off) != TypeString {
		return "", false
	}

	p := r.varAt(off)
	if len(p) == 0 || !utf8.Valid(p[:len(p)-1]) {
		return "", false
	}
	return string(p[:len(p)-1]), true
}

// BytesAt returns the binary or base64 blob at offset off. The returned
// slice points into the buffer and must not be modified.
func (r *Reader) BytesAt(off int) ([]byte, bool) {
	if t := r.TypeAt(off); t != TypeBinary && t != TypeBase64 {
		return nil, false
	}

	p := r.varAt(off)
	if p == nil {
		return nil, false
	}
	return p, true
}

// NodeIDAt returns the id of the node referenced at offset off.
func (r *Reader) NodeIDAt(off int) (int, bool) {
	if !r.TypeAt(off).IsNode() {
		return 0, false
	}
	return r.uint(off + 1), true
}

// --------------------------------------------------------------------

// Bool returns the bool stored under key in map node id.
func (r *Reader) Bool(id int, key string) (bool, bool) { return r.BoolAt(r.FieldOffset(id, key)) }

// U8 returns the uint8 stored under key in map node id.
func (r *Reader) U8(id int, key string) (uint8, bool) { return r.U8At(r.FieldOffset(id, key)) }

// I16 returns the int16 stored under key in map node id.
func (r *Reader) I16(id int, key string) (int16, bool) { return r.I16At(r.FieldOffset(id, key)) }

// U16 returns the uint16 stored under key in map node id.
func (r *Reader) U16(id int, key string) (uint16, bool) { return r.U16At(r.FieldOffset(id, key)) }

// I32 returns the int32 stored under key in map node id.
func (r *Reader) I32(id int, key string) (int32, bool) { return r.I32At(r.FieldOffset(id, key)) }

// U32 returns the uint32 stored under key in map node id.
func (r *Reader) U32(id int, key string) (uint32, bool) { return r.U32At(r.FieldOffset(id, key)) }

// F32 returns the float32 stored under key in map node id.
func (r *Reader) F32(id int, key string) (float32, bool) { return r.F32At(r.FieldOffset(id, key)) }

// I64 returns the int64 stored under key in map node id.
func (r *Reader) I64(id int, key string) (int64, bool) { return r.I64At(r.FieldOffset(id, key)) }

// U64 returns the uint64 stored under key in map node id.
func (r *Reader) U64(id int, key string) (uint64, bool) { return r.U64At(r.FieldOffset(id, key)) }

// F64 returns the float64 stored under key in map node id.
func (r *Reader) F64(id int, key string) (float64, bool) { return r.F64At(r.FieldOffset(id, key)) }

// String returns the string stored under key in map node id.
func (r *Reader) String(id int, key string) (string, bool) {
	return r.StringAt(r.FieldOffset(id, key))
}

// Bytes returns the blob stored under key in map node id.
func (r *Reader) Bytes(id int, key string) ([]byte, bool) {
	return r.BytesAt(r.FieldOffset(id, key))
}

// NodeID returns the id of the node referenced under key in map node id.
func (r *Reader) NodeID(id int, key string) (int, bool) {
	return r.NodeIDAt(r.FieldOffset(id, key))
}

// BoolByIndex returns the index-th entry of node id as a bool.
func (r *Reader) BoolByIndex(id, index int) (bool, bool) { return r.BoolAt(r.EntryOffset(id, index)) }

// U8ByIndex returns the index-th entry of node id as an uint8.
func (r *Reader) U8ByIndex(id, index int) (uint8, bool) { return r.U8At(r.EntryOffset(id, index)) }

// I16ByIndex returns the index-th entry of node id as an int16.
func (r *Reader) I16ByIndex(id, index int) (int16, bool) { return r.I16At(r.EntryOffset(id, index)) }

// U16ByIndex returns the index-th entry of node id as an uint16.
func (r *Reader) U16ByIndex(id, index int) (uint16, bool) { return r.U16At(r.EntryOffset(id, index)) }

// I32ByIndex returns the index-th entry of node id as an int32.
func (r *Reader) I32ByIndex(id, index int) (int32, bool) { return r.I32At(r.EntryOffset(id, index)) }

// U32ByIndex returns the index-th entry of node id as an uint32.
func (r *Reader) U32ByIndex(id, index int) (uint32, bool) { return r.U32At(r.EntryOffset(id, index)) }

// F32ByIndex returns the index-th entry of node id as a float32.
func (r *Reader) F32ByIndex(id, index int) (float32, bool) { return r.F32At(r.EntryOffset(id, index)) }

// I64ByIndex returns the index-th entry of node id as an int64.
func (r *Reader) I64ByIndex(id, index int) (int64, bool) { return r.I64At(r.EntryOffset(id, index)) }

// U64ByIndex returns the index-th entry of node id as an uint64.
func (r *Reader) U64ByIndex(id, index int) (uint64, bool) { return r.U64At(r.EntryOffset(id, index)) }

// F64ByIndex returns the index-th entry of node id as a float64.
func (r *Reader) F64ByIndex(id, index int) (float64, bool) { return r.F64At(r.EntryOffset(id, index)) }

// StringByIndex returns the index-th entry of node id as a string.
func (r *Reader) StringByIndex(id, index int) (string, bool) {
	return r.StringAt(r.EntryOffset(id, index))
}

// BytesByIndex returns the index-th entry of node id as a blob.
func (r *Reader) BytesByIndex(id, index int) ([]byte, bool) {
	return r.BytesAt(r.EntryOffset(id, index))
}

// NodeIDByIndex returns the id of the node referenced by the index-th entry
// of node id.
func (r *Reader) NodeIDByIndex(id, index int) (int, bool) {
	return r.NodeIDAt(r.EntryOffset(id, index))
}

// --------------------------------------------------------------------

func (r *Reader) uint(off int) int { return getUint(r.data, off, r.width) }

func (r *Reader) hasNode(id int) bool { return id > 0 && id <= r.nnum }

// nodeEntry returns the node table offset of node id.
func (r *Reader) nodeEntry(id int) int { return r.nodeOff + (id-1)*(1+r.width) }

// table returns the property table offset of node id.
func (r *Reader) table(id int) int { return r.uint(r.nodeEntry(id) + 1) }

// entries returns the property table offset and entry count of node id.
// The count is capped to the number of entries the buffer can hold.
func (r *Reader) entries(id int) (ptr, num int) {
	ptr = r.table(id)
	num = r.uint(ptr)

	size := r.width
	if Type(r.data[r.nodeEntry(id)]) == TypeMap {
		size *= 2
	}
	if limit := (len(r.data) - ptr - r.width) / size; num > limit {
		num = limit
	}
	if num < 0 {
		num = 0
	}
	return ptr, num
}

// keyAt returns the text of the key at offset off.
func (r *Reader) keyAt(off int) []byte {
	klen := r.uint(off)
	start := off + r.width
	if klen < 1 || start+klen-1 > len(r.data) {
		return nil
	}
	return r.data[start : start+klen-1]
}

// fixedAt returns the payload of a fixed-width value of type t at off.
func (r *Reader) fixedAt(off int, t Type) []byte {
	if r.TypeAt(off) != t {
		return nil
	}

	start := off + 1
	end := start + t.fixedSize()
	if end > len(r.data) {
		return nil
	}
	return r.data[start:end]
}

// varAt returns the payload of a length-prefixed value at off.
func (r *Reader) varAt(off int) []byte {
	n := r.uint(off + 1)
	start := off + 1 + r.width
	if start+n > len(r.data) {
		return nil
	}
	return r.data[start : start+n]
}
