package dton

import (
	"github.com/cockroachdb/errors"
)

const (
	formatTag byte = 0x01
	sentinel  byte = 0x77
	rootID         = 1

	// DefaultBase64Prefix marks JSON strings which carry base64 encoded
	// binary data.
	DefaultBase64Prefix = "$B64$"
)

var (
	// ErrInvalidUTF8 is returned when a staged key or string is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("dton: invalid UTF-8")
	// ErrInvalidBase64 is returned when a base64 tagged string cannot be decoded.
	ErrInvalidBase64 = errors.New("dton: invalid base64 payload")
	// ErrBadNode is returned in strict mode when a node id does not exist
	// or has the wrong type for the operation.
	ErrBadNode = errors.New("dton: bad node")
	// ErrBadNodeType is returned when a node is created with a non-node type.
	ErrBadNodeType = errors.New("dton: bad node type")
	// ErrTooLarge is returned when a buffer cannot be addressed with 4-byte offsets.
	ErrTooLarge = errors.New("dton: buffer too large")
	// ErrNotObject is returned when a flat map is built from a non-object JSON value.
	ErrNotObject = errors.New("dton: not a JSON object")

	// ErrBadFormat is returned by the reader when the format tag is unknown.
	ErrBadFormat = errors.New("dton: bad format tag")
	// ErrBadWidth is returned by the reader when the offset width is not 1, 2 or 4.
	ErrBadWidth = errors.New("dton: bad offset width")
	// ErrTruncated is returned when a buffer ends before its structures do.
	ErrTruncated = errors.New("dton: truncated buffer")
	// ErrBadSentinel is returned by Verify when a section marker is missing.
	ErrBadSentinel = errors.New("dton: bad sentinel")
	// ErrBadLayout is returned by Verify when tables are not laid out contiguously.
	ErrBadLayout = errors.New("dton: bad layout")
)

// --------------------------------------------------------------------

// Type is a node or value type tag.
type Type byte

// Supported type tags.
const (
	TypeNone   Type = 0x00
	TypeMap    Type = 0x01
	TypeArray  Type = 0x02
	TypeBool   Type = 0x11
	TypeU8     Type = 0x12
	TypeI16    Type = 0x13
	TypeU16    Type = 0x14
	TypeI32    Type = 0x15
	TypeU32    Type = 0x16
	TypeF32    Type = 0x17
	TypeI64    Type = 0x18
	TypeU64    Type = 0x19
	TypeF64    Type = 0x1a
	TypeString Type = 0x21
	TypeBinary Type = 0x22
	TypeBase64 Type = 0xB2
)

// IsNode returns true for map and array types.
func (t Type) IsNode() bool { return t == TypeMap || t == TypeArray }

// fixedSize returns the payload size of fixed-width types, or -1.
func (t Type) fixedSize() int {
	switch t {
	case TypeBool, TypeU8:
		return 1
	case TypeI16, TypeU16:
		return 2
	case TypeI32, TypeU32, TypeF32:
		return 4
	case TypeI64, TypeU64, TypeF64:
		return 8
	}
	return -1
}

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeMap:
		return "map"
	case TypeArray:
		return "array"
	case TypeBool:
		return "bool"
	case TypeU8:
		return "u8"
	case TypeI16:
		return "i16"
	case TypeU16:
		return "u16"
	case TypeI32:
		return "i32"
	case TypeU32:
		return "u32"
	case TypeF32:
		return "f32"
	case TypeI64:
		return "i64"
	case TypeU64:
		return "u64"
	case TypeF64:
		return "f64"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeBase64:
		return "base64"
	}
	return "unknown"
}

// --------------------------------------------------------------------

// Buffer is an encoded, immutable SmDton buffer.
type Buffer []byte

// IsEmpty returns true if the buffer holds no data.
func (b Buffer) IsEmpty() bool { return len(b) == 0 }

// Stringify materializes the buffer as compact JSON text. It returns false
// if the buffer is empty, invalid or has no root node.
func (b Buffer) Stringify() (string, bool) {
	d, err := NewDton(b, nil)
	if err != nil {
		return "", false
	}
	return d.Stringify()
}
