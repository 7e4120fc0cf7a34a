package dton

import (
	"encoding/base64"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// value is a datum staged for the value segment.
type value struct {
	typ    Type
	size   int  // payload size in bytes, strings include the NUL
	hasLen bool // true if a length/node id field precedes the payload

	bits uint64 // fixed-width payload
	text string // string payload
	data []byte // blob payload
	oid  int    // referenced node id
}

func fixedValue(t Type, bits uint64) value {
	return value{typ: t, size: t.fixedSize(), bits: bits}
}

func boolValue(v bool) value {
	if v {
		return fixedValue(TypeBool, 1)
	}
	return fixedValue(TypeBool, 0)
}

func u8Value(v uint8) value    { return fixedValue(TypeU8, uint64(v)) }
func i16Value(v int16) value   { return fixedValue(TypeI16, uint64(uint16(v))) }
func u16Value(v uint16) value  { return fixedValue(TypeU16, uint64(v)) }
func i32Value(v int32) value   { return fixedValue(TypeI32, uint64(uint32(v))) }
func u32Value(v uint32) value  { return fixedValue(TypeU32, uint64(v)) }
func f32Value(v float32) value { return fixedValue(TypeF32, uint64(math.Float32bits(v))) }
func i64Value(v int64) value   { return fixedValue(TypeI64, uint64(v)) }
func u64Value(v uint64) value  { return fixedValue(TypeU64, v) }
func f64Value(v float64) value { return fixedValue(TypeF64, math.Float64bits(v)) }

func stringValue(s string) value {
	return value{typ: TypeString, size: len(s) + 1, hasLen: true, text: s}
}

func binaryValue(p []byte) value {
	return value{typ: TypeBinary, size: len(p), hasLen: true, data: p}
}

// base64Value decodes text, with an optional marker prefix, into a blob.
func base64Value(text, prefix string) (value, error) {
	p, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, prefix))
	if err != nil {
		return value{}, errors.Wrapf(ErrInvalidBase64, "%v", err)
	}
	return value{typ: TypeBase64, size: len(p), hasLen: true, data: p}, nil
}

func nodeValue(n *node) value {
	return value{typ: n.typ, hasLen: true, oid: n.id}
}

// lenField returns the content of the value's length field.
func (v *value) lenField() int {
	if v.typ.IsNode() {
		return v.oid
	}
	return v.size
}
