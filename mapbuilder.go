package dton

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"
)

// MapBuilder builds buffers holding a single flat map. It is a reduced
// Builder for data without nesting. Keys are stored once per entry and
// are not deduplicated.
type MapBuilder struct {
	o    *BuilderOptions
	segs segments
	err  error
}

// NewMapBuilder returns an empty MapBuilder.
func NewMapBuilder(o *BuilderOptions) *MapBuilder {
	m := &MapBuilder{o: o.norm()}
	m.segs.init(m.o.SizeHint)
	return m
}

// Len returns the number of staged entries.
func (m *MapBuilder) Len() int { return len(m.segs.values) }

// Err returns the first error encountered while staging, if any.
func (m *MapBuilder) Err() error { return m.err }

// AddJSON parses a JSON object and stages its scalar fields. Nulls, nested
// objects and arrays are skipped.
func (m *MapBuilder) AddJSON(data []byte) error {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return errors.Wrap(err, "dton: parse JSON")
	}

	obj, err := v.Object()
	if err != nil {
		return errors.Wrapf(ErrNotObject, "%s", v.Type())
	}

	obj.Visit(func(k []byte, cv *fastjson.Value) {
		key := string(k)
		switch cv.Type() {
		case fastjson.TypeTrue:
			m.AddBool(key, true)
		case fastjson.TypeFalse:
			m.AddBool(key, false)
		case fastjson.TypeNumber:
			m.add(key, numberValue(cv.String()))
		case fastjson.TypeString:
			s := string(cv.GetStringBytes())
			if strings.HasPrefix(s, m.o.Base64Prefix) {
				m.AddBase64(key, s)
			} else {
				m.AddString(key, s)
			}
		}
	})
	return m.err
}

// Build encodes the map as node 1 of a new buffer.
func (m *MapBuilder) Build() (Buffer, error) {
	if m.err != nil {
		return nil, m.err
	}

	knum := len(m.segs.keys)
	vnum := len(m.segs.values)
	tslots := 1 + knum + vnum

	// header tag/width, four sentinels and the node type byte
	fixed := 7 + m.segs.fixedBytes()
	// header counts, node pointer, property table, segment fields
	slots := 4 + tslots + m.segs.slots()

	oz := pickWidth(fixed, slots)
	w, err := newWriter(fixed+oz*slots, oz)
	if err != nil {
		return nil, err
	}

	w.putUint(1)
	w.putUint(knum)
	w.putUint(vnum)
	w.putU8(sentinel)

	w.putU8(byte(TypeMap))
	w.putUint(4 + 4*oz)

	kseg := 5 + (4+tslots)*oz
	vseg := kseg + knum*oz + m.segs.kdata + 1
	koffs := w.keyOffsets(kseg, m.segs.keys)
	voffs := w.valueOffsets(vseg, m.segs.values)

	w.putUint(vnum)
	for i := range voffs {
		w.putUint(koffs[i])
		w.putUint(voffs[i])
	}
	w.putU8(sentinel)

	w.writeSegments(&m.segs)
	return w.finish()
}

func (m *MapBuilder) add(key string, v value) {
	if m.err != nil {
		return
	}
	if _, err := m.segs.appendKey(key); err != nil {
		m.err = err
		return
	}
	if _, err := m.segs.appendValue(v); err != nil {
		m.err = err
	}
}

// AddBool adds a bool under key.
func (m *MapBuilder) AddBool(key string, v bool) { m.add(key, boolValue(v)) }

// AddU8 adds an uint8 under key.
func (m *MapBuilder) AddU8(key string, v uint8) { m.add(key, u8Value(v)) }

// AddI16 adds an int16 under key.
func (m *MapBuilder) AddI16(key string, v int16) { m.add(key, i16Value(v)) }

// AddU16 adds an uint16 under key.
func (m *MapBuilder) AddU16(key string, v uint16) { m.add(key, u16Value(v)) }

// AddI32 adds an int32 under key.
func (m *MapBuilder) AddI32(key string, v int32) { m.add(key, i32Value(v)) }

// AddU32 adds an uint32 under key.
func (m *MapBuilder) AddU32(key string, v uint32) { m.add(key, u32Value(v)) }

// AddF32 adds a float32 under key.
func (m *MapBuilder) AddF32(key string, v float32) { m.add(key, f32Value(v)) }

// AddI64 adds an int64 under key.
func (m *MapBuilder) AddI64(key string, v int64) { m.add(key, i64Value(v)) }

// AddU64 adds an uint64 under key.
func (m *MapBuilder) AddU64(key string, v uint64) { m.add(key, u64Value(v)) }

// AddF64 adds a float64 under key.
func (m *MapBuilder) AddF64(key string, v float64) { m.add(key, f64Value(v)) }

// AddString adds a string under key.
func (m *MapBuilder) AddString(key string, v string) { m.add(key, stringValue(v)) }

// AddBinary adds a binary blob under key.
func (m *MapBuilder) AddBinary(key string, v []byte) { m.add(key, binaryValue(v)) }

// AddBase64 decodes base64 text, optionally starting with the configured
// prefix, and adds it as a blob under key.
func (m *MapBuilder) AddBase64(key string, text string) {
	if m.err != nil {
		return
	}
	v, err := base64Value(text, m.o.Base64Prefix)
	if err != nil {
		m.err = err
		return
	}
	m.add(key, v)
}
