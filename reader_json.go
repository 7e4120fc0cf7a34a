package dton

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/valyala/fastjson"
)

// ToJSON materializes node id and its subtree. It returns nil if the node
// does not exist. Values with unknown type tags are skipped. A node which
// references one of its own ancestors is materialized as null.
func (r *Reader) ToJSON(id int) *fastjson.Value {
	if !r.hasNode(id) {
		return nil
	}

	m := materializer{r: r, a: new(fastjson.Arena)}
	return m.node(id)
}

// ValueJSON materializes the value at offset off, following node references.
// It returns nil for unknown or missing values.
func (r *Reader) ValueJSON(off int) *fastjson.Value {
	m := materializer{r: r, a: new(fastjson.Arena)}
	return m.value(off)
}

// AppendJSON appends the compact JSON text of node id to dst.
func (r *Reader) AppendJSON(dst []byte, id int) []byte {
	if v := r.ToJSON(id); v != nil {
		return v.MarshalTo(dst)
	}
	return dst
}

// --------------------------------------------------------------------

type materializer struct {
	r *Reader
	a *fastjson.Arena

	stack []int // node ids being materialized
}

func (m *materializer) node(id int) *fastjson.Value {
	for _, sid := range m.stack {
		if sid == id {
			return m.a.NewNull()
		}
	}
	m.stack = append(m.stack, id)
	defer func() { m.stack = m.stack[:len(m.stack)-1] }()

	r := m.r
	num := r.NumEntries(id)

	switch r.NodeType(id) {
	case TypeMap:
		obj := m.a.NewObject()
		for i := 0; i < num; i++ {
			key, ok := r.EntryKey(id, i)
			if !ok {
				continue
			}
			if v := m.value(r.EntryOffset(id, i)); v != nil {
				obj.Set(key, v)
			}
		}
		return obj
	case TypeArray:
		arr := m.a.NewArray()
		n := 0
		for i := 0; i < num; i++ {
			if v := m.value(r.EntryOffset(id, i)); v != nil {
				arr.SetArrayItem(n, v)
				n++
			}
		}
		return arr
	}
	return nil
}

func (m *materializer) value(off int) *fastjson.Value {
	r := m.r

	switch r.TypeAt(off) {
	case TypeBool:
		if v, _ := r.BoolAt(off); v {
			return m.a.NewTrue()
		}
		return m.a.NewFalse()
	case TypeU8:
		v, _ := r.U8At(off)
		return m.a.NewNumberString(strconv.FormatUint(uint64(v), 10))
	case TypeI16:
		v, _ := r.I16At(off)
		return m.a.NewNumberString(strconv.FormatInt(int64(v), 10))
	case TypeU16:
		v, _ := r.U16At(off)
		return m.a.NewNumberString(strconv.FormatUint(uint64(v), 10))
	case TypeI32:
		v, _ := r.I32At(off)
		return m.a.NewNumberString(strconv.FormatInt(int64(v), 10))
	case TypeU32:
		v, _ := r.U32At(off)
		return m.a.NewNumberString(strconv.FormatUint(uint64(v), 10))
	case TypeI64:
		v, _ := r.I64At(off)
		return m.a.NewNumberString(strconv.FormatInt(v, 10))
	case TypeU64:
		v, _ := r.U64At(off)
		return m.a.NewNumberString(strconv.FormatUint(v, 10))
	case TypeF32:
		v, _ := r.F32At(off)
		return m.float(float64(v), 32)
	case TypeF64:
		v, _ := r.F64At(off)
		return m.float(v, 64)
	case TypeString:
		if v, ok := r.StringAt(off); ok {
			return m.a.NewString(v)
		}
	case TypeBinary, TypeBase64:
		if p, ok := r.BytesAt(off); ok {
			return m.a.NewString(r.prefix + base64.StdEncoding.EncodeToString(p))
		}
	case TypeMap, TypeArray:
		if id, ok := r.NodeIDAt(off); ok {
			return m.node(id)
		}
	}
	return nil
}

// float formats f, JSON has no representation for NaN and infinities.
func (m *materializer) float(f float64, bits int) *fastjson.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return m.a.NewNull()
	}
	return m.a.NewNumberString(strconv.FormatFloat(f, 'g', -1, bits))
}
