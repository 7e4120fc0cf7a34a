package dton

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/valyala/fastjson"
)

// Pair holds a base buffer and an optional update buffer.
type Pair struct {
	Raw    Buffer
	Update Buffer
}

// NewPair returns a Pair.
func NewPair(raw, update Buffer) Pair {
	return Pair{Raw: raw, Update: update}
}

// Dton reads the root map of a base buffer, optionally patched by an update
// buffer. Lookups try the update first and fall back to the base. Dton never
// modifies either buffer, both must outlive it.
type Dton struct {
	base   *Reader
	update *Reader
	o      *ReaderOptions
}

// NewDton opens a façade over a single buffer. An empty buffer yields a
// façade without layers, on which all lookups fail.
func NewDton(buf Buffer, o *ReaderOptions) (*Dton, error) {
	d := &Dton{o: o.norm()}
	if buf.IsEmpty() {
		return d, nil
	}

	base, err := NewReader(buf, d.o)
	if err != nil {
		return nil, err
	}
	d.base = base
	return d, nil
}

// NewDtonFromPair opens a façade over a pair. The update buffer is ignored
// if the base buffer is empty.
func NewDtonFromPair(p Pair, o *ReaderOptions) (*Dton, error) {
	d, err := NewDton(p.Raw, o)
	if err != nil || d.base == nil || p.Update.IsEmpty() {
		return d, err
	}

	if err := d.Update(p.Update); err != nil {
		return nil, err
	}
	return d, nil
}

// Base returns the base layer reader, or nil.
func (d *Dton) Base() *Reader { return d.base }

// Updates returns the update layer reader, or nil.
func (d *Dton) Updates() *Reader { return d.update }

// Update replaces the update layer. An empty buffer removes it.
func (d *Dton) Update(buf Buffer) error {
	if buf.IsEmpty() {
		d.update = nil
		return nil
	}

	rd, err := NewReader(buf, d.o)
	if err != nil {
		return err
	}
	d.update = rd
	return nil
}

// UpdateFrom promotes the base layer of other to the update layer of d.
// It does nothing unless both façades have a base layer.
func (d *Dton) UpdateFrom(other *Dton) {
	if d.base != nil && other.base != nil {
		d.update = other.base
	}
}

// Clone returns a copy of the façade, sharing the underlying buffers.
func (d *Dton) Clone() *Dton {
	c := *d
	return &c
}

// --------------------------------------------------------------------

// FieldOffset returns the layer holding key and the value's offset within
// it, or (nil, 0).
func (d *Dton) FieldOffset(key string) (*Reader, int) {
	for _, rd := range d.layers() {
		if off := rd.FieldOffset(rootID, key); off != 0 {
			return rd, off
		}
	}
	return nil, 0
}

// Get materializes the value stored under key, or returns nil.
func (d *Dton) Get(key string) *fastjson.Value {
	if rd, off := d.FieldOffset(key); rd != nil {
		return rd.ValueJSON(off)
	}
	return nil
}

// Bool returns the bool stored under key.
func (d *Dton) Bool(key string) (bool, bool) {
	return lookup(d, func(r *Reader) (bool, bool) { return r.Bool(rootID, key) })
}

// U8 returns the uint8 stored under key.
func (d *Dton) U8(key string) (uint8, bool) {
	return lookup(d, func(r *Reader) (uint8, bool) { return r.U8(rootID, key) })
}

// I16 returns the int16 stored under key.
func (d *Dton) I16(key string) (int16, bool) {
	return lookup(d, func(r *Reader) (int16, bool) { return r.I16(rootID, key) })
}

// U16 returns the uint16 stored under key.
func (d *Dton) U16(key string) (uint16, bool) {
	return lookup(d, func(r *Reader) (uint16, bool) { return r.U16(rootID, key) })
}

// I32 returns the int32 stored under key.
func (d *Dton) I32(key string) (int32, bool) {
	return lookup(d, func(r *Reader) (int32, bool) { return r.I32(rootID, key) })
}

// U32 returns the uint32 stored under key.
func (d *Dton) U32(key string) (uint32, bool) {
	return lookup(d, func(r *Reader) (uint32, bool) { return r.U32(rootID, key) })
}

// F32 returns the float32 stored under key.
func (d *Dton) F32(key string) (float32, bool) {
	return lookup(d, func(r *Reader) (float32, bool) { return r.F32(rootID, key) })
}

// I64 returns the int64 stored under key.
func (d *Dton) I64(key string) (int64, bool) {
	return lookup(d, func(r *Reader) (int64, bool) { return r.I64(rootID, key) })
}

// U64 returns the uint64 stored under key.
func (d *Dton) U64(key string) (uint64, bool) {
	return lookup(d, func(r *Reader) (uint64, bool) { return r.U64(rootID, key) })
}

// F64 returns the float64 stored under key.
func (d *Dton) F64(key string) (float64, bool) {
	return lookup(d, func(r *Reader) (float64, bool) { return r.F64(rootID, key) })
}

// String returns the string stored under key.
func (d *Dton) String(key string) (string, bool) {
	return lookup(d, func(r *Reader) (string, bool) { return r.String(rootID, key) })
}

// Bytes returns the blob stored under key.
func (d *Dton) Bytes(key string) ([]byte, bool) {
	return lookup(d, func(r *Reader) ([]byte, bool) { return r.Bytes(rootID, key) })
}

func lookup[T any](d *Dton, get func(*Reader) (T, bool)) (T, bool) {
	for _, rd := range d.layers() {
		if v, ok := get(rd); ok {
			return v, true
		}
	}

	var zero T
	return zero, false
}

// layers returns the readers in lookup order.
func (d *Dton) layers() []*Reader {
	switch {
	case d.update != nil && d.base != nil:
		return []*Reader{d.update, d.base}
	case d.update != nil:
		return []*Reader{d.update}
	case d.base != nil:
		return []*Reader{d.base}
	}
	return nil
}

// --------------------------------------------------------------------

// JSON materializes the root node of both layers and merges the top-level
// keys of the update into the base. Nested values are replaced, not merged.
// It returns nil if there are no layers.
func (d *Dton) JSON() *fastjson.Value {
	var base, update *fastjson.Value
	if d.base != nil {
		base = d.base.ToJSON(rootID)
	}
	if d.update != nil {
		update = d.update.ToJSON(rootID)
	}
	return overlay(base, update)
}

// Stringify returns the merged JSON as compact text, regardless of the
// number of layers. Use Pretty for indented output.
func (d *Dton) Stringify() (string, bool) {
	v := d.JSON()
	if v == nil {
		return "", false
	}
	return string(v.MarshalTo(nil)), true
}

// Pretty returns the merged JSON as indented text.
func (d *Dton) Pretty(indent string) (string, bool) {
	v := d.JSON()
	if v == nil {
		return "", false
	}

	out := pretty.PrettyOptions(v.MarshalTo(nil), &pretty.Options{
		Width:  80,
		Indent: indent,
	})
	return string(out), true
}

// Query runs a gjson path query against the merged JSON.
func (d *Dton) Query(path string) gjson.Result {
	s, ok := d.Stringify()
	if !ok {
		return gjson.Result{}
	}
	return gjson.Get(s, path)
}

// Combine merges two unrelated façades by parsing the JSON text of each and
// overlaying the top-level keys of other onto d. It returns nil if neither
// façade has data.
func (d *Dton) Combine(other *Dton) *fastjson.Value {
	var p1, p2 fastjson.Parser
	var v1, v2 *fastjson.Value

	if s, ok := d.Stringify(); ok {
		v1, _ = p1.Parse(s)
	}
	if s, ok := other.Stringify(); ok {
		v2, _ = p2.Parse(s)
	}
	return overlay(v1, v2)
}

// overlay sets the top-level keys of update on base. If either is not an
// object, update replaces base.
func overlay(base, update *fastjson.Value) *fastjson.Value {
	if base == nil {
		return update
	}
	if update == nil {
		return base
	}

	uo, err := update.Object()
	if err != nil || base.Type() != fastjson.TypeObject {
		return update
	}

	uo.Visit(func(k []byte, v *fastjson.Value) {
		base.Set(string(k), v)
	})
	return base
}
