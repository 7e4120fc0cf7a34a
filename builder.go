package dton

import (
	"github.com/cockroachdb/errors"
)

// Builder stages a tree of map and array nodes and encodes it into a Buffer.
//
// Node ids are assigned in creation order, starting at 1. Operations on node
// ids which do not exist, or which have the wrong type, are ignored unless
// BuilderOptions.Strict is set. Data errors, such as invalid UTF-8, are sticky:
// subsequent calls are ignored and Build returns the first error.
//
// Strings and blobs are referenced, not copied, until Build is called.
type Builder struct {
	o *BuilderOptions

	nodes []*node
	segs  segments
	kmap  map[string]int // key dedup index

	err error
}

// NewBuilder returns an empty Builder.
func NewBuilder(o *BuilderOptions) *Builder {
	b := &Builder{
		o:     o.norm(),
		nodes: make([]*node, 0, 8),
	}
	b.segs.init(b.o.SizeHint)
	b.kmap = make(map[string]int, b.o.SizeHint)
	return b
}

// NewBuilderFromJSON parses data and stages its contents. Objects and arrays
// become nodes, the outermost one with id 1.
func NewBuilderFromJSON(data []byte, o *BuilderOptions) (*Builder, error) {
	b := NewBuilder(o)
	if err := b.AddJSON(0, "", data); err != nil {
		return nil, err
	}
	return b, nil
}

// NumNodes returns the number of staged nodes.
func (b *Builder) NumNodes() int { return len(b.nodes) }

// Err returns the first error encountered while staging, if any.
func (b *Builder) Err() error { return b.err }

// CreateNode creates a new, detached node of type TypeMap or TypeArray and
// returns its id. It returns 0 for any other type.
func (b *Builder) CreateNode(t Type) int {
	if !t.IsNode() {
		b.fail(errors.Wrapf(ErrBadNodeType, "%s", t))
		return 0
	}

	id := len(b.nodes) + 1
	b.nodes = append(b.nodes, newNode(t, id))
	return id
}

// Build encodes all staged nodes.
func (b *Builder) Build() (Buffer, error) {
	if b.err != nil {
		return nil, b.err
	}

	nnum := len(b.nodes)
	knum := len(b.segs.keys)
	vnum := len(b.segs.values)

	tslots := 0
	for _, n := range b.nodes {
		tslots += n.slots()
	}

	// header tag/width and four sentinels, node type bytes, segment data
	fixed := 6 + nnum + b.segs.fixedBytes()
	// header counts, node pointers, property tables, segment fields
	slots := 3 + nnum + tslots + b.segs.slots()

	oz := pickWidth(fixed, slots)
	w, err := newWriter(fixed+oz*slots, oz)
	if err != nil {
		return nil, err
	}

	// header
	w.putUint(nnum)
	w.putUint(knum)
	w.putUint(vnum)
	w.putU8(sentinel)

	// node table
	poff := 3 + nnum + (3+nnum)*oz
	for _, n := range b.nodes {
		w.putU8(byte(n.typ))
		w.putUint(poff)
		poff += n.slots() * oz
	}

	// property tables
	kseg := 3 + nnum + (3+nnum+tslots)*oz + 1
	vseg := kseg + knum*oz + b.segs.kdata + 1
	koffs := w.keyOffsets(kseg, b.segs.keys)
	voffs := w.valueOffsets(vseg, b.segs.values)

	for _, n := range b.nodes {
		w.putUint(len(n.values))
		for i, vi := range n.values {
			if n.typ == TypeMap {
				w.putUint(koffs[n.keys[i]])
			}
			w.putUint(voffs[vi])
		}
	}
	w.putU8(sentinel)

	w.writeSegments(&b.segs)
	return w.finish()
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// lookup returns node oid if it exists and has type t.
func (b *Builder) lookup(oid int, t Type) *node {
	if oid < 1 || oid > len(b.nodes) {
		if b.o.Strict {
			b.fail(errors.Wrapf(ErrBadNode, "node %d does not exist", oid))
		}
		return nil
	}

	n := b.nodes[oid-1]
	if n.typ != t {
		if b.o.Strict {
			b.fail(errors.Wrapf(ErrBadNode, "node %d is a %s, not a %s", oid, n.typ, t))
		}
		return nil
	}
	return n
}

func (b *Builder) addKey(key string) (int, error) {
	if ix, ok := b.kmap[key]; ok {
		return ix, nil
	}

	ix, err := b.segs.appendKey(key)
	if err != nil {
		return 0, err
	}
	b.kmap[key] = ix
	return ix, nil
}

func (b *Builder) add(oid int, key string, v value) {
	if b.err != nil {
		return
	}

	n := b.lookup(oid, TypeMap)
	if n == nil {
		return
	}

	kix, err := b.addKey(key)
	if err != nil {
		b.fail(err)
		return
	}
	vix, err := b.segs.appendValue(v)
	if err != nil {
		b.fail(err)
		return
	}

	n.keys = append(n.keys, kix)
	n.values = append(n.values, vix)
}

func (b *Builder) push(oid int, v value) {
	if b.err != nil {
		return
	}

	n := b.lookup(oid, TypeArray)
	if n == nil {
		return
	}

	vix, err := b.segs.appendValue(v)
	if err != nil {
		b.fail(err)
		return
	}
	n.values = append(n.values, vix)
}

// child returns node id as the target of a node reference.
func (b *Builder) child(id int) *node {
	if id < 1 || id > len(b.nodes) {
		if b.o.Strict {
			b.fail(errors.Wrapf(ErrBadNode, "node %d does not exist", id))
		}
		return nil
	}
	return b.nodes[id-1]
}

// --------------------------------------------------------------------

// AddBool adds a bool under key to map node oid.
func (b *Builder) AddBool(oid int, key string, v bool) { b.add(oid, key, boolValue(v)) }

// AddU8 adds an uint8 under key to map node oid.
func (b *Builder) AddU8(oid int, key string, v uint8) { b.add(oid, key, u8Value(v)) }

// AddI16 adds an int16 under key to map node oid.
func (b *Builder) AddI16(oid int, key string, v int16) { b.add(oid, key, i16Value(v)) }

// AddU16 adds an uint16 under key to map node oid.
func (b *Builder) AddU16(oid int, key string, v uint16) { b.add(oid, key, u16Value(v)) }

// AddI32 adds an int32 under key to map node oid.
func (b *Builder) AddI32(oid int, key string, v int32) { b.add(oid, key, i32Value(v)) }

// AddU32 adds an uint32 under key to map node oid.
func (b *Builder) AddU32(oid int, key string, v uint32) { b.add(oid, key, u32Value(v)) }

// AddF32 adds a float32 under key to map node oid.
func (b *Builder) AddF32(oid int, key string, v float32) { b.add(oid, key, f32Value(v)) }

// AddI64 adds an int64 under key to map node oid.
func (b *Builder) AddI64(oid int, key string, v int64) { b.add(oid, key, i64Value(v)) }

// AddU64 adds an uint64 under key to map node oid.
func (b *Builder) AddU64(oid int, key string, v uint64) { b.add(oid, key, u64Value(v)) }

// AddF64 adds a float64 under key to map node oid.
func (b *Builder) AddF64(oid int, key string, v float64) { b.add(oid, key, f64Value(v)) }

// AddString adds a string under key to map node oid.
func (b *Builder) AddString(oid int, key string, v string) { b.add(oid, key, stringValue(v)) }

// AddBinary adds a binary blob under key to map node oid.
func (b *Builder) AddBinary(oid int, key string, v []byte) { b.add(oid, key, binaryValue(v)) }

// AddBase64 decodes base64 text, optionally starting with the configured
// prefix, and adds it as a blob under key to map node oid.
func (b *Builder) AddBase64(oid int, key string, text string) {
	v, err := base64Value(text, b.o.Base64Prefix)
	if err != nil {
		b.fail(err)
		return
	}
	b.add(oid, key, v)
}

// AddNode adds a reference to node child under key to map node oid.
func (b *Builder) AddNode(oid int, key string, child int) {
	if n := b.child(child); n != nil {
		b.add(oid, key, nodeValue(n))
	}
}

// PushBool appends a bool to array node oid.
func (b *Builder) PushBool(oid int, v bool) { b.push(oid, boolValue(v)) }

// PushU8 appends an uint8 to array node oid.
func (b *Builder) PushU8(oid int, v uint8) { b.push(oid, u8Value(v)) }

// PushI16 appends an int16 to array node oid.
func (b *Builder) PushI16(oid int, v int16) { b.push(oid, i16Value(v)) }

// PushU16 appends an uint16 to array node oid.
func (b *Builder) PushU16(oid int, v uint16) { b.push(oid, u16Value(v)) }

// PushI32 appends an int32 to array node oid.
func (b *Builder) PushI32(oid int, v int32) { b.push(oid, i32Value(v)) }

// PushU32 appends an uint32 to array node oid.
func (b *Builder) PushU32(oid int, v uint32) { b.push(oid, u32Value(v)) }

// PushF32 appends a float32 to array node oid.
func (b *Builder) PushF32(oid int, v float32) { b.push(oid, f32Value(v)) }

// PushI64 appends an int64 to array node oid.
func (b *Builder) PushI64(oid int, v int64) { b.push(oid, i64Value(v)) }

// PushU64 appends an uint64 to array node oid.
func (b *Builder) PushU64(oid int, v uint64) { b.push(oid, u64Value(v)) }

// PushF64 appends a float64 to array node oid.
func (b *Builder) PushF64(oid int, v float64) { b.push(oid, f64Value(v)) }

// PushString appends a string to array node oid.
func (b *Builder) PushString(oid int, v string) { b.push(oid, stringValue(v)) }

// PushBinary appends a binary blob to array node oid.
func (b *Builder) PushBinary(oid int, v []byte) { b.push(oid, binaryValue(v)) }

// PushBase64 decodes base64 text, optionally starting with the configured
// prefix, and appends it as a blob to array node oid.
func (b *Builder) PushBase64(oid int, text string) {
	v, err := base64Value(text, b.o.Base64Prefix)
	if err != nil {
		b.fail(err)
		return
	}
	b.push(oid, v)
}

// PushNode appends a reference to node child to array node oid.
func (b *Builder) PushNode(oid int, child int) {
	if n := b.child(child); n != nil {
		b.push(oid, nodeValue(n))
	}
}
