package dton

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"
)

// AddJSON parses data and stages its contents under key in node oid. Nested
// objects and arrays become new nodes, referenced from their parents. If oid
// is 0, the top-level object or array is staged as a detached node. Any
// other oid which does not exist stages nothing.
//
// JSON nulls are dropped. Strings starting with the base64 prefix are stored
// as blobs. Numbers without a negative decimal exponent are stored as int64,
// all others as float64.
func (b *Builder) AddJSON(oid int, key string, data []byte) error {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return errors.Wrap(err, "dton: parse JSON")
	}

	parent := TypeNone
	if oid > 0 && oid <= len(b.nodes) {
		parent = b.nodes[oid-1].typ
	} else if oid != 0 {
		if b.o.Strict {
			b.fail(errors.Wrapf(ErrBadNode, "node %d does not exist", oid))
		}
		return b.err
	}
	b.walk(oid, parent, key, v)
	return b.err
}

// walk stages v under node oid of type parent.
func (b *Builder) walk(oid int, parent Type, key string, v *fastjson.Value) {
	if b.err != nil {
		return
	}

	switch v.Type() {
	case fastjson.TypeNull:
	case fastjson.TypeTrue:
		b.attach(oid, parent, key, boolValue(true))
	case fastjson.TypeFalse:
		b.attach(oid, parent, key, boolValue(false))
	case fastjson.TypeString:
		s := string(v.GetStringBytes())
		if strings.HasPrefix(s, b.o.Base64Prefix) {
			bv, err := base64Value(s, b.o.Base64Prefix)
			if err != nil {
				b.fail(err)
				return
			}
			b.attach(oid, parent, key, bv)
		} else {
			b.attach(oid, parent, key, stringValue(s))
		}
	case fastjson.TypeNumber:
		b.attach(oid, parent, key, numberValue(v.String()))
	case fastjson.TypeObject:
		id := b.CreateNode(TypeMap)
		b.attach(oid, parent, key, nodeValue(b.nodes[id-1]))
		v.GetObject().Visit(func(k []byte, cv *fastjson.Value) {
			b.walk(id, TypeMap, string(k), cv)
		})
	case fastjson.TypeArray:
		id := b.CreateNode(TypeArray)
		b.attach(oid, parent, key, nodeValue(b.nodes[id-1]))
		for _, cv := range v.GetArray() {
			b.walk(id, TypeArray, "", cv)
		}
	}
}

// attach stores v in node oid, keyed if the node is a map. Values without
// a parent node are dropped.
func (b *Builder) attach(oid int, parent Type, key string, v value) {
	switch parent {
	case TypeMap:
		b.add(oid, key, v)
	case TypeArray:
		b.push(oid, v)
	}
}

// --------------------------------------------------------------------

// numberValue classifies a JSON number literal by its decimal exponent,
// after folding fraction digits into the mantissa: a non-negative exponent
// yields an int64, a negative one a float64. Integers which overflow an
// int64 are stored as float64.
func numberValue(raw string) value {
	if n, ok := parseInteger(raw); ok {
		return i64Value(n)
	}

	f, _ := strconv.ParseFloat(raw, 64)
	return f64Value(f)
}

// parseInteger returns the integer value of raw, if its decimal exponent is
// non-negative and the result fits into an int64.
func parseInteger(raw string) (int64, bool) {
	s := raw
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var mantissa uint64
	exp := 0
	digits := func(s string, frac bool) (string, bool) {
		for len(s) != 0 && s[0] >= '0' && s[0] <= '9' {
			d := uint64(s[0] - '0')
			if mantissa > (math.MaxUint64-d)/10 {
				return s, false
			}
			mantissa = mantissa*10 + d
			if frac {
				exp--
			}
			s = s[1:]
		}
		return s, true
	}

	var ok bool
	if s, ok = digits(s, false); !ok {
		return 0, false
	}
	if strings.HasPrefix(s, ".") {
		if s, ok = digits(s[1:], true); !ok {
			return 0, false
		}
	}
	if len(s) != 0 && (s[0] == 'e' || s[0] == 'E') {
		e, err := strconv.Atoi(strings.TrimPrefix(s[1:], "+"))
		if err != nil {
			return 0, false
		}
		exp += e
		s = ""
	}
	if len(s) != 0 || exp < 0 {
		return 0, false
	}

	if mantissa == 0 {
		return 0, true
	}
	for ; exp > 0; exp-- {
		if mantissa > math.MaxUint64/10 {
			return 0, false
		}
		mantissa *= 10
	}

	if neg {
		if mantissa > 1<<63 {
			return 0, false
		}
		return -int64(mantissa), true
	}
	if mantissa > math.MaxInt64 {
		return 0, false
	}
	return int64(mantissa), true
}
