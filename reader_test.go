package dton_test

import (
	"math"

	"github.com/bsm/dton"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	var subject *dton.Reader

	BeforeEach(func() {
		var err error
		subject, err = dton.NewReader(seedScalars(), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject bad buffers", func() {
		_, err := dton.NewReader(nil, nil)
		Expect(err).To(MatchError(dton.ErrTruncated))

		_, err = dton.NewReader([]byte{0x02, 0x01, 0x00}, nil)
		Expect(err).To(MatchError(dton.ErrBadFormat))

		_, err = dton.NewReader([]byte{0x01, 0x03, 0x00}, nil)
		Expect(err).To(MatchError(dton.ErrBadWidth))

		_, err = dton.NewReader([]byte{0x01, 0x01, 0x00}, nil)
		Expect(err).To(MatchError(dton.ErrTruncated))

		_, err = dton.NewReader([]byte{0x01, 0x01, 0x05, 0x00, 0x00, 0x77}, nil)
		Expect(err).To(MatchError(dton.ErrTruncated))
	})

	It("should expose counts", func() {
		Expect(subject.Width()).To(Equal(1))
		Expect(subject.NumNodes()).To(Equal(1))
		Expect(subject.NumKeys()).To(Equal(12))
		Expect(subject.NumValues()).To(Equal(12))
		Expect(subject.NumEntries(1)).To(Equal(12))
		Expect(subject.NumEntries(2)).To(Equal(0))
		Expect(subject.NodeType(1)).To(Equal(dton.TypeMap))
		Expect(subject.NodeType(0)).To(Equal(dton.TypeNone))
		Expect(subject.NodeType(2)).To(Equal(dton.TypeNone))
	})

	It("should read values by key", func() {
		Expect(found(subject.Bool(1, "bool"))).To(BeTrue())
		Expect(found(subject.U8(1, "u8"))).To(Equal(uint8(200)))
		Expect(found(subject.I16(1, "i16"))).To(Equal(int16(-300)))
		Expect(found(subject.U16(1, "u16"))).To(Equal(uint16(60000)))
		Expect(found(subject.I32(1, "i32"))).To(Equal(int32(-70000)))
		Expect(found(subject.U32(1, "u32"))).To(Equal(uint32(4000000000)))
		Expect(found(subject.F32(1, "f32"))).To(Equal(float32(1.5)))
		Expect(found(subject.I64(1, "i64"))).To(Equal(int64(-1 << 40)))
		Expect(found(subject.U64(1, "u64"))).To(Equal(uint64(1 << 63)))
		Expect(found(subject.F64(1, "f64"))).To(Equal(2.25))
		Expect(found(subject.String(1, "str"))).To(Equal("hello"))
		Expect(found(subject.Bytes(1, "bin"))).To(Equal([]byte{1, 2, 3}))
	})

	It("should read values by index", func() {
		Expect(found(subject.BoolByIndex(1, 0))).To(BeTrue())
		Expect(found(subject.U8ByIndex(1, 1))).To(Equal(uint8(200)))
		Expect(found(subject.I16ByIndex(1, 2))).To(Equal(int16(-300)))
		Expect(found(subject.U16ByIndex(1, 3))).To(Equal(uint16(60000)))
		Expect(found(subject.I32ByIndex(1, 4))).To(Equal(int32(-70000)))
		Expect(found(subject.U32ByIndex(1, 5))).To(Equal(uint32(4000000000)))
		Expect(found(subject.F32ByIndex(1, 6))).To(Equal(float32(1.5)))
		Expect(found(subject.I64ByIndex(1, 7))).To(Equal(int64(-1 << 40)))
		Expect(found(subject.U64ByIndex(1, 8))).To(Equal(uint64(1 << 63)))
		Expect(found(subject.F64ByIndex(1, 9))).To(Equal(2.25))
		Expect(found(subject.StringByIndex(1, 10))).To(Equal("hello"))
		Expect(found(subject.BytesByIndex(1, 11))).To(Equal([]byte{1, 2, 3}))
	})

	It("should report type mismatches as missing", func() {
		_, ok := subject.I32(1, "i64")
		Expect(ok).To(BeFalse())
		_, ok = subject.String(1, "bin")
		Expect(ok).To(BeFalse())
		_, ok = subject.Bytes(1, "str")
		Expect(ok).To(BeFalse())
		_, ok = subject.NodeID(1, "u8")
		Expect(ok).To(BeFalse())
		_, ok = subject.Bool(1, "u8")
		Expect(ok).To(BeFalse())
	})

	It("should report missing values", func() {
		Expect(subject.FieldOffset(1, "missing")).To(Equal(0))
		Expect(subject.FieldOffset(0, "bool")).To(Equal(0))
		Expect(subject.FieldOffset(2, "bool")).To(Equal(0))
		Expect(subject.EntryOffset(1, -1)).To(Equal(0))
		Expect(subject.EntryOffset(1, 12)).To(Equal(0))
		Expect(subject.TypeAt(0)).To(Equal(dton.TypeNone))

		_, ok := subject.Bool(1, "missing")
		Expect(ok).To(BeFalse())
		_, ok = subject.U8ByIndex(1, 12)
		Expect(ok).To(BeFalse())
		_, ok = subject.EntryKey(1, 12)
		Expect(ok).To(BeFalse())
	})

	It("should not match key prefixes", func() {
		rd := seedReader(`{"ab":1,"a":2,"abc":3}`)
		Expect(found(rd.I64(1, "a"))).To(Equal(int64(2)))
		Expect(found(rd.I64(1, "ab"))).To(Equal(int64(1)))
		Expect(found(rd.I64(1, "abc"))).To(Equal(int64(3)))
		Expect(rd.FieldOffset(1, "b")).To(Equal(0))
		Expect(rd.FieldOffset(1, "")).To(Equal(0))
	})

	It("should introspect entries", func() {
		Expect(found(subject.EntryKey(1, 0))).To(Equal("bool"))
		Expect(found(subject.EntryKey(1, 11))).To(Equal("bin"))
		Expect(subject.TypeAt(subject.FieldOffset(1, "u64"))).To(Equal(dton.TypeU64))
		Expect(subject.TypeAt(subject.EntryOffset(1, 10))).To(Equal(dton.TypeString))

		fields := subject.Fields(1)
		Expect(fields).To(HaveLen(12))
		Expect(fields).To(HaveKeyWithValue("str", subject.FieldOffset(1, "str")))
		Expect(subject.Fields(2)).To(BeNil())
	})

	It("should not look up keys in arrays", func() {
		rd := seedReader(`[1,2]`)
		Expect(rd.FieldOffset(1, "0")).To(Equal(0))
		Expect(rd.Fields(1)).To(BeNil())
		_, ok := rd.EntryKey(1, 0)
		Expect(ok).To(BeFalse())
		Expect(found(rd.I64ByIndex(1, 1))).To(Equal(int64(2)))
	})

	It("should cap corrupt entry counts", func() {
		buf := append([]byte(nil), seedBuffer(`{"a":1}`)...)
		rd, err := dton.NewReader(buf, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rd.NumEntries(1)).To(Equal(1))

		// property table of node 1 starts after the node table, at 8
		buf[8] = 0xff
		Expect(rd.NumEntries(1)).To(Equal(8))
		Expect(rd.EntryOffset(1, 8)).To(Equal(0))
		Expect(rd.Fields(1)).To(HaveKey("a"))
		Expect(found(rd.I64ByIndex(1, 0))).To(Equal(int64(1)))
		Expect(rd.AppendJSON(nil, 1)).NotTo(BeEmpty())
		Expect(rd.Verify()).To(MatchError(dton.ErrTruncated))
	})

	It("should follow node references", func() {
		rd := seedReader(`{"user":{"name":"bob","roles":["admin"]}}`)
		user := found(rd.NodeID(1, "user")).(int)
		Expect(rd.NodeType(user)).To(Equal(dton.TypeMap))
		Expect(found(rd.String(user, "name"))).To(Equal("bob"))

		roles := found(rd.NodeID(user, "roles")).(int)
		Expect(rd.NodeType(roles)).To(Equal(dton.TypeArray))
		Expect(found(rd.StringByIndex(roles, 0))).To(Equal("admin"))
		Expect(found(rd.NodeIDByIndex(1, 0))).To(Equal(user))
	})

	Describe("JSON", func() {
		It("should materialize scalars", func() {
			Expect(string(subject.AppendJSON(nil, 1))).To(Equal(`{` +
				`"bool":true,"u8":200,"i16":-300,"u16":60000,"i32":-70000,"u32":4000000000,` +
				`"f32":1.5,"i64":-1099511627776,"u64":9223372036854775808,"f64":2.25,` +
				`"str":"hello","bin":"$B64$AQID"}`))
		})

		It("should use custom base64 prefixes", func() {
			rd, err := dton.NewReader(seedScalars(), &dton.ReaderOptions{Base64Prefix: "b64:"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rd.ToJSON(1).Get("bin").String()).To(Equal(`"b64:AQID"`))
		})

		It("should materialize single values", func() {
			Expect(subject.ValueJSON(subject.FieldOffset(1, "str")).String()).To(Equal(`"hello"`))
			Expect(subject.ValueJSON(subject.FieldOffset(1, "u8")).String()).To(Equal(`200`))
			Expect(subject.ValueJSON(0)).To(BeNil())
		})

		It("should handle missing nodes", func() {
			Expect(subject.ToJSON(0)).To(BeNil())
			Expect(subject.ToJSON(2)).To(BeNil())
			Expect(subject.AppendJSON([]byte("x"), 2)).To(Equal([]byte("x")))
		})

		It("should skip unknown value types", func() {
			buf := append([]byte(nil), seedBuffer(`{"a":1,"b":2}`)...)
			rd, err := dton.NewReader(buf, nil)
			Expect(err).NotTo(HaveOccurred())
			buf[rd.FieldOffset(1, "a")] = 0x99

			Expect(string(rd.AppendJSON(nil, 1))).To(Equal(`{"b":2}`))
			Expect(rd.ValueJSON(rd.FieldOffset(1, "a"))).To(BeNil())
			Expect(rd.Verify()).To(MatchError(dton.ErrBadLayout))

			buf = append([]byte(nil), seedBuffer(`[1,"x",true]`)...)
			rd, err = dton.NewReader(buf, nil)
			Expect(err).NotTo(HaveOccurred())
			buf[rd.EntryOffset(1, 1)] = 0x99
			Expect(string(rd.AppendJSON(nil, 1))).To(Equal(`[1,true]`))
		})

		It("should materialize cycles as null", func() {
			b := dton.NewBuilder(nil)
			root := b.CreateNode(dton.TypeMap)
			b.AddI64(root, "n", 1)
			b.AddNode(root, "self", root)

			buf, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(stringify(buf)).To(Equal(`{"n":1,"self":null}`))
		})

		It("should allow shared nodes", func() {
			b := dton.NewBuilder(nil)
			root := b.CreateNode(dton.TypeArray)
			leaf := b.CreateNode(dton.TypeMap)
			b.AddBool(leaf, "ok", true)
			b.PushNode(root, leaf)
			b.PushNode(root, leaf)

			buf, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(stringify(buf)).To(Equal(`[{"ok":true},{"ok":true}]`))
		})

		It("should materialize non-finite floats as null", func() {
			b := dton.NewBuilder(nil)
			root := b.CreateNode(dton.TypeMap)
			b.AddF64(root, "nan", math.NaN())
			b.AddF32(root, "inf", float32(math.Inf(1)))

			buf, err := b.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(stringify(buf)).To(Equal(`{"nan":null,"inf":null}`))
		})
	})

	Describe("Verify", func() {
		It("should accept valid buffers", func() {
			Expect(subject.Verify()).To(Succeed())
			Expect(seedReader(`[]`).Verify()).To(Succeed())
			Expect(seedReader(`{"a":[{"b":"$B64$aGk="},2.5],"c":{}}`).Verify()).To(Succeed())
		})

		It("should detect corrupt sentinels", func() {
			buf := append([]byte(nil), seedBuffer(`{"a":1}`)...)
			buf[len(buf)-1] = 0x00

			rd, err := dton.NewReader(buf, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rd.Verify()).To(MatchError(dton.ErrBadSentinel))
		})

		It("should detect truncated buffers", func() {
			buf := seedBuffer(`{"a":1}`)

			rd, err := dton.NewReader(buf[:len(buf)-1], nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rd.Verify()).To(MatchError(dton.ErrTruncated))
		})

		It("should detect trailing bytes", func() {
			buf := append([]byte(nil), seedBuffer(`{"a":1}`)...)
			buf = append(buf, 0x00)

			rd, err := dton.NewReader(buf, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(rd.Verify()).To(MatchError(dton.ErrBadLayout))
		})
	})
})
