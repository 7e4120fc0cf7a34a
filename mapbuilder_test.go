package dton_test

import (
	"github.com/bsm/dton"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("MapBuilder", func() {
	var subject *dton.MapBuilder

	BeforeEach(func() {
		subject = dton.NewMapBuilder(nil)
	})

	It("should build empty maps", func() {
		buf, err := subject.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(stringify(buf)).To(Equal(`{}`))

		rd, err := dton.NewReader(buf, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rd.NumNodes()).To(Equal(1))
		Expect(rd.Verify()).To(Succeed())
	})

	It("should encode like Builder", func() {
		subject.AddI64("a", 1)
		Expect(subject.Len()).To(Equal(1))

		buf, err := subject.Build()
		Expect(err).NotTo(HaveOccurred())

		b := dton.NewBuilder(nil)
		b.AddI64(b.CreateNode(dton.TypeMap), "a", 1)
		exp, err := b.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(buf).To(Equal(exp))
	})

	It("should build all types", func() {
		subject.AddBool("bool", true)
		subject.AddU8("u8", 200)
		subject.AddI16("i16", -300)
		subject.AddU16("u16", 60000)
		subject.AddI32("i32", -70000)
		subject.AddU32("u32", 4000000000)
		subject.AddF32("f32", 1.5)
		subject.AddI64("i64", -1<<40)
		subject.AddU64("u64", 1<<63)
		subject.AddF64("f64", 2.25)
		subject.AddString("str", "hello")
		subject.AddBinary("bin", []byte{1, 2, 3})
		subject.AddBase64("b64", "$B64$aGk=")

		buf, err := subject.Build()
		Expect(err).NotTo(HaveOccurred())

		rd, err := dton.NewReader(buf, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rd.Verify()).To(Succeed())
		Expect(found(rd.U16(1, "u16"))).To(Equal(uint16(60000)))
		Expect(found(rd.U64(1, "u64"))).To(Equal(uint64(1 << 63)))
		Expect(found(rd.String(1, "str"))).To(Equal("hello"))
		Expect(found(rd.Bytes(1, "b64"))).To(Equal([]byte("hi")))
		Expect(rd.TypeAt(rd.FieldOffset(1, "b64"))).To(Equal(dton.TypeBase64))

		// distinct keys encode exactly like a regular builder
		Expect(buf).To(Equal(seedScalarsWith(func(b *dton.Builder, root int) {
			b.AddBase64(root, "b64", "$B64$aGk=")
		})))
	})

	It("should not deduplicate keys", func() {
		subject.AddI64("a", 1)
		subject.AddI64("a", 2)

		buf, err := subject.Build()
		Expect(err).NotTo(HaveOccurred())

		rd, err := dton.NewReader(buf, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rd.NumKeys()).To(Equal(2))
		Expect(rd.NumEntries(1)).To(Equal(2))
		Expect(found(rd.I64(1, "a"))).To(Equal(int64(2)))
		Expect(rd.Verify()).To(Succeed())
	})

	It("should stage JSON scalars", func() {
		Expect(subject.AddJSON([]byte(`{"a":1,"b":{"c":1},"d":[1],"e":null,"f":"x","g":"$B64$aGk=","h":-0.5}`))).To(Succeed())
		Expect(subject.Len()).To(Equal(4))

		buf, err := subject.Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(stringify(buf)).To(Equal(`{"a":1,"f":"x","g":"$B64$aGk=","h":-0.5}`))

		rd, err := dton.NewReader(buf, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rd.TypeAt(rd.FieldOffset(1, "g"))).To(Equal(dton.TypeBase64))
		Expect(found(rd.Bytes(1, "g"))).To(Equal([]byte("hi")))
	})

	It("should reject non-objects", func() {
		Expect(subject.AddJSON([]byte(`[1,2]`))).To(MatchError(dton.ErrNotObject))
		Expect(subject.AddJSON([]byte(`{"a":`))).NotTo(Succeed())
	})

	It("should fail on invalid input", func() {
		subject.AddString("a", "\xff")
		subject.AddBool("b", true)
		Expect(subject.Err()).To(MatchError(dton.ErrInvalidUTF8))

		_, err := subject.Build()
		Expect(err).To(MatchError(dton.ErrInvalidUTF8))

		subject = dton.NewMapBuilder(nil)
		Expect(subject.AddJSON([]byte(`{"a":"$B64$@@"}`))).To(MatchError(dton.ErrInvalidBase64))
	})
})
