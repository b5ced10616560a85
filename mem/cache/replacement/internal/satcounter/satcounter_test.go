package satcounter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Saturating arithmetic", func() {
	It("should increment below max", func() {
		Expect(Inc(uint8(3), uint8(7))).To(Equal(uint8(4)))
	})

	It("should stay at max", func() {
		v := uint8(7)
		for i := 0; i < 100; i++ {
			v = Inc(v, 7)
		}

		Expect(v).To(Equal(uint8(7)))
	})

	It("should stay at zero", func() {
		v := uint16(2)
		for i := 0; i < 100; i++ {
			v = Dec(v)
		}

		Expect(v).To(Equal(uint16(0)))
	})
})

var _ = Describe("Counter", func() {
	It("should clamp the initial value", func() {
		c := NewCounter(7, 100)
		Expect(c.Value()).To(Equal(uint32(7)))
	})

	It("should never leave its range", func() {
		c := NewCounter(512, 256)

		for i := 0; i < 1000; i++ {
			c.Inc()
			Expect(c.Value()).To(BeNumerically("<=", 512))
		}
		Expect(c.Value()).To(Equal(uint32(512)))

		for i := 0; i < 1000; i++ {
			c.Dec()
		}
		Expect(c.Value()).To(Equal(uint32(0)))
	})

	It("should compare against the midpoint", func() {
		c := NewCounter(512, 256)
		Expect(c.Above()).To(BeFalse())

		c.Inc()
		Expect(c.Above()).To(BeTrue())
	})
})
