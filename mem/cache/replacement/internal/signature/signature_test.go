package signature

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Signature", func() {
	It("should map zero to zero", func() {
		Expect(CRC(0)).To(Equal(uint64(0)))
	})

	It("should be deterministic", func() {
		Expect(CRC(1)).NotTo(Equal(CRC(2)))
		Expect(CRC(0x401a2c)).To(Equal(CRC(0x401a2c)))
	})

	It("should separate demand and prefetch signatures", func() {
		demand := SHiP(0x400123, false, 1<<13)
		prefetch := SHiP(0x400123, true, 1<<13)

		Expect(prefetch).To(Equal(demand + 1))
		Expect(demand % 2).To(Equal(uint32(0)))
	})

	It("should stay inside the table", func() {
		for pc := uint64(0); pc < 10000; pc += 37 {
			Expect(SHiP(pc, pc%2 == 0, 64)).To(BeNumerically("<", 64))
		}
	})
})
