package optgen

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("OptGen", func() {
	var g *OptGen

	BeforeEach(func() {
		g = New(32, 2)
	})

	It("should cache any interval on an idle window", func() {
		for last := uint64(0); last < 32; last++ {
			fresh := New(32, 2)
			Expect(fresh.ShouldCache(last+5, last)).To(BeTrue())
		}
	})

	It("should raise occupancy across a cached interval", func() {
		Expect(g.ShouldCache(4, 1)).To(BeTrue())

		Expect(g.Occupancy(0)).To(Equal(uint32(0)))
		Expect(g.Occupancy(1)).To(Equal(uint32(1)))
		Expect(g.Occupancy(3)).To(Equal(uint32(1)))
		Expect(g.Occupancy(4)).To(Equal(uint32(0)))
	})

	It("should refuse intervals crossing a full quantum", func() {
		Expect(g.ShouldCache(6, 2)).To(BeTrue())
		Expect(g.ShouldCache(5, 3)).To(BeTrue())
		Expect(g.Occupancy(3)).To(Equal(uint32(2)))

		Expect(g.ShouldCache(10, 0)).To(BeFalse())
		Expect(g.Occupancy(0)).To(Equal(uint32(0)))
		Expect(g.Occupancy(3)).To(Equal(uint32(2)))

		Expect(g.ShouldCache(10, 6)).To(BeTrue())
	})

	It("should wrap around the window", func() {
		Expect(g.ShouldCache(2, 30)).To(BeTrue())
		Expect(g.Occupancy(30)).To(Equal(uint32(1)))
		Expect(g.Occupancy(31)).To(Equal(uint32(1)))
		Expect(g.Occupancy(0)).To(Equal(uint32(1)))
		Expect(g.Occupancy(2)).To(Equal(uint32(0)))
	})

	It("should clear a quantum on a new access", func() {
		g.ShouldCache(4, 1)
		g.AddAccess(2)
		Expect(g.Occupancy(2)).To(Equal(uint32(0)))
		Expect(g.NumAccesses()).To(Equal(uint64(1)))

		g.AddPrefetch(3)
		Expect(g.Occupancy(3)).To(Equal(uint32(0)))
		Expect(g.NumAccesses()).To(Equal(uint64(1)))
	})

	It("should count hits and misses", func() {
		g.ShouldCache(5, 1)
		g.ShouldCache(5, 1)
		g.ShouldCache(5, 1)

		Expect(g.NumOptHits()).To(Equal(uint64(2)))
		Expect(g.NumOptMisses()).To(Equal(uint64(1)))

		g.ResetStats()
		Expect(g.NumOptHits()).To(BeZero())
		Expect(g.Occupancy(1)).To(Equal(uint32(2)))
	})
})
