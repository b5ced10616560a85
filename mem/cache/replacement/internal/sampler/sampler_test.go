package sampler_test

import (
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/sampler"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sampler", func() {
	var s *sampler.Sampler

	BeforeEach(func() {
		s = sampler.New(4, 8)
	})

	ranks := func(set int) []int {
		var r []int
		for _, e := range s.Entries(set) {
			r = append(r, e.LRU)
		}

		return r
	}

	It("should index inside its geometry", func() {
		for addr := uint64(0); addr < 1<<20; addr += 4096 + 64 {
			set, tag := s.Index(addr)
			Expect(set).To(BeNumerically("<", 4))
			Expect(tag).To(BeNumerically("<", 256))
		}
	})

	It("should share a tag across lines of one page", func() {
		_, tag1 := s.Index(0x12340)
		_, tag2 := s.Index(0x12380)
		Expect(tag1).To(Equal(tag2))
	})

	It("should insert and look up", func() {
		e := s.Insert(1, 42, 7)
		Expect(e.LastQuanta).To(Equal(uint64(7)))
		Expect(e.LRU).To(Equal(0))

		Expect(s.Lookup(1, 42)).To(BeIdenticalTo(e))
		Expect(s.Lookup(1, 43)).To(BeNil())
		Expect(s.Lookup(2, 42)).To(BeNil())
	})

	It("should keep ranks a permutation", func() {
		for tag := uint64(0); tag < 8; tag++ {
			s.Insert(0, tag, tag)
		}

		Expect(ranks(0)).To(ConsistOf(0, 1, 2, 3, 4, 5, 6, 7))
		Expect(s.Lookup(0, 7).LRU).To(Equal(0))
		Expect(s.Lookup(0, 0).LRU).To(Equal(7))
	})

	It("should never exceed its associativity", func() {
		for tag := uint64(0); tag < 100; tag++ {
			s.Insert(3, tag, tag)
			Expect(s.Occupancy(3)).To(BeNumerically("<=", 8))
		}
		Expect(s.Occupancy(3)).To(Equal(8))
	})

	It("should evict the entry of the last rank", func() {
		for tag := uint64(0); tag < 8; tag++ {
			s.Insert(0, tag, tag)
		}

		s.Touch(0, s.Lookup(0, 0))
		Expect(s.Lookup(0, 1).LRU).To(Equal(7))

		s.Insert(0, 100, 9)

		Expect(s.Lookup(0, 1)).To(BeNil())
		Expect(s.Lookup(0, 0)).NotTo(BeNil())
		Expect(s.Lookup(0, 100).LRU).To(Equal(0))
		Expect(ranks(0)).To(ConsistOf(0, 1, 2, 3, 4, 5, 6, 7))
	})

	It("should promote a touched entry", func() {
		s.Insert(2, 1, 0)
		s.Insert(2, 2, 1)
		s.Insert(2, 3, 2)

		s.Touch(2, s.Lookup(2, 1))

		Expect(s.Lookup(2, 1).LRU).To(Equal(0))
		Expect(s.Lookup(2, 3).LRU).To(Equal(1))
		Expect(s.Lookup(2, 2).LRU).To(Equal(2))
	})
})
