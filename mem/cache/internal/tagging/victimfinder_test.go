package tagging

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LRUVictimFinder", func() {
	var (
		tags   TagArray
		finder *LRUVictimFinder
	)

	BeforeEach(func() {
		tags = NewTagArray(4, 4, 64)
		finder = NewLRUVictimFinder()
	})

	It("should pick an invalid block first", func() {
		set, setID := tags.GetSet(0)
		set.Blocks[0].IsValid = true
		set.Blocks[1].IsValid = true
		tags.Visit(set.Blocks[2])

		Expect(finder.FindVictim(set, setID, Request{})).To(Equal(3))
	})

	It("should pick the least recently used block", func() {
		set, setID := tags.GetSet(0)
		for i := range set.Blocks {
			set.Blocks[i].IsValid = true
		}

		tags.Visit(set.Blocks[0])
		tags.Visit(set.Blocks[2])

		Expect(finder.FindVictim(set, setID, Request{})).To(Equal(1))
	})
})
