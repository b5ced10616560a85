package hawkeye

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/linetable"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/sampler"
)

var _ = Describe("Hawkeye", func() {
	const (
		sampledSet  = 1
		followerSet = 2
		pcA         = uint64(0x400100)
		pcB         = uint64(0x400200)
	)

	var (
		lines *linetable.Table
		p     *Policy
		cfg   Config
	)

	setAll := func(set int, rrpv uint8) {
		for i := range lines.Set(set) {
			lines.Set(set)[i].RRPV = rrpv
		}
	}

	BeforeEach(func() {
		lines = linetable.New(8, 16, 3)
		cfg = Config{
			NumCores:              1,
			OptGenVectorSize:      32,
			OptGenCapacity:        14,
			TimerSize:             1024,
			SamplerSets:           350,
			SamplerWays:           8,
			PredictorSize:         2048,
			PredictorMax:          31,
			PrefetchRecencyFactor: 5,
		}
		p = New(cfg, lines, []int{sampledSet})
	})

	Context("when finding a victim", func() {
		It("should prefer a cache-averse line", func() {
			setAll(followerSet, 0)
			lines.At(followerSet, 7).RRPV = 3

			Expect(p.FindVictim(followerSet)).To(Equal(7))
		})

		It("should fall back to the first highest RRPV", func() {
			setAll(followerSet, 0)
			lines.At(followerSet, 3).RRPV = 2
			lines.At(followerSet, 9).RRPV = 2
			lines.At(followerSet, 5).RRPV = 1

			Expect(p.FindVictim(followerSet)).To(Equal(3))
			Expect(lines.At(followerSet, 3).RRPV).To(Equal(uint8(2)))
		})

		It("should train the demand predictor negatively on a sampled fallback", func() {
			setAll(sampledSet, 0)
			lines.At(sampledSet, 0).Signature = pcA

			Expect(p.FindVictim(sampledSet)).To(Equal(0))
			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(15)))
			Expect(p.PrefetchPredictor().Confidence(pcA)).To(Equal(uint8(16)))
		})

		It("should train the prefetch predictor for prefetched victims", func() {
			setAll(sampledSet, 1)
			lines.At(sampledSet, 0).Signature = pcA
			lines.At(sampledSet, 0).Prefetched = true

			Expect(p.FindVictim(sampledSet)).To(Equal(0))
			Expect(p.PrefetchPredictor().Confidence(pcA)).To(Equal(uint8(15)))
			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(16)))
		})

		It("should not train on follower sets", func() {
			setAll(followerSet, 0)
			lines.At(followerSet, 0).Signature = pcA

			p.FindVictim(followerSet)
			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(16)))
		})
	})

	Context("when updating", func() {
		It("should ignore writebacks", func() {
			lines.At(sampledSet, 0).RRPV = 2
			lines.At(sampledSet, 0).Prefetched = true

			p.Update(sampledSet, 0, 0x1000, pcA, access.Writeback, false)

			Expect(lines.At(sampledSet, 0).RRPV).To(Equal(uint8(2)))
			Expect(lines.At(sampledSet, 0).Prefetched).To(BeTrue())
			Expect(p.Timer(sampledSet)).To(Equal(uint64(0)))
		})

		It("should track the prefetched status", func() {
			p.Update(followerSet, 0, 0x1000, pcA, access.Prefetch, false)
			Expect(lines.At(followerSet, 0).Prefetched).To(BeTrue())

			p.Update(followerSet, 0, 0x1000, pcA, access.Prefetch, true)
			Expect(lines.At(followerSet, 0).Prefetched).To(BeTrue())

			p.Update(followerSet, 0, 0x1000, pcA, access.Load, true)
			Expect(lines.At(followerSet, 0).Prefetched).To(BeFalse())

			p.Update(followerSet, 0, 0x1000, pcA, access.Prefetch, true)
			Expect(lines.At(followerSet, 0).Prefetched).To(BeFalse())
		})

		It("should insert friendly lines at zero and age the others", func() {
			lines.At(followerSet, 1).RRPV = 0
			lines.At(followerSet, 2).RRPV = 1

			p.Update(followerSet, 0, 0x1000, pcA, access.Load, false)

			Expect(lines.At(followerSet, 0).RRPV).To(Equal(uint8(0)))
			Expect(lines.At(followerSet, 0).Signature).To(Equal(pcA))
			Expect(lines.At(followerSet, 1).RRPV).To(Equal(uint8(1)))
			Expect(lines.At(followerSet, 2).RRPV).To(Equal(uint8(2)))
			Expect(lines.At(followerSet, 3).RRPV).To(Equal(uint8(3)))
		})

		It("should not age when a line already waits at the last friendly step", func() {
			lines.At(followerSet, 1).RRPV = 0
			lines.At(followerSet, 2).RRPV = 2

			p.Update(followerSet, 0, 0x1000, pcA, access.Load, false)

			Expect(lines.At(followerSet, 1).RRPV).To(Equal(uint8(0)))
			Expect(lines.At(followerSet, 2).RRPV).To(Equal(uint8(2)))
		})

		It("should not age on hits", func() {
			lines.At(followerSet, 1).RRPV = 0

			p.Update(followerSet, 0, 0x1000, pcA, access.Load, true)

			Expect(lines.At(followerSet, 0).RRPV).To(Equal(uint8(0)))
			Expect(lines.At(followerSet, 1).RRPV).To(Equal(uint8(0)))
		})

		It("should insert averse lines at max RRPV", func() {
			p.DemandPredictor().Decrement(pcA)

			p.Update(followerSet, 0, 0x1000, pcA, access.Load, false)
			Expect(lines.At(followerSet, 0).RRPV).To(Equal(uint8(3)))

			p.Update(followerSet, 1, 0x2000, pcA, access.Prefetch, false)
			Expect(lines.At(followerSet, 1).RRPV).To(Equal(uint8(0)))
		})
	})

	Context("when sampling", func() {
		lookup := func(addr uint64) *sampler.Entry {
			return p.Sampler().Lookup(p.Sampler().Index(addr))
		}

		It("should only sample sampled sets", func() {
			p.Update(followerSet, 0, 0x1000, pcA, access.Load, false)
			Expect(lookup(0x1000)).To(BeNil())

			p.Update(sampledSet, 0, 0x1000, pcA, access.Load, false)
			Expect(lookup(0x1000)).NotTo(BeNil())
			Expect(lookup(0x1000).PC).To(Equal(pcA))
			Expect(p.Timer(sampledSet)).To(Equal(uint64(1)))
		})

		It("should train positively on a short reuse", func() {
			p.Update(sampledSet, 0, 0x0, pcA, access.Load, false)
			p.Update(sampledSet, 0, 0x0, pcB, access.Load, true)

			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(17)))
			Expect(p.DemandPredictor().Confidence(pcB)).To(Equal(uint8(16)))
			Expect(lookup(0x0).PC).To(Equal(pcB))
			Expect(lookup(0x0).LastQuanta).To(Equal(uint64(1)))

			accesses, hits := p.OptGenStats()
			Expect(accesses).To(Equal(uint64(2)))
			Expect(hits).To(Equal(uint64(1)))
		})

		It("should skip training when the interval left the window", func() {
			p.Update(sampledSet, 0, 0x0, pcA, access.Load, false)
			for i := uint64(1); i <= 40; i++ {
				p.Update(sampledSet, 1, i*64, pcB, access.Load, false)
			}
			p.Update(sampledSet, 0, 0x0, pcB, access.Load, false)

			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(16)))
			_, hits := p.OptGenStats()
			Expect(hits).To(BeZero())
		})

		It("should train negatively when OPT would not have cached", func() {
			cfg.OptGenCapacity = 1
			p = New(cfg, lines, []int{sampledSet})

			p.Update(sampledSet, 0, 0x0, pcA, access.Load, false)
			p.Update(sampledSet, 1, 0x40, pcB, access.Load, false)
			p.Update(sampledSet, 0, 0x0, pcA, access.Load, true)
			p.Update(sampledSet, 1, 0x40, pcB, access.Load, true)

			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(17)))
			Expect(p.DemandPredictor().Confidence(pcB)).To(Equal(uint8(15)))
		})

		It("should train the prefetch predictor when a demand closes a prefetch", func() {
			p.Update(sampledSet, 0, 0x0, pcA, access.Prefetch, false)
			Expect(lookup(0x0).Prefetched).To(BeTrue())

			p.Update(sampledSet, 0, 0x0, pcB, access.Load, true)

			Expect(p.PrefetchPredictor().Confidence(pcA)).To(Equal(uint8(17)))
			Expect(p.DemandPredictor().Confidence(pcA)).To(Equal(uint8(16)))
			Expect(lookup(0x0).Prefetched).To(BeFalse())
		})

		It("should reward a recent prefetch re-sighting", func() {
			p.Update(sampledSet, 0, 0x0, pcA, access.Prefetch, false)
			p.Update(sampledSet, 0, 0x0, pcA, access.Prefetch, true)

			Expect(p.PrefetchPredictor().Confidence(pcA)).To(Equal(uint8(17)))
			Expect(lookup(0x0).Prefetched).To(BeTrue())
		})

		It("should ignore a stale prefetch re-sighting", func() {
			p.Update(sampledSet, 0, 0x0, pcA, access.Prefetch, false)
			for i := uint64(1); i <= 6; i++ {
				p.Update(sampledSet, 1, i*64, pcB, access.Load, false)
			}
			p.Update(sampledSet, 0, 0x0, pcA, access.Prefetch, true)

			Expect(p.PrefetchPredictor().Confidence(pcA)).To(Equal(uint8(16)))
		})

		It("should wrap the set timer", func() {
			cfg.TimerSize = 4
			p = New(cfg, lines, []int{sampledSet})

			for i := uint64(0); i < 6; i++ {
				p.Update(sampledSet, 0, i*64, pcA, access.Load, false)
			}

			Expect(p.Timer(sampledSet)).To(Equal(uint64(2)))
		})
	})

	It("should keep every RRPV in range", func() {
		rng := rand.New(rand.NewSource(11))
		for i := 0; i < 5000; i++ {
			set := rng.Intn(8)
			accessType := access.Type(rng.Intn(int(access.NumTypes)))
			hit := rng.Intn(3) == 0
			way := rng.Intn(16)
			if !hit {
				way = p.FindVictim(set)
			}

			addr := uint64(rng.Intn(256)) << 6
			p.Update(set, way, addr, uint64(rng.Intn(16))*4, accessType, hit)

			for _, l := range lines.Set(set) {
				Expect(l.RRPV).To(BeNumerically("<=", 3))
			}
		}
	})
})
