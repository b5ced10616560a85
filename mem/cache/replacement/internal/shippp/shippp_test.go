package shippp

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/access"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/linetable"
	"github.com/sarchlab/rocketship/mem/cache/replacement/internal/signature"
)

var _ = Describe("SHiP++", func() {
	const (
		shctSize = 1 << 13
		pc       = uint64(0x401234)
	)

	var (
		lines *linetable.Table
		p     *Policy
		cfg   Config
	)

	BeforeEach(func() {
		lines = linetable.New(8, 16, 3)
		cfg = Config{
			NumCores:                 1,
			SHCTSize:                 shctSize,
			MaxSHCTR:                 7,
			PrefetchHitSamplePercent: 5,
			ColdEscapePercent:        0,
		}
		p = New(cfg, lines, rand.New(rand.NewSource(420)))
	})

	Context("when finding a victim", func() {
		It("should return the first distant line", func() {
			for i := range lines.Set(0) {
				lines.Set(0)[i].RRPV = 1
			}
			lines.At(0, 6).RRPV = 3

			Expect(p.FindVictim(0)).To(Equal(6))
		})

		It("should age until a line becomes distant", func() {
			for i := range lines.Set(0) {
				lines.Set(0)[i].RRPV = 0
			}
			lines.At(0, 4).RRPV = 1

			Expect(p.FindVictim(0)).To(Equal(4))
			Expect(lines.At(0, 4).RRPV).To(Equal(uint8(3)))
			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(2)))
		})

		It("should not age when a distant line exists", func() {
			lines.At(0, 0).RRPV = 0

			Expect(p.FindVictim(0)).To(Equal(1))
			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(0)))
		})
	})

	Context("when filling", func() {
		It("should insert weak signatures at medium priority", func() {
			p.Update(0, 0, 0, pc, access.Load, false, true)

			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(2)))
			Expect(p.Insertions(access.Load)).To(Equal([]uint64{0, 0, 1, 0}))
		})

		It("should insert writebacks at distant priority", func() {
			p.Update(0, 0, 0, pc, access.Writeback, false, true)

			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(3)))
			Expect(p.Insertions(access.Writeback)).To(Equal([]uint64{0, 0, 0, 1}))
		})

		It("should record the signature in training sets only", func() {
			sig := signature.SHiP(pc, false, shctSize)

			p.Update(0, 1, 3, pc, access.Load, false, false)
			Expect(lines.At(1, 3).SHiPSignature).To(Equal(uint32(0)))

			p.Update(0, 1, 3, pc, access.Load, false, true)
			Expect(lines.At(1, 3).SHiPSignature).To(Equal(sig))
			Expect(lines.At(1, 3).Reused).To(BeFalse())
		})

		It("should weaken the signature of a line evicted without reuse", func() {
			p.Update(0, 0, 0, pc, access.Load, false, true)
			sig := lines.At(0, 0).SHiPSignature

			p.Update(0, 0, 0, pc+4, access.Load, false, true)

			Expect(p.SHCT(0, sig)).To(Equal(uint8(0)))
		})

		It("should insert cold signatures at distant priority", func() {
			p.Update(0, 0, 0, pc, access.Load, false, true)
			p.Update(0, 0, 0, pc+4, access.Load, false, true)

			p.Update(0, 0, 1, pc, access.Load, false, false)
			Expect(lines.At(0, 1).RRPV).To(Equal(uint8(3)))
		})

		It("should let cold signatures escape when configured", func() {
			cfg.ColdEscapePercent = 100
			p = New(cfg, lines, rand.New(rand.NewSource(1)))

			p.Update(0, 0, 0, pc, access.Load, false, true)
			p.Update(0, 0, 0, pc+4, access.Load, false, true)
			p.Update(0, 0, 1, pc, access.Load, false, false)

			Expect(lines.At(0, 1).RRPV).To(Equal(uint8(2)))
		})
	})

	Context("when hitting", func() {
		It("should promote the line and train once", func() {
			p.Update(0, 0, 0, pc, access.Load, false, true)
			sig := lines.At(0, 0).SHiPSignature

			p.Update(0, 0, 0, pc, access.Load, true, true)
			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(0)))
			Expect(lines.At(0, 0).Reused).To(BeTrue())
			Expect(p.SHCT(0, sig)).To(Equal(uint8(2)))

			p.Update(0, 0, 0, pc, access.Load, true, true)
			Expect(p.SHCT(0, sig)).To(Equal(uint8(2)))
		})

		It("should ignore writeback hits", func() {
			p.Update(0, 0, 0, pc, access.Load, false, true)
			p.Update(0, 0, 0, pc, access.Writeback, true, true)

			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(2)))
			Expect(lines.At(0, 0).Reused).To(BeFalse())
		})

		It("should downgrade a prefetched line on its first demand hit", func() {
			p.Update(0, 0, 0, pc, access.Prefetch, false, true)
			Expect(lines.At(0, 0).SHiPPrefetched).To(BeTrue())

			p.Update(0, 0, 0, pc, access.Load, true, true)

			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(3)))
			Expect(lines.At(0, 0).SHiPPrefetched).To(BeFalse())
			Expect(p.PrefetchDowngrades()).To(Equal(uint64(1)))

			p.Update(0, 0, 0, pc, access.Load, true, true)
			Expect(lines.At(0, 0).RRPV).To(Equal(uint8(0)))
			Expect(p.PrefetchDowngrades()).To(Equal(uint64(1)))
		})

		It("should leave prefetch hits on prefetched lines in place", func() {
			p.Update(0, 0, 0, pc, access.Prefetch, false, true)

			for i := 0; i < 50; i++ {
				p.Update(0, 0, 0, pc, access.Prefetch, true, true)
				Expect(lines.At(0, 0).RRPV).To(Equal(uint8(2)))
			}
		})

		It("should sample prefetch hits only with the configured chance", func() {
			cfg.PrefetchHitSamplePercent = 0
			p = New(cfg, lines, rand.New(rand.NewSource(7)))

			p.Update(0, 0, 0, pc, access.Prefetch, false, true)
			sig := lines.At(0, 0).SHiPSignature
			for i := 0; i < 200; i++ {
				p.Update(0, 0, 0, pc, access.Prefetch, true, true)
			}

			Expect(p.SHCT(0, sig)).To(Equal(uint8(1)))
			Expect(lines.At(0, 0).Reused).To(BeFalse())
		})
	})

	It("should saturate a reused signature and insert it at top priority", func() {
		for i := 0; i < 20; i++ {
			way := i % 16
			p.Update(0, 0, way, pc, access.Load, false, true)
			p.Update(0, 0, way, pc, access.Load, true, true)
		}

		sig := signature.SHiP(pc, false, shctSize)
		Expect(p.SHCT(0, sig)).To(Equal(uint8(7)))

		p.Update(0, 2, 0, pc, access.Load, false, false)
		Expect(lines.At(2, 0).RRPV).To(Equal(uint8(0)))

		p.Update(0, 2, 1, pc, access.Prefetch, false, false)
		Expect(lines.At(2, 1).RRPV).To(Equal(uint8(2)))
	})

	It("should keep every counter and RRPV in range", func() {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 5000; i++ {
			set := rng.Intn(8)
			accessType := access.Type(rng.Intn(int(access.NumTypes)))
			hit := rng.Intn(2) == 0
			way := rng.Intn(16)
			if !hit {
				way = p.FindVictim(set)
			}

			p.Update(0, set, way, uint64(rng.Intn(64))*4, accessType, hit, set < 2)

			for _, l := range lines.Set(set) {
				Expect(l.RRPV).To(BeNumerically("<=", 3))
			}
		}

		for sig := uint32(0); sig < 512; sig++ {
			Expect(p.SHCT(0, sig)).To(BeNumerically("<=", 7))
		}
	})

	It("should panic on an unknown core", func() {
		Expect(func() {
			p.Update(1, 0, 0, pc, access.Load, false, true)
		}).To(Panic())
	})
})
