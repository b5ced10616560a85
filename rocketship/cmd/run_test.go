package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rocketship/datarecording"
	"github.com/sarchlab/rocketship/mem/cache/llc"
)

func smallRun(policy string) runConfig {
	return runConfig{
		pattern:  "loop",
		accesses: 2000,
		policy:   policy,
		numSets:  64,
		numWays:  4,
		numCores: 1,
		leaders:  4,
		maxPSEL:  512,
		seed:     1,
	}
}

var _ = Describe("Run", func() {
	var (
		ctx context.Context
		out *bytes.Buffer
		dir string
	)

	BeforeEach(func() {
		ctx = context.Background()
		out = new(bytes.Buffer)
		dir = GinkgoT().TempDir()
	})

	DescribeTable("should reject bad configurations",
		func(modify func(*runConfig)) {
			cfg := smallRun(llc.StrategyRocketship)
			modify(&cfg)

			Expect(runReplay(ctx, cfg, out)).NotTo(Succeed())
		},
		Entry("unknown policy", func(c *runConfig) { c.policy = "mru" }),
		Entry("no sets", func(c *runConfig) { c.numSets = 0 }),
		Entry("too many leaders", func(c *runConfig) { c.leaders = 33 }),
		Entry("tiny PSEL", func(c *runConfig) { c.maxPSEL = 1 }),
		Entry("endless synthetic run", func(c *runConfig) { c.accesses = 0 }),
		Entry("decisions without record",
			func(c *runConfig) { c.decisions = true }),
		Entry("unknown pattern", func(c *runConfig) { c.pattern = "zigzag" }),
		Entry("missing trace", func(c *runConfig) {
			c.tracePath = filepath.Join(dir, "missing.trace")
		}),
	)

	It("should replay synthetic accesses through LRU", func() {
		Expect(runReplay(ctx, smallRun(llc.StrategyLRU), out)).To(Succeed())

		Expect(out.String()).To(
			ContainSubstring("Replayed 2000 accesses from synthetic-loop"))
		Expect(out.String()).To(ContainSubstring("LLC TOTAL"))
		Expect(out.String()).NotTo(ContainSubstring("Policy switches"))
	})

	It("should print the engine statistics", func() {
		cfg := smallRun(llc.StrategyRocketship)

		Expect(runReplay(ctx, cfg, out)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Policy switches:"))
		Expect(out.String()).To(ContainSubstring("OPTgen hit rate:"))
		Expect(out.String()).To(ContainSubstring("Replacement.Victim: "))
		Expect(out.String()).To(
			ContainSubstring("Replacement.Update: 2000\n"))
	})

	It("should clear the counters after warmup", func() {
		cfg := smallRun(llc.StrategyRocketship)
		cfg.accesses = 100
		cfg.warmup = 50

		Expect(runReplay(ctx, cfg, out)).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Warmup complete after 50"))
		Expect(out.String()).To(ContainSubstring("Replayed 100 accesses"))
		Expect(out.String()).To(
			ContainSubstring(fmt.Sprintf("LLC TOTAL     ACCESS: %10d", 100)))
	})

	It("should print heartbeats", func() {
		cfg := smallRun(llc.StrategyRocketship)
		cfg.heartbeat = 500

		Expect(runReplay(ctx, cfg, out)).To(Succeed())

		Expect(bytes.Count(out.Bytes(), []byte("Heartbeat "))).To(Equal(4))
	})

	It("should stop when cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Expect(runReplay(cancelled, smallRun(llc.StrategyLRU), out)).
			To(Succeed())
		Expect(out.String()).To(ContainSubstring("Replayed 0 accesses"))
	})

	It("should replay a generated trace file", func() {
		path := filepath.Join(dir, "stream.trace")
		file, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())

		err = generateTrace(genConfig{
			pattern:  "stream",
			accesses: 500,
			seed:     3,
			numCores: 1,
			lines:    64,
			rfo:      20,
		}, file)
		Expect(err).NotTo(HaveOccurred())
		Expect(file.Close()).To(Succeed())

		cfg := smallRun(llc.StrategyRocketship)
		cfg.tracePath = path
		cfg.accesses = 0

		Expect(runReplay(ctx, cfg, out)).To(Succeed())
		Expect(out.String()).To(
			ContainSubstring("Replayed 500 accesses from " + path))
	})

	It("should fail on accesses from unknown cores", func() {
		path := filepath.Join(dir, "bad.trace")
		Expect(os.WriteFile(path, []byte("3 LOAD 0x10 0x1000\n"), 0o644)).
			To(Succeed())

		cfg := smallRun(llc.StrategyLRU)
		cfg.tracePath = path

		Expect(runReplay(ctx, cfg, out)).To(MatchError(
			ContainSubstring("core 3 out of range")))
	})

	It("should log decisions to a file", func() {
		cfg := smallRun(llc.StrategyRocketship)
		cfg.accesses = 300
		cfg.decisionLog = filepath.Join(dir, "decisions.log")

		Expect(runReplay(ctx, cfg, out)).To(Succeed())

		content, err := os.ReadFile(cfg.decisionLog)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("victim, "))
		Expect(string(content)).To(ContainSubstring("update, "))
	})

	It("should record the run summary and decisions", func() {
		cfg := smallRun(llc.StrategyRocketship)
		cfg.accesses = 300
		cfg.record = filepath.Join(dir, "run")
		cfg.decisions = true

		Expect(runReplay(ctx, cfg, out)).To(Succeed())

		reader, err := datarecording.NewReader(cfg.record + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		tables, err := reader.ListTables(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tables).To(ContainElements(
			"exec_info", summaryTable, "replacement_decisions"))

		summaries, err := loadSummaries(ctx,
			[]string{cfg.record + ".sqlite3"}, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].Accesses).To(Equal(uint64(300)))
		Expect(summaries[0].Policy).To(Equal(llc.StrategyRocketship))
		Expect(summaries[0].Trace).To(Equal("synthetic-loop"))
		Expect(summaries[0].MaxPSEL).To(Equal(512))
		Expect(summaries[0].ID).NotTo(BeEmpty())
	})
})
