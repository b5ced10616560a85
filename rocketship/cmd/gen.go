package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sarchlab/rocketship/mem/trace"
	"github.com/spf13/cobra"
)

type genConfig struct {
	pattern    string
	accesses   int
	seed       int64
	numCores   int
	lines      int
	prefetch   int
	writeback  int
	rfo        int
	outputPath string
}

func newGenCmd() *cobra.Command {
	cfg := genConfig{}

	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Write a synthetic trace.",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()

			if cfg.outputPath != "" {
				file, err := os.Create(cfg.outputPath)
				if err != nil {
					log.Fatalf("Cannot create %s: %v", cfg.outputPath, err)
				}
				defer file.Close()

				out = file
			}

			err := generateTrace(cfg, out)
			if err != nil {
				log.Fatalf("Trace generation failed: %v", err)
			}
		},
	}

	f := genCmd.Flags()
	f.StringVarP(&cfg.outputPath, "output", "o", "",
		"Output file. Writes to stdout when empty.")
	f.StringVar(&cfg.pattern, "pattern", envString("PATTERN", "mixed"),
		"Access pattern: stream, loop or mixed.")
	f.IntVar(&cfg.accesses, "accesses", envInt("ACCESSES", 1000000),
		"Number of accesses to write.")
	f.Int64Var(&cfg.seed, "seed", int64(envInt("SEED", 420)),
		"Seed of the generator.")
	f.IntVar(&cfg.numCores, "cores", envInt("CORES", 1), "Number of cores.")
	f.IntVar(&cfg.lines, "working-set", 4096,
		"Lines in the looping working set.")
	f.IntVar(&cfg.prefetch, "prefetch", 0,
		"Percent of demand accesses followed by a next-line prefetch.")
	f.IntVar(&cfg.writeback, "writeback", 0,
		"Percent of accesses followed by a writeback.")
	f.IntVar(&cfg.rfo, "rfo", 20, "Percent of demand accesses that are RFOs.")

	return genCmd
}

func generateTrace(cfg genConfig, out io.Writer) error {
	pattern, err := trace.ParsePattern(cfg.pattern)
	if err != nil {
		return err
	}

	if cfg.numCores < 1 || cfg.lines < 1 || cfg.accesses < 0 {
		return fmt.Errorf("invalid generator: %d cores, %d lines, %d accesses",
			cfg.numCores, cfg.lines, cfg.accesses)
	}

	gen := trace.MakeGeneratorBuilder().
		WithPattern(pattern).
		WithSeed(cfg.seed).
		WithNumCores(cfg.numCores).
		WithWorkingSetLines(cfg.lines).
		WithPrefetchPercent(cfg.prefetch).
		WithWritebackPercent(cfg.writeback).
		WithRFOPercent(cfg.rfo).
		Build()

	w := trace.NewWriter(out)
	for i := 0; i < cfg.accesses; i++ {
		if err := w.Write(gen.Next()); err != nil {
			return err
		}
	}

	return w.Flush()
}
