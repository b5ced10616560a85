package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"text/tabwriter"

	"github.com/sarchlab/rocketship/datarecording"
	"github.com/sarchlab/rocketship/mem/cache/llc"
	"github.com/spf13/cobra"
)

type reportConfig struct {
	asCSV    bool
	baseline string
	orderBy  string
}

var reportColumns = []string{
	"ID", "Trace", "Policy", "Sets", "Ways", "Cores", "MaxPSEL",
	"Accesses", "Misses", "MissRate", "DemandMissRate", "MissReduction",
	"Switches", "PingPong", "FinalPSEL", "FinalState",
}

func newReportCmd() *cobra.Command {
	cfg := reportConfig{}

	reportCmd := &cobra.Command{
		Use:   "report [database...]",
		Short: "Compare the runs recorded in one or more databases.",
		Long: `Print the replacement_stats rows of the given databases. ` +
			`MissReduction compares each run with the baseline policy run ` +
			`on the same trace and geometry.`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			summaries, err := loadSummaries(cmd.Context(), args, cfg.orderBy)
			if err != nil {
				log.Fatalf("Cannot load runs: %v", err)
			}

			err = writeReport(cmd.OutOrStdout(), summaries, cfg)
			if err != nil {
				log.Fatalf("Cannot write report: %v", err)
			}
		},
	}

	reportCmd.Flags().BoolVar(&cfg.asCSV, "csv", false,
		"Write comma-separated values instead of a table.")
	reportCmd.Flags().StringVar(&cfg.baseline, "baseline", llc.StrategyLRU,
		"Policy the miss reduction is measured against.")
	reportCmd.Flags().StringVar(&cfg.orderBy, "order-by", "Trace, Policy",
		"SQL ordering of the rows within each database.")

	return reportCmd
}

func loadSummaries(
	ctx context.Context,
	dbFiles []string,
	orderBy string,
) ([]llc.Summary, error) {
	var summaries []llc.Summary

	for _, dbFile := range dbFiles {
		reader, err := datarecording.NewReader(dbFile)
		if err != nil {
			return nil, err
		}

		reader.MapTable(summaryTable, llc.Summary{})

		results, _, err := reader.Query(ctx, summaryTable,
			datarecording.QueryParams{OrderBy: orderBy})
		reader.Close()

		if err != nil {
			return nil, fmt.Errorf("%s: %w", dbFile, err)
		}

		for _, r := range results {
			summaries = append(summaries, *r.(*llc.Summary))
		}
	}

	return summaries, nil
}

type baselineKey struct {
	trace    string
	numSets  int
	numWays  int
	numCores int
}

func keyOf(s llc.Summary) baselineKey {
	return baselineKey{
		trace:    s.Trace,
		numSets:  s.NumSets,
		numWays:  s.NumWays,
		numCores: s.NumCores,
	}
}

// missReduction returns, per run, the share of baseline misses the run
// avoids. Runs without a baseline get an empty cell.
func missReduction(summaries []llc.Summary, baseline string) []string {
	baseMisses := make(map[baselineKey]uint64)

	for _, s := range summaries {
		if s.Policy != baseline {
			continue
		}

		if _, found := baseMisses[keyOf(s)]; !found {
			baseMisses[keyOf(s)] = s.Misses
		}
	}

	cells := make([]string, len(summaries))

	for i, s := range summaries {
		base, found := baseMisses[keyOf(s)]
		if !found || base == 0 {
			continue
		}

		reduction := 1 - float64(s.Misses)/float64(base)
		cells[i] = strconv.FormatFloat(reduction, 'f', 4, 64)
	}

	return cells
}

func reportRow(s llc.Summary, reduction string) []string {
	return []string{
		s.ID,
		s.Trace,
		s.Policy,
		strconv.Itoa(s.NumSets),
		strconv.Itoa(s.NumWays),
		strconv.Itoa(s.NumCores),
		strconv.Itoa(s.MaxPSEL),
		strconv.FormatUint(s.Accesses, 10),
		strconv.FormatUint(s.Misses, 10),
		strconv.FormatFloat(s.MissRate, 'f', 4, 64),
		strconv.FormatFloat(s.DemandMissRate, 'f', 4, 64),
		reduction,
		strconv.FormatUint(s.PolicySwitches, 10),
		strconv.FormatUint(s.PolicyPingPong, 10),
		strconv.Itoa(s.FinalPSEL),
		s.FinalState,
	}
}

func writeReport(w io.Writer, summaries []llc.Summary, cfg reportConfig) error {
	reductions := missReduction(summaries, cfg.baseline)

	if cfg.asCSV {
		cw := csv.NewWriter(w)

		if err := cw.Write(reportColumns); err != nil {
			return err
		}

		for i, s := range summaries {
			if err := cw.Write(reportRow(s, reductions[i])); err != nil {
				return err
			}
		}

		cw.Flush()

		return cw.Error()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	writeTabbed(tw, reportColumns)

	for i, s := range summaries {
		writeTabbed(tw, reportRow(s, reductions[i]))
	}

	return tw.Flush()
}

func writeTabbed(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}

		fmt.Fprint(w, c)
	}

	fmt.Fprintln(w)
}
