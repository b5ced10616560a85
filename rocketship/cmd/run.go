package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/sarchlab/rocketship/datarecording"
	"github.com/sarchlab/rocketship/mem/cache/llc"
	"github.com/sarchlab/rocketship/mem/cache/replacement"
	"github.com/sarchlab/rocketship/mem/trace"
	"github.com/sarchlab/rocketship/monitoring"
	"github.com/sarchlab/rocketship/sim/hooking"
	"github.com/spf13/cobra"
)

const (
	summaryTable   = "replacement_stats"
	publishEvery   = 1 << 14
	heartbeatLabel = "Heartbeat"
)

type runConfig struct {
	tracePath   string
	pattern     string
	accesses    int
	warmup      int
	heartbeat   int
	policy      string
	numSets     int
	numWays     int
	numCores    int
	leaders     int
	maxPSEL     int
	seed        int64
	coldEscape  int
	record      string
	decisions   bool
	decisionLog string
	monitor     bool
	port        int
	openBrowser bool
}

func newRunCmd() *cobra.Command {
	cfg := runConfig{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a trace through the last-level cache.",
		Long: `Replay a trace file, or a synthetic access stream when no ` +
			`trace is given, through a last-level cache and print its hit ` +
			`and miss counters together with the replacement statistics.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			err := runReplay(ctx, cfg, cmd.OutOrStdout())
			if err != nil {
				log.Fatalf("Replay failed: %v", err)
			}
		},
	}

	f := runCmd.Flags()
	f.StringVar(&cfg.tracePath, "trace", envString("TRACE", ""),
		"Trace file to replay, - for stdin. Empty generates accesses.")
	f.StringVar(&cfg.pattern, "pattern", envString("PATTERN", "mixed"),
		"Synthetic access pattern: stream, loop or mixed.")
	f.IntVar(&cfg.accesses, "accesses", envInt("ACCESSES", 1000000),
		"Number of accesses to replay, 0 replays the whole trace.")
	f.IntVar(&cfg.warmup, "warmup", envInt("WARMUP", 0),
		"Accesses replayed before the counters are cleared.")
	f.IntVar(&cfg.heartbeat, "heartbeat", envInt("HEARTBEAT", 0),
		"Print and clear the replacement statistics every N accesses.")
	f.StringVar(&cfg.policy, "policy",
		envString("POLICY", llc.StrategyRocketship),
		"Replacement policy: lru or rocketship.")
	f.IntVar(&cfg.numSets, "sets", envInt("SETS", 2048), "Number of sets.")
	f.IntVar(&cfg.numWays, "ways", envInt("WAYS", 16), "Associativity.")
	f.IntVar(&cfg.numCores, "cores", envInt("CORES", 1), "Number of cores.")
	f.IntVar(&cfg.leaders, "leaders", envInt("LEADERS", 64),
		"Leader sets per heuristic.")
	f.IntVar(&cfg.maxPSEL, "max-psel", envInt("MAX_PSEL", 512),
		"Saturation value of the policy selector.")
	f.Int64Var(&cfg.seed, "seed", int64(envInt("SEED", 420)),
		"Seed of the engine and of the synthetic accesses.")
	f.IntVar(&cfg.coldEscape, "cold-escape", envInt("COLD_ESCAPE", 0),
		"Percent of cold-signature fills inserted at RRPV max-1.")
	f.StringVar(&cfg.record, "record", envString("RECORD", ""),
		"Record the run summary into the named SQLite database.")
	f.BoolVar(&cfg.decisions, "record-decisions",
		envBool("RECORD_DECISIONS", false),
		"Also record every replacement decision. Needs --record.")
	f.StringVar(&cfg.decisionLog, "decision-log",
		envString("DECISION_LOG", ""),
		"Write every replacement decision to this file as text.")
	f.BoolVar(&cfg.monitor, "monitor", envBool("MONITOR", false),
		"Serve progress and statistics over HTTP.")
	f.IntVar(&cfg.port, "port", envInt("MONITOR_PORT", 0),
		"Port of the monitor. A random port is used if not above 1000.")
	f.BoolVar(&cfg.openBrowser, "open-browser",
		envBool("OPEN_BROWSER", false),
		"Open the monitor page in a browser. Needs --monitor.")

	return runCmd
}

// accessSource yields accesses until io.EOF.
type accessSource interface {
	Next() (trace.Access, error)
}

type generatorSource struct {
	gen *trace.Generator
}

func (s generatorSource) Next() (trace.Access, error) {
	return s.gen.Next(), nil
}

func (cfg runConfig) buildCache() *llc.Cache {
	rb := replacement.MakeBuilder().
		WithNumLeaderSets(cfg.leaders).
		WithMaxPSEL(uint32(cfg.maxPSEL)).
		WithSeed(cfg.seed).
		WithColdEscapePercent(cfg.coldEscape)

	return llc.MakeBuilder().
		WithNumSets(cfg.numSets).
		WithWayAssociativity(cfg.numWays).
		WithNumCores(cfg.numCores).
		WithReplaceStrategy(cfg.policy).
		WithReplacementBuilder(rb).
		Build("LLC")
}

func (cfg runConfig) validate() error {
	switch {
	case cfg.policy != llc.StrategyLRU && cfg.policy != llc.StrategyRocketship:
		return fmt.Errorf("unknown policy %q", cfg.policy)
	case cfg.numSets < 1 || cfg.numWays < 1 || cfg.numCores < 1:
		return fmt.Errorf("invalid geometry %d sets x %d ways, %d cores",
			cfg.numSets, cfg.numWays, cfg.numCores)
	case cfg.policy == llc.StrategyRocketship &&
		cfg.numSets < 2*cfg.leaders:
		return fmt.Errorf("%d sets cannot hold %d leader sets per heuristic",
			cfg.numSets, cfg.leaders)
	case cfg.maxPSEL < 2:
		return fmt.Errorf("max PSEL must be at least 2, got %d", cfg.maxPSEL)
	case cfg.accesses < 0 || cfg.warmup < 0 || cfg.heartbeat < 0:
		return errors.New("access counts must not be negative")
	case cfg.tracePath == "" && cfg.accesses == 0:
		return errors.New("synthetic accesses need a positive --accesses")
	case cfg.decisions && cfg.record == "":
		return errors.New("--record-decisions needs --record")
	}

	return nil
}

// openSource returns the access source and a name describing it.
func (cfg runConfig) openSource() (accessSource, string, io.Closer, error) {
	switch cfg.tracePath {
	case "":
		pattern, err := trace.ParsePattern(cfg.pattern)
		if err != nil {
			return nil, "", nil, err
		}

		gen := trace.MakeGeneratorBuilder().
			WithPattern(pattern).
			WithSeed(cfg.seed).
			WithNumCores(cfg.numCores).
			WithPrefetchPercent(10).
			WithWritebackPercent(5).
			Build()

		return generatorSource{gen: gen}, "synthetic-" + pattern.String(),
			io.NopCloser(nil), nil
	case "-":
		return trace.NewReader(os.Stdin), "stdin", io.NopCloser(nil), nil
	default:
		file, err := os.Open(cfg.tracePath)
		if err != nil {
			return nil, "", nil, err
		}

		return trace.NewReader(file), cfg.tracePath, file, nil
	}
}

// runReplay replays the configured accesses and writes the report to out.
func runReplay(ctx context.Context, cfg runConfig, out io.Writer) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	source, traceName, closer, err := cfg.openSource()
	if err != nil {
		return err
	}
	defer closer.Close()

	cache := cfg.buildCache()

	var recorder datarecording.DataRecorder
	var execRecorder *datarecording.ExecRecorder

	if cfg.record != "" {
		recorder = datarecording.New(cfg.record)
		defer recorder.Close()

		execRecorder = datarecording.NewExecRecorder(recorder)
		execRecorder.Start()
		cfg.recordProperties(execRecorder, traceName)

		recorder.CreateTable(summaryTable, llc.Summary{})
	}

	counter, logCloser, err := cfg.attachTracers(cache, recorder)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	var monitor *monitoring.Monitor
	var bar *monitoring.ProgressBar

	if cfg.monitor {
		monitor = monitoring.NewMonitor().WithPortNumber(cfg.port)
		url := monitor.StartServer()

		if cfg.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
			}
		}

		bar = monitor.CreateProgressBar("Replay", uint64(cfg.accesses))
		defer monitor.CompleteProgressBar(bar)
	}

	r := replayer{
		cfg:     cfg,
		cache:   cache,
		source:  source,
		monitor: monitor,
		bar:     bar,
		out:     out,
	}

	replayed, err := r.replay(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Replayed %d accesses from %s\n", replayed, traceName)
	printReport(out, cache)
	printDecisionCounts(out, counter)

	if recorder != nil {
		summary := cache.Summarize(llc.Summary{
			ID:      xid.New().String(),
			Trace:   traceName,
			MaxPSEL: cfg.maxPSEL,
			Seed:    cfg.seed,
		})
		recorder.InsertData(summaryTable, summary)

		execRecorder.Property("Replayed Accesses", strconv.Itoa(replayed))
		execRecorder.End()
	}

	return nil
}

func (cfg runConfig) recordProperties(
	e *datarecording.ExecRecorder,
	traceName string,
) {
	e.Property("Trace", traceName)
	e.Property("Policy", cfg.policy)
	e.Property("Sets", strconv.Itoa(cfg.numSets))
	e.Property("Ways", strconv.Itoa(cfg.numWays))
	e.Property("Cores", strconv.Itoa(cfg.numCores))
	e.Property("Leader Sets", strconv.Itoa(cfg.leaders))
	e.Property("Max PSEL", strconv.Itoa(cfg.maxPSEL))
	e.Property("Seed", strconv.FormatInt(cfg.seed, 10))
}

// attachTracers hooks the decision tracers onto the engine. The returned
// closer closes the decision log.
func (cfg runConfig) attachTracers(
	cache *llc.Cache,
	recorder datarecording.DataRecorder,
) (*hooking.CountTracer, io.Closer, error) {
	engine := cache.Engine()
	if engine == nil {
		return nil, io.NopCloser(nil), nil
	}

	counter := hooking.NewCountTracer(nil)
	engine.AcceptHook(counter)

	if cfg.decisions {
		engine.AcceptHook(trace.NewDBTracer(recorder))
	}

	if cfg.decisionLog != "" {
		file, err := os.Create(cfg.decisionLog)
		if err != nil {
			return nil, nil, err
		}

		engine.AcceptHook(trace.NewTracer(log.New(file, "", 0)))

		return counter, file, nil
	}

	return counter, io.NopCloser(nil), nil
}

type replayer struct {
	cfg     runConfig
	cache   *llc.Cache
	source  accessSource
	monitor *monitoring.Monitor
	bar     *monitoring.ProgressBar
	out     io.Writer
}

// replay runs until the source is drained, the access limit is reached or
// ctx is cancelled. It returns the number of accesses replayed after warmup.
func (r *replayer) replay(ctx context.Context) (int, error) {
	total := 0
	measured := 0

	for r.cfg.accesses == 0 || total < r.cfg.accesses+r.cfg.warmup {
		if total%publishEvery == 0 {
			if ctx.Err() != nil {
				fmt.Fprintln(os.Stderr, "Interrupted, reporting partial results")
				break
			}

			r.publish()
		}

		a, err := r.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return measured, err
		}

		if err := r.cache.Validate(a); err != nil {
			return measured, fmt.Errorf("access %d: %w", total, err)
		}

		r.cache.Access(a)
		total++

		if total == r.cfg.warmup {
			r.endWarmup()
			continue
		}

		if total > r.cfg.warmup {
			measured++
			r.tick(measured)
		}
	}

	r.publish()

	return measured, nil
}

func (r *replayer) endWarmup() {
	fmt.Fprintf(r.out, "Warmup complete after %d accesses\n", r.cfg.warmup)

	r.cache.ResetStats()
	if engine := r.cache.Engine(); engine != nil {
		engine.ReportAndResetStats()
	}
}

func (r *replayer) tick(measured int) {
	if r.bar != nil {
		r.bar.IncrementFinished(1)
	}

	if r.cfg.heartbeat == 0 || measured%r.cfg.heartbeat != 0 {
		return
	}

	engine := r.cache.Engine()
	if engine == nil {
		return
	}

	fmt.Fprintf(r.out, "%s %d\n", heartbeatLabel, measured)
	s := engine.ReportAndResetStats()
	s.Fprint(r.out)
}

func (r *replayer) publish() {
	if r.monitor == nil {
		return
	}

	cacheStats := r.cache.Stats()
	r.monitor.PublishStats(r.cache.Name(), &cacheStats)

	if engine := r.cache.Engine(); engine != nil {
		engineStats := engine.Stats()
		r.monitor.PublishStats(engine.Name(), &engineStats)
	}
}

func printReport(out io.Writer, cache *llc.Cache) {
	stats := cache.Stats()
	stats.Fprint(out, cache.Name())

	fmt.Fprintf(out, "%s miss rate: %.4f demand miss rate: %.4f\n",
		cache.Name(), stats.MissRate(), stats.DemandMissRate())

	if engine := cache.Engine(); engine != nil {
		s := engine.Stats()
		s.Fprint(out)
	}
}

// printDecisionCounts reports the engine hook invocations, warmup included.
func printDecisionCounts(out io.Writer, counter *hooking.CountTracer) {
	if counter == nil {
		return
	}

	for _, name := range counter.PosNames() {
		fmt.Fprintf(out, "%s: %d\n", name, counter.Count(name))
	}
}
