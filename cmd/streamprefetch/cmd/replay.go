package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/streamprefetch/datarecording"
	"github.com/sarchlab/streamprefetch/monitor"
	"github.com/sarchlab/streamprefetch/persist"
	"github.com/sarchlab/streamprefetch/prefetcher"
	"github.com/sarchlab/streamprefetch/selector"
	"github.com/sarchlab/streamprefetch/sim/hooking"
	"github.com/sarchlab/streamprefetch/simhost"
)

var replayFlags struct {
	tracePath string

	numSets int
	numWays int
	mshr    int

	sqlitePath string

	clickhouseHost     string
	clickhousePort     int
	clickhouseDatabase string
	clickhouseUser     string
	clickhousePassword string
	clickhouseBatch    int

	startMonitor bool
	monitorPort  int
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay an address trace against the dueling stream prefetchers.",
	RunE:  runReplay,
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayFlags.tracePath, "trace", "", "path to the address trace to replay (required)")
	f.IntVar(&replayFlags.numSets, "sets", 64, "number of cache sets, must be a power of two")
	f.IntVar(&replayFlags.numWays, "ways", 8, "cache associativity")
	f.IntVar(&replayFlags.mshr, "mshr", 16, "MSHR capacity")

	f.StringVar(&replayFlags.sqlitePath, "sqlite", "", "if set, record stream/pattern events to this SQLite file")

	f.StringVar(&replayFlags.clickhouseHost, "clickhouse-host", "", "if set (with --clickhouse-database), record events to this ClickHouse host instead of SQLite")
	f.IntVar(&replayFlags.clickhousePort, "clickhouse-port", 9000, "ClickHouse port")
	f.StringVar(&replayFlags.clickhouseDatabase, "clickhouse-database", "", "ClickHouse database name")
	f.StringVar(&replayFlags.clickhouseUser, "clickhouse-user", "default", "ClickHouse username")
	f.StringVar(&replayFlags.clickhousePassword, "clickhouse-password", "", "ClickHouse password")
	f.IntVar(&replayFlags.clickhouseBatch, "clickhouse-batch", 1000, "ClickHouse write batch size")

	f.BoolVar(&replayFlags.startMonitor, "monitor", false, "start the HTTP monitor and keep serving after the replay until interrupted")
	f.IntVar(&replayFlags.monitorPort, "monitor-port", 0, "monitor server port (0 picks a random port)")

	_ = replayCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, _ []string) error {
	entries, err := readTrace(replayFlags.tracePath)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	cache := simhost.NewCache(simhost.Config{
		NumSets:      replayFlags.numSets,
		NumWays:      replayFlags.numWays,
		MSHRCapacity: replayFlags.mshr,
	})

	engEnhanced := prefetcher.NewEnhanced(cache, applyEnvOverrides(prefetcher.DefaultEnhancedConfig())).
		WithName("enhanced")
	engTransformer := prefetcher.NewTransformer(cache, applyEnvOverrides(prefetcher.DefaultTransformerConfig())).
		WithName("transformer")

	coreA := &simhost.TaggingCore{Engine: engEnhanced, Cache: cache, Issuer: selector.TagCoreA(0)}
	coreB := &simhost.TaggingCore{Engine: engTransformer, Cache: cache, Issuer: selector.TagCoreB(0)}

	sel := selector.New(coreA, coreB, selector.DefaultConfig(replayFlags.numSets, replayFlags.numWays)).
		WithName("dueling-selector")
	cache.SetNotifier(sel)

	busyTracer := hooking.NewBusyTimeTracer(engTransformer, nil)
	avgTracer := hooking.NewAverageTimeTracer(engTransformer, nil)
	tagTracer := hooking.NewTagCountTracer(nil, engTransformer)
	for _, eng := range []*prefetcher.Engine{engEnhanced, engTransformer} {
		eng.AcceptHook(busyTracer)
		eng.AcceptHook(avgTracer)
		eng.AcceptHook(tagTagHook{tagTracer})
	}

	// engTransformer's clock also times recorded rows for engEnhanced's
	// events, so the recorder has a single time source. The selector
	// routes each access to one engine only and each clock advances per
	// miss, so engEnhanced's rows carry engTransformer's clock, not its own.
	flushRecorder := setUpRecorder(engTransformer, engEnhanced, engTransformer)

	if replayFlags.startMonitor {
		srv := monitor.NewServer(sel).WithPortNumber(replayFlags.monitorPort)
		srv.StartServer()
	}

	for _, entry := range entries {
		hit, metadataIn, usefulPrefetch := cache.Probe(entry.addr)

		metadataOut := sel.OnAccess(entry.addr, 0, hit, usefulPrefetch, entry.accessType, metadataIn)
		if !hit {
			cache.InstallDemand(entry.addr, metadataOut)
		}

		sel.OnCycle()
		cache.Drain(1)
	}

	busyTracer.TerminateAllTasks()

	printReport(sel, cache, busyTracer, avgTracer, tagTracer)

	if flushRecorder != nil {
		flushRecorder()
	}

	if replayFlags.startMonitor {
		waitForInterrupt()
	}

	if flushRecorder != nil {
		atexit.Exit(0)
	}

	return nil
}

// tagTagHook bridges HookPosTaskTag events to TagCountTracer.TagTask.
// TagCountTracer, unlike BusyTimeTracer and TotalAvgTimeTracer, has no
// Func method of its own in sim/hooking even in the teacher's source, so
// it cannot be registered as a hooking.Hook directly.
type tagTagHook struct {
	tracer *hooking.TagCountTracer
}

func (h tagTagHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos == hooking.HookPosTaskTag {
		h.tracer.TagTask(ctx.Item.(hooking.TaskTag))
	}
}

// setUpRecorder wires a persist.Recorder into every engine in engines if
// a persistence backend was requested on the command line, returning a
// flush function to call once replay finishes, or nil if none was
// requested.
func setUpRecorder(timeTeller hooking.TimeTeller, engines ...*prefetcher.Engine) func() {
	var db datarecording.DataRecorder

	switch {
	case replayFlags.clickhouseHost != "":
		db = datarecording.NewFastClickHouseRecorder(
			replayFlags.clickhouseHost, replayFlags.clickhousePort,
			replayFlags.clickhouseDatabase, replayFlags.clickhouseUser,
			replayFlags.clickhousePassword, replayFlags.clickhouseBatch,
		)
	case replayFlags.sqlitePath != "":
		db = datarecording.New(replayFlags.sqlitePath)
	default:
		return nil
	}

	recorder := persist.New(db, timeTeller)
	for _, eng := range engines {
		eng.AcceptHook(recorder)
	}

	return recorder.Flush
}

func printReport(
	sel *selector.Selector, cache *simhost.Cache,
	busy *hooking.BusyTimeTracer, avg *hooking.TotalAvgTimeTracer, tags *hooking.TagCountTracer,
) {
	enhanced, transformer := sel.FinalStats()
	cacheStats := cache.Stats()

	fmt.Printf("enhanced:    %+v\n", enhanced)
	fmt.Printf("transformer: %+v\n", transformer)
	fmt.Printf("policy selector: %d\n", sel.PolicySelector())
	fmt.Printf("cache: accesses=%d hits=%d misses=%d prefetches_filled=%d prefetches_useful=%d prefetches_dropped=%d\n",
		cacheStats.Accesses, cacheStats.Hits, cacheStats.Misses,
		cacheStats.PrefetchesFilled, cacheStats.PrefetchesUseful, cacheStats.PrefetchesDropped)
	fmt.Printf("busy time (>=1 active stream): %.0f\n", busy.BusyTime())
	fmt.Printf("average stream lifetime: %.2f over %d streams\n", avg.AverageTime(), avg.TotalCount())

	for _, name := range tags.GetTagNames() {
		fmt.Printf("tag %q applied: %d\n", name, tags.GetTagCount(name))
	}
}

func waitForInterrupt() {
	fmt.Fprintln(os.Stderr, "monitor running; press Ctrl-C to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
