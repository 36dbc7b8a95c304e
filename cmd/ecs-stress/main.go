package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
	"github.com/plus3/kindecs/internal/logging"
)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 10000, "The initial number of entities to create.")
	kindCount := flag.Int("kinds", 250, "The number of distinct component kinds to generate.")
	systemCount := flag.Int("systems", 50, "The number of generated systems.")
	churn := flag.Float64("churn", 0, "Fraction of entities replaced every tick.")
	interval := flag.Duration("interval", 0, "Tick interval. Zero runs ticks back to back.")
	sampleEvery := flag.Duration("sample", time.Second, "How often progress is logged.")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed.")
	logLevel := flag.String("log-level", "info", "Log level.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetGlobal(logger)

	if *kindCount <= 0 || *systemCount < 0 || *entityCount < 0 {
		logger.Fatal().Msg("kinds must be positive; systems and entities must not be negative")
	}

	logger.Info().Msg("Starting ECS stress test...")

	rng := rand.New(rand.NewSource(*seed))
	kinds := generateKinds(*kindCount)

	// 1. Setup Storage and Scheduler
	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage, ecs.WithLogger(logging.Component(logger, "scheduler")))
	for i := 0; i < *systemCount; i++ {
		scheduler.AddSystem(newStressSystem(i, rng, kinds))
	}
	churner := &churnSystem{storage: storage, commands: scheduler.Commands(), rng: rng, kinds: kinds, rate: *churn}
	if *churn > 0 {
		scheduler.AddSystem(churner)
	}

	// 2. Populate Storage with initial entities
	logger.Info().Int("entities", *entityCount).Msg("Populating storage")
	for i := 0; i < *entityCount; i++ {
		storage.CreateEntity(randomComponents(rng, kinds, rng.Intn(5)+1)...)
	}
	logger.Info().Msg("Population complete")

	// 3. Run the simulation loop
	report := &Report{
		Duration: *duration,
		Interval: *interval,
		Seed:     *seed,
		Entities: *entityCount,
		Kinds:    *kindCount,
		Systems:  *systemCount,
		GCPauses: *gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStart)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	var prog progress
	logger.Info().Dur("duration", *duration).Dur("interval", *interval).Msg("Running simulation")

	startTime := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runTicks(ctx, scheduler, *interval, report, &prog, logger)
	})
	g.Go(func() error {
		sample(ctx, *sampleEvery, &prog, logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("Stress run failed")
	}

	report.Elapsed = time.Since(startTime)
	report.Ticks = prog.ticks.Load()
	report.FinalEntities = storage.Len()
	report.Churned = churner.churned
	report.Faults = scheduler.GetStats().TotalFaults
	report.TickTimes.Summarize()
	report.Capture(storage, scheduler)
	runtime.ReadMemStats(&report.MemEnd)

	logger.Info().Msg("Simulation finished")

	// 4. Print the report
	if err := report.Write(os.Stdout); err != nil {
		logger.Fatal().Err(err).Msg("Failed to write report")
	}
}

// progress is written by the tick goroutine and read by the sampler.
type progress struct {
	ticks    atomic.Int64
	entities atomic.Int64
}

// runTicks drives the scheduler either back to back or through the fixed
// interval engine, timing every pass.
func runTicks(ctx context.Context, scheduler *ecs.Scheduler, interval time.Duration, report *Report, p *progress, logger zerolog.Logger) error {
	timed := func(delta float64) {
		updateStart := time.Now()
		scheduler.Once(delta)
		report.TickTimes.Samples = append(report.TickTimes.Samples, time.Since(updateStart))
		p.ticks.Add(1)
		p.entities.Store(int64(scheduler.Storage().Len()))
	}

	if interval <= 0 {
		scheduler.Startup()
		lastFrameTime := time.Now()
		for ctx.Err() == nil {
			deltaTime := time.Since(lastFrameTime)
			lastFrameTime = time.Now()
			timed(ecs.Milliseconds(deltaTime))
		}
		return nil
	}

	eng, err := engine.New(
		func(*ecs.Storage) {},
		engine.WithState(scheduler.Storage()),
		engine.WithInterval[*ecs.Storage](interval),
		engine.WithLogger[*ecs.Storage](logging.Component(logger, "engine")),
		engine.WithSystems(func(delta time.Duration, _ *ecs.Storage) {
			timed(ecs.Milliseconds(delta))
		}),
	)
	if err != nil {
		return err
	}
	scheduler.Startup()
	return eng.Run(ctx)
}

func sample(ctx context.Context, every time.Duration, p *progress, logger zerolog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ticks := p.ticks.Load()
			logger.Info().
				Int64("ticks", ticks).
				Int64("ticks_per_sample", ticks-last).
				Int64("entities", p.entities.Load()).
				Msg("Progress")
			last = ticks
		}
	}
}
