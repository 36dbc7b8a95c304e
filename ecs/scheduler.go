package ecs

import (
	"context"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	Ticks           uint64
	TotalExecutions int64
	TotalFaults     int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Startup        bool
	ExecutionCount int64
	FaultCount     int64
	LastMatched    int
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	startup        bool
	executionCount int64
	faultCount     int64
	lastMatched    int
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (st *systemStatsInternal) record(duration time.Duration, matched int, faulted bool) {
	st.executionCount++
	st.lastMatched = matched
	st.lastDuration = duration
	st.totalDuration += duration

	if duration < st.minDuration {
		st.minDuration = duration
	}
	if duration > st.maxDuration {
		st.maxDuration = duration
	}
	if faulted {
		st.faultCount++
	}
}

type scheduledSystem struct {
	system System
	stats  *systemStatsInternal
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the logger used for fault and flush reports.
func WithLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithFaultHandler replaces the default fault handler, which logs the fault.
func WithFaultHandler(fn func(*SystemFault)) SchedulerOption {
	return func(s *Scheduler) {
		s.onFault = fn
	}
}

// Scheduler runs startup systems once and then runs the ordered system list
// on every pass. Systems run strictly one after another in registration
// order, so each system sees the writes of the ones before it.
type Scheduler struct {
	storage  *Storage
	commands *Commands
	startup  []*scheduledSystem
	systems  []*scheduledSystem
	started  bool
	tick     uint64
	logger   zerolog.Logger
	onFault  func(*SystemFault)
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		storage:  storage,
		commands: newCommands(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onFault == nil {
		s.onFault = s.logFault
	}
	return s
}

// Storage returns the store the scheduler's systems run against.
func (s *Scheduler) Storage() *Storage {
	return s.storage
}

// Commands returns the deferred command buffer flushed after every pass.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// Tick returns the number of completed passes.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}

// AddSystem appends a system to the per-tick list.
func (s *Scheduler) AddSystem(system System) *Scheduler {
	s.systems = append(s.systems, s.schedule(system, false))
	return s
}

// AddStartupSystem appends a system that Startup runs once.
func (s *Scheduler) AddStartupSystem(system System) *Scheduler {
	s.startup = append(s.startup, s.schedule(system, true))
	return s
}

func (s *Scheduler) schedule(system System, startup bool) *scheduledSystem {
	return &scheduledSystem{
		system: system,
		stats: &systemStatsInternal{
			name:        systemName(system),
			startup:     startup,
			minDuration: time.Duration(1<<63 - 1),
		},
	}
}

func systemName(system System) string {
	if named, ok := system.(Named); ok {
		return named.Name()
	}

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}

// Startup runs every startup system once with a zero delta. Calling it
// again has no effect.
func (s *Scheduler) Startup() {
	if s.started {
		return
	}
	s.started = true

	for _, entry := range s.startup {
		s.runSystem(entry, 0)
	}
	s.flush()
}

// Once runs all per-tick systems once with the given delta, in order, then
// flushes the command buffer.
func (s *Scheduler) Once(delta float64) {
	s.tick++
	for _, entry := range s.systems {
		s.runSystem(entry, delta)
	}
	s.flush()
}

func (s *Scheduler) runSystem(entry *scheduledSystem, delta float64) {
	matched := s.storage.Filter(entry.system.Query())

	start := time.Now()
	fault := s.invoke(entry, delta, matched)
	entry.stats.record(time.Since(start), len(matched), fault != nil)

	if fault != nil {
		s.onFault(fault)
	}
}

func (s *Scheduler) invoke(entry *scheduledSystem, delta float64, matched [][]Component) (fault *SystemFault) {
	defer func() {
		if r := recover(); r != nil {
			fault = newSystemFault(entry.stats.name, s.tick, r)
		}
	}()
	entry.system.Update(delta, matched)
	return nil
}

// deferredSystemName is the system reported for a panicking deferred function.
const deferredSystemName = "deferred"

func (s *Scheduler) flush() {
	if s.commands.Len() == 0 {
		return
	}
	_, err := s.commands.flush(s.storage, func(r any) {
		s.onFault(newSystemFault(deferredSystemName, s.tick, r))
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint64("tick", s.tick).Msg("Dropped deferred commands")
	}
}

func (s *Scheduler) logFault(fault *SystemFault) {
	s.logger.Error().
		Err(fault.Err).
		Str("system", fault.System).
		Uint64("tick", fault.Tick).
		Bytes("stack", fault.Stack).
		Msg("System faulted")
}

// Run executes all systems repeatedly at the given interval until the context
// is cancelled. The delta passed to systems is the measured wall time between
// firings, in milliseconds, so it grows when a pass overruns. Use
// engine.ForScheduler for a loop that always passes the fixed interval.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	s.Startup()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := Milliseconds(now.Sub(lastTime))
			lastTime = now
			s.Once(delta)
		}
	}
}

// Milliseconds converts a duration into the float delta systems receive.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// GetStats returns statistics about system execution. Startup systems are
// listed first.
func (s *Scheduler) GetStats() *SchedulerStats {
	entries := make([]*scheduledSystem, 0, len(s.startup)+len(s.systems))
	entries = append(entries, s.startup...)
	entries = append(entries, s.systems...)

	stats := &SchedulerStats{
		SystemCount: len(entries),
		Ticks:       s.tick,
		Systems:     make([]SystemStats, len(entries)),
	}

	for i, entry := range entries {
		internal := entry.stats
		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		stats.Systems[i] = SystemStats{
			Name:           internal.name,
			Startup:        internal.startup,
			ExecutionCount: internal.executionCount,
			FaultCount:     internal.faultCount,
			LastMatched:    internal.lastMatched,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		stats.TotalExecutions += internal.executionCount
		stats.TotalFaults += internal.faultCount
	}

	return stats
}
