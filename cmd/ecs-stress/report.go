package main

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plus3/kindecs/ecs"
)

const (
	reportTopKinds   = 10
	reportTopSystems = 5
)

// Report collects the settings and measurements of one stress run.
type Report struct {
	Duration time.Duration
	Interval time.Duration
	Seed     int64
	Entities int
	Kinds    int
	Systems  int

	Ticks         int64
	Elapsed       time.Duration
	FinalEntities int
	Churned       int64
	Faults        int64
	TickTimes     Latencies

	// Filled by Capture.
	BusiestKinds   []ecs.KindStats
	SlowestSystems []ecs.SystemStats

	GCPauses bool
	MemStart runtime.MemStats
	MemEnd   runtime.MemStats
}

// Latencies summarizes per-tick durations.
type Latencies struct {
	Samples []time.Duration

	Min, P50, P99, Max, Avg time.Duration
}

// Summarize fills the percentile fields from Samples. Samples keep their
// recorded order.
func (l *Latencies) Summarize() {
	if len(l.Samples) == 0 {
		return
	}

	sorted := slices.Clone(l.Samples)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	l.Min = sorted[0]
	l.Max = sorted[len(sorted)-1]
	l.P50 = percentile(sorted, 50)
	l.P99 = percentile(sorted, 99)
	l.Avg = total / time.Duration(len(sorted))
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// TicksPerSecond is the achieved tick rate over the whole run.
func (r *Report) TicksPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ticks) / r.Elapsed.Seconds()
}

// Capture records the largest kinds of the final store and the systems with
// the highest average update time.
func (r *Report) Capture(storage *ecs.Storage, scheduler *ecs.Scheduler) {
	kinds := storage.CollectStats().KindBreakdown
	slices.SortStableFunc(kinds, func(a, b ecs.KindStats) int {
		return cmp.Compare(b.ComponentCount, a.ComponentCount)
	})
	r.BusiestKinds = kinds[:min(len(kinds), reportTopKinds)]

	systems := scheduler.GetStats().Systems
	slices.SortStableFunc(systems, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.AvgDuration, a.AvgDuration)
	})
	r.SlowestSystems = systems[:min(len(systems), reportTopSystems)]
}

const reportTemplate = `
kindecs stress run
==================
seed {{.Seed}}, {{.Entities}} entities over {{.Kinds}} kinds, {{.Systems}} systems
ran {{.Elapsed}} of {{.Duration}} {{if .Interval}}at {{.Interval}} per tick{{else}}unthrottled{{end}}

ticks        {{.Ticks}} ({{printf "%.1f" .TicksPerSecond}}/s)
entities     {{.Entities}} -> {{.FinalEntities}} ({{.Churned}} churned)
faults       {{.Faults}}

tick time    min {{.TickTimes.Min}}  p50 {{.TickTimes.P50}}  p99 {{.TickTimes.P99}}  max {{.TickTimes.Max}}  avg {{.TickTimes.Avg}}
{{with .BusiestKinds}}
busiest kinds
{{range .}}  {{printf "%-14s" .Kind}} {{printf "%8d" .ComponentCount}} components on {{.EntityCount}} entities
{{end}}{{end}}{{with .SlowestSystems}}
slowest systems
{{range .}}  {{printf "%-14s" .Name}} avg {{.AvgDuration}}  max {{.MaxDuration}}  faults {{.FaultCount}}
{{end}}{{end}}
memory          start       end
  heap     {{mib .MemStart.HeapAlloc}}  {{mib .MemEnd.HeapAlloc}}
  sys      {{mib .MemStart.Sys}}  {{mib .MemEnd.Sys}}
  allocated over run  {{mib (since .MemEnd.TotalAlloc .MemStart.TotalAlloc)}}
  gc cycles           {{gcs .MemEnd.NumGC .MemStart.NumGC}}
{{- if .GCPauses}}
  gc pause total      {{pause .MemEnd.PauseTotalNs .MemStart.PauseTotalNs}}
{{- end}}
`

var reportFuncs = template.FuncMap{
	"mib": func(v uint64) string {
		return fmt.Sprintf("%8.2f MiB", float64(v)/(1<<20))
	},
	"since": func(end, start uint64) uint64 {
		return end - start
	},
	"gcs": func(end, start uint32) uint32 {
		return end - start
	},
	"pause": func(end, start uint64) time.Duration {
		return time.Duration(end - start)
	},
}

// Write renders the report as plain text.
func (r *Report) Write(w io.Writer) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return eris.Wrap(err, "parse report template")
	}
	return eris.Wrap(tmpl.Execute(w, r), "render report")
}
