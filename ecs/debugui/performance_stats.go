package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

// NewPerformanceStatsComponent records frame times over historyFrames frames.
// scheduler may be nil, in which case the system table is omitted.
func NewPerformanceStatsComponent(historyFrames int, scheduler *ecs.Scheduler) *PerformanceStatsComponent {
	if historyFrames <= 0 {
		historyFrames = 120
	}
	return &PerformanceStatsComponent{
		scheduler:     scheduler,
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		frameIndex:    0,
	}
}

// Record stores one frame time in seconds.
func (ps *PerformanceStatsComponent) Record(deltaTime float32) {
	ps.frameHistory[ps.frameIndex] = deltaTime * 1000.0
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean recorded frame time in milliseconds.
func (ps *PerformanceStatsComponent) AverageFrameTime() float32 {
	var total float32
	for _, ft := range ps.frameHistory {
		total += ft
	}
	return total / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render(storage *ecs.Storage, deltaTime float32) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.Record(deltaTime)

	stats := storage.CollectStats()

	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.EntityCount))
	imgui.Text(fmt.Sprintf("Components: %d", stats.ComponentCount))
	imgui.Text(fmt.Sprintf("Kinds: %d", stats.KindCount))

	avgFrameTime := ps.AverageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Kind Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("KindStatsTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Kind")
			imgui.TableSetupColumn("Entities")
			imgui.TableSetupColumn("Components")
			imgui.TableHeadersRow()

			for _, ks := range stats.KindBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(string(ks.Kind))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", ks.EntityCount))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", ks.ComponentCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if ps.scheduler != nil && imgui.TreeNodeStr("System Details") {
		ps.renderSystems(ps.scheduler.GetStats())
		imgui.TreePop()
	}

	imgui.End()
}

func (ps *PerformanceStatsComponent) renderSystems(stats *ecs.SchedulerStats) {
	imgui.Text(fmt.Sprintf("Ticks: %d  Executions: %d  Faults: %d", stats.Ticks, stats.TotalExecutions, stats.TotalFaults))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if !imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}
	imgui.TableSetupColumn("System")
	imgui.TableSetupColumn("Runs")
	imgui.TableSetupColumn("Matched")
	imgui.TableSetupColumn("Avg")
	imgui.TableSetupColumn("Faults")
	imgui.TableHeadersRow()

	for _, sys := range stats.Systems {
		imgui.TableNextRow()
		imgui.TableNextColumn()
		name := sys.Name
		if sys.Startup {
			name += " (startup)"
		}
		imgui.Text(name)
		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", sys.ExecutionCount))
		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", sys.LastMatched))
		imgui.TableNextColumn()
		imgui.Text(sys.AvgDuration.String())
		imgui.TableNextColumn()
		imgui.Text(fmt.Sprintf("%d", sys.FaultCount))
	}

	imgui.EndTable()
}

type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

func (ft *FrameTimer) GetDeltaTime() float32 {
	now := time.Now()
	delta := float32(now.Sub(ft.lastFrameTime).Seconds())
	ft.lastFrameTime = now
	return delta
}
