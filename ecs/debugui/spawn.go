package debugui

import "github.com/plus3/kindecs/ecs"

// Windows groups the inspector windows spawned by SpawnDebugUI.
type Windows struct {
	EntityBrowser      *EntityBrowserComponent
	ComponentInspector *ComponentInspectorComponent
	KindViewer         *KindViewerComponent
	PerformanceStats   *PerformanceStatsComponent
	QueryDebugger      *QueryDebuggerComponent
}

// SpawnDebugUI creates one entity per inspector window. Each entity carries
// the window component and an ImguiItem that renders it, so an ImguiSystem
// draws them all. Picking a kind in the kind viewer filters the entity
// browser, and the browser's selection drives the component inspector.
func SpawnDebugUI(storage *ecs.Storage, scheduler *ecs.Scheduler) *Windows {
	w := &Windows{
		EntityBrowser:      NewEntityBrowserComponent(100),
		ComponentInspector: NewComponentInspectorComponent(),
		KindViewer:         NewKindViewerComponent(),
		PerformanceStats:   NewPerformanceStatsComponent(120, scheduler),
		QueryDebugger:      NewQueryDebuggerComponent(),
	}
	timer := NewFrameTimer()

	storage.CreateEntity(w.EntityBrowser, &ImguiItem{Render: func() {
		w.EntityBrowser.Render(storage)
	}})
	storage.CreateEntity(w.ComponentInspector, &ImguiItem{Render: func() {
		w.ComponentInspector.Render(storage, w.EntityBrowser.GetSelectedEntity())
	}})
	storage.CreateEntity(w.KindViewer, &ImguiItem{Render: func() {
		if kind := w.KindViewer.Render(storage); kind != nil {
			w.EntityBrowser.SetKindFilter(kind)
		}
	}})
	storage.CreateEntity(w.PerformanceStats, &ImguiItem{Render: func() {
		w.PerformanceStats.Render(storage, timer.GetDeltaTime())
	}})
	storage.CreateEntity(w.QueryDebugger, &ImguiItem{Render: func() {
		w.QueryDebugger.Render(storage)
	}})

	return w
}
