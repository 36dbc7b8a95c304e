package debugui

import (
	"github.com/plus3/kindecs/ecs"
)

const (
	EntityBrowserKind      ecs.Kind = "debugui.entity_browser"
	ComponentInspectorKind ecs.Kind = "debugui.component_inspector"
	KindViewerKind         ecs.Kind = "debugui.kind_viewer"
	PerformanceStatsKind   ecs.Kind = "debugui.performance_stats"
	QueryDebuggerKind      ecs.Kind = "debugui.query_debugger"
)

type EntityBrowserComponent struct {
	cache              *EntityBrowserCache
	selectedEntityId   ecs.EntityId
	filterText         string
	filterKind         *ecs.Kind
	maxEntitiesPerPage int
	currentPage        int
}

func (*EntityBrowserComponent) Kind() ecs.Kind { return EntityBrowserKind }

type ComponentInspectorComponent struct {
	selectedEntityId ecs.EntityId
}

func (*ComponentInspectorComponent) Kind() ecs.Kind { return ComponentInspectorKind }

type KindViewerComponent struct {
	cache        *KindViewerCache
	selectedKind *ecs.Kind
}

func (*KindViewerComponent) Kind() ecs.Kind { return KindViewerKind }

type PerformanceStatsComponent struct {
	scheduler     *ecs.Scheduler
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

func (*PerformanceStatsComponent) Kind() ecs.Kind { return PerformanceStatsKind }

type QueryDebuggerComponent struct {
	selectedKinds map[ecs.Kind]bool
	cache         *QueryDebuggerCache
}

func (*QueryDebuggerComponent) Kind() ecs.Kind { return QueryDebuggerKind }
