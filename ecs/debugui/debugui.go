// Package debugui provides immediate-mode GUI integration for ECS applications using Dear ImGui.
// It manages ImGui rendering and input state through ECS components and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/kindecs/ecs"
)

const (
	ItemKind       ecs.Kind = "debugui.item"
	InputStateKind ecs.Kind = "debugui.input_state"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

func (*ImguiItem) Kind() ecs.Kind { return ItemKind }

// ImguiInputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

func (*ImguiInputState) Kind() ecs.Kind { return InputStateKind }

// ImguiSystem collects every ImguiItem render function and refreshes every
// ImguiInputState with the current capture state. When Commands is set the
// renders are deferred until the scheduler flushes, otherwise they run inline.
type ImguiSystem struct {
	Commands *ecs.Commands
	// Input reads the capture state. Nil reads it from the current imgui context.
	Input func() ImguiInputState
}

func (i *ImguiSystem) Name() string { return "ImguiSystem" }

func (i *ImguiSystem) Query() ecs.Query {
	return ecs.NewQuery(ItemKind, InputStateKind)
}

func (i *ImguiSystem) Update(_ float64, matched [][]ecs.Component) {
	var input *ImguiInputState

	for _, components := range matched {
		for _, state := range ecs.ComponentsOf[*ImguiInputState](components, InputStateKind) {
			if input == nil {
				current := i.readInput()
				input = &current
			}
			*state = *input
		}

		for _, item := range ecs.ComponentsOf[*ImguiItem](components, ItemKind) {
			if item.Render == nil {
				continue
			}
			if i.Commands != nil {
				i.Commands.Defer(item.Render)
			} else {
				item.Render()
			}
		}
	}
}

func (i *ImguiSystem) readInput() ImguiInputState {
	if i.Input != nil {
		return i.Input()
	}
	io := imgui.CurrentIO()
	return ImguiInputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}
