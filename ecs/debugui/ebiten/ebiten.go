// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/kindecs/ecs"
)

const BackendKind ecs.Kind = "debugui.ebiten_backend"

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// It is a component so systems can find the backend through the store.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

func (*ImguiBackend) Kind() ecs.Kind { return BackendKind }

// NewImguiBackend creates the backend and its window. The imgui.ini file is
// disabled so layouts do not leak between runs.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

// Game implements ebiten.Game: every update runs one scheduler pass inside an
// ImGui frame, and every draw paints the ImGui overlay on top of DrawWorld.
type Game struct {
	Backend   *ImguiBackend
	Scheduler *ecs.Scheduler
	// DrawWorld paints the scene under the overlay. Optional.
	DrawWorld func(screen *ebiten.Image)
	// Quit ends the run loop when it returns true. Optional.
	Quit func() bool
}

func (g *Game) Update() error {
	if g.Quit != nil && g.Quit() {
		return ebiten.Termination
	}

	g.Backend.BeginFrame()
	g.Scheduler.Once(1000.0 / float64(ebiten.TPS()))
	g.Backend.EndFrame()

	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawWorld != nil {
		g.DrawWorld(screen)
	}
	g.Backend.Draw(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
