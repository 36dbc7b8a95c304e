package main

import (
	"flag"
	"fmt"
	"image/color"
	"math/rand"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/ecs/debugui"
	debugui_ebiten "github.com/plus3/kindecs/ecs/debugui/ebiten"
	"github.com/plus3/kindecs/internal/logging"
)

const (
	screenWidth  = 1280
	screenHeight = 720
)

type Dot struct {
	X, Y   float32
	DX, DY float32
}

func (*Dot) Kind() ecs.Kind { return "dot" }

func main() {
	entities := flag.Int("entities", 500, "Number of moving dots to spawn.")
	logLevel := flag.String("log-level", "info", "Log level.")
	flag.Parse()

	logger, err := logging.New(logging.Options{Level: *logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logging.SetGlobal(logger)

	backend := debugui_ebiten.NewImguiBackend("kindecs viewer", screenWidth, screenHeight)

	storage := ecs.NewStorage()
	scheduler := ecs.NewScheduler(storage, ecs.WithLogger(logging.Component(logger, "scheduler")))

	storage.CreateEntity(backend)
	input := &debugui.ImguiInputState{}
	storage.CreateEntity(input)
	for i := 0; i < *entities; i++ {
		storage.CreateEntity(&Dot{
			X:  rand.Float32() * screenWidth,
			Y:  rand.Float32() * screenHeight,
			DX: rand.Float32()*0.2 - 0.1,
			DY: rand.Float32()*0.2 - 0.1,
		})
	}

	scheduler.AddSystem(ecs.NewSystemFunc("dots", ecs.NewQuery("dot"), func(delta float64, matched [][]ecs.Component) {
		for _, components := range matched {
			for _, d := range ecs.ComponentsOf[*Dot](components, "dot") {
				d.X = wrap(d.X+d.DX*float32(delta), screenWidth)
				d.Y = wrap(d.Y+d.DY*float32(delta), screenHeight)
			}
		}
	}))
	scheduler.AddSystem(&debugui.ImguiSystem{Commands: scheduler.Commands()})
	debugui.SpawnDebugUI(storage, scheduler)

	game := &debugui_ebiten.Game{
		Backend:   backend,
		Scheduler: scheduler,
		DrawWorld: func(screen *ebiten.Image) {
			for _, components := range storage.Filter(ecs.NewQuery("dot")) {
				if d, ok := ecs.FirstOf[*Dot](components, "dot"); ok {
					vector.DrawFilledRect(screen, d.X, d.Y, 2, 2, color.White, false)
				}
			}
		},
		Quit: func() bool {
			return !input.WantCaptureKeyboard && ebiten.IsKeyPressed(ebiten.KeyEscape)
		},
	}

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal().Err(err).Msg("Viewer exited")
	}
}

func wrap(v, limit float32) float32 {
	switch {
	case v < 0:
		return v + limit
	case v >= limit:
		return v - limit
	default:
		return v
	}
}
