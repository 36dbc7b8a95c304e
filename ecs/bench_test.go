package ecs_test

import (
	"fmt"
	"testing"

	"github.com/plus3/kindecs/ecs"
)

func BenchmarkCreateEntity(b *testing.B) {
	storage := ecs.NewStorage()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.CreateEntity(&Position{X: 1.0, Y: 2.0}, &Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkDestroyEntity(b *testing.B) {
	storage := ecs.NewStorage()

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = storage.CreateEntity(&Position{X: 1.0, Y: 2.0})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		storage.DestroyEntity(ids[i])
	}
}

func BenchmarkComponents(b *testing.B) {
	storage := ecs.NewStorage()
	id := storage.CreateEntity(&Position{}, &Velocity{}, &Health{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.Components(id)
	}
}

func BenchmarkFilter(b *testing.B) {
	for _, selectivity := range []int{1, 10, 100} {
		b.Run(fmt.Sprintf("1in%d", selectivity), func(b *testing.B) {
			storage := ecs.NewStorage()
			for i := 0; i < 10000; i++ {
				if i%selectivity == 0 {
					storage.CreateEntity(&Position{}, &Velocity{})
				} else {
					storage.CreateEntity(&Health{})
				}
			}
			q := ecs.NewQuery("vel")

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = storage.Filter(q)
			}
		})
	}
}

func BenchmarkSchedulerOnce(b *testing.B) {
	storage := ecs.NewStorage()
	for i := 0; i < 1000; i++ {
		storage.CreateEntity(&Position{}, &Velocity{DX: 1, DY: 1})
		storage.CreateEntity(&Health{Current: i, Max: 1000})
	}

	scheduler := ecs.NewScheduler(storage)
	scheduler.AddSystem(&MovementSystem{})
	scheduler.AddSystem(&HealthSystem{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scheduler.Once(16)
	}
}
