// Package broadcast publishes the entity store to websocket clients once per
// engine tick.
package broadcast

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"

	"github.com/plus3/kindecs/ecs"
)

type ComponentSnapshot struct {
	Kind ecs.Kind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type EntitySnapshot struct {
	Id         ecs.EntityId        `json:"id"`
	Components []ComponentSnapshot `json:"components"`
}

// Snapshot is the whole store at the end of one tick, in insertion order.
type Snapshot struct {
	Tick     uint64           `json:"tick"`
	Entities []EntitySnapshot `json:"entities"`
}

// TakeSnapshot encodes every live entity. Components that cannot be encoded
// are kept with a null payload so their kind still shows up.
func TakeSnapshot(tick uint64, storage *ecs.Storage) Snapshot {
	ids := storage.Entities()
	snap := Snapshot{
		Tick:     tick,
		Entities: make([]EntitySnapshot, 0, len(ids)),
	}

	for _, id := range ids {
		components := storage.Components(id)
		entity := EntitySnapshot{
			Id:         id,
			Components: make([]ComponentSnapshot, len(components)),
		}
		for i, c := range components {
			data, err := json.Marshal(c)
			if err != nil {
				data = json.RawMessage("null")
			}
			entity.Components[i] = ComponentSnapshot{Kind: c.Kind(), Data: data}
		}
		snap.Entities = append(snap.Entities, entity)
	}

	return snap
}

func (s Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to encode snapshot for tick %d", s.Tick)
	}
	return data, nil
}
