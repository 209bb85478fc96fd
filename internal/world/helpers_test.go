package world

import (
	"slices"

	"github.com/l1jgo/spectators/internal/core/ecs"
)

func newCreature(idx uint32, kind Category, x, y uint16, z uint8) *CreatureInfo {
	pos := Position{X: x, Y: y, Z: z}
	return &CreatureInfo{
		EntityID: ecs.NewEntityID(idx, 0),
		Kind:     kind,
		Pos:      pos,
		SpawnPos: pos,
	}
}

// ids returns the sorted IDs of list, keeping duplicates.
func ids(list []Creature) []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID())
	}
	slices.Sort(out)
	return out
}

func idsOf(cs ...*CreatureInfo) []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.EntityID)
	}
	slices.Sort(out)
	return out
}
