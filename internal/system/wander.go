package system

import (
	"math/rand"
	"time"

	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/world"
)

// 8 compass steps, N then clockwise.
var stepX = [8]int32{0, 1, 1, 1, 0, -1, -1, -1}
var stepY = [8]int32{-1, -1, 0, 1, 1, 1, 0, -1}

// WanderSystem moves non-player creatures one tile in a random direction
// every few ticks, keeping them within WanderRange of their spawn point.
// Every step goes through State.MoveCreature so the grid stays consistent.
// Phase 2 (Update).
type WanderSystem struct {
	world *world.State
	every int
	rng   *rand.Rand
}

func NewWanderSystem(ws *world.State, every int, rng *rand.Rand) *WanderSystem {
	if every < 1 {
		every = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WanderSystem{world: ws, every: every, rng: rng}
}

func (s *WanderSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WanderSystem) Update(_ time.Duration) {
	s.world.AllCreatures(func(c *world.CreatureInfo) {
		if c.Kind.Privileged() || c.WanderRange <= 0 {
			return
		}
		if c.WanderTimer > 0 {
			c.WanderTimer--
			return
		}
		c.WanderTimer = s.every - 1
		s.step(c)
	})
}

func (s *WanderSystem) step(c *world.CreatureInfo) {
	dir := s.rng.Intn(8)
	nx := int32(c.Pos.X) + stepX[dir]
	ny := int32(c.Pos.Y) + stepY[dir]
	if nx < 0 || ny < 0 || nx > 0xFFFF || ny > 0xFFFF {
		return
	}
	if abs32(nx-int32(c.SpawnPos.X)) > c.WanderRange || abs32(ny-int32(c.SpawnPos.Y)) > c.WanderRange {
		return
	}
	s.world.MoveCreature(c.EntityID, world.Position{X: uint16(nx), Y: uint16(ny), Z: c.Pos.Z})
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
