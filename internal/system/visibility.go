package system

import (
	"time"

	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/l1jgo/spectators/internal/core/event"
	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/world"
)

// VisibilitySystem keeps every player's known set in line with what the
// spectator cache says the player can see. New entries emit
// CreatureAppeared, dropped ones CreatureVanished.
// Phase 4 (Output), every `every` ticks.
type VisibilitySystem struct {
	world *world.State
	bus   *event.Bus
	every int
	ticks int

	current map[ecs.EntityID]struct{} // reused between players
}

func NewVisibilitySystem(ws *world.State, bus *event.Bus, every int) *VisibilitySystem {
	if every < 1 {
		every = 1
	}
	s := &VisibilitySystem{
		world:   ws,
		bus:     bus,
		every:   every,
		current: make(map[ecs.EntityID]struct{}, 64),
	}
	event.Subscribe(bus, s.onSpawned)
	return s
}

// onSpawned gives a player entering the world its first view without
// waiting for the next periodic scan.
func (s *VisibilitySystem) onSpawned(e event.CreatureSpawned) {
	p := s.world.Creature(e.EntityID)
	if p == nil || p.Known == nil {
		return
	}
	s.world.FlushSpectators()
	s.ScanPlayer(p)
}

func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *VisibilitySystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.every {
		return
	}
	s.ticks = 0

	s.world.AllPlayers(func(p *world.CreatureInfo) {
		if p.Known == nil {
			return
		}
		s.updatePlayer(p)
	})
}

// ScanPlayer runs the diff for one player immediately.
func (s *VisibilitySystem) ScanPlayer(p *world.CreatureInfo) {
	if p.Known == nil {
		return
	}
	s.updatePlayer(p)
}

func (s *VisibilitySystem) updatePlayer(p *world.CreatureInfo) {
	visible := s.world.Query(p.Pos, world.Scope{MultiFloor: true})

	clear(s.current)
	for _, c := range visible {
		id := c.ID()
		// Cached results may reference creatures despawned this tick.
		if id == p.EntityID || !s.world.Alive(id) {
			continue
		}
		s.current[id] = struct{}{}
		if _, known := p.Known.Creatures[id]; !known {
			event.Emit(s.bus, event.CreatureAppeared{Viewer: p.EntityID, Target: id})
		}
		p.Known.Creatures[id] = c.Position()
	}

	for id := range p.Known.Creatures {
		if _, still := s.current[id]; !still {
			event.Emit(s.bus, event.CreatureVanished{Viewer: p.EntityID, Target: id})
			delete(p.Known.Creatures, id)
		}
	}
}
