package system

import (
	"time"

	"github.com/l1jgo/spectators/internal/core/event"
	coresys "github.com/l1jgo/spectators/internal/core/system"
)

// EventDispatchSystem swaps the bus buffers and delivers last tick's events.
// Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus       *event.Bus
	delivered int
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.delivered += s.bus.DispatchAll()
}

// Delivered returns the total number of events dispatched so far.
func (s *EventDispatchSystem) Delivered() int { return s.delivered }
