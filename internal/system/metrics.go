package system

import (
	"time"

	"github.com/l1jgo/spectators/internal/core/event"
	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/metrics"
	"github.com/l1jgo/spectators/internal/world"
)

// MetricsSystem samples world and cache counters into prometheus every
// `every` ticks. Runs before Cleanup so the sample sees the tick's queries.
// Phase 5 (Persist).
type MetricsSystem struct {
	world   *world.State
	metrics *metrics.Metrics
	every   int
	ticks   int
	counts  map[world.Category]int
}

func NewMetricsSystem(ws *world.State, bus *event.Bus, m *metrics.Metrics, every int) *MetricsSystem {
	if every < 1 {
		every = 1
	}
	event.Subscribe(bus, func(event.CreatureAppeared) { m.CreatureAppeared() })
	event.Subscribe(bus, func(event.CreatureVanished) { m.CreatureVanished() })
	return &MetricsSystem{
		world:   ws,
		metrics: m,
		every:   every,
		counts:  make(map[world.Category]int, 4),
	}
}

func (s *MetricsSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *MetricsSystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.every {
		return
	}
	s.ticks = 0

	cache := s.world.Cache()
	s.metrics.ObserveCache(cache.Stats(), cache.Len())
	s.metrics.SetLeaves(s.world.Grid().LeafCount())

	clear(s.counts)
	s.world.AllCreatures(func(c *world.CreatureInfo) {
		s.counts[c.Kind]++
	})
	s.metrics.SetCreatures(s.counts)
}
