package system

import (
	"time"

	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/world"
	"go.uber.org/zap"
)

// SpectatorCacheSystem drops cached spectator results once per tick if any
// creature spawned, moved or despawned since the last flush. Runs after all
// game logic and before the visibility scan, so the scan sees fresh data.
// Phase 3 (PostUpdate).
type SpectatorCacheSystem struct {
	world   *world.State
	log     *zap.Logger
	flushes uint64
}

func NewSpectatorCacheSystem(ws *world.State, log *zap.Logger) *SpectatorCacheSystem {
	return &SpectatorCacheSystem{world: ws, log: log}
}

func (s *SpectatorCacheSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SpectatorCacheSystem) Update(_ time.Duration) {
	entries := s.world.Cache().Len()
	if !s.world.FlushSpectators() {
		return
	}
	s.flushes++
	if entries > 0 {
		s.log.Debug("spectator cache flushed", zap.Int("entries", entries))
	}
}

// Flushes returns how many ticks ended with a cache flush.
func (s *SpectatorCacheSystem) Flushes() uint64 { return s.flushes }
