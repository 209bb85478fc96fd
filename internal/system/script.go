package system

import (
	"time"

	coresys "github.com/l1jgo/spectators/internal/core/system"
	"github.com/l1jgo/spectators/internal/scripting"
)

// ScriptSystem drives the Lua on_tick hook.
// Phase 2 (Update).
type ScriptSystem struct {
	engine *scripting.Engine
	tick   uint64
}

func NewScriptSystem(engine *scripting.Engine) *ScriptSystem {
	return &ScriptSystem{engine: engine}
}

func (s *ScriptSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ScriptSystem) Update(_ time.Duration) {
	s.tick++
	s.engine.OnTick(s.tick)
}
