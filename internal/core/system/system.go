package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: external commands
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: creature logic, scripts
	PhasePostUpdate              // 3: spectator cache flush
	PhaseOutput                  // 4: visibility diffs
	PhasePersist                 // 5: metrics, saves
	PhaseCleanup                 // 6: destroy queued entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "output", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
