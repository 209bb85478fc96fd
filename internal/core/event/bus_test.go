package event

import (
	"testing"

	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []CreatureAppeared
	Subscribe(b, func(e CreatureAppeared) { got = append(got, e) })

	Emit(b, CreatureAppeared{Viewer: ecs.NewEntityID(1, 0), Target: ecs.NewEntityID(2, 0)})
	assert.Equal(t, 1, b.Pending())
	assert.Zero(t, b.DispatchAll(), "not visible before swap")
	assert.Empty(t, got)

	b.SwapBuffers()
	assert.Zero(t, b.Pending())
	assert.Equal(t, 1, b.DispatchAll())
	assert.Len(t, got, 1)

	b.SwapBuffers()
	assert.Zero(t, b.DispatchAll(), "front cleared after a second swap")
	assert.Len(t, got, 1)
}

func TestBusRoutesByType(t *testing.T) {
	b := NewBus()
	appeared, vanished := 0, 0
	Subscribe(b, func(CreatureAppeared) { appeared++ })
	Subscribe(b, func(CreatureVanished) { vanished++ })
	Subscribe(b, func(CreatureVanished) { vanished++ })

	Emit(b, CreatureAppeared{})
	Emit(b, CreatureVanished{})
	Emit(b, CreatureMoved{}) // no subscriber
	b.SwapBuffers()

	assert.Equal(t, 3, b.DispatchAll())
	assert.Equal(t, 1, appeared)
	assert.Equal(t, 2, vanished)
}

func TestEmitOnNilBus(t *testing.T) {
	assert.NotPanics(t, func() { Emit[CreatureSpawned](nil, CreatureSpawned{}) })
}
