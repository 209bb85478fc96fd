package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/l1jgo/spectators/internal/core/event"
	"github.com/l1jgo/spectators/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, scripts map[string]string) (*Engine, *world.State) {
	t.Helper()
	dir := t.TempDir()
	for name, src := range scripts {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	ws := world.NewState(ecs.NewWorld(), event.NewBus(), world.Options{}, zap.NewNop())
	e, err := NewEngine(dir, ws, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, ws
}

func TestEngineMissingDirLoadsNothing(t *testing.T) {
	ws := world.NewState(ecs.NewWorld(), event.NewBus(), world.Options{}, zap.NewNop())
	e, err := NewEngine(filepath.Join(t.TempDir(), "none"), ws, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	assert.False(t, e.HasHook("on_tick"))
	e.OnTick(1) // no hook, no-op
}

func TestEngineLoadErrorIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte("function ("), 0o644))
	ws := world.NewState(ecs.NewWorld(), event.NewBus(), world.Options{}, zap.NewNop())
	_, err := NewEngine(dir, ws, zap.NewNop())
	assert.Error(t, err)
}

func TestEngineFind(t *testing.T) {
	e, ws := newTestEngine(t, map[string]string{
		"world/probe.lua": `
last = {}
function on_tick(tick)
  last.tick = tick
  last.all = #spectators.find(100, 100, 7)
  last.players = #spectators.find(100, 100, 7, { only_players = true })
  last.multi = #spectators.find(100, 100, 7, { multi_floor = true })
  last.narrow = #spectators.find(100, 100, 7, { min_range_x = 1, max_range_x = 1, min_range_y = 1, max_range_y = 1 })
  local first = spectators.find(100, 100, 7, { only_players = true })[1]
  last.kind = first.kind
  last.alive = spectators.alive(first.id)
end
`,
	})
	ws.Spawn("p", world.CategoryPlayer, world.Position{X: 100, Y: 100, Z: 7})
	ws.Spawn("m", world.CategoryMonster, world.Position{X: 105, Y: 100, Z: 7})
	ws.Spawn("below", world.CategoryMonster, world.Position{X: 99, Y: 99, Z: 8})

	require.True(t, e.HasHook("on_tick"))
	e.OnTick(5)

	last, ok := e.vm.GetGlobal("last").(*lua.LTable)
	require.True(t, ok)
	assert.Equal(t, 5, lInt(last, "tick"))
	assert.Equal(t, 2, lInt(last, "all"))
	assert.Equal(t, 1, lInt(last, "players"))
	assert.Equal(t, 3, lInt(last, "multi"))
	assert.Equal(t, 1, lInt(last, "narrow"))
	assert.Equal(t, "player", lua.LVAsString(last.RawGetString("kind")))
	assert.Equal(t, lua.LTrue, last.RawGetString("alive"))
}

func TestEngineMoveAndPosition(t *testing.T) {
	e, ws := newTestEngine(t, map[string]string{
		"mover.lua": `
function on_tick(tick)
  moved = spectators.move(target, 20, 21, 7)
  px, py, pz = spectators.position(target)
  missing = spectators.position(0)
end
`,
	})
	c := ws.Spawn("m", world.CategoryMonster, world.Position{X: 10, Y: 10, Z: 7})
	e.vm.SetGlobal("target", lua.LNumber(c.EntityID))

	e.OnTick(1)
	assert.Equal(t, world.Position{X: 20, Y: 21, Z: 7}, c.Pos)
	assert.Equal(t, lua.LTrue, e.vm.GetGlobal("moved"))
	assert.Equal(t, lua.LNumber(20), e.vm.GetGlobal("px"))
	assert.Equal(t, lua.LNumber(21), e.vm.GetGlobal("py"))
	assert.Equal(t, lua.LNil, e.vm.GetGlobal("missing"))
	assert.True(t, ws.Stale())
}

func TestEngineRejectsOutOfMapCoordinates(t *testing.T) {
	e, ws := newTestEngine(t, map[string]string{
		"bounds.lua": `
function try(f, ...)
  local ok, err = pcall(f, ...)
  return ok, err
end
function on_tick(tick)
  move_ok, move_err = try(spectators.move, target, 70000, -1, 20)
  layer_ok = try(spectators.move, target, 10, 10, 16)
  find_ok = try(spectators.find, 10, 10, 99)
  neg_ok = try(spectators.find, -1, 10, 7)
  edge = spectators.move(target, 65535, 65535, 15)
end
`,
	})
	c := ws.Spawn("m", world.CategoryMonster, world.Position{X: 10, Y: 10, Z: 7})
	e.vm.SetGlobal("target", lua.LNumber(c.EntityID))

	e.OnTick(1)
	assert.Equal(t, lua.LFalse, e.vm.GetGlobal("move_ok"))
	assert.Contains(t, lua.LVAsString(e.vm.GetGlobal("move_err")), "x out of range")
	assert.Equal(t, lua.LFalse, e.vm.GetGlobal("layer_ok"))
	assert.Equal(t, lua.LFalse, e.vm.GetGlobal("find_ok"))
	assert.Equal(t, lua.LFalse, e.vm.GetGlobal("neg_ok"))
	assert.Equal(t, lua.LTrue, e.vm.GetGlobal("edge"))
	assert.Equal(t, world.Position{X: 65535, Y: 65535, Z: 15}, c.Pos)
}

func TestEngineInvalidate(t *testing.T) {
	e, ws := newTestEngine(t, map[string]string{
		"inv.lua": `function on_tick() spectators.invalidate() end`,
	})
	ws.Spawn("m", world.CategoryMonster, world.Position{X: 10, Y: 10, Z: 7})
	ws.Query(world.Position{X: 10, Y: 10, Z: 7}, world.Scope{})
	require.Equal(t, 1, ws.Cache().Len())

	e.OnTick(1)
	assert.Zero(t, ws.Cache().Len())
	assert.False(t, ws.Stale())
}

func TestEngineOnTickErrorIsContained(t *testing.T) {
	e, _ := newTestEngine(t, map[string]string{
		"bad.lua": `function on_tick() error("boom") end`,
	})
	assert.NotPanics(t, func() { e.OnTick(1) })
	assert.NotPanics(t, func() { e.OnTick(2) })
}
