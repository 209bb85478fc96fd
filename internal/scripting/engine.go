package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/l1jgo/spectators/internal/core/ecs"
	"github.com/l1jgo/spectators/internal/world"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game logic scripts.
// Scripts see the world through the global `spectators` table.
// Single-goroutine access only (game loop).
type Engine struct {
	vm    *lua.LState
	world *world.State
	log   *zap.Logger
}

// NewEngine creates a Lua engine bound to ws and loads every script under
// scriptsDir. A missing directory loads nothing.
func NewEngine(scriptsDir string, ws *world.State, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, world: ws, log: log}
	e.registerAPI()

	// Library scripts first so feature scripts can call into them.
	for _, sub := range []string{"lib", "", "world", "ai"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, err
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return fmt.Errorf("read scripts %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

func (e *Engine) registerAPI() {
	api := e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"find":       e.luaFind,
		"invalidate": e.luaInvalidate,
		"alive":      e.luaAlive,
		"move":       e.luaMove,
		"position":   e.luaPosition,
	})
	e.vm.SetGlobal("spectators", api)
}

// spectators.find(x, y, z [, opts]) -> array of {id, x, y, z, kind}
//
// opts: multi_floor, only_players, min_range_x, max_range_x, min_range_y,
// max_range_y. Missing ranges use the default viewport.
func (e *Engine) luaFind(L *lua.LState) int {
	center := checkPosition(L, 1)
	scope := scopeFromTable(L.OptTable(4, nil))

	out := L.NewTable()
	for i, c := range e.world.Query(center, scope) {
		row := L.NewTable()
		pos := c.Position()
		row.RawSetString("id", lua.LNumber(c.ID()))
		row.RawSetString("x", lua.LNumber(pos.X))
		row.RawSetString("y", lua.LNumber(pos.Y))
		row.RawSetString("z", lua.LNumber(pos.Z))
		row.RawSetString("kind", lua.LString(c.Category().String()))
		out.RawSetInt(i+1, row)
	}
	L.Push(out)
	return 1
}

func scopeFromTable(t *lua.LTable) world.Scope {
	if t == nil {
		return world.Scope{}
	}
	return world.Scope{
		MultiFloor:  lua.LVAsBool(t.RawGetString("multi_floor")),
		OnlyPlayers: lua.LVAsBool(t.RawGetString("only_players")),
		MinRangeX:   int32(lInt(t, "min_range_x")),
		MaxRangeX:   int32(lInt(t, "max_range_x")),
		MinRangeY:   int32(lInt(t, "min_range_y")),
		MaxRangeY:   int32(lInt(t, "max_range_y")),
	}
}

// spectators.invalidate()
func (e *Engine) luaInvalidate(L *lua.LState) int {
	e.world.InvalidateAll()
	return 0
}

// spectators.alive(id) -> bool
func (e *Engine) luaAlive(L *lua.LState) int {
	id := ecs.EntityID(L.CheckNumber(1))
	L.Push(lua.LBool(e.world.Alive(id)))
	return 1
}

// spectators.move(id, x, y, z) -> bool
func (e *Engine) luaMove(L *lua.LState) int {
	id := ecs.EntityID(L.CheckNumber(1))
	to := checkPosition(L, 2)
	L.Push(lua.LBool(e.world.MoveCreature(id, to)))
	return 1
}

// spectators.position(id) -> x, y, z | nil
func (e *Engine) luaPosition(L *lua.LState) int {
	c := e.world.Creature(ecs.EntityID(L.CheckNumber(1)))
	if c == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(c.Pos.X))
	L.Push(lua.LNumber(c.Pos.Y))
	L.Push(lua.LNumber(c.Pos.Z))
	return 3
}

// OnTick calls the global on_tick(tick) if a script defined one.
// Script errors are logged, never propagated into the game loop.
func (e *Engine) OnTick(tick uint64) {
	fn := e.vm.GetGlobal("on_tick")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(tick)); err != nil {
		e.log.Error("lua on_tick error", zap.Uint64("tick", tick), zap.Error(err))
	}
}

// HasHook reports whether a global Lua function of that name exists.
func (e *Engine) HasHook(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// checkPosition reads x, y, z starting at argument n. Out-of-map values
// raise a Lua argument error instead of wrapping.
func checkPosition(L *lua.LState, n int) world.Position {
	x, y, z := L.CheckInt(n), L.CheckInt(n+1), L.CheckInt(n+2)
	if x < 0 || x > math.MaxUint16 {
		L.ArgError(n, "x out of range")
	}
	if y < 0 || y > math.MaxUint16 {
		L.ArgError(n+1, "y out of range")
	}
	if z < 0 || z >= world.MaxLayers {
		L.ArgError(n+2, "layer out of range")
	}
	return world.Position{X: uint16(x), Y: uint16(y), Z: uint8(z)}
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
