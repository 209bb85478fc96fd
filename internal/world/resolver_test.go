package world

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteVisible is the visibility test written out longhand, used as ground
// truth against every creature in the world.
func bruteVisible(center Position, s Scope, p Position) bool {
	minZ, maxZ := LayerWindow(center.Z, s.MultiFloor)
	if p.Z < minZ || p.Z > maxZ {
		return false
	}
	e := s.extents()
	off := int32(center.Z) - int32(p.Z)
	x, y := int32(p.X), int32(p.Y)
	cx, cy := int32(center.X), int32(center.Y)
	return cx+off-e.minX <= x && x <= cx+off+e.maxX &&
		cy+off-e.minY <= y && y <= cy+off+e.maxY
}

func bruteResolve(all []*CreatureInfo, center Position, s Scope) []Creature {
	var out []Creature
	for _, c := range all {
		if s.OnlyPlayers && !c.Kind.Privileged() {
			continue
		}
		if bruteVisible(center, s, c.Pos) {
			out = append(out, c)
		}
	}
	return out
}

type testWorld struct {
	grid *Grid
	all  []*CreatureInfo
}

// randomWorld scatters n creatures over [0, span) on every layer. Only the
// lower half of the area is pre-allocated, the rest gets leaves on insert.
func randomWorld(rng *rand.Rand, floorSize, n int, span int) *testWorld {
	w := &testWorld{grid: NewGrid(floorSize)}
	w.grid.Allocate(0, 0, int32(span), int32(span/2))
	for i := 0; i < n; i++ {
		c := newCreature(uint32(i+1), Category(rng.Intn(4)),
			uint16(rng.Intn(span)), uint16(rng.Intn(span)), uint8(rng.Intn(MaxLayers)))
		w.all = append(w.all, c)
		w.grid.Insert(c)
	}
	return w
}

func randomScope(rng *rand.Rand) Scope {
	return Scope{
		MultiFloor:  rng.Intn(2) == 0,
		OnlyPlayers: rng.Intn(4) == 0,
		MinRangeX:   int32(rng.Intn(14)),
		MaxRangeX:   int32(rng.Intn(14)),
		MinRangeY:   int32(rng.Intn(12)),
		MaxRangeY:   int32(rng.Intn(12)),
	}
}

func randomCenter(rng *rand.Rand, span int) Position {
	return Position{
		X: uint16(rng.Intn(span)),
		Y: uint16(rng.Intn(span)),
		Z: uint8(rng.Intn(MaxLayers)),
	}
}

func TestResolveMatchesBruteForce(t *testing.T) {
	for _, fs := range []int{1, 8, 32} {
		rng := rand.New(rand.NewSource(int64(fs)))
		w := randomWorld(rng, fs, 3000, 120)

		for i := 0; i < 400; i++ {
			center := randomCenter(rng, 120)
			scope := randomScope(rng)
			got := w.grid.Resolve(center, scope)
			want := bruteResolve(w.all, center, scope)
			require.Equal(t, ids(want), ids(got), "floor=%d center=%+v scope=%+v", fs, center, scope)
		}
	}
}

func TestResolveDefaultScopeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := randomWorld(rng, 8, 2000, 80)
	for i := 0; i < 200; i++ {
		center := randomCenter(rng, 80)
		for _, scope := range []Scope{{}, {MultiFloor: true}} {
			assert.Equal(t, ids(bruteResolve(w.all, center, scope)), ids(w.grid.Resolve(center, scope)))
		}
	}
}

func TestResolveInclusiveBounds(t *testing.T) {
	g := NewGrid(8)
	center := Position{X: 100, Y: 100, Z: 7}
	inside := []*CreatureInfo{
		newCreature(1, CategoryMonster, 100-MaxViewPortX, 100, 7),
		newCreature(2, CategoryMonster, 100+MaxViewPortX, 100, 7),
		newCreature(3, CategoryMonster, 100, 100-MaxViewPortY, 7),
		newCreature(4, CategoryMonster, 100, 100+MaxViewPortY, 7),
	}
	outside := []*CreatureInfo{
		newCreature(5, CategoryMonster, 100-MaxViewPortX-1, 100, 7),
		newCreature(6, CategoryMonster, 100+MaxViewPortX+1, 100, 7),
		newCreature(7, CategoryMonster, 100, 100-MaxViewPortY-1, 7),
		newCreature(8, CategoryMonster, 100, 100+MaxViewPortY+1, 7),
	}
	for _, c := range append(inside, outside...) {
		g.Insert(c)
	}
	assert.Equal(t, idsOf(inside...), ids(g.Resolve(center, Scope{})))
}

func TestResolvePerspectiveOffset(t *testing.T) {
	g := NewGrid(8)
	center := Position{X: 100, Y: 100, Z: 7}

	// Two layers up the window is shifted two tiles south-east.
	up := newCreature(1, CategoryNpc, 100+MaxViewPortX+2, 100+MaxViewPortY+2, 5)
	upMiss := newCreature(2, CategoryNpc, 100-MaxViewPortX+1, 100, 5)
	// One layer down it is shifted one tile north-west.
	down := newCreature(3, CategoryNpc, 100-MaxViewPortX-1, 100-MaxViewPortY-1, 8)
	downMiss := newCreature(4, CategoryNpc, 100+MaxViewPortX, 100, 8)
	for _, c := range []*CreatureInfo{up, upMiss, down, downMiss} {
		g.Insert(c)
	}

	assert.Equal(t, idsOf(up, down), ids(g.Resolve(center, Scope{MultiFloor: true})))
	assert.Empty(t, g.Resolve(center, Scope{}), "single floor ignores other layers")
}

func TestResolveLayerBoundaries(t *testing.T) {
	g := NewGrid(8)
	onSurface := newCreature(1, CategoryMonster, 50, 50, 7)
	twoDown := newCreature(2, CategoryMonster, 48, 48, 9)
	threeDown := newCreature(3, CategoryMonster, 47, 47, 10)
	sky := newCreature(4, CategoryMonster, 57, 57, 0)
	for _, c := range []*CreatureInfo{onSurface, twoDown, threeDown, sky} {
		g.Insert(c)
	}

	fromSurface := g.Resolve(Position{X: 50, Y: 50, Z: 7}, Scope{MultiFloor: true})
	assert.Equal(t, idsOf(onSurface, twoDown, sky), ids(fromSurface))

	// Above ground never sees underground.
	fromAbove := g.Resolve(Position{X: 46, Y: 46, Z: 3}, Scope{MultiFloor: true, MaxRangeX: 20, MaxRangeY: 20})
	assert.NotContains(t, ids(fromAbove), twoDown.EntityID)
	assert.NotContains(t, ids(fromAbove), threeDown.EntityID)
}

func TestResolveClampsAtMapEdges(t *testing.T) {
	g := NewGrid(8)
	corner := newCreature(1, CategoryPlayer, 0, 0, 7)
	far := newCreature(2, CategoryPlayer, 0xFFFF, 0xFFFF, 15)
	g.Insert(corner)
	g.Insert(far)

	assert.Equal(t, idsOf(corner), ids(g.Resolve(Position{X: 2, Y: 1, Z: 7}, Scope{MultiFloor: true})))
	assert.Equal(t, idsOf(far), ids(g.Resolve(Position{X: 0xFFFF, Y: 0xFFFE, Z: 15}, Scope{MultiFloor: true})))
}

func TestResolveUnallocatedRegionIsEmpty(t *testing.T) {
	g := NewGrid(8)
	g.Insert(newCreature(1, CategoryMonster, 10, 10, 7))
	assert.Empty(t, g.Resolve(Position{X: 30000, Y: 30000, Z: 7}, Scope{MultiFloor: true}))
}

func TestResolveOnlyPlayers(t *testing.T) {
	g := NewGrid(8)
	p := newCreature(1, CategoryPlayer, 10, 10, 7)
	g.Insert(p)
	g.Insert(newCreature(2, CategoryMonster, 11, 10, 7))
	g.Insert(newCreature(3, CategorySummon, 12, 10, 7))

	assert.Equal(t, idsOf(p), ids(g.Resolve(Position{X: 10, Y: 10, Z: 7}, Scope{OnlyPlayers: true})))
	assert.Len(t, g.Resolve(Position{X: 10, Y: 10, Z: 7}, Scope{}), 3)
}

func TestScopeExtents(t *testing.T) {
	assert.Equal(t, defaultExtents, Scope{}.extents())
	assert.Equal(t, extents{minX: 3, maxX: MaxViewPortX, minY: MaxViewPortY, maxY: 4},
		Scope{MinRangeX: -3, MaxRangeY: 4}.extents())
}

func BenchmarkResolve(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	w := randomWorld(rng, 8, 20000, 1000)
	center := Position{X: 500, Y: 500, Z: 7}
	scope := Scope{MultiFloor: true}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.grid.Resolve(center, scope)
	}
}
