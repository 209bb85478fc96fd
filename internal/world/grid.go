package world

import (
	"slices"

	"github.com/l1jgo/spectators/internal/core/ecs"
)

// Category tags a creature at runtime. Only players are privileged.
type Category uint8

const (
	CategoryMonster Category = iota
	CategoryNpc
	CategorySummon
	CategoryPlayer
)

// Privileged reports whether creatures of this category are tracked in the
// per-leaf player list.
func (c Category) Privileged() bool { return c == CategoryPlayer }

func (c Category) String() string {
	switch c {
	case CategoryMonster:
		return "monster"
	case CategoryNpc:
		return "npc"
	case CategorySummon:
		return "summon"
	case CategoryPlayer:
		return "player"
	}
	return "unknown"
}

// ParseCategory maps a String() name back to its Category.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryMonster; c <= CategoryPlayer; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// Creature is the only view of an entity the grid needs. The grid never
// owns creatures; it stores references and reads position and category.
type Creature interface {
	ID() ecs.EntityID
	Position() Position
	Category() Category
}

// Leaf is one square cell of the grid.
// Accessed only from the game loop goroutine, no locks.
type Leaf struct {
	x, y      int32
	creatures []Creature
	players   []Creature

	// East and South point at the adjacent leaves, nil until those exist.
	East  *Leaf
	South *Leaf
}

// X returns the leaf origin on the X axis.
func (l *Leaf) X() int32 { return l.x }

// Y returns the leaf origin on the Y axis.
func (l *Leaf) Y() int32 { return l.y }

// Creatures returns every creature in the leaf. Do not modify.
func (l *Leaf) Creatures() []Creature { return l.creatures }

// Players returns the privileged creatures in the leaf. Do not modify.
func (l *Leaf) Players() []Creature { return l.players }

func (l *Leaf) list(onlyPlayers bool) []Creature {
	if onlyPlayers {
		return l.players
	}
	return l.creatures
}

func (l *Leaf) add(c Creature) {
	if !slices.Contains(l.creatures, c) {
		l.creatures = append(l.creatures, c)
	}
	if c.Category().Privileged() && !slices.Contains(l.players, c) {
		l.players = append(l.players, c)
	}
}

func (l *Leaf) remove(c Creature) {
	if i := slices.Index(l.creatures, c); i >= 0 {
		l.creatures = slices.Delete(l.creatures, i, i+1)
	}
	if i := slices.Index(l.players, c); i >= 0 {
		l.players = slices.Delete(l.players, i, i+1)
	}
}

type leafKey struct{ x, y int32 }

// Grid partitions the plane into floorSize x floorSize leaves. Leaves are
// created on first use and live as long as the grid.
type Grid struct {
	floorSize int32
	leaves    map[leafKey]*Leaf
}

// NewGrid creates an empty grid. A non-positive floorSize falls back to
// DefaultFloorSize.
func NewGrid(floorSize int) *Grid {
	if floorSize <= 0 {
		floorSize = DefaultFloorSize
	}
	return &Grid{
		floorSize: int32(floorSize),
		leaves:    make(map[leafKey]*Leaf, 1024),
	}
}

// FloorSize returns the side length of a leaf.
func (g *Grid) FloorSize() int32 { return g.floorSize }

// LeafCount returns the number of allocated leaves.
func (g *Grid) LeafCount() int { return len(g.leaves) }

// snap rounds v down to the origin of its leaf.
func (g *Grid) snap(v int32) int32 {
	return v - v%g.floorSize
}

func inBounds(x, y int32) bool {
	return x >= 0 && x <= maxCoord && y >= 0 && y <= maxCoord
}

// CellAt returns the leaf covering (x, y), or nil if it was never allocated
// or the point lies outside the map.
func (g *Grid) CellAt(x, y int32) *Leaf {
	if !inBounds(x, y) {
		return nil
	}
	return g.leaves[leafKey{g.snap(x), g.snap(y)}]
}

// leafAt returns the leaf covering (x, y), creating and linking it if needed.
func (g *Grid) leafAt(x, y int32) *Leaf {
	k := leafKey{g.snap(x), g.snap(y)}
	if l := g.leaves[k]; l != nil {
		return l
	}
	l := &Leaf{x: k.x, y: k.y}
	g.leaves[k] = l

	fs := g.floorSize
	if north := g.CellAt(k.x, k.y-fs); north != nil {
		north.South = l
	}
	if west := g.CellAt(k.x-fs, k.y); west != nil {
		west.East = l
	}
	if south := g.CellAt(k.x, k.y+fs); south != nil {
		l.South = south
	}
	if east := g.CellAt(k.x+fs, k.y); east != nil {
		l.East = east
	}
	return l
}

// Allocate creates every leaf overlapping the inclusive rectangle. Used when
// the static map is loaded so sweeps can follow links instead of lookups.
func (g *Grid) Allocate(x1, y1, x2, y2 int32) {
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, maxCoord), min(y2, maxCoord)
	for y := g.snap(y1); y <= y2; y += g.floorSize {
		for x := g.snap(x1); x <= x2; x += g.floorSize {
			g.leafAt(x, y)
		}
	}
}

// Insert places a creature in the leaf under its current position.
// Inserting the same creature twice is a no-op.
func (g *Grid) Insert(c Creature) {
	if c == nil {
		panic("world: insert of nil creature")
	}
	pos := c.Position()
	g.leafAt(int32(pos.X), int32(pos.Y)).add(c)
}

// Remove takes a creature out of the leaf under its current position.
func (g *Grid) Remove(c Creature) {
	if c == nil {
		return
	}
	g.RemoveAt(c, c.Position())
}

// RemoveAt takes a creature out of the leaf covering pos. Removing an absent
// creature is a no-op.
func (g *Grid) RemoveAt(c Creature, pos Position) {
	if l := g.CellAt(int32(pos.X), int32(pos.Y)); l != nil {
		l.remove(c)
	}
}

// Move re-indexes a creature from the leaf under oldPos to the one under
// newPos. Moves inside one leaf cost nothing.
func (g *Grid) Move(c Creature, oldPos, newPos Position) {
	if c == nil {
		panic("world: move of nil creature")
	}
	if g.snap(int32(oldPos.X)) == g.snap(int32(newPos.X)) &&
		g.snap(int32(oldPos.Y)) == g.snap(int32(newPos.Y)) {
		return
	}
	g.RemoveAt(c, oldPos)
	g.leafAt(int32(newPos.X), int32(newPos.Y)).add(c)
}
