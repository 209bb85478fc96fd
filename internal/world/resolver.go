package world

// Scope describes one spectator query. Zero half-extents mean the default
// viewport (MaxViewPortX / MaxViewPortY), not a zero-width window.
type Scope struct {
	MultiFloor  bool
	OnlyPlayers bool

	MinRangeX int32 // tiles west of center
	MaxRangeX int32 // tiles east of center
	MinRangeY int32 // tiles north of center
	MaxRangeY int32 // tiles south of center
}

// extents holds the four half-extents of a query after defaults are applied.
type extents struct {
	minX, maxX, minY, maxY int32
}

var defaultExtents = extents{
	minX: MaxViewPortX, maxX: MaxViewPortX,
	minY: MaxViewPortY, maxY: MaxViewPortY,
}

func halfExtent(v, def int32) int32 {
	if v == 0 {
		return def
	}
	if v < 0 {
		return -v
	}
	return v
}

func (s Scope) extents() extents {
	return extents{
		minX: halfExtent(s.MinRangeX, MaxViewPortX),
		maxX: halfExtent(s.MaxRangeX, MaxViewPortX),
		minY: halfExtent(s.MinRangeY, MaxViewPortY),
		maxY: halfExtent(s.MaxRangeY, MaxViewPortY),
	}
}

// covers reports whether e spans at least o on every side.
func (e extents) covers(o extents) bool {
	return e.minX >= o.minX && e.maxX >= o.maxX && e.minY >= o.minY && e.maxY >= o.maxY
}

func (e extents) union(o extents) extents {
	return extents{
		minX: max(e.minX, o.minX), maxX: max(e.maxX, o.maxX),
		minY: max(e.minY, o.minY), maxY: max(e.maxY, o.maxY),
	}
}

// window is a fully resolved query volume around a center.
type window struct {
	center     Position
	minZ, maxZ uint8
	ext        extents
}

func newWindow(center Position, multiFloor bool, ext extents) window {
	minZ, maxZ := LayerWindow(center.Z, multiFloor)
	return window{center: center, minZ: minZ, maxZ: maxZ, ext: ext}
}

// contains is the exact visibility test. The rectangle is shifted by the
// layer offset of the tested position; all bounds are inclusive.
func (w window) contains(pos Position) bool {
	if pos.Z < w.minZ || pos.Z > w.maxZ {
		return false
	}
	off := OffsetZ(w.center, pos)
	cx, cy := int32(w.center.X)+off, int32(w.center.Y)+off
	x, y := int32(pos.X), int32(pos.Y)
	return x >= cx-w.ext.minX && x <= cx+w.ext.maxX &&
		y >= cy-w.ext.minY && y <= cy+w.ext.maxY
}

func clampCoord(v int32) int32 {
	return min(max(v, 0), maxCoord)
}

// Resolve returns every creature visible from center under scope, without
// any caching. Each creature appears once.
func (g *Grid) Resolve(center Position, scope Scope) []Creature {
	w := newWindow(center, scope.MultiFloor, scope.extents())
	return g.sweep(nil, w, scope.OnlyPlayers)
}

// sweep appends to dst the creatures inside w. Leaves are walked through
// their East/South links; a missing link costs one explicit lookup.
func (g *Grid) sweep(dst []Creature, w window, onlyPlayers bool) []Creature {
	cx, cy, cz := int32(w.center.X), int32(w.center.Y), int32(w.center.Z)

	// The nearest layer shifts the rectangle least, the farthest most.
	nearOffset := cz - int32(w.maxZ)
	farOffset := cz - int32(w.minZ)

	startX := g.snap(clampCoord(cx - w.ext.minX + nearOffset))
	startY := g.snap(clampCoord(cy - w.ext.minY + nearOffset))
	endX := g.snap(clampCoord(cx + w.ext.maxX + farOffset))
	endY := g.snap(clampCoord(cy + w.ext.maxY + farOffset))

	fs := g.floorSize
	var row *Leaf
	for ny := startY; ny <= endY; ny += fs {
		if row == nil {
			row = g.CellAt(startX, ny)
		}
		leaf := row
		for nx := startX; nx <= endX; nx += fs {
			if leaf == nil {
				leaf = g.CellAt(nx, ny)
				if leaf == nil {
					continue
				}
			}
			for _, c := range leaf.list(onlyPlayers) {
				if w.contains(c.Position()) {
					dst = append(dst, c)
				}
			}
			leaf = leaf.East
		}
		if row != nil {
			row = row.South
		}
	}
	return dst
}
