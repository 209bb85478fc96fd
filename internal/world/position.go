package world

// Map layout constants. Layers 0-7 are ground and above, 8-15 are underground.
const (
	MaxLayers      = 16
	SurfaceLayer   = 7 // last ground-and-above layer
	LayerViewLimit = 2 // vertical reach of a multi-floor query, in layers

	MaxViewPortX = 8 // default half-extent of a query on X
	MaxViewPortY = 6 // default half-extent of a query on Y

	DefaultFloorSize = 8 // side length of a grid leaf in tiles

	maxCoord = 0xFFFF
)

// Position is a tile coordinate. Comparable, so it can key maps directly.
type Position struct {
	X uint16
	Y uint16
	Z uint8
}

// Valid reports whether the position lies on a real layer.
func (p Position) Valid() bool { return p.Z < MaxLayers }

// Hash packs the position into a single stable integer.
func (p Position) Hash() uint64 {
	return uint64(p.X) | uint64(p.Y)<<16 | uint64(p.Z)<<32
}

// OffsetZ returns how many layers other sits above center (negative when below).
// Off-floor content is drawn shifted diagonally by this many tiles.
func OffsetZ(center, other Position) int32 {
	return int32(center.Z) - int32(other.Z)
}

// LayerWindow returns the inclusive range of layers visible from z.
//
// Underground a multi-floor query sees LayerViewLimit layers up and down.
// From the surface band it sees everything down to layer 0 but never below
// the surface, except from layers 6 and 7 which reach a little underground.
func LayerWindow(z uint8, multiFloor bool) (minZ, maxZ uint8) {
	if !multiFloor {
		return z, z
	}
	switch {
	case z > SurfaceLayer:
		lo := int(z) - LayerViewLimit
		if lo < 0 {
			lo = 0
		}
		hi := int(z) + LayerViewLimit
		if hi > MaxLayers-1 {
			hi = MaxLayers - 1
		}
		return uint8(lo), uint8(hi)
	case z == SurfaceLayer-1:
		return 0, SurfaceLayer - 1 + LayerViewLimit
	case z == SurfaceLayer:
		return 0, SurfaceLayer + LayerViewLimit
	default:
		return 0, SurfaceLayer
	}
}
