package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayerWindowSingleFloor(t *testing.T) {
	for z := uint8(0); z < MaxLayers; z++ {
		minZ, maxZ := LayerWindow(z, false)
		assert.Equal(t, z, minZ, "z=%d", z)
		assert.Equal(t, z, maxZ, "z=%d", z)
	}
}

func TestLayerWindowContainsCenter(t *testing.T) {
	for z := uint8(0); z < MaxLayers; z++ {
		minZ, maxZ := LayerWindow(z, true)
		assert.LessOrEqual(t, minZ, z, "z=%d", z)
		assert.GreaterOrEqual(t, maxZ, z, "z=%d", z)
		assert.Less(t, maxZ, uint8(MaxLayers), "z=%d", z)
	}
}

func TestLayerWindowBranches(t *testing.T) {
	tests := []struct {
		name       string
		z          uint8
		minZ, maxZ uint8
	}{
		{"top layer", 0, 0, SurfaceLayer},
		{"above ground", 4, 0, SurfaceLayer},
		{"one above surface", 6, 0, 8},
		{"surface", 7, 0, 9},
		{"first underground", 8, 6, 10},
		{"deep", 12, 10, 14},
		{"clamped at bottom", 15, 13, 15},
		{"one above bottom", 14, 12, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minZ, maxZ := LayerWindow(tt.z, true)
			assert.Equal(t, tt.minZ, minZ)
			assert.Equal(t, tt.maxZ, maxZ)
		})
	}
}

func TestOffsetZ(t *testing.T) {
	center := Position{X: 10, Y: 10, Z: 7}
	assert.Equal(t, int32(0), OffsetZ(center, Position{Z: 7}))
	assert.Equal(t, int32(2), OffsetZ(center, Position{Z: 5}))
	assert.Equal(t, int32(-1), OffsetZ(center, Position{Z: 8}))
}

func TestPositionHash(t *testing.T) {
	a := Position{X: 1, Y: 2, Z: 3}
	assert.Equal(t, uint64(1|2<<16|3<<32), a.Hash())
	assert.NotEqual(t, a.Hash(), Position{X: 2, Y: 1, Z: 3}.Hash())
	assert.Equal(t, a.Hash(), Position{X: 1, Y: 2, Z: 3}.Hash())
}

func TestPositionValid(t *testing.T) {
	assert.True(t, Position{X: 0xFFFF, Y: 0xFFFF, Z: MaxLayers - 1}.Valid())
	assert.False(t, Position{Z: MaxLayers}.Valid())
}
