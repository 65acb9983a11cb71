package app

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestRowPlacementIsCentered(t *testing.T) {
	single := rowPlacement(0, 1)
	assert.Equal(t, mgl32.Vec3{0, 0.5, 2.5}, single.Translation)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, single.Scale)

	var sum float32
	for i := 0; i < 4; i++ {
		sum += rowPlacement(i, 4).Translation.X()
	}
	assert.InDelta(t, 0, sum, 1e-6)
	assert.Equal(t, float32(-1.5), rowPlacement(0, 4).Translation.X())
	assert.Equal(t, float32(1.5), rowPlacement(3, 4).Translation.X())
}

func TestGlobalUBOSizeMatchesShaderBlock(t *testing.T) {
	assert.Len(t, mustEncode(struct {
		ProjectionView mgl32.Mat4
		LightDirection mgl32.Vec4
	}{}), 80)
}
