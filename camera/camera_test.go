package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	clip := m.Mul4x1(p.Vec4(1))
	return clip.Vec3().Mul(1 / clip.W())
}

func TestPerspectiveDepthRange(t *testing.T) {
	cam := New()
	cam.SetPerspectiveProjection(mgl32.DegToRad(50), 1.5, 0.1, 10)

	near := project(cam.Projection(), mgl32.Vec3{0, 0, 0.1})
	far := project(cam.Projection(), mgl32.Vec3{0, 0, 10})

	assert.InDelta(t, 0, near.Z(), 1e-5)
	assert.InDelta(t, 1, far.Z(), 1e-5)
}

func TestPerspectivePanicsOnZeroAspect(t *testing.T) {
	assert.Panics(t, func() {
		New().SetPerspectiveProjection(1, 0, 0.1, 10)
	})
}

func TestOrthographicCorners(t *testing.T) {
	cam := New()
	cam.SetOrthographicProjection(-2, 2, -1, 1, -1, 1)

	assert.True(t, project(cam.Projection(), mgl32.Vec3{-2, -1, -1}).ApproxEqual(mgl32.Vec3{-1, -1, 0}))
	assert.True(t, project(cam.Projection(), mgl32.Vec3{2, 1, 1}).ApproxEqual(mgl32.Vec3{1, 1, 1}))
}

func TestViewTargetLooksDownPositiveZ(t *testing.T) {
	cam := New()
	cam.SetViewTarget(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{0, -1, 0})

	assert.True(t, cam.View().ApproxEqualThreshold(mgl32.Ident4(), 1e-6))
}

func TestViewYXZTranslatesByNegativePosition(t *testing.T) {
	cam := New()
	cam.SetViewYXZ(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{})

	moved := cam.View().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	assert.True(t, moved.ApproxEqual(mgl32.Vec4{0, 0, 0, 1}))
}

func TestViewYXZMatchesViewDirection(t *testing.T) {
	yaw := math32.Pi / 2

	byAngles := New()
	byAngles.SetViewYXZ(mgl32.Vec3{0, 0, -2}, mgl32.Vec3{0, yaw, 0})

	byDirection := New()
	byDirection.SetViewDirection(mgl32.Vec3{0, 0, -2}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0})

	assert.True(t, byAngles.View().ApproxEqualThreshold(byDirection.View(), 1e-5))
}

func TestProjectionView(t *testing.T) {
	cam := New()
	cam.SetViewYXZ(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{})
	cam.SetPerspectiveProjection(1, 1, 0.1, 100)

	assert.Equal(t, cam.Projection().Mul4(cam.View()), cam.ProjectionView())
}
