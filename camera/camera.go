// Package camera builds projection and view matrices for a Vulkan clip space
// (y down, depth in [0, 1]).
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	projection mgl32.Mat4
	view       mgl32.Mat4
}

func New() *Camera {
	return &Camera{
		projection: mgl32.Ident4(),
		view:       mgl32.Ident4(),
	}
}

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }
func (c *Camera) View() mgl32.Mat4       { return c.view }

func (c *Camera) ProjectionView() mgl32.Mat4 {
	return c.projection.Mul4(c.view)
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	c.projection = mgl32.Ident4()
	c.projection.Set(0, 0, 2/(right-left))
	c.projection.Set(1, 1, 2/(bottom-top))
	c.projection.Set(2, 2, 1/(far-near))
	c.projection.Set(0, 3, -(right+left)/(right-left))
	c.projection.Set(1, 3, -(bottom+top)/(bottom-top))
	c.projection.Set(2, 3, -near/(far-near))
}

// SetPerspectiveProjection panics when aspect is zero; callers skip frames on
// a zero-sized surface before getting here.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	if aspect == 0 {
		panic("camera: aspect ratio must not be zero")
	}

	tanHalfFovy := math32.Tan(fovy / 2)
	c.projection = mgl32.Mat4{}
	c.projection.Set(0, 0, 1/(aspect*tanHalfFovy))
	c.projection.Set(1, 1, 1/tanHalfFovy)
	c.projection.Set(2, 2, far/(far-near))
	c.projection.Set(3, 2, 1)
	c.projection.Set(2, 3, -(far*near)/(far-near))
}

func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)

	c.setView(u, v, w, position)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera with the same Y, X, Z rotation order as game transforms.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3, s3 := math32.Cos(rotation.Z()), math32.Sin(rotation.Z())
	c2, s2 := math32.Cos(rotation.X()), math32.Sin(rotation.X())
	c1, s1 := math32.Cos(rotation.Y()), math32.Sin(rotation.Y())

	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}

	c.setView(u, v, w, position)
}

func (c *Camera) setView(u, v, w, position mgl32.Vec3) {
	c.view = mgl32.Ident4()
	c.view.SetRow(0, u.Vec4(-u.Dot(position)))
	c.view.SetRow(1, v.Vec4(-v.Dot(position)))
	c.view.SetRow(2, w.Vec4(-w.Dot(position)))
}
