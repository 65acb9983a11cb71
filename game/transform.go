package game

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform rotations are Tait-Bryan angles applied Y, then X, then Z.
type Transform struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Mat4 returns Translate * Ry * Rx * Rz * Scale.
func (t Transform) Mat4() mgl32.Mat4 {
	c3, s3 := math32.Cos(t.Rotation.Z()), math32.Sin(t.Rotation.Z())
	c2, s2 := math32.Cos(t.Rotation.X()), math32.Sin(t.Rotation.X())
	c1, s1 := math32.Cos(t.Rotation.Y()), math32.Sin(t.Rotation.Y())

	return mgl32.Mat4{
		t.Scale.X() * (c1*c3 + s1*s2*s3),
		t.Scale.X() * (c2 * s3),
		t.Scale.X() * (c1*s2*s3 - c3*s1),
		0,

		t.Scale.Y() * (c3*s1*s2 - c1*s3),
		t.Scale.Y() * (c2 * c3),
		t.Scale.Y() * (c1*c3*s2 + s1*s3),
		0,

		t.Scale.Z() * (c2 * s1),
		t.Scale.Z() * (-s2),
		t.Scale.Z() * (c1 * c2),
		0,

		t.Translation.X(), t.Translation.Y(), t.Translation.Z(), 1,
	}
}

// NormalMatrix is the rotation scaled by the inverse scale, which equals the
// inverse transpose of the upper 3x3 of Mat4.
func (t Transform) NormalMatrix() mgl32.Mat3 {
	c3, s3 := math32.Cos(t.Rotation.Z()), math32.Sin(t.Rotation.Z())
	c2, s2 := math32.Cos(t.Rotation.X()), math32.Sin(t.Rotation.X())
	c1, s1 := math32.Cos(t.Rotation.Y()), math32.Sin(t.Rotation.Y())
	inv := mgl32.Vec3{1 / t.Scale.X(), 1 / t.Scale.Y(), 1 / t.Scale.Z()}

	return mgl32.Mat3{
		inv.X() * (c1*c3 + s1*s2*s3),
		inv.X() * (c2 * s3),
		inv.X() * (c1*s2*s3 - c3*s1),

		inv.Y() * (c3*s1*s2 - c1*s3),
		inv.Y() * (c2 * c3),
		inv.Y() * (c1*c3*s2 + s1*s3),

		inv.Z() * (c2 * s1),
		inv.Z() * (-s2),
		inv.Z() * (c1 * c2),
	}
}

// WrapAngle maps an angle into [0, 2π).
func WrapAngle(angle float32) float32 {
	wrapped := math32.Mod(angle, 2*math32.Pi)
	if wrapped < 0 {
		wrapped += 2 * math32.Pi
	}
	return wrapped
}
