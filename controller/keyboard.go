// Package controller moves game objects from keyboard input.
package controller

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/lhll/game"
)

const maxPitch = 1.5

// KeyState reports whether a key is held down.
type KeyState interface {
	KeyPressed(key sdl.Scancode) bool
}

type KeyMappings struct {
	MoveLeft     sdl.Scancode
	MoveRight    sdl.Scancode
	MoveForward  sdl.Scancode
	MoveBackward sdl.Scancode
	MoveUp       sdl.Scancode
	MoveDown     sdl.Scancode
	LookLeft     sdl.Scancode
	LookRight    sdl.Scancode
	LookUp       sdl.Scancode
	LookDown     sdl.Scancode
}

func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     sdl.SCANCODE_A,
		MoveRight:    sdl.SCANCODE_D,
		MoveForward:  sdl.SCANCODE_W,
		MoveBackward: sdl.SCANCODE_S,
		MoveUp:       sdl.SCANCODE_E,
		MoveDown:     sdl.SCANCODE_Q,
		LookLeft:     sdl.SCANCODE_LEFT,
		LookRight:    sdl.SCANCODE_RIGHT,
		LookUp:       sdl.SCANCODE_UP,
		LookDown:     sdl.SCANCODE_DOWN,
	}
}

type KeyboardMovement struct {
	Keys      KeyMappings
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardMovement() *KeyboardMovement {
	return &KeyboardMovement{
		Keys:      DefaultKeyMappings(),
		MoveSpeed: 3,
		LookSpeed: 0.5,
	}
}

// MoveInPlaneXZ turns the object with the look keys and moves it relative to
// its yaw, so forward stays level no matter the pitch. Y points down.
func (c *KeyboardMovement) MoveInPlaneXZ(keys KeyState, dt float32, object *game.Object) {
	var rotate mgl32.Vec3
	if keys.KeyPressed(c.Keys.LookRight) {
		rotate[1] += 1
	}
	if keys.KeyPressed(c.Keys.LookLeft) {
		rotate[1] -= 1
	}
	if keys.KeyPressed(c.Keys.LookUp) {
		rotate[0] += 1
	}
	if keys.KeyPressed(c.Keys.LookDown) {
		rotate[0] -= 1
	}

	transform := &object.Transform
	if rotate.Dot(rotate) > mgl32.Epsilon {
		transform.Rotation = transform.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}

	transform.Rotation[0] = mgl32.Clamp(transform.Rotation[0], -maxPitch, maxPitch)
	transform.Rotation[1] = game.WrapAngle(transform.Rotation[1])

	yaw := transform.Rotation[1]
	forward := mgl32.Vec3{math32.Sin(yaw), 0, math32.Cos(yaw)}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if keys.KeyPressed(c.Keys.MoveForward) {
		move = move.Add(forward)
	}
	if keys.KeyPressed(c.Keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if keys.KeyPressed(c.Keys.MoveRight) {
		move = move.Add(right)
	}
	if keys.KeyPressed(c.Keys.MoveLeft) {
		move = move.Sub(right)
	}
	if keys.KeyPressed(c.Keys.MoveUp) {
		move = move.Add(up)
	}
	if keys.KeyPressed(c.Keys.MoveDown) {
		move = move.Sub(up)
	}

	if move.Dot(move) > mgl32.Epsilon {
		transform.Translation = transform.Translation.Add(move.Normalize().Mul(c.MoveSpeed * dt))
	}
}
