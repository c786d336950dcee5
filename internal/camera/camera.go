// Package camera is a free-fly first person camera: mouse look plus WASD movement.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultSpeed is the movement speed in world units per second.
const DefaultSpeed = 30

// Input is one frame of camera controls.
type Input struct {
	// MouseDelta is the cursor movement since the last frame in pixels.
	MouseDelta                 mgl32.Vec2
	Forward, Back, Left, Right bool
	Up, Down                   bool
}

// InputSource supplies controls once per frame. The raylib window implements it;
// tests pass canned input.
type InputSource interface {
	Input() Input
}

// Camera stores orientation in degrees. Pitch is clamped to [-90, 90] and yaw
// wraps to [0, 360).
type Camera struct {
	Pitch    float32
	Yaw      float32
	Position mgl32.Vec3
	Speed    float32
}

func New(pitch, yaw float32, position mgl32.Vec3) *Camera {
	return &Camera{Pitch: pitch, Yaw: yaw, Position: position, Speed: DefaultSpeed}
}

// Update applies one frame of input.
func (c *Camera) Update(dt float32, in Input) {
	c.Pitch -= in.MouseDelta.Y()
	c.Yaw -= in.MouseDelta.X()
	c.Pitch = mgl32.Clamp(c.Pitch, -90, 90)
	if c.Yaw < 0 {
		c.Yaw += 360
	}
	if c.Yaw >= 360 {
		c.Yaw -= 360
	}

	rot := mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw))
	forward := rot.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	right := rot.Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()

	step := c.Speed * dt
	if in.Forward {
		c.Position = c.Position.Add(forward.Mul(step))
	}
	if in.Back {
		c.Position = c.Position.Sub(forward.Mul(step))
	}
	if in.Left {
		c.Position = c.Position.Sub(right.Mul(step))
	}
	if in.Right {
		c.Position = c.Position.Add(right.Mul(step))
	}
	if in.Up {
		c.Position[1] += step
	}
	if in.Down {
		c.Position[1] -= step
	}
}

// ViewMatrix is Rx(-pitch) * Ry(-yaw) * T(-position).
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(mgl32.DegToRad(-c.Pitch)).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(-c.Yaw))).
		Mul4(mgl32.Translate3D(-c.Position[0], -c.Position[1], -c.Position[2]))
}

// Forward is the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 {
	p, y := mgl32.DegToRad(c.Pitch), mgl32.DegToRad(c.Yaw)
	sp, cp := math32.Sincos(p)
	sy, cy := math32.Sincos(y)
	return mgl32.Vec3{-sy * cp, sp, -cy * cp}
}
