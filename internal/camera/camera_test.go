package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPitchClampAndYawWrap(t *testing.T) {
	c := New(-45, 0, mgl32.Vec3{})
	c.Update(0, Input{MouseDelta: mgl32.Vec2{10, 100}})
	assert.Equal(t, float32(-90), c.Pitch)
	assert.Equal(t, float32(350), c.Yaw)

	c.Update(0, Input{MouseDelta: mgl32.Vec2{-20, -400}})
	assert.Equal(t, float32(90), c.Pitch)
	assert.Equal(t, float32(10), c.Yaw)
}

func TestMovementFollowsYaw(t *testing.T) {
	c := New(0, 0, mgl32.Vec3{})
	c.Update(1, Input{Forward: true})
	assert.InDeltaSlice(t, []float32{0, 0, -30}, c.Position[:], 1e-4)

	c = New(0, 90, mgl32.Vec3{})
	c.Update(0.5, Input{Forward: true})
	assert.InDeltaSlice(t, []float32{-15, 0, 0}, c.Position[:], 1e-4)

	c = New(0, 0, mgl32.Vec3{})
	c.Update(1, Input{Right: true, Up: true})
	assert.InDeltaSlice(t, []float32{30, 30, 0}, c.Position[:], 1e-4)
	c.Update(1, Input{Left: true, Back: true, Down: true})
	assert.InDeltaSlice(t, []float32{0, 0, 30}, c.Position[:], 1e-4)
}

func TestViewMatrixLooksAlongForward(t *testing.T) {
	for _, tc := range []struct{ pitch, yaw float32 }{{0, 0}, {-45, 0}, {30, 120}, {-10, 275}} {
		c := New(tc.pitch, tc.yaw, mgl32.Vec3{100, 250, 40})
		target := c.Position.Add(c.Forward().Mul(10))
		v := c.ViewMatrix().Mul4x1(target.Vec4(1))
		assert.InDeltaSlice(t, []float32{0, 0, -10, 1}, v[:], 1e-3, "pitch %v yaw %v", tc.pitch, tc.yaw)
	}
}
