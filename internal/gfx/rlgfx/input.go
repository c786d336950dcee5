package rlgfx

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/camera"
)

// DefaultSensitivity converts mouse pixels to degrees.
const DefaultSensitivity = 0.15

// Input reads WASD, Space/Shift and the mouse. Enabled, when set, gates it so a
// console can take the keyboard.
type Input struct {
	Sensitivity float32
	Enabled     func() bool
}

func (in *Input) Input() camera.Input {
	if in.Enabled != nil && !in.Enabled() {
		return camera.Input{}
	}
	s := in.Sensitivity
	if s == 0 {
		s = DefaultSensitivity
	}
	d := rl.GetMouseDelta()
	return camera.Input{
		MouseDelta: mgl32.Vec2{d.X * s, d.Y * s},
		Forward:    rl.IsKeyDown(rl.KeyW),
		Back:       rl.IsKeyDown(rl.KeyS),
		Left:       rl.IsKeyDown(rl.KeyA),
		Right:      rl.IsKeyDown(rl.KeyD),
		Up:         rl.IsKeyDown(rl.KeySpace),
		Down:       rl.IsKeyDown(rl.KeyLeftShift),
	}
}
