package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// Light is the single point light of the scene.
type Light struct {
	Position mgl32.Vec3
	Colour   mgl32.Vec4
	Radius   float32
}

// Lighting defaults shared by every lit program.
var defaultAmbient = mgl32.Vec4{0.2, 0.22, 0.26, 1.0}

const (
	defaultSpecularPower    = 48.0
	defaultSpecularStrength = 0.35
)

func (r *Renderer) Light() Light { return r.light }

// SetLight replaces the scene light.
func (r *Renderer) SetLight(l Light) { r.light = l }

// setCommonUniforms uploads what every node program may read. Programs that do
// not declare a uniform ignore it.
func (r *Renderer) setCommonUniforms(p gfx.Program) {
	p.SetVec3("cameraPos", r.camera.Position)
	p.SetVec3("lightPos", r.light.Position)
	p.SetVec4("lightColour", r.light.Colour)
	p.SetFloat("lightRadius", r.light.Radius)
	p.SetVec4("ambient", defaultAmbient)
	p.SetFloat("specularPower", defaultSpecularPower)
	p.SetFloat("specularStrength", defaultSpecularStrength)
	p.SetMat4("viewMatrix", r.view)
	p.SetMat4("projMatrix", r.projection)
}
