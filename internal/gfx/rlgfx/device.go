// Package rlgfx implements the gfx interfaces on raylib. Everything here must run
// on the thread that opened the window, after rl.InitWindow.
package rlgfx

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// Device draws through raylib's immediate mode. It remembers the last matrices
// so binding a target, which makes raylib reset its matrices, does not lose them.
type Device struct {
	target     *Target
	projection mgl32.Mat4
	view       mgl32.Mat4
	program    *Program

	// scratch is re-pointed at each draw's program and textures.
	scratch rl.Material
	white   rl.Texture2D
}

// NewDevice must be called after the window exists.
func NewDevice() *Device {
	d := &Device{
		projection: mgl32.Ident4(),
		view:       mgl32.Ident4(),
		scratch:    rl.LoadMaterialDefault(),
	}
	if albedo := d.scratch.GetMap(rl.MapAlbedo); albedo != nil {
		d.white = albedo.Texture
	}
	return d
}

func (d *Device) Size() (int, int) { return rl.GetScreenWidth(), rl.GetScreenHeight() }

// BindTarget ends any texture mode in progress and starts drawing into t, or
// into the back buffer when t is nil.
func (d *Device) BindTarget(t gfx.RenderTarget) {
	if d.target != nil {
		rl.EndTextureMode()
		d.target = nil
	}
	if rt, ok := t.(*Target); ok && rt != nil {
		rl.BeginTextureMode(rt.rt)
		d.target = rt
	}
	d.applyMatrices()
}

// Clear clears colour and depth. raylib render textures carry a depth-only
// renderbuffer and nothing here enables a stencil test, so there is no stencil to clear.
func (d *Device) Clear(c mgl32.Vec4) { rl.ClearBackground(toColor(c)) }

func (d *Device) SetDepthWrite(on bool) {
	rl.DrawRenderBatchActive()
	if on {
		rl.EnableDepthMask()
	} else {
		rl.DisableDepthMask()
	}
}

func (d *Device) SetDepthTest(on bool) {
	rl.DrawRenderBatchActive()
	if on {
		rl.EnableDepthTest()
	} else {
		rl.DisableDepthTest()
	}
}

func (d *Device) SetMatrices(projection, view mgl32.Mat4) {
	d.projection, d.view = projection, view
	d.applyMatrices()
}

func (d *Device) applyMatrices() {
	rl.DrawRenderBatchActive()
	rl.SetMatrixProjection(toMatrix(d.projection))
	rl.SetMatrixModelview(toMatrix(d.view))
}

func (d *Device) UseProgram(p gfx.Program) {
	d.program, _ = p.(*Program)
}

// NewRenderTarget creates an off-screen framebuffer. raylib always attaches a
// depth renderbuffer, so depth only documents intent.
func (d *Device) NewRenderTarget(w, h int, depth bool) (gfx.RenderTarget, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render target %dx%d: %w", w, h, gfx.ErrIncompleteTarget)
	}
	rt := rl.LoadRenderTexture(int32(w), int32(h))
	t := &Target{rt: rt, w: w, h: h}
	t.tex = &Texture{tex: rt.Texture, borrowed: true}
	return t, nil
}

// material points the scratch material at the binding. A nil diffuse falls back
// to raylib's white texture so untextured draws still sample something.
func (d *Device) material(b gfx.Binding) rl.Material {
	p, _ := b.Program.(*Program)
	if p == nil {
		p = d.program
	}
	if p != nil {
		d.scratch.Shader = p.shader
	}
	if albedo := d.scratch.GetMap(rl.MapAlbedo); albedo != nil {
		albedo.Texture = d.white
		if t := texture(b.Diffuse); t != nil {
			albedo.Texture = t.tex
		}
		albedo.Color = toColor(b.Colour)
	}
	if normal := d.scratch.GetMap(rl.MapNormal); normal != nil {
		normal.Texture = rl.Texture2D{}
		if t := texture(b.Bump); t != nil {
			normal.Texture = t.tex
		}
	}
	if cube := d.scratch.GetMap(rl.MapCubemap); cube != nil {
		cube.Texture = rl.Texture2D{}
		if t := texture(b.Cubemap); t != nil {
			cube.Texture = t.tex
		}
	}
	return d.scratch
}

// Target is an off-screen colour+depth framebuffer.
type Target struct {
	rt   rl.RenderTexture2D
	tex  *Texture
	w, h int
}

func (t *Target) Texture() gfx.Texture { return t.tex }
func (t *Target) Complete() bool       { return rl.IsRenderTextureValid(t.rt) }
func (t *Target) Size() (int, int)     { return t.w, t.h }

// Release frees the framebuffer once; the zeroed handle makes later calls no-ops.
func (t *Target) Release() {
	if t.rt.ID == 0 {
		return
	}
	rl.UnloadRenderTexture(t.rt)
	t.rt = rl.RenderTexture2D{}
	t.tex.tex = rl.Texture2D{}
}

func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M1: m[1], M2: m[2], M3: m[3],
		M4: m[4], M5: m[5], M6: m[6], M7: m[7],
		M8: m[8], M9: m[9], M10: m[10], M11: m[11],
		M12: m[12], M13: m[13], M14: m[14], M15: m[15],
	}
}

func toColor(c mgl32.Vec4) rl.Color {
	return rl.ColorFromNormalized(rl.NewVector4(c[0], c[1], c[2], c[3]))
}
