// Package postprocess owns the off-screen targets of the blur path: the scene is
// drawn into one target, blurred by ping-ponging between two targets with a
// separable kernel, and presented to the screen as a full-screen quad.
package postprocess

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// MaxTaps is the largest kernel the blur program accepts.
const MaxTaps = 15

const DefaultPasses = 10

// DefaultKernel is a 7-tap gaussian.
var DefaultKernel = []float32{0.006, 0.061, 0.242, 0.383, 0.242, 0.061, 0.006}

var ErrKernel = errors.New("postprocess: kernel must have an odd number of taps between 1 and 15")

// Config controls the blur.
type Config struct {
	// Passes is the number of horizontal+vertical iterations. Zero presents the scene unblurred.
	Passes int
	Kernel []float32
}

func DefaultConfig() Config {
	return Config{Passes: DefaultPasses, Kernel: append([]float32(nil), DefaultKernel...)}
}

func (c Config) Validate() error {
	if c.Passes < 0 {
		return fmt.Errorf("postprocess: negative pass count %d", c.Passes)
	}
	if n := len(c.Kernel); n == 0 || n > MaxTaps || n%2 == 0 {
		return fmt.Errorf("%d taps: %w", len(c.Kernel), ErrKernel)
	}
	return nil
}

// Programs are the two programs the chain draws with.
type Programs struct {
	// Blur samples diffuse along one axis; uniforms isVertical, weights, taps, texelSize.
	Blur gfx.Program
	// Present copies diffuse to the bound target.
	Present gfx.Program
}

// Chain is the post-process path. Targets are provisioned on first use and
// live until Release.
type Chain struct {
	dev      gfx.Device
	quad     gfx.Mesh
	programs Programs
	cfg      Config
	targets  [2]gfx.RenderTarget
	owned    gfx.Resources
}

// New does not touch the device; call Provision before drawing.
func New(dev gfx.Device, quad gfx.Mesh, programs Programs, cfg Config) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chain{dev: dev, quad: quad, programs: programs, cfg: cfg}, nil
}

// Provisioned reports whether both targets exist and are complete.
func (c *Chain) Provisioned() bool { return c.targets[0] != nil }

// Provision creates the scene target (colour+depth) and the second blur target
// at the device size. An incomplete framebuffer releases what was created and
// returns an error wrapping gfx.ErrIncompleteTarget.
func (c *Chain) Provision() error {
	if c.Provisioned() {
		return nil
	}
	w, h := c.dev.Size()
	var created gfx.Resources
	var targets [2]gfx.RenderTarget
	for i := range targets {
		t, err := c.dev.NewRenderTarget(w, h, i == 0)
		if err != nil {
			created.Release()
			return fmt.Errorf("post-process target %d: %w", i, err)
		}
		created.Track(t)
		if !t.Complete() {
			created.Release()
			return fmt.Errorf("post-process target %d (%dx%d): %w", i, w, h, gfx.ErrIncompleteTarget)
		}
		targets[i] = t
	}
	c.targets = targets
	c.owned.Adopt(&created)
	return nil
}

// SceneTarget is where the scene is drawn in post-process mode and where the
// final blurred image ends up.
func (c *Chain) SceneTarget() gfx.RenderTarget { return c.targets[0] }

func (c *Chain) Config() Config { return c.cfg }

// SetPasses changes the iteration count; negative values are clamped to zero.
func (c *Chain) SetPasses(n int) { c.cfg.Passes = max(n, 0) }

// SetKernel replaces the blur weights.
func (c *Chain) SetKernel(k []float32) error {
	cfg := Config{Passes: c.cfg.Passes, Kernel: append([]float32(nil), k...)}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// Blur runs the configured passes. Each pass draws horizontally from target 0
// into target 1, then vertically from target 1 back into target 0, so the
// result is always in the scene target.
func (c *Chain) Blur() {
	if !c.Provisioned() || c.cfg.Passes == 0 {
		return
	}
	w, h := c.targets[0].Size()
	p := c.programs.Blur

	c.dev.SetDepthTest(false)
	c.dev.SetMatrices(mgl32.Ident4(), mgl32.Ident4())
	c.dev.UseProgram(p)
	p.SetFloats("weights", c.cfg.Kernel)
	p.SetInt("taps", int32(len(c.cfg.Kernel)))
	p.SetVec2("texelSize", mgl32.Vec2{1 / float32(w), 1 / float32(h)})

	for i := 0; i < c.cfg.Passes; i++ {
		c.halfPass(c.targets[0], c.targets[1], false)
		c.halfPass(c.targets[1], c.targets[0], true)
	}
	c.dev.SetDepthTest(true)
}

func (c *Chain) halfPass(src, dst gfx.RenderTarget, vertical bool) {
	c.dev.BindTarget(dst)
	c.dev.Clear(mgl32.Vec4{})
	v := float32(0)
	if vertical {
		v = 1
	}
	c.programs.Blur.SetFloat("isVertical", v)
	c.quad.Draw(gfx.Binding{
		Program: c.programs.Blur,
		Model:   mgl32.Ident4(),
		Colour:  gfx.White,
		Diffuse: src.Texture(),
	})
}

// Present draws the scene target to the default framebuffer under identity matrices.
func (c *Chain) Present() {
	if !c.Provisioned() {
		return
	}
	c.dev.BindTarget(nil)
	c.dev.Clear(mgl32.Vec4{})
	c.dev.SetMatrices(mgl32.Ident4(), mgl32.Ident4())
	c.dev.UseProgram(c.programs.Present)
	c.quad.Draw(gfx.Binding{
		Program: c.programs.Present,
		Model:   mgl32.Ident4(),
		Colour:  gfx.White,
		Diffuse: c.targets[0].Texture(),
	})
}

// Release frees the targets. The quad and programs belong to the caller.
func (c *Chain) Release() {
	c.owned.Release()
	c.targets = [2]gfx.RenderTarget{}
}
