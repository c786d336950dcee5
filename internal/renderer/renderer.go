// Package renderer is the frame orchestrator. Each frame the host calls Update
// then RenderScene; the renderer updates the camera and scene graph, collects and
// sorts visible nodes, draws the sky and nodes either straight to the screen or
// into an off-screen target, and in post-process mode blurs and presents it.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"scenerender/internal/assets"
	"scenerender/internal/camera"
	"scenerender/internal/engineconfig"
	"scenerender/internal/frustum"
	"scenerender/internal/gfx"
	"scenerender/internal/postprocess"
	"scenerender/internal/renderlist"
	"scenerender/internal/scene"
)

// ErrNotReady is returned by frame operations on a renderer whose setup failed or that was closed.
var ErrNotReady = errors.New("renderer: not initialised")

var clearColour = mgl32.Vec4{0.2, 0.2, 0.2, 1}

// Config is everything New needs besides the graphics services.
type Config struct {
	Prefs    engineconfig.Prefs
	Manifest *assets.Manifest
	// Input drives the camera; nil leaves the camera still.
	Input camera.InputSource
}

// Stats describe the last rendered frame.
type Stats struct {
	renderlist.Stats
	DrawCalls   int
	PostProcess bool
	BlurPasses  int
	FarPlane    float32
}

type programs struct {
	sky, terrain, water, node, static, skinned, blur, present gfx.Program
}

// Renderer owns the scene graph and every GPU resource it loaded.
type Renderer struct {
	dev      gfx.Device
	loader   gfx.Loader
	log      *zap.Logger
	prefs    engineconfig.Prefs
	manifest *assets.Manifest
	input    camera.InputSource

	ready       bool
	postProcess bool

	root     *scene.Pivot
	lists    *renderlist.Lists
	frustum  frustum.Frustum
	camera   *camera.Camera
	light    Light
	programs programs
	quad     gfx.Mesh
	cubemap  gfx.Texture
	chain    *postprocess.Chain
	owned    gfx.Resources

	terrainSize mgl32.Vec3
	projection  mgl32.Mat4
	view        mgl32.Mat4
	stats       Stats
}

// New loads every resource and builds the scene graph. Any failure releases
// what was acquired and returns the error together with a renderer whose
// Ready reports false.
func New(dev gfx.Device, loader gfx.Loader, cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	prefs := cfg.Prefs.Sanitized()
	if err := cfg.Prefs.Validate(); err != nil {
		log.Warn("repaired renderer preferences", zap.Error(err))
	}
	m := cfg.Manifest
	if m == nil {
		m = assets.Default()
	}
	r := &Renderer{
		dev:      dev,
		loader:   loader,
		log:      log,
		prefs:    prefs,
		manifest: m,
		input:    cfg.Input,
		lists:    renderlist.New(renderlist.Options{ForceMeshVisible: prefs.ForceMeshVisible}),
		view:     mgl32.Ident4(),
	}
	if err := r.setup(); err != nil {
		log.Error("renderer setup failed", zap.Error(err))
		return r, err
	}
	r.ready = true
	log.Info("renderer ready",
		zap.Int("nodes", r.nodeCount()),
		zap.Float32("terrain_x", r.terrainSize.X()),
		zap.Float32("terrain_z", r.terrainSize.Z()))

	if prefs.PostProcess {
		if err := r.SetPostProcessing(true); err != nil {
			log.Warn("starting in direct mode", zap.Error(err))
		}
	}
	return r, nil
}

// Ready reports whether setup completed. Update and RenderScene do nothing
// useful until it does.
func (r *Renderer) Ready() bool { return r.ready }

// Update advances the camera, rebuilds the view and frustum, then updates the scene graph.
func (r *Renderer) Update(dt float32) {
	if !r.ready {
		return
	}
	var in camera.Input
	if r.input != nil {
		in = r.input.Input()
	}
	r.camera.Update(dt, in)
	r.view = r.camera.ViewMatrix()
	r.frustum.FromMatrix(r.projection.Mul4(r.view))
	r.root.Update(dt)
}

// RenderScene draws one frame.
func (r *Renderer) RenderScene() error {
	if !r.ready {
		return ErrNotReady
	}
	r.lists.Build(r.root, &r.frustum, r.camera.Position)
	r.lists.Sort()

	if r.postProcess {
		r.dev.BindTarget(r.chain.SceneTarget())
	} else {
		r.dev.BindTarget(nil)
	}
	r.dev.Clear(clearColour)
	r.dev.SetMatrices(r.projection, r.view)
	r.dev.SetDepthTest(true)
	r.drawSkybox()
	drawCalls := r.drawNodes()

	if r.postProcess {
		r.chain.Blur()
		r.chain.Present()
	}

	r.stats = Stats{
		Stats:       r.lists.Stats(),
		DrawCalls:   drawCalls,
		PostProcess: r.postProcess,
		BlurPasses:  r.chain.Config().Passes,
		FarPlane:    r.prefs.FarPlaneFor(r.postProcess),
	}
	r.lists.Clear()
	return nil
}

// BeginOverlay returns the device to screen space after RenderScene: the
// default framebuffer, no depth test, and a pixel ortho projection with the
// origin at the top left. 2D overlays drawn afterwards land where expected.
func (r *Renderer) BeginOverlay() {
	w, h := r.dev.Size()
	r.dev.BindTarget(nil)
	r.dev.SetDepthTest(false)
	r.dev.SetMatrices(mgl32.Ortho(0, float32(w), float32(h), 0, 0, 1), mgl32.Ident4())
}

// drawSkybox draws the sky as a full-screen quad with depth writes off so
// everything drawn after it lands in front.
func (r *Renderer) drawSkybox() {
	r.dev.SetDepthWrite(false)
	r.dev.UseProgram(r.programs.sky)
	r.programs.sky.SetMat4("viewMatrix", r.view)
	r.programs.sky.SetMat4("projMatrix", r.projection)
	r.quad.Draw(gfx.Binding{
		Program: r.programs.sky,
		Model:   mgl32.Ident4(),
		Colour:  gfx.White,
		Cubemap: r.cubemap,
	})
	r.dev.SetDepthWrite(true)
}

func (r *Renderer) drawNodes() int {
	calls := 0
	for _, n := range r.lists.Opaque() {
		calls += r.drawNode(n)
	}
	for _, n := range r.lists.Transparent() {
		calls += r.drawNode(n)
	}
	return calls
}

// drawNode binds the node's program, sets the shared uniforms, and lets the node
// bind its own textures and issue the draw. Nodes without both a mesh and a
// program are skipped.
func (r *Renderer) drawNode(n scene.Node) int {
	b := n.AsBase()
	p := b.Program()
	if b.Mesh() == nil || p == nil {
		return 0
	}
	r.dev.UseProgram(p)
	r.setCommonUniforms(p)
	p.SetVec4("nodeColour", b.Colour())
	ctx := &scene.DrawContext{Program: p, CameraPosition: r.camera.Position}
	n.Draw(ctx)
	return ctx.DrawCalls
}

// SetPostProcessing switches between direct and post-process mode. The
// projection far plane follows the mode. Enabling provisions the off-screen
// targets on first use; if they are incomplete the renderer stays in direct
// mode and the error wraps gfx.ErrIncompleteTarget.
func (r *Renderer) SetPostProcessing(on bool) error {
	if !r.ready {
		return ErrNotReady
	}
	if on == r.postProcess {
		return nil
	}
	if on {
		if err := r.chain.Provision(); err != nil {
			r.log.Error("post-processing unavailable", zap.Error(err))
			return fmt.Errorf("enable post-processing: %w", err)
		}
	}
	r.postProcess = on
	r.projection = r.buildProjection()
	r.log.Info("post-processing",
		zap.Bool("on", on),
		zap.Float32("far_plane", r.prefs.FarPlaneFor(on)))
	return nil
}

// TogglePostProcessing flips the current mode.
func (r *Renderer) TogglePostProcessing() error { return r.SetPostProcessing(!r.postProcess) }

func (r *Renderer) PostProcessing() bool { return r.postProcess }

// SetBlurPasses changes the blur iteration count; negative counts become zero.
func (r *Renderer) SetBlurPasses(n int) {
	if r.chain != nil {
		r.chain.SetPasses(n)
	}
}

// SetForceMeshVisible toggles the escape hatch that skips frustum tests for mesh nodes.
func (r *Renderer) SetForceMeshVisible(on bool) {
	r.lists.SetOptions(renderlist.Options{ForceMeshVisible: on})
}

func (r *Renderer) ForceMeshVisible() bool { return r.lists.Options().ForceMeshVisible }

func (r *Renderer) buildProjection() mgl32.Mat4 {
	w, h := r.dev.Size()
	aspect := float32(1)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	return mgl32.Perspective(mgl32.DegToRad(r.prefs.FOV), aspect, r.prefs.NearPlane, r.prefs.FarPlaneFor(r.postProcess))
}

func (r *Renderer) Projection() mgl32.Mat4 { return r.projection }
func (r *Renderer) View() mgl32.Mat4       { return r.view }
func (r *Renderer) Stats() Stats           { return r.stats }

// Camera exposes the camera so hosts and tests can reposition it.
func (r *Renderer) Camera() *camera.Camera { return r.camera }

// Root is the scene graph root; nil before a successful setup.
func (r *Renderer) Root() *scene.Pivot { return r.root }

func (r *Renderer) TerrainSize() mgl32.Vec3 { return r.terrainSize }

func (r *Renderer) nodeCount() int {
	n := 0
	r.root.Walk(func(scene.Node) bool {
		n++
		return true
	})
	return n
}

// Close releases the scene graph, the post-process targets and every shared
// resource. It is safe to call more than once.
func (r *Renderer) Close() {
	if r.root != nil {
		r.root.Release()
		r.root = nil
	}
	if r.chain != nil {
		r.chain.Release()
	}
	r.owned.Release()
	r.ready = false
	r.postProcess = false
}
