// Package gfxtest provides a recording implementation of gfx.Device and gfx.Loader
// for tests that need to observe what the renderer asks the GPU to do.
package gfxtest

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// Screen is the target name recorded while the default framebuffer is bound.
const Screen = "screen"

// Op kinds recorded by the fake device and meshes.
const (
	OpBind       = "bind"
	OpClear      = "clear"
	OpDepthWrite = "depthwrite"
	OpDepthTest  = "depthtest"
	OpMatrices   = "matrices"
	OpProgram    = "program"
	OpDraw       = "draw"
)

// Op is one recorded call.
type Op struct {
	Kind    string
	Target  string // bound target at the time of the call
	Program string // program in use (draws record the binding's program)
	Texture string // diffuse texture of a draw
	Cubemap string // cubemap of a draw
	Mesh    string
	SubMesh int // -1 for whole-mesh draws
	On      bool
}

// Recorder is the shared op log of a Device and the resources a Loader creates.
type Recorder struct {
	Ops        []Op
	Projection mgl32.Mat4
	View       mgl32.Mat4

	target    string
	program   string
	resources []*Resource
	nextID    uint32
}

func (r *Recorder) add(op Op) {
	op.Target = r.target
	if op.Program == "" {
		op.Program = r.program
	}
	r.Ops = append(r.Ops, op)
}

// Reset clears the op log but keeps resources.
func (r *Recorder) Reset() { r.Ops = r.Ops[:0] }

// Filter returns the ops of the given kind.
func (r *Recorder) Filter(kind string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Live returns the sorted names of created resources that were never released.
func (r *Recorder) Live() []string {
	var out []string
	for _, res := range r.resources {
		if res.Released == 0 {
			out = append(out, res.Name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Recorder) track(name string) Resource {
	r.nextID++
	return Resource{Name: name, id: r.nextID}
}

// Resource is the common part of every fake handle.
type Resource struct {
	Name     string
	Released int
	id       uint32
}

// Release counts releases so double frees are visible to tests.
func (r *Resource) Release() { r.Released++ }

// Texture is a fake gfx.Texture.
type Texture struct {
	Resource
	Flags gfx.TextureFlags
	cube  bool
}

func (t *Texture) ID() uint32    { return t.id }
func (t *Texture) Cubemap() bool { return t.cube }

// Program is a fake gfx.Program that remembers the last value of every uniform.
type Program struct {
	Resource
	Uniforms map[string]any
}

func (p *Program) Valid() bool { return p.Released == 0 }

func (p *Program) Location(name string) int32 {
	if _, ok := p.Uniforms[name]; ok {
		return 0
	}
	return -1
}

func (p *Program) set(name string, v any)             { p.Uniforms[name] = v }
func (p *Program) SetInt(name string, v int32)        { p.set(name, v) }
func (p *Program) SetFloat(name string, v float32)    { p.set(name, v) }
func (p *Program) SetFloats(name string, v []float32) { p.set(name, append([]float32(nil), v...)) }
func (p *Program) SetVec2(name string, v mgl32.Vec2)  { p.set(name, v) }
func (p *Program) SetVec3(name string, v mgl32.Vec3)  { p.set(name, v) }
func (p *Program) SetVec4(name string, v mgl32.Vec4)  { p.set(name, v) }
func (p *Program) SetMat4(name string, m mgl32.Mat4)  { p.set(name, m) }

// Mesh is a fake gfx.Mesh / gfx.SkinnedMesh. Every draw is appended to the recorder.
type Mesh struct {
	Resource
	SubMeshes int
	Draws     []gfx.Binding
	Poses     []int
	rec       *Recorder
}

func (m *Mesh) SubMeshCount() int { return m.SubMeshes }

func (m *Mesh) Draw(b gfx.Binding) { m.record(-1, b) }

func (m *Mesh) DrawSubMesh(i int, b gfx.Binding) { m.record(i, b) }

func (m *Mesh) Pose(anim gfx.Animation, frame int) { m.Poses = append(m.Poses, frame) }

func (m *Mesh) record(i int, b gfx.Binding) {
	m.Draws = append(m.Draws, b)
	op := Op{Kind: OpDraw, Mesh: m.Name, SubMesh: i, Texture: name(b.Diffuse), Cubemap: name(b.Cubemap)}
	if p, ok := b.Program.(*Program); ok {
		op.Program = p.Name
	}
	m.rec.add(op)
}

// Animation is a fake gfx.Animation.
type Animation struct {
	Resource
	Frames int
	Rate   float32
}

func (a *Animation) FrameCount() int    { return a.Frames }
func (a *Animation) FrameRate() float32 { return a.Rate }

// Target is a fake gfx.RenderTarget.
type Target struct {
	Resource
	W, H       int
	Depth      bool
	Incomplete bool
	tex        *Texture
}

func (t *Target) Texture() gfx.Texture { return t.tex }
func (t *Target) Complete() bool       { return !t.Incomplete }
func (t *Target) Size() (int, int)     { return t.W, t.H }

func (t *Target) Release() {
	t.Resource.Release()
	t.tex.Release()
}

func name(t gfx.Texture) string {
	switch v := t.(type) {
	case *Texture:
		return v.Name
	case nil:
		return ""
	default:
		return fmt.Sprintf("texture#%d", t.ID())
	}
}

// Device is a fake gfx.Device.
type Device struct {
	Rec              *Recorder
	W, H             int
	IncompleteTarget bool
	targets          int
}

// New returns a device and loader sharing one recorder.
func New(w, h int) (*Device, *Loader) {
	rec := &Recorder{target: Screen}
	return &Device{Rec: rec, W: w, H: h}, &Loader{Rec: rec, Fail: make(map[string]error), SubMeshes: make(map[string]int)}
}

func (d *Device) Size() (int, int) { return d.W, d.H }

func (d *Device) BindTarget(t gfx.RenderTarget) {
	d.Rec.target = Screen
	if ft, ok := t.(*Target); ok {
		d.Rec.target = ft.Name
	}
	d.Rec.add(Op{Kind: OpBind})
}

func (d *Device) Clear(colour mgl32.Vec4) { d.Rec.add(Op{Kind: OpClear}) }

func (d *Device) SetDepthWrite(on bool) { d.Rec.add(Op{Kind: OpDepthWrite, On: on}) }

func (d *Device) SetDepthTest(on bool) { d.Rec.add(Op{Kind: OpDepthTest, On: on}) }

func (d *Device) SetMatrices(projection, view mgl32.Mat4) {
	d.Rec.Projection, d.Rec.View = projection, view
	d.Rec.add(Op{Kind: OpMatrices})
}

func (d *Device) UseProgram(p gfx.Program) {
	d.Rec.program = ""
	if fp, ok := p.(*Program); ok {
		d.Rec.program = fp.Name
	}
	d.Rec.add(Op{Kind: OpProgram})
}

func (d *Device) NewRenderTarget(w, h int, depth bool) (gfx.RenderTarget, error) {
	d.targets++
	n := fmt.Sprintf("target%d", d.targets-1)
	t := &Target{Resource: d.Rec.track(n), W: w, H: h, Depth: depth, Incomplete: d.IncompleteTarget}
	t.tex = &Texture{Resource: d.Rec.track(n + ".colour")}
	d.Rec.resources = append(d.Rec.resources, &t.Resource, &t.tex.Resource)
	return t, nil
}

// Loader is a fake gfx.Loader. Paths listed in Fail return that error.
type Loader struct {
	Rec       *Recorder
	Fail      map[string]error
	SubMeshes map[string]int // submesh count per mesh path, default 1
	Frames    int            // frame count of loaded animations, default 4
}

func (l *Loader) fail(path string) error {
	if err, ok := l.Fail[path]; ok {
		return err
	}
	return nil
}

func (l *Loader) LoadTexture(path string, flags gfx.TextureFlags) (gfx.Texture, error) {
	if err := l.fail(path); err != nil {
		return nil, fmt.Errorf("load texture %q: %w", path, err)
	}
	t := &Texture{Resource: l.Rec.track(path), Flags: flags}
	l.Rec.resources = append(l.Rec.resources, &t.Resource)
	return t, nil
}

func (l *Loader) LoadCubemap(faces [6]string) (gfx.Texture, error) {
	for _, f := range faces {
		if err := l.fail(f); err != nil {
			return nil, fmt.Errorf("load cubemap face %q: %w", f, err)
		}
	}
	t := &Texture{Resource: l.Rec.track("cubemap:" + faces[0]), cube: true}
	l.Rec.resources = append(l.Rec.resources, &t.Resource)
	return t, nil
}

func (l *Loader) LoadProgram(vertex, fragment string) (gfx.Program, error) {
	for _, n := range []string{vertex, fragment} {
		if err := l.fail(n); err != nil {
			return nil, fmt.Errorf("load program %q: %w", n, err)
		}
	}
	p := &Program{Resource: l.Rec.track(vertex + "|" + fragment), Uniforms: make(map[string]any)}
	l.Rec.resources = append(l.Rec.resources, &p.Resource)
	return p, nil
}

func (l *Loader) newMesh(path string) *Mesh {
	n := l.SubMeshes[path]
	if n == 0 {
		n = 1
	}
	m := &Mesh{Resource: l.Rec.track(path), SubMeshes: n, rec: l.Rec}
	l.Rec.resources = append(l.Rec.resources, &m.Resource)
	return m
}

func (l *Loader) LoadMesh(path string) (gfx.Mesh, error) {
	if err := l.fail(path); err != nil {
		return nil, fmt.Errorf("load mesh %q: %w", path, err)
	}
	return l.newMesh(path), nil
}

func (l *Loader) LoadSkinnedMesh(path string) (gfx.SkinnedMesh, error) {
	if err := l.fail(path); err != nil {
		return nil, fmt.Errorf("load skinned mesh %q: %w", path, err)
	}
	return l.newMesh(path), nil
}

func (l *Loader) LoadAnimation(path string, frameRate float32) (gfx.Animation, error) {
	if err := l.fail(path); err != nil {
		return nil, fmt.Errorf("load animation %q: %w", path, err)
	}
	frames := l.Frames
	if frames == 0 {
		frames = 4
	}
	a := &Animation{Resource: l.Rec.track(path), Frames: frames, Rate: frameRate}
	l.Rec.resources = append(l.Rec.resources, &a.Resource)
	return a, nil
}

func (l *Loader) LoadHeightmap(width, depth int, heights []float32, size mgl32.Vec3) (gfx.Mesh, error) {
	if err := l.fail("heightmap"); err != nil {
		return nil, fmt.Errorf("load heightmap: %w", err)
	}
	if width*depth != len(heights) {
		return nil, fmt.Errorf("load heightmap: %d heights for %dx%d grid: %w", len(heights), width, depth, gfx.ErrInvalidMesh)
	}
	return l.newMesh("heightmap"), nil
}

func (l *Loader) Quad() (gfx.Mesh, error) {
	if err := l.fail("quad"); err != nil {
		return nil, fmt.Errorf("generate quad: %w", err)
	}
	return l.newMesh("quad"), nil
}
