package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// ErrMaterialTable is returned when a material table has fewer entries than the mesh has submeshes.
var ErrMaterialTable = errors.New("scene: material table shorter than submesh count")

// Pivot groups children under a shared transform. It is never drawn.
type Pivot struct {
	Base
}

func NewPivot(name string) *Pivot {
	p := &Pivot{}
	p.init(name, nil, nil)
	p.bind(p)
	return p
}

func (p *Pivot) Drawable() bool { return false }

// TexturedNode is a mesh drawn with one diffuse texture.
type TexturedNode struct {
	Base
}

func NewTexturedNode(name string, mesh gfx.Mesh, program gfx.Program, texture gfx.Texture) *TexturedNode {
	n := &TexturedNode{}
	n.init(name, mesh, program)
	n.texture = texture
	n.bind(n)
	return n
}

func (n *TexturedNode) Draw(ctx *DrawContext) {
	if n.mesh == nil {
		return
	}
	useTexture := int32(0)
	if n.texture != nil {
		useTexture = 1
	}
	ctx.Program.SetInt("useTexture", useTexture)
	n.Base.Draw(ctx)
}

// Placement positions a node relative to its parent: translate, uniform scale,
// then rotate Yaw degrees about +Y.
type Placement struct {
	Position mgl32.Vec3
	Scale    float32
	Yaw      float32
}

// Matrix returns T(Position) * S(Scale) * Ry(Yaw).
func (p Placement) Matrix() mgl32.Mat4 {
	s := p.Scale
	if s == 0 {
		s = 1
	}
	return mgl32.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(mgl32.Scale3D(s, s, s)).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(p.Yaw)))
}

// SubMaterial is one material table row. Bump may be nil.
type SubMaterial struct {
	Diffuse gfx.Texture
	Bump    gfx.Texture
}

// MaterialNode draws a multi-submesh mesh, each submesh with its own material.
type MaterialNode struct {
	Base
	materials []SubMaterial
	placement *Placement
}

// NewMaterialNode pairs mesh with materials. The table must cover every submesh.
func NewMaterialNode(name string, mesh gfx.Mesh, program gfx.Program, materials []SubMaterial) (*MaterialNode, error) {
	if mesh == nil {
		return nil, fmt.Errorf("material node %q: %w", name, gfx.ErrInvalidMesh)
	}
	if len(materials) < mesh.SubMeshCount() {
		return nil, fmt.Errorf("material node %q: %d materials for %d submeshes: %w",
			name, len(materials), mesh.SubMeshCount(), ErrMaterialTable)
	}
	n := &MaterialNode{materials: materials}
	n.init(name, mesh, program)
	n.bind(n)
	return n, nil
}

// Place makes Update rebuild the local transform from p every frame.
func (n *MaterialNode) Place(p Placement) { n.placement = &p }

func (n *MaterialNode) Materials() []SubMaterial { return n.materials }

func (n *MaterialNode) Update(dt float32) {
	if n.placement != nil {
		n.transform = n.placement.Matrix()
	}
	n.Base.Update(dt)
}

func (n *MaterialNode) Draw(ctx *DrawContext) {
	for i := 0; i < n.mesh.SubMeshCount(); i++ {
		m := n.materials[i]
		b := n.Binding(ctx, m.Diffuse)
		b.Bump = m.Bump
		n.mesh.DrawSubMesh(i, b)
		ctx.DrawCalls++
	}
}

// TerrainNode is the heightmap: a fixed diffuse and bump pair, lit relative to
// the camera. Its bounds cover the whole map so it is always considered visible.
type TerrainNode struct {
	Base
	bump gfx.Texture
}

// NewTerrainNode builds the terrain node for a heightmap mesh spanning [0,size].
func NewTerrainNode(name string, mesh gfx.Mesh, program gfx.Program, diffuse, bump gfx.Texture, size mgl32.Vec3) *TerrainNode {
	n := &TerrainNode{bump: bump}
	n.init(name, mesh, program)
	n.texture = diffuse
	n.boundingRadius = size.Len()
	n.alwaysVisible = true
	n.bind(n)
	return n
}

func (n *TerrainNode) Draw(ctx *DrawContext) {
	ctx.Program.SetVec3("cameraPos", ctx.CameraPosition)
	b := n.Binding(ctx, n.texture)
	b.Bump = n.bump
	n.mesh.Draw(b)
	ctx.DrawCalls++
}

// Water animation defaults: degrees per second and texture units per second.
const (
	DefaultWaterRotateSpeed = 2
	DefaultWaterCycleSpeed  = 0.25
	waterTextureScale       = 10
)

// WaterNode is a quad laid over the terrain with a scrolling, rotating texture
// and cubemap reflection.
type WaterNode struct {
	Base
	cubemap     gfx.Texture
	rotate      float32
	cycle       float32
	RotateSpeed float32
	CycleSpeed  float32
}

// NewWaterNode places quad (the XY unit quad) over a terrain of the given size.
// The water surface sits at a quarter of the terrain height.
func NewWaterNode(name string, quad gfx.Mesh, program gfx.Program, texture, cubemap gfx.Texture, size mgl32.Vec3) *WaterNode {
	n := &WaterNode{cubemap: cubemap, RotateSpeed: DefaultWaterRotateSpeed, CycleSpeed: DefaultWaterCycleSpeed}
	n.init(name, quad, program)
	n.texture = texture

	s := size
	s[1] *= 0.5
	h := s.Mul(0.5)
	n.transform = mgl32.Translate3D(h[0], h[1], h[2]).
		Mul4(mgl32.Scale3D(h[0], h[1], h[2])).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(90)))
	n.boundingRadius = 0.5 * math32.Sqrt(size[0]*size[0]+size[2]*size[2])
	n.bind(n)
	return n
}

// TextureMatrix is T(cycle, 0, cycle) * S(10) * Rz(rotate).
func (n *WaterNode) TextureMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(n.cycle, 0, n.cycle).
		Mul4(mgl32.Scale3D(waterTextureScale, waterTextureScale, waterTextureScale)).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(n.rotate)))
}

// Update advances the texture animation, then composes transforms as usual.
func (n *WaterNode) Update(dt float32) {
	n.rotate += dt * n.RotateSpeed
	n.cycle += dt * n.CycleSpeed
	n.Base.Update(dt)
}

func (n *WaterNode) Draw(ctx *DrawContext) {
	ctx.Program.SetMat4("textureMatrix", n.TextureMatrix())
	ctx.Program.SetVec3("cameraPos", ctx.CameraPosition)
	b := n.Binding(ctx, n.texture)
	b.Cubemap = n.cubemap
	n.mesh.Draw(b)
	ctx.DrawCalls++
}

// Defaults for the circular walk of a moving skinned node.
const (
	DefaultWalkRadius = 50
	DefaultWalkSpeed  = 0.2 // radians per second
)

// SkinnedNode is an animated mesh whose pose follows a frame timer.
type SkinnedNode struct {
	Base
	skinned   gfx.SkinnedMesh
	anim      gfx.Animation
	textures  []gfx.Texture
	placement Placement
	frame     int
	frameTime float32

	// Move walks the node in a circle of WalkRadius around its placement.
	Move       bool
	WalkRadius float32
	WalkSpeed  float32
	angle      float32
}

// NewSkinnedNode pairs a skinned mesh with an animation and one diffuse texture per submesh.
func NewSkinnedNode(name string, mesh gfx.SkinnedMesh, anim gfx.Animation, program gfx.Program,
	textures []gfx.Texture, placement Placement) (*SkinnedNode, error) {
	if mesh == nil {
		return nil, fmt.Errorf("skinned node %q: %w", name, gfx.ErrInvalidMesh)
	}
	if anim == nil || anim.FrameCount() <= 0 || anim.FrameRate() <= 0 {
		return nil, fmt.Errorf("skinned node %q: %w", name, gfx.ErrInvalidAnimation)
	}
	if len(textures) < mesh.SubMeshCount() {
		return nil, fmt.Errorf("skinned node %q: %d textures for %d submeshes: %w",
			name, len(textures), mesh.SubMeshCount(), ErrMaterialTable)
	}
	n := &SkinnedNode{
		skinned:    mesh,
		anim:       anim,
		textures:   textures,
		placement:  placement,
		WalkRadius: DefaultWalkRadius,
		WalkSpeed:  DefaultWalkSpeed,
	}
	n.init(name, mesh, program)
	n.bind(n)
	return n, nil
}

// Frame is the current animation frame index.
func (n *SkinnedNode) Frame() int { return n.frame }

// Update advances the frame timer, applies the optional walk, and composes transforms.
func (n *SkinnedNode) Update(dt float32) {
	n.frameTime -= dt
	if n.frameTime < 0 {
		rate, count := n.anim.FrameRate(), n.anim.FrameCount()
		steps := math32.Floor(-n.frameTime*rate) + 1
		n.frame = (n.frame + int(math32.Mod(steps, float32(count)))) % count
		n.frameTime = math32.Min(math32.Max(n.frameTime+steps/rate, 0), 1/rate)
	}

	p := n.placement
	if n.Move {
		n.angle += dt * n.WalkSpeed
		sin, cos := math32.Sincos(n.angle)
		p.Position = p.Position.Add(mgl32.Vec3{cos * n.WalkRadius, 0, sin * n.WalkRadius})
		// face along the tangent of the circle
		p.Yaw -= mgl32.RadToDeg(n.angle)
	}
	n.transform = p.Matrix()
	n.Base.Update(dt)
}

func (n *SkinnedNode) Draw(ctx *DrawContext) {
	n.skinned.Pose(n.anim, n.frame)
	for i := 0; i < n.skinned.SubMeshCount(); i++ {
		n.skinned.DrawSubMesh(i, n.Binding(ctx, n.textures[i]))
		ctx.DrawCalls++
	}
}
