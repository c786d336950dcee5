// Package scene holds the scene graph: a tree of nodes that own their children,
// compose world transforms from their parent, and know how to draw themselves.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// Node is the capability set every scene graph variant exposes. Variants embed
// *Base (via a Base value) and override Update or Draw as needed.
type Node interface {
	// AsBase returns the shared transform/ownership state of the node.
	AsBase() *Base
	// Update advances node state by dt seconds and recomposes world transforms
	// for the node and its subtree.
	Update(dt float32)
	// Draw binds per-node resources and issues the mesh draw. The program is
	// already bound and the common uniforms set by the caller.
	Draw(ctx *DrawContext)
	Drawable() bool
	Transparent() bool
}

// DrawContext carries per-draw state from the renderer into Node.Draw.
type DrawContext struct {
	Program        gfx.Program
	CameraPosition mgl32.Vec3
	DrawCalls      int
}

// Base is a transform node. Used on its own it is a drawable plain node when it
// carries a mesh; otherwise see Pivot.
type Base struct {
	Name string

	transform      mgl32.Mat4
	worldTransform mgl32.Mat4
	colour         mgl32.Vec4
	modelScale     mgl32.Vec3
	boundingRadius float32
	cameraDistance float32
	alwaysVisible  bool

	mesh    gfx.Mesh
	program gfx.Program
	texture gfx.Texture

	parent   Node
	self     Node
	children []Node
	owned    gfx.Resources
}

// NewBase returns a node with identity transforms, white colour, unit model scale
// and a bounding radius of 1. mesh and program may be nil.
func NewBase(name string, mesh gfx.Mesh, program gfx.Program) *Base {
	b := &Base{}
	b.init(name, mesh, program)
	return b
}

func (b *Base) init(name string, mesh gfx.Mesh, program gfx.Program) {
	b.Name = name
	b.transform = mgl32.Ident4()
	b.worldTransform = mgl32.Ident4()
	b.colour = gfx.White
	b.modelScale = mgl32.Vec3{1, 1, 1}
	b.boundingRadius = 1
	b.mesh = mesh
	b.program = program
}

// bind records the outer variant so children see it as their parent and tree
// walks yield the variant, not the embedded Base.
func (b *Base) bind(self Node) { b.self = self }

func (b *Base) node() Node {
	if b.self != nil {
		return b.self
	}
	return b
}

func (b *Base) AsBase() *Base { return b }

// Update composes the world transform then updates every child in insertion order.
func (b *Base) Update(dt float32) {
	if b.parent != nil {
		b.worldTransform = b.parent.AsBase().worldTransform.Mul4(b.transform)
	} else {
		b.worldTransform = b.transform
	}
	for _, c := range b.children {
		c.Update(dt)
	}
}

// Draw draws the whole mesh with the node's texture. No-op without a mesh.
func (b *Base) Draw(ctx *DrawContext) {
	if b.mesh == nil {
		return
	}
	b.mesh.Draw(b.Binding(ctx, b.texture))
	ctx.DrawCalls++
}

// Binding returns the per-draw binding for this node with the given diffuse texture.
func (b *Base) Binding(ctx *DrawContext, diffuse gfx.Texture) gfx.Binding {
	return gfx.Binding{
		Program: ctx.Program,
		Model:   b.ModelMatrix(),
		Colour:  b.colour,
		Diffuse: diffuse,
	}
}

func (b *Base) Drawable() bool    { return b.mesh != nil }
func (b *Base) Transparent() bool { return b.colour.W() < 1 }

// AddChild takes ownership of child. A child already attached elsewhere is moved.
// Adding a node to itself or to one of its descendants is ignored.
func (b *Base) AddChild(child Node) {
	cb := child.AsBase()
	if cb == b || cb.isAncestorOf(b) {
		return
	}
	if cb.parent != nil {
		cb.parent.AsBase().RemoveChild(child)
	}
	b.children = append(b.children, child)
	cb.parent = b.node()
}

func (b *Base) isAncestorOf(n *Base) bool {
	for p := n.parent; p != nil; p = p.AsBase().parent {
		if p.AsBase() == b {
			return true
		}
	}
	return false
}

// RemoveChild detaches child and hands ownership back to the caller.
// It reports whether child was found.
func (b *Base) RemoveChild(child Node) bool {
	cb := child.AsBase()
	for i, c := range b.children {
		if c.AsBase() == cb {
			b.children = append(b.children[:i], b.children[i+1:]...)
			cb.parent = nil
			return true
		}
	}
	return false
}

func (b *Base) Children() []Node { return b.children }

// Parent returns the non-owning back reference, nil for the root.
func (b *Base) Parent() Node { return b.parent }

func (b *Base) Transform() mgl32.Mat4       { return b.transform }
func (b *Base) SetTransform(m mgl32.Mat4)   { b.transform = m }
func (b *Base) WorldTransform() mgl32.Mat4  { return b.worldTransform }
func (b *Base) Colour() mgl32.Vec4          { return b.colour }
func (b *Base) SetColour(c mgl32.Vec4)      { b.colour = c }
func (b *Base) ModelScale() mgl32.Vec3      { return b.modelScale }
func (b *Base) SetModelScale(s mgl32.Vec3)  { b.modelScale = s }
func (b *Base) BoundingRadius() float32     { return b.boundingRadius }
func (b *Base) SetBoundingRadius(r float32) { b.boundingRadius = r }
func (b *Base) CameraDistance() float32     { return b.cameraDistance }
func (b *Base) SetCameraDistance(d float32) { b.cameraDistance = d }
func (b *Base) AlwaysVisible() bool         { return b.alwaysVisible }
func (b *Base) SetAlwaysVisible(v bool)     { b.alwaysVisible = v }
func (b *Base) Mesh() gfx.Mesh              { return b.mesh }
func (b *Base) Program() gfx.Program        { return b.program }
func (b *Base) Texture() gfx.Texture        { return b.texture }
func (b *Base) SetTexture(t gfx.Texture)    { b.texture = t }

// Position is the world-space translation of the node.
func (b *Base) Position() mgl32.Vec3 { return b.worldTransform.Col(3).Vec3() }

// ModelMatrix is the world transform with the model scale applied.
func (b *Base) ModelMatrix() mgl32.Mat4 {
	s := b.modelScale
	return b.worldTransform.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Own ties r to the node's lifetime; it is released with the node.
func (b *Base) Own(r gfx.Releaser) { b.owned.Track(r) }

// Walk visits the subtree rooted at b depth-first in pre-order.
// Returning false from fn skips that node's children.
func (b *Base) Walk(fn func(Node) bool) {
	n := b.node()
	if !fn(n) {
		return
	}
	for _, c := range b.children {
		c.AsBase().Walk(fn)
	}
}

// Find returns the first node named name in pre-order, or nil.
func (b *Base) Find(name string) Node {
	var found Node
	b.Walk(func(n Node) bool {
		if found != nil {
			return false
		}
		if n.AsBase().Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// Release frees the resources owned by this subtree, children first, and detaches
// the children. The parent link is only cleared; the parent is never touched.
func (b *Base) Release() {
	for _, c := range b.children {
		cb := c.AsBase()
		cb.Release()
		cb.parent = nil
	}
	b.children = nil
	b.owned.Release()
}
