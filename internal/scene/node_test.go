package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenerender/internal/gfx"
	"scenerender/internal/gfx/gfxtest"
)

func translate(x, y, z float32) mgl32.Mat4 { return mgl32.Translate3D(x, y, z) }

func TestWorldTransformComposesParentAndLocal(t *testing.T) {
	root := NewPivot("root")
	root.SetTransform(translate(1, 0, 0))
	a := NewBase("a", nil, nil)
	a.SetTransform(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	b := NewBase("b", nil, nil)
	b.SetTransform(translate(0, 0, 5).Mul4(mgl32.Scale3D(2, 2, 2)))
	c := NewBase("c", nil, nil)
	c.SetTransform(translate(0, 3, 0))

	root.AddChild(a)
	root.AddChild(c)
	a.AddChild(b)
	root.Update(0.016)

	assert.Equal(t, root.Transform(), root.WorldTransform(), "root world is its local")
	root.Walk(func(n Node) bool {
		nb := n.AsBase()
		if p := nb.Parent(); p != nil {
			want := p.AsBase().WorldTransform().Mul4(nb.Transform())
			assert.True(t, want.ApproxEqualThreshold(nb.WorldTransform(), 1e-5), nb.Name)
		}
		return true
	})
	bPos := b.Position()
	assert.InDeltaSlice(t, []float32{6, 0, 0}, bPos[:], 1e-5)
}

func TestWorldTransformIndependentOfSiblingOrder(t *testing.T) {
	build := func(order []string) map[string]mgl32.Mat4 {
		root := NewPivot("root")
		root.SetTransform(translate(0, 10, 0))
		locals := map[string]mgl32.Mat4{
			"x": translate(1, 2, 3),
			"y": mgl32.HomogRotate3DZ(1),
			"z": mgl32.Scale3D(3, 3, 3),
		}
		for _, name := range order {
			n := NewBase(name, nil, nil)
			n.SetTransform(locals[name])
			root.AddChild(n)
		}
		root.Update(0)
		out := map[string]mgl32.Mat4{}
		for _, c := range root.Children() {
			out[c.AsBase().Name] = c.AsBase().WorldTransform()
		}
		return out
	}
	assert.Equal(t, build([]string{"x", "y", "z"}), build([]string{"z", "x", "y"}))
}

func TestPivotIsNeverDrawableButChildrenUpdate(t *testing.T) {
	_, loader := gfxtest.New(8, 8)
	mesh, err := loader.LoadMesh("cube")
	require.NoError(t, err)

	pivot := NewPivot("pivot")
	pivot.SetTransform(translate(0, 0, -4))
	child := NewBase("child", mesh, nil)
	pivot.AddChild(child)
	pivot.Update(0)

	assert.False(t, pivot.Drawable())
	assert.True(t, child.Drawable())
	assert.Equal(t, mgl32.Vec3{0, 0, -4}, child.Position())
	assert.Same(t, pivot, child.Parent())
}

func TestAddChildReparentsAndIgnoresSelf(t *testing.T) {
	a, b := NewPivot("a"), NewPivot("b")
	n := NewBase("n", nil, nil)

	a.AddChild(n)
	b.AddChild(n)
	assert.Empty(t, a.Children())
	assert.Len(t, b.Children(), 1)
	assert.Same(t, b, n.Parent())

	b.AddChild(b)
	assert.Len(t, b.Children(), 1)

	assert.True(t, b.RemoveChild(n))
	assert.Nil(t, n.Parent())
	assert.False(t, b.RemoveChild(n))
}

func TestAddChildRejectsCycles(t *testing.T) {
	a, b, c := NewPivot("a"), NewPivot("b"), NewPivot("c")
	a.AddChild(b)
	b.AddChild(c)

	b.AddChild(a)
	c.AddChild(a)
	assert.Nil(t, a.Parent())
	assert.Len(t, b.Children(), 1)
	assert.Len(t, c.Children(), 0)

	visited := 0
	a.Walk(func(Node) bool { visited++; return true })
	assert.Equal(t, 3, visited)

	// moving a subtree under a sibling branch is still allowed
	d := NewPivot("d")
	a.AddChild(d)
	d.AddChild(c)
	assert.Same(t, d, c.Parent())
	assert.Empty(t, b.Children())
}

func TestFindAndWalkPreOrder(t *testing.T) {
	root := NewPivot("root")
	a, b, a1 := NewPivot("a"), NewPivot("b"), NewPivot("a1")
	root.AddChild(a)
	root.AddChild(b)
	a.AddChild(a1)

	var names []string
	root.Walk(func(n Node) bool {
		names = append(names, n.AsBase().Name)
		return true
	})
	assert.Equal(t, []string{"root", "a", "a1", "b"}, names)
	assert.Same(t, a1, root.Find("a1"))
	assert.Nil(t, root.Find("missing"))
}

func TestReleaseFreesSubtreeButNotParent(t *testing.T) {
	_, loader := gfxtest.New(8, 8)
	texA, _ := loader.LoadTexture("a.png", gfx.Mipmaps)
	texB, _ := loader.LoadTexture("b.png", gfx.Mipmaps)
	texRoot, _ := loader.LoadTexture("root.png", gfx.Mipmaps)

	root := NewPivot("root")
	root.Own(texRoot)
	a := NewPivot("a")
	a.Own(texA)
	b := NewPivot("b")
	b.Own(texB)
	root.AddChild(a)
	a.AddChild(b)

	a.Release()
	assert.Equal(t, []string{"root.png"}, loader.Rec.Live())
	assert.Len(t, root.Children(), 1, "parent keeps its child slot; only the subtree is freed")
	assert.Nil(t, b.Parent())

	root.Release()
	assert.Empty(t, loader.Rec.Live())
	assert.Equal(t, 1, texA.(*gfxtest.Texture).Released)
}

func TestTransparentFollowsAlpha(t *testing.T) {
	n := NewBase("n", nil, nil)
	assert.False(t, n.Transparent())
	n.SetColour(mgl32.Vec4{1, 1, 1, 0.5})
	assert.True(t, n.Transparent())
}

func TestBaseDrawUsesModelScale(t *testing.T) {
	_, loader := gfxtest.New(8, 8)
	mesh, _ := loader.LoadMesh("cube")
	prog, _ := loader.LoadProgram("a.vert", "a.frag")
	n := NewBase("n", mesh, prog)
	n.SetTransform(translate(1, 2, 3))
	n.SetModelScale(mgl32.Vec3{2, 2, 2})
	n.Update(0)

	ctx := &DrawContext{Program: prog}
	n.Draw(ctx)
	fm := mesh.(*gfxtest.Mesh)
	require.Len(t, fm.Draws, 1)
	assert.Equal(t, translate(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2)), fm.Draws[0].Model)
	assert.Equal(t, 1, ctx.DrawCalls)

	NewPivot("p").Draw(ctx)
	assert.Equal(t, 1, ctx.DrawCalls)
}
