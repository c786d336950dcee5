package renderer

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scenerender/internal/assets"
	"scenerender/internal/camera"
	"scenerender/internal/engineconfig"
	"scenerender/internal/gfx"
	"scenerender/internal/gfx/gfxtest"
	"scenerender/internal/heightmap"
	"scenerender/internal/scene"
)

// testManifest is the default scene with a small generated terrain and the
// material tables written to a temp directory.
func testManifest(t *testing.T) *assets.Manifest {
	t.Helper()
	dir := t.TempDir()
	m := assets.Default()
	m.SetRoot(dir)
	m.Terrain.Heightmap = ""
	m.Terrain.Options = heightmap.Options{Width: 9, Depth: 9, TileSize: 16, HeightScale: 256, Seed: 7}

	meshes := filepath.Join(dir, m.MeshDir)
	require.NoError(t, os.MkdirAll(meshes, 0o755))
	tables := map[string]string{
		"Tree.yaml":   "- diffuse: bark.png\n  bump: bark_n.png\n- diffuse: leaves.png\n",
		"Ruins.yaml":  "- diffuse: stone.png\n",
		"Role_T.yaml": "- diffuse: role.png\n",
	}
	for name, body := range tables {
		require.NoError(t, os.WriteFile(filepath.Join(meshes, name), []byte(body), 0o644))
	}
	return m
}

func testPrefs() engineconfig.Prefs {
	p := engineconfig.Default()
	p.BlurPasses = 2
	return p
}

type fixture struct {
	dev    *gfxtest.Device
	loader *gfxtest.Loader
	m      *assets.Manifest
	prefs  engineconfig.Prefs
}

func newFixture(t *testing.T) *fixture {
	dev, loader := gfxtest.New(1280, 720)
	f := &fixture{dev: dev, loader: loader, m: testManifest(t), prefs: testPrefs()}
	loader.SubMeshes[f.m.MeshPath("Tree.glb")] = 2
	return f
}

func (f *fixture) build(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(f.dev, f.loader, Config{Prefs: f.prefs, Manifest: f.m}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, r.Ready())
	t.Cleanup(r.Close)
	return r
}

// lookAtScene parks the camera south of the terrain looking north across it.
func lookAtScene(r *Renderer) {
	c := r.Camera()
	size := r.TerrainSize()
	c.Position = mgl32.Vec3{size.X() * 0.5, size.Y() * 0.5, size.Z() * 4}
	c.Pitch, c.Yaw = 0, 0
	r.Update(0)
}

type cannedInput camera.Input

func (c cannedInput) Input() camera.Input { return camera.Input(c) }

func TestNewBuildsSceneGraph(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)

	var names []string
	for _, c := range r.Root().Children() {
		names = append(names, c.AsBase().Name)
	}
	assert.Equal(t, []string{"terrain", "water", "tree", "ruins", "walker", "beacon"}, names)
	assert.Equal(t, mgl32.Vec3{144, 256, 144}, r.TerrainSize())

	tree, ok := r.Root().Find("tree").(*scene.MaterialNode)
	require.True(t, ok)
	require.Len(t, tree.Materials(), 2)
	assert.NotNil(t, tree.Materials()[0].Bump)
	assert.Nil(t, tree.Materials()[1].Bump)
	treePos := tree.Position()
	assert.InDeltaSlice(t, []float32{64.8, 76.8, 79.2}, treePos[:], 1e-3, "relative positions scale by terrain size")

	walker, ok := r.Root().Find("walker").(*scene.SkinnedNode)
	require.True(t, ok)
	assert.True(t, walker.Move)

	beacon := r.Root().Find("beacon").AsBase()
	assert.True(t, beacon.Transparent())
	assert.Equal(t, mgl32.Vec3{100, 100, 100}, beacon.ModelScale())

	cam := r.Camera()
	assert.Equal(t, float32(-45), cam.Pitch)
	assert.Equal(t, mgl32.Vec3{72, 1280, 72}, cam.Position)
	assert.Equal(t, mgl32.Vec3{72, 384, 72}, r.Light().Position)

	want := mgl32.Perspective(mgl32.DegToRad(45), 1280.0/720.0, 1, 15000)
	assert.True(t, want.ApproxEqual(r.Projection()))
	assert.False(t, r.PostProcessing())
}

func TestSetupFailureReleasesEverything(t *testing.T) {
	cases := []struct {
		name string
		fail func(f *fixture)
		err  error
	}{
		{"quad", func(f *fixture) { f.loader.Fail["quad"] = gfx.ErrInvalidMesh }, gfx.ErrInvalidMesh},
		{"heightmap", func(f *fixture) { f.loader.Fail["heightmap"] = gfx.ErrInvalidMesh }, gfx.ErrInvalidMesh},
		{"water texture", func(f *fixture) {
			f.loader.Fail[f.m.TexturePath("water.TGA")] = gfx.ErrInvalidTexture
		}, gfx.ErrInvalidTexture},
		{"skybox face", func(f *fixture) {
			f.loader.Fail[f.m.TexturePath("rusted_down.jpg")] = gfx.ErrInvalidTexture
		}, gfx.ErrInvalidTexture},
		{"shader", func(f *fixture) {
			f.loader.Fail[f.m.ShaderPath("processfrag.glsl")] = gfx.ErrInvalidProgram
		}, gfx.ErrInvalidProgram},
		{"material texture", func(f *fixture) {
			f.loader.Fail[f.m.TexturePath("leaves.png")] = gfx.ErrInvalidTexture
		}, gfx.ErrInvalidTexture},
		{"animation", func(f *fixture) {
			f.m.Animated[0].Animation = "Role_T.anim"
			f.loader.Fail[f.m.MeshPath("Role_T.anim")] = gfx.ErrInvalidAnimation
		}, gfx.ErrInvalidAnimation},
		{"missing material table", func(f *fixture) {
			require.NoError(t, os.Remove(f.m.MeshPath("Ruins.yaml")))
		}, fs.ErrNotExist},
		{"short material table", func(f *fixture) {
			f.loader.SubMeshes[f.m.MeshPath("Ruins.glb")] = 3
		}, scene.ErrMaterialTable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.fail(f)

			r, err := New(f.dev, f.loader, Config{Prefs: f.prefs, Manifest: f.m}, zap.NewNop())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.err)
			require.NotNil(t, r)
			assert.False(t, r.Ready())
			assert.Nil(t, r.Root())
			assert.Empty(t, f.loader.Rec.Live(), "every acquired resource is released")

			assert.ErrorIs(t, r.RenderScene(), ErrNotReady)
			assert.ErrorIs(t, r.SetPostProcessing(true), ErrNotReady)
			r.Update(1)
			r.Close()
		})
	}
}

func TestDirectRenderOrder(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	f.loader.Rec.Reset()

	require.NoError(t, r.RenderScene())
	ops := f.loader.Rec.Ops
	require.GreaterOrEqual(t, len(ops), 8)
	assert.Equal(t, gfxtest.OpBind, ops[0].Kind)
	assert.Equal(t, gfxtest.Screen, ops[0].Target)
	assert.Equal(t, gfxtest.OpClear, ops[1].Kind)
	assert.Equal(t, gfxtest.OpMatrices, ops[2].Kind)
	assert.Equal(t, gfxtest.OpDepthTest, ops[3].Kind)
	assert.True(t, ops[3].On)
	assert.Equal(t, gfxtest.OpDepthWrite, ops[4].Kind)
	assert.False(t, ops[4].On, "sky is drawn without depth writes")
	assert.Equal(t, gfxtest.OpProgram, ops[5].Kind)
	sky := ops[6]
	assert.Equal(t, gfxtest.OpDraw, sky.Kind)
	assert.Equal(t, "quad", sky.Mesh)
	assert.Equal(t, "cubemap:"+f.m.TexturePath("rusted_west.jpg"), sky.Cubemap)
	assert.Equal(t, gfxtest.OpDepthWrite, ops[7].Kind)
	assert.True(t, ops[7].On)

	draws := f.loader.Rec.Filter(gfxtest.OpDraw)
	// sky, terrain, water, tree x2, ruins, walker, beacon
	require.Len(t, draws, 8)
	for _, d := range draws {
		assert.Equal(t, gfxtest.Screen, d.Target)
	}
	assert.Equal(t, f.m.MeshPath("OffsetCubeY.obj"), draws[len(draws)-1].Mesh, "transparent nodes draw last")
	assert.Equal(t, f.m.TexturePath("stainedglass.tga"), draws[len(draws)-1].Texture)

	s := r.Stats()
	assert.Equal(t, 5, s.Opaque)
	assert.Equal(t, 1, s.Transparent)
	assert.Equal(t, 7, s.DrawCalls)
	assert.False(t, s.PostProcess)
	assert.Equal(t, float32(15000), s.FarPlane)
	assert.Equal(t, r.Projection(), f.loader.Rec.Projection)
	assert.Equal(t, r.View(), f.loader.Rec.View)
}

func TestOpaqueNodesDrawNearToFar(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	f.loader.Rec.Reset()
	require.NoError(t, r.RenderScene())

	cam := r.Camera().Position
	last := float32(-1)
	for _, d := range f.loader.Rec.Filter(gfxtest.OpDraw)[1:7] {
		var node scene.Node
		r.Root().Walk(func(n scene.Node) bool {
			if m := n.AsBase().Mesh(); m != nil && m.(*gfxtest.Mesh).Name == d.Mesh {
				node = n
			}
			return true
		})
		require.NotNil(t, node, d.Mesh)
		dist := node.AsBase().Position().Sub(cam).LenSqr()
		assert.GreaterOrEqual(t, dist, last, d.Mesh)
		last = dist
	}
}

func TestCommonUniforms(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	r.SetLight(Light{Position: mgl32.Vec3{1, 2, 3}, Colour: mgl32.Vec4{1, 0, 0, 1}, Radius: 99})
	require.NoError(t, r.RenderScene())

	prog := r.Root().Find("beacon").AsBase().Program().(*gfxtest.Program)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, prog.Uniforms["lightPos"])
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, prog.Uniforms["lightColour"])
	assert.Equal(t, float32(99), prog.Uniforms["lightRadius"])
	assert.Equal(t, r.Camera().Position, prog.Uniforms["cameraPos"])
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 0.5}, prog.Uniforms["nodeColour"])
	assert.Equal(t, int32(1), prog.Uniforms["useTexture"])
	assert.Equal(t, r.View(), prog.Uniforms["viewMatrix"])
}

func TestPostProcessToggle(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	direct := r.Projection()

	require.NoError(t, r.TogglePostProcessing())
	assert.True(t, r.PostProcessing())
	want := mgl32.Perspective(mgl32.DegToRad(45), 1280.0/720.0, 1, 20000)
	assert.True(t, want.ApproxEqual(r.Projection()), "post-process mode uses the far plane for blurred distance")

	r.Update(0)
	f.loader.Rec.Reset()
	require.NoError(t, r.RenderScene())

	ops := f.loader.Rec.Ops
	assert.Equal(t, "target0", ops[0].Target, "scene renders off-screen")
	draws := f.loader.Rec.Filter(gfxtest.OpDraw)
	// 8 scene draws, 2 passes of two half draws, 1 present
	require.Len(t, draws, 8+4+1)
	for _, d := range draws[:8] {
		assert.Equal(t, "target0", d.Target)
	}
	assert.Equal(t, []string{"target1", "target0", "target1", "target0"},
		[]string{draws[8].Target, draws[9].Target, draws[10].Target, draws[11].Target})
	present := draws[12]
	assert.Equal(t, gfxtest.Screen, present.Target)
	assert.Equal(t, "target0.colour", present.Texture)
	assert.Equal(t, mgl32.Ident4(), f.loader.Rec.Projection)

	s := r.Stats()
	assert.True(t, s.PostProcess)
	assert.Equal(t, 2, s.BlurPasses)
	assert.Equal(t, float32(20000), s.FarPlane)

	require.NoError(t, r.TogglePostProcessing())
	assert.False(t, r.PostProcessing())
	assert.Equal(t, direct, r.Projection(), "toggling back restores the direct projection")

	f.loader.Rec.Reset()
	require.NoError(t, r.RenderScene())
	for _, d := range f.loader.Rec.Filter(gfxtest.OpDraw) {
		assert.Equal(t, gfxtest.Screen, d.Target)
	}
}

func TestBeginOverlayRestoresScreenSpace(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	require.NoError(t, r.SetPostProcessing(true))
	lookAtScene(r)
	require.NoError(t, r.RenderScene())

	f.loader.Rec.Reset()
	r.BeginOverlay()
	ops := f.loader.Rec.Ops
	require.Len(t, ops, 3)
	assert.Equal(t, gfxtest.OpBind, ops[0].Kind)
	assert.Equal(t, gfxtest.Screen, ops[0].Target)
	assert.Equal(t, gfxtest.OpDepthTest, ops[1].Kind)
	assert.False(t, ops[1].On)
	assert.Equal(t, gfxtest.OpMatrices, ops[2].Kind)
	assert.Equal(t, mgl32.Ident4(), f.loader.Rec.View)

	// pixel (0,0) is the top left corner and (1280,720) the bottom right
	proj := f.loader.Rec.Projection
	topLeft := proj.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDeltaSlice(t, []float32{-1, 1}, topLeft[:2], 1e-5)
	bottomRight := proj.Mul4x1(mgl32.Vec4{1280, 720, 0, 1})
	assert.InDeltaSlice(t, []float32{1, -1}, bottomRight[:2], 1e-5)
}

func TestZeroBlurPassesStillPresents(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	r.SetBlurPasses(-3)
	require.NoError(t, r.SetPostProcessing(true))
	r.Update(0)
	f.loader.Rec.Reset()
	require.NoError(t, r.RenderScene())

	draws := f.loader.Rec.Filter(gfxtest.OpDraw)
	require.Len(t, draws, 9)
	assert.Equal(t, gfxtest.Screen, draws[8].Target)
	assert.Equal(t, 0, r.Stats().BlurPasses)
}

func TestIncompleteTargetKeepsDirectMode(t *testing.T) {
	f := newFixture(t)
	f.dev.IncompleteTarget = true
	r := f.build(t)
	direct := r.Projection()

	err := r.SetPostProcessing(true)
	assert.ErrorIs(t, err, gfx.ErrIncompleteTarget)
	assert.False(t, r.PostProcessing())
	assert.Equal(t, direct, r.Projection())
	for _, name := range f.loader.Rec.Live() {
		assert.NotContains(t, name, "target", "incomplete targets are released")
	}
	require.NoError(t, r.RenderScene())
}

func TestStartInPostProcessMode(t *testing.T) {
	f := newFixture(t)
	f.prefs.PostProcess = true
	r := f.build(t)
	assert.True(t, r.PostProcessing())

	g := newFixture(t)
	g.prefs.PostProcess = true
	g.dev.IncompleteTarget = true
	r2 := g.build(t)
	assert.False(t, r2.PostProcessing(), "falls back to direct mode")
}

func TestFrustumCulling(t *testing.T) {
	f := newFixture(t)
	r := f.build(t)
	lookAtScene(r)
	r.Camera().Yaw = 180
	r.Update(0)

	require.NoError(t, r.RenderScene())
	s := r.Stats()
	assert.Equal(t, 1, s.Opaque, "only the always-visible terrain survives")
	assert.Equal(t, 0, s.Transparent)
	assert.Equal(t, 5, s.Culled)

	r.SetForceMeshVisible(true)
	assert.True(t, r.ForceMeshVisible())
	require.NoError(t, r.RenderScene())
	s = r.Stats()
	assert.Equal(t, 5, s.Opaque)
	assert.Equal(t, 1, s.Transparent)
}

func TestUpdateDrivesCameraAndScene(t *testing.T) {
	f := newFixture(t)
	r, err := New(f.dev, f.loader, Config{
		Prefs:    f.prefs,
		Manifest: f.m,
		Input:    cannedInput{Forward: true},
	}, zap.NewNop())
	require.NoError(t, err)
	defer r.Close()

	r.Camera().Pitch = 0
	start := r.Camera().Position
	water := r.Root().Find("water").(*scene.WaterNode)
	before := water.TextureMatrix()

	r.Update(1)
	assert.InDelta(t, start.Z()-camera.DefaultSpeed, r.Camera().Position.Z(), 1e-3)
	assert.Equal(t, r.Camera().ViewMatrix(), r.View())
	assert.NotEqual(t, before, water.TextureMatrix())
}

func TestCloseReleasesEverything(t *testing.T) {
	f := newFixture(t)
	r, err := New(f.dev, f.loader, Config{Prefs: f.prefs, Manifest: f.m}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.SetPostProcessing(true))
	assert.NotEmpty(t, f.loader.Rec.Live())

	r.Close()
	assert.Empty(t, f.loader.Rec.Live())
	assert.False(t, r.Ready())
	assert.ErrorIs(t, r.RenderScene(), ErrNotReady)
	r.Close()
}
