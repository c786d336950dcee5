package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"scenerender/internal/assets"
	"scenerender/internal/camera"
	"scenerender/internal/gfx"
	"scenerender/internal/heightmap"
	"scenerender/internal/postprocess"
	"scenerender/internal/scene"
)

// setup acquires everything in dependency order. On error every resource
// acquired so far is released and the renderer keeps no references to it.
func (r *Renderer) setup() (err error) {
	m := r.manifest
	root := scene.NewPivot("root")
	defer func() {
		if err != nil {
			root.Release()
			r.owned.Release()
			r.root, r.chain = nil, nil
		}
	}()

	quad, err := r.loader.Quad()
	if err != nil {
		return err
	}
	r.owned.Track(quad)
	r.quad = quad

	hm, err := loadHeightmap(m)
	if err != nil {
		return err
	}
	r.terrainSize = hm.Size
	terrainMesh, err := r.loader.LoadHeightmap(hm.Width, hm.Depth, hm.Heights, hm.Size)
	if err != nil {
		return err
	}
	r.owned.Track(terrainMesh)

	water, err := r.texture(&r.owned, m.TexturePath(m.Water.Texture), gfx.Repeat|gfx.Mipmaps)
	if err != nil {
		return err
	}
	earth, err := r.texture(&r.owned, m.TexturePath(m.Terrain.Diffuse), gfx.Repeat|gfx.Mipmaps)
	if err != nil {
		return err
	}
	earthBump, err := r.texture(&r.owned, m.TexturePath(m.Terrain.Bump), gfx.Repeat|gfx.Mipmaps)
	if err != nil {
		return err
	}
	r.cubemap, err = r.loader.LoadCubemap(m.SkyboxPaths())
	if err != nil {
		return err
	}
	r.owned.Track(r.cubemap)

	if err := r.loadPrograms(); err != nil {
		return err
	}

	size := r.terrainSize
	r.camera = camera.New(-45, 0, mgl32.Vec3{size.X() * 0.5, size.Y() * 5, size.Z() * 0.5})
	r.view = r.camera.ViewMatrix()
	r.light = Light{
		Position: mgl32.Vec3{size.X() * 0.5, size.Y() * 1.5, size.Z() * 0.5},
		Colour:   gfx.White,
		Radius:   size.X(),
	}
	r.projection = r.buildProjection()
	r.frustum.FromMatrix(r.projection.Mul4(r.view))

	root.AddChild(scene.NewTerrainNode("terrain", terrainMesh, r.programs.terrain, earth, earthBump, size))
	wn := scene.NewWaterNode("water", quad, r.programs.water, water, r.cubemap, size)
	if m.Water.RotateSpeed != 0 {
		wn.RotateSpeed = m.Water.RotateSpeed
	}
	if m.Water.CycleSpeed != 0 {
		wn.CycleSpeed = m.Water.CycleSpeed
	}
	root.AddChild(wn)

	builders := []struct {
		kind    string
		entries []assets.Entry
		build   func(assets.Entry) (scene.Node, error)
	}{
		{"static", m.Static, r.buildStatic},
		{"animated", m.Animated, r.buildAnimated},
		{"prop", m.Props, r.buildProp},
	}
	for _, b := range builders {
		for _, raw := range b.entries {
			e, err := m.Resolve(raw)
			if err != nil {
				return err
			}
			n, err := b.build(e)
			if err != nil {
				return fmt.Errorf("%s %q: %w", b.kind, e.Name, err)
			}
			root.AddChild(n)
			r.log.Debug("scene node added", zap.String("kind", b.kind), zap.String("name", e.Name))
		}
	}

	r.chain, err = postprocess.New(r.dev, quad,
		postprocess.Programs{Blur: r.programs.blur, Present: r.programs.present}, r.prefs.Blur())
	if err != nil {
		return err
	}

	root.Update(0)
	r.root = root
	return nil
}

func loadHeightmap(m *assets.Manifest) (*heightmap.Map, error) {
	if m.Terrain.Heightmap == "" {
		return heightmap.Generate(m.Terrain.Options), nil
	}
	return heightmap.FromImage(m.TexturePath(m.Terrain.Heightmap), m.Terrain.Options)
}

// texture loads path and tracks it in res.
func (r *Renderer) texture(res *gfx.Resources, path string, flags gfx.TextureFlags) (gfx.Texture, error) {
	t, err := r.loader.LoadTexture(path, flags)
	if err != nil {
		return nil, err
	}
	res.Track(t)
	return t, nil
}

func (r *Renderer) loadPrograms() error {
	m := r.manifest
	refs := []struct {
		name string
		ref  assets.ProgramRef
		dst  *gfx.Program
	}{
		{"sky", m.Programs.Sky, &r.programs.sky},
		{"terrain", m.Programs.Terrain, &r.programs.terrain},
		{"water", m.Programs.Water, &r.programs.water},
		{"node", m.Programs.Node, &r.programs.node},
		{"static", m.Programs.Static, &r.programs.static},
		{"skinned", m.Programs.Skinned, &r.programs.skinned},
		{"blur", m.Programs.Blur, &r.programs.blur},
		{"present", m.Programs.Present, &r.programs.present},
	}
	for _, p := range refs {
		prog, err := r.loader.LoadProgram(m.ShaderPath(p.ref.Vertex), m.ShaderPath(p.ref.Fragment))
		if err != nil {
			return fmt.Errorf("program %s: %w", p.name, err)
		}
		r.owned.Track(prog)
		if !prog.Valid() {
			return fmt.Errorf("program %s: %w", p.name, gfx.ErrInvalidProgram)
		}
		*p.dst = prog
	}
	return nil
}

// position resolves an entry position, scaling relative ones by the terrain size.
func (r *Renderer) position(e assets.Entry) mgl32.Vec3 {
	p := mgl32.Vec3(e.Position)
	if e.Relative {
		p = mgl32.Vec3{p[0] * r.terrainSize[0], p[1] * r.terrainSize[1], p[2] * r.terrainSize[2]}
	}
	return p
}

func (r *Renderer) placement(e assets.Entry) scene.Placement {
	return scene.Placement{Position: r.position(e), Scale: e.Scale, Yaw: e.Yaw}
}

func (r *Renderer) buildStatic(e assets.Entry) (n scene.Node, err error) {
	m := r.manifest
	own := &gfx.Resources{}
	defer func() {
		if err != nil {
			own.Release()
		}
	}()

	mesh, err := r.loader.LoadMesh(m.MeshPath(e.Mesh))
	if err != nil {
		return nil, err
	}
	own.Track(mesh)
	table, err := assets.LoadMaterialTable(m.MeshPath(e.Material))
	if err != nil {
		return nil, err
	}
	mats := make([]scene.SubMaterial, len(table))
	for i, row := range table {
		if mats[i].Diffuse, err = r.texture(own, m.TexturePath(row.Diffuse), gfx.FlipY|gfx.Mipmaps); err != nil {
			return nil, err
		}
		if row.Bump == "" {
			continue
		}
		if mats[i].Bump, err = r.texture(own, m.TexturePath(row.Bump), gfx.FlipY|gfx.Mipmaps); err != nil {
			return nil, err
		}
	}

	mn, err := scene.NewMaterialNode(e.Name, mesh, r.programs.static, mats)
	if err != nil {
		return nil, err
	}
	mn.Place(r.placement(e))
	mn.SetColour(mgl32.Vec4(e.Colour))
	mn.SetBoundingRadius(e.Radius)
	mn.Own(own)
	return mn, nil
}

func (r *Renderer) buildAnimated(e assets.Entry) (n scene.Node, err error) {
	m := r.manifest
	own := &gfx.Resources{}
	defer func() {
		if err != nil {
			own.Release()
		}
	}()

	mesh, err := r.loader.LoadSkinnedMesh(m.MeshPath(e.Mesh))
	if err != nil {
		return nil, err
	}
	own.Track(mesh)
	anim, err := r.loader.LoadAnimation(m.MeshPath(e.Animation), e.FrameRate)
	if err != nil {
		return nil, err
	}
	own.Track(anim)
	table, err := assets.LoadMaterialTable(m.MeshPath(e.Material))
	if err != nil {
		return nil, err
	}
	textures := make([]gfx.Texture, len(table))
	for i, row := range table {
		if textures[i], err = r.texture(own, m.TexturePath(row.Diffuse), gfx.FlipY|gfx.Mipmaps); err != nil {
			return nil, err
		}
	}

	sn, err := scene.NewSkinnedNode(e.Name, mesh, anim, r.programs.skinned, textures, r.placement(e))
	if err != nil {
		return nil, err
	}
	sn.Move = e.Move
	sn.SetColour(mgl32.Vec4(e.Colour))
	sn.SetBoundingRadius(e.Radius)
	sn.Own(own)
	return sn, nil
}

// buildProp makes a plain textured node. Its scale is a model scale so children
// attached later are not scaled with it.
func (r *Renderer) buildProp(e assets.Entry) (n scene.Node, err error) {
	m := r.manifest
	own := &gfx.Resources{}
	defer func() {
		if err != nil {
			own.Release()
		}
	}()

	mesh, err := r.loader.LoadMesh(m.MeshPath(e.Mesh))
	if err != nil {
		return nil, err
	}
	own.Track(mesh)
	var tex gfx.Texture
	if e.Texture != "" {
		if tex, err = r.texture(own, m.TexturePath(e.Texture), gfx.Mipmaps); err != nil {
			return nil, err
		}
	}

	tn := scene.NewTexturedNode(e.Name, mesh, r.programs.node, tex)
	p := r.position(e)
	tn.SetTransform(mgl32.Translate3D(p[0], p[1], p[2]).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(e.Yaw))))
	tn.SetModelScale(mgl32.Vec3{e.Scale, e.Scale, e.Scale})
	tn.SetColour(mgl32.Vec4(e.Colour))
	tn.SetBoundingRadius(e.Radius)
	tn.Own(own)
	return tn, nil
}
