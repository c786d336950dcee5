package rlgfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"scenerender/internal/gfx"
)

// Loader creates raylib resources. Shader files missing from disk fall back to
// the built-in sources registered under the same file name.
type Loader struct {
	dev *Device
}

func NewLoader(dev *Device) *Loader { return &Loader{dev: dev} }

// Texture wraps a raylib texture. Borrowed textures belong to a render target.
type Texture struct {
	tex      rl.Texture2D
	cube     bool
	borrowed bool
}

func (t *Texture) ID() uint32    { return t.tex.ID }
func (t *Texture) Cubemap() bool { return t.cube }

func (t *Texture) Release() {
	if !t.borrowed && t.tex.ID != 0 {
		rl.UnloadTexture(t.tex)
		t.tex.ID = 0
	}
}

func texture(t gfx.Texture) *Texture {
	rt, _ := t.(*Texture)
	return rt
}

func loadImage(path string) (*rl.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	img := rl.LoadImage(path)
	if img == nil || !rl.IsImageValid(img) {
		return nil, fmt.Errorf("load image %q: %w", path, gfx.ErrInvalidTexture)
	}
	return img, nil
}

func (l *Loader) LoadTexture(path string, flags gfx.TextureFlags) (gfx.Texture, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	defer rl.UnloadImage(img)
	if flags.Has(gfx.FlipY) {
		rl.ImageFlipVertical(img)
	}
	tex := rl.LoadTextureFromImage(img)
	if !rl.IsTextureValid(tex) {
		return nil, fmt.Errorf("upload texture %q: %w", path, gfx.ErrInvalidTexture)
	}
	if flags.Has(gfx.Mipmaps) {
		rl.GenTextureMipmaps(&tex)
		rl.SetTextureFilter(tex, rl.FilterTrilinear)
	} else {
		rl.SetTextureFilter(tex, rl.FilterBilinear)
	}
	if flags.Has(gfx.Repeat) {
		rl.SetTextureWrap(tex, rl.WrapRepeat)
	}
	return &Texture{tex: tex}, nil
}

// LoadCubemap stacks the six square faces into a vertical strip in +X, -X, +Y,
// -Y, +Z, -Z order and uploads it as one cubemap.
func (l *Loader) LoadCubemap(faces [6]string) (gfx.Texture, error) {
	var strip *rl.Image
	defer func() {
		if strip != nil {
			rl.UnloadImage(strip)
		}
	}()
	var side int32
	for i, path := range faces {
		img, err := loadImage(path)
		if err != nil {
			return nil, fmt.Errorf("cubemap face %d: %w", i, err)
		}
		if strip == nil {
			side = img.Width
			strip = rl.GenImageColor(int(side), int(side)*6, rl.Blank)
		}
		if img.Width != side || img.Height != side {
			rl.UnloadImage(img)
			return nil, fmt.Errorf("cubemap face %q is %dx%d, want %dx%d: %w",
				path, img.Width, img.Height, side, side, gfx.ErrInvalidTexture)
		}
		src := rl.NewRectangle(0, 0, float32(side), float32(side))
		dst := rl.NewRectangle(0, float32(int32(i)*side), float32(side), float32(side))
		rl.ImageDraw(strip, img, src, dst, rl.White)
		rl.UnloadImage(img)
	}
	tex := rl.LoadTextureCubemap(strip, rl.CubemapLayoutLineVertical)
	if !rl.IsTextureValid(tex) {
		return nil, fmt.Errorf("upload cubemap: %w", gfx.ErrInvalidTexture)
	}
	return &Texture{tex: tex, cube: true}, nil
}

// LoadProgram compiles a vertex and fragment shader pair.
func (l *Loader) LoadProgram(vertex, fragment string) (gfx.Program, error) {
	vs, err := shaderSource(vertex)
	if err != nil {
		return nil, err
	}
	fs, err := shaderSource(fragment)
	if err != nil {
		return nil, err
	}
	shader := rl.LoadShaderFromMemory(vs, fs)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("link %s + %s: %w", filepath.Base(vertex), filepath.Base(fragment), gfx.ErrInvalidProgram)
	}
	p := &Program{shader: shader, locs: make(map[string]int32)}
	if loc := p.Location("cubeTex"); loc >= 0 {
		p.shader.UpdateLocation(rl.ShaderLocMapCubemap, loc)
	}
	return p, nil
}

func shaderSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if src, ok := builtinShaders[filepath.Base(path)]; ok && errors.Is(err, os.ErrNotExist) {
		return src, nil
	}
	return "", fmt.Errorf("read shader: %w", err)
}

// Program is a linked raylib shader with a uniform location cache.
type Program struct {
	shader rl.Shader
	locs   map[string]int32
}

func (p *Program) Valid() bool { return rl.IsShaderValid(p.shader) }

func (p *Program) Location(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := rl.GetShaderLocation(p.shader, name)
	p.locs[name] = loc
	return loc
}

// SetInt passes the integer's bits through raylib's float-typed upload.
func (p *Program) SetInt(name string, v int32) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValue(p.shader, loc, []float32{math.Float32frombits(uint32(v))}, rl.ShaderUniformInt)
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValue(p.shader, loc, []float32{v}, rl.ShaderUniformFloat)
	}
}

func (p *Program) SetFloats(name string, v []float32) {
	if loc := p.Location(name); loc >= 0 && len(v) > 0 {
		rl.SetShaderValueV(p.shader, loc, v, rl.ShaderUniformFloat, int32(len(v)))
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValueV(p.shader, loc, v[:], rl.ShaderUniformVec2, 1)
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValueV(p.shader, loc, v[:], rl.ShaderUniformVec3, 1)
	}
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValueV(p.shader, loc, v[:], rl.ShaderUniformVec4, 1)
	}
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	if loc := p.Location(name); loc >= 0 {
		rl.SetShaderValueMatrix(p.shader, loc, toMatrix(m))
	}
}

func (p *Program) Release() {
	if p.shader.ID != 0 {
		rl.UnloadShader(p.shader)
		p.shader.ID = 0
	}
}

// Mesh draws one or more raylib meshes. pre is applied before the binding's
// model matrix; twoSided disables back-face culling for the draw.
type Mesh struct {
	dev      *Device
	meshes   []rl.Mesh
	model    rl.Model
	pre      mgl32.Mat4
	twoSided bool
	unload   func()
}

func (m *Mesh) SubMeshCount() int { return len(m.meshes) }

func (m *Mesh) Draw(b gfx.Binding) {
	for i := range m.meshes {
		m.DrawSubMesh(i, b)
	}
}

func (m *Mesh) DrawSubMesh(i int, b gfx.Binding) {
	if i < 0 || i >= len(m.meshes) {
		return
	}
	if m.twoSided {
		rl.DisableBackfaceCulling()
		defer rl.EnableBackfaceCulling()
	}
	rl.DrawMesh(m.meshes[i], m.dev.material(b), toMatrix(b.Model.Mul4(m.pre)))
}

// Pose runs raylib's CPU skinning for one frame of anim.
func (m *Mesh) Pose(anim gfx.Animation, frame int) {
	a, ok := anim.(*Animation)
	if !ok || len(a.anims) == 0 {
		return
	}
	rl.UpdateModelAnimation(m.model, a.anims[0], int32(frame))
}

func (m *Mesh) Release() {
	if m.unload != nil {
		m.unload()
		m.unload = nil
	}
}

func (l *Loader) modelMesh(path string) (*Mesh, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load mesh: %w", err)
	}
	model := rl.LoadModel(path)
	if !rl.IsModelValid(model) || model.MeshCount == 0 {
		return nil, fmt.Errorf("load mesh %q: %w", path, gfx.ErrInvalidMesh)
	}
	return &Mesh{
		dev:    l.dev,
		meshes: unsafe.Slice(model.Meshes, model.MeshCount),
		model:  model,
		pre:    mgl32.Ident4(),
		unload: func() { rl.UnloadModel(model) },
	}, nil
}

func (l *Loader) LoadMesh(path string) (gfx.Mesh, error) { return l.modelMesh(path) }

func (l *Loader) LoadSkinnedMesh(path string) (gfx.SkinnedMesh, error) {
	m, err := l.modelMesh(path)
	if err != nil {
		return nil, err
	}
	if m.model.BoneCount == 0 {
		m.Release()
		return nil, fmt.Errorf("load skinned mesh %q: no bones: %w", path, gfx.ErrInvalidMesh)
	}
	return m, nil
}

// Animation is the first animation clip of a model file.
type Animation struct {
	anims []rl.ModelAnimation
	rate  float32
}

func (a *Animation) FrameCount() int    { return int(a.anims[0].FrameCount) }
func (a *Animation) FrameRate() float32 { return a.rate }

func (a *Animation) Release() {
	if a.anims != nil {
		rl.UnloadModelAnimations(a.anims)
		a.anims = nil
	}
}

func (l *Loader) LoadAnimation(path string, frameRate float32) (gfx.Animation, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("load animation: %w", err)
	}
	anims := rl.LoadModelAnimations(path)
	if len(anims) == 0 || anims[0].FrameCount == 0 {
		return nil, fmt.Errorf("load animation %q: %w", path, gfx.ErrInvalidAnimation)
	}
	return &Animation{anims: anims, rate: frameRate}, nil
}

// LoadHeightmap turns normalised heights into a grey image and lets raylib build
// the mesh from it. The mesh spans [0,size] on every axis.
func (l *Loader) LoadHeightmap(width, depth int, heights []float32, size mgl32.Vec3) (gfx.Mesh, error) {
	if width < 2 || depth < 2 || width*depth != len(heights) {
		return nil, fmt.Errorf("heightmap %dx%d with %d samples: %w", width, depth, len(heights), gfx.ErrInvalidMesh)
	}
	gray := image.NewGray(image.Rect(0, 0, width, depth))
	for z := 0; z < depth; z++ {
		for x := 0; x < width; x++ {
			h := mgl32.Clamp(heights[z*width+x], 0, 1)
			gray.SetGray(x, z, color.Gray{Y: uint8(h*255 + 0.5)})
		}
	}
	img := rl.NewImageFromImage(gray)
	defer rl.UnloadImage(img)

	mesh := rl.GenMeshHeightmap(*img, rl.NewVector3(size[0], size[1], size[2]))
	if mesh.VertexCount == 0 {
		return nil, fmt.Errorf("heightmap: %w", gfx.ErrInvalidMesh)
	}
	return &Mesh{
		dev:    l.dev,
		meshes: []rl.Mesh{mesh},
		pre:    mgl32.Ident4(),
		unload: func() { rl.UnloadMesh(&mesh) },
	}, nil
}

// Quad is the unit quad on the XY plane spanning [-1,1], facing +Z. raylib's
// plane lies on XZ, so it is turned about X before the model matrix.
func (l *Loader) Quad() (gfx.Mesh, error) {
	mesh := rl.GenMeshPlane(2, 2, 1, 1)
	if mesh.VertexCount == 0 {
		return nil, fmt.Errorf("quad: %w", gfx.ErrInvalidMesh)
	}
	return &Mesh{
		dev:      l.dev,
		meshes:   []rl.Mesh{mesh},
		pre:      mgl32.HomogRotate3DX(mgl32.DegToRad(90)),
		twoSided: true,
		unload:   func() { rl.UnloadMesh(&mesh) },
	}, nil
}
