// Package gfx describes the graphics services the renderer consumes: a device that
// owns render targets and matrix state, and a loader that turns asset names into
// textures, programs and meshes. The raylib implementation lives in rlgfx; tests use gfxtest.
package gfx

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// Sentinel errors returned by loaders and devices. Wrap them with fmt.Errorf("...: %w").
var (
	ErrInvalidTexture   = errors.New("gfx: invalid texture")
	ErrInvalidProgram   = errors.New("gfx: program failed to compile or link")
	ErrInvalidMesh      = errors.New("gfx: invalid mesh")
	ErrInvalidAnimation = errors.New("gfx: invalid animation")
	ErrIncompleteTarget = errors.New("gfx: render target incomplete")
)

// Releaser frees a GPU-side resource. Release must be safe to call more than once.
type Releaser interface {
	Release()
}

// Texture is a GPU texture handle (2D or cubemap).
type Texture interface {
	Releaser
	ID() uint32
	Cubemap() bool
}

// Program is a linked vertex+fragment shader pair.
// Setters silently ignore uniforms the program does not declare.
type Program interface {
	Releaser
	Valid() bool
	Location(name string) int32
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetFloats(name string, v []float32)
	SetVec2(name string, v mgl32.Vec2)
	SetVec3(name string, v mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, m mgl32.Mat4)
}

// Binding is everything a single mesh draw needs besides the geometry.
// Nil textures leave the corresponding slot at its default.
type Binding struct {
	Program Program
	Model   mgl32.Mat4
	Colour  mgl32.Vec4
	Diffuse Texture
	Bump    Texture
	Cubemap Texture
}

// Mesh is drawable geometry made of one or more submeshes.
type Mesh interface {
	Releaser
	SubMeshCount() int
	// Draw draws every submesh with the same binding.
	Draw(b Binding)
	DrawSubMesh(i int, b Binding)
}

// Animation is a sampled skeletal animation.
type Animation interface {
	Releaser
	FrameCount() int
	FrameRate() float32
}

// SkinnedMesh is a mesh whose vertices follow a pose sampled from an animation.
type SkinnedMesh interface {
	Mesh
	Pose(anim Animation, frame int)
}

// RenderTarget is an off-screen framebuffer with a colour texture attachment.
type RenderTarget interface {
	Releaser
	Texture() Texture
	Complete() bool
	Size() (w, h int)
}

// Device is the graphics context the frame orchestrator drives.
type Device interface {
	Size() (w, h int)
	// BindTarget redirects drawing to t; nil selects the default framebuffer.
	BindTarget(t RenderTarget)
	// Clear clears colour and depth of the bound target, and stencil where the
	// target has a stencil attachment.
	Clear(colour mgl32.Vec4)
	SetDepthWrite(on bool)
	SetDepthTest(on bool)
	SetMatrices(projection, view mgl32.Mat4)
	UseProgram(p Program)
	NewRenderTarget(w, h int, depth bool) (RenderTarget, error)
}

// TextureFlags control how a texture file is uploaded.
type TextureFlags uint8

const (
	Mipmaps TextureFlags = 1 << iota
	Repeat
	FlipY
)

// Has reports whether all bits of f are set.
func (t TextureFlags) Has(f TextureFlags) bool { return t&f == f }

// Loader resolves asset paths into GPU resources. Every method returns an error
// wrapping one of the sentinels above when the asset is missing or malformed.
type Loader interface {
	LoadTexture(path string, flags TextureFlags) (Texture, error)
	// LoadCubemap takes faces in +X, -X, +Y, -Y, +Z, -Z order.
	LoadCubemap(faces [6]string) (Texture, error)
	LoadProgram(vertex, fragment string) (Program, error)
	LoadMesh(path string) (Mesh, error)
	LoadSkinnedMesh(path string) (SkinnedMesh, error)
	LoadAnimation(path string, frameRate float32) (Animation, error)
	// LoadHeightmap builds terrain geometry from a height grid in [0,1].
	LoadHeightmap(width, depth int, heights []float32, size mgl32.Vec3) (Mesh, error)
	// Quad returns a unit quad in the XY plane spanning [-1,1] with UV (0,0) at (-1,-1).
	Quad() (Mesh, error)
}

// White is the neutral tint.
var White = mgl32.Vec4{1, 1, 1, 1}
