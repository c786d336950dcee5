// Package assets describes what the renderer loads: the scene manifest
// (assets/scene.yaml) and per-mesh material tables.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"scenerender/internal/heightmap"
)

// ManifestPath is the default scene manifest, relative to the working directory.
const ManifestPath = "assets/scene.yaml"

var ErrInvalidManifest = errors.New("assets: invalid manifest")

// ProgramRef names a vertex+fragment shader pair inside the shader directory.
type ProgramRef struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// Programs lists every program the renderer links at setup.
type Programs struct {
	Sky     ProgramRef `yaml:"sky"`
	Terrain ProgramRef `yaml:"terrain"`
	Water   ProgramRef `yaml:"water"`
	Node    ProgramRef `yaml:"node"`
	Static  ProgramRef `yaml:"static"`
	Skinned ProgramRef `yaml:"skinned"`
	Blur    ProgramRef `yaml:"blur"`
	Present ProgramRef `yaml:"present"`
}

// Terrain configures the heightmap. An empty Heightmap generates terrain from noise.
type Terrain struct {
	Heightmap string            `yaml:"heightmap"`
	Options   heightmap.Options `yaml:"options"`
	Diffuse   string            `yaml:"diffuse"`
	Bump      string            `yaml:"bump"`
}

type Water struct {
	Texture     string  `yaml:"texture"`
	RotateSpeed float32 `yaml:"rotate_speed"`
	CycleSpeed  float32 `yaml:"cycle_speed"`
}

// Entry places one mesh in the scene. Unset fields inherit from Manifest.Defaults.
type Entry struct {
	Name      string     `yaml:"name"`
	Mesh      string     `yaml:"mesh"`
	Material  string     `yaml:"material"`
	Texture   string     `yaml:"texture"`
	Animation string     `yaml:"animation"`
	FrameRate float32    `yaml:"frame_rate"`
	Position  [3]float32 `yaml:"position"`
	// Relative positions are fractions of the terrain size.
	Relative bool      `yaml:"relative"`
	Scale    float32   `yaml:"scale"`
	Yaw      float32   `yaml:"yaw"`
	Colour   []float32 `yaml:"colour"`
	Radius   float32   `yaml:"radius"`
	Move     bool      `yaml:"move"`
}

// Manifest is the whole scene description.
type Manifest struct {
	TextureDir string    `yaml:"texture_dir"`
	MeshDir    string    `yaml:"mesh_dir"`
	ShaderDir  string    `yaml:"shader_dir"`
	Terrain    Terrain   `yaml:"terrain"`
	Water      Water     `yaml:"water"`
	Skybox     [6]string `yaml:"skybox"`
	Programs   Programs  `yaml:"programs"`
	Defaults   Entry     `yaml:"defaults"`
	Static     []Entry   `yaml:"static"`
	Animated   []Entry   `yaml:"animated"`
	Props      []Entry   `yaml:"props"`

	root string
}

// Default is the built-in scene used when no manifest file exists.
func Default() *Manifest {
	return &Manifest{
		TextureDir: "textures",
		MeshDir:    "meshes",
		ShaderDir:  "shaders",
		Terrain: Terrain{
			Heightmap: "noise.png",
			Options:   heightmap.DefaultOptions(),
			Diffuse:   "brown_gravel_terrain.png",
			Bump:      "brown_gravel_terrain_NormalMap.png",
		},
		Water:  Water{Texture: "water.TGA", RotateSpeed: 2, CycleSpeed: 0.25},
		Skybox: [6]string{"rusted_west.jpg", "rusted_east.jpg", "rusted_up.jpg", "rusted_down.jpg", "rusted_south.jpg", "rusted_north.jpg"},
		Programs: Programs{
			Sky:     ProgramRef{"skyboxVertex.glsl", "skyboxFragment.glsl"},
			Terrain: ProgramRef{"PerPixelVertex.glsl", "PerPixelFragment.glsl"},
			Water:   ProgramRef{"reflectVertex.glsl", "reflectFragment.glsl"},
			Node:    ProgramRef{"SceneVertex.glsl", "SceneFragment.glsl"},
			Static:  ProgramRef{"staticVertex.glsl", "staticFragment.glsl"},
			Skinned: ProgramRef{"skinningVertex.glsl", "texturedFragment.glsl"},
			Blur:    ProgramRef{"TexturedVertex.glsl", "processfrag.glsl"},
			Present: ProgramRef{"TexturedVertex.glsl", "TexturedFragment.glsl"},
		},
		Defaults: Entry{Scale: 1, FrameRate: 30, Radius: 1, Colour: []float32{1, 1, 1, 1}},
		Static: []Entry{
			{Name: "tree", Mesh: "Tree.glb", Material: "Tree.yaml", Position: [3]float32{0.45, 0.3, 0.55}, Relative: true, Scale: 40, Radius: 400},
			{Name: "ruins", Mesh: "Ruins.glb", Material: "Ruins.yaml", Position: [3]float32{0.6, 0.28, 0.4}, Relative: true, Scale: 30, Yaw: 45, Radius: 300},
		},
		Animated: []Entry{
			{Name: "walker", Mesh: "Role_T.glb", Material: "Role_T.yaml", Animation: "Role_T.glb", Position: [3]float32{0.5, 0.3, 0.5}, Relative: true, Scale: 50, Move: true, Radius: 100},
		},
		Props: []Entry{
			{Name: "beacon", Mesh: "OffsetCubeY.obj", Texture: "stainedglass.tga", Position: [3]float32{0.5, 0.6, 0.5}, Relative: true, Scale: 100, Colour: []float32{1, 1, 1, 0.5}, Radius: 200},
		},
	}
}

// Load reads a manifest. A missing file yields Default() rooted at the file's
// directory; malformed YAML or an invalid manifest is an error.
func Load(path string) (*Manifest, error) {
	m := Default()
	m.root = filepath.Dir(path)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every required asset is named.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Terrain.Diffuse == "" || m.Terrain.Bump == "" {
		errs = append(errs, errors.New("terrain needs diffuse and bump textures"))
	}
	if m.Water.Texture == "" {
		errs = append(errs, errors.New("water needs a texture"))
	}
	for i, f := range m.Skybox {
		if f == "" {
			errs = append(errs, fmt.Errorf("skybox face %d is empty", i))
		}
	}
	for name, p := range m.programMap() {
		if p.Vertex == "" || p.Fragment == "" {
			errs = append(errs, fmt.Errorf("program %s needs vertex and fragment", name))
		}
	}
	check := func(kind string, entries []Entry, needs func(Entry) error) {
		for i, e := range entries {
			if e.Name == "" || e.Mesh == "" {
				errs = append(errs, fmt.Errorf("%s[%d] needs name and mesh", kind, i))
				continue
			}
			if err := needs(e); err != nil {
				errs = append(errs, fmt.Errorf("%s %q: %w", kind, e.Name, err))
			}
		}
	}
	check("static", m.Static, func(e Entry) error {
		if e.Material == "" {
			return errors.New("missing material")
		}
		return nil
	})
	check("animated", m.Animated, func(e Entry) error {
		if e.Material == "" || e.Animation == "" {
			return errors.New("missing material or animation")
		}
		return nil
	})
	check("props", m.Props, func(Entry) error { return nil })
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, errors.Join(errs...))
	}
	return nil
}

func (m *Manifest) programMap() map[string]ProgramRef {
	p := m.Programs
	return map[string]ProgramRef{
		"sky": p.Sky, "terrain": p.Terrain, "water": p.Water, "node": p.Node,
		"static": p.Static, "skinned": p.Skinned, "blur": p.Blur, "present": p.Present,
	}
}

// Resolve overlays e on the manifest defaults: zero-valued fields of e take the
// default value. Booleans can only be switched on by an entry.
func (m *Manifest) Resolve(e Entry) (Entry, error) {
	var out Entry
	if err := copier.CopyWithOption(&out, &m.Defaults, copier.Option{DeepCopy: true}); err != nil {
		return Entry{}, fmt.Errorf("copy defaults: %w", err)
	}
	if err := copier.CopyWithOption(&out, &e, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return Entry{}, fmt.Errorf("overlay %q: %w", e.Name, err)
	}
	// copier merges slices element-wise; an entry colour replaces the default whole
	if len(e.Colour) > 0 {
		out.Colour = slices.Clone(e.Colour)
	}
	switch len(out.Colour) {
	case 0:
		out.Colour = []float32{1, 1, 1, 1}
	case 3:
		out.Colour = append(out.Colour, 1)
	case 4:
	default:
		return Entry{}, fmt.Errorf("entry %q: colour needs 3 or 4 components: %w", e.Name, ErrInvalidManifest)
	}
	return out, nil
}

func (m *Manifest) dir(d string) string {
	if filepath.IsAbs(d) {
		return d
	}
	return filepath.Join(m.root, d)
}

// Root is the directory relative asset directories are resolved against.
func (m *Manifest) Root() string { return m.root }

// SetRoot changes the directory relative asset directories are resolved against.
func (m *Manifest) SetRoot(root string) { m.root = root }

func (m *Manifest) TexturePath(name string) string { return filepath.Join(m.dir(m.TextureDir), name) }
func (m *Manifest) MeshPath(name string) string    { return filepath.Join(m.dir(m.MeshDir), name) }
func (m *Manifest) ShaderPath(name string) string  { return filepath.Join(m.dir(m.ShaderDir), name) }

// SkyboxPaths returns the cubemap faces in +X, -X, +Y, -Y, +Z, -Z order.
func (m *Manifest) SkyboxPaths() [6]string {
	var out [6]string
	for i, f := range m.Skybox {
		out[i] = m.TexturePath(f)
	}
	return out
}
