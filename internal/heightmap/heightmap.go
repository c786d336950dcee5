// Package heightmap produces terrain height grids, either from a grayscale image
// or from fractal value noise.
package heightmap

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	// extra height image formats
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmpty = errors.New("heightmap: image has no pixels")

// Options controls both image and procedural maps.
// Width/Depth are grid samples; TileSize is the world size of one sample on X/Z.
// HeightScale is the world height of a white pixel (or a noise value of 1).
// Seed controls randomness; Seed == 0 uses a time-based seed.
// Octaves, Frequency, Lacunarity, and Gain control the fractal noise shape.
type Options struct {
	Width       int     `json:"width" yaml:"width"`
	Depth       int     `json:"depth" yaml:"depth"`
	TileSize    float32 `json:"tile_size" yaml:"tile_size"`
	HeightScale float32 `json:"height_scale" yaml:"height_scale"`

	Seed       int64   `json:"seed" yaml:"seed"`
	Octaves    int     `json:"octaves" yaml:"octaves"`
	Frequency  float32 `json:"frequency" yaml:"frequency"`
	Lacunarity float32 `json:"lacunarity" yaml:"lacunarity"`
	Gain       float32 `json:"gain" yaml:"gain"`

	// Smooth is the gaussian blur radius applied to image maps; 0 disables it.
	Smooth float64 `json:"smooth" yaml:"smooth"`
	// MaxSide downsamples larger images so neither side exceeds it; 0 keeps the source size.
	MaxSide int `json:"max_side" yaml:"max_side"`
}

// DefaultOptions matches a 257x257 map with 16 unit tiles and 8-bit heights.
func DefaultOptions() Options {
	return Options{
		Width:       257,
		Depth:       257,
		TileSize:    16,
		HeightScale: 255,
		Octaves:     5,
		Frequency:   0.02,
		Lacunarity:  2.0,
		Gain:        0.5,
		MaxSide:     1025,
	}
}

func (o Options) sanitized() Options {
	d := DefaultOptions()
	if o.Width <= 1 {
		o.Width = d.Width
	}
	if o.Depth <= 1 {
		o.Depth = d.Depth
	}
	if o.TileSize <= 0 {
		o.TileSize = d.TileSize
	}
	if o.HeightScale <= 0 {
		o.HeightScale = d.HeightScale
	}
	if o.Octaves <= 0 {
		o.Octaves = d.Octaves
	}
	if o.Frequency <= 0 {
		o.Frequency = d.Frequency
	}
	if o.Lacunarity <= 0 {
		o.Lacunarity = d.Lacunarity
	}
	if o.Gain <= 0 {
		o.Gain = d.Gain
	}
	return o
}

// Map is a row-major grid of heights in [0,1]; Size is its world extent.
type Map struct {
	Width   int
	Depth   int
	Heights []float32
	Size    mgl32.Vec3
}

// At returns the normalised height of sample (x, z).
func (m *Map) At(x, z int) float32 { return m.Heights[z*m.Width+x] }

func newMap(w, d int, opts Options) *Map {
	return &Map{
		Width:   w,
		Depth:   d,
		Heights: make([]float32, w*d),
		Size:    mgl32.Vec3{float32(w) * opts.TileSize, opts.HeightScale, float32(d) * opts.TileSize},
	}
}

// Generate builds a map from fractal value noise.
func Generate(opts Options) *Map {
	opts = opts.sanitized()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := newMap(opts.Width, opts.Depth, opts)
	n := newNoise(opts, seed)
	for z := 0; z < opts.Depth; z++ {
		for x := 0; x < opts.Width; x++ {
			m.Heights[z*opts.Width+x] = clamp01(n.fbm(float32(x)*opts.Frequency, float32(z)*opts.Frequency))
		}
	}
	return m
}

// FromImage reads a height image; its luminance becomes the height. Width and
// Depth come from the image (after any MaxSide downsampling).
func FromImage(path string, opts Options) (*Map, error) {
	opts = opts.sanitized()
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("heightmap %q: %w", path, err)
	}
	m, err := FromGray(img, opts)
	if err != nil {
		return nil, fmt.Errorf("heightmap %q: %w", path, err)
	}
	return m, nil
}

// FromGray converts any image into a height map.
func FromGray(img image.Image, opts Options) (*Map, error) {
	opts = opts.sanitized()
	b := img.Bounds()
	w, d := b.Dx(), b.Dy()
	if w <= 0 || d <= 0 {
		return nil, ErrEmpty
	}
	if opts.MaxSide > 0 && (w > opts.MaxSide || d > opts.MaxSide) {
		scale := float64(opts.MaxSide) / float64(max(w, d))
		w = max(2, int(float64(w)*scale))
		d = max(2, int(float64(d)*scale))
		img = transform.Resize(img, w, d, transform.Linear)
	}
	if opts.Smooth > 0 {
		img = blur.Gaussian(img, opts.Smooth)
	}
	gray := effect.Grayscale(img)
	gb := gray.Bounds()

	m := newMap(w, d, opts)
	for z := 0; z < d; z++ {
		for x := 0; x < w; x++ {
			m.Heights[z*w+x] = float32(gray.RGBAAt(gb.Min.X+x, gb.Min.Y+z).R) / 255
		}
	}
	return m, nil
}

// noise is seeded lattice value noise summed over octaves.
type noise struct {
	seed       uint32
	octaves    int
	lacunarity float32
	gain       float32
}

func newNoise(opts Options, seed int64) noise {
	return noise{
		seed:       uint32(seed) ^ uint32(seed>>32),
		octaves:    opts.Octaves,
		lacunarity: opts.Lacunarity,
		gain:       opts.Gain,
	}
}

// fbm returns the amplitude-weighted octave sum at (x, z), normalised to [0,1].
func (n noise) fbm(x, z float32) float32 {
	var total, norm float32
	amp := float32(1)
	for o := range n.octaves {
		total += amp * n.sample(x, z, n.seed+uint32(o)*0x9e3779b9)
		norm += amp
		amp *= n.gain
		x, z = x*n.lacunarity, z*n.lacunarity
	}
	return total / norm
}

// sample blends the four surrounding lattice values with a quintic fade.
func (n noise) sample(x, z float32, seed uint32) float32 {
	fx, fz := math32.Floor(x), math32.Floor(z)
	ix, iz := int32(fx), int32(fz)
	u, v := fade(x-fx), fade(z-fz)

	near := mix(lattice(ix, iz, seed), lattice(ix+1, iz, seed), u)
	far := mix(lattice(ix, iz+1, seed), lattice(ix+1, iz+1, seed), u)
	return mix(near, far, v)
}

// lattice hashes a grid point into [0,1) with the murmur3 finaliser.
func lattice(x, z int32, seed uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(z)*0xd8163841 ^ seed
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return float32(h>>8) / (1 << 24)
}

func fade(t float32) float32      { return t * t * t * (t*(t*6-15) + 10) }
func mix(a, b, t float32) float32 { return a + (b-a)*t }

func clamp01(f float32) float32 {
	if math32.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 || math32.IsInf(f, 1) {
		return 1
	}
	return f
}
