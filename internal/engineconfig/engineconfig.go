package engineconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"scenerender/internal/assets"
	"scenerender/internal/postprocess"
)

// EngineConfigPath is the path to the renderer config file, relative to the process working directory.
const EngineConfigPath = "config/renderer.json"

// Prefs holds renderer preferences: window, projection, post-processing and debug overlays.
// Persisted across runs; the scene itself is described by the asset manifest.
type Prefs struct {
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	Title        string `json:"title"`
	TargetFPS    int    `json:"target_fps"`

	FOV       float32 `json:"fov"`
	NearPlane float32 `json:"near_plane"`
	FarPlane  float32 `json:"far_plane"`
	// PostProcessFarPlane replaces FarPlane while post-processing is on.
	PostProcessFarPlane float32 `json:"post_process_far_plane"`

	PostProcess      bool      `json:"post_process"`
	BlurPasses       int       `json:"blur_passes"`
	BlurKernel       []float32 `json:"blur_kernel"`
	ForceMeshVisible bool      `json:"force_mesh_visible"`

	ShowFPS      bool `json:"show_fps"`
	ShowMemAlloc bool `json:"show_memalloc"`
	ShowStats    bool `json:"show_stats"`

	ManifestPath string `json:"manifest_path"`
}

// Default returns default renderer preferences (direct mode, true culling, overlays off).
func Default() Prefs {
	return Prefs{
		WindowWidth:         1280,
		WindowHeight:        720,
		Title:               "scenerender",
		TargetFPS:           60,
		FOV:                 45,
		NearPlane:           1,
		FarPlane:            15000,
		PostProcessFarPlane: 20000,
		BlurPasses:          postprocess.DefaultPasses,
		BlurKernel:          append([]float32(nil), postprocess.DefaultKernel...),
		ManifestPath:        assets.ManifestPath,
	}
}

// Load reads preferences from path. If the file is missing or not valid JSON,
// returns Default() and does not create a file. Out-of-range values are
// repaired; Validate on the raw file reports what was wrong.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), nil
	}
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Default(), nil
	}
	return p.Sanitized(), nil
}

// Save writes preferences to path, creating the config directory if needed.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every nonsensical value.
func (p Prefs) Validate() error {
	var errs []error
	if p.WindowWidth <= 0 || p.WindowHeight <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", p.WindowWidth, p.WindowHeight))
	}
	if p.FOV <= 0 || p.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %v out of (0, 180)", p.FOV))
	}
	if p.NearPlane <= 0 {
		errs = append(errs, fmt.Errorf("near plane %v must be positive", p.NearPlane))
	}
	if p.FarPlane <= p.NearPlane {
		errs = append(errs, fmt.Errorf("far plane %v must exceed near plane %v", p.FarPlane, p.NearPlane))
	}
	if p.PostProcessFarPlane <= p.NearPlane {
		errs = append(errs, fmt.Errorf("post-process far plane %v must exceed near plane %v", p.PostProcessFarPlane, p.NearPlane))
	}
	if err := p.Blur().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Sanitized returns p with every invalid value replaced by its default.
func (p Prefs) Sanitized() Prefs {
	d := Default()
	if p.WindowWidth <= 0 || p.WindowHeight <= 0 {
		p.WindowWidth, p.WindowHeight = d.WindowWidth, d.WindowHeight
	}
	if p.FOV <= 0 || p.FOV >= 180 {
		p.FOV = d.FOV
	}
	if p.NearPlane <= 0 {
		p.NearPlane = d.NearPlane
	}
	if p.FarPlane <= p.NearPlane {
		p.FarPlane = max(d.FarPlane, p.NearPlane*2)
	}
	if p.PostProcessFarPlane <= p.NearPlane {
		p.PostProcessFarPlane = max(d.PostProcessFarPlane, p.NearPlane*2)
	}
	if p.BlurPasses < 0 {
		p.BlurPasses = d.BlurPasses
	}
	if (postprocess.Config{Passes: p.BlurPasses, Kernel: p.BlurKernel}).Validate() != nil {
		p.BlurKernel = d.BlurKernel
	}
	if p.ManifestPath == "" {
		p.ManifestPath = d.ManifestPath
	}
	return p
}

// Blur returns the post-process configuration.
func (p Prefs) Blur() postprocess.Config {
	return postprocess.Config{Passes: p.BlurPasses, Kernel: append([]float32(nil), p.BlurKernel...)}
}

// FarPlaneFor returns the projection far plane for the given mode.
func (p Prefs) FarPlaneFor(postProcess bool) float32 {
	if postProcess {
		return p.PostProcessFarPlane
	}
	return p.FarPlane
}
