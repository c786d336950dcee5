package assets

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidMaterial = errors.New("assets: invalid material table")

// Material is one row of a material table: the textures of one submesh.
type Material struct {
	Diffuse string `yaml:"diffuse"`
	Bump    string `yaml:"bump,omitempty"`
}

// MaterialTable maps submesh index to material. Files look like:
//
//	- diffuse: bark.png
//	  bump: bark_n.png
//	- diffuse: leaves.png
type MaterialTable []Material

// LoadMaterialTable reads and validates a material table file.
func LoadMaterialTable(path string) (MaterialTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read material table: %w", err)
	}
	var t MaterialTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse material table %s: %w", path, err)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("%s: no entries: %w", path, ErrInvalidMaterial)
	}
	for i, m := range t {
		if m.Diffuse == "" {
			return nil, fmt.Errorf("%s: entry %d has no diffuse texture: %w", path, i, ErrInvalidMaterial)
		}
	}
	return t, nil
}

// HasBump reports whether any submesh carries a bump texture.
func (t MaterialTable) HasBump() bool {
	for _, m := range t {
		if m.Bump != "" {
			return true
		}
	}
	return false
}
