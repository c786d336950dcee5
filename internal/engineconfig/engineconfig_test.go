package engineconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
	assert.Equal(t, float32(15000), Default().FarPlaneFor(false))
	assert.Equal(t, float32(20000), Default().FarPlaneFor(true))
}

func TestLoadMissingOrInvalidReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	p, err = Load(bad)
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "renderer.json")
	p := Default()
	p.PostProcess = true
	p.BlurPasses = 3
	p.ShowStats = true
	require.NoError(t, Save(path, p))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"show_fps": true, "blur_passes": 4}`), 0o644))
	p, err := Load(path)
	require.NoError(t, err)
	assert.True(t, p.ShowFPS)
	assert.Equal(t, 4, p.BlurPasses)
	assert.Equal(t, Default().FarPlane, p.FarPlane)
}

func TestValidateAndSanitize(t *testing.T) {
	p := Default()
	p.NearPlane = 10
	p.FarPlane = 5
	p.FOV = 0
	p.BlurPasses = -1
	p.BlurKernel = []float32{1, 1}

	err := p.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "far plane 5 must exceed near plane 10")
	assert.ErrorContains(t, err, "fov")

	s := p.Sanitized()
	assert.NoError(t, s.Validate())
	assert.Equal(t, float32(10), s.NearPlane)
	assert.Equal(t, float32(15000), s.FarPlane)
	assert.Equal(t, float32(45), s.FOV)
	assert.Equal(t, Default().BlurPasses, s.BlurPasses)
	assert.Equal(t, Default().BlurKernel, s.BlurKernel)
}
