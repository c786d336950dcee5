package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scenerender/internal/gfx"
	"scenerender/internal/gfx/gfxtest"
)

func newChain(t *testing.T, cfg Config) (*Chain, *gfxtest.Device) {
	t.Helper()
	dev, loader := gfxtest.New(640, 360)
	quad, err := loader.Quad()
	require.NoError(t, err)
	blur, _ := loader.LoadProgram("blur.vert", "blur.frag")
	present, _ := loader.LoadProgram("present.vert", "present.frag")
	c, err := New(dev, quad, Programs{Blur: blur, Present: present}, cfg)
	require.NoError(t, err)
	return c, dev
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.ErrorIs(t, Config{Passes: 1, Kernel: []float32{0.5, 0.5}}.Validate(), ErrKernel)
	assert.ErrorIs(t, Config{Passes: 1}.Validate(), ErrKernel)
	assert.ErrorIs(t, Config{Passes: 1, Kernel: make([]float32, MaxTaps+2)}.Validate(), ErrKernel)
	assert.Error(t, Config{Passes: -1, Kernel: DefaultKernel}.Validate())
}

func TestBlurAlternatesTargetsAndEndsInSceneTarget(t *testing.T) {
	for _, passes := range []int{1, 2, 10} {
		cfg := DefaultConfig()
		cfg.Passes = passes
		c, dev := newChain(t, cfg)
		require.NoError(t, c.Provision())
		dev.Rec.Reset()

		c.Blur()
		draws := dev.Rec.Filter(gfxtest.OpDraw)
		require.Len(t, draws, 2*passes)
		for i, d := range draws {
			assert.Equal(t, "blur.vert|blur.frag", d.Program)
			if i%2 == 0 {
				assert.Equal(t, "target1", d.Target)
				assert.Equal(t, "target0.colour", d.Texture)
			} else {
				assert.Equal(t, "target0", d.Target)
				assert.Equal(t, "target1.colour", d.Texture)
			}
		}
		assert.Equal(t, "target0", draws[len(draws)-1].Target, "final blurred image is in the scene target")

		dev.Rec.Reset()
		c.Present()
		draws = dev.Rec.Filter(gfxtest.OpDraw)
		require.Len(t, draws, 1)
		assert.Equal(t, gfxtest.Screen, draws[0].Target)
		assert.Equal(t, "target0.colour", draws[0].Texture)
		assert.Equal(t, "present.vert|present.frag", draws[0].Program)
	}
}

func TestBlurUploadsKernel(t *testing.T) {
	c, _ := newChain(t, DefaultConfig())
	require.NoError(t, c.Provision())
	c.Blur()
	p := c.programs.Blur.(*gfxtest.Program)
	assert.Equal(t, DefaultKernel, p.Uniforms["weights"])
	assert.Equal(t, int32(7), p.Uniforms["taps"])
	assert.Equal(t, float32(1), p.Uniforms["isVertical"], "last half-pass is vertical")
}

func TestBlurDisablesDepthTestOnlyWhileBlurring(t *testing.T) {
	c, dev := newChain(t, DefaultConfig())
	require.NoError(t, c.Provision())
	dev.Rec.Reset()
	c.Blur()
	depth := dev.Rec.Filter(gfxtest.OpDepthTest)
	require.Len(t, depth, 2)
	assert.False(t, depth[0].On)
	assert.True(t, depth[1].On)
}

func TestZeroPassesSkipsBlur(t *testing.T) {
	c, dev := newChain(t, DefaultConfig())
	require.NoError(t, c.Provision())
	c.SetPasses(-3)
	assert.Equal(t, 0, c.Config().Passes)
	dev.Rec.Reset()
	c.Blur()
	assert.Empty(t, dev.Rec.Ops)
}

func TestProvisionIncompleteTargetReleasesEverything(t *testing.T) {
	c, dev := newChain(t, DefaultConfig())
	dev.IncompleteTarget = true
	err := c.Provision()
	assert.ErrorIs(t, err, gfx.ErrIncompleteTarget)
	assert.False(t, c.Provisioned())
	for _, name := range dev.Rec.Live() {
		assert.NotContains(t, name, "target")
	}

	dev.IncompleteTarget = false
	require.NoError(t, c.Provision())
	assert.True(t, c.Provisioned())
	require.NoError(t, c.Provision(), "provisioning twice is a no-op")

	c.Release()
	assert.False(t, c.Provisioned())
	for _, name := range dev.Rec.Live() {
		assert.NotContains(t, name, "target")
	}
}

func TestSetKernel(t *testing.T) {
	c, _ := newChain(t, DefaultConfig())
	assert.ErrorIs(t, c.SetKernel([]float32{1, 1}), ErrKernel)
	require.NoError(t, c.SetKernel([]float32{0.25, 0.5, 0.25}))
	assert.Equal(t, []float32{0.25, 0.5, 0.25}, c.Config().Kernel)
}
