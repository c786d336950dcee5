package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinesFollowToggles(t *testing.T) {
	d := New()
	assert.Empty(t, d.Lines(), "all overlays start hidden")

	d.fpsText, d.memText = "FPS: 60", "Mem: 1.00 MiB"
	d.statsText = []string{"opaque 5", "transparent 1"}

	d.ShowFPS = true
	assert.Equal(t, []string{"FPS: 60"}, d.Lines())

	d.ShowStats = true
	assert.Equal(t, []string{"FPS: 60", "opaque 5", "transparent 1"}, d.Lines())

	d.ShowFPS, d.ShowMemAlloc = false, true
	assert.Equal(t, []string{"Mem: 1.00 MiB", "opaque 5", "transparent 1"}, d.Lines())
}
