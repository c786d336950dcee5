// Package debug draws the on-screen overlays: FPS, heap size and renderer stats.
package debug

import (
	"fmt"
	"runtime"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize   = 20
	padding    = 12
	lineHeight = fontSize + 4
	// Text is only rebuilt every updateInterval frames to limit allocations.
	updateInterval = 30
)

// Debug holds the overlay toggles. All overlays are off by default.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowStats    bool
	// Stats returns the lines of the stats overlay.
	Stats func() []string

	frameCount   uint32
	fpsText      string
	memText      string
	statsText    []string
	lastMemStats runtime.MemStats
}

func New() *Debug { return &Debug{} }

// refresh rebuilds the overlay text when it is due or missing.
func (d *Debug) refresh() {
	d.frameCount++
	due := d.frameCount%updateInterval == 0
	if d.ShowFPS && (due || d.fpsText == "") {
		d.fpsText = fmt.Sprintf("FPS: %d", rl.GetFPS())
	}
	if d.ShowMemAlloc && (due || d.memText == "") {
		runtime.ReadMemStats(&d.lastMemStats)
		d.memText = fmt.Sprintf("Mem: %.2f MiB", float64(d.lastMemStats.Alloc)/(1024*1024))
	}
	if d.ShowStats && d.Stats != nil && (due || d.statsText == nil) {
		d.statsText = d.Stats()
	}
}

// Lines returns the text of every enabled overlay, top to bottom.
func (d *Debug) Lines() []string {
	var out []string
	if d.ShowFPS {
		out = append(out, d.fpsText)
	}
	if d.ShowMemAlloc {
		out = append(out, d.memText)
	}
	if d.ShowStats {
		out = append(out, d.statsText...)
	}
	return out
}

// Draw renders the enabled overlays right-aligned at the top of the screen.
// Call after the scene and the console.
func (d *Debug) Draw() {
	d.refresh()
	screenW := int32(rl.GetScreenWidth())
	y := int32(padding)
	for _, text := range d.Lines() {
		if text != "" {
			w := rl.MeasureText(text, fontSize)
			rl.DrawText(text, screenW-w-padding, y, fontSize, rl.Green)
		}
		y += lineHeight
	}
}
