// Package graphics owns the raylib window and the main loop.
package graphics

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"scenerender/internal/engineconfig"
)

// App is driven by Run. Setup runs once the GL context exists and Close runs
// before the window goes away, so GPU resources can be created and freed there.
type App interface {
	Setup() error
	// Update handles input and advances state by dt seconds.
	Update(dt float32)
	// Draw is called between BeginDrawing and EndDrawing.
	Draw()
	Close()
}

// Run opens the window described by prefs and drives app until the window is
// closed. ESC is left to the application; close via the window button.
func Run(prefs engineconfig.Prefs, app App) error {
	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagVsyncHint)
	rl.InitWindow(int32(prefs.WindowWidth), int32(prefs.WindowHeight), prefs.Title)
	defer rl.CloseWindow()

	rl.SetExitKey(rl.KeyNull)
	rl.SetTargetFPS(int32(prefs.TargetFPS))
	rl.DisableCursor()

	if err := app.Setup(); err != nil {
		app.Close()
		return err
	}
	defer app.Close()
	for !rl.WindowShouldClose() {
		app.Update(rl.GetFrameTime())

		rl.BeginDrawing()
		app.Draw()
		rl.EndDrawing()
	}
	return nil
}
