package main

import (
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"

	"scenerender/internal/assets"
	"scenerender/internal/commands"
	"scenerender/internal/debug"
	"scenerender/internal/engineconfig"
	"scenerender/internal/gfx/rlgfx"
	"scenerender/internal/graphics"
	"scenerender/internal/logger"
	"scenerender/internal/renderer"
	"scenerender/internal/terminal"
)

func main() {
	log := logger.New()
	defer log.Close()

	prefs, err := engineconfig.Load(engineconfig.EngineConfigPath)
	if err != nil {
		log.Warn("using default preferences", zap.Error(err))
	}
	if err := prefs.Validate(); err != nil {
		log.Warn("preferences repaired", zap.Error(err))
	}
	manifest, err := assets.Load(prefs.ManifestPath)
	if err != nil {
		log.Error("scene manifest", zap.String("path", prefs.ManifestPath), zap.Error(err))
		os.Exit(1)
	}

	a := &app{log: log, prefs: prefs, manifest: manifest, debug: debug.New(), reg: commands.NewRegistry()}
	if err := graphics.Run(prefs, a); err != nil {
		log.Error("renderer exited", zap.Error(err))
		os.Exit(1)
	}
}

// app wires the renderer, console and overlays into the window loop.
type app struct {
	log      *logger.Logger
	prefs    engineconfig.Prefs
	manifest *assets.Manifest
	reg      *commands.Registry
	debug    *debug.Debug
	term     *terminal.Terminal
	r        *renderer.Renderer
}

func (a *app) Setup() error {
	a.term = terminal.New(a.log, a.reg)
	dev := rlgfx.NewDevice()
	input := &rlgfx.Input{Enabled: func() bool { return !a.term.IsOpen() }}
	r, err := renderer.New(dev, rlgfx.NewLoader(dev), renderer.Config{
		Prefs:    a.prefs,
		Manifest: a.manifest,
		Input:    input,
	}, a.log.Logger)
	if err != nil {
		return err
	}
	a.r = r
	registerCommands(a.reg, a)
	a.debug.ShowFPS, a.debug.ShowMemAlloc, a.debug.ShowStats = a.prefs.ShowFPS, a.prefs.ShowMemAlloc, a.prefs.ShowStats
	a.debug.Stats = func() []string { return statsLines(a.r.Stats()) }
	a.log.Log("press ` for the console, P to toggle post-processing")
	return nil
}

func (a *app) Update(dt float32) {
	a.term.Update()
	if !a.term.IsOpen() && rl.IsKeyPressed(rl.KeyP) {
		a.togglePostProcessing()
	}
	a.r.Update(dt)
}

func (a *app) Draw() {
	if err := a.r.RenderScene(); err != nil {
		a.log.Error("render", zap.Error(err))
	}
	a.r.BeginOverlay()
	a.term.Draw()
	a.debug.Draw()
}

func (a *app) Close() {
	if a.r != nil {
		a.r.Close()
	}
}

func (a *app) togglePostProcessing() {
	if err := a.r.TogglePostProcessing(); err != nil {
		a.log.Warn("post-processing unchanged", zap.Error(err))
		return
	}
	a.prefs.PostProcess = a.r.PostProcessing()
}
