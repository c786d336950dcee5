package main

import (
	"flag"
	"fmt"

	"go.uber.org/zap"

	"scenerender/internal/commands"
	"scenerender/internal/engineconfig"
	"scenerender/internal/renderer"
)

// registerCommands adds the console commands. Each one that changes a setting
// also updates a.prefs so "cmd save" persists it.
func registerCommands(reg *commands.Registry, a *app) {
	ppFlags := flag.NewFlagSet("", flag.ContinueOnError)
	mode := ppFlags.String("mode", "toggle", "on, off or toggle")
	reg.Register("postprocess", "[--mode on|off|toggle] switch the blur post-process", ppFlags, func() error {
		var err error
		switch *mode {
		case "toggle":
			err = a.r.TogglePostProcessing()
		case "on", "off":
			err = a.r.SetPostProcessing(*mode == "on")
		default:
			return fmt.Errorf("unknown mode %q", *mode)
		}
		if err != nil {
			return err
		}
		a.prefs.PostProcess = a.r.PostProcessing()
		a.log.Info("post-processing", zap.Bool("on", a.prefs.PostProcess))
		return nil
	})

	blurFlags := flag.NewFlagSet("", flag.ContinueOnError)
	passes := blurFlags.Int("passes", -1, "blur iterations; negative just reports")
	reg.Register("blur", "[--passes N] set the number of blur passes", blurFlags, func() error {
		if *passes >= 0 {
			a.r.SetBlurPasses(*passes)
			a.prefs.BlurPasses = *passes
		}
		a.log.Info("blur", zap.Int("passes", a.prefs.BlurPasses))
		return nil
	})

	cullFlags := flag.NewFlagSet("", flag.ContinueOnError)
	force := cullFlags.Bool("force", false, "draw every mesh node regardless of the frustum")
	reg.Register("cull", "[--force] disable frustum culling for mesh nodes", cullFlags, func() error {
		a.r.SetForceMeshVisible(*force)
		a.prefs.ForceMeshVisible = *force
		a.log.Info("culling", zap.Bool("force_mesh_visible", *force))
		return nil
	})

	toggle := func(name, usage string, flagp *bool) {
		reg.Register(name, usage, flag.NewFlagSet("", flag.ContinueOnError), func() error {
			*flagp = !*flagp
			a.log.Info(name, zap.Bool("show", *flagp))
			return nil
		})
	}
	toggle("fps", "toggle the FPS counter", &a.debug.ShowFPS)
	toggle("memalloc", "toggle the heap size readout", &a.debug.ShowMemAlloc)
	toggle("stats", "toggle renderer stats", &a.debug.ShowStats)

	reg.Register("save", "write the current settings to "+engineconfig.EngineConfigPath, flag.NewFlagSet("", flag.ContinueOnError), func() error {
		a.prefs.ShowFPS, a.prefs.ShowMemAlloc, a.prefs.ShowStats = a.debug.ShowFPS, a.debug.ShowMemAlloc, a.debug.ShowStats
		if err := engineconfig.Save(engineconfig.EngineConfigPath, a.prefs); err != nil {
			return err
		}
		a.log.Info("settings saved", zap.String("path", engineconfig.EngineConfigPath))
		return nil
	})

	reg.Register("help", "list commands", flag.NewFlagSet("", flag.ContinueOnError), func() error {
		for _, line := range reg.Help() {
			a.log.Log(line)
		}
		return nil
	})
}

func statsLines(s renderer.Stats) []string {
	mode := "direct"
	if s.PostProcess {
		mode = fmt.Sprintf("post-process, %d passes", s.BlurPasses)
	}
	return []string{
		fmt.Sprintf("nodes %d  culled %d", s.Visited, s.Culled),
		fmt.Sprintf("opaque %d  transparent %d", s.Opaque, s.Transparent),
		fmt.Sprintf("draw calls %d", s.DrawCalls),
		fmt.Sprintf("%s  far %.0f", mode, s.FarPlane),
	}
}
