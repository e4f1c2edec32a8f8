//go:build !android

package desktop

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"snakecraft/internal/game"
)

// ArenaOrbs is the orb count at effect density 1.
const ArenaOrbs = 900

// Seed reads SNAKECRAFT_SEED, falling back to the clock.
func Seed() uint64 {
	if s := os.Getenv("SNAKECRAFT_SEED"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			return v
		}
	}
	return uint64(time.Now().UnixNano())
}

// Run opens the window and plays the arena until it is closed.
func Run(ctx context.Context, cfg *game.Config, log *zap.Logger) error {
	runtime.LockOSThread()

	window, err := openWindow(windowOptions{
		Width:        game.WindowWidth,
		Height:       game.WindowHeight,
		Title:        "snakecraft",
		SwapInterval: 1,
	})
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	fbW, fbH := window.GetFramebufferSize()
	surf, err := NewGLSurface(fbW, fbH, cfg.Render.SpriteCacheSize)
	if err != nil {
		return fmt.Errorf("surface: %w", err)
	}
	defer surf.Destroy()

	seed := Seed()
	arena := game.NewArena(cfg.WorldBounds(), 0, seed)

	probes := game.DefaultProbes(cfg.Profile.BenchFrames)
	probes.Renderer = surf.Renderer
	eng, err := game.NewEngine(ctx, game.EngineOptions[*game.Orb]{
		Config:  cfg,
		Logger:  log,
		Probes:  &probes,
		Surface: surf,
		Source:  arena,
	})
	if err != nil {
		return err
	}
	arena.Populate(int(ArenaOrbs * eng.Quality().EffectDensity))
	arena.Attach(eng)
	eng.Profiler().OnChange(func(_ game.Tier, q game.QualitySettings) {
		arena.Populate(int(ArenaOrbs * q.EffectDensity))
	})
	log.Info("arena started", zap.Uint64("seed", seed), zap.Int("orbs", len(arena.Orbs())))

	cam := game.NewCamera(cfg.WorldBounds())
	eng.SetView(func() game.Viewport { return cam.Viewport(surf.Size()) })
	input := NewInput()

	start := glfw.GetTime()
	last := start
	lastTitle := start
	for !window.ShouldClose() {
		if ctx.Err() != nil {
			break
		}
		now := glfw.GetTime()
		dt := min(now-last, 0.1)
		last = now

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}
		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			glfw.WaitEventsTimeout(0.1)
			continue
		}
		surf.Resize(fbW, fbH)

		switch {
		case input.JustPressed(window, glfw.KeyTab):
			arena.Auto = !arena.Auto
		case input.JustPressed(window, glfw.KeyF1):
			eng.Profiler().Force(game.TierLow)
		case input.JustPressed(window, glfw.KeyF2):
			eng.Profiler().Force(game.TierMedium)
		case input.JustPressed(window, glfw.KeyF3):
			eng.Profiler().Force(game.TierHigh)
		}
		input.Steer(window, arena, cam.Viewport(fbW, fbH))
		UpdateZoom(&cam, window, dt)
		cam.Follow(arena.Head.X, arena.Head.Y, dt, 4)
		cam.Clamp(cfg.WorldBounds(), fbW, fbH)

		stats := eng.Frame(time.Duration((now - start) * float64(time.Second)))
		if now-lastTitle > 0.5 {
			lastTitle = now
			window.SetTitle(fmt.Sprintf("snakecraft  %s  holding %s  score %d", stats, arena.Head.Holding, arena.Score()))
		}
		if stats.Rendered {
			window.SwapBuffers()
		} else {
			glfw.WaitEventsTimeout(1 / float64(max(eng.Pacer().MaxFPS(), 1)))
		}
	}
	return nil
}
