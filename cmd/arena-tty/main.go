package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"snakecraft/internal/game"
)

// Terminal view: one cell covers this many world units.
const cellWorld = 20.0

// Orbs at effect density 1; a terminal shows far fewer pixels than a window.
const ttyOrbs = 400

// Headless image size for -png.
const (
	pngWidth  = 640
	pngHeight = 400
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	headless := flag.Bool("headless", false, "run on a simulated screen and log stats")
	frames := flag.Int("frames", 600, "frames to run in headless mode")
	pngOut := flag.String("png", "", "headless: render to an image and write the last frame to this file")
	flag.Parse()

	cfg, err := game.LoadConfig(os.Getenv("SNAKECRAFT_CONFIG"))
	if err != nil {
		return err
	}
	if *headless {
		// The console encoder would fight the terminal otherwise.
		cfg.Logging.Format = "json"
	}
	log, err := game.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var screen tcell.Screen
	if *headless {
		screen = tcell.NewSimulationScreen("UTF-8")
	} else if screen, err = tcell.NewScreen(); err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	if *headless {
		screen.SetSize(120, 40)
	} else {
		// Keep the tty clean; logs go nowhere while the screen is up.
		log = zap.NewNop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed := uint64(time.Now().UnixNano())
	if s := os.Getenv("SNAKECRAFT_SEED"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			seed = v
		}
	}

	var (
		surf game.Surface
		img  *game.ImageSurface
	)
	if *headless && *pngOut != "" {
		img = game.NewImageSurface(pngWidth, pngHeight, cfg.Render.SpriteCacheSize)
		surf = img
	} else {
		surf = game.NewTermSurface(screen, cfg.Render.SpriteCacheSize)
	}
	arena := game.NewArena(cfg.WorldBounds(), 0, seed)
	eng, err := game.NewEngine(ctx, game.EngineOptions[*game.Orb]{
		Config:  cfg,
		Logger:  log,
		Surface: surf,
		Source:  arena,
	})
	if err != nil {
		return err
	}
	arena.Populate(int(ttyOrbs * eng.Quality().EffectDensity))
	arena.Attach(eng)
	eng.Bus().Subscribe(game.EventTierChanged, func(ev game.Event) {
		arena.Populate(int(ttyOrbs * eng.Profiler().Table().Settings(ev.Tier).EffectDensity))
	})

	cam := game.NewCamera(cfg.WorldBounds())
	if img == nil {
		cam.Zoom = 1 / cellWorld
	}
	eng.SetView(func() game.Viewport { return cam.Viewport(surf.Size()) })

	if *headless {
		if err := runHeadless(eng, arena, &cam, *frames, log); err != nil {
			return err
		}
		if img != nil {
			return writePNG(*pngOut, img, log)
		}
		return nil
	}
	return runInteractive(ctx, screen, eng, arena, &cam)
}

// runHeadless drives the engine with a simulated 60 Hz clock.
func runHeadless(eng *game.Engine[*game.Orb], arena *game.Arena, cam *game.Camera, frames int, log *zap.Logger) error {
	const tick = time.Second / 60
	var stats game.FrameStats
	for i := 0; i <= frames; i++ {
		cam.Follow(arena.Head.X, arena.Head.Y, tick.Seconds(), 4)
		stats = eng.Frame(time.Duration(i) * tick)
	}
	log.Info("headless run finished",
		zap.Int("frames", frames),
		zap.Stringer("stats", stats),
		zap.Int("score", arena.Score()),
		zap.Strings("crafted", arena.Crafted),
	)
	return nil
}

func runInteractive(ctx context.Context, screen tcell.Screen, eng *game.Engine[*game.Orb], arena *game.Arena, cam *game.Camera) error {
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(eng.Pacer().MaxFPS(), 1)))
	defer ticker.Stop()

	start := time.Now()
	last := start
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if quit := handleKey(ev, arena); quit {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				eng.Batcher().Invalidate()
			}
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			cam.Follow(arena.Head.X, arena.Head.Y, dt, 4)
			stats := eng.Frame(now.Sub(start))
			drawStatus(screen, stats, arena)
		}
	}
}

func handleKey(ev *tcell.EventKey, arena *game.Arena) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		arena.Steer(-math.Pi / 2)
	case tcell.KeyDown:
		arena.Steer(math.Pi / 2)
	case tcell.KeyLeft:
		arena.Steer(math.Pi)
	case tcell.KeyRight:
		arena.Steer(0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case ' ':
			arena.ReleaseSteer()
		case 'a':
			arena.Auto = !arena.Auto
		}
	}
	return false
}

// drawStatus writes the stats line over the bottom row.
func drawStatus(screen tcell.Screen, stats game.FrameStats, arena *game.Arena) {
	w, h := screen.Size()
	line := fmt.Sprintf(" %s  holding %s  score %d ", stats, arena.Head.Holding, arena.Score())
	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range line {
		if x >= w {
			break
		}
		screen.SetContent(x, h-1, r, nil, style)
		x++
	}
	screen.Show()
}

func writePNG(path string, img *game.ImageSurface, log *zap.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	if err := png.Encode(f, img.Image()); err != nil {
		f.Close()
		return fmt.Errorf("png %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("png %s: %w", path, err)
	}
	log.Info("frame written", zap.String("path", path), zap.Int("presents", img.Presents))
	return nil
}
