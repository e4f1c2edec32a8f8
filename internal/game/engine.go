package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var errNilSurface = errors.New("nil surface")

// EngineOptions wires an Engine. Only Surface and Source are required.
type EngineOptions[T Entity] struct {
	Config  *Config
	Logger  *zap.Logger
	Bus     *EventBus
	Probes  *Probes // nil uses DefaultProbes
	Table   *QualityTable
	Surface Surface
	Source  EntitySource[T]
}

// Engine owns every per-process piece of the arena core. Nothing here is
// global; hosts hold the engine and pass it where it is needed.
type Engine[T Entity] struct {
	cfg      *Config
	log      *zap.Logger
	bus      *EventBus
	profiler *DeviceProfiler
	quality  QualitySettings

	pacer    *FramePacer
	tree     *QuadTree[T]
	grid     *Grid[T]
	batcher  *RenderBatcher
	pipeline *Pipeline
	index    *IndexStage[T]

	view  func() Viewport
	frame Frame
	now   time.Duration
	stats FrameStats
}

func NewEngine[T Entity](ctx context.Context, opts EngineOptions[T]) (*Engine[T], error) {
	if opts.Surface == nil {
		return nil, fmt.Errorf("new engine: %w", errNilSurface)
	}
	if opts.Source == nil {
		return nil, errors.New("new engine: nil entity source")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	bus := opts.Bus
	if bus == nil {
		bus = NewEventBus()
	}
	probes := DefaultProbes(cfg.Profile.BenchFrames)
	if opts.Probes != nil {
		probes = *opts.Probes
	}

	e := &Engine[T]{
		cfg:      cfg,
		log:      log,
		bus:      bus,
		profiler: NewDeviceProfiler(probes, opts.Table, log.Named("profile"), bus),
		pipeline: NewPipeline(),
	}

	switch {
	case cfg.Profile.ForceTier != "":
		t, err := ParseTier(cfg.Profile.ForceTier)
		if err != nil {
			return nil, fmt.Errorf("new engine: %w", err)
		}
		e.profiler.Force(t)
	case cfg.Profile.ForceScore > 0:
		e.profiler.ForceScore(cfg.Profile.ForceScore)
	default:
		e.profiler.Detect(ctx)
	}
	e.quality = e.profiler.QualitySettings()

	cellCache := cfg.Spatial.CellCacheSize
	if cellCache <= 0 {
		cellCache = e.quality.CellCacheSize
	}
	e.tree = NewQuadTree[T](cfg.WorldBounds(), cfg.Spatial.QuadCapacity, cfg.Spatial.QuadMaxDepth)
	e.grid = NewGrid[T](cfg.Spatial.CellSize, cellCache)
	e.grid.SetMoveThreshold(cfg.Spatial.MoveThreshold)
	e.pacer = NewFramePacer(e.quality.TargetFPS, cfg.Pacer, log.Named("pacer"), bus)
	e.batcher = NewRenderBatcher(opts.Surface, BatcherConfigFor(e.quality, cfg.Render), log.Named("render"), bus)
	e.sizeSpriteCache()
	e.index = NewIndexStage(opts.Source, e.tree, e.grid)
	e.pipeline.Register(e.index)

	e.frame.Batcher = e.batcher
	e.view = e.fitWorld
	e.profiler.OnChange(func(_ Tier, q QualitySettings) { e.applyQuality(q) })

	log.Info("engine ready",
		zap.Stringer("tier", e.profiler.Tier()),
		zap.Int("target_fps", e.quality.TargetFPS),
		zap.Duration("step", e.pacer.FixedTimestep()),
		zap.Int("cell_cache", cellCache),
		zap.Int("quad_capacity", e.tree.Capacity()),
		zap.Int("quad_max_depth", e.tree.MaxDepth()),
	)
	return e, nil
}

// applyQuality swaps tier-derived settings after a forced tier change.
// The simulation step follows the new target from the next callback on;
// unsimulated time carries over.
func (e *Engine[T]) applyQuality(q QualitySettings) {
	e.quality = q
	e.batcher.Configure(BatcherConfigFor(q, e.cfg.Render))
	e.batcher.Invalidate()
	e.sizeSpriteCache()
	if e.cfg.Spatial.CellCacheSize <= 0 {
		e.grid.SetCacheSize(q.CellCacheSize)
	}
	acc := e.pacer.State().Accumulator
	e.pacer = NewFramePacer(q.TargetFPS, e.cfg.Pacer, e.log.Named("pacer"), e.bus)
	e.pacer.Resume(e.now, acc)
}

// sizeSpriteCache applies the configured or tier sprite cache size.
func (e *Engine[T]) sizeSpriteCache() {
	cs, ok := e.batcher.Surface().(CacheSizer)
	if !ok {
		return
	}
	n := e.cfg.Render.SpriteCacheSize
	if n <= 0 {
		n = e.quality.SpriteCacheSize
	}
	cs.SetCacheLimit(n)
}

// Register adds a stage to the per-frame pipeline.
func (e *Engine[T]) Register(s Stage) { e.pipeline.Register(s) }

// SetView sets the camera used for culling. The default fits the world
// to the surface.
func (e *Engine[T]) SetView(fn func() Viewport) {
	if fn == nil {
		fn = e.fitWorld
	}
	e.view = fn
}

func (e *Engine[T]) fitWorld() Viewport {
	w, h := e.batcher.Surface().Size()
	b := e.cfg.WorldBounds()
	zoom := 1.0
	if b.W > 0 && b.H > 0 && w > 0 && h > 0 {
		zoom = min(float64(w)/b.W, float64(h)/b.H)
	}
	return Viewport{X: b.X + b.W*0.5, Y: b.Y + b.H*0.5, Zoom: zoom, Width: w, Height: h}
}

// Frame advances the engine to now: fixed simulation steps through the
// index, query and resolve phases, then draw and flush when the pacer
// allows a render.
func (e *Engine[T]) Frame(now time.Duration) FrameStats {
	e.now = now
	res := e.pacer.Update(now)
	step := e.pacer.FixedTimestep()

	for i := 0; i < res.UpdateCount; i++ {
		e.frame.Tick++
		e.frame.Step = i
		e.frame.Dt = step
		e.pipeline.RunStep(&e.frame)
	}

	s := FrameStats{
		FPS:         e.pacer.CurrentFPS(),
		TargetFPS:   e.pacer.TargetFPS(),
		Mode:        res.Mode,
		Tier:        e.profiler.Tier(),
		UpdateCount: res.UpdateCount,
		Alpha:       res.Alpha,
		Rendered:    res.ShouldRender,
		Entities:    e.tree.Len(),
	}
	if res.ShouldRender {
		view := e.view()
		e.frame.Alpha = res.Alpha
		e.frame.View = view
		e.frame.Dt = step
		e.batcher.BeginFrame(view, res.Alpha)
		e.pipeline.RunPhase(PhaseDraw, &e.frame)
		rs := e.batcher.Flush()
		s.DrawCalls = rs.DrawCalls
		s.Instances = rs.Instances
		s.Culled = rs.Culled
		s.DirtyRects = rs.DirtyRects
	} else {
		// Skipped frames report the last flush.
		rs := e.batcher.Stats()
		s.DrawCalls = rs.DrawCalls
		s.Instances = rs.Instances
		s.Culled = rs.Culled
		s.DirtyRects = rs.DirtyRects
	}
	s.CacheHitRate = e.batcher.CacheStats().HitRate()
	e.stats = s
	return s
}

// Stats returns the snapshot of the last Frame call.
func (e *Engine[T]) Stats() FrameStats { return e.stats }

func (e *Engine[T]) Config() *Config           { return e.cfg }
func (e *Engine[T]) Logger() *zap.Logger       { return e.log }
func (e *Engine[T]) Bus() *EventBus            { return e.bus }
func (e *Engine[T]) Profiler() *DeviceProfiler { return e.profiler }
func (e *Engine[T]) Quality() QualitySettings  { return e.quality }
func (e *Engine[T]) Pacer() *FramePacer        { return e.pacer }
func (e *Engine[T]) Tree() *QuadTree[T]        { return e.tree }
func (e *Engine[T]) Grid() *Grid[T]            { return e.grid }
func (e *Engine[T]) Batcher() *RenderBatcher   { return e.batcher }
func (e *Engine[T]) Index() *IndexStage[T]     { return e.index }
