package game

import (
	"cmp"
	"math"
	"slices"

	"go.uber.org/zap"
)

// Surface is the drawing target the batcher flushes into. Bind selects a
// resource at a pixel size and alpha; every Blit until the next Bind draws
// that resource into the given screen rectangle.
type Surface interface {
	Size() (w, h int)
	Clear()
	ClearRect(r Rect)
	Bind(resource string, size int, alpha float64)
	Blit(x, y, w, h float64)
	Present()
}

// CacheReporter is implemented by surfaces that cache rendered resources.
type CacheReporter interface {
	CacheStats() CacheStats
}

// CacheSizer is implemented by surfaces whose resource cache can be resized.
type CacheSizer interface {
	SetCacheLimit(n int)
}

// BatchKey groups instances that can share one bind.
type BatchKey struct {
	Resource string
	Size     int // rounded screen pixels
	Alpha    int // bucket index, 1..AlphaBuckets
}

// Instance is a queued draw in screen space.
type Instance struct {
	X, Y, W, H float64
}

type renderBatch struct {
	key   BatchKey
	items []Instance
}

// RenderStats reports the last flushed frame. Frames and FullClears are
// totals since construction.
type RenderStats struct {
	Frames     uint64
	DrawCalls  int
	Instances  int
	Culled     int
	DirtyRects int
	FullClears uint64
}

type BatcherConfig struct {
	CullMargin     float64
	DirtyThreshold int
	AlphaBuckets   int
}

// BatcherConfigFor merges render overrides over the tier defaults.
func BatcherConfigFor(q QualitySettings, rc RenderConfig) BatcherConfig {
	bc := BatcherConfig{
		CullMargin:     q.CullMargin,
		DirtyThreshold: q.DirtyThreshold,
		AlphaBuckets:   rc.AlphaBuckets,
	}
	if rc.CullMargin > 0 {
		bc.CullMargin = rc.CullMargin
	}
	if rc.DirtyThreshold > 0 {
		bc.DirtyThreshold = rc.DirtyThreshold
	}
	return bc
}

// RenderBatcher culls, groups and draws sprite instances, clearing only
// the screen regions that changed since the previous flush.
type RenderBatcher struct {
	surf Surface
	log  *zap.Logger
	bus  *EventBus
	cfg  BatcherConfig

	view  Viewport
	cull  Rect
	alpha float64

	batches map[BatchKey]*renderBatch
	order   []*renderBatch
	pool    []*renderBatch

	dirty    DirtySet
	prev     []Rect
	cur      []Rect
	needFull bool

	culled int
	stats  RenderStats
}

func NewRenderBatcher(surf Surface, cfg BatcherConfig, log *zap.Logger, bus *EventBus) *RenderBatcher {
	if cfg.CullMargin < 0 {
		cfg.CullMargin = 0
	}
	if cfg.DirtyThreshold <= 0 {
		cfg.DirtyThreshold = DirtyThreshold
	}
	if cfg.AlphaBuckets <= 0 {
		cfg.AlphaBuckets = AlphaBuckets
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RenderBatcher{
		surf:     surf,
		log:      log,
		bus:      bus,
		cfg:      cfg,
		batches:  make(map[BatchKey]*renderBatch),
		needFull: true,
	}
}

// Configure swaps thresholds, e.g. after a tier change.
func (b *RenderBatcher) Configure(cfg BatcherConfig) {
	if cfg.CullMargin >= 0 {
		b.cfg.CullMargin = cfg.CullMargin
	}
	if cfg.DirtyThreshold > 0 {
		b.cfg.DirtyThreshold = cfg.DirtyThreshold
	}
	if cfg.AlphaBuckets > 0 {
		b.cfg.AlphaBuckets = cfg.AlphaBuckets
	}
}

func (b *RenderBatcher) Config() BatcherConfig { return b.cfg }
func (b *RenderBatcher) Surface() Surface      { return b.surf }

// BeginFrame starts a new frame. alpha is the pacer's interpolation factor
// used by QueueInterpolated.
func (b *RenderBatcher) BeginFrame(view Viewport, alpha float64) {
	for _, rb := range b.order {
		rb.items = rb.items[:0]
		b.pool = append(b.pool, rb)
	}
	b.order = b.order[:0]
	clear(b.batches)
	b.dirty.Reset()
	b.cur = b.cur[:0]
	b.culled = 0

	b.view = view
	b.cull = view.Padded(b.cfg.CullMargin)
	b.alpha = clampF(alpha, 0, 1)
	b.stats.Frames++
}

// Invalidate forces the next flush to clear the whole surface.
func (b *RenderBatcher) Invalidate() { b.needFull = true }

// MarkDirty adds a screen rectangle to clear on the next flush.
func (b *RenderBatcher) MarkDirty(r Rect) { b.dirty.Add(r) }

func (b *RenderBatcher) alphaBucket(a float64) int {
	if !(a > 0) {
		return 0
	}
	n := b.cfg.AlphaBuckets
	return clamp(int(math.Round(math.Min(a, 1)*float64(n))), 1, n)
}

// Queue adds one instance of resource centred at world (x, y) with world
// size. It returns false when the instance is culled or invisible.
func (b *RenderBatcher) Queue(resource string, x, y, size, alpha float64) bool {
	if !validPoint(x, y) || !finite(size) || size <= 0 {
		b.culled++
		return false
	}
	fp := b.view.ScreenRect(x, y, size)
	if !fp.Intersects(b.cull) {
		b.culled++
		return false
	}
	bucket := b.alphaBucket(alpha)
	if bucket == 0 {
		return false
	}
	key := BatchKey{
		Resource: resource,
		Size:     max(1, int(math.Round(fp.W))),
		Alpha:    bucket,
	}
	rb, ok := b.batches[key]
	if !ok {
		if n := len(b.pool); n > 0 {
			rb = b.pool[n-1]
			b.pool = b.pool[:n-1]
		} else {
			rb = &renderBatch{}
		}
		rb.key = key
		b.batches[key] = rb
		b.order = append(b.order, rb)
	}
	rb.items = append(rb.items, Instance{X: fp.X, Y: fp.Y, W: fp.W, H: fp.H})
	b.cur = append(b.cur, fp)
	return true
}

// QueueInterpolated queues at the position blended between the previous
// and current simulation step by the frame alpha.
func (b *RenderBatcher) QueueInterpolated(resource string, prevX, prevY, x, y, size, alpha float64) bool {
	return b.Queue(resource, lerp(prevX, x, b.alpha), lerp(prevY, y, b.alpha), size, alpha)
}

// Pending is the number of instances queued this frame.
func (b *RenderBatcher) Pending() int { return len(b.cur) }

// Flush clears dirty regions, draws every batch and presents.
func (b *RenderBatcher) Flush() RenderStats {
	w, h := b.surf.Size()
	bounds := Rect{W: float64(w), H: float64(h)}

	b.dirty.AddAll(b.prev)
	b.dirty.AddAll(b.cur)
	raw := b.dirty.Len()

	full := b.needFull || raw > 4*b.cfg.DirtyThreshold
	var merged []Rect
	if !full {
		merged = b.dirty.Merge(bounds)
		full = len(merged) > b.cfg.DirtyThreshold
	}
	if full {
		b.surf.Clear()
		b.stats.FullClears++
		b.stats.DirtyRects = 1
		if !b.needFull {
			b.log.Debug("dirty rect fallback", zap.Int("rects", raw), zap.Int("threshold", b.cfg.DirtyThreshold))
			b.bus.Emit(Event{Type: EventFullClear, Data: raw})
		}
		b.needFull = false
	} else {
		for _, r := range merged {
			b.surf.ClearRect(r)
		}
		b.stats.DirtyRects = len(merged)
	}

	slices.SortFunc(b.order, func(x, y *renderBatch) int {
		if c := cmp.Compare(x.key.Resource, y.key.Resource); c != 0 {
			return c
		}
		if c := cmp.Compare(y.key.Alpha, x.key.Alpha); c != 0 {
			return c
		}
		return cmp.Compare(x.key.Size, y.key.Size)
	})

	n := 0
	for _, rb := range b.order {
		a := float64(rb.key.Alpha) / float64(b.cfg.AlphaBuckets)
		b.surf.Bind(rb.key.Resource, rb.key.Size, a)
		for _, in := range rb.items {
			b.surf.Blit(in.X, in.Y, in.W, in.H)
		}
		n += len(rb.items)
	}
	b.surf.Present()

	b.stats.DrawCalls = len(b.order)
	b.stats.Instances = n
	b.stats.Culled = b.culled

	b.prev, b.cur = b.cur, b.prev[:0]
	b.dirty.Reset()
	return b.stats
}

func (b *RenderBatcher) Stats() RenderStats { return b.stats }

// CacheStats forwards the surface's resource cache counters, if any.
func (b *RenderBatcher) CacheStats() CacheStats {
	if cr, ok := b.surf.(CacheReporter); ok {
		return cr.CacheStats()
	}
	return CacheStats{}
}
