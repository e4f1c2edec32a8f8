package game

import "math"

// cellKey packs two signed cell coordinates into one map key.
func cellKey(cx, cy int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}

func unpackCellKey(k uint64) (cx, cy int32) {
	return int32(uint32(k >> 32)), int32(uint32(k))
}

// cellSpan is an inclusive range of cell coordinates.
type cellSpan struct {
	minX, minY int32
	maxX, maxY int32
}

func (s cellSpan) has(cx, cy int32) bool {
	return cx >= s.minX && cx <= s.maxX && cy >= s.minY && cy <= s.maxY
}

// wider reports whether s covers more than n cells.
func (s cellSpan) wider(n int) bool {
	w := int64(s.maxX) - int64(s.minX) + 1
	h := int64(s.maxY) - int64(s.minY) + 1
	return w > int64(n) || h > int64(n) || w*h > int64(n)
}

// Grid is a uniform spatial hash for moving entities. An entity is stored
// in every cell its bounding box overlaps, with the radius capped at
// GridMaxSpan/2 cells: larger entities are found only by queries reaching
// that capped box. Accessed only from the simulation loop, no locks.
type Grid[T comparable] struct {
	cellSize      float64
	inv           float64
	maxRadius     float64
	moveThreshold float64

	cells map[uint64]map[T]struct{}

	// Per-cell member slices, memoised on first query and dropped on any
	// add/remove touching the cell.
	cache     map[uint64][]T
	cacheSize int
	hits      uint64
	misses    uint64

	seen map[T]struct{}
}

func NewGrid[T comparable](cellSize float64, cacheSize int) *Grid[T] {
	if !(cellSize > 0) || !finite(cellSize) {
		cellSize = GridCellSize
	}
	if cacheSize < 0 {
		cacheSize = 0
	}
	return &Grid[T]{
		cellSize:      cellSize,
		inv:           1 / cellSize,
		maxRadius:     cellSize * GridMaxSpan / 2,
		moveThreshold: GridMoveThreshold,
		cells:         make(map[uint64]map[T]struct{}),
		cache:         make(map[uint64][]T, cacheSize),
		cacheSize:     cacheSize,
		seen:          make(map[T]struct{}),
	}
}

func (g *Grid[T]) CellSize() float64 { return g.cellSize }

// SetCacheSize resizes the per-cell query cache. Shrinking drops it.
func (g *Grid[T]) SetCacheSize(n int) {
	n = max(n, 0)
	if n < len(g.cache) {
		clear(g.cache)
	}
	g.cacheSize = n
}

// SetMoveThreshold sets the squared displacement below which Update does nothing.
func (g *Grid[T]) SetMoveThreshold(d2 float64) {
	if d2 >= 0 && finite(d2) {
		g.moveThreshold = d2
	}
}

func (g *Grid[T]) coord(v float64) int32 {
	c := math.Floor(v * g.inv)
	if c < math.MinInt32 {
		return math.MinInt32
	}
	if c > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(c)
}

func (g *Grid[T]) span(x, y, r float64) (cellSpan, bool) {
	if !validPoint(x, y) || !finite(r) {
		return cellSpan{}, false
	}
	if r < 0 {
		r = 0
	}
	return cellSpan{
		minX: g.coord(x - r), minY: g.coord(y - r),
		maxX: g.coord(x + r), maxY: g.coord(y + r),
	}, true
}

// entitySpan is span with the radius capped at maxRadius.
func (g *Grid[T]) entitySpan(x, y, r float64) (cellSpan, bool) {
	if !finite(r) {
		return cellSpan{}, false
	}
	return g.span(x, y, min(r, g.maxRadius))
}

// Add puts e into every cell overlapped by (x±r, y±r).
func (g *Grid[T]) Add(e T, x, y, r float64) {
	s, ok := g.entitySpan(x, y, r)
	if !ok {
		return
	}
	g.addSpan(e, s, cellSpan{minX: 1, maxX: 0})
}

// Remove takes e out of every cell overlapped by (x±r, y±r). The position
// and radius must be the ones e was added with.
func (g *Grid[T]) Remove(e T, x, y, r float64) {
	s, ok := g.entitySpan(x, y, r)
	if !ok {
		return
	}
	g.removeSpan(e, s, cellSpan{minX: 1, maxX: 0})
}

// Update moves e from its old to its new position. It is a no-op, returning
// false, when the squared displacement is below the move threshold.
func (g *Grid[T]) Update(e T, oldX, oldY, newX, newY, r float64) bool {
	dx := newX - oldX
	dy := newY - oldY
	if dx*dx+dy*dy < g.moveThreshold {
		return false
	}
	oldSpan, okOld := g.entitySpan(oldX, oldY, r)
	newSpan, okNew := g.entitySpan(newX, newY, r)
	switch {
	case okOld && okNew:
		if oldSpan == newSpan {
			return true
		}
		g.removeSpan(e, oldSpan, newSpan)
		g.addSpan(e, newSpan, oldSpan)
	case okOld:
		g.removeSpan(e, oldSpan, cellSpan{minX: 1, maxX: 0})
	case okNew:
		g.addSpan(e, newSpan, cellSpan{minX: 1, maxX: 0})
	}
	return true
}

// addSpan inserts e into the cells of s that are not in skip.
func (g *Grid[T]) addSpan(e T, s, skip cellSpan) {
	for iy := int64(s.minY); iy <= int64(s.maxY); iy++ {
		for ix := int64(s.minX); ix <= int64(s.maxX); ix++ {
			cx, cy := int32(ix), int32(iy)
			if skip.has(cx, cy) {
				continue
			}
			k := cellKey(cx, cy)
			cell := g.cells[k]
			if cell == nil {
				cell = make(map[T]struct{})
				g.cells[k] = cell
			}
			cell[e] = struct{}{}
			delete(g.cache, k)
		}
	}
}

// removeSpan deletes e from the cells of s that are not in keep.
func (g *Grid[T]) removeSpan(e T, s, keep cellSpan) {
	for iy := int64(s.minY); iy <= int64(s.maxY); iy++ {
		for ix := int64(s.minX); ix <= int64(s.maxX); ix++ {
			cx, cy := int32(ix), int32(iy)
			if keep.has(cx, cy) {
				continue
			}
			k := cellKey(cx, cy)
			cell := g.cells[k]
			if cell != nil {
				delete(cell, e)
				if len(cell) == 0 {
					delete(g.cells, k)
				}
			}
			delete(g.cache, k)
		}
	}
}

// Nearby returns every entity stored in a cell overlapped by (x±r, y±r).
// Broad phase only: callers apply their own distance test.
func (g *Grid[T]) Nearby(x, y, r float64) []T {
	return g.AppendNearby(nil, x, y, r)
}

// AppendNearby is Nearby appending to dst.
func (g *Grid[T]) AppendNearby(dst []T, x, y, r float64) []T {
	s, ok := g.span(x, y, r)
	if !ok {
		return dst
	}
	clear(g.seen)
	if s.wider(len(g.cells)) {
		// Fewer occupied cells than the range covers: walk those instead.
		for k := range g.cells {
			if cx, cy := unpackCellKey(k); s.has(cx, cy) {
				dst = g.appendCell(dst, k)
			}
		}
		return dst
	}
	for iy := int64(s.minY); iy <= int64(s.maxY); iy++ {
		for ix := int64(s.minX); ix <= int64(s.maxX); ix++ {
			dst = g.appendCell(dst, cellKey(int32(ix), int32(iy)))
		}
	}
	return dst
}

func (g *Grid[T]) appendCell(dst []T, k uint64) []T {
	for _, e := range g.members(k) {
		if _, dup := g.seen[e]; dup {
			continue
		}
		g.seen[e] = struct{}{}
		dst = append(dst, e)
	}
	return dst
}

func (g *Grid[T]) members(k uint64) []T {
	cell := g.cells[k]
	if len(cell) == 0 {
		return nil
	}
	if g.cacheSize == 0 {
		g.misses++
		out := make([]T, 0, len(cell))
		for e := range cell {
			out = append(out, e)
		}
		return out
	}
	if m, ok := g.cache[k]; ok {
		g.hits++
		return m
	}
	g.misses++
	if len(g.cache) >= g.cacheSize {
		clear(g.cache)
	}
	m := make([]T, 0, len(cell))
	for e := range cell {
		m = append(m, e)
	}
	g.cache[k] = m
	return m
}

// Clear drops every entity and cached cell.
func (g *Grid[T]) Clear() {
	clear(g.cells)
	clear(g.cache)
}

// Len returns the number of distinct entities in the grid.
func (g *Grid[T]) Len() int {
	clear(g.seen)
	for _, cell := range g.cells {
		for e := range cell {
			g.seen[e] = struct{}{}
		}
	}
	return len(g.seen)
}

// CellCount returns the number of non-empty cells.
func (g *Grid[T]) CellCount() int { return len(g.cells) }

// Cells calls fn with the world rectangle and population of every non-empty cell.
func (g *Grid[T]) Cells(fn func(bounds Rect, n int)) {
	for k, cell := range g.cells {
		cx, cy := unpackCellKey(k)
		fn(Rect{
			X: float64(cx) * g.cellSize,
			Y: float64(cy) * g.cellSize,
			W: g.cellSize,
			H: g.cellSize,
		}, len(cell))
	}
}

// CacheStats returns cell cache hits and misses since creation.
func (g *Grid[T]) CacheStats() (hits, misses uint64) {
	return g.hits, g.misses
}

// Contains reports whether e is stored in the cell containing (x, y).
func (g *Grid[T]) Contains(e T, x, y float64) bool {
	if !validPoint(x, y) {
		return false
	}
	_, ok := g.cells[cellKey(g.coord(x), g.coord(y))][e]
	return ok
}
