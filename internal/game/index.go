package game

// EntitySource supplies the live entities for one simulation step.
type EntitySource[T Entity] interface {
	AppendEntities(dst []T) []T
}

type tracked struct {
	x, y, r float64 // position the grid currently holds
	gen     uint64
}

// IndexStage rebuilds the quadtree every step and keeps the proximity
// grid in sync incrementally.
type IndexStage[T Entity] struct {
	src  EntitySource[T]
	tree *QuadTree[T]
	grid *Grid[T]

	buf      []T
	known    map[T]*tracked
	gen      uint64
	rejected int
	moved    int
}

func NewIndexStage[T Entity](src EntitySource[T], tree *QuadTree[T], grid *Grid[T]) *IndexStage[T] {
	return &IndexStage[T]{
		src:   src,
		tree:  tree,
		grid:  grid,
		known: make(map[T]*tracked),
	}
}

func (s *IndexStage[T]) Phase() Phase { return PhaseIndex }

func (s *IndexStage[T]) Run(*Frame) {
	s.gen++
	s.rejected = 0
	s.moved = 0
	s.buf = s.src.AppendEntities(s.buf[:0])

	s.tree.Clear()
	for _, e := range s.buf {
		if !s.tree.Insert(e) {
			s.rejected++
		}
		x, y := e.Position()
		if !validPoint(x, y) {
			continue
		}
		r := e.Radius()
		t, ok := s.known[e]
		switch {
		case !ok:
			s.grid.Add(e, x, y, r)
			s.known[e] = &tracked{x: x, y: y, r: r, gen: s.gen}
			continue
		case t.r != r:
			s.grid.Remove(e, t.x, t.y, t.r)
			s.grid.Add(e, x, y, r)
			t.x, t.y, t.r = x, y, r
			s.moved++
		case s.grid.Update(e, t.x, t.y, x, y, r):
			t.x, t.y = x, y
			s.moved++
		}
		t.gen = s.gen
	}

	for e, t := range s.known {
		if t.gen != s.gen {
			s.grid.Remove(e, t.x, t.y, t.r)
			delete(s.known, e)
		}
	}
}

// Rejected is the number of entities the quadtree refused last step.
func (s *IndexStage[T]) Rejected() int { return s.rejected }

// Moved is the number of grid relocations last step.
func (s *IndexStage[T]) Moved() int { return s.moved }

// Entities returns the snapshot indexed last step. It is reused.
func (s *IndexStage[T]) Entities() []T { return s.buf }
