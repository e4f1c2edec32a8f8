package game

// box is a node boundary stored by its edges so that sibling nodes share
// exactly the same split coordinate.
type box struct {
	X0, Y0 float64
	X1, Y1 float64
}

func boxOf(r Rect) box {
	return box{X0: r.X, Y0: r.Y, X1: r.X + r.W, Y1: r.Y + r.H}
}

func (b box) rect() Rect {
	return Rect{X: b.X0, Y: b.Y0, W: b.X1 - b.X0, H: b.Y1 - b.Y0}
}

func (b box) contains(x, y float64) bool {
	return x >= b.X0 && x < b.X1 && y >= b.Y0 && y < b.Y1
}

// Child slots.
const (
	quadNW = iota
	quadNE
	quadSW
	quadSE
)

type quadNode[T Positioned] struct {
	bounds box
	depth  int
	items  []T
	child  [4]*quadNode[T]
}

func (n *quadNode[T]) divided() bool { return n.child[0] != nil }

func (n *quadNode[T]) quadrant(x, y float64) int {
	mx := (n.bounds.X0 + n.bounds.X1) * 0.5
	my := (n.bounds.Y0 + n.bounds.Y1) * 0.5
	q := quadNW
	if x >= mx {
		q = quadNE
	}
	if y >= my {
		q += 2
	}
	return q
}

// QuadTree indexes entity points for range and radius queries.
// It is rebuilt every simulation step: Clear, then Insert everything again.
type QuadTree[T Positioned] struct {
	root     *quadNode[T]
	bounds   box
	capacity int
	maxDepth int
	count    int

	free  []*quadNode[T]
	stack []*quadNode[T]
}

func NewQuadTree[T Positioned](bounds Rect, capacity, maxDepth int) *QuadTree[T] {
	if capacity <= 0 {
		capacity = QuadCapacity
	}
	if maxDepth < 0 {
		maxDepth = QuadMaxDepth
	}
	t := &QuadTree[T]{
		bounds:   boxOf(bounds),
		capacity: capacity,
		maxDepth: maxDepth,
	}
	t.root = t.newNode(t.bounds, 0)
	return t
}

func (t *QuadTree[T]) newNode(b box, depth int) *quadNode[T] {
	if n := len(t.free); n > 0 {
		node := t.free[n-1]
		t.free = t.free[:n-1]
		node.bounds = b
		node.depth = depth
		return node
	}
	return &quadNode[T]{
		bounds: b,
		depth:  depth,
		items:  make([]T, 0, t.capacity),
	}
}

func (t *QuadTree[T]) Bounds() Rect  { return t.bounds.rect() }
func (t *QuadTree[T]) Len() int      { return t.count }
func (t *QuadTree[T]) Capacity() int { return t.capacity }
func (t *QuadTree[T]) MaxDepth() int { return t.maxDepth }

// Insert adds e at its current position. It returns false, without
// touching the tree, when the position is not finite or lies outside the
// root boundary.
func (t *QuadTree[T]) Insert(e T) bool {
	x, y := e.Position()
	if !validPoint(x, y) || !t.bounds.contains(x, y) {
		return false
	}
	t.insert(t.root, e, x, y)
	t.count++
	return true
}

func (t *QuadTree[T]) insert(n *quadNode[T], e T, x, y float64) {
	for n.divided() {
		n = n.child[n.quadrant(x, y)]
	}
	n.items = append(n.items, e)
	if len(n.items) <= t.capacity || n.depth >= t.maxDepth {
		return
	}

	t.subdivide(n)
	for _, it := range n.items {
		ix, iy := it.Position()
		c := n.child[n.quadrant(ix, iy)]
		t.insert(c, it, ix, iy)
	}
	clear(n.items)
	n.items = n.items[:0]
}

func (t *QuadTree[T]) subdivide(n *quadNode[T]) {
	b := n.bounds
	mx := (b.X0 + b.X1) * 0.5
	my := (b.Y0 + b.Y1) * 0.5
	d := n.depth + 1
	n.child[quadNW] = t.newNode(box{X0: b.X0, Y0: b.Y0, X1: mx, Y1: my}, d)
	n.child[quadNE] = t.newNode(box{X0: mx, Y0: b.Y0, X1: b.X1, Y1: my}, d)
	n.child[quadSW] = t.newNode(box{X0: b.X0, Y0: my, X1: mx, Y1: b.Y1}, d)
	n.child[quadSE] = t.newNode(box{X0: mx, Y0: my, X1: b.X1, Y1: b.Y1}, d)
}

// Query returns every entity whose point lies in r.
func (t *QuadTree[T]) Query(r Rect) []T {
	return t.AppendQuery(nil, r)
}

// AppendQuery is Query appending to dst.
func (t *QuadTree[T]) AppendQuery(dst []T, r Rect) []T {
	if !validPoint(r.X, r.Y) || !validPoint(r.W, r.H) || r.Empty() {
		return dst
	}
	rx1, ry1 := r.MaxX(), r.MaxY()
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		n := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		b := n.bounds
		if !(r.X < b.X1 && rx1 > b.X0 && r.Y < b.Y1 && ry1 > b.Y0) {
			continue
		}
		for _, it := range n.items {
			x, y := it.Position()
			if r.Contains(x, y) {
				dst = append(dst, it)
			}
		}
		if n.divided() {
			t.stack = append(t.stack, n.child[:]...)
		}
	}
	return dst
}

// QueryRadius returns every entity within distance r of (x, y), edge included.
func (t *QuadTree[T]) QueryRadius(x, y, r float64) []T {
	return t.AppendQueryRadius(nil, x, y, r)
}

// AppendQueryRadius is QueryRadius appending to dst. The broad phase walks
// the closed bounding square of the circle, the narrow phase compares
// squared distances.
func (t *QuadTree[T]) AppendQueryRadius(dst []T, x, y, r float64) []T {
	if !validPoint(x, y) || !finite(r) || r < 0 {
		return dst
	}
	minX, maxX := x-r, x+r
	minY, maxY := y-r, y+r
	r2 := r * r
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		n := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		b := n.bounds
		if !(minX < b.X1 && maxX >= b.X0 && minY < b.Y1 && maxY >= b.Y0) {
			continue
		}
		for _, it := range n.items {
			ix, iy := it.Position()
			dx := ix - x
			dy := iy - y
			if dx*dx+dy*dy <= r2 {
				dst = append(dst, it)
			}
		}
		if n.divided() {
			t.stack = append(t.stack, n.child[:]...)
		}
	}
	return dst
}

// Clear empties the tree back to a single root node. Child nodes are kept
// on a free list for the next rebuild.
func (t *QuadTree[T]) Clear() {
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		n := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		clear(n.items)
		n.items = n.items[:0]
		if n.divided() {
			t.stack = append(t.stack, n.child[:]...)
			for i := range n.child {
				t.free = append(t.free, n.child[i])
				n.child[i] = nil
			}
		}
	}
	t.count = 0
}

// Depth returns the depth of the deepest node (0 for an undivided root).
func (t *QuadTree[T]) Depth() int {
	deepest := 0
	t.visit(func(n *quadNode[T]) {
		if n.depth > deepest {
			deepest = n.depth
		}
	})
	return deepest
}

// NodeCount returns the number of live nodes.
func (t *QuadTree[T]) NodeCount() int {
	count := 0
	t.visit(func(*quadNode[T]) { count++ })
	return count
}

// Nodes calls fn with the boundary, depth and direct item count of every node.
// Used by debug overlays.
func (t *QuadTree[T]) Nodes(fn func(bounds Rect, depth, items int)) {
	t.visit(func(n *quadNode[T]) { fn(n.bounds.rect(), n.depth, len(n.items)) })
}

func (t *QuadTree[T]) visit(fn func(n *quadNode[T])) {
	t.stack = append(t.stack[:0], t.root)
	for len(t.stack) > 0 {
		n := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		fn(n)
		if n.divided() {
			t.stack = append(t.stack, n.child[:]...)
		}
	}
}
