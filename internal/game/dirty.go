package game

// DirtySet collects screen rectangles that must be cleared before redraw.
type DirtySet struct {
	rects  []Rect
	merged []Rect
}

func (d *DirtySet) Add(r Rect) {
	if r.Empty() || !validPoint(r.X, r.Y) || !validPoint(r.W, r.H) {
		return
	}
	d.rects = append(d.rects, r)
}

func (d *DirtySet) AddAll(rs []Rect) {
	for _, r := range rs {
		d.Add(r)
	}
}

func (d *DirtySet) Len() int { return len(d.rects) }

func (d *DirtySet) Reset() {
	d.rects = d.rects[:0]
}

// Merge clips every rect to bounds and unions overlapping or touching
// rects until the result is pairwise disjoint. The returned slice is
// reused by the next call.
func (d *DirtySet) Merge(bounds Rect) []Rect {
	out := d.merged[:0]
	for _, r := range d.rects {
		if c := r.Clip(bounds); !c.Empty() {
			out = append(out, c)
		}
	}
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); {
				if out[i].Overlaps(out[j]) {
					out[i] = out[i].Union(out[j])
					out[j] = out[len(out)-1]
					out = out[:len(out)-1]
					changed = true
					continue
				}
				j++
			}
		}
	}
	d.merged = out
	return out
}
