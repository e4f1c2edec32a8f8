package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// pt is a minimal indexed entity.
type pt struct {
	id   int
	x, y float64
	r    float64
}

func (p *pt) Position() (float64, float64) { return p.x, p.y }
func (p *pt) Radius() float64              { return p.r }

func randomPoints(n int, w, h float64, seed uint64) []*pt {
	rng := NewRand(seed)
	out := make([]*pt, n)
	for i := range out {
		out[i] = &pt{id: i, x: rng.RangeF(0, w), y: rng.RangeF(0, h), r: rng.RangeF(1, 10)}
	}
	return out
}

func idSet(ps []*pt) map[int]int {
	m := make(map[int]int, len(ps))
	for _, p := range ps {
		m[p.id]++
	}
	return m
}

// ptSource serves a fixed slice to an IndexStage.
type ptSource struct {
	pts []*pt
}

func (s *ptSource) AppendEntities(dst []*pt) []*pt { return append(dst, s.pts...) }

type surfaceOp struct {
	op       string
	resource string
	size     int
	alpha    float64
	rect     Rect
}

// recordSurface logs every call made by the batcher.
type recordSurface struct {
	w, h     int
	ops      []surfaceOp
	presents int
	limit    int
}

func newRecordSurface(w, h int) *recordSurface { return &recordSurface{w: w, h: h} }

func (s *recordSurface) Size() (int, int) { return s.w, s.h }
func (s *recordSurface) Clear()           { s.ops = append(s.ops, surfaceOp{op: "clear"}) }
func (s *recordSurface) ClearRect(r Rect) {
	s.ops = append(s.ops, surfaceOp{op: "clearRect", rect: r})
}
func (s *recordSurface) Bind(resource string, size int, alpha float64) {
	s.ops = append(s.ops, surfaceOp{op: "bind", resource: resource, size: size, alpha: alpha})
}
func (s *recordSurface) Blit(x, y, w, h float64) {
	s.ops = append(s.ops, surfaceOp{op: "blit", rect: Rect{X: x, Y: y, W: w, H: h}})
}
func (s *recordSurface) Present()            { s.presents++ }
func (s *recordSurface) SetCacheLimit(n int) { s.limit = n }

func (s *recordSurface) reset() { s.ops = s.ops[:0] }

func (s *recordSurface) count(op string) int {
	n := 0
	for _, o := range s.ops {
		if o.op == op {
			n++
		}
	}
	return n
}

func (s *recordSurface) binds() []surfaceOp {
	var out []surfaceOp
	for _, o := range s.ops {
		if o.op == "bind" {
			out = append(out, o)
		}
	}
	return out
}

var errNoProbe = errors.New("no probe")

// stubProbes returns fixed signals and counts benchmark runs.
func stubProbes(fps float64, cores int, memGB float64, renderer, platform string, benchRuns *atomic.Int32) Probes {
	return Probes{
		Cores:    func() (int, error) { return cores, nil },
		MemoryGB: func() (float64, error) { return memGB, nil },
		Renderer: func() (string, error) { return renderer, nil },
		Platform: func() (string, error) { return platform, nil },
		Bench: func(context.Context) (float64, error) {
			if benchRuns != nil {
				benchRuns.Add(1)
			}
			return fps, nil
		},
	}
}

func failingProbes() Probes {
	return Probes{
		Cores:    func() (int, error) { return 0, errNoProbe },
		MemoryGB: func() (float64, error) { return 0, errNoProbe },
		Renderer: func() (string, error) { return "", errNoProbe },
		Platform: func() (string, error) { return "", fmt.Errorf("platform: %w", errNoProbe) },
		Bench:    func(context.Context) (float64, error) { return 0, errNoProbe },
	}
}
