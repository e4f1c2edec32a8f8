package game

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"golang.org/x/image/vector"
)

// Benchmark workload. Fixed so detection cannot stall startup.
const (
	BenchFrames      = 12
	BenchSurface     = 256
	BenchRectsFrame  = 48
	BenchArcsFrame   = 24
	BenchLabelsFrame = 12
	BenchMaxFPS      = 120.0
)

// Benchmark estimates achievable frame rate by timing a fixed number of
// fill, arc and text operations on an offscreen surface.
type Benchmark struct {
	Frames int
	Now    func() time.Time
}

func NewBenchmark(frames int) *Benchmark {
	if frames <= 0 {
		frames = BenchFrames
	}
	return &Benchmark{Frames: frames, Now: time.Now}
}

// Run returns the estimated frames per second, capped at BenchMaxFPS.
func (b *Benchmark) Run(ctx context.Context) (float64, error) {
	now := b.Now
	if now == nil {
		now = time.Now
	}
	dst := image.NewRGBA(image.Rect(0, 0, BenchSurface, BenchSurface))
	z := vector.NewRasterizer(BenchSurface, BenchSurface)
	rng := NewRand(0xBE4C)

	start := now()
	for f := 0; f < b.Frames; f++ {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("benchmark: %w", err)
		}
		benchFrame(dst, z, rng)
	}
	elapsed := now().Sub(start)
	if elapsed <= 0 {
		return BenchMaxFPS, nil
	}
	fps := float64(b.Frames) / elapsed.Seconds()
	if fps > BenchMaxFPS {
		fps = BenchMaxFPS
	}
	return fps, nil
}

func benchFrame(dst *image.RGBA, z *vector.Rasterizer, rng *Rand) {
	fillRect(dst, dst.Bounds(), color.RGBA{R: 12, G: 14, B: 20, A: 255})
	for i := 0; i < BenchRectsFrame; i++ {
		x := rng.Intn(BenchSurface - 16)
		y := rng.Intn(BenchSurface - 16)
		col := color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: 128, A: 200}
		fillRect(dst, image.Rect(x, y, x+16, y+16), col)
	}
	for i := 0; i < BenchArcsFrame; i++ {
		cx := float32(rng.RangeF(12, BenchSurface-12))
		cy := float32(rng.RangeF(12, BenchSurface-12))
		fillDisc(z, dst, cx, cy, 10, color.RGBA{R: 90, G: 200, B: 120, A: 220})
	}
	for i := 0; i < BenchLabelsFrame; i++ {
		drawLabel(dst, rng.Intn(BenchSurface-64), 13+rng.Intn(BenchSurface-16), "Fire+Water", color.White)
	}
}
