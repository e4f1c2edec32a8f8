package game

import (
	"image"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestImageSurfaceDraws(t *testing.T) {
	s := NewImageSurface(64, 64, 4)
	var presented *image.RGBA
	s.OnPresent(func(img *image.RGBA) { presented = img })

	b := NewRenderBatcher(s, BatcherConfig{}, nil, nil)
	view := Viewport{X: 32, Y: 32, Zoom: 1, Width: 64, Height: 64}
	b.BeginFrame(view, 1)
	b.Queue("fire", 32, 32, 16, 1)
	b.Flush()

	if presented != s.Image() || s.Presents != 1 {
		t.Fatalf("Present not delivered: %d", s.Presents)
	}
	bg := Palette.Background.RGBA(255)
	if got := s.Image().RGBAAt(2, 2); got != bg {
		t.Errorf("corner = %v, want background %v", got, bg)
	}
	if got := s.Image().RGBAAt(32, 32); got == bg {
		t.Error("sprite centre was not drawn")
	}

	// Second frame with the sprite gone: its footprint is cleared.
	b.BeginFrame(view, 1)
	b.Flush()
	if got := s.Image().RGBAAt(32, 32); got != bg {
		t.Errorf("old footprint not cleared: %v", got)
	}
	if st := s.CacheStats(); st.Misses != 1 {
		t.Errorf("CacheStats() = %+v", st)
	}
}

func TestImageSurfaceTileCache(t *testing.T) {
	s := NewImageSurface(32, 32, 4)
	s.Bind("water", 8, 1)
	s.Bind("water", 8, 0.5)
	s.Bind("water", 12, 1)
	if st := s.CacheStats(); st.Hits != 1 || st.Misses != 2 {
		t.Errorf("CacheStats() = %+v", st)
	}
	s.SetCacheLimit(1)
	if st := s.CacheStats(); st.Evictions != 1 {
		t.Errorf("evictions = %d", st.Evictions)
	}
	s.Blit(-100, -100, 8, 8) // fully outside, must not panic
}

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	sc := tcell.NewSimulationScreen("UTF-8")
	if err := sc.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	sc.SetSize(w, h)
	t.Cleanup(sc.Fini)
	return sc
}

func TestTermSurface(t *testing.T) {
	sc := newSimScreen(t, 20, 10)
	s := NewTermSurface(sc, 8)
	if w, h := s.Size(); w != 20 || h != 10 {
		t.Fatalf("Size() = %d,%d", w, h)
	}

	s.Clear()
	s.Bind("water", 3, 1)
	s.Blit(4, 2, 3, 2)
	s.Bind("fire", 1, 1)
	s.Blit(10.2, 5.3, 0.5, 0.5)
	s.Present()

	if r, _, _, _ := sc.GetContent(5, 3); r != 'W' {
		t.Errorf("cell (5,3) = %q, want W", r)
	}
	if r, _, _, _ := sc.GetContent(10, 5); r != '.' {
		t.Errorf("sub-cell blit = %q, want .", r)
	}
	if r, _, _, _ := sc.GetContent(0, 0); r != ' ' {
		t.Errorf("background cell = %q", r)
	}

	s.ClearRect(Rect{X: 4, Y: 2, W: 3, H: 2})
	if r, _, _, _ := sc.GetContent(5, 3); r != ' ' {
		t.Errorf("ClearRect left %q", r)
	}
	s.Blit(-5, -5, 2, 2) // off screen
}

func TestImageSurfaceFractionalMoveLeavesNoTrail(t *testing.T) {
	s := NewImageSurface(200, 100, 16)
	b := NewRenderBatcher(s, BatcherConfig{}, nil, nil)
	view := Viewport{X: 100, Y: 50, Zoom: 1, Width: 200, Height: 100}

	// Footprint x in [10.5, 21): the tile must not spill into column 21.
	b.BeginFrame(view, 1)
	b.Queue("fire", 15.75, 50, 10.5, 1)
	b.Flush()
	b.BeginFrame(view, 1)
	b.Queue("fire", 150, 50, 10.5, 1)
	if st := b.Flush(); st.FullClears != 1 {
		t.Fatalf("second frame took a full clear: %+v", st)
	}

	bg := Palette.Background.RGBA(255)
	img := s.Image()
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if got := img.RGBAAt(x, y); got != bg {
				t.Fatalf("stale pixel at (%d,%d) = %v", x, y, got)
			}
		}
	}
	if got := img.RGBAAt(150, 50); got == bg {
		t.Error("moved sprite not drawn")
	}
}

func TestImageSurfaceBlitStaysInFootprint(t *testing.T) {
	s := NewImageSurface(40, 40, 4)
	s.Clear()
	bg := Palette.Background.RGBA(255)
	s.Bind("water", 8, 1)
	s.Blit(10.5, 10.5, 12.25, 12.25) // scaled: tile is 8px, footprint 13px
	fp := pixelRect(Rect{X: 10.5, Y: 10.5, W: 12.25, H: 12.25})
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if !image.Pt(x, y).In(fp) && s.Image().RGBAAt(x, y) != bg {
				t.Fatalf("pixel (%d,%d) drawn outside %v", x, y, fp)
			}
		}
	}
	if s.Image().RGBAAt(16, 16) == bg {
		t.Error("scaled tile not drawn")
	}
}
