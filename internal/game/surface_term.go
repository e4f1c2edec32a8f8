package game

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

type termGlyph struct {
	ch    rune
	style tcell.Style
}

// TermSurface draws into a terminal, one cell per screen unit.
type TermSurface struct {
	screen tcell.Screen
	bg     tcell.Style
	cache  *SpriteCache[termGlyph]
	glyph  termGlyph
}

func NewTermSurface(screen tcell.Screen, cacheSize int) *TermSurface {
	r, g, b := Palette.Background.R, Palette.Background.G, Palette.Background.B
	return &TermSurface{
		screen: screen,
		bg:     tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b))),
		cache:  NewSpriteCache[termGlyph](cacheSize),
	}
}

func (s *TermSurface) Screen() tcell.Screen { return s.screen }

func (s *TermSurface) Size() (int, int) { return s.screen.Size() }

func (s *TermSurface) Clear() {
	s.screen.Fill(' ', s.bg)
}

func (s *TermSurface) ClearRect(r Rect) {
	w, h := s.screen.Size()
	x0, y0 := max(int(math.Floor(r.X)), 0), max(int(math.Floor(r.Y)), 0)
	x1, y1 := min(int(math.Ceil(r.MaxX())), w), min(int(math.Ceil(r.MaxY())), h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s.screen.SetContent(x, y, ' ', nil, s.bg)
		}
	}
}

func (s *TermSurface) Bind(resource string, size int, alpha float64) {
	g := s.cache.GetOrCreate(resource, size, func(k SpriteKey) termGlyph {
		c := ResourceColor(k.Content)
		return termGlyph{
			ch: ResourceGlyph(k.Content, k.Size),
			style: s.bg.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))).
				Bold(k.Size >= 3),
		}
	})
	g.style = g.style.Dim(alpha < 0.5)
	s.glyph = g
}

// Blit fills every cell the rectangle covers; a sub-cell instance still
// takes the cell under its centre.
func (s *TermSurface) Blit(x, y, w, h float64) {
	sw, sh := s.screen.Size()
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := int(math.Ceil(x+w)), int(math.Ceil(y+h))
	if x1-x0 <= 1 || y1-y0 <= 1 {
		x0, y0 = int(math.Floor(x+w*0.5)), int(math.Floor(y+h*0.5))
		x1, y1 = x0+1, y0+1
	}
	for cy := max(y0, 0); cy < min(y1, sh); cy++ {
		for cx := max(x0, 0); cx < min(x1, sw); cx++ {
			s.screen.SetContent(cx, cy, s.glyph.ch, nil, s.glyph.style)
		}
	}
}

func (s *TermSurface) Present() {
	s.screen.Show()
}

func (s *TermSurface) CacheStats() CacheStats { return s.cache.Stats() }
func (s *TermSurface) SetCacheLimit(n int)    { s.cache.SetLimit(n) }
