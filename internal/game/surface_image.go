package game

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Resources at or above this pixel size get their name drawn on the tile.
const labelMinSize = 40

// ImageSurface draws into an in-memory RGBA image. Resource tiles are
// rasterised once per (name, size) and kept in a SpriteCache.
type ImageSurface struct {
	dst   *image.RGBA
	bg    color.RGBA
	cache *SpriteCache[*image.RGBA]

	tile      *image.RGBA
	mask      *image.Uniform
	onPresent func(*image.RGBA)

	Presents int
}

func NewImageSurface(w, h, cacheSize int) *ImageSurface {
	return &ImageSurface{
		dst:   image.NewRGBA(image.Rect(0, 0, w, h)),
		bg:    Palette.Background.RGBA(255),
		cache: NewSpriteCache[*image.RGBA](cacheSize),
		mask:  image.NewUniform(color.Alpha{A: 255}),
	}
}

// OnPresent registers fn to receive the finished frame.
func (s *ImageSurface) OnPresent(fn func(*image.RGBA)) { s.onPresent = fn }

func (s *ImageSurface) Image() *image.RGBA { return s.dst }

func (s *ImageSurface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

func (s *ImageSurface) Clear() {
	fillRect(s.dst, s.dst.Bounds(), s.bg)
}

func (s *ImageSurface) ClearRect(r Rect) {
	fillRect(s.dst, pixelRect(r).Intersect(s.dst.Bounds()), s.bg)
}

func (s *ImageSurface) Bind(resource string, size int, alpha float64) {
	size = max(size, 1)
	s.tile = s.cache.GetOrCreate(resource, size, renderTile)
	s.mask.C = color.Alpha{A: uint8(math.Round(clampF(alpha, 0, 1) * 255))}
}

// Blit draws the bound tile over the pixels covering (x, y, w, h), the same
// pixels ClearRect clears for that rect. The tile is scaled when they differ.
func (s *ImageSurface) Blit(x, y, w, h float64) {
	if s.tile == nil || !(w > 0 && h > 0) {
		return
	}
	dr := pixelRect(Rect{X: x, Y: y, W: w, H: h})
	if !dr.Overlaps(s.dst.Bounds()) {
		return
	}
	tb := s.tile.Bounds()
	if dr.Dx() == tb.Dx() && dr.Dy() == tb.Dy() {
		draw.DrawMask(s.dst, dr, s.tile, tb.Min, s.mask, image.Point{}, draw.Over)
		return
	}
	draw.ApproxBiLinear.Scale(s.dst, dr, s.tile, tb, draw.Over, &draw.Options{DstMask: s.mask})
}

func (s *ImageSurface) Present() {
	s.Presents++
	if s.onPresent != nil {
		s.onPresent(s.dst)
	}
}

func (s *ImageSurface) CacheStats() CacheStats { return s.cache.Stats() }
func (s *ImageSurface) SetCacheLimit(n int)    { s.cache.SetLimit(n) }

// renderTile rasterises a resource as a filled disc, labelled when large.
func renderTile(k SpriteKey) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, k.Size, k.Size))
	z := vector.NewRasterizer(k.Size, k.Size)
	r := float32(k.Size) * 0.5
	fillDisc(z, img, r, r, r, ResourceColor(k.Content).RGBA(255))
	if k.Size >= labelMinSize {
		w := labelWidth(k.Content)
		drawLabel(img, (k.Size-w)/2, k.Size/2+4, k.Content, Palette.Label.RGBA(255))
	}
	return img
}

// pixelRect rounds r outwards to whole pixels.
func pixelRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.MaxX())), int(math.Ceil(r.MaxY())),
	)
}
