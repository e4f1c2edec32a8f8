package game

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

// fillDisc rasterizes a filled circle into dst.
func fillDisc(z *vector.Rasterizer, dst draw.Image, cx, cy, r float32, col color.Color) {
	b := dst.Bounds()
	z.Reset(b.Dx(), b.Dy())
	k := r * kappa
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()
	z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func fillRect(dst draw.Image, r image.Rectangle, col color.Color) {
	draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// drawLabel writes s with its baseline-left at (x, y).
func drawLabel(dst draw.Image, x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// labelWidth returns the advance of s in the label face.
func labelWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
