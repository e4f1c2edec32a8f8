package game

import (
	"hash/fnv"
	"image/color"
	"strings"
)

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

func (c RGB) RGBA(a uint8) color.RGBA {
	// color.RGBA is premultiplied.
	return color.RGBA{
		R: uint8(uint16(c.R) * uint16(a) / 255),
		G: uint8(uint16(c.G) * uint16(a) / 255),
		B: uint8(uint16(c.B) * uint16(a) / 255),
		A: a,
	}
}

// Floats returns the channels in 0..1 for shader uniforms.
func (c RGB) Floats() (r, g, b float32) {
	return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255
}

var Palette = struct {
	Background RGB
	Label      RGB
}{
	Background: RGB{R: 18, G: 20, B: 28},
	Label:      RGB{R: 240, G: 240, B: 232},
}

// Elements are the starter resources of the arena; crafted names fall back
// to a colour derived from the name.
var Elements = map[string]RGB{
	"snake": {R: 120, G: 230, B: 110},
	"fire":  {R: 255, G: 150, B: 70},
	"water": {R: 70, G: 150, B: 255},
	"earth": {R: 150, G: 110, B: 70},
	"air":   {R: 200, G: 220, B: 240},
	"steam": {R: 190, G: 200, B: 210},
	"lava":  {R: 255, G: 90, B: 40},
	"mud":   {R: 110, G: 90, B: 60},
	"dust":  {R: 200, G: 180, B: 140},
}

// ResourceColor returns the display colour of a resource name.
func ResourceColor(name string) RGB {
	if c, ok := Elements[strings.ToLower(name)]; ok {
		return c
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	v := splitmix64(h.Sum64())
	// Keep crafted colours away from the dark background.
	return RGB{R: uint8(96 + v%160), G: uint8(96 + (v>>8)%160), B: uint8(96 + (v>>16)%160)}
}

// ResourceGlyph is the single rune used where a resource is drawn as text.
func ResourceGlyph(name string, size int) rune {
	if size <= 1 {
		return '.'
	}
	for _, r := range name {
		if size >= 3 {
			return toUpper(r)
		}
		return r
	}
	return 'o'
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}
