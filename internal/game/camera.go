package game

import "math"

// Viewport is what the batcher culls against for one frame.
type Viewport struct {
	X, Y          float64 // world-space camera centre
	Zoom          float64 // screen pixels per world unit
	Width, Height int     // surface size in pixels
}

func (v Viewport) zoom() float64 {
	if v.Zoom > 0 {
		return v.Zoom
	}
	return 1
}

// WorldToScreen maps a world point to surface pixels.
func (v Viewport) WorldToScreen(x, y float64) (float64, float64) {
	z := v.zoom()
	return (x-v.X)*z + float64(v.Width)*0.5, (y-v.Y)*z + float64(v.Height)*0.5
}

// ScreenToWorld is the inverse of WorldToScreen.
func (v Viewport) ScreenToWorld(sx, sy float64) (float64, float64) {
	z := v.zoom()
	return v.X + (sx-float64(v.Width)*0.5)/z, v.Y + (sy-float64(v.Height)*0.5)/z
}

// ScreenRect is the on-screen footprint of an instance of world size
// centred at (x, y).
func (v Viewport) ScreenRect(x, y, size float64) Rect {
	sx, sy := v.WorldToScreen(x, y)
	s := size * v.zoom()
	return Rect{X: sx - s*0.5, Y: sy - s*0.5, W: s, H: s}
}

// Bounds is the surface rectangle.
func (v Viewport) Bounds() Rect {
	return Rect{W: float64(v.Width), H: float64(v.Height)}
}

// Padded is the surface rectangle grown by margin pixels on every side.
func (v Viewport) Padded(margin float64) Rect {
	return v.Bounds().Inset(margin)
}

// WorldRect is the visible part of the world.
func (v Viewport) WorldRect() Rect {
	z := v.zoom()
	w := float64(v.Width) / z
	h := float64(v.Height) / z
	return Rect{X: v.X - w*0.5, Y: v.Y - h*0.5, W: w, H: h}
}

type Camera struct {
	X, Y float64 // world space, camera centre
	Zoom float64 // screen pixels per world unit

	// Screen shake.
	ShakeX, ShakeY float64 // current offset in world units
	ShakeTimer     float64 // remaining shake time
	ShakeIntensity float64 // max offset magnitude
}

func NewCamera(world Rect) Camera {
	return Camera{
		X:    world.X + world.W*0.5,
		Y:    world.Y + world.H*0.5,
		Zoom: DefaultZoom,
	}
}

// AddShake triggers screen shake with given intensity and duration.
func (c *Camera) AddShake(intensity, duration float64) {
	if intensity > c.ShakeIntensity {
		c.ShakeIntensity = intensity
	}
	if duration > c.ShakeTimer {
		c.ShakeTimer = duration
	}
}

// UpdateShake decays shake and computes random offsets.
func (c *Camera) UpdateShake(dt float64, seed uint64) {
	if c.ShakeTimer <= 0 {
		c.ShakeX = 0
		c.ShakeY = 0
		c.ShakeIntensity = 0
		return
	}
	c.ShakeTimer = math.Max(c.ShakeTimer-dt, 0)
	t := c.ShakeTimer
	rr := NewRand(seed ^ uint64(t*10000))
	mag := c.ShakeIntensity * (t / (t + 0.08))
	c.ShakeX = rr.RangeF(-mag, mag)
	c.ShakeY = rr.RangeF(-mag, mag)
}

// Follow eases the camera centre towards (x, y).
func (c *Camera) Follow(x, y, dt, rate float64) {
	k := 1 - math.Exp(-rate*dt)
	c.X = lerp(c.X, x, k)
	c.Y = lerp(c.Y, y, k)
}

// Clamp limits zoom and keeps the view inside world. A world smaller than
// the view is centred.
func (c *Camera) Clamp(world Rect, fbW, fbH int) {
	c.Zoom = clampF(c.Zoom, MinZoom, MaxZoom)

	halfW := float64(fbW) / (2.0 * c.Zoom)
	halfH := float64(fbH) / (2.0 * c.Zoom)

	c.X = clampAxis(c.X, world.X+halfW, world.MaxX()-halfW, world.X+world.W*0.5)
	c.Y = clampAxis(c.Y, world.Y+halfH, world.MaxY()-halfH, world.Y+world.H*0.5)
}

func clampAxis(v, lo, hi, centre float64) float64 {
	if lo > hi {
		return centre
	}
	return clampF(v, lo, hi)
}

// Viewport returns the view for a surface of fbW x fbH with shake applied.
func (c *Camera) Viewport(fbW, fbH int) Viewport {
	return Viewport{
		X:      c.X + c.ShakeX,
		Y:      c.Y + c.ShakeY,
		Zoom:   c.Zoom,
		Width:  fbW,
		Height: fbH,
	}
}
