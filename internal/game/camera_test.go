package game

import (
	"math"
	"testing"
)

func TestViewportRoundTrip(t *testing.T) {
	v := Viewport{X: 1000, Y: 500, Zoom: 2, Width: 800, Height: 600}
	sx, sy := v.WorldToScreen(1000, 500)
	if sx != 400 || sy != 300 {
		t.Errorf("centre maps to (%v,%v)", sx, sy)
	}
	wx, wy := v.ScreenToWorld(v.WorldToScreen(1234, 321))
	if math.Abs(wx-1234) > 1e-9 || math.Abs(wy-321) > 1e-9 {
		t.Errorf("round trip = (%v,%v)", wx, wy)
	}
	if r := v.WorldRect(); r != (Rect{X: 800, Y: 350, W: 400, H: 300}) {
		t.Errorf("WorldRect() = %+v", r)
	}
	if r := v.ScreenRect(1000, 500, 10); r != (Rect{X: 390, Y: 290, W: 20, H: 20}) {
		t.Errorf("ScreenRect() = %+v", r)
	}
	if r := v.Padded(8); r != (Rect{X: -8, Y: -8, W: 816, H: 616}) {
		t.Errorf("Padded() = %+v", r)
	}
}

func TestCameraClamp(t *testing.T) {
	world := Rect{W: 4000, H: 4000}
	c := NewCamera(world)
	c.Zoom = 10
	c.X, c.Y = -50, 5000
	c.Clamp(world, 800, 600)
	if c.Zoom != MaxZoom {
		t.Errorf("Zoom = %v, want %v", c.Zoom, MaxZoom)
	}
	if c.X != 100 || c.Y != 4000-75 {
		t.Errorf("centre = (%v,%v), want (100,3925)", c.X, c.Y)
	}

	// A world smaller than the view is centred.
	small := Rect{X: 0, Y: 0, W: 100, H: 100}
	c.Zoom = 1
	c.Clamp(small, 800, 600)
	if c.X != 50 || c.Y != 50 {
		t.Errorf("small world centre = (%v,%v)", c.X, c.Y)
	}
}

func TestCameraFollowAndShake(t *testing.T) {
	c := NewCamera(Rect{W: 1000, H: 1000})
	c.Follow(600, 500, 10, 5)
	if math.Abs(c.X-600) > 1e-6 || c.Y != 500 {
		t.Errorf("Follow did not converge: (%v,%v)", c.X, c.Y)
	}

	c.AddShake(4, 0.5)
	c.UpdateShake(0.1, 1)
	if math.Abs(c.ShakeX) > 4 || math.Abs(c.ShakeY) > 4 {
		t.Errorf("shake offset (%v,%v) exceeds intensity", c.ShakeX, c.ShakeY)
	}
	v := c.Viewport(800, 600)
	if v.X != c.X+c.ShakeX || v.Width != 800 {
		t.Errorf("Viewport() = %+v", v)
	}
	c.UpdateShake(1, 1)
	c.UpdateShake(0.1, 1)
	if c.ShakeX != 0 || c.ShakeY != 0 || c.ShakeIntensity != 0 {
		t.Error("shake did not settle")
	}
}
