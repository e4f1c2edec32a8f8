//go:build !android

package desktop

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"

	"snakecraft/internal/game"
)

type Input struct {
	prevKeys    map[glfw.Key]bool
	prevCursorX float64
	prevCursorY float64
	mouseSteer  bool
}

func NewInput() *Input {
	return &Input{
		prevKeys: make(map[glfw.Key]bool),
	}
}

func (in *Input) JustPressed(window *glfw.Window, key glfw.Key) bool {
	down := window.GetKey(key) == glfw.Press
	jp := down && !in.prevKeys[key]
	in.prevKeys[key] = down
	return jp
}

// CursorWorldPos converts cursor position to world coordinates.
func CursorWorldPos(window *glfw.Window, view game.Viewport) (float64, float64) {
	cx, cy := window.GetCursorPos()
	winW, winH := window.GetSize()
	if winW <= 0 || winH <= 0 {
		return view.X, view.Y
	}
	fx := cx * float64(view.Width) / float64(winW)
	fy := cy * float64(view.Height) / float64(winH)
	return view.ScreenToWorld(fx, fy)
}

// Steer applies WASD or mouse steering to the arena. WASD gives cardinal
// directions; the mouse takes over once the cursor moves and keeps
// control while the left button is held.
func (in *Input) Steer(window *glfw.Window, arena *game.Arena, view game.Viewport) {
	switch {
	case window.GetKey(glfw.KeyW) == glfw.Press:
		arena.Steer(-math.Pi / 2)
		in.mouseSteer = false
		return
	case window.GetKey(glfw.KeyS) == glfw.Press:
		arena.Steer(math.Pi / 2)
		in.mouseSteer = false
		return
	case window.GetKey(glfw.KeyA) == glfw.Press:
		arena.Steer(math.Pi)
		in.mouseSteer = false
		return
	case window.GetKey(glfw.KeyD) == glfw.Press:
		arena.Steer(0)
		in.mouseSteer = false
		return
	}

	cx, cy := window.GetCursorPos()
	if math.Hypot(cx-in.prevCursorX, cy-in.prevCursorY) > 0.5 ||
		window.GetMouseButton(glfw.MouseButtonLeft) == glfw.Press {
		in.mouseSteer = true
	}
	in.prevCursorX, in.prevCursorY = cx, cy

	if in.mouseSteer {
		arena.SteerTowards(CursorWorldPos(window, view))
		return
	}
	arena.ReleaseSteer()
}

// UpdateZoom handles E/R zoom.
func UpdateZoom(cam *game.Camera, window *glfw.Window, dt float64) {
	zoomRate := 1.4
	if window.GetKey(glfw.KeyE) == glfw.Press {
		cam.Zoom *= math.Exp(zoomRate * dt)
	}
	if window.GetKey(glfw.KeyR) == glfw.Press {
		cam.Zoom *= math.Exp(-zoomRate * dt)
	}
}
