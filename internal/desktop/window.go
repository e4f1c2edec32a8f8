//go:build !android

package desktop

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type windowOptions struct {
	Width, Height int
	Title         string
	SwapInterval  int // 0 lets the frame pacer run unthrottled
}

// openWindow creates a resizable window with a current 4.1 core context.
func openWindow(opt windowOptions) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init: %w", err)
	}
	for hint, v := range map[glfw.Hint]int{
		glfw.ContextVersionMajor:     4,
		glfw.ContextVersionMinor:     1,
		glfw.OpenGLProfile:           glfw.OpenGLCoreProfile,
		glfw.OpenGLForwardCompatible: glfw.True,
		glfw.Resizable:               glfw.True,
	} {
		glfw.WindowHint(hint, v)
	}

	win, err := glfw.CreateWindow(opt.Width, opt.Height, opt.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window %dx%d: %w", opt.Width, opt.Height, err)
	}
	win.MakeContextCurrent()
	glfw.SwapInterval(opt.SwapInterval)
	return win, nil
}
