//go:build !android

package desktop

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"snakecraft/internal/game"
)

// Floats per sprite vertex: x, y, size, r, g, b, a.
const spriteStride = 7

// MaxSprites caps one upload; larger batches are drawn in chunks.
const MaxSprites = 16384

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

type spriteColor struct {
	r, g, b float32
}

// GLSurface draws batcher output as point sprites. Each Bind draws what
// the previous bind queued, so draw calls match batches.
type GLSurface struct {
	prog uint32
	vao  uint32
	vbo  uint32
	uRes int32

	w, h    int
	cache   *game.SpriteCache[spriteColor]
	col     spriteColor
	alpha   float32
	buf     []float32
	cleared bool

	DrawCalls int
}

func NewGLSurface(w, h, cacheSize int) (*GLSurface, error) {
	prog, err := buildProgram(
		shaderStage{gl.VERTEX_SHADER, orbVertSrc},
		shaderStage{gl.FRAGMENT_SHADER, orbFragSrc},
	)
	if err != nil {
		return nil, fmt.Errorf("sprite program: %w", err)
	}
	s := &GLSurface{
		prog:  prog,
		cache: game.NewSpriteCache[spriteColor](cacheSize),
		buf:   make([]float32, 0, 1024*spriteStride),
	}

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)

	stride := int32(spriteStride * 4)
	gl.BufferData(gl.ARRAY_BUFFER, MaxSprites*int(stride), nil, gl.STREAM_DRAW)
	// aScreenPos (vec2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(2*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(3*4))

	gl.UseProgram(prog)
	s.uRes = gl.GetUniformLocation(prog, gl.Str("uResolution\x00"))
	gl.BindVertexArray(0)

	bg := game.Palette.Background
	r, g, b := bg.Floats()
	gl.ClearColor(r, g, b, 1)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	s.Resize(w, h)
	return s, nil
}

func (s *GLSurface) Destroy() {
	if s.vbo != 0 {
		gl.DeleteBuffers(1, &s.vbo)
	}
	if s.vao != 0 {
		gl.DeleteVertexArrays(1, &s.vao)
	}
	if s.prog != 0 {
		gl.DeleteProgram(s.prog)
	}
}

// Renderer reports the GL RENDERER string for device profiling.
func (s *GLSurface) Renderer() (string, error) {
	p := gl.GetString(gl.RENDERER)
	if p == nil {
		return "", game.ErrProbeUnavailable
	}
	return gl.GoStr(p), nil
}

func (s *GLSurface) Resize(w, h int) {
	if w == s.w && h == s.h {
		return
	}
	s.w, s.h = w, h
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (s *GLSurface) Size() (int, int) { return s.w, s.h }

// Clear clears the back buffer. Swapped buffers hold undefined contents,
// so dirty-rect clears also clear everything, once per frame.
func (s *GLSurface) Clear() {
	if s.cleared {
		return
	}
	gl.Clear(gl.COLOR_BUFFER_BIT)
	s.cleared = true
}

func (s *GLSurface) ClearRect(game.Rect) { s.Clear() }

func (s *GLSurface) Bind(resource string, size int, alpha float64) {
	s.flush()
	s.col = s.cache.GetOrCreate(resource, size, func(k game.SpriteKey) spriteColor {
		r, g, b := game.ResourceColor(k.Content).Floats()
		return spriteColor{r, g, b}
	})
	s.alpha = float32(alpha)
}

func (s *GLSurface) Blit(x, y, w, h float64) {
	if len(s.buf) >= MaxSprites*spriteStride {
		s.flush()
	}
	s.buf = append(s.buf,
		float32(x+w*0.5), float32(y+h*0.5), float32(w),
		s.col.r, s.col.g, s.col.b, s.alpha,
	)
}

func (s *GLSurface) flush() {
	if len(s.buf) == 0 {
		return
	}
	count := len(s.buf) / spriteStride

	gl.UseProgram(s.prog)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.Uniform2f(s.uRes, float32(s.w), float32(s.h))

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(s.buf)*4, gl.Ptr(s.buf))
	gl.DrawArrays(gl.POINTS, 0, int32(count))
	gl.Disable(gl.BLEND)

	s.DrawCalls++
	s.buf = s.buf[:0]
}

// Present draws the last batch. The host swaps buffers.
func (s *GLSurface) Present() {
	s.flush()
	gl.BindVertexArray(0)
	s.cleared = false
}

func (s *GLSurface) CacheStats() game.CacheStats { return s.cache.Stats() }
func (s *GLSurface) SetCacheLimit(n int)         { s.cache.SetLimit(n) }
