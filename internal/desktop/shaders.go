//go:build !android

package desktop

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Orb sprites are screen-space point sprites carrying centre, diameter
// and colour per vertex.
const orbVertSrc = `#version 410 core

layout(location = 0) in vec2 aScreenPos;
layout(location = 1) in float aSize;
layout(location = 2) in vec4 aColor;

uniform vec2 uResolution;

out vec4 vColor;

void main() {
    vec2 ndc = vec2(aScreenPos.x, uResolution.y - aScreenPos.y) / uResolution * 2.0 - 1.0;
    gl_Position = vec4(ndc, 0.0, 1.0);
    gl_PointSize = max(1.0, floor(aSize + 0.5));
    vColor = aColor;
}
` + "\x00"

// Shaded disc, antialiased over one screen pixel.
const orbFragSrc = `#version 410 core

in vec4 vColor;
out vec4 FragColor;

void main() {
    float r = 2.0 * distance(gl_PointCoord, vec2(0.5));
    float cover = 1.0 - smoothstep(1.0 - fwidth(r), 1.0, r);
    if (cover <= 0.0) discard;
    FragColor = vec4(vColor.rgb * (1.0 - 0.25 * r * r), vColor.a * cover);
}
` + "\x00"

type shaderStage struct {
	kind uint32
	src  string
}

// infoLog reads a shader or program log through the matching getters.
func infoLog(id uint32, getiv func(uint32, uint32, *int32), getLog func(uint32, int32, *int32, *uint8)) string {
	var n int32
	getiv(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return "no log"
	}
	buf := make([]byte, n+1)
	getLog(id, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

func compileStage(st shaderStage) (uint32, error) {
	id := gl.CreateShader(st.kind)
	src, free := gl.Strs(st.src)
	defer free()
	gl.ShaderSource(id, 1, src, nil)
	gl.CompileShader(id)

	var ok int32
	if gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok); ok != gl.FALSE {
		return id, nil
	}
	msg := infoLog(id, gl.GetShaderiv, gl.GetShaderInfoLog)
	gl.DeleteShader(id)
	return 0, fmt.Errorf("compile shader %#x: %s", st.kind, msg)
}

// buildProgram compiles and links the stages. Shader objects are released
// whatever the outcome.
func buildProgram(stages ...shaderStage) (uint32, error) {
	prog := gl.CreateProgram()
	ids := make([]uint32, 0, len(stages))
	release := func() {
		for _, id := range ids {
			gl.DetachShader(prog, id)
			gl.DeleteShader(id)
		}
	}
	for _, st := range stages {
		id, err := compileStage(st)
		if err != nil {
			release()
			gl.DeleteProgram(prog)
			return 0, err
		}
		gl.AttachShader(prog, id)
		ids = append(ids, id)
	}
	gl.LinkProgram(prog)
	release()

	var ok int32
	if gl.GetProgramiv(prog, gl.LINK_STATUS, &ok); ok != gl.FALSE {
		return prog, nil
	}
	msg := infoLog(prog, gl.GetProgramiv, gl.GetProgramInfoLog)
	gl.DeleteProgram(prog)
	return 0, fmt.Errorf("link program: %s", msg)
}
