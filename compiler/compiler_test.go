package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// combinedSource is a single annotated file carrying both render stages, the way
// shaders ship in practice: stage-conditional regions select what each stage sees.
const combinedSource = `#version 450
#[bindgen(uniform, set=0, binding=0)]
struct Globals {
    mat4 vp;
    vec3 eye;
} globals;
#if defined(VERTEX)
#[bindgen(in)]
struct {
    vec3 pos;
    vec3 normal;
} input;
#[gen(out)]
struct {
    vec3 normal;
} vsOut;
void main() {
    vsOut.normal = input.normal;
    gl_Position = globals.vp * vec4(input.pos, 1.0);
}
#endif
#if defined(FRAGMENT)
#[gen(in)]
struct {
    vec3 normal;
} fsIn;
#[bindgen(out)]
struct {
    vec4 color;
} output;
void main() {
    float d = max(dot(normalize(fsIn.normal), normalize(globals.eye)), 0.0);
    output.color = vec4(vec3(d), 1.0);
}
#endif
`

func TestCompileRenderPipeline(t *testing.T) {
	c := NewCompiler()
	compiled, err := c.Compile(
		ShaderSource{Path: "shaders/lit.glsl", Source: combinedSource},
		common.StageVertex, common.StageFragment,
	)
	require.NoError(t, err)
	require.Len(t, compiled, 2)

	vert, frag := compiled[0], compiled[1]
	assert.Equal(t, common.StageVertex, vert.Stage)
	assert.Equal(t, common.StageFragment, frag.Stage)

	// the vertex text carries only its own stage's regions, flattened
	assert.Contains(t, vert.Text, "layout(location = 0) in vec3 _vert_in_pos;")
	assert.Contains(t, vert.Text, "layout(location = 1) in vec3 _vert_in_normal;")
	assert.Contains(t, vert.Text, "layout(location = 0) out vec3 _vert_out_normal;")
	assert.Contains(t, vert.Text, "_vert_out_normal = _vert_in_normal;")
	assert.NotContains(t, vert.Text, "fsIn")
	assert.NotContains(t, vert.Text, "#if")
	assert.NotContains(t, vert.Text, "#[")

	assert.Contains(t, frag.Text, "layout(location = 0) in vec3 _frag_in_normal;")
	assert.Contains(t, frag.Text, "layout(location = 0) out vec4 _frag_out_color;")
	assert.NotContains(t, frag.Text, "vsOut")

	// uniform block survives as a named block in both stages
	for _, stage := range compiled {
		assert.Contains(t, stage.Text, "layout(set = 0, binding = 0) uniform Globals {")
		assert.Contains(t, stage.Text, "globals.vp")
		require.Len(t, stage.Meta.Uniforms, 1)
		assert.Equal(t, uint64(80), stage.Meta.Uniforms[0].Size)
	}

	// vertex-stage reflection carries the vertex buffer layout
	require.NotNil(t, vert.Meta.VertexLayout)
	assert.Equal(t, uint64(24), vert.Meta.VertexLayout.ArrayStride)
	assert.Nil(t, frag.Meta.VertexLayout)
}

func TestCompileStageInterfaceMismatch(t *testing.T) {
	source := "#if defined(VERTEX)\n" +
		"#[gen(out)]\n" +
		"struct { vec3 color; } vsOut;\n" +
		"#endif\n" +
		"#if defined(FRAGMENT)\n" +
		"#[gen(in)]\n" +
		"struct { vec4 color; } fsIn;\n" +
		"#endif\n"
	c := NewCompiler()
	_, err := c.Compile(ShaderSource{Path: "bad.glsl", Source: source},
		common.StageVertex, common.StageFragment)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
}

func TestCompileShiftedInterfaceSlots(t *testing.T) {
	// the interfaces agree in shape, but the fragment's extra input block pushes
	// the gen-in field to location 1 while the vertex output stays at 0
	source := "#if defined(VERTEX)\n" +
		"#[gen(out)]\n" +
		"struct { vec3 color; } vsOut;\n" +
		"#endif\n" +
		"#if defined(FRAGMENT)\n" +
		"#[bindgen(in)]\n" +
		"struct { vec2 extra; } aux;\n" +
		"#[gen(in)]\n" +
		"struct { vec3 color; } fsIn;\n" +
		"#endif\n"
	c := NewCompiler()
	_, err := c.Compile(ShaderSource{Path: "shifted.glsl", Source: source},
		common.StageVertex, common.StageFragment)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStageInterfaceMismatch))
	assert.Contains(t, err.Error(), "color")
}

func TestCompileInfersStageFromPath(t *testing.T) {
	source := "#version 450\n" +
		"#[bindgen(in)]\n" +
		"struct { vec3 pos; } input;\n" +
		"void main() { gl_Position = vec4(input.pos, 1.0); }\n"
	c := NewCompiler()
	compiled, err := c.Compile(ShaderSource{Path: "res/basic.vert.glsl", Source: source})
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, common.StageVertex, compiled[0].Stage)
}

func TestCompileInfersStagesFromSymbols(t *testing.T) {
	c := NewCompiler()
	compiled, err := c.Compile(ShaderSource{Path: "shaders/lit.glsl", Source: combinedSource})
	require.NoError(t, err)
	require.Len(t, compiled, 2)
	assert.Equal(t, common.StageVertex, compiled[0].Stage)
	assert.Equal(t, common.StageFragment, compiled[1].Stage)
}

func TestCompileComputeStage(t *testing.T) {
	source := "#version 450\n" +
		"#[bindgen(uniform)]\n" +
		"struct Params { vec4 bounds; uint count; } params;\n" +
		"void main() { uint n = params.count; }\n"
	c := NewCompiler()
	compiled, err := c.Compile(ShaderSource{Path: "cull.comp", Source: source})
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, common.StageCompute, compiled[0].Stage)
	assert.Contains(t, compiled[0].Text, "uniform Params {")
}

func TestCompileWithDefines(t *testing.T) {
	source := "#version 450\n" +
		"#if defined(SHADOWS)\n" +
		"float shadow() { return 0.5; }\n" +
		"#endif\n" +
		"void main() {}\n"

	plain := NewCompiler()
	compiled, err := plain.Compile(ShaderSource{Path: "a.frag", Source: source})
	require.NoError(t, err)
	assert.NotContains(t, compiled[0].Text, "shadow()")

	shadowed := NewCompiler(WithDefine("SHADOWS", ""), WithDefine("MAX_CASCADES", "4"))
	compiled, err = shadowed.Compile(ShaderSource{Path: "a.frag", Source: source})
	require.NoError(t, err)
	assert.Contains(t, compiled[0].Text, "float shadow()")
	assert.Contains(t, compiled[0].Text, "#define MAX_CASCADES 4")
}

func TestCompileWithLibrary(t *testing.T) {
	source := "#version 450\n" +
		"#include \"rand\"\n" +
		"#include \"hash\"\n" +
		"void main() {}\n"
	c := NewCompiler(WithLibrary("hash", "uint hash(uint x) { return x * 2654435761u; }\n"))
	compiled, err := c.Compile(ShaderSource{Path: "noise.frag", Source: source})
	require.NoError(t, err)
	assert.Contains(t, compiled[0].Text, "float rand(vec2 co)")
	assert.Contains(t, compiled[0].Text, "uint hash(uint x)")
}

func TestCompileErrorCarriesStageAndLine(t *testing.T) {
	source := "#version 450\n" +
		"#[bindgen(in)]\n" +
		"struct { vec3 pos; } input;\n" +
		"void main() { gl_Position = vec4(input.position, 1.0); }\n"
	c := NewCompiler()
	_, err := c.Compile(ShaderSource{Path: "a.vert", Source: source})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnknownFieldReference))
	assert.Contains(t, err.Error(), "vert:")
	assert.Contains(t, err.Error(), "line 4")
}

func TestCompileBatchIsolation(t *testing.T) {
	good := "#version 450\n#[bindgen(in)]\nstruct { vec3 pos; } input;\nvoid main() { gl_Position = vec4(input.pos, 1.0); }\n"
	bad := "#version 450\n#[bindgen(in)]\nvoid main() {}\n"

	srcs := []ShaderSource{
		{Path: "good.vert", Source: good},
		{Path: "bad.vert", Source: bad},
	}
	for i := 0; i < 6; i++ {
		srcs = append(srcs, ShaderSource{Path: fmt.Sprintf("copy%d.vert", i), Source: good})
	}

	c := NewCompiler(WithWorkers(4))
	result := c.CompileBatch(srcs)

	require.Len(t, result.Errors, 1)
	assert.True(t, IsKind(result.Errors["bad.vert"], KindMissingStructBody))

	require.Len(t, result.Compiled, 7)
	for path, compiled := range result.Compiled {
		require.Len(t, compiled, 1, path)
		assert.Contains(t, compiled[0].Text, "_vert_in_pos", path)
	}
}

func TestCompileBatchEmpty(t *testing.T) {
	c := NewCompiler()
	result := c.CompileBatch(nil)
	assert.Empty(t, result.Compiled)
	assert.Empty(t, result.Errors)
}

func TestCompileStageOrderOverride(t *testing.T) {
	// with only a fragment stage configured, vertex gen-out has nothing to link against
	source := "#if defined(VERTEX)\n#[gen(out)]\nstruct { vec3 c; } o;\n#endif\n"
	c := NewCompiler(WithStageOrder(common.StageVertex))
	compiled, err := c.Compile(ShaderSource{Path: "v.glsl", Source: source}, common.StageVertex)
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.False(t, strings.Contains(compiled[0].Text, "#["))
}
