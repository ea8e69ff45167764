package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSourceClassification(t *testing.T) {
	source := "#version 450\n" +
		"#[bindgen(in)]\n" +
		"struct { vec3 pos; } input;\n" +
		"void main() {\n" +
		"  #if defined(VERTEX)\n" +
		"  gl_Position = vec4(input.pos, 1.0);\n" +
		"  #endif\n" +
		"}"

	segments := scanSource(source)
	require.Len(t, segments, 8)

	wantKinds := []segmentKind{
		segmentDirective, // #version
		segmentMarker,    // #[bindgen(in)]
		segmentCode,
		segmentCode,
		segmentDirective, // #if
		segmentCode,
		segmentDirective, // #endif
		segmentCode,
	}
	for i, kind := range wantKinds {
		assert.Equal(t, kind, segments[i].kind, "segment %d", i)
		assert.Equal(t, i+1, segments[i].line, "segment %d line", i)
	}
}

func TestScanSourcePreservesText(t *testing.T) {
	source := "  vec3 x;\n\t#define FOO 1\n"
	segments := scanSource(source)
	require.Len(t, segments, 3)
	assert.Equal(t, "  vec3 x;", segments[0].text)
	assert.Equal(t, "\t#define FOO 1", segments[1].text)
	assert.Equal(t, "", segments[2].text)
}
