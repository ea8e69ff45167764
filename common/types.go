// package common contains common types that are used throughout this compiler. They are not interface-wrapped structs, just plain structs and
// lookup tables that express commonly used shader data-types.
package common

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies one phase of the graphics pipeline a shader module is compiled for.
type Stage int

const (
	// StageVertex is the vertex processing stage.
	StageVertex Stage = iota

	// StageGeometry is the optional geometry stage between vertex and fragment processing.
	StageGeometry

	// StageFragment is the fragment (pixel) processing stage.
	StageFragment

	// StageCompute is the compute stage, which takes no part in the render pipeline interface.
	StageCompute
)

// ShortName returns the abbreviated stage name used in flattened identifiers and
// filename conventions (e.g. "vert" in "_vert_in_pos" or "default.vert.glsl").
//
// Returns:
//   - string: the short stage name (vert, geom, frag, comp)
func (s Stage) ShortName() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageGeometry:
		return "geom"
	case StageFragment:
		return "frag"
	case StageCompute:
		return "comp"
	default:
		return "unknown"
	}
}

// Symbol returns the preprocessor symbol that activates this stage's conditional
// regions during emission (e.g. "#if defined(VERTEX)").
//
// Returns:
//   - string: the stage's conditional-compilation symbol
func (s Stage) Symbol() string {
	switch s {
	case StageVertex:
		return "VERTEX"
	case StageGeometry:
		return "GEOMETRY"
	case StageFragment:
		return "FRAGMENT"
	case StageCompute:
		return "COMPUTE"
	default:
		return "UNKNOWN"
	}
}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageGeometry:
		return "geometry"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return "unknown"
	}
}

// StageFromName resolves a stage from its short or long name.
//
// Parameters:
//   - name: the stage name, either short ("vert") or long ("vertex")
//
// Returns:
//   - Stage: the resolved stage
//   - bool: true if the name was recognized
func StageFromName(name string) (Stage, bool) {
	switch name {
	case "vert", "vertex":
		return StageVertex, true
	case "geom", "geometry":
		return StageGeometry, true
	case "frag", "fragment":
		return StageFragment, true
	case "comp", "compute":
		return StageCompute, true
	default:
		return 0, false
	}
}

// StageFromPath infers a stage from a filename convention such as "default.vert.glsl"
// or "cull.comp". The last two dotted components are checked against the short and
// long stage names.
//
// Parameters:
//   - path: the logical path of the shader source
//
// Returns:
//   - Stage: the inferred stage
//   - bool: true if the path carried a recognizable stage component
func StageFromPath(path string) (Stage, bool) {
	parts := strings.Split(path, ".")
	for i := len(parts) - 1; i >= 0 && i >= len(parts)-2; i-- {
		if s, ok := StageFromName(parts[i]); ok {
			return s, true
		}
	}
	return 0, false
}

// Direction identifies which side of a shader interface a tagged struct declares.
type Direction int

const (
	// DirectionIn marks a block whose fields are stage inputs.
	DirectionIn Direction = iota

	// DirectionOut marks a block whose fields are stage outputs.
	DirectionOut

	// DirectionUniform marks a uniform buffer block.
	DirectionUniform
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	case DirectionUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// DirectionFromName resolves a direction from its marker keyword.
//
// Parameters:
//   - name: one of "in", "out", "uniform"
//
// Returns:
//   - Direction: the resolved direction
//   - bool: true if the name was recognized
func DirectionFromName(name string) (Direction, bool) {
	switch name {
	case "in":
		return DirectionIn, true
	case "out":
		return DirectionOut, true
	case "uniform":
		return DirectionUniform, true
	default:
		return 0, false
	}
}

// TypeInfo describes a GLSL scalar, vector, or matrix type: how many location slots
// it consumes, its std140 size and alignment (when defined), and the wgpu vertex
// format it maps to when used as a vertex attribute (when one exists).
type TypeInfo struct {
	// Components is the total scalar component count (e.g. 3 for vec3, 16 for mat4).
	Components int

	// Slots is the number of location slots the type consumes. Scalars and vectors
	// take one slot, an NxN matrix takes N.
	Slots int

	// Columns is the matrix column count, 0 for scalars and vectors.
	Columns int

	// Std140 reports whether the type has a defined std140 layout rule.
	Std140 bool

	// Size is the std140 byte size. Zero when Std140 is false.
	Size uint64

	// Align is the std140 byte alignment. Zero when Std140 is false.
	Align uint64

	// HasFormat reports whether the type maps to a wgpu vertex format. Matrices map
	// column-wise: each column uses Format at FormatSize byte stride.
	HasFormat bool

	// Format is the wgpu vertex format for the type (or for one matrix column).
	Format wgpu.VertexFormat

	// FormatSize is the byte size of Format.
	FormatSize uint64
}

// glslTypeMap maps GLSL type names to their layout descriptions.
//
// Slot counts follow the location allocation rules: scalars and vectors consume one
// slot, an NxN matrix consumes N. std140 entries follow the usual packing: scalars
// align naturally, vec2 to 8 bytes, vec3 and vec4 to 16, and an NxN matrix is N
// columns at vec4 stride. bool vectors and double types carry no std140 rule here
// and are rejected when they appear in a uniform block.
var glslTypeMap = map[string]TypeInfo{
	// Scalars
	"float":  {Components: 1, Slots: 1, Std140: true, Size: 4, Align: 4, HasFormat: true, Format: wgpu.VertexFormatFloat32, FormatSize: 4},
	"int":    {Components: 1, Slots: 1, Std140: true, Size: 4, Align: 4, HasFormat: true, Format: wgpu.VertexFormatSint32, FormatSize: 4},
	"uint":   {Components: 1, Slots: 1, Std140: true, Size: 4, Align: 4, HasFormat: true, Format: wgpu.VertexFormatUint32, FormatSize: 4},
	"bool":   {Components: 1, Slots: 1},
	"double": {Components: 1, Slots: 1},

	// Vectors - float
	"vec2": {Components: 2, Slots: 1, Std140: true, Size: 8, Align: 8, HasFormat: true, Format: wgpu.VertexFormatFloat32x2, FormatSize: 8},
	"vec3": {Components: 3, Slots: 1, Std140: true, Size: 12, Align: 16, HasFormat: true, Format: wgpu.VertexFormatFloat32x3, FormatSize: 12},
	"vec4": {Components: 4, Slots: 1, Std140: true, Size: 16, Align: 16, HasFormat: true, Format: wgpu.VertexFormatFloat32x4, FormatSize: 16},

	// Vectors - int
	"ivec2": {Components: 2, Slots: 1, Std140: true, Size: 8, Align: 8, HasFormat: true, Format: wgpu.VertexFormatSint32x2, FormatSize: 8},
	"ivec3": {Components: 3, Slots: 1, Std140: true, Size: 12, Align: 16, HasFormat: true, Format: wgpu.VertexFormatSint32x3, FormatSize: 12},
	"ivec4": {Components: 4, Slots: 1, Std140: true, Size: 16, Align: 16, HasFormat: true, Format: wgpu.VertexFormatSint32x4, FormatSize: 16},

	// Vectors - uint
	"uvec2": {Components: 2, Slots: 1, Std140: true, Size: 8, Align: 8, HasFormat: true, Format: wgpu.VertexFormatUint32x2, FormatSize: 8},
	"uvec3": {Components: 3, Slots: 1, Std140: true, Size: 12, Align: 16, HasFormat: true, Format: wgpu.VertexFormatUint32x3, FormatSize: 12},
	"uvec4": {Components: 4, Slots: 1, Std140: true, Size: 16, Align: 16, HasFormat: true, Format: wgpu.VertexFormatUint32x4, FormatSize: 16},

	// Vectors - bool and double (no std140 rule, no vertex format)
	"bvec2": {Components: 2, Slots: 1},
	"bvec3": {Components: 3, Slots: 1},
	"bvec4": {Components: 4, Slots: 1},
	"dvec2": {Components: 2, Slots: 1},
	"dvec3": {Components: 3, Slots: 1},
	"dvec4": {Components: 4, Slots: 1},

	// Matrices - NxN: N columns at vec4 stride under std140, N location slots,
	// N column attributes when used as a vertex input.
	"mat2": {Components: 4, Slots: 2, Columns: 2, Std140: true, Size: 32, Align: 16, HasFormat: true, Format: wgpu.VertexFormatFloat32x2, FormatSize: 8},
	"mat3": {Components: 9, Slots: 3, Columns: 3, Std140: true, Size: 48, Align: 16, HasFormat: true, Format: wgpu.VertexFormatFloat32x3, FormatSize: 12},
	"mat4": {Components: 16, Slots: 4, Columns: 4, Std140: true, Size: 64, Align: 16, HasFormat: true, Format: wgpu.VertexFormatFloat32x4, FormatSize: 16},
}

// LookupType resolves a GLSL type name to its layout description.
//
// Parameters:
//   - name: the GLSL type name, e.g. "vec3" or "mat4"
//
// Returns:
//   - TypeInfo: the type's layout description
//   - bool: true if the type is a known scalar, vector, or matrix type
func LookupType(name string) (TypeInfo, bool) {
	info, ok := glslTypeMap[name]
	return info, ok
}
