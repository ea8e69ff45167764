package compiler

import (
	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderSource is one immutable compilation input: raw annotated GLSL text plus the
// logical path it was read from. The path is used for error reporting, stage
// inference by filename convention, and keying batch results. It is read once and
// never mutated.
type ShaderSource struct {
	// Path is the logical source path (e.g. "res/default.vert.glsl").
	Path string

	// Source is the raw annotated GLSL text.
	Source string
}

// BlockKind identifies which marker introduced a tagged struct.
type BlockKind int

const (
	// BlockBindGen marks a user-specified I/O surface meant to interoperate with
	// host-side vertex buffer or uniform buffer contents. Fields keep their literal
	// declared types.
	BlockBindGen BlockKind = iota

	// BlockGen marks a compiler-synthesized interface between two adjacent shader
	// stages. Fields must be scalar/vector/matrix types; arrays are permitted only
	// on the input side of a geometry stage (per-vertex fan-in).
	BlockGen
)

func (k BlockKind) String() string {
	switch k {
	case BlockBindGen:
		return "bindgen"
	case BlockGen:
		return "gen"
	default:
		return "unknown"
	}
}

// ArrayUnsized marks a field declared with empty brackets (geometry fan-in).
const ArrayUnsized = -1

// Field is one declared struct field. Field order within a block is significant,
// defines layout order, and is never reordered.
type Field struct {
	// Type is the literal GLSL type name (e.g. "vec3", "mat4").
	Type string

	// Name is the declared field name.
	Name string

	// ArrayLen is 0 for non-array fields, a positive element count for sized
	// arrays, or ArrayUnsized for empty-bracket declarations.
	ArrayLen int
}

// AttributeBlock is one parsed marker plus the struct literal and instance name that
// follow it. Blocks are derived, immutable, single-pass artifacts of one compilation
// run.
type AttributeBlock struct {
	// Kind is the marker kind (bindgen or gen).
	Kind BlockKind

	// Direction is the marker direction (in, out, or uniform).
	Direction common.Direction

	// Set is the descriptor set index for uniform blocks. Defaults to 0 when the
	// marker carries no set argument.
	Set int

	// ExplicitBinding is the binding index given in the marker, nil when the
	// binding is auto-assigned.
	ExplicitBinding *int

	// StructName is the declared struct name, empty when omitted in source.
	StructName string

	// InstanceName is the instance identifier following the struct literal. Code
	// spans reference fields as InstanceName.field.
	InstanceName string

	// Fields is the ordered field list.
	Fields []Field

	// Line is the 1-based source line of the marker.
	Line int
}

// InterfaceField is one entry of a stage interface: the field's name, type, and
// the first location slot it was assigned.
type InterfaceField struct {
	Name string
	Type string
	Slot int
}

// StageInterface is the ordered field list exposed by a stage's gen-output blocks,
// used as the contract the next stage's gen-input blocks must reproduce exactly.
// Two interfaces are compared structurally (name, type, order, assigned slot),
// never by nominal struct identity.
type StageInterface struct {
	// Stage is the stage exposing this interface.
	Stage common.Stage

	// Fields is the ordered field sequence.
	Fields []InterfaceField
}

// LocationEntry records one assigned location slot in the reflection metadata.
type LocationEntry struct {
	// Direction is the io-group the field belongs to (in or out).
	Direction common.Direction

	// Field is the original (unflattened) field name.
	Field string

	// Type is the GLSL type name.
	Type string

	// Slot is the first location slot the field occupies. Multi-slot types occupy
	// Slot through Slot+slots-1.
	Slot int
}

// FieldLayout records one uniform field's std140 placement.
type FieldLayout struct {
	// Field is the field name.
	Field string

	// Offset is the byte offset within the uniform block.
	Offset uint64

	// Size is the field's std140 byte size (unpadded for vec3).
	Size uint64
}

// UniformEntry records one uniform block's binding and memory layout. This is the
// sole channel by which the renderer discovers how to populate and bind uniform
// buffer memory; any divergence between emitted GLSL and this record is a defect.
type UniformEntry struct {
	// Name is the block's struct name as emitted.
	Name string

	// Instance is the block's instance name.
	Instance string

	// Set and Binding are the descriptor set and binding indices.
	Set     int
	Binding int

	// Size is the total std140 size, always a multiple of 16.
	Size uint64

	// Layout is the per-field offset/size table in declaration order.
	Layout []FieldLayout
}

// Metadata is the per-stage reflection record emitted alongside the GLSL text.
type Metadata struct {
	// Stage is the stage this record describes.
	Stage common.Stage

	// Locations lists every assigned location slot, inputs first then outputs, in
	// declaration order.
	Locations []LocationEntry

	// Uniforms lists every uniform block with its binding and std140 layout.
	Uniforms []UniformEntry

	// BindGroupLayouts holds one wgpu layout descriptor per descriptor set, with
	// uniform-buffer entries sorted by binding index and MinBindingSize set to the
	// block's std140 size. Consumed verbatim by the renderer when building
	// descriptor-set layouts.
	BindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayout is the vertex buffer layout derived from the vertex stage's
	// bindgen-in block, nil for other stages or when no such block exists.
	VertexLayout *wgpu.VertexBufferLayout
}

// CompiledStage is one emitted stage module: compilable GLSL text plus its
// reflection metadata.
type CompiledStage struct {
	// Stage is the stage the text was emitted for.
	Stage common.Stage

	// Text is the final GLSL module with all markers resolved and flattened
	// declarations substituted.
	Text string

	// Meta is the stage's reflection record.
	Meta Metadata
}

// BatchResult aggregates an independent-file batch compilation. Each source is an
// atomic unit of work: it appears in Compiled with its full stage set, or in Errors,
// never both.
type BatchResult struct {
	// Compiled maps source path to that file's compiled stages.
	Compiled map[string][]CompiledStage

	// Errors maps source path to that file's first compile fault.
	Errors map[string]error
}
