// reflection.go computes uniform block memory layouts and the wgpu-typed binding
// metadata the renderer consumes when constructing vertex-input state and
// descriptor-set layouts. The compiler never touches GPU state itself: this
// metadata is its sole channel to the renderer, and must agree with the emitted
// GLSL exactly.
package compiler

import (
	"sort"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// computeUniformLayout computes one uniform block's std140 field placement.
// Each field lands at the next offset aligned to its type, and advances the offset
// by its size rounded up to that same alignment, so a vec3 consumes a full 16-byte
// register. The total size always rounds up to a multiple of 16.
//
// Parameters:
//   - block: the uniform block to lay out
//
// Returns:
//   - []FieldLayout: per-field offsets and sizes in declaration order
//   - uint64: the total block size, a multiple of 16
//   - error: an UnsupportedType error for fields with no std140 rule
func computeUniformLayout(block *AttributeBlock) ([]FieldLayout, uint64, error) {
	layout := make([]FieldLayout, 0, len(block.Fields))
	offset := uint64(0)

	for _, field := range block.Fields {
		info, ok := common.LookupType(field.Type)
		if !ok || !info.Std140 {
			return nil, 0, newError(KindUnsupportedType, block.Line,
				"uniform field %q has type %q with no std140 layout rule", field.Name, field.Type)
		}
		if field.ArrayLen == ArrayUnsized {
			return nil, 0, newError(KindUnsupportedType, block.Line,
				"uniform field %q cannot be an unsized array", field.Name)
		}

		align := info.Align
		size := info.Size
		if field.ArrayLen > 0 {
			// Array elements round to a 16-byte stride under std140.
			stride := common.RoundUpAlign(16, size)
			align = common.RoundUpAlign(16, align)
			size = stride * uint64(field.ArrayLen)
		}

		offset = common.RoundUpAlign(align, offset)
		layout = append(layout, FieldLayout{Field: field.Name, Offset: offset, Size: size})
		offset += common.RoundUpAlign(align, size)
	}

	return layout, common.RoundUpAlign(16, offset), nil
}

// visibilityFor maps a stage to the wgpu shader stage flag applied to its binding
// entries. WebGPU has no geometry stage; geometry bindings are surfaced with
// vertex visibility, the closest pre-rasterization position.
func visibilityFor(stage common.Stage) wgpu.ShaderStage {
	switch stage {
	case common.StageFragment:
		return wgpu.ShaderStageFragment
	case common.StageCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageVertex
	}
}

// buildReflection assembles the full per-stage metadata record: location table,
// uniform layouts, bind group layout descriptors keyed by set, and - for a vertex
// stage with a bindgen input block - the vertex buffer layout.
//
// Parameters:
//   - schema: the allocated stage schema
//
// Returns:
//   - Metadata: the stage's reflection record
//   - error: an UnsupportedType fault from uniform or vertex layout computation
func buildReflection(schema *stageSchema) (Metadata, error) {
	meta := Metadata{Stage: schema.stage, Locations: schema.locations}

	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	for _, block := range schema.uniformBlocks() {
		layout, size, err := computeUniformLayout(block)
		if err != nil {
			return Metadata{}, err
		}
		binding := schema.bindings[block.InstanceName]
		meta.Uniforms = append(meta.Uniforms, UniformEntry{
			Name:     blockStructName(block),
			Instance: block.InstanceName,
			Set:      block.Set,
			Binding:  binding,
			Size:     size,
			Layout:   layout,
		})
		groups[block.Set] = append(groups[block.Set], wgpu.BindGroupLayoutEntry{
			Binding:    uint32(binding),
			Visibility: visibilityFor(schema.stage),
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: size,
			},
		})
	}

	if len(groups) > 0 {
		meta.BindGroupLayouts = make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
		for set, entries := range groups {
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})
			meta.BindGroupLayouts[set] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
		}
	}

	if schema.stage == common.StageVertex {
		layout, err := buildVertexLayout(schema)
		if err != nil {
			return Metadata{}, err
		}
		meta.VertexLayout = layout
	}

	return meta, nil
}

// buildVertexLayout converts the vertex stage's bindgen input blocks into a
// wgpu.VertexBufferLayout: one attribute per assigned location slot, with matrices
// expanding to one attribute per column, and sequential byte offsets whose total
// becomes the array stride.
//
// Returns nil when the stage declares no bindgen input block.
func buildVertexLayout(schema *stageSchema) (*wgpu.VertexBufferLayout, error) {
	var attrs []wgpu.VertexAttribute
	var offset uint64
	found := false

	for _, block := range schema.blocks {
		if block.Kind != BlockBindGen || block.Direction != common.DirectionIn {
			continue
		}
		found = true
		for _, field := range block.Fields {
			info, _ := common.LookupType(field.Type)
			if !info.HasFormat {
				return nil, newError(KindUnsupportedType, block.Line,
					"vertex input field %q has type %q with no attribute format", field.Name, field.Type)
			}

			slot := schema.slots[block.InstanceName][field.Name]
			columns := max(info.Columns, 1)
			elements := max(field.ArrayLen, 1)
			for e := 0; e < elements; e++ {
				for c := 0; c < columns; c++ {
					attrs = append(attrs, wgpu.VertexAttribute{
						Format:         info.Format,
						Offset:         offset,
						ShaderLocation: uint32(slot),
					})
					offset += info.FormatSize
					slot++
				}
			}
		}
	}

	if !found {
		return nil, nil
	}

	return &wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}
