// allocator.go assigns location slots and uniform bindings for one stage. Location
// allocation is purely positional: slots run start-to-end in declaration order per
// (stage, direction) group, and multi-slot types (matrices, arrays) consume
// consecutive slots. Binding allocation honors explicit bindings first and fills the
// gaps with the lowest unused integer per descriptor set.
package compiler

import (
	"sort"

	"github.com/Carmen-Shannon/prism-go/common"
)

// stageSchema is the per-stage intermediate produced by scan/parse/flatten and
// consumed by the linker, emitter, and reflection builder.
type stageSchema struct {
	// stage is the stage this schema describes.
	stage common.Stage

	// segments is the stage-resolved, flattened segment list.
	segments []segment

	// blocks is every parsed block in source order.
	blocks []*AttributeBlock

	// slots maps block instance name and field name to the field's first location
	// slot. Populated for in/out blocks only.
	slots map[string]map[string]int

	// bindings maps uniform block instance name to its assigned binding.
	bindings map[string]int

	// locations is the ordered reflection view of slot assignments, inputs first.
	locations []LocationEntry
}

// slotCount returns the number of location slots one field consumes: the type's
// slot count multiplied by the array length for sized arrays. Unsized geometry
// fan-in arrays consume the element's slots once, since every per-vertex copy
// shares the same location.
func slotCount(field Field) int {
	info, _ := common.LookupType(field.Type)
	n := info.Slots
	if field.ArrayLen > 0 {
		n *= field.ArrayLen
	}
	return n
}

// allocateLocations assigns contiguous location slots starting at 0 for each
// direction group of the stage, in block and field declaration order. No two fields
// in a group ever share a slot because allocation is purely positional.
func (s *stageSchema) allocateLocations() {
	for _, dir := range []common.Direction{common.DirectionIn, common.DirectionOut} {
		next := 0
		for _, block := range s.blocks {
			if block.Direction != dir {
				continue
			}
			for _, field := range block.Fields {
				if s.slots[block.InstanceName] == nil {
					s.slots[block.InstanceName] = make(map[string]int, len(block.Fields))
				}
				s.slots[block.InstanceName][field.Name] = next
				s.locations = append(s.locations, LocationEntry{
					Direction: dir,
					Field:     field.Name,
					Type:      field.Type,
					Slot:      next,
				})
				next += slotCount(field)
			}
		}
	}
}

// allocateBindings assigns uniform bindings per descriptor set: explicit bindings
// are honored first and must be unique within their set, then the remaining blocks
// receive the lowest unused integer in source order.
//
// Returns:
//   - error: a BindingCollision error when two blocks in one set claim the same
//     explicit binding
func (s *stageSchema) allocateBindings() error {
	used := make(map[int]map[int]string)

	claim := func(set, binding int, instance string, line int) error {
		if used[set] == nil {
			used[set] = make(map[int]string)
		}
		if prev, taken := used[set][binding]; taken {
			return newError(KindBindingCollision, line,
				"uniform blocks %q and %q both claim binding %d in set %d", prev, instance, binding, set)
		}
		used[set][binding] = instance
		return nil
	}

	for _, block := range s.blocks {
		if block.Direction != common.DirectionUniform || block.ExplicitBinding == nil {
			continue
		}
		if err := claim(block.Set, *block.ExplicitBinding, block.InstanceName, block.Line); err != nil {
			return err
		}
		s.bindings[block.InstanceName] = *block.ExplicitBinding
	}

	for _, block := range s.blocks {
		if block.Direction != common.DirectionUniform || block.ExplicitBinding != nil {
			continue
		}
		binding := 0
		for used[block.Set][binding] != "" {
			binding++
		}
		if err := claim(block.Set, binding, block.InstanceName, block.Line); err != nil {
			return err
		}
		s.bindings[block.InstanceName] = binding
	}

	return nil
}

// uniformBlocks returns the stage's uniform blocks sorted by (set, binding) for
// deterministic reflection output.
func (s *stageSchema) uniformBlocks() []*AttributeBlock {
	var blocks []*AttributeBlock
	for _, block := range s.blocks {
		if block.Direction == common.DirectionUniform {
			blocks = append(blocks, block)
		}
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Set != blocks[j].Set {
			return blocks[i].Set < blocks[j].Set
		}
		return s.bindings[blocks[i].InstanceName] < s.bindings[blocks[j].InstanceName]
	})
	return blocks
}
