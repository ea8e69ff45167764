// linker.go validates the generated interfaces between adjacent pipeline stages.
// Two independently declared gen blocks are deemed compatible by shape, never by
// nominal struct identity: the producing stage's gen-output field sequence must be
// reproduced exactly - same names, same types, same order, same assigned location
// slots - by the consuming stage's gen-input sequence. This is the primary correctness guarantee of the
// whole pipeline: it prevents a vertex output location from silently aliasing a
// fragment input location of a different type.
package compiler

import "github.com/Carmen-Shannon/prism-go/common"

// genInterface collects a stage's gen-block field sequence for one direction, in
// block and field declaration order, with each field's assigned first slot.
// Geometry fan-in arrays are stripped to their element type: the array models
// per-vertex replication of the producing stage's scalar output, not a distinct
// interface type.
func (s *stageSchema) genInterface(dir common.Direction) StageInterface {
	iface := StageInterface{Stage: s.stage}
	for _, block := range s.blocks {
		if block.Kind != BlockGen || block.Direction != dir {
			continue
		}
		for _, field := range block.Fields {
			iface.Fields = append(iface.Fields, InterfaceField{
				Name: field.Name,
				Type: field.Type,
				Slot: s.slots[block.InstanceName][field.Name],
			})
		}
	}
	return iface
}

// linkStages checks every adjacent pair of the declared stage order. Compute
// schemas never participate. Equal interface sequences pass silently; the first
// divergence fails with a StageInterfaceMismatch naming the divergent field and
// both stages involved.
//
// Parameters:
//   - order: the declared render stage order (e.g. vertex, geometry, fragment)
//   - schemas: the compiled per-stage schemas, keyed by stage
//
// Returns:
//   - error: the first StageInterfaceMismatch found, or nil
func linkStages(order []common.Stage, schemas map[common.Stage]*stageSchema) error {
	var present []*stageSchema
	for _, stage := range order {
		if stage == common.StageCompute {
			continue
		}
		if schema, ok := schemas[stage]; ok {
			present = append(present, schema)
		}
	}

	for i := 0; i+1 < len(present); i++ {
		producer, consumer := present[i], present[i+1]
		out := producer.genInterface(common.DirectionOut)
		in := consumer.genInterface(common.DirectionIn)
		if err := matchInterfaces(out, in); err != nil {
			return err
		}
	}

	return nil
}

// matchInterfaces compares a producing interface against a consuming interface
// field-by-field.
func matchInterfaces(out, in StageInterface) error {
	mismatch := func(format string, args ...any) error {
		err := newError(KindStageInterfaceMismatch, 0, format, args...)
		err.Stage = in.Stage
		err.HasStage = true
		return err
	}

	for i := 0; i < len(out.Fields) && i < len(in.Fields); i++ {
		produced, consumed := out.Fields[i], in.Fields[i]
		if produced.Name != consumed.Name {
			return mismatch("%s output field %d is %q but %s input field %d is %q (name/order mismatch)",
				out.Stage, i, produced.Name, in.Stage, i, consumed.Name)
		}
		if produced.Type != consumed.Type {
			return mismatch("field %q is %s in %s output but %s in %s input",
				produced.Name, produced.Type, out.Stage, consumed.Type, in.Stage)
		}
		// Slots are allocated positionally across every block of a direction
		// group, so a bindgen block declared before the gen block can shift
		// the gen fields even when the shapes agree.
		if produced.Slot != consumed.Slot {
			return mismatch("field %q occupies location %d in %s output but location %d in %s input",
				produced.Name, produced.Slot, out.Stage, consumed.Slot, in.Stage)
		}
	}

	if len(out.Fields) > len(in.Fields) {
		missing := out.Fields[len(in.Fields)]
		return mismatch("%s output field %q has no matching %s input", out.Stage, missing.Name, in.Stage)
	}
	if len(in.Fields) > len(out.Fields) {
		extra := in.Fields[len(out.Fields)]
		return mismatch("%s input field %q has no matching %s output", in.Stage, extra.Name, out.Stage)
	}

	return nil
}
