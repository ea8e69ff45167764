// flattener.go expands tagged struct blocks into flat per-field declarations and
// rewrites instance.field references in the code that follows them. Rewriting is
// textual but token-aware: only whole instance.field tokens are touched, never
// identifiers that merely share a substring. The pass is idempotent - flattened
// output contains no instance.field tokens, so a second run is a no-op.
package compiler

import (
	"fmt"
	"regexp"

	"github.com/Carmen-Shannon/prism-go/common"
)

// flattenedName builds the deterministic flat identifier for a block field, e.g.
// _vert_in_pos for field "pos" of a vertex-stage input block.
//
// Parameters:
//   - stage: the stage the block is compiled for
//   - dir: the block direction
//   - field: the original field name
//
// Returns:
//   - string: the flattened identifier
func flattenedName(stage common.Stage, dir common.Direction, field string) string {
	return "_" + stage.ShortName() + "_" + dir.String() + "_" + field
}

// blockRewriter rewrites one block's instance.field references in a code line.
type blockRewriter struct {
	block *AttributeBlock

	// pattern matches instance.field with a non-identifier guard on the left so
	// tokens that merely end in the instance name are never rewritten.
	pattern *regexp.Regexp

	// replacements maps field name to replacement token. Uniform blocks keep their
	// instance.field spelling (a named GLSL uniform block makes it valid verbatim),
	// so their map values equal the matched text and the rewriter only validates.
	replacements map[string]string
}

// newBlockRewriter prepares the reference rewriter for a parsed block.
func newBlockRewriter(block *AttributeBlock, stage common.Stage) *blockRewriter {
	pattern := regexp.MustCompile(`(^|[^A-Za-z0-9_.])` + regexp.QuoteMeta(block.InstanceName) + `\.([A-Za-z_][A-Za-z0-9_]*)`)

	replacements := make(map[string]string, len(block.Fields))
	for _, f := range block.Fields {
		if block.Direction == common.DirectionUniform {
			replacements[f.Name] = block.InstanceName + "." + f.Name
		} else {
			replacements[f.Name] = flattenedName(stage, block.Direction, f.Name)
		}
	}

	return &blockRewriter{block: block, pattern: pattern, replacements: replacements}
}

// rewrite applies the rewriter to one code line, replacing whole instance.field
// tokens with their flattened names and failing on references to undeclared fields.
//
// Parameters:
//   - text: the code line to rewrite
//   - line: the 1-based line number for error reporting
//
// Returns:
//   - string: the rewritten line
//   - error: an UnknownFieldReference error naming the offending field
func (r *blockRewriter) rewrite(text string, line int) (string, error) {
	var rewriteErr error
	rewritten := r.pattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := r.pattern.FindStringSubmatch(match)
		field := sub[2]
		replacement, ok := r.replacements[field]
		if !ok {
			if rewriteErr == nil {
				rewriteErr = newError(KindUnknownFieldReference, line,
					"block %q has no field %q (referenced as %s.%s)", r.block.InstanceName, field, r.block.InstanceName, field)
			}
			return match
		}
		return sub[1] + replacement
	})
	if rewriteErr != nil {
		return "", rewriteErr
	}
	return rewritten, nil
}

// flattenSegments rewrites every code segment against the blocks declared before it
// in source order. Block and directive segments pass through untouched; block
// declarations themselves are expanded later by the emitter, once locations and
// bindings have been assigned.
//
// Parameters:
//   - segments: the parsed segment list for one stage
//   - stage: the stage being compiled
//
// Returns:
//   - []segment: the segment list with code references rewritten
//   - error: the first UnknownFieldReference fault encountered
func flattenSegments(segments []segment, stage common.Stage) ([]segment, error) {
	out := make([]segment, 0, len(segments))
	var active []*blockRewriter

	for _, seg := range segments {
		switch seg.kind {
		case segmentBlock:
			active = append(active, newBlockRewriter(seg.block, stage))
			out = append(out, seg)
		case segmentCode:
			text := seg.text
			for _, r := range active {
				rewritten, err := r.rewrite(text, seg.line)
				if err != nil {
					return nil, err
				}
				text = rewritten
			}
			out = append(out, segment{kind: segmentCode, text: text, line: seg.line})
		default:
			out = append(out, seg)
		}
	}

	return out, nil
}

// declarationFor renders the flattened GLSL declaration line for one field of an
// in/out block, with its assigned location slot.
//
// Parameters:
//   - stage: the stage the declaration is emitted for
//   - block: the field's block
//   - field: the field to declare
//   - slot: the assigned location slot
//
// Returns:
//   - string: one layout-qualified GLSL declaration line
func declarationFor(stage common.Stage, block *AttributeBlock, field Field, slot int) string {
	suffix := ""
	switch {
	case field.ArrayLen == ArrayUnsized:
		suffix = "[]"
	case field.ArrayLen > 0:
		suffix = fmt.Sprintf("[%d]", field.ArrayLen)
	}
	return fmt.Sprintf("layout(location = %d) %s %s %s%s;",
		slot, block.Direction, field.Type, flattenedName(stage, block.Direction, field.Name), suffix)
}
