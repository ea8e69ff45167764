// emitter.go resolves conditional-compilation regions against an explicit symbol
// bag and renders the final per-stage GLSL text. Symbols are passed in as a
// parameter, never read from ambient process state, so the same source compiles
// reproducibly and concurrently against different symbol sets. Marker blocks are
// replaced by the flattened, layout-qualified declarations produced by the
// flattener and allocator; everything else is emitted verbatim.
package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/prism-go/common"
)

var (
	// ifRegex matches #if defined(SYM) and #if !defined(SYM).
	ifRegex = regexp.MustCompile(`^\s*#\s*if\s+(!?)\s*defined\s*\(\s*(\w+)\s*\)\s*$`)

	// elifRegex matches #elif defined(SYM) and #elif !defined(SYM).
	elifRegex = regexp.MustCompile(`^\s*#\s*elif\s+(!?)\s*defined\s*\(\s*(\w+)\s*\)\s*$`)

	// elseRegex matches a bare #else.
	elseRegex = regexp.MustCompile(`^\s*#\s*else\s*$`)

	// endifRegex matches a bare #endif.
	endifRegex = regexp.MustCompile(`^\s*#\s*endif\s*$`)

	// includeRegex matches #include "name" directives resolved against the
	// compiler's registered snippet library.
	includeRegex = regexp.MustCompile(`^\s*#\s*include\s+"([^"]+)"\s*$`)

	// versionRegex matches the #version directive, after which value-carrying
	// defines are injected.
	versionRegex = regexp.MustCompile(`^\s*#\s*version\b`)
)

// condFrame tracks one open #if region during resolution.
type condFrame struct {
	// parentActive is whether the enclosing region was active.
	parentActive bool

	// active is whether the current branch emits segments.
	active bool

	// takenAny is whether any branch of this region has evaluated true yet.
	takenAny bool

	// inElse is whether #else has been seen (after which #elif is malformed).
	inElse bool

	// line is the #if line for error reporting.
	line int
}

// resolveSegments evaluates every #if defined(SYM) region against the symbol bag,
// keeping only segments of active branches, and expands #include directives from
// the registered library. Conditional directives themselves are consumed; all other
// directives pass through.
//
// Parameters:
//   - segments: the scanned segment list
//   - symbols: active symbols (stage symbol plus caller feature symbols); map
//     values are define values, which play no part in branch evaluation
//   - libraries: registered include snippets keyed by include name
//
// Returns:
//   - []segment: the active segments in source order
//   - error: a MalformedDirective or UnknownInclude fault
func resolveSegments(segments []segment, symbols map[string]string, libraries map[string]string) ([]segment, error) {
	out := make([]segment, 0, len(segments))
	var stack []condFrame

	activeHere := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].active
	}
	defined := func(negate string, sym string) bool {
		_, ok := symbols[sym]
		if negate == "!" {
			return !ok
		}
		return ok
	}

	for _, seg := range segments {
		if seg.kind == segmentDirective {
			if m := ifRegex.FindStringSubmatch(seg.text); m != nil {
				parent := activeHere()
				cond := defined(m[1], m[2])
				stack = append(stack, condFrame{
					parentActive: parent,
					active:       parent && cond,
					takenAny:     cond,
					line:         seg.line,
				})
				continue
			}
			if m := elifRegex.FindStringSubmatch(seg.text); m != nil {
				if len(stack) == 0 {
					return nil, newError(KindMalformedDirective, seg.line, "#elif without matching #if")
				}
				frame := &stack[len(stack)-1]
				if frame.inElse {
					return nil, newError(KindMalformedDirective, seg.line, "#elif after #else")
				}
				cond := defined(m[1], m[2])
				frame.active = frame.parentActive && !frame.takenAny && cond
				frame.takenAny = frame.takenAny || cond
				continue
			}
			if elseRegex.MatchString(seg.text) {
				if len(stack) == 0 {
					return nil, newError(KindMalformedDirective, seg.line, "#else without matching #if")
				}
				frame := &stack[len(stack)-1]
				if frame.inElse {
					return nil, newError(KindMalformedDirective, seg.line, "duplicate #else")
				}
				frame.active = frame.parentActive && !frame.takenAny
				frame.takenAny = true
				frame.inElse = true
				continue
			}
			if endifRegex.MatchString(seg.text) {
				if len(stack) == 0 {
					return nil, newError(KindMalformedDirective, seg.line, "#endif without matching #if")
				}
				stack = stack[:len(stack)-1]
				continue
			}
		}

		if !activeHere() {
			continue
		}

		if seg.kind == segmentDirective {
			if m := includeRegex.FindStringSubmatch(seg.text); m != nil {
				snippet, ok := libraries[m[1]]
				if !ok {
					return nil, newError(KindUnknownInclude, seg.line, "no registered library %q", m[1])
				}
				for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
					out = append(out, segment{kind: segmentCode, text: line, line: seg.line})
				}
				continue
			}
		}

		out = append(out, seg)
	}

	if len(stack) > 0 {
		return nil, newError(KindMalformedDirective, stack[len(stack)-1].line, "unterminated #if")
	}

	return out, nil
}

// emitStage renders the final GLSL text for one fully flattened and allocated
// stage schema. Block segments are replaced by their layout-qualified
// declarations; value-carrying symbols are injected as #define lines directly
// after #version; everything else is emitted verbatim, in order.
//
// Parameters:
//   - schema: the stage schema to render
//   - symbols: the symbol bag the stage was resolved against
//
// Returns:
//   - string: the compilable GLSL module text
func emitStage(schema *stageSchema, symbols map[string]string) string {
	var lines []string

	var defines []string
	for name, value := range symbols {
		if value != "" {
			defines = append(defines, fmt.Sprintf("#define %s %s", name, value))
		}
	}
	sort.Strings(defines)

	// Without a #version line there is no anchor to inject after, so the
	// defines lead the module instead of being dropped.
	if len(defines) > 0 && !hasVersionDirective(schema.segments) {
		lines = append(lines, defines...)
		defines = nil
	}

	for _, seg := range schema.segments {
		switch seg.kind {
		case segmentBlock:
			lines = append(lines, renderBlock(schema, seg.block)...)
		case segmentDirective:
			lines = append(lines, seg.text)
			if versionRegex.MatchString(seg.text) && len(defines) > 0 {
				lines = append(lines, defines...)
				defines = nil
			}
		default:
			lines = append(lines, seg.text)
		}
	}

	return strings.Join(lines, "\n")
}

func hasVersionDirective(segments []segment) bool {
	for _, seg := range segments {
		if seg.kind == segmentDirective && versionRegex.MatchString(seg.text) {
			return true
		}
	}
	return false
}

// blockStructName returns the emitted struct name for a uniform block, falling
// back to a derived name when the source omitted one.
func blockStructName(block *AttributeBlock) string {
	return common.Coalesce(block.StructName, "_block_"+block.InstanceName)
}

// renderBlock renders the declaration lines standing in for one attribute block.
// In/out blocks flatten to one declaration per field; uniform blocks render as a
// named GLSL uniform block so instance.field references remain valid verbatim.
func renderBlock(schema *stageSchema, block *AttributeBlock) []string {
	if block.Direction == common.DirectionUniform {
		return renderUniformBlock(schema, block)
	}

	lines := make([]string, 0, len(block.Fields))
	for _, field := range block.Fields {
		slot := schema.slots[block.InstanceName][field.Name]
		lines = append(lines, declarationFor(schema.stage, block, field, slot))
	}
	return lines
}

// renderUniformBlock renders a uniform block declaration with its assigned set and
// binding.
func renderUniformBlock(schema *stageSchema, block *AttributeBlock) []string {
	lines := make([]string, 0, len(block.Fields)+2)
	lines = append(lines, fmt.Sprintf("layout(set = %d, binding = %d) uniform %s {",
		block.Set, schema.bindings[block.InstanceName], blockStructName(block)))
	for _, field := range block.Fields {
		suffix := ""
		if field.ArrayLen > 0 {
			suffix = fmt.Sprintf("[%d]", field.ArrayLen)
		}
		lines = append(lines, fmt.Sprintf("    %s %s%s;", field.Type, field.Name, suffix))
	}
	lines = append(lines, fmt.Sprintf("} %s;", block.InstanceName))
	return lines
}
