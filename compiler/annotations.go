// annotations.go defines the attribute marker parser for the Prism shader compiler.
// Markers are single-line attributes of the form #[kind(direction[, set=N][, binding=N])]
// placed immediately before a struct literal and instance name. The parsed results
// are stored as AttributeBlock values and consumed by the flattener, allocator,
// linker, emitter, and reflection builder.
//
// Marker kinds:
//   - bindgen: the struct is a user-specified I/O surface meant to interoperate with
//     host-side vertex-buffer layout or uniform-buffer contents.
//   - gen: the struct is a compiler-synthesized interface between two shader stages.
//
// The parse is pure: the same input text always yields the same AttributeBlock
// sequence in source order.
package compiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/prism-go/common"
)

var (
	// markerRegex matches a full marker line and captures the kind and argument list.
	markerRegex = regexp.MustCompile(`^\s*#\[\s*([A-Za-z_]+)\s*\(\s*([^)]*?)\s*\)\s*\]\s*$`)

	// structLiteralRegex matches a complete struct literal with optional struct name,
	// a brace-delimited body, and a trailing instance name. The body capture excludes
	// braces, so nested braces never occur.
	structLiteralRegex = regexp.MustCompile(`(?s)^\s*struct\b\s*(\w+)?\s*\{([^}]*)\}\s*(\w+)\s*;\s*(?://[^\n]*)?\s*$`)

	// blockFieldRegex matches one struct field declaration: type, name, and an
	// optional fixed or empty array suffix.
	blockFieldRegex = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*(?:\[\s*(\d*)\s*\])?\s*$`)
)

// parseMarker parses a single marker line into its kind, direction, and layout
// arguments. The line must already be known to be a marker segment.
//
// Parameters:
//   - text: the raw marker line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *AttributeBlock: a block with Kind, Direction, Set, ExplicitBinding, and Line
//     populated (struct fields are filled in by parseBlocks)
//   - error: a MalformedAttribute error when the marker syntax or tokens are
//     unrecognized
func parseMarker(text string, lineNum int) (*AttributeBlock, error) {
	m := markerRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, newError(KindMalformedAttribute, lineNum, "unrecognized marker syntax %q", strings.TrimSpace(text))
	}

	block := &AttributeBlock{Line: lineNum}
	switch m[1] {
	case "bindgen":
		block.Kind = BlockBindGen
	case "gen":
		block.Kind = BlockGen
	default:
		return nil, newError(KindMalformedAttribute, lineNum, "unknown marker kind %q", m[1])
	}

	args := strings.Split(m[2], ",")
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return nil, newError(KindMalformedAttribute, lineNum, "marker %q requires a direction argument", m[1])
	}

	dir, ok := common.DirectionFromName(strings.TrimSpace(args[0]))
	if !ok {
		return nil, newError(KindMalformedAttribute, lineNum, "unknown marker direction %q", strings.TrimSpace(args[0]))
	}
	block.Direction = dir

	if block.Kind == BlockGen && dir == common.DirectionUniform {
		return nil, newError(KindMalformedAttribute, lineNum, "gen markers declare stage interfaces and cannot be uniform")
	}

	for _, arg := range args[1:] {
		name, value, found := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !found || value == "" {
			return nil, newError(KindMalformedAttribute, lineNum, "marker argument %q is not of the form name=value", strings.TrimSpace(arg))
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, newError(KindMalformedAttribute, lineNum, "marker argument %q requires a non-negative integer, got %q", name, value)
		}
		switch name {
		case "binding":
			if dir != common.DirectionUniform {
				return nil, newError(KindMalformedAttribute, lineNum, "binding argument is only valid on uniform markers")
			}
			if block.ExplicitBinding != nil {
				return nil, newError(KindMalformedAttribute, lineNum, "duplicate binding argument")
			}
			b := n
			block.ExplicitBinding = &b
		case "set":
			if dir != common.DirectionUniform {
				return nil, newError(KindMalformedAttribute, lineNum, "set argument is only valid on uniform markers")
			}
			block.Set = n
		default:
			return nil, newError(KindMalformedAttribute, lineNum, "unknown marker argument %q", name)
		}
	}

	return block, nil
}

// parseStructLiteral parses the struct literal text following a marker into the
// block's struct name, ordered field list, and instance name.
//
// Parameters:
//   - block: the partially populated block from parseMarker
//   - literal: the struct literal text (may span multiple source lines)
//   - stage: the stage being compiled, used to validate geometry fan-in arrays
//
// Returns:
//   - error: MissingStructBody when the text is not a struct literal,
//     MalformedAttribute for unparsable fields, UnsupportedType for field types
//     outside the compiler's type table or gen-interface restrictions
func parseStructLiteral(block *AttributeBlock, literal string, stage common.Stage) error {
	m := structLiteralRegex.FindStringSubmatch(literal)
	if m == nil {
		return newError(KindMissingStructBody, block.Line, "%s(%s) marker is not followed by a struct literal and instance name", block.Kind, block.Direction)
	}

	block.StructName = m[1]
	block.InstanceName = m[3]

	for _, decl := range strings.Split(m[2], ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}

		fm := blockFieldRegex.FindStringSubmatch(decl)
		if fm == nil {
			return newError(KindMalformedAttribute, block.Line, "unparsable field declaration %q in block %q", decl, block.InstanceName)
		}

		field := Field{Type: fm[1], Name: fm[2]}
		if strings.Contains(decl, "[") {
			if fm[3] == "" {
				field.ArrayLen = ArrayUnsized
			} else {
				n, err := strconv.Atoi(fm[3])
				if err != nil || n <= 0 {
					return newError(KindMalformedAttribute, block.Line, "invalid array length %q on field %q", fm[3], field.Name)
				}
				field.ArrayLen = n
			}
		}

		// Membership in the type table is the scalar/vector/matrix restriction:
		// struct-typed and opaque fields have no entry.
		if _, ok := common.LookupType(field.Type); !ok {
			return newError(KindUnsupportedType, block.Line, "field %q has unknown type %q", field.Name, field.Type)
		}

		if block.Kind == BlockGen {
			if field.ArrayLen != 0 && !(stage == common.StageGeometry && block.Direction == common.DirectionIn) {
				return newError(KindUnsupportedType, block.Line,
					"array field %q is only permitted in a geometry stage gen-input block (per-vertex fan-in)", field.Name)
			}
		}

		block.Fields = append(block.Fields, field)
	}

	if len(block.Fields) == 0 {
		return newError(KindMissingStructBody, block.Line, "block %q declares no fields", block.InstanceName)
	}

	return nil
}

// parseBlocks walks a stage-resolved segment list and replaces each marker segment
// plus the struct literal lines after it with a single parsed block segment. All
// other segments pass through untouched, in order.
//
// Parameters:
//   - segments: the conditional-resolved segment list for one stage
//   - stage: the stage being compiled
//
// Returns:
//   - []segment: the segment list with markers replaced by block segments
//   - []*AttributeBlock: the parsed blocks in source order
//   - error: the first marker or struct literal fault encountered
func parseBlocks(segments []segment, stage common.Stage) ([]segment, []*AttributeBlock, error) {
	out := make([]segment, 0, len(segments))
	var blocks []*AttributeBlock
	instanceLines := make(map[string]int)

	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		if seg.kind != segmentMarker {
			out = append(out, seg)
			continue
		}

		block, err := parseMarker(seg.text, seg.line)
		if err != nil {
			return nil, nil, err
		}

		// Gather the struct literal: consume following lines until the closing
		// brace and its trailing instance declaration have been seen.
		var literal strings.Builder
		consumed := 0
		complete := false
		for j := i + 1; j < len(segments); j++ {
			next := segments[j]
			if next.kind == segmentMarker {
				break
			}
			if literal.Len() > 0 {
				literal.WriteByte('\n')
			}
			literal.WriteString(next.text)
			consumed++
			if structLiteralRegex.MatchString(literal.String()) {
				complete = true
				break
			}
		}
		if !complete {
			return nil, nil, newError(KindMissingStructBody, seg.line, "%s(%s) marker is not followed by a struct literal and instance name", block.Kind, block.Direction)
		}

		if err := parseStructLiteral(block, literal.String(), stage); err != nil {
			return nil, nil, err
		}

		// Instance names key the slot and binding tables, so a duplicate would
		// silently overwrite an earlier block's assignments.
		if prev, taken := instanceLines[block.InstanceName]; taken {
			return nil, nil, newError(KindMalformedAttribute, block.Line,
				"instance name %q already declared by the block at line %d", block.InstanceName, prev)
		}
		instanceLines[block.InstanceName] = block.Line

		blocks = append(blocks, block)
		out = append(out, segment{kind: segmentBlock, line: seg.line, block: block})
		i += consumed
	}

	return out, blocks, nil
}
