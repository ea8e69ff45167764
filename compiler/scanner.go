// scanner.go implements the lexical/directive scanner, the first pass of the
// pipeline. It splits raw annotated GLSL into line-granular segments - preprocessor
// directives, attribute marker lines, and literal code - preserving source order and
// keeping unannotated code verbatim. Later passes consume the segment list; the
// scanner itself interprets nothing.
package compiler

import "strings"

// segmentKind classifies one scanned source segment.
type segmentKind int

const (
	// segmentCode is a literal code line passed through verbatim (after field
	// reference rewriting).
	segmentCode segmentKind = iota

	// segmentDirective is a preprocessor directive line (#version, #extension,
	// #define, #include, #if/#elif/#else/#endif).
	segmentDirective

	// segmentMarker is an attribute marker line (#[...]). The attribute parser
	// replaces a marker segment and its struct literal lines with a single block
	// segment.
	segmentMarker

	// segmentBlock is a parsed attribute block standing in for the marker and its
	// struct literal. Produced by the attribute parser, consumed by the emitter.
	segmentBlock
)

// segment is one scanned span of source. Exactly one of text/block is meaningful:
// text for code, directive, and marker segments, block for block segments.
type segment struct {
	kind  segmentKind
	text  string
	line  int
	block *AttributeBlock
}

// scanSource splits raw source into ordered line segments. Every input line appears
// in exactly one segment; nothing is reordered or dropped.
//
// Parameters:
//   - source: the raw annotated GLSL text
//
// Returns:
//   - []segment: one segment per source line, in source order
func scanSource(source string) []segment {
	lines := strings.Split(source, "\n")
	segments := make([]segment, 0, len(lines))

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		kind := segmentCode
		switch {
		case strings.HasPrefix(trimmed, "#["):
			kind = segmentMarker
		case strings.HasPrefix(trimmed, "#"):
			kind = segmentDirective
		}
		segments = append(segments, segment{kind: kind, text: line, line: i + 1})
	}

	return segments
}
