// compiler.go wires the per-stage passes into the public Compiler surface. A
// single annotated GLSL source produces one compiled shader per requested stage,
// each with its own preprocessed text and reflection metadata, linked against its
// pipeline neighbours.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/prism-go/common"
)

// Compiler transforms annotated GLSL sources into per-stage GLSL text plus the
// binding and vertex-input metadata needed to build a render or compute pipeline.
type Compiler interface {
	// Compile compiles one source for the given stages. When no stages are passed,
	// the stage set is inferred from the source path and the stage symbols the
	// source's conditional directives reference.
	//
	// Parameters:
	//   - src: the annotated source to compile
	//   - stages: the stages to compile for, in pipeline order
	//
	// Returns:
	//   - []CompiledStage: one entry per stage, in pipeline order
	//   - error: the first scan, parse, allocation, link, or layout fault
	Compile(src ShaderSource, stages ...common.Stage) ([]CompiledStage, error)

	// CompileBatch compiles many sources concurrently. Each source is compiled
	// independently with inferred stages; one source's failure never affects
	// another's result.
	//
	// Parameters:
	//   - srcs: the sources to compile
	//
	// Returns:
	//   - BatchResult: compiled stages and errors keyed by source path
	CompileBatch(srcs []ShaderSource) BatchResult
}

type compilerImpl struct {
	defines    map[string]string
	libraries  map[string]string
	stageOrder []common.Stage
	workers    int
	pool       worker.DynamicWorkerPool
}

var _ Compiler = &compilerImpl{}

func (c *compilerImpl) Compile(src ShaderSource, stages ...common.Stage) ([]CompiledStage, error) {
	if len(stages) == 0 {
		stages = c.inferStages(src)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("no stages requested and none inferrable from %q", src.Path)
	}

	segments := scanSource(src.Source)

	schemas := make(map[common.Stage]*stageSchema, len(stages))
	for _, stage := range stages {
		schema, err := c.compileStage(segments, stage)
		if err != nil {
			return nil, err
		}
		schemas[stage] = schema
	}

	if err := linkStages(c.stageOrder, schemas); err != nil {
		return nil, err
	}

	// Pipeline-order stages first, then stages outside the configured order
	// (compute) in request order.
	ordered := make([]common.Stage, 0, len(stages))
	for _, stage := range c.stageOrder {
		if _, ok := schemas[stage]; ok {
			ordered = append(ordered, stage)
		}
	}
	for _, stage := range stages {
		if _, ok := schemas[stage]; ok && !containsStage(ordered, stage) {
			ordered = append(ordered, stage)
		}
	}

	out := make([]CompiledStage, 0, len(ordered))
	for _, stage := range ordered {
		schema := schemas[stage]
		meta, err := buildReflection(schema)
		if err != nil {
			return nil, withStage(err, stage)
		}
		text := emitStage(schema, c.stageSymbols(stage))
		out = append(out, CompiledStage{Stage: stage, Text: text, Meta: meta})
	}

	return out, nil
}

func containsStage(stages []common.Stage, stage common.Stage) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

// compileStage runs the per-stage pass chain: conditional resolution, block
// parsing, flattening, then location and binding allocation.
func (c *compilerImpl) compileStage(segments []segment, stage common.Stage) (*stageSchema, error) {
	resolved, err := resolveSegments(segments, c.stageSymbols(stage), c.libraries)
	if err != nil {
		return nil, withStage(err, stage)
	}
	parsed, blocks, err := parseBlocks(resolved, stage)
	if err != nil {
		return nil, withStage(err, stage)
	}
	flattened, err := flattenSegments(parsed, stage)
	if err != nil {
		return nil, withStage(err, stage)
	}

	schema := &stageSchema{
		stage:    stage,
		segments: flattened,
		blocks:   blocks,
		slots:    make(map[string]map[string]int),
		bindings: make(map[string]int),
	}
	schema.allocateLocations()
	if err := schema.allocateBindings(); err != nil {
		return nil, withStage(err, stage)
	}
	return schema, nil
}

// stageSymbols merges the configured defines with the active stage's symbol.
// The stage symbol carries no value, so it never surfaces as a #define line.
func (c *compilerImpl) stageSymbols(stage common.Stage) map[string]string {
	symbols := make(map[string]string, len(c.defines)+1)
	for name, value := range c.defines {
		symbols[name] = value
	}
	symbols[stage.Symbol()] = ""
	return symbols
}

// inferStages determines the stage set for a source with no explicit stages.
// A stage suffix in the path wins outright; otherwise every stage whose symbol
// appears in a conditional directive is compiled, and a source referencing no
// stage symbols compiles as a lone vertex stage.
func (c *compilerImpl) inferStages(src ShaderSource) []common.Stage {
	if stage, ok := common.StageFromPath(src.Path); ok {
		return []common.Stage{stage}
	}

	var stages []common.Stage
	for _, stage := range []common.Stage{common.StageVertex, common.StageGeometry, common.StageFragment, common.StageCompute} {
		if referencesSymbol(src.Source, stage.Symbol()) {
			stages = append(stages, stage)
		}
	}
	if len(stages) == 0 {
		stages = []common.Stage{common.StageVertex}
	}
	return stages
}

// referencesSymbol reports whether any conditional directive in the source tests
// the given symbol.
func referencesSymbol(source, symbol string) bool {
	for _, line := range strings.Split(source, "\n") {
		m := ifRegex.FindStringSubmatch(line)
		if m == nil {
			m = elifRegex.FindStringSubmatch(line)
		}
		if m != nil && m[2] == symbol {
			return true
		}
	}
	return false
}

// withStage attaches the stage to a compiler error that does not carry one yet.
func withStage(err error, stage common.Stage) error {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.withStage(stage)
	}
	return err
}
