package compiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/prism-go/common"
)

type CompilerBuilderOption func(*compilerImpl)

// WithDefine registers a preprocessor symbol visible to every compiled stage.
// A symbol with a non-empty value also surfaces as a #define line in emitted text,
// placed immediately after the #version directive.
//
// Parameters:
//   - name: the symbol name
//   - value: the symbol value, empty for a bare defined() flag
//
// Returns:
//   - CompilerBuilderOption: a function that registers the symbol
func WithDefine(name, value string) CompilerBuilderOption {
	return func(c *compilerImpl) {
		c.defines[name] = value
	}
}

// WithLibrary registers a named source snippet resolvable via #include "name".
// Registering a name that already exists replaces the previous snippet, including
// the built-in ones.
//
// Parameters:
//   - name: the include name
//   - source: the snippet's GLSL text
//
// Returns:
//   - CompilerBuilderOption: a function that registers the snippet
func WithLibrary(name, source string) CompilerBuilderOption {
	return func(c *compilerImpl) {
		c.libraries[name] = source
	}
}

// WithWorkers sets the batch compilation worker count. Values below 1 are ignored.
//
// Parameters:
//   - workers: the number of concurrent batch workers
//
// Returns:
//   - CompilerBuilderOption: a function that sets the worker count
func WithWorkers(workers int) CompilerBuilderOption {
	return func(c *compilerImpl) {
		if workers >= 1 {
			c.workers = workers
		}
	}
}

// WithStageOrder overrides the pipeline stage order used for cross-stage interface
// linking and output ordering. The default is vertex, geometry, fragment.
//
// Parameters:
//   - stages: the pipeline stages in execution order
//
// Returns:
//   - CompilerBuilderOption: a function that sets the stage order
func WithStageOrder(stages ...common.Stage) CompilerBuilderOption {
	return func(c *compilerImpl) {
		if len(stages) > 0 {
			c.stageOrder = stages
		}
	}
}

// NewCompiler creates a Compiler with the built-in library snippets registered and
// a dynamic worker pool sized for batch compilation.
//
// Parameters:
//   - options: functional options to configure the compiler
//
// Returns:
//   - Compiler: the configured compiler
func NewCompiler(options ...CompilerBuilderOption) Compiler {
	c := &compilerImpl{
		defines:    make(map[string]string),
		libraries:  builtinLibraries(),
		stageOrder: []common.Stage{common.StageVertex, common.StageGeometry, common.StageFragment},
		workers:    max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(c)
	}

	// Initialize the pool after options so WithWorkers can override the default.
	// Queue size of 256 accommodates typical batch sizes with headroom.
	c.pool = worker.NewDynamicWorkerPool(c.workers, 256, 1*time.Second)
	return c
}
