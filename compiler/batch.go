package compiler

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

func (c *compilerImpl) CompileBatch(srcs []ShaderSource) BatchResult {
	result := BatchResult{
		Compiled: make(map[string][]CompiledStage, len(srcs)),
		Errors:   make(map[string]error),
	}
	if len(srcs) == 0 {
		return result
	}

	// A WaitGroup provides the batch barrier since pool.Wait() blocks until
	// workers idle-exit, which would stall every batch by the idle timeout.
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		srcCap := src // capture for closure
		c.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				compiled, err := c.Compile(srcCap)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					log.Printf("compiler: %s: %v", srcCap.Path, err)
					result.Errors[srcCap.Path] = err
					return nil, err
				}
				result.Compiled[srcCap.Path] = compiled
				return nil, nil
			},
		})
	}
	wg.Wait()

	return result
}
