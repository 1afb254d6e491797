package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/glinthq/glint/internal/log"
)

var (
	loadOnce sync.Once
	loaded   Engine
	loadErr  error
)

// Load returns the process-wide engine, constructing it on first call.
// Concurrent callers share the single in-flight load. A failed load is
// memoized, matching the once-per-process contract: the engine is either
// available for the lifetime of the process or it is not.
func Load(ctx context.Context) (Engine, error) {
	loadOnce.Do(func() {
		if err := ctx.Err(); err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrLoadFailed, err)
			return
		}
		eng, err := newChromaEngine()
		if err != nil {
			loadErr = fmt.Errorf("%w: %v", ErrLoadFailed, err)
			log.ErrorErr(log.CatEngine, "engine load failed", err)
			return
		}
		loaded = eng
		log.Info(log.CatEngine, "engine loaded")
	})
	return loaded, loadErr
}
