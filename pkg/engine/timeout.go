package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chazu/geode/pkg/scene"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned by Evaluate when a newer call started before
// this one finished.
var ErrSuperseded = errors.New("engine: evaluation superseded by newer request")

type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// waitWithTimeout waits up to EvalTimeout for ch. A result whose generation
// is no longer current is dropped. After a timeout the evaluating goroutine
// may still be running; its buffered send is never read.
func waitWithTimeout(ch <-chan evalResult, gen uint64, mu *sync.Mutex, currentGen *uint64) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("engine: evaluation timed out after %s", EvalTimeout)
	}
}
