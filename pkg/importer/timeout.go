package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/scenecore/pkg/scenegraph"
)

// ErrSuperseded is returned when a newer Import on the same Importer started
// before this one finished.
var ErrSuperseded = errors.New("import superseded by newer request")

type evalResult struct {
	graph  *scenegraph.SceneGraph
	errors []EvalError
	err    error
}

// waitWithTimeout waits for the result of generation gen. On timeout or
// cancellation the evaluating goroutine keeps running; its result lands in
// the buffered channel and is dropped.
func (im *Importer) waitWithTimeout(ctx context.Context, ch <-chan evalResult, gen uint64) (*scenegraph.SceneGraph, []EvalError, error) {
	timer := time.NewTimer(im.opts.Timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		im.mu.Lock()
		current := im.generation
		im.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.graph, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("import timed out after %s", im.opts.Timeout)

	case <-ctx.Done():
		return nil, nil, fmt.Errorf("import cancelled: %w", ctx.Err())
	}
}
