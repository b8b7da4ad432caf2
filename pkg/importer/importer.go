// Package importer builds scene graphs from Lisp scene descriptions. Each
// import runs in a fresh zygomys sandbox with a fixed set of builtins:
//
//	(scene
//	  (node "chair"
//	    (transform :translate (vec3 0 0 10))
//	    (node "seat" (box :size (vec3 40 40 4)))
//	    (endpoint (node "finish" (material "oak" :color "#c8a165")))))
//
// Keywords (:size) and kebab-case identifiers are rewritten before the
// source reaches zygomys; ; comments are accepted.
package importer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/scenecore/internal/ctxlog"
	"github.com/chazu/scenecore/pkg/scenegraph"
)

// EvalError is a non-fatal problem in the imported source: a parse error, a
// runtime error in user code, or a node that could not be inserted.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Options configures an Importer.
type Options struct {
	// Timeout bounds a single import. Zero means DefaultTimeout.
	Timeout time.Duration
	// GraphOptions are passed to scenegraph.New. The importer installs its
	// own assert handler after them.
	GraphOptions []scenegraph.Option
}

// DefaultTimeout is the hard limit for a single import.
const DefaultTimeout = 5 * time.Second

var sandboxMu sync.Mutex

// Importer evaluates scene descriptions. It is safe for concurrent use; an
// import that is overtaken by a newer one on the same Importer is discarded.
type Importer struct {
	opts Options

	mu         sync.Mutex
	generation uint64
}

// New creates an Importer.
func New(opts Options) *Importer {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Importer{opts: opts}
}

// Import evaluates source and returns the scene graph it describes.
//
// Return semantics:
//   - On success: graph, nil, nil
//   - On parse, evaluation or insertion failure: nil, eval errors, nil
//   - On fatal failure (timeout, cancellation, panic, superseded): nil, nil, error
func (im *Importer) Import(ctx context.Context, source string) (*scenegraph.SceneGraph, []EvalError, error) {
	im.mu.Lock()
	im.generation++
	gen := im.generation
	im.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during import: %v", r)}
			}
		}()
		g, evalErrs := im.evaluate(source)
		ch <- evalResult{graph: g, errors: evalErrs}
	}()

	g, evalErrs, err := im.waitWithTimeout(ctx, ch, gen)
	log := ctxlog.FromContext(ctx)
	switch {
	case err != nil:
		log.Warn("import failed", "error", err)
	case len(evalErrs) > 0:
		log.Debug("import produced errors", "count", len(evalErrs), "first", evalErrs[0].Error())
	default:
		log.Debug("import finished", "nodes", g.NodeCount())
	}
	return g, evalErrs, err
}

func (im *Importer) evaluate(source string) (*scenegraph.SceneGraph, []EvalError) {
	b := newBuilder(im.opts.GraphOptions...)

	// Empty source is a valid description of an empty scene.
	if strings.TrimSpace(source) == "" {
		return b.g, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	// zygomys keeps global state that is not safe for concurrent sandbox
	// creation.
	sandboxMu.Lock()
	env := zygo.NewZlispSandbox()
	registerBuiltins(env, b)
	sandboxMu.Unlock()
	defer env.Stop()

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.g, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
