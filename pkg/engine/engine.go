// Package engine evaluates geode scene scripts. Scripts are zygomys Lisp run
// in a sandbox; the builtins they call populate a scene.Scene.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/geode/pkg/scene"
)

// EvalError is a non-fatal error in user code, such as a parse error or a
// builtin rejecting its arguments.
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

// Engine runs scene scripts. It is safe for concurrent use; every call to
// Evaluate gets a fresh sandbox.
type Engine struct {
	mu                sync.Mutex
	generation        uint64
	defaultResolution int
}

// NewEngine creates an Engine whose spheres default to
// scene.DefaultResolution.
func NewEngine() *Engine {
	return &Engine{defaultResolution: scene.DefaultResolution}
}

// SetDefaultResolution changes the resolution given to spheres that neither
// the script's defaults form nor the sphere call configure.
func (e *Engine) SetDefaultResolution(r int) {
	e.mu.Lock()
	e.defaultResolution = r
	e.mu.Unlock()
}

// Evaluate runs source and returns the scene it describes.
//
//   - success: scene, nil, nil
//   - parse or runtime failure in the script: nil, eval errors, nil
//   - timeout, panic or a newer Evaluate call: nil, nil, error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	defaults := scene.SphereMeshComponent{Resolution: e.defaultResolution}
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := evaluate(source, defaults)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func evaluate(source string, defaults scene.SphereMeshComponent) (*scene.Scene, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return scene.New(), nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()

	st := &scriptState{scene: scene.New(), defaults: defaults}
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return st.scene, nil, nil
}

// zygomys reports "Error on line N: ..." for most failures.
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, pulling out the
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
