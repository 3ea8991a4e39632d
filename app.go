package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/geode/pkg/config"
	"github.com/chazu/geode/pkg/editor"
	"github.com/chazu/geode/pkg/engine"
	"github.com/chazu/geode/pkg/icosphere"
	"github.com/chazu/geode/pkg/kernel"
	"github.com/chazu/geode/pkg/kernel/sdfx"
	"github.com/chazu/geode/pkg/regen"
	"github.com/chazu/geode/pkg/scene"
)

// colorPalette assigns distinct colors to entities by position.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the application backend: it evaluates scene scripts, keeps the
// sphere meshes current and hands them to whatever renders them.
type App struct {
	cfg       config.Config
	engine    *engine.Engine
	regen     *regen.Regenerator
	debouncer *regen.Debouncer
	panel     editor.Panel

	mu    sync.Mutex
	scene *scene.Scene // last successfully evaluated scene
}

// MeshData is the JSON-serializable mesh format sent to the renderer.
type MeshData struct {
	Vertices   []float32 `json:"vertices"`
	Normals    []float32 `json:"normals"`
	Indices    []uint32  `json:"indices"`
	EntityName string    `json:"entityName"`
	Resolution int       `json:"resolution"`
	Color      string    `json:"color"`
}

// EvalErrorData is a JSON-serializable error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of an evaluation or edit.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

func newResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
}

func (r *EvalResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, EvalErrorData{Message: fmt.Sprintf(format, args...)})
}

// NewApp creates an App from cfg. cfg is assumed valid; an unknown kernel
// name falls back to the icosphere generator.
func NewApp(cfg config.Config) *App {
	eng := engine.NewEngine()
	eng.SetDefaultResolution(cfg.StartResolution())

	rg := regen.New(newKernel(cfg.Kernel), cfg.WorkerCount(), cfg.MaxResolution)

	a := &App{
		cfg:    cfg,
		engine: eng,
		regen:  rg,
		scene:  scene.New(),
	}
	a.debouncer = regen.NewDebouncerFunc(a.applyEdit, cfg.Debounce, func(updated []scene.EntityID, err error) {
		if err != nil {
			log.Printf("Debounced regeneration failed: %v", err)
		}
	})
	return a
}

func newKernel(name string) kernel.Kernel {
	switch name {
	case config.KernelSdfx:
		return sdfx.New()
	default:
		return icosphere.Kernel{}
	}
}

// Evaluate runs a scene script and regenerates the meshes whose resolution
// changed since the previous successful evaluation.
func (a *App) Evaluate(source string) EvalResult {
	result := newResult()

	// Step 1: run the script.
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		result.fail("%s", err.Error())
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 2: validate. Errors block regeneration; warnings are reported.
	v := scene.Validate(s, a.cfg.MaxResolution)
	result.Warnings = append(result.Warnings, toErrorData(v.Warnings)...)
	if len(v.Errors) > 0 {
		result.Errors = append(result.Errors, toErrorData(v.Errors)...)
		return result
	}

	// Step 3: regenerate changed entities and publish.
	a.mu.Lock()
	defer a.mu.Unlock()

	updated, err := a.regen.Sync(s)
	if err != nil {
		log.Printf("Regeneration error: %v", err)
		result.fail("regeneration failed: %s", err.Error())
		return result
	}
	a.scene = s
	a.debouncer.Discard()
	if len(updated) > 0 {
		log.Printf("Evaluate: %d entities, %d regenerated", s.Len(), len(updated))
	}

	result.Meshes = a.Meshes()
	return result
}

// SetResolution applies the text of an entity's resolution field. Invalid
// text is reported and leaves the previous mesh published; a valid value
// regenerates only that entity.
func (a *App) SetResolution(name, text string) EvalResult {
	result := newResult()

	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.scene.Lookup(name)
	if e == nil {
		result.fail("no entity named %q", name)
		result.Meshes = a.Meshes()
		return result
	}
	if _, err := editor.ParseResolution(text); err != nil {
		result.fail("%s: %s", name, err.Error())
		result.Meshes = a.Meshes()
		return result
	}

	if editor.ApplyText(&e.Sphere, text) {
		if r := e.Sphere.Resolution; a.cfg.MaxResolution > 0 && r > a.cfg.MaxResolution {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Message: fmt.Sprintf("%q: resolution %d exceeds limit %d and will be clamped", name, r, a.cfg.MaxResolution),
			})
		}
		if _, err := a.regen.Update(e.ID, e.Name, e.Sphere.Resolution); err != nil {
			log.Printf("Regeneration error: %v", err)
			result.fail("regeneration failed: %s", err.Error())
		}
	}

	result.Meshes = a.Meshes()
	return result
}

// SubmitResolution queues a resolution edit for debounced regeneration. The
// entity's component is updated immediately; its mesh follows once edits
// have been quiet for the configured debounce period.
func (a *App) SubmitResolution(name, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.scene.Lookup(name)
	if e == nil {
		return fmt.Errorf("no entity named %q", name)
	}
	if _, err := editor.ParseResolution(text); err != nil {
		return err
	}
	if editor.ApplyText(&e.Sphere, text) {
		a.debouncer.Submit(e.ID, e.Name, e.Sphere.Resolution)
	}
	return nil
}

// applyEdit publishes a debounced edit only while the current scene still
// holds the entity at that resolution. A newer evaluation supersedes it.
func (a *App) applyEdit(id scene.EntityID, name string, resolution int) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e := a.scene.Get(id)
	if e == nil || e.Sphere.Resolution != resolution {
		log.Printf("Dropping stale edit for %q", name)
		return false, nil
	}
	return a.regen.Update(id, name, resolution)
}

// Flush applies queued resolution edits immediately.
func (a *App) Flush() {
	a.debouncer.Flush()
}

// TogglePanel opens or closes the editor panel and returns its new state.
func (a *App) TogglePanel() bool {
	return a.panel.Toggle()
}

// Snapshot returns the published kernel meshes.
func (a *App) Snapshot() *regen.Snapshot {
	return a.regen.Snapshot()
}

// Meshes returns the published meshes in renderer format.
func (a *App) Meshes() []MeshData {
	return lo.Map(a.regen.Snapshot().Meshes(), func(m *kernel.Mesh, i int) MeshData {
		return MeshData{
			Vertices:   m.Vertices,
			Normals:    m.Normals,
			Indices:    m.Indices,
			EntityName: m.Name,
			Resolution: m.Resolution,
			Color:      colorPalette[i%len(colorPalette)],
		}
	})
}

func toErrorData(findings []scene.ValidationError) []EvalErrorData {
	return lo.Map(findings, func(f scene.ValidationError, _ int) EvalErrorData {
		return EvalErrorData{Message: f.Error()}
	})
}
