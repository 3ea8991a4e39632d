// Command geode generates geodesic sphere meshes from a scene script or a
// single resolution, and optionally validates and exports them.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/geode/pkg/config"
	"github.com/chazu/geode/pkg/export"
	"github.com/chazu/geode/pkg/kernel"
)

// defaultEntity names the sphere generated when no script is given.
const defaultEntity = "sphere"

func main() {
	log.SetFlags(0)
	log.SetPrefix("geode: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// run is main without the process exit, so tests can drive the CLI.
func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("geode", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "YAML config file")
	scriptPath := fs.String("script", "", "scene script (.geode); default is one sphere")
	resolution := fs.Int("resolution", -1, "resolution override for the default sphere and script defaults")
	kernelName := fs.String("kernel", "", "kernel override: icosphere or sdfx")
	stlPath := fs.String("stl", "", "write binary STL here (one file per entity when several)")
	jsonPath := fs.String("json", "", "write JSON mesh dump here, - for stdout")
	validate := fs.Bool("validate", false, "check every mesh and fail on errors")
	initConfig := fs.Bool("init", false, "write the effective config to the -config path and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *resolution >= 0 {
		cfg.Resolution = *resolution
	}
	if *kernelName != "" {
		cfg.Kernel = *kernelName
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *initConfig {
		if err := config.Save(*configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s\n", *configPath)
		return nil
	}

	source := fmt.Sprintf("(sphere %q)", defaultEntity)
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			return err
		}
		source = string(data)
	}

	app := NewApp(cfg)
	result := app.Evaluate(source)
	for _, w := range result.Warnings {
		log.Printf("warning: %s", w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				log.Printf("error: line %d: %s", e.Line, e.Message)
			} else {
				log.Printf("error: %s", e.Message)
			}
		}
		return fmt.Errorf("%d error(s)", len(result.Errors))
	}

	meshes := app.Snapshot().Meshes()
	summary := stdout
	if *jsonPath == "-" {
		summary = io.Discard
	}
	for _, m := range meshes {
		fmt.Fprintf(summary, "%s: resolution %d, %d vertices, %d triangles\n",
			m.Name, m.Resolution, m.VertexCount(), m.TriangleCount())
	}

	if *validate {
		if err := validateMeshes(meshes, cfg.Kernel, stdout); err != nil {
			return err
		}
	}
	if *stlPath != "" {
		for _, m := range meshes {
			if err := export.WriteSTL(outputPath(*stlPath, m.Name, len(meshes)), m); err != nil {
				return err
			}
		}
	}
	if *jsonPath != "" {
		if err := writeJSON(*jsonPath, meshes, stdout); err != nil {
			return err
		}
	}
	return nil
}

// validateMeshes reports findings per mesh. Only the icosphere kernel
// promises vertices exactly on the sphere, so the sdfx reference skips the
// surface checks.
func validateMeshes(meshes []*kernel.Mesh, kernelName string, stdout io.Writer) error {
	failed := 0
	for _, m := range meshes {
		var res kernel.ValidationResult
		if kernelName == config.KernelSdfx {
			for _, check := range [][]kernel.ValidationError{
				kernel.CheckShape(m), kernel.CheckIndexRange(m), kernel.CheckClosed(m), kernel.CheckWinding(m),
			} {
				res.Errors = append(res.Errors, check...)
			}
		} else {
			res = kernel.Validate(m)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(stdout, "%s: %s\n", m.Name, w.Error())
		}
		for _, e := range res.Errors {
			fmt.Fprintf(stdout, "%s: %s\n", m.Name, e.Error())
		}
		if len(res.Errors) > 0 {
			failed++
		} else {
			fmt.Fprintf(stdout, "%s: ok\n", m.Name)
		}
	}
	if failed > 0 {
		return fmt.Errorf("validation failed for %d mesh(es)", failed)
	}
	return nil
}

// outputPath returns base unchanged for a single mesh and inserts -name
// before the extension when there are several.
func outputPath(base, name string, count int) string {
	if count <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + name + ext
}

func writeJSON(path string, meshes []*kernel.Mesh, stdout io.Writer) error {
	if path == "-" {
		for _, m := range meshes {
			if err := export.WriteJSON(stdout, m); err != nil {
				return err
			}
		}
		return nil
	}
	for _, m := range meshes {
		f, err := os.Create(outputPath(path, m.Name, len(meshes)))
		if err != nil {
			return err
		}
		err = export.WriteJSON(f, m)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}
