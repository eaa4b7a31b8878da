package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// modelPath is the top-level field every model resource must declare.
var modelPath = cue.ParsePath("model")

// Load reads every .cue file in dir and decodes the `model` declaration.
//
// The model resource is a startup requirement: callers that cannot run
// without it should use MustLoad.
func Load(dir string) (*Model, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("model directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("access model directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scan model directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}

	return decodeModelValue(value)
}

// Parse compiles a single CUE resource held in memory, typically an embedded
// model bundled with the application. name is used in error positions.
func Parse(name string, data []byte) (*Model, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling %s: %w", name, formatCUEError(err))
	}
	return decodeModelValue(value)
}

// MustLoad is Load with the fatal startup policy: the process cannot run
// without its model, so any failure terminates it.
func MustLoad(dir string) *Model {
	m, err := Load(dir)
	if err != nil {
		slog.Error("model load failed", "dir", dir, "err", err)
		os.Exit(1)
	}
	return m
}

func decodeModelValue(value cue.Value) (*Model, error) {
	modelVal := value.LookupPath(modelPath)
	if !modelVal.Exists() {
		return nil, fmt.Errorf("no model declaration found")
	}
	return compileModel(modelVal)
}

// findCUEFiles walks dir and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
