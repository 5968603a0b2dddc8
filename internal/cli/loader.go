package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sitetag/internal/compiler"
	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/netlist"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE/YAML load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeCompileFailed = "E007" // Spec structure does not compile
	ErrCodeInvalidSpec   = "E008" // Spec failed validation
	ErrCodeParseFailed   = "E009" // Placement file does not parse
	ErrCodeUsage         = "E010" // Duplicate placement and similar misuse
	ErrCodeStoreFailed   = "E011" // Run store error
	ErrCodeIllegal       = "E020" // Placement has conflicts or violations
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadConstraints reads a constraint spec without validating it.
//
// path may be a directory of .cue files (one CUE package), a single .cue
// file, or a .yaml/.yml file in the interchange layout.
func LoadConstraints(path string) (*ir.ConstraintSpec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("constraint spec not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing constraint spec: %v", err), Err: err}
	}

	if info.IsDir() {
		return loadCUEDir(path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUEFile(path)
	case ".yaml", ".yml":
		return loadYAMLFile(path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("unsupported constraint spec %s: expected a directory, .cue, .yaml or .yml", path),
		}
	}
}

// LoadModel loads, validates and indexes a constraint spec.
// Validation failures surface as *compiler.SpecError.
func LoadModel(path string) (*engine.Model, error) {
	spec, err := LoadConstraints(path)
	if err != nil {
		return nil, err
	}
	return engine.NewModel(spec)
}

// LoadPlacements parses a placement file and applies filter.
func LoadPlacements(path string, filter netlist.Filter) ([]ir.Placement, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("placement file not found: %s", path)}
	}

	parser, err := netlist.NewParser()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "building placement parser", Err: err}
	}
	placements, err := parser.ParseFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error(), Err: err}
	}
	return filter.Apply(placements), nil
}

func loadCUEDir(dir string) (*ir.ConstraintSpec, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Err: err}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Err: err}
	}

	return compileSpec(compiler.CompileConstraints(value))
}

func loadCUEFile(path string) (*ir.ConstraintSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
	}

	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Err: err}
	}

	return compileSpec(compiler.CompileConstraints(value))
}

func loadYAMLFile(path string) (*ir.ConstraintSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err), Err: err}
	}
	return compileSpec(compiler.ParseYAML(data))
}

// compileSpec converts compiler failures into LoadErrors with position info.
func compileSpec(spec *ir.ConstraintSpec, err error) (*ir.ConstraintSpec, error) {
	if err == nil {
		return spec, nil
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return nil, &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
			Err:     err,
		}
	}
	return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Err: err}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
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
