package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cnl/internal/compiler"
)

// LoadMode controls how errors are handled during catalog loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error codes for catalog loading.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No catalog files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeYAML        = "E008" // YAML decode failed
)

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every catalog file in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) ([]Entry, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, yamlFiles, err := FindFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(yamlFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no catalog files found in %s", dir)}}
	}

	var (
		entries []Entry
		errs    []error
	)

	if len(cueFiles) > 0 {
		ctx := cuecontext.New()
		instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
		if len(instances) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
		}
		inst := instances[0]
		if inst.Err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
		}
		value := ctx.BuildInstance(inst)
		if err := value.Err(); err != nil {
			return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
		}

		found, cueErrs := fromValue(value, mode)
		entries = append(entries, found...)
		errs = append(errs, cueErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return entries, errs
		}
	}

	ctx := cuecontext.New()
	for _, path := range yamlFiles {
		found, yamlErrs := loadYAML(ctx, path, mode)
		entries = append(entries, found...)
		errs = append(errs, yamlErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return entries, errs
		}
	}

	if len(entries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no tactics found in catalog"})
	}
	return entries, errs
}

// fromValue extracts the entries under the "tactic" field.
func fromValue(value cue.Value, mode LoadMode) ([]Entry, []error) {
	tactics := value.LookupPath(cue.ParsePath("tactic"))
	if !tactics.Exists() {
		return nil, nil
	}

	iter, err := tactics.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating tactics: %v", err)}}
	}

	var (
		entries []Entry
		errs    []error
	)
	for iter.Next() {
		name := iter.Label()
		item := iter.Value()
		origin := positionOf(item, "tactic."+name)

		var script string
		if tr := item.LookupPath(cue.ParsePath("transform")); tr.Exists() {
			s, err := tr.String()
			if err != nil {
				errs = append(errs, convertCompileError(err, origin))
				if mode == LoadModeFailFast {
					return entries, errs
				}
				continue
			}
			script = s
		}

		e, err := entryFromValue(name, item.LookupPath(cue.ParsePath("spec")), script, origin)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return entries, errs
			}
			continue
		}
		entries = append(entries, e)
	}
	return entries, errs
}

type yamlCatalog struct {
	Tactics []yamlEntry `yaml:"tactics"`
}

type yamlEntry struct {
	Name      string         `yaml:"name"`
	Spec      map[string]any `yaml:"spec"`
	Transform string         `yaml:"transform"`
}

func loadYAML(ctx *cue.Context, path string, mode LoadMode) ([]Entry, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("reading %s: %v", path, err)}}
	}
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeYAML, Message: fmt.Sprintf("%s: %v", path, err)}}
	}

	var (
		entries []Entry
		errs    []error
	)
	for i, t := range doc.Tactics {
		origin := fmt.Sprintf("%s:tactics[%d]", path, i)
		if t.Spec == nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: origin + ": spec is required"})
		} else if e, err := decode(ctx, t.Name, t.Spec, t.Transform, origin); err != nil {
			errs = append(errs, err)
		} else {
			entries = append(entries, e)
		}
		if len(errs) > 0 && mode == LoadModeFailFast {
			return entries, errs
		}
	}
	return entries, errs
}

func positionOf(v cue.Value, fallback string) string {
	pos := v.Pos()
	if !pos.IsValid() {
		return fallback
	}
	return fmt.Sprintf("%s:%d:%d", filepath.Base(pos.Filename()), pos.Line(), pos.Column())
}

// FindFiles lists the CUE and YAML files directly inside dir, each
// sorted. Subdirectories are not catalogs.
func FindFiles(dir string) (cueFiles, yamlFiles []string, err error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		path := filepath.Join(dir, item.Name())
		switch filepath.Ext(path) {
		case ".cue":
			cueFiles = append(cueFiles, path)
		case ".yaml", ".yml":
			yamlFiles = append(yamlFiles, path)
		}
	}
	sort.Strings(cueFiles)
	sort.Strings(yamlFiles)
	return cueFiles, yamlFiles, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
