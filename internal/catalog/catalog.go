package catalog

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/cnl/internal/compiler"
	"github.com/roach88/cnl/internal/tactic"
	"github.com/roach88/cnl/internal/transform"
)

// Entry is one tactic definition.
type Entry struct {
	Name string

	// Source is the canonical CUE text of the specification.
	Source string

	// Transform is Starlark source, see package transform. Empty means
	// the tactic produces no command.
	Transform string

	// Origin locates the definition, e.g. "proof.cue:12:2".
	Origin string
}

//go:embed builtin.cue
var builtinSource []byte

// Builtin returns the default tactic catalog.
func Builtin() []Entry {
	entries, err := LoadBytes("builtin.cue", builtinSource)
	if err != nil {
		panic(fmt.Sprintf("catalog: builtin catalog: %v", err))
	}
	return entries
}

// LoadBytes reads a single CUE catalog file.
func LoadBytes(filename string, src []byte) ([]Entry, error) {
	v := cuecontext.New().CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
	}
	entries, errs := fromValue(v, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return entries, nil
}

// Decode builds an entry from a plain Go specification value, as decoded
// from YAML or JSON.
func Decode(name string, spec any, script string) (Entry, error) {
	ctx := cuecontext.New()
	return decode(ctx, name, spec, script, name)
}

func decode(ctx *cue.Context, name string, spec any, script, origin string) (Entry, error) {
	v := ctx.Encode(spec)
	if err := v.Err(); err != nil {
		return Entry{}, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", origin, err)}
	}
	return entryFromValue(name, v, script, origin)
}

func entryFromValue(name string, spec cue.Value, script, origin string) (Entry, error) {
	if _, err := compiler.CompileSpecification(spec); err != nil {
		return Entry{}, convertCompileError(err, origin)
	}
	source, err := compiler.Source(spec)
	if err != nil {
		return Entry{}, convertCompileError(err, origin)
	}
	return Entry{Name: name, Source: source, Transform: script, Origin: origin}, nil
}

// Install registers entries in order. It stops at the first failure;
// entries registered before it stay registered.
func Install(reg *tactic.Registry, entries []Entry) ([]*tactic.Tactic, error) {
	tactics := make([]*tactic.Tactic, 0, len(entries))
	for _, e := range entries {
		var tr tactic.Transformer
		if e.Transform != "" {
			script, err := transform.Compile(e.Name, e.Transform)
			if err != nil {
				return tactics, fmt.Errorf("%s: %w", e.Origin, err)
			}
			tr = script
		}
		t, err := reg.Register(e.Name, e.Source, tr)
		if err != nil {
			return tactics, fmt.Errorf("%s: %w", e.Origin, err)
		}
		tactics = append(tactics, t)
	}
	return tactics, nil
}

// NewRegistry returns a registry wired with the CUE specification parser
// and validator, holding entries.
func NewRegistry(entries []Entry) (*tactic.Registry, error) {
	reg := tactic.NewRegistry(compiler.NewParser(), tactic.WithValidator(compiler.Check))
	if _, err := Install(reg, entries); err != nil {
		return nil, err
	}
	return reg, nil
}
