// Package transform runs the Starlark scripts that turn captured values
// into commands for the target proof assistant.
//
// A script takes one of two forms. The function form defines
//
//	def transform(values):
//	    return "intros " + " ".join(values["x"]) + "."
//
// and the expression form is a single expression over the captured names:
//
//	"intros " + " ".join(x) + "."
//
// In both forms a scalar capture is a string and a list capture is a list
// of strings. In the expression form a name that was not captured is
// unbound; use values.get(name) for optional references.
package transform

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/roach88/cnl/internal/ir"
)

// DefaultMaxSteps bounds the work one transform call may do.
const DefaultMaxSteps = 100_000

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
}

// keywords are the words Starlark reserves; a capture named like one is
// reachable only through values.
var keywords = map[string]bool{
	"and": true, "as": true, "assert": true, "async": true, "await": true,
	"break": true, "class": true, "continue": true, "def": true, "del": true,
	"elif": true, "else": true, "except": true, "finally": true, "for": true,
	"from": true, "global": true, "if": true, "import": true, "in": true,
	"is": true, "lambda": true, "load": true, "nonlocal": true, "not": true,
	"or": true, "pass": true, "raise": true, "return": true, "try": true,
	"while": true, "with": true, "yield": true, "values": true, "ident": true,
}

// Script is a compiled transform. It is immutable after Compile and safe
// for concurrent use; every call runs on its own thread.
type Script struct {
	name     string
	fn       starlark.Callable // function form
	expr     syntax.Expr       // expression form
	globals  starlark.StringDict
	maxSteps uint64
}

// CompileError reports a script that does not parse or does not define
// a callable transform.
type CompileError struct {
	Name string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Name, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Option configures a Script.
type Option func(*Script)

// WithMaxSteps overrides DefaultMaxSteps. Zero disables the bound.
func WithMaxSteps(n uint64) Option {
	return func(s *Script) { s.maxSteps = n }
}

// Compile parses src. name is used in error messages and tracebacks.
func Compile(name, src string, opts ...Option) (*Script, error) {
	s := &Script{name: name, maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(s)
	}

	file, fileErr := fileOptions.Parse(name, src, 0)
	if fileErr == nil && definesTransform(file) {
		thread := s.thread()
		globals, err := starlark.ExecFileOptions(fileOptions, thread, name, src, predeclared())
		if err != nil {
			return nil, &CompileError{Name: name, Err: err}
		}
		fn, ok := globals["transform"].(starlark.Callable)
		if !ok {
			return nil, &CompileError{Name: name, Err: errors.New("transform is not callable")}
		}
		globals.Freeze()
		s.fn = fn
		s.globals = globals
		return s, nil
	}

	expr, err := fileOptions.ParseExpr(name, src, 0)
	if err != nil {
		if fileErr != nil {
			return nil, &CompileError{Name: name, Err: fileErr}
		}
		return nil, &CompileError{Name: name, Err: fmt.Errorf("define transform(values) or write a single expression: %w", err)}
	}
	s.expr = expr
	return s, nil
}

func definesTransform(file *syntax.File) bool {
	for _, stmt := range file.Stmts {
		if def, ok := stmt.(*syntax.DefStmt); ok && def.Name.Name == "transform" {
			return true
		}
	}
	return false
}

// Name returns the name the script was compiled with.
func (s *Script) Name() string {
	return s.name
}

// Transform runs the script. It satisfies tactic.Transformer.
func (s *Script) Transform(values ir.Values) (string, error) {
	thread := s.thread()
	dict := toDict(values)

	var (
		result starlark.Value
		err    error
	)
	if s.fn != nil {
		result, err = starlark.Call(thread, s.fn, starlark.Tuple{dict}, nil)
	} else {
		env := predeclared()
		env["values"] = dict
		for _, name := range values.SortedKeys() {
			if isIdent(name) {
				env[name] = toStarlark(values[name])
			}
		}
		result, err = starlark.EvalExprOptions(fileOptions, thread, s.expr, env)
	}
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return "", fmt.Errorf("transform %s: %s", s.name, evalErr.Backtrace())
		}
		return "", fmt.Errorf("transform %s: %w", s.name, err)
	}

	switch r := result.(type) {
	case starlark.String:
		return string(r), nil
	case starlark.NoneType:
		return "", nil
	default:
		return "", fmt.Errorf("transform %s: must return a string, got %s", s.name, result.Type())
	}
}

func (s *Script) thread() *starlark.Thread {
	t := &starlark.Thread{Name: s.name}
	if s.maxSteps > 0 {
		t.SetMaxExecutionSteps(s.maxSteps)
	}
	return t
}

func toDict(values ir.Values) *starlark.Dict {
	d := starlark.NewDict(len(values))
	for _, k := range values.SortedKeys() {
		_ = d.SetKey(starlark.String(k), toStarlark(values[k]))
	}
	d.Freeze()
	return d
}

func toStarlark(v ir.Value) starlark.Value {
	if !v.Multi {
		return starlark.String(v.Text)
	}
	elems := make([]starlark.Value, len(v.List))
	for i, item := range v.List {
		elems[i] = starlark.String(item)
	}
	l := starlark.NewList(elems)
	l.Freeze()
	return l
}

func isIdent(s string) bool {
	if s == "" || keywords[s] {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// predeclared returns the helpers every script can call.
func predeclared() starlark.StringDict {
	return starlark.StringDict{
		"ident": starlarkutil.MakeFunc("ident", Ident),
	}
}

// Ident turns free text into an identifier: runs of characters that
// cannot appear in one become a single underscore.
func Ident(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.TrimSpace(s) {
		if r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}
