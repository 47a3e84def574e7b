package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/compiler"
	"github.com/roach88/cnl/internal/config"
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/store"
	"github.com/roach88/cnl/internal/tactic"
	"github.com/roach88/cnl/internal/transform"
)

// resolveConfig loads the config file and applies flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Catalog != "" {
		cfg.Catalog = opts.Catalog
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// loadEntries returns the built-in tactics followed by the catalog
// directory, if any.
func loadEntries(opts *RootOptions, dir string, mode catalog.LoadMode) ([]catalog.Entry, []error) {
	var entries []catalog.Entry
	if !opts.NoBuiltin {
		entries = append(entries, catalog.Builtin()...)
	}
	if dir == "" {
		return entries, nil
	}
	loaded, errs := catalog.Load(dir, mode)
	return append(entries, loaded...), errs
}

// workspace is what most commands need: the resolved config and an
// engine over the loaded catalog.
type workspace struct {
	cfg     config.Config
	entries []catalog.Entry
	engine  *engine.Engine
}

// loadWorkspace resolves config and builds the engine. Failures are
// reported through f and returned as ExitErrors.
func loadWorkspace(opts *RootOptions, f *OutputFormatter) (*workspace, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeGeneric, "config", err)
	}

	entries, errs := loadEntries(opts, cfg.Catalog, catalog.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, f.fail(ExitCommandError, errorCode(errs[0]), "load catalog", errs[0])
	}
	if len(entries) == 0 {
		return nil, f.fail(ExitCommandError, ErrCodeGeneric, "no tactics: built-ins disabled and no catalog given", nil)
	}
	f.VerboseLog("Loaded %d tactic(s)", len(entries))

	reg, err := catalog.NewRegistry(entries)
	if err != nil {
		return nil, f.fail(ExitCommandError, errorCode(err), "register tactics", err)
	}
	return &workspace{
		cfg:     cfg,
		entries: entries,
		engine:  engine.New(reg, cfg.EngineOptions()...),
	}, nil
}

// openStore opens the transcript store named by the config.
func (w *workspace) openStore(f *OutputFormatter) (*store.Store, error) {
	if w.cfg.Database == "" {
		return nil, f.fail(ExitCommandError, ErrCodeNoDatabase, "no database: set --db or database in cnl.cue", nil)
	}
	st, err := store.Open(w.cfg.Database)
	if err != nil {
		return nil, f.fail(ExitCommandError, ErrCodeStoreFailed, "open database", err)
	}
	return st, nil
}

// checker returns a document checker whose sequence numbers continue
// after the last report in st, or start at 1 without a store.
func (w *workspace) checker(ctx context.Context, st *store.Store) (*document.Checker, error) {
	clock := document.NewClock()
	if st != nil {
		seq, err := st.MaxSeq(ctx)
		if err != nil {
			return nil, err
		}
		clock = document.NewClockAt(seq)
	}
	return document.NewChecker(w.engine, document.WithClock(clock)), nil
}

// readInput returns the contents of path, or stdin for "-".
func readInput(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// errorCode maps an error to a CLI error code.
func errorCode(err error) string {
	var (
		loadErr  *catalog.LoadError
		verrs    compiler.ValidationErrors
		verr     compiler.ValidationError
		transErr *transform.CompileError
	)
	switch {
	case errors.As(err, &loadErr):
		return loadErr.Code
	case tactic.IsConflict(err):
		return ErrCodeConflict
	case errors.As(err, &transErr):
		return ErrCodeTransform
	case errors.As(err, &verrs) && len(verrs) > 0:
		return verrs[0].Code
	case errors.As(err, &verr):
		return verr.Code
	default:
		return ErrCodeGeneric
	}
}
