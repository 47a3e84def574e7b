package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/logs"
	"github.com/roach88/cnl/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Journal bool
	NoWatch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine over HTTP and WebSocket",
		Long: `Serve parse, chain, predict and check over HTTP, predictions over a
WebSocket, and prometheus metrics on /metrics.

When a catalog directory is configured it is watched: after a change the
catalog is reloaded and a fresh engine replaces the active one. A catalog
that fails to load leaves the running engine in place.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Journal, "journal", false, "log to the systemd journal")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "do not reload the catalog on change")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ws, err := loadWorkspace(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	level := ws.cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	closer, err := logs.Setup(logs.Options{
		Terminal: cmd.ErrOrStderr(),
		File:     ws.cfg.Log.File,
		Journal:  opts.Journal,
	}, level)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "logging", err)
	}
	defer closer.Close()

	srvOpts := []server.Option{server.WithEngineOptions(ws.cfg.EngineOptions()...)}
	if ws.cfg.Database != "" {
		st, err := ws.openStore(formatter)
		if err != nil {
			return err
		}
		defer st.Close()

		seq, err := st.MaxSeq(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "read database", err)
		}
		if err := st.WriteTactics(ctx, ws.engine.Registry().All()); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "record tactics", err)
		}
		srvOpts = append(srvOpts, server.WithStore(st), server.WithClock(document.NewClockAt(seq)))
	}
	srv := server.New(ws.engine, srvOpts...)

	addr := ws.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	var watcher *catalog.Watcher
	if ws.cfg.Catalog != "" && !opts.NoWatch {
		watcher, err = catalog.NewWatcher(ws.cfg.Catalog, reloader(ctx, opts.RootOptions, srv))
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "watch catalog", err)
		}
		slog.Info("watching catalog", "dir", ws.cfg.Catalog)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	return g.Wait()
}

// reloader swaps in a fresh engine after a catalog change. A catalog
// with errors keeps the running engine.
func reloader(ctx context.Context, opts *RootOptions, srv *server.Server) catalog.ReloadFunc {
	return func(entries []catalog.Entry, errs []error) {
		if len(errs) > 0 {
			for _, err := range errs {
				slog.Warn("catalog reload failed", "error", err)
			}
			return
		}
		var all []catalog.Entry
		if !opts.NoBuiltin {
			all = append(all, catalog.Builtin()...)
		}
		all = append(all, entries...)
		if err := srv.Reload(ctx, all); err != nil {
			slog.Warn("catalog reload rejected", "error", err)
		}
	}
}
