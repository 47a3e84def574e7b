// Package logs builds the process logger: a text handler for the
// terminal, fanned out to an optional JSON log file and, when running as
// a systemd service, the journal.
package logs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

var level = new(slog.LevelVar)

// SetLevel changes the level of every logger built by New.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("log level %q: %w", name, err)
	}
	level.Set(l)
	return nil
}

// Level returns the current level.
func Level() slog.Level {
	return level.Level()
}

// Options selects the handlers New fans out to.
type Options struct {
	// Terminal receives text output. Nil means os.Stderr.
	Terminal io.Writer

	// File, when set, receives JSON records appended to it.
	File string

	// Journal sends records to the systemd journal. Detected
	// automatically by New when unset and the process runs as a unit.
	Journal bool
}

// New builds a logger. The returned closer releases the log file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		handlers []slog.Handler
		closer   io.Closer = nopCloser{}
	)

	journal := opts.Journal || isSystemdService()

	if !journal || opts.Terminal != nil {
		w := opts.Terminal
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = f
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	if journal {
		h, err := slogjournal.NewHandler(&slogjournal.Options{
			Level:        level,
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err == nil {
			handlers = append(handlers, h)
		} else if len(handlers) == 0 {
			// no journal socket; fall back to stderr
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}
	}

	return slog.New(&Handler{Handler: slogmulti.Fanout(handlers...)}), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds a logger and installs it as the slog default.
func Setup(opts Options, levelName string) (io.Closer, error) {
	if levelName != "" {
		if err := SetLevel(levelName); err != nil {
			return nil, err
		}
	}
	logger, closer, err := New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

func isSystemdService() bool {
	content, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) < 3 {
		return false
	}
	return strings.HasSuffix(path.Dir(parts[2]), ".service")
}

type requestKey struct{}

// WithRequest tags ctx so records logged with it carry the request ID.
func WithRequest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// Handler adds the request ID found in the context to each record.
type Handler struct {
	slog.Handler
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := ctx.Value(requestKey{}).(string); ok {
		record.Add("request", id)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}
