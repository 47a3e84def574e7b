package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Hash string
}

// HistoryResult is the JSON payload of history without an ID.
type HistoryResult struct {
	Documents []store.DocumentSummary `json:"documents"`
}

// DocumentResult is the JSON payload of history with an ID.
type DocumentResult struct {
	Report *document.Report `json:"report"`
	Source string           `json:"source"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [report-id]",
		Short: "List or show checked documents",
		Long: `List the reports saved in the database in check order, or show one
report with its source text.

Examples:
  cnl history --db cnl.db
  cnl history --db cnl.db --hash 3f2a...
  cnl history --db cnl.db 0192f7c4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runHistory(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Hash, "hash", "", "only documents with this content hash")

	return cmd
}

func runHistory(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := resolveConfig(opts.RootOptions)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "config", err)
	}
	st, err := (&workspace{cfg: cfg}).openStore(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if id != "" {
		report, source, err := st.ReadReport(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("report %s not found", id), nil)
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "read report", err)
		}
		if formatter.JSON() {
			return formatter.Success(DocumentResult{Report: report, Source: source})
		}
		r := newRenderer(formatter.Writer)
		r.Report(report, document.ParseOutline(source))
		if report.Script != "" {
			r.printf("\n%s", report.Script)
		}
		return nil
	}

	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "list documents", err)
	}
	if opts.Hash != "" {
		ids, err := st.FindByHash(ctx, opts.Hash)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "find documents", err)
		}
		docs = keepIDs(docs, ids)
	}

	if formatter.JSON() {
		if docs == nil {
			docs = []store.DocumentSummary{}
		}
		return formatter.Success(HistoryResult{Documents: docs})
	}

	r := newRenderer(formatter.Writer)
	if len(docs) == 0 {
		r.printf("No documents.\n")
		return nil
	}
	for _, d := range docs {
		status := "ok"
		switch {
		case d.Fatal:
			status = "fatal"
		case d.Errors > 0:
			status = fmt.Sprintf("%d error(s)", d.Errors)
		}
		r.printf("%4d  %s  %d chunk(s)  %s\n", d.Seq, d.ID, d.Chunks, status)
	}
	return nil
}

func keepIDs(docs []store.DocumentSummary, ids []string) []store.DocumentSummary {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var out []store.DocumentSummary
	for _, d := range docs {
		if keep[d.ID] {
			out = append(out, d)
		}
	}
	return out
}
