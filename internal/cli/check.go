package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	NoSave bool
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Report *document.Report `json:"report"`
	Saved  bool             `json:"saved"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check a document and print the generated script",
		Long: `Check an indented document line by line, classifying every span as a
tactic, a comment or an error, and print the command each tactic
generates. Use "-" to read the document from stdin.

When a database is configured the report is saved to it.

Exit codes:
  0 - Document checked without errors
  1 - Document has errors
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "do not save the report to the database")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ws, err := loadWorkspace(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	text, err := readInput(path, cmd.InOrStdin())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "read document", err)
	}

	ctx := cmd.Context()
	var st *store.Store
	if ws.cfg.Database != "" && !opts.NoSave {
		if st, err = ws.openStore(formatter); err != nil {
			return err
		}
		defer st.Close()
	}

	checker, err := ws.checker(ctx, st)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "read database", err)
	}

	doc := document.ParseOutline(text)
	report, checkErr := checker.Check(doc)
	var fatal *document.FatalError
	if checkErr != nil && !errors.As(checkErr, &fatal) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "check", checkErr)
	}

	if st != nil {
		if err := st.WriteReport(ctx, report, text); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeStoreFailed, "save report", err)
		}
		formatter.VerboseLog("Saved report %s (seq %d)", report.ID, report.Seq)
	}

	result := CheckResult{Report: report, Saved: st != nil}
	nerr := len(report.Errors())

	var code, msg string
	switch {
	case fatal != nil:
		code, msg = ErrCodeFatal, fatal.Error()
	case nerr > 0:
		code, msg = ErrCodeCheck, fmt.Sprintf("%d error(s)", nerr)
	}

	if formatter.JSON() {
		if code == "" {
			return formatter.Success(result)
		}
		if err := formatter.Failure(code, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	r := newRenderer(formatter.Writer)
	r.Report(report, doc)
	if report.Script != "" {
		r.printf("\n%s", report.Script)
	}
	if code != "" {
		r.Fail("%s", msg)
		return NewExitError(ExitFailure, msg)
	}
	r.OK("%s checked, %d chunk(s)", report.ID, len(report.Chunks))
	return nil
}
