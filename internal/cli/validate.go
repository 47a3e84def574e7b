package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/catalog"
	"github.com/roach88/cnl/internal/compiler"
	"github.com/roach88/cnl/internal/tactic"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Tactics []string          `json:"tactics"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a catalog.
type ValidationIssue struct {
	Code    string `json:"code"`
	Origin  string `json:"origin,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [catalog-dir]",
		Short: "Validate a tactic catalog",
		Long: `Validate CUE and YAML tactic catalogs without parsing any text.

Every specification is decoded, checked against the structural rules,
compiled to a grammar fragment and registered together with its transform
script. All problems are reported, not just the first. Without an
argument the catalog from the config file is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if dir == "" {
		cfg, err := resolveConfig(opts)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, "config", err)
		}
		dir = cfg.Catalog
	}

	entries, loadErrors := loadEntries(opts, dir, catalog.LoadModeCollectAll)

	// directory-level failures leave nothing to validate
	if len(entries) == 0 && len(loadErrors) > 0 {
		return formatter.fail(ExitCommandError, errorCode(loadErrors[0]), "load catalog", loadErrors[0])
	}
	formatter.VerboseLog("Found %d tactic(s) in %s", len(entries), dir)

	var issues []ValidationIssue
	for _, err := range loadErrors {
		issues = append(issues, ValidationIssue{Code: errorCode(err), Message: err.Error()})
	}
	names, regIssues := validateEntries(entries, formatter)
	issues = append(issues, regIssues...)

	if len(issues) > 0 {
		return outputValidationErrors(formatter, names, issues)
	}
	return outputValidateSuccess(formatter, names)
}

// validateEntries registers every entry into one registry, so duplicate
// sources under different names are caught, and keeps going past
// failures.
func validateEntries(entries []catalog.Entry, formatter *OutputFormatter) ([]string, []ValidationIssue) {
	reg := tactic.NewRegistry(compiler.NewParser(), tactic.WithValidator(compiler.Check))

	names := []string{}
	var issues []ValidationIssue
	for _, e := range entries {
		formatter.VerboseLog("Validating tactic: %s", e.Name)
		if _, err := catalog.Install(reg, []catalog.Entry{e}); err != nil {
			issues = append(issues, issuesFor(e, err)...)
			continue
		}
		names = append(names, e.Name)
	}
	return names, issues
}

// issuesFor expands a registration error into one issue per validation
// error.
func issuesFor(e catalog.Entry, err error) []ValidationIssue {
	var verrs compiler.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationIssue, len(verrs))
		for i, v := range verrs {
			out[i] = ValidationIssue{Code: v.Code, Origin: e.Origin, Message: fmt.Sprintf("%s: %s", v.Field, v.Message)}
		}
		return out
	}
	return []ValidationIssue{{Code: errorCode(err), Origin: e.Origin, Message: err.Error()}}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, names []string) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Tactics: names})
	}

	newRenderer(formatter.Writer).OK("%d tactic(s) valid", len(names))
	return nil
}

// outputValidationErrors outputs every issue found.
func outputValidationErrors(formatter *OutputFormatter, names []string, issues []ValidationIssue) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))

	if formatter.JSON() {
		result := ValidationResult{Valid: false, Tactics: names, Errors: issues}
		if err := formatter.Failure(issues[0].Code, issues[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	r := newRenderer(formatter.Writer)
	r.Fail("validation failed")
	for _, issue := range issues {
		if issue.Origin != "" {
			r.printf("%s\n", issue.Origin)
		}
		r.printf("  %s: %s\n", issue.Code, issue.Message)
	}
	return exitErr
}
