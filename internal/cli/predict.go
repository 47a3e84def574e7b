package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/ir"
)

// PredictOptions holds flags for the predict command.
type PredictOptions struct {
	*RootOptions
	Stack []string
}

// NewPredictCommand creates the predict command.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PredictOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "predict <text>",
		Short: "Predict how a partial line can continue",
		Long: `Report whether text is a complete tactic line, a prefix of one, or
neither, and list the continuations: literal text to type next, "$"
where a value is captured, and "$" at the end when the line may stop.

Examples:
  cnl predict --stack proof "Qe"
  cnl predict "Theorem "`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Stack, "stack", nil, "state stack, bottom first")

	return cmd
}

func runPredict(opts *PredictOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ws, err := loadWorkspace(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	p := ws.engine.Predict(ir.Normalize(text), ir.Stack(opts.Stack))
	formatter.VerboseLog("%d path(s), truncated=%t", len(p.Paths), p.Truncated)

	if formatter.JSON() {
		return formatter.Success(p)
	}
	newRenderer(formatter.Writer).Prediction(p)
	return nil
}
