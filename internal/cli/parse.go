package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Stack      []string
	Chain      bool
	AllowEmpty bool
}

// ParseResult is the JSON payload of the parse command. Exactly one of
// Match and Chain is set.
type ParseResult struct {
	Match *engine.Match `json:"match,omitempty"`
	Chain *engine.Chain `json:"chain,omitempty"`
	Rest  string        `json:"rest"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <text>",
		Short: "Match tactics at the start of a line",
		Long: `Find the longest prefix of text matched by a tactic active under the
given state stack and print the captured values.

With --chain, tactics are matched back to back until nothing matches, a
tactic ends the line, or a zero-length tactic matched.

Examples:
  cnl parse --stack proof "Let x."
  cnl parse --stack proof --chain "Let x.By h.Qed."
  cnl parse --stack proof --allow-empty ""`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Stack, "stack", nil, "state stack, bottom first")
	cmd.Flags().BoolVar(&opts.Chain, "chain", false, "match tactics back to back")
	cmd.Flags().BoolVar(&opts.AllowEmpty, "allow-empty", false, "allow zero-length matches")

	return cmd
}

func runParse(opts *ParseOptions, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ws, err := loadWorkspace(opts.RootOptions, formatter)
	if err != nil {
		return err
	}

	text = ir.Normalize(text)
	stack := ir.Stack(opts.Stack)
	var parseOpts []engine.ParseOption
	if opts.AllowEmpty {
		parseOpts = append(parseOpts, engine.WithEmptyMatch())
	}

	if opts.Chain {
		chain := ws.engine.ParseChain(text, stack, parseOpts...)
		if len(chain.Matches) == 0 {
			return noMatch(formatter, text)
		}
		if formatter.JSON() {
			return formatter.Success(ParseResult{Chain: &chain, Rest: chain.Rest(text)})
		}
		r := newRenderer(formatter.Writer)
		for _, m := range chain.Matches {
			r.Match(text, m)
		}
		if rest := chain.Rest(text); rest != "" {
			r.Detail("rest %q", rest)
		}
		return nil
	}

	m, ok := ws.engine.ParseOne(text, stack, parseOpts...)
	if !ok {
		return noMatch(formatter, text)
	}
	if formatter.JSON() {
		return formatter.Success(ParseResult{Match: m, Rest: text[m.End:]})
	}
	r := newRenderer(formatter.Writer)
	r.Match(text, *m)
	if rest := text[m.End:]; rest != "" {
		r.Detail("rest %q", rest)
	}
	return nil
}

func noMatch(formatter *OutputFormatter, text string) error {
	msg := fmt.Sprintf("no tactic matches %q", text)
	_ = formatter.Error(ErrCodeNoMatch, msg, nil)
	return NewExitError(ExitFailure, msg)
}
