// Command cnl parses, predicts and checks controlled natural language
// documents against a tactic catalog.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cnl/internal/cli"
	"github.com/roach88/cnl/internal/logs"
)

func main() {
	closer, err := logs.Setup(logs.Options{Terminal: os.Stderr}, "warn")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCommandError)
	}

	err = cli.NewRootCommand().Execute()
	closer.Close()
	if err == nil {
		return
	}

	// commands report their own ExitErrors
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
