package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Check that every attribute argument is a constant expression",
	Long: `Validate PHP sources without printing the attributes.

Every file is parsed and every attribute argument evaluated. Problems are
reported with a source excerpt and the command exits with a non-zero status:
- unreadable files
- syntax errors
- non-constant argument expressions
- positional arguments after named ones`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	p, err := newParser()
	if err != nil {
		return err
	}
	// every problem is reported, not only the first
	cfg.FailFast = false

	res, err := scanPaths(contextOf(cmd), newLocator(p), resolvePaths(args))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	for _, err := range res.Errors {
		printDiagnostic(stderr, p, err)
		fmt.Fprintln(stderr)
	}

	if n := len(res.Errors); n > 0 {
		ui.Error(stderr, "%d of %d files have errors", n, len(res.Files))
		return reportedError{fmt.Errorf("validation failed for %d files", n)}
	}
	ui.Success(out, "%d files, %d attributes, no errors", len(res.Files), res.Count())
	return nil
}
