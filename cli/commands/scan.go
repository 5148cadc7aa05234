package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/output"
	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "List the attributes found in PHP sources",
	Long: `Scan PHP files and print every attribute with its evaluated arguments.

Paths default to the "paths" configuration key. Directories are walked
recursively; files matching an "exclude" glob are skipped.`,
	RunE: runScan,
}

var (
	scanFormat  string
	scanExclude []string
	scanFilter  string
)

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format: table, json, yaml or msgpack")
	scanCmd.Flags().StringSliceVarP(&scanExclude, "exclude", "e", nil, "additional exclude globs")
	scanCmd.Flags().StringVarP(&scanFilter, "name", "n", "", "only list attributes of this class")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	formatName := scanFormat
	if formatName == "" {
		formatName = cfg.Format
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}
	cfg.Exclude = append(cfg.Exclude, scanExclude...)

	p, err := newParser()
	if err != nil {
		return err
	}
	res, err := scanPaths(contextOf(cmd), newLocator(p), resolvePaths(args))
	if err != nil {
		return err
	}

	annotations := res.Annotations()
	if scanFilter != "" {
		annotations = filterByName(annotations, scanFilter)
	}

	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	for _, err := range res.Errors {
		printDiagnostic(stderr, p, err)
	}

	if format != output.FormatTable {
		return output.Encode(out, format, annotations)
	}

	if len(annotations) == 0 {
		ui.Info(out, "No attributes found in %d files", len(res.Files))
		return nil
	}
	table, err := ui.Table([]string{"Attribute", "Target", "Location", "Arguments"}, ui.AnnotationRows(annotations))
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprint(out, table)
	fmt.Fprintln(out)
	ui.Success(out, "%d attributes in %d files", len(annotations), len(res.Files))
	if len(res.Errors) > 0 {
		ui.Warning(out, "%d files could not be read", len(res.Errors))
	}
	return nil
}
