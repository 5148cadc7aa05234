package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/attrs/index"
	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Store attributes in a SQL database",
	Long: `Scan PHP sources and store every attribute in a SQL index.

Supported providers are sqlite, postgres and mysql. Files whose content did
not change since the last run are skipped unless --force is given.`,
	RunE: runIndex,
}

var indexFindCmd = &cobra.Command{
	Use:   "find <attribute>",
	Short: "Look up stored usages of an attribute class",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexFind,
}

var (
	indexProvider string
	indexDSN      string
	indexForce    bool
)

func init() {
	indexCmd.PersistentFlags().StringVar(&indexProvider, "provider", "", "database provider: sqlite, postgres or mysql")
	indexCmd.PersistentFlags().StringVar(&indexDSN, "dsn", "", "database connection string")
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index unchanged files")

	indexCmd.AddCommand(indexFindCmd)
	rootCmd.AddCommand(indexCmd)
}

func openIndex(ctx context.Context) (*index.Index, error) {
	provider, dsn := cfg.Index.Provider, cfg.Index.DSN
	if indexProvider != "" {
		provider = indexProvider
	}
	if indexDSN != "" {
		dsn = indexDSN
	}
	ix, err := index.Open(ctx, provider, dsn)
	if err != nil {
		return nil, err
	}
	if err := ix.InitSchema(ctx); err != nil {
		ix.Close()
		return nil, err
	}
	return ix, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	p, err := newParser()
	if err != nil {
		return err
	}
	ix, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer ix.Close()

	l := newLocator(p)
	var files []string
	for _, path := range resolvePaths(args) {
		found, err := l.Files(path)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	var spinner *pterm.SpinnerPrinter
	if out == os.Stdout {
		spinner = ui.Spinner(fmt.Sprintf("Indexing %d files", len(files)))
	}

	var indexed, skipped, failed, count int
	for _, file := range files {
		src, err := p.ReadFile(file)
		if err != nil {
			failed++
			printDiagnostic(stderr, p, err)
			continue
		}
		sum := index.Checksum(src)
		if !indexForce {
			if stored, err := ix.File(ctx, file); err == nil && stored != nil && stored.Checksum == sum {
				skipped++
				continue
			}
		}

		parsed, err := p.ParseSource(file, src)
		if err != nil {
			failed++
			printDiagnostic(stderr, p, err)
			continue
		}
		annotations, err := collect(parsed)
		if err != nil {
			failed++
			printDiagnostic(stderr, p, err)
			continue
		}
		if err := ix.Replace(ctx, file, sum, annotations); err != nil {
			if spinner != nil {
				spinner.Fail(err.Error())
			}
			return err
		}
		indexed++
		count += len(annotations)
	}
	if spinner != nil {
		spinner.Stop()
	}

	ui.Success(out, "Indexed %d files (%d attributes), %d unchanged", indexed, count, skipped)
	if failed > 0 {
		ui.Error(stderr, "%d files could not be indexed", failed)
		return reportedError{fmt.Errorf("%d files could not be indexed", failed)}
	}
	return nil
}

func runIndexFind(cmd *cobra.Command, args []string) error {
	ctx := contextOf(cmd)
	ix, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer ix.Close()

	records, err := ix.Find(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		ui.Info(out, "No usages of %s indexed", args[0])
		return nil
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, r.Target + " " + r.Subject, r.File + ":" + strconv.Itoa(r.Line), r.Arguments})
	}
	table, err := ui.Table([]string{"Attribute", "Target", "Location", "Arguments"}, rows)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}
