package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/attrs"
	"github.com/satishbabariya/phpattr/attrs/locator"
	"github.com/satishbabariya/phpattr/cli/internal/ui"
	"github.com/satishbabariya/phpattr/cli/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path...]",
	Short: "Re-validate PHP sources whenever they change",
	Long: `Watch PHP sources and re-evaluate the attributes of every changed file.

The whole tree is validated once at start-up. After that only the files
touched by a burst of changes are scanned again.`,
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-scanning")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	p, err := newParser()
	if err != nil {
		return err
	}
	paths := resolvePaths(args)
	cfg.FailFast = false

	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	res, err := scanPaths(contextOf(cmd), newLocator(p), paths)
	if err != nil {
		return err
	}
	for _, err := range res.Errors {
		printDiagnostic(stderr, p, err)
	}
	ui.Info(out, "Watching %d files (%d attributes), press Ctrl+C to stop", len(res.Files), res.Count())

	w, err := watch.NewWatcher(paths, watch.Options{
		Debounce:   watchDebounce,
		Extensions: locator.DefaultExtensions,
		Skip: func(rel string) bool {
			for _, pattern := range cfg.Exclude {
				if locator.Match(pattern, rel) {
					return true
				}
			}
			return false
		},
	}, func(changed []string) error {
		rescan(cmd, p, changed)
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return w.Run(ctx)
}

func rescan(cmd *cobra.Command, p *attrs.Parser, changed []string) {
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	for _, file := range changed {
		if _, err := p.Fs().Stat(file); err != nil {
			ui.Info(out, "%s removed", file)
			continue
		}
		all, err := p.ScanAll(file)
		if err != nil {
			printDiagnostic(stderr, p, err)
			continue
		}
		ui.Success(out, "%s: %d attributes", file, len(all))
	}
	fmt.Fprintln(out)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
