package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/ui"
	"github.com/satishbabariya/phpattr/cli/internal/update"
	"github.com/satishbabariya/phpattr/cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var (
	versionCheck bool
	releasesURL  = update.ReleasesURL
)

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check for a newer release")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := version.Get()
	fmt.Fprintln(out, info.FullString())
	if !versionCheck {
		return nil
	}

	status, err := update.Check(contextOf(cmd), nil, releasesURL, info.Version)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	if !status.Available() {
		ui.Success(out, "phpattr is up to date")
		return nil
	}
	ui.Warning(out, "A new version is available: %s (current %s)", status.Latest, status.Current)
	ui.Info(out, "Download: %s", update.DownloadURL(status.Latest))
	ui.Info(out, "Or: go install github.com/satishbabariya/phpattr/cli@latest")
	return nil
}
