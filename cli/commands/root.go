// Package commands implements the phpattr command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/config"
	"github.com/satishbabariya/phpattr/cli/internal/version"
	"github.com/satishbabariya/phpattr/internal/debug"
)

var (
	cfgFile    string
	debugFlag  bool
	phpVersion string

	// cfg is loaded before every command runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "phpattr",
	Short: "Extract PHP 8 attributes without running PHP",
	Long: `phpattr parses PHP sources and evaluates the arguments of every
#[Attribute] as a constant expression, the way the PHP compiler would.

Attributes can be listed, validated, watched for changes or stored in a
SQL index for later lookups.`,
	Version:           version.Get().String(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .phpattr.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&phpVersion, "php-version", "", "PHP version of the sources (default 8.3)")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded
	if debugFlag {
		cfg.Debug = true
	}
	if phpVersion != "" {
		cfg.PHPVersion = phpVersion
	}
	debug.InitWithWriter(cfg.Debug, cmd.ErrOrStderr())
	debug.Debug("Loaded configuration", "file", cfg.File, "php_version", cfg.PHPVersion)
	return nil
}

// Execute runs the root command and reports a failure on stderr.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil && !isReported(err) {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}
