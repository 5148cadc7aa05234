package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/config"
	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .phpattr.yaml for this project",
	Long: `Ask a few questions and write the answers to .phpattr.yaml in the
current directory. Use --yes to accept the defaults without prompting.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initYes   bool
	initForce bool
)

// phpVersions are the dialects offered by init.
var phpVersions = []string{"8.0", "8.1", "8.2", "8.3", "8.4"}

func init() {
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "accept defaults without prompting")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")

	rootCmd.AddCommand(initCmd)
}

type initAnswers struct {
	PHPVersion string `survey:"php_version"`
	Paths      string `survey:"paths"`
	Exclude    string `survey:"exclude"`
	Provider   string `survey:"provider"`
	DSN        string `survey:"dsn"`
}

func initQuestions(def *config.Config) []*survey.Question {
	return []*survey.Question{
		{
			Name: "php_version",
			Prompt: &survey.Select{
				Message: "PHP version of your sources:",
				Options: phpVersions,
				Default: def.PHPVersion,
			},
		},
		{
			Name: "paths",
			Prompt: &survey.Input{
				Message: "Directories to scan (comma separated):",
				Default: strings.Join(def.Paths, ","),
			},
			Validate: survey.Required,
		},
		{
			Name: "exclude",
			Prompt: &survey.Input{
				Message: "Exclude globs (comma separated):",
				Default: strings.Join(def.Exclude, ","),
			},
		},
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Index database:",
				Options: []string{"sqlite", "postgres", "mysql"},
				Default: def.Index.Provider,
			},
		},
		{
			Name: "dsn",
			Prompt: &survey.Input{
				Message: "Index connection string:",
				Default: def.Index.DSN,
			},
			Validate: survey.Required,
		},
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if _, err := config.AppFs.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Header("phpattr", "Project setup"))

	next := config.Default()
	if !initYes {
		var answers initAnswers
		if err := survey.Ask(initQuestions(next), &answers); err != nil {
			return fmt.Errorf("init cancelled: %w", err)
		}
		next.PHPVersion = answers.PHPVersion
		next.Paths = splitList(answers.Paths)
		next.Exclude = splitList(answers.Exclude)
		next.Index.Provider = answers.Provider
		next.Index.DSN = answers.DSN
	}

	if err := config.Save(next, path); err != nil {
		return err
	}
	ui.Success(out, "Created %s", path)
	ui.Info(out, "Run `phpattr scan` to list attributes or `phpattr validate` in CI.")
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
