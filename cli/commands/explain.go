package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

var explainCmd = &cobra.Command{
	Use:   "explain <error-kind>",
	Short: "Describe an error reported by scan or validate",
	Long: `Print documentation for an error kind. Kinds are input, parse,
constant-expression and argument-order.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: explainKinds(),
	RunE:      runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

var explanations = map[string]string{
	"input": `# input

The file could not be read. phpattr reports this before parsing starts, so no
attribute of the file is returned.

Check that the path exists and is readable, and that it is not excluded by a
directory permission.`,

	"parse": `# parse

The file is not valid PHP. The location points at the first token the parser
could not accept.

Attributes require PHP 8.0. With ` + "`--php-version 7.4`" + ` the ` + "`#[`" + ` syntax is read
as a comment, which is how PHP 7 treats it.`,

	"constant-expression": `# constant-expression

Attribute arguments are compiled as constant expressions. Only these are
allowed:

- literals and arrays of literals
- ` + "`true`, `false`, `null`" + `
- arithmetic, comparison, logical, bitwise and string operators
- the ternary and ` + "`??`" + ` operators, array access
- magic constants such as ` + "`__CLASS__`, `__LINE__`, `__DIR__`" + `
- ` + "`Foo::class`" + `

Variables, function calls, ` + "`new`" + `, global constants and class constants need
a running program and are rejected:

` + "```php" + `
#[Route(path: $prefix . '/users')]   // variable
#[Cache(ttl: time() + 60)]           // function call
` + "```" + `

Folding failures such as division by zero are reported with their own
message at the line of the expression.`,

	"argument-order": `# argument-order

Positional arguments must come before named ones, and a name may only be
given once:

` + "```php" + `
#[Route(path: '/users', 'GET')]      // positional after named
#[Route(path: '/a', path: '/b')]     // duplicate name
` + "```" + `

The location points at the offending argument.`,
}

func explainKinds() []string {
	kinds := make([]string, 0, len(explanations))
	for kind := range explanations {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func runExplain(cmd *cobra.Command, args []string) error {
	doc, ok := explanations[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown error kind %q (known: %s)", args[0], strings.Join(explainKinds(), ", "))
	}
	rendered, err := ui.Markdown(doc)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}
