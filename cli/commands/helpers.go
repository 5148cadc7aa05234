package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/phpattr/attrs"
	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
	"github.com/satishbabariya/phpattr/attrs/locator"
	"github.com/satishbabariya/phpattr/attrs/reader"
	"github.com/satishbabariya/phpattr/cli/internal/config"
	"github.com/satishbabariya/phpattr/cli/internal/ui"
)

// reportedError marks an error whose details were already printed.
type reportedError struct {
	error
}

func isReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func printError(w io.Writer, err error) {
	ui.Error(w, "%v", err)
}

// newParser builds an attribute parser for the configured PHP version.
func newParser() (*attrs.Parser, error) {
	v, err := version.NewVersion(cfg.PHPVersion)
	if err != nil {
		return nil, fmt.Errorf("invalid PHP version %q: %w", cfg.PHPVersion, err)
	}
	return attrs.New(attrs.WithFs(config.AppFs), attrs.WithVersion(v)), nil
}

func newLocator(p *attrs.Parser) *locator.Locator {
	return locator.New(p, locator.Options{
		Exclude:     cfg.Exclude,
		Concurrency: cfg.Concurrency,
		FailFast:    cfg.FailFast,
	})
}

// resolvePaths returns the command arguments, falling back to the
// configured paths.
func resolvePaths(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if len(cfg.Paths) > 0 {
		return cfg.Paths
	}
	return []string{"."}
}

// collect evaluates every attribute of an already parsed file.
func collect(file *ast.File) ([]*reader.Annotation, error) {
	var out []*reader.Annotation
	for a, err := range reader.New(file).Annotations() {
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// scanPaths scans every path and merges the results.
func scanPaths(ctx context.Context, l *locator.Locator, paths []string) (*locator.Result, error) {
	merged := &locator.Result{}
	for _, path := range paths {
		res, err := l.Scan(ctx, path)
		if err != nil {
			return nil, err
		}
		merged.Files = append(merged.Files, res.Files...)
		merged.Errors = append(merged.Errors, res.Errors...)
	}
	return merged, nil
}

// printDiagnostic renders err with a source excerpt when it points into a
// readable file.
func printDiagnostic(w io.Writer, p *attrs.Parser, err error) {
	var located diagnostics.Located
	if errors.As(err, &located) {
		if src, readErr := p.ReadFile(located.Location().File); readErr == nil {
			if diagnostics.PrettyPrint(w, string(src), err, diagnostics.ErrorColorer{}) == nil {
				return
			}
		}
	}
	printError(w, err)
}

// filterByName keeps the annotations of attribute class name, compared
// case-insensitively.
func filterByName(annotations []*reader.Annotation, name string) []*reader.Annotation {
	name = strings.TrimPrefix(name, `\`)
	var out []*reader.Annotation
	for _, a := range annotations {
		if strings.EqualFold(a.Name, name) {
			out = append(out, a)
		}
	}
	return out
}
