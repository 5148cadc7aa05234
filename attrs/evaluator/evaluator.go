// Package evaluator turns attribute usages into prototypes: it evaluates
// every argument as a constant expression and resolves the magic constants
// that depend on where the attribute is declared.
package evaluator

import (
	"errors"
	"strings"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/constexpr"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
)

// Evaluator evaluates expressions for one file and one declaration site.
// It holds no state besides the file path and context it was created with.
type Evaluator struct {
	file   string
	ctx    Context
	folder *constexpr.Evaluator
}

// New creates an evaluator for expressions found in file under ctx.
func New(file string, ctx Context) *Evaluator {
	e := &Evaluator{file: file, ctx: ctx}
	e.folder = constexpr.New(func(expr ast.Expr) (constexpr.Value, error) {
		return Resolve(expr, e.ctx, e.file)
	})
	return e
}

// File returns the path magic constants resolve against.
func (e *Evaluator) File() string {
	return e.file
}

// Evaluate folds expr. Folding failures are reported as
// *diagnostics.ConstantExpressionError located at the offending node.
func (e *Evaluator) Evaluate(expr ast.Expr) (constexpr.Value, error) {
	v, err := e.folder.Evaluate(expr)
	if err != nil {
		var foldErr *constexpr.Error
		if errors.As(err, &foldErr) {
			return nil, &diagnostics.ConstantExpressionError{
				File:   e.file,
				Line:   foldErr.Node.Position().Line,
				Reason: foldErr.Msg,
			}
		}
		return nil, err
	}
	return v, nil
}

// Resolve evaluates the nodes the constant folder leaves over. Magic
// constants resolve against ctx and file; anything else is not a constant
// expression.
func Resolve(expr ast.Expr, ctx Context, file string) (constexpr.Value, error) {
	magic, ok := expr.(*ast.MagicConst)
	if !ok {
		return nil, &diagnostics.ConstantExpressionError{
			File: file,
			Line: expr.Position().Line,
		}
	}

	switch magic.Kind {
	case ast.MagicFile:
		return file, nil
	case ast.MagicDir:
		return Dirname(file), nil
	case ast.MagicLine:
		return int64(magic.Pos.Line), nil
	case ast.MagicMethod:
		return strings.TrimLeft(ctx.Get(CtxNamespace)+`\`+ctx.Get(CtxFunction), `\`), nil
	default:
		return ctx.Get(ContextKey(magic.Name)), nil
	}
}

// Dirname returns the directory portion of path. Both "/" and "\" separate
// segments so paths with mixed separators work on any platform. A path
// without a separator yields ".".
func Dirname(path string) string {
	if path == "" {
		return ""
	}

	end := len(path)
	for end > 1 && isSeparator(path[end-1]) {
		end--
	}
	i := strings.LastIndexAny(path[:end], `/\`)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return path[:1]
	}

	for i > 0 && isSeparator(path[i-1]) {
		i--
	}
	if i == 0 {
		return path[:1]
	}
	return path[:i]
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
