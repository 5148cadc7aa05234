// Package diagnostics defines the errors reported while extracting attributes
// and renders them with source excerpts.
package diagnostics

import (
	"errors"
	"fmt"
)

const (
	// MessageArgumentOrder is reported when a positional argument follows a named one.
	MessageArgumentOrder = "Cannot use positional argument after named argument"
	// MessageConstantExpression is reported for non-constant argument expressions.
	MessageConstantExpression = "Constant expression contains invalid operations"
)

// Location is a 1-based line inside a source file.
type Location struct {
	File string
	Line int
}

// String returns file:line.
func (l Location) String() string {
	if l.Line <= 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Located is implemented by every error that points into a source file.
type Located interface {
	error
	Location() Location
}

// InputError reports a file that could not be read. It is returned before
// any parsing happens.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("Unable to read file %q: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Location returns the path of the unreadable file.
func (e *InputError) Location() Location {
	return Location{File: e.Path}
}

// ParseError reports malformed source syntax.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s in %s", e.Message, Location{File: e.File, Line: e.Line})
}

// Location returns where the syntax error was detected.
func (e *ParseError) Location() Location {
	return Location{File: e.File, Line: e.Line}
}

// ConstantExpressionError reports an attribute argument that is not a
// compile-time constant expression.
type ConstantExpressionError struct {
	File string
	Line int
	// Reason is empty for plain non-constant expressions, otherwise it holds
	// the folding failure, e.g. "Division by zero".
	Reason string
}

func (e *ConstantExpressionError) Error() string {
	msg := MessageConstantExpression
	if e.Reason != "" {
		msg = e.Reason
	}
	return fmt.Sprintf("%s in %s", msg, Location{File: e.File, Line: e.Line})
}

// Location returns the position of the offending expression.
func (e *ConstantExpressionError) Location() Location {
	return Location{File: e.File, Line: e.Line}
}

// ArgumentOrderError reports an illegal argument list: a positional argument
// after a named one, or the same name given twice.
type ArgumentOrderError struct {
	File string
	Line int
	// Name is set when Duplicate is true.
	Name      string
	Duplicate bool
}

func (e *ArgumentOrderError) Error() string {
	msg := MessageArgumentOrder
	if e.Duplicate {
		msg = fmt.Sprintf("Named parameter $%s overwrites previous argument", e.Name)
	}
	return fmt.Sprintf("%s in %s", msg, Location{File: e.File, Line: e.Line})
}

// Location returns the position of the offending argument.
func (e *ArgumentOrderError) Location() Location {
	return Location{File: e.File, Line: e.Line}
}

// Kind returns a short stable identifier for the error class of err, used by
// the CLI to pick documentation. Unknown errors map to "error".
func Kind(err error) string {
	var (
		inputErr *InputError
		parseErr *ParseError
		constErr *ConstantExpressionError
		orderErr *ArgumentOrderError
	)
	switch {
	case errors.As(err, &inputErr):
		return "input"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &constErr):
		return "constant-expression"
	case errors.As(err, &orderErr):
		return "argument-order"
	default:
		return "error"
	}
}
