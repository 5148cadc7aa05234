package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/constexpr"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
)

// Arguments is the evaluated argument list of one attribute usage:
// positional values in order followed by uniquely named values in the order
// they were written.
type Arguments struct {
	positional []constexpr.Value
	names      []string
	named      map[string]constexpr.Value
}

// NewArguments returns an empty argument list.
func NewArguments() *Arguments {
	return &Arguments{named: make(map[string]constexpr.Value)}
}

// Len returns the total number of arguments.
func (a *Arguments) Len() int {
	return len(a.positional) + len(a.names)
}

// Positional returns a copy of the positional values.
func (a *Arguments) Positional() []constexpr.Value {
	return append([]constexpr.Value(nil), a.positional...)
}

// At returns the i-th positional value.
func (a *Arguments) At(i int) (constexpr.Value, bool) {
	if i < 0 || i >= len(a.positional) {
		return nil, false
	}
	return a.positional[i], true
}

// Lookup returns the value of a named argument.
func (a *Arguments) Lookup(name string) (constexpr.Value, bool) {
	v, ok := a.named[name]
	return v, ok
}

// Names returns the argument names in source order.
func (a *Arguments) Names() []string {
	return append([]string(nil), a.names...)
}

// Named iterates over the named arguments in source order.
func (a *Arguments) Named() iter.Seq2[string, constexpr.Value] {
	return func(yield func(string, constexpr.Value) bool) {
		for _, name := range a.names {
			if !yield(name, a.named[name]) {
				return
			}
		}
	}
}

func (a *Arguments) addPositional(v constexpr.Value) {
	a.positional = append(a.positional, v)
}

func (a *Arguments) addNamed(name string, v constexpr.Value) bool {
	if _, exists := a.named[name]; exists {
		return false
	}
	a.names = append(a.names, name)
	a.named[name] = v
	return true
}

// Bind maps the arguments onto constructor parameters the way a PHP call
// does: positional values by position, named values by parameter name.
func (a *Arguments) Bind(params []string) (map[string]constexpr.Value, error) {
	if len(a.positional) > len(params) {
		return nil, fmt.Errorf("too many positional arguments: %d given, %d accepted", len(a.positional), len(params))
	}

	out := make(map[string]constexpr.Value, a.Len())
	for i, v := range a.positional {
		out[params[i]] = v
	}

	known := make(map[string]bool, len(params))
	for _, p := range params {
		known[p] = true
	}
	for _, name := range a.names {
		if !known[name] {
			return nil, fmt.Errorf("unknown named parameter $%s", name)
		}
		if _, bound := out[name]; bound {
			return nil, fmt.Errorf("named parameter $%s overwrites previous argument", name)
		}
		out[name] = a.named[name]
	}
	return out, nil
}

// String renders the list as PHP call arguments.
func (a *Arguments) String() string {
	parts := make([]string, 0, a.Len())
	for _, v := range a.positional {
		parts = append(parts, constexpr.Format(v))
	}
	for _, name := range a.names {
		parts = append(parts, name+": "+constexpr.Format(a.named[name]))
	}
	return strings.Join(parts, ", ")
}

// Export converts the list into plain Go values for encoders that do not
// know about constexpr arrays.
func (a *Arguments) Export() map[string]any {
	positional := make([]any, len(a.positional))
	for i, v := range a.positional {
		positional[i] = constexpr.Export(v)
	}
	named := make(map[string]any, len(a.names))
	for _, name := range a.names {
		named[name] = constexpr.Export(a.named[name])
	}
	return map[string]any{"positional": positional, "named": named}
}

// MarshalJSON encodes {"positional": [...], "named": {...}} keeping the
// source order of names.
func (a *Arguments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"positional":`)
	positional := a.positional
	if positional == nil {
		positional = []constexpr.Value{}
	}
	b, err := json.Marshal(positional)
	if err != nil {
		return nil, err
	}
	buf.Write(b)

	buf.WriteString(`,"named":{`)
	for i, name := range a.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(name)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(a.named[name])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// EvaluateArguments evaluates the arguments of attr left to right. A
// positional argument after a named one, or a name given twice, fails with
// *diagnostics.ArgumentOrderError at that argument's line.
func (e *Evaluator) EvaluateArguments(attr *ast.Attribute) (*Arguments, error) {
	args := NewArguments()
	hasNamed := false

	for _, arg := range attr.Args {
		if arg.Unpack {
			return nil, &diagnostics.ConstantExpressionError{
				File:   e.file,
				Line:   arg.Pos.Line,
				Reason: "Cannot use unpacking in attribute argument list",
			}
		}

		value, err := e.Evaluate(arg.Value)
		if err != nil {
			return nil, err
		}

		if !arg.IsNamed() {
			if hasNamed {
				return nil, &diagnostics.ArgumentOrderError{File: e.file, Line: arg.Pos.Line}
			}
			args.addPositional(value)
			continue
		}

		hasNamed = true
		if !args.addNamed(arg.Name, value) {
			return nil, &diagnostics.ArgumentOrderError{
				File:      e.file,
				Line:      arg.Pos.Line,
				Name:      arg.Name,
				Duplicate: true,
			}
		}
	}
	return args, nil
}
