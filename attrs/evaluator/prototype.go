package evaluator

import (
	"iter"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/internal/debug"
)

// Prototype is an attribute usage with evaluated arguments that has not been
// instantiated.
type Prototype struct {
	// Name is the fully-qualified attribute class name.
	Name      string
	Arguments *Arguments
	// Line is the 1-based line of the attribute name.
	Line int
}

// ParseAttributes yields one prototype per attribute usage in groups, in
// source order. Arguments are evaluated when the element is reached; the
// first failure is yielded as (nil, err) and ends the sequence.
func ParseAttributes(file string, groups []*ast.AttributeGroup, ctx Context) iter.Seq2[*Prototype, error] {
	return func(yield func(*Prototype, error) bool) {
		e := New(file, ctx)
		for _, group := range groups {
			for _, attr := range group.Attrs {
				args, err := e.EvaluateArguments(attr)
				if err != nil {
					debug.Debug("Attribute evaluation failed", "file", file, "attribute", attr.Name, "error", err)
					yield(nil, err)
					return
				}
				proto := &Prototype{Name: attr.Name, Arguments: args, Line: attr.Pos.Line}
				if !yield(proto, nil) {
					return
				}
			}
		}
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Prototype, error]) ([]*Prototype, error) {
	var out []*Prototype
	for proto, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, proto)
	}
	return out, nil
}
