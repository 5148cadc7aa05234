package ast

import (
	"strings"
)

// AttributeGroup is one #[...] site holding one or more attributes.
type AttributeGroup struct {
	Pos   Pos
	Attrs []*Attribute
}

// Position returns the position of the opening #[.
func (g *AttributeGroup) Position() Pos { return g.Pos }

// String returns the source form of the group.
func (g *AttributeGroup) String() string {
	parts := make([]string, len(g.Attrs))
	for i, attr := range g.Attrs {
		parts[i] = attr.String()
	}
	return "#[" + strings.Join(parts, ", ") + "]"
}

// Attribute is a single attribute usage.
type Attribute struct {
	Pos Pos
	// Name is fully-qualified without the leading separator.
	Name string
	// RawName is the name as written in the source.
	RawName string
	Args    []*Argument
}

// Position returns the position of the attribute name.
func (a *Attribute) Position() Pos { return a.Pos }

// String returns the source form of the attribute with its resolved name.
func (a *Attribute) String() string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Name + "(" + argsString(a.Args) + ")"
}

// Argument is a positional or named call argument.
type Argument struct {
	Pos Pos
	// Name is empty for positional arguments.
	Name   string
	Value  Expr
	Unpack bool
}

// Position returns the position of the first token of the argument.
func (a *Argument) Position() Pos { return a.Pos }

// IsNamed returns true if this is a named argument.
func (a *Argument) IsNamed() bool {
	return a.Name != ""
}

// String returns the source form of the argument.
func (a *Argument) String() string {
	switch {
	case a.Unpack:
		return "..." + a.Value.String()
	case a.Name != "":
		return a.Name + ": " + a.Value.String()
	default:
		return a.Value.String()
	}
}
