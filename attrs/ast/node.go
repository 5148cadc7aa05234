// Package ast defines the parse tree for the subset of PHP needed to locate
// and evaluate attributes.
package ast

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Pos is a position in a source file. Line and Column are 1-based.
type Pos struct {
	Offset int
	Line   int
	Column int
}

// FromLexerPosition converts a participle lexer.Position to our Pos type.
func FromLexerPosition(pos lexer.Position) Pos {
	return Pos{
		Offset: pos.Offset,
		Line:   pos.Line,
		Column: pos.Column,
	}
}

// Node is implemented by every tree element.
type Node interface {
	Position() Pos
}

// Inspect traverses the tree rooted at node in depth-first order. If fn
// returns false the children of that node are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range children(node) {
		Inspect(child, fn)
	}
}

func children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	addGroups := func(groups []*AttributeGroup) {
		for _, g := range groups {
			add(g)
		}
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Decls {
			add(d)
		}
	case *ClassLike:
		addGroups(n.AttrGroups)
		for _, m := range n.Members {
			add(m)
		}
	case *Function:
		addGroups(n.AttrGroups)
		for _, p := range n.Params {
			add(p)
		}
	case *Method:
		addGroups(n.AttrGroups)
		for _, p := range n.Params {
			add(p)
		}
	case *Property:
		addGroups(n.AttrGroups)
	case *ClassConstant:
		addGroups(n.AttrGroups)
		add(n.Value)
	case *EnumCase:
		addGroups(n.AttrGroups)
		add(n.Value)
	case *Parameter:
		addGroups(n.AttrGroups)
	case *AttributeGroup:
		for _, a := range n.Attrs {
			add(a)
		}
	case *Attribute:
		for _, a := range n.Args {
			add(a)
		}
	case *Argument:
		add(n.Value)
	case *ArrayLit:
		for _, item := range n.Items {
			add(item.Key, item.Value)
		}
	case *ArrayDimFetch:
		add(n.Var, n.Dim)
	case *Unary:
		add(n.X)
	case *Binary:
		add(n.X, n.Y)
	case *Ternary:
		add(n.Cond, n.Then, n.Else)
	case *Call:
		add(n.Func)
		for _, a := range n.Args {
			add(a)
		}
	case *StaticCall:
		for _, a := range n.Args {
			add(a)
		}
	case *New:
		for _, a := range n.Args {
			add(a)
		}
	case *PropertyFetch:
		add(n.Var)
	case *Cast:
		add(n.X)
	case *Instanceof:
		add(n.X)
	}
	return out
}
