package ast

import (
	"strconv"
	"strings"
)

// Expr is a closed set of expression nodes. Only types in this package
// implement it.
type Expr interface {
	Node
	String() string
	exprNode()
}

// MagicKind identifies a magic constant.
type MagicKind int

const (
	MagicFile MagicKind = iota
	MagicDir
	MagicLine
	MagicMethod
	MagicFunction
	MagicClass
	MagicTrait
	MagicNamespace
	MagicProperty
)

var magicNames = map[string]MagicKind{
	"__FILE__":      MagicFile,
	"__DIR__":       MagicDir,
	"__LINE__":      MagicLine,
	"__METHOD__":    MagicMethod,
	"__FUNCTION__":  MagicFunction,
	"__CLASS__":     MagicClass,
	"__TRAIT__":     MagicTrait,
	"__NAMESPACE__": MagicNamespace,
	"__PROPERTY__":  MagicProperty,
}

// LookupMagic returns the magic constant kind for ident. PHP magic constants
// are case-insensitive.
func LookupMagic(ident string) (MagicKind, bool) {
	kind, ok := magicNames[strings.ToUpper(ident)]
	return kind, ok
}

type (
	// IntLit is an integer literal.
	IntLit struct {
		Pos   Pos
		Value int64
		Raw   string
	}

	// FloatLit is a floating point literal, or an integer literal that
	// overflowed int64.
	FloatLit struct {
		Pos   Pos
		Value float64
		Raw   string
	}

	// StringLit is a string literal with escapes already processed.
	StringLit struct {
		Pos   Pos
		Value string
		Raw   string
	}

	// InterpolatedString is a double-quoted string or heredoc containing
	// variables.
	InterpolatedString struct {
		Pos Pos
		Raw string
	}

	// MagicConst is one of __FILE__, __LINE__ and friends. Name is the
	// canonical upper-case spelling.
	MagicConst struct {
		Pos  Pos
		Kind MagicKind
		Name string
	}

	// ConstFetch is a global constant reference such as true or PHP_EOL.
	ConstFetch struct {
		Pos  Pos
		Name string
	}

	// ClassConstFetch is Class::NAME. Class is fully-qualified unless it is
	// self, static or parent. Name "class" is the class name constant.
	ClassConstFetch struct {
		Pos   Pos
		Class string
		Name  string
	}

	// ArrayLit is [..] or array(..).
	ArrayLit struct {
		Pos   Pos
		Items []*ArrayItem
	}

	// ArrayDimFetch is Var[Dim]. Dim is nil for Var[].
	ArrayDimFetch struct {
		Pos Pos
		Var Expr
		Dim Expr
	}

	// Unary is an Op X prefix operation.
	Unary struct {
		Pos Pos
		Op  string
		X   Expr
	}

	// Binary is X Op Y. Op is lower-case for word operators (and, or, xor).
	Binary struct {
		Pos Pos
		Op  string
		X   Expr
		Y   Expr
	}

	// Ternary is Cond ? Then : Else. Then is nil for Cond ?: Else.
	Ternary struct {
		Pos  Pos
		Cond Expr
		Then Expr
		Else Expr
	}

	// Variable is $Name.
	Variable struct {
		Pos  Pos
		Name string
	}

	// Call is a function call.
	Call struct {
		Pos  Pos
		Func Expr
		Args []*Argument
	}

	// StaticCall is Class::Method(args).
	StaticCall struct {
		Pos    Pos
		Class  string
		Method string
		Args   []*Argument
	}

	// PropertyFetch is Var->Name or Var?->Name.
	PropertyFetch struct {
		Pos      Pos
		Var      Expr
		Name     string
		Nullsafe bool
	}

	// StaticPropertyFetch is Class::$Name.
	StaticPropertyFetch struct {
		Pos   Pos
		Class string
		Name  string
	}

	// New is new Class(args).
	New struct {
		Pos   Pos
		Class string
		Args  []*Argument
	}

	// Cast is (Type) X.
	Cast struct {
		Pos  Pos
		Type string
		X    Expr
	}

	// Instanceof is X instanceof Class.
	Instanceof struct {
		Pos   Pos
		X     Expr
		Class string
	}

	// Closure is a function or fn expression. Its body is not parsed.
	Closure struct {
		Pos   Pos
		Arrow bool
	}
)

// ArrayItem is one element of an array literal.
type ArrayItem struct {
	Key    Expr
	Value  Expr
	Unpack bool
}

func (*IntLit) exprNode()              {}
func (*FloatLit) exprNode()            {}
func (*StringLit) exprNode()           {}
func (*InterpolatedString) exprNode()  {}
func (*MagicConst) exprNode()          {}
func (*ConstFetch) exprNode()          {}
func (*ClassConstFetch) exprNode()     {}
func (*ArrayLit) exprNode()            {}
func (*ArrayDimFetch) exprNode()       {}
func (*Unary) exprNode()               {}
func (*Binary) exprNode()              {}
func (*Ternary) exprNode()             {}
func (*Variable) exprNode()            {}
func (*Call) exprNode()                {}
func (*StaticCall) exprNode()          {}
func (*PropertyFetch) exprNode()       {}
func (*StaticPropertyFetch) exprNode() {}
func (*New) exprNode()                 {}
func (*Cast) exprNode()                {}
func (*Instanceof) exprNode()          {}
func (*Closure) exprNode()             {}

func (e *IntLit) Position() Pos              { return e.Pos }
func (e *FloatLit) Position() Pos            { return e.Pos }
func (e *StringLit) Position() Pos           { return e.Pos }
func (e *InterpolatedString) Position() Pos  { return e.Pos }
func (e *MagicConst) Position() Pos          { return e.Pos }
func (e *ConstFetch) Position() Pos          { return e.Pos }
func (e *ClassConstFetch) Position() Pos     { return e.Pos }
func (e *ArrayLit) Position() Pos            { return e.Pos }
func (e *ArrayDimFetch) Position() Pos       { return e.Pos }
func (e *Unary) Position() Pos               { return e.Pos }
func (e *Binary) Position() Pos              { return e.Pos }
func (e *Ternary) Position() Pos             { return e.Pos }
func (e *Variable) Position() Pos            { return e.Pos }
func (e *Call) Position() Pos                { return e.Pos }
func (e *StaticCall) Position() Pos          { return e.Pos }
func (e *PropertyFetch) Position() Pos       { return e.Pos }
func (e *StaticPropertyFetch) Position() Pos { return e.Pos }
func (e *New) Position() Pos                 { return e.Pos }
func (e *Cast) Position() Pos                { return e.Pos }
func (e *Instanceof) Position() Pos          { return e.Pos }
func (e *Closure) Position() Pos             { return e.Pos }

func (e *IntLit) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	return strconv.FormatInt(e.Value, 10)
}

func (e *FloatLit) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	return strconv.FormatFloat(e.Value, 'G', -1, 64)
}

func (e *StringLit) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(e.Value) + "'"
}

func (e *InterpolatedString) String() string { return e.Raw }
func (e *MagicConst) String() string         { return e.Name }
func (e *ConstFetch) String() string         { return e.Name }
func (e *ClassConstFetch) String() string    { return e.Class + "::" + e.Name }
func (e *Variable) String() string           { return "$" + e.Name }
func (e *StaticPropertyFetch) String() string {
	return e.Class + "::$" + e.Name
}

func (e *ArrayLit) String() string {
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		var sb strings.Builder
		if item.Unpack {
			sb.WriteString("...")
		}
		if item.Key != nil {
			sb.WriteString(item.Key.String())
			sb.WriteString(" => ")
		}
		sb.WriteString(item.Value.String())
		parts[i] = sb.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *ArrayDimFetch) String() string {
	if e.Dim == nil {
		return e.Var.String() + "[]"
	}
	return e.Var.String() + "[" + e.Dim.String() + "]"
}

func (e *Unary) String() string { return e.Op + e.X.String() }

func (e *Binary) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

func (e *Ternary) String() string {
	if e.Then == nil {
		return "(" + e.Cond.String() + " ?: " + e.Else.String() + ")"
	}
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}

func (e *Call) String() string { return e.Func.String() + "(" + argsString(e.Args) + ")" }

func (e *StaticCall) String() string {
	return e.Class + "::" + e.Method + "(" + argsString(e.Args) + ")"
}

func (e *PropertyFetch) String() string {
	if e.Nullsafe {
		return e.Var.String() + "?->" + e.Name
	}
	return e.Var.String() + "->" + e.Name
}

func (e *New) String() string { return "new " + e.Class + "(" + argsString(e.Args) + ")" }

func (e *Cast) String() string { return "(" + e.Type + ")" + e.X.String() }

func (e *Instanceof) String() string { return e.X.String() + " instanceof " + e.Class }

func (e *Closure) String() string {
	if e.Arrow {
		return "fn() => ..."
	}
	return "function() {...}"
}

func argsString(args []*Argument) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
