package ast

// Decl is a declaration that can carry attributes.
type Decl interface {
	Node
	Groups() []*AttributeGroup
	declNode()
}

// File is a parsed source file.
type File struct {
	Path  string
	Decls []Decl
}

// Position returns the start of the file.
func (f *File) Position() Pos { return Pos{Line: 1, Column: 1} }

// ClassKind distinguishes the class-like declarations.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindEnum:
		return "enum"
	default:
		return "class"
	}
}

// ClassLike is a class, interface, trait or enum declaration.
type ClassLike struct {
	Pos        Pos
	Kind       ClassKind
	Name       string
	FQName     string
	Namespace  string
	AttrGroups []*AttributeGroup
	Members    []Decl
}

// Function is a top-level function declaration.
type Function struct {
	Pos        Pos
	Name       string
	FQName     string
	Namespace  string
	AttrGroups []*AttributeGroup
	Params     []*Parameter
}

// Method is a function declared inside a class-like.
type Method struct {
	Pos        Pos
	Name       string
	Static     bool
	AttrGroups []*AttributeGroup
	Params     []*Parameter
}

// Property is a class property. Promoted is set for constructor-promoted
// properties, which share their attribute groups with the parameter.
type Property struct {
	Pos        Pos
	Name       string
	Static     bool
	Promoted   bool
	AttrGroups []*AttributeGroup
}

// ClassConstant is a const declared inside a class-like.
type ClassConstant struct {
	Pos        Pos
	Name       string
	AttrGroups []*AttributeGroup
	Value      Expr
}

// EnumCase is a case of an enum. Value is nil for pure enums.
type EnumCase struct {
	Pos        Pos
	Name       string
	AttrGroups []*AttributeGroup
	Value      Expr
}

// Parameter is a function or method parameter.
type Parameter struct {
	Pos        Pos
	Name       string
	Variadic   bool
	Promoted   bool
	AttrGroups []*AttributeGroup
}

func (*ClassLike) declNode()     {}
func (*Function) declNode()      {}
func (*Method) declNode()        {}
func (*Property) declNode()      {}
func (*ClassConstant) declNode() {}
func (*EnumCase) declNode()      {}
func (*Parameter) declNode()     {}

func (d *ClassLike) Position() Pos     { return d.Pos }
func (d *Function) Position() Pos      { return d.Pos }
func (d *Method) Position() Pos        { return d.Pos }
func (d *Property) Position() Pos      { return d.Pos }
func (d *ClassConstant) Position() Pos { return d.Pos }
func (d *EnumCase) Position() Pos      { return d.Pos }
func (d *Parameter) Position() Pos     { return d.Pos }

func (d *ClassLike) Groups() []*AttributeGroup     { return d.AttrGroups }
func (d *Function) Groups() []*AttributeGroup      { return d.AttrGroups }
func (d *Method) Groups() []*AttributeGroup        { return d.AttrGroups }
func (d *Property) Groups() []*AttributeGroup      { return d.AttrGroups }
func (d *ClassConstant) Groups() []*AttributeGroup { return d.AttrGroups }
func (d *EnumCase) Groups() []*AttributeGroup      { return d.AttrGroups }
func (d *Parameter) Groups() []*AttributeGroup     { return d.AttrGroups }

// Classes returns the class-like declarations of the file in source order.
func (f *File) Classes() []*ClassLike {
	var out []*ClassLike
	for _, d := range f.Decls {
		if c, ok := d.(*ClassLike); ok {
			out = append(out, c)
		}
	}
	return out
}

// Functions returns the top-level functions of the file in source order.
func (f *File) Functions() []*Function {
	var out []*Function
	for _, d := range f.Decls {
		if fn, ok := d.(*Function); ok {
			out = append(out, fn)
		}
	}
	return out
}

// Methods returns the methods of the class-like.
func (d *ClassLike) Methods() []*Method {
	var out []*Method
	for _, m := range d.Members {
		if method, ok := m.(*Method); ok {
			out = append(out, method)
		}
	}
	return out
}
