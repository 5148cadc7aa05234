// Package reader exposes the attributes of a parsed file per declaration:
// classes, functions, methods, properties, constants and parameters.
package reader

import (
	"iter"
	"strings"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/evaluator"
)

// Reader reads attribute metadata from one parsed file. Every call evaluates
// arguments afresh; nothing is cached between calls.
type Reader struct {
	file *ast.File
}

// New creates a reader over file.
func New(file *ast.File) *Reader {
	return &Reader{file: file}
}

// File returns the underlying parse tree.
func (r *Reader) File() *ast.File {
	return r.file
}

// site is one attribute-carrying declaration with its lexical context.
type site struct {
	target   Target
	class    *ast.ClassLike
	function string
	member   string
	groups   []*ast.AttributeGroup
	ctx      evaluator.Context
}

// sites lists every declaration of the file that can carry attributes, in
// source order. Class members follow their class; parameters follow their
// function or method.
func (r *Reader) sites() []site {
	var out []site
	for _, decl := range r.file.Decls {
		switch d := decl.(type) {
		case *ast.ClassLike:
			out = append(out, classSites(d)...)
		case *ast.Function:
			ctx := evaluator.Context{
				evaluator.CtxNamespace: d.Namespace,
				evaluator.CtxFunction:  d.Name,
			}
			out = append(out, site{target: TargetFunction, function: d.FQName, groups: d.AttrGroups, ctx: ctx})
			out = append(out, paramSites(nil, d.FQName, d.Params, ctx)...)
		}
	}
	return out
}

func classSites(c *ast.ClassLike) []site {
	ctx := ClassContext(c)
	out := []site{{target: TargetClass, class: c, groups: c.AttrGroups, ctx: ctx}}

	for _, member := range c.Members {
		switch m := member.(type) {
		case *ast.Method:
			mctx := ctx.With(evaluator.CtxFunction, m.Name)
			out = append(out, site{target: TargetMethod, class: c, function: m.Name, groups: m.AttrGroups, ctx: mctx})
			out = append(out, paramSites(c, m.Name, m.Params, mctx)...)
		case *ast.Property:
			out = append(out, site{target: TargetProperty, class: c, member: m.Name, groups: m.AttrGroups, ctx: ctx})
		case *ast.ClassConstant:
			out = append(out, site{target: TargetClassConstant, class: c, member: m.Name, groups: m.AttrGroups, ctx: ctx})
		case *ast.EnumCase:
			out = append(out, site{target: TargetEnumCase, class: c, member: m.Name, groups: m.AttrGroups, ctx: ctx})
		}
	}
	return out
}

func paramSites(c *ast.ClassLike, function string, params []*ast.Parameter, ctx evaluator.Context) []site {
	out := make([]site, 0, len(params))
	for _, p := range params {
		out = append(out, site{target: TargetParameter, class: c, function: function, member: p.Name, groups: p.AttrGroups, ctx: ctx})
	}
	return out
}

// ClassContext returns the lexical context of a class-like declaration.
// Inside a trait both __CLASS__ and __TRAIT__ name the trait.
func ClassContext(c *ast.ClassLike) evaluator.Context {
	ctx := evaluator.Context{
		evaluator.CtxNamespace: c.Namespace,
		evaluator.CtxClass:     c.FQName,
	}
	if c.Kind == ast.KindTrait {
		ctx[evaluator.CtxTrait] = c.FQName
	}
	return ctx
}

// Annotations yields every attribute of the file in source order. The
// sequence stops after the first evaluation error.
func (r *Reader) Annotations() iter.Seq2[*Annotation, error] {
	return r.annotations(func(site) bool { return true }, "")
}

func (r *Reader) annotations(match func(site) bool, name string) iter.Seq2[*Annotation, error] {
	return func(yield func(*Annotation, error) bool) {
		for _, s := range r.sites() {
			if len(s.groups) == 0 || !match(s) {
				continue
			}
			for proto, err := range evaluator.ParseAttributes(r.file.Path, s.groups, s.ctx) {
				if err != nil {
					yield(nil, err)
					return
				}
				if !sameClass(proto.Name, name) {
					continue
				}
				if !yield(s.annotation(r.file.Path, proto), nil) {
					return
				}
			}
		}
	}
}

func (s site) annotation(file string, proto *evaluator.Prototype) *Annotation {
	a := &Annotation{
		Prototype: proto,
		File:      file,
		Target:    s.target,
		Function:  s.function,
		Member:    s.member,
	}
	if s.class != nil {
		a.Class = s.class.FQName
	}
	return a
}

// sameClass compares class names the way PHP does: case-insensitively and
// ignoring a leading separator. An empty filter matches everything.
func sameClass(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.EqualFold(strings.TrimPrefix(name, `\`), strings.TrimPrefix(filter, `\`))
}

// Metadata lookups. Each takes an optional attribute name filter; an empty
// name returns all attributes of the declaration.

// ClassMetadata yields the attributes of class.
func (r *Reader) ClassMetadata(class, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		return s.target == TargetClass && sameClass(s.class.FQName, class)
	}, name))
}

// FunctionMetadata yields the attributes of a top-level function, given by
// its fully-qualified name.
func (r *Reader) FunctionMetadata(function, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		return s.target == TargetFunction && sameClass(s.function, function)
	}, name))
}

// MethodMetadata yields the attributes of class::method.
func (r *Reader) MethodMetadata(class, method, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		return s.target == TargetMethod && sameClass(s.class.FQName, class) && strings.EqualFold(s.function, method)
	}, name))
}

// PropertyMetadata yields the attributes of class::$property.
func (r *Reader) PropertyMetadata(class, property, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		return s.target == TargetProperty && sameClass(s.class.FQName, class) && s.member == property
	}, name))
}

// ConstantMetadata yields the attributes of a class constant or enum case.
func (r *Reader) ConstantMetadata(class, constant, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		return (s.target == TargetClassConstant || s.target == TargetEnumCase) &&
			sameClass(s.class.FQName, class) && s.member == constant
	}, name))
}

// ParameterMetadata yields the attributes of a parameter. class is empty for
// parameters of top-level functions, in which case function is the
// fully-qualified function name.
func (r *Reader) ParameterMetadata(class, function, param, name string) iter.Seq2[*evaluator.Prototype, error] {
	return prototypes(r.annotations(func(s site) bool {
		if s.target != TargetParameter || s.member != param {
			return false
		}
		if class == "" {
			return s.class == nil && sameClass(s.function, function)
		}
		return s.class != nil && sameClass(s.class.FQName, class) && strings.EqualFold(s.function, function)
	}, name))
}

// FirstClassMetadata returns the first attribute of class named name, or nil.
func (r *Reader) FirstClassMetadata(class, name string) (*evaluator.Prototype, error) {
	return first(r.ClassMetadata(class, name))
}

// FirstFunctionMetadata returns the first matching attribute of a function.
func (r *Reader) FirstFunctionMetadata(function, name string) (*evaluator.Prototype, error) {
	return first(r.FunctionMetadata(function, name))
}

// FirstMethodMetadata returns the first matching attribute of a method.
func (r *Reader) FirstMethodMetadata(class, method, name string) (*evaluator.Prototype, error) {
	return first(r.MethodMetadata(class, method, name))
}

// FirstPropertyMetadata returns the first matching attribute of a property.
func (r *Reader) FirstPropertyMetadata(class, property, name string) (*evaluator.Prototype, error) {
	return first(r.PropertyMetadata(class, property, name))
}

// FirstConstantMetadata returns the first matching attribute of a constant.
func (r *Reader) FirstConstantMetadata(class, constant, name string) (*evaluator.Prototype, error) {
	return first(r.ConstantMetadata(class, constant, name))
}

// FirstParameterMetadata returns the first matching attribute of a parameter.
func (r *Reader) FirstParameterMetadata(class, function, param, name string) (*evaluator.Prototype, error) {
	return first(r.ParameterMetadata(class, function, param, name))
}

func prototypes(seq iter.Seq2[*Annotation, error]) iter.Seq2[*evaluator.Prototype, error] {
	return func(yield func(*evaluator.Prototype, error) bool) {
		for a, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(a.Prototype, nil) {
				return
			}
		}
	}
}

func first(seq iter.Seq2[*evaluator.Prototype, error]) (*evaluator.Prototype, error) {
	for proto, err := range seq {
		return proto, err
	}
	return nil, nil
}
