package reader

import (
	"encoding/json"

	"github.com/satishbabariya/phpattr/attrs/evaluator"
)

// Target is the kind of declaration an attribute is attached to.
type Target int

const (
	TargetClass Target = iota
	TargetFunction
	TargetMethod
	TargetProperty
	TargetClassConstant
	TargetEnumCase
	TargetParameter
)

func (t Target) String() string {
	switch t {
	case TargetFunction:
		return "function"
	case TargetMethod:
		return "method"
	case TargetProperty:
		return "property"
	case TargetClassConstant:
		return "constant"
	case TargetEnumCase:
		return "case"
	case TargetParameter:
		return "parameter"
	default:
		return "class"
	}
}

// Annotation is a prototype together with the declaration it belongs to.
type Annotation struct {
	*evaluator.Prototype

	File   string
	Target Target
	// Class is the fully-qualified name of the enclosing class-like, empty
	// for functions and their parameters.
	Class string
	// Function is the function or method name for functions, methods and
	// parameters.
	Function string
	// Member is the property, constant, case or parameter name.
	Member string
}

// Subject renders the annotated declaration, e.g. App\User::$name or
// App\boot().
func (a *Annotation) Subject() string {
	prefix := ""
	if a.Class != "" {
		prefix = a.Class + "::"
	}
	switch a.Target {
	case TargetFunction, TargetMethod:
		return prefix + a.Function + "()"
	case TargetProperty:
		return prefix + "$" + a.Member
	case TargetClassConstant, TargetEnumCase:
		return prefix + a.Member
	case TargetParameter:
		return prefix + a.Function + "($" + a.Member + ")"
	default:
		return a.Class
	}
}

type annotationJSON struct {
	Name      string               `json:"name"`
	Target    string               `json:"target"`
	Subject   string               `json:"subject"`
	File      string               `json:"file"`
	Line      int                  `json:"line"`
	Arguments *evaluator.Arguments `json:"arguments"`
}

// MarshalJSON encodes the annotation with its subject flattened in.
func (a *Annotation) MarshalJSON() ([]byte, error) {
	return json.Marshal(annotationJSON{
		Name:      a.Name,
		Target:    a.Target.String(),
		Subject:   a.Subject(),
		File:      a.File,
		Line:      a.Line,
		Arguments: a.Arguments,
	})
}

// Export converts the annotation into plain Go values, in the same shape as
// its JSON encoding.
func (a *Annotation) Export() map[string]any {
	return map[string]any{
		"name":      a.Name,
		"target":    a.Target.String(),
		"subject":   a.Subject(),
		"file":      a.File,
		"line":      a.Line,
		"arguments": a.Arguments.Export(),
	}
}
