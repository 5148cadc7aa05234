package parsing

import (
	"strings"
)

// importKind is the symbol table a use statement writes to.
type importKind int

const (
	importClass importKind = iota
	importFunction
	importConstant
)

// scope holds the namespace and the imports in effect at a point of the file.
// Alias keys are lower-cased: class and function names are case-insensitive.
type scope struct {
	namespace string
	imports   [3]map[string]string
}

func newScope(namespace string) *scope {
	s := &scope{namespace: strings.Trim(namespace, `\`)}
	for i := range s.imports {
		s.imports[i] = make(map[string]string)
	}
	return s
}

// addImport registers "use name as alias". Without an alias the last segment
// of name is used.
func (s *scope) addImport(kind importKind, name, alias string) {
	name = strings.Trim(name, `\`)
	if alias == "" {
		alias = lastSegment(name)
	}
	key := alias
	if kind != importConstant {
		key = strings.ToLower(alias)
	}
	s.imports[kind][key] = name
}

// resolveClass returns the fully-qualified form of a class name without the
// leading separator. self, static and parent are returned lower-cased.
func (s *scope) resolveClass(name string) string {
	switch lower := strings.ToLower(name); {
	case lower == "self" || lower == "static" || lower == "parent":
		return lower
	case strings.HasPrefix(name, `\`):
		return name[1:]
	case strings.HasPrefix(lower, `namespace\`):
		return s.qualify(name[len(`namespace\`):])
	}

	first, rest, qualified := strings.Cut(name, `\`)
	if target, ok := s.imports[importClass][strings.ToLower(first)]; ok {
		if qualified {
			return target + `\` + rest
		}
		return target
	}
	return s.qualify(name)
}

// resolveFunction resolves a function name used in a call. Unqualified names
// that are not imported keep their spelling; PHP falls back to the global
// function at runtime so the namespace cannot be decided statically.
func (s *scope) resolveFunction(name string) string {
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if !strings.Contains(name, `\`) {
		if target, ok := s.imports[importFunction][strings.ToLower(name)]; ok {
			return target
		}
		return name
	}
	return s.resolveClass(name)
}

// resolveConstant resolves a global constant reference the same way.
func (s *scope) resolveConstant(name string) string {
	if strings.HasPrefix(name, `\`) {
		return name[1:]
	}
	if !strings.Contains(name, `\`) {
		if target, ok := s.imports[importConstant][name]; ok {
			return target
		}
		return name
	}
	return s.resolveClass(name)
}

// qualify prefixes name with the current namespace.
func (s *scope) qualify(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + `\` + name
}

func lastSegment(name string) string {
	if idx := strings.LastIndex(name, `\`); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
