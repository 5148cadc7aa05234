// Package parsing turns PHP source into the declaration tree used for
// attribute extraction. Only declarations that can carry attributes are
// parsed; function bodies and other statements are skipped.
package parsing

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/phpattr/attrs/ast"
	"github.com/satishbabariya/phpattr/attrs/diagnostics"
	"github.com/satishbabariya/phpattr/internal/debug"
)

// DefaultVersion is the PHP version assumed when none is configured.
const DefaultVersion = "8.3"

var (
	attributesSince = version.Must(version.NewVersion("8.0"))
	enumsSince      = version.Must(version.NewVersion("8.1"))
)

// Parser parses PHP files for a given language version. The zero value is not
// usable; use New.
type Parser struct {
	version *version.Version
}

// Option configures a Parser.
type Option func(*Parser)

// WithVersion sets the PHP version the source is written for.
func WithVersion(v *version.Version) Option {
	return func(p *Parser) {
		if v != nil {
			p.version = v
		}
	}
}

// New creates a parser. Without options it targets DefaultVersion.
func New(opts ...Option) *Parser {
	p := &Parser{version: version.Must(version.NewVersion(DefaultVersion))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Version returns the targeted PHP version.
func (p *Parser) Version() *version.Version {
	return p.version
}

// SupportsAttributes reports whether the targeted version has #[...] syntax.
func (p *Parser) SupportsAttributes() bool {
	return p.version.GreaterThanOrEqual(attributesSince)
}

// Parse parses src. filename is only used for error locations.
func (p *Parser) Parse(filename string, src []byte) (*ast.File, error) {
	def := PHP8Lexer
	if !p.SupportsAttributes() {
		def = PHP7Lexer
	}

	tokens, err := tokenize(def, filename, string(src))
	if err != nil {
		return nil, err
	}

	debug.Debug("Tokenized PHP source", "file", filename, "tokens", len(tokens), "php", p.version.String())

	fp := &fileParser{
		file:   filename,
		tokens: tokens,
		scope:  newScope(""),
		enums:  p.version.GreaterThanOrEqual(enumsSince),
	}
	return fp.parse()
}

// ParseString parses PHP source held in a string.
func (p *Parser) ParseString(filename, src string) (*ast.File, error) {
	return p.Parse(filename, []byte(src))
}

// ParseExpression parses a single PHP expression, without the open tag.
// Names are resolved against the global namespace.
func (p *Parser) ParseExpression(filename, src string) (ast.Expr, error) {
	tokens, err := tokenize(PHP8Lexer, filename, "<?php "+src)
	if err != nil {
		return nil, err
	}
	fp := &fileParser{file: filename, tokens: tokens, scope: newScope("")}
	return fp.parseStandaloneExpr()
}

// bailout is panicked by fileParser.errorf and recovered by parse.
type bailout struct{}

// fileParser is a recursive-descent parser over the significant tokens of
// one file.
type fileParser struct {
	file   string
	tokens []token
	pos    int
	scope  *scope
	enums  bool
	err    *diagnostics.ParseError
}

func (p *fileParser) parse() (f *ast.File, err error) {
	defer p.recover(&err)

	f = &ast.File{Path: p.file}
	p.parseStatements(f, false)
	return f, nil
}

func (p *fileParser) parseStandaloneExpr() (e ast.Expr, err error) {
	defer p.recover(&err)

	e = p.parseExpr(0)
	if !p.cur().isPunct(";") && p.cur().kind != tkEOF {
		p.unexpected()
	}
	return e, nil
}

func (p *fileParser) recover(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		*err = p.err
	}
}

// Token cursor

func (p *fileParser) cur() token {
	return p.tokens[p.pos]
}

func (p *fileParser) peek(n int) token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *fileParser) advance() token {
	tok := p.tokens[p.pos]
	if tok.kind != tkEOF {
		p.pos++
	}
	return tok
}

func (p *fileParser) acceptPunct(value string) bool {
	if p.cur().isPunct(value) {
		p.advance()
		return true
	}
	return false
}

func (p *fileParser) expectPunct(value string) token {
	if !p.cur().isPunct(value) {
		p.unexpected()
	}
	return p.advance()
}

func (p *fileParser) expectKind(kind tokenKind) token {
	if p.cur().kind != kind {
		p.unexpected()
	}
	return p.advance()
}

func (p *fileParser) unexpected() {
	p.unexpectedAt(p.cur())
}

func (p *fileParser) unexpectedAt(tok token) {
	p.errorAt(tok.pos, "syntax error, unexpected %s", tok.describe())
}

func (p *fileParser) errorAt(pos lexer.Position, format string, args ...any) {
	p.err = &diagnostics.ParseError{
		File:    p.file,
		Line:    pos.Line,
		Column:  pos.Column,
		Message: fmt.Sprintf(format, args...),
	}
	panic(bailout{})
}

// Statements

func (p *fileParser) parseStatements(f *ast.File, braced bool) {
	for {
		tok := p.cur()
		if tok.kind == tkEOF {
			if braced {
				p.unexpected()
			}
			return
		}
		if tok.isPunct("}") {
			if !braced {
				p.unexpected()
			}
			return
		}
		p.parseTopStatement(f)
	}
}

func (p *fileParser) parseTopStatement(f *ast.File) {
	groups := p.parseAttrGroups()
	tok := p.cur()

	if tok.kind == tkName {
		switch strings.ToLower(tok.value) {
		case "namespace":
			if len(groups) > 0 {
				p.unexpected()
			}
			p.parseNamespace(f)
			return
		case "use":
			if len(groups) > 0 {
				p.unexpected()
			}
			p.parseUse()
			return
		case "abstract", "final", "readonly", "class":
			if decl := p.tryClass(groups); decl != nil {
				f.Decls = append(f.Decls, decl)
				return
			}
		case "interface":
			p.advance()
			f.Decls = append(f.Decls, p.parseClassBody(groups, ast.KindInterface, tok))
			return
		case "trait":
			p.advance()
			f.Decls = append(f.Decls, p.parseClassBody(groups, ast.KindTrait, tok))
			return
		case "enum":
			if p.isEnumDecl() {
				if !p.enums {
					p.errorAt(tok.pos, "syntax error, enums require PHP 8.1")
				}
				p.advance()
				f.Decls = append(f.Decls, p.parseClassBody(groups, ast.KindEnum, tok))
				return
			}
		case "function":
			if fn := p.tryFunction(groups); fn != nil {
				f.Decls = append(f.Decls, fn)
				return
			}
		}
	}

	// Attributes on anything else (closures, anonymous classes inside
	// expressions) are not reachable declarations and are skipped.
	p.skipStatement()
}

func (p *fileParser) parseNamespace(f *ast.File) {
	p.advance()

	name := ""
	if p.cur().kind == tkName {
		name = p.advance().value
	}

	if p.acceptPunct("{") {
		outer := p.scope
		p.scope = newScope(name)
		p.parseStatements(f, true)
		p.expectPunct("}")
		p.scope = outer
		return
	}

	p.expectPunct(";")
	p.scope = newScope(name)
}

// parseUse handles top-level imports, including group use:
// use A\B, C as D; use function f; use A\{B, function c, const D as E};
func (p *fileParser) parseUse() {
	p.advance()
	kind := p.importKind(importClass)

	for {
		name := p.expectKind(tkName).value
		if p.cur().isPunct(`\`) && p.peek(1).isPunct("{") {
			p.advance()
			p.advance()
			p.parseGroupUse(name, kind)
		} else {
			p.scope.addImport(kind, name, p.parseAlias())
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(";")
}

func (p *fileParser) parseGroupUse(prefix string, kind importKind) {
	for !p.cur().isPunct("}") {
		itemKind := p.importKind(kind)
		name := p.expectKind(tkName).value
		p.scope.addImport(itemKind, prefix+`\`+name, p.parseAlias())
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("}")
}

func (p *fileParser) importKind(fallback importKind) importKind {
	switch {
	case p.cur().isKeyword("function") && p.peek(1).kind == tkName:
		p.advance()
		return importFunction
	case p.cur().isKeyword("const") && p.peek(1).kind == tkName:
		p.advance()
		return importConstant
	}
	return fallback
}

func (p *fileParser) parseAlias() string {
	if p.cur().isKeyword("as") {
		p.advance()
		return p.expectKind(tkName).value
	}
	return ""
}

// tryClass parses "[abstract|final|readonly]* class Name ...". It returns nil
// without consuming anything when the tokens are not a class declaration.
// The class keyword must be followed by a name.
func (p *fileParser) tryClass(groups []*ast.AttributeGroup) *ast.ClassLike {
	n := 0
	for isClassModifier(p.peek(n)) {
		n++
	}
	if !p.peek(n).isKeyword("class") {
		return nil
	}
	if p.peek(n+1).kind != tkName {
		p.unexpectedAt(p.peek(n + 1))
	}
	start := p.cur()
	p.pos += n + 1
	return p.parseClassBody(groups, ast.KindClass, start)
}

func isClassModifier(tok token) bool {
	return tok.isKeyword("abstract") || tok.isKeyword("final") || tok.isKeyword("readonly")
}

// isEnumDecl distinguishes "enum Suit {" from a constant or function named enum.
func (p *fileParser) isEnumDecl() bool {
	if p.peek(1).kind != tkName {
		return false
	}
	next := p.peek(2)
	return next.isPunct("{") || next.isPunct(":") || next.isKeyword("implements")
}

// parseClassBody parses from the class name to the closing brace. The
// keyword has already been consumed; start is the first token of the
// declaration.
func (p *fileParser) parseClassBody(groups []*ast.AttributeGroup, kind ast.ClassKind, start token) *ast.ClassLike {
	name := p.expectKind(tkName)
	decl := &ast.ClassLike{
		Pos:        declPos(groups, start),
		Kind:       kind,
		Name:       name.value,
		FQName:     p.scope.qualify(name.value),
		Namespace:  p.scope.namespace,
		AttrGroups: groups,
	}

	// extends, implements and enum backing types
	for !p.cur().isPunct("{") {
		if p.cur().kind == tkEOF {
			p.unexpected()
		}
		p.advance()
	}
	p.advance()

	for !p.acceptPunct("}") {
		if p.cur().kind == tkEOF {
			p.unexpected()
		}
		p.parseMember(decl)
	}
	return decl
}

var memberModifiers = map[string]bool{
	"public": true, "protected": true, "private": true, "static": true,
	"abstract": true, "final": true, "readonly": true, "var": true,
}

func (p *fileParser) parseMember(c *ast.ClassLike) {
	groups := p.parseAttrGroups()
	start := p.cur()

	static := false
	for p.cur().kind == tkName && memberModifiers[strings.ToLower(p.cur().value)] {
		if p.cur().isKeyword("static") {
			static = true
		}
		p.advance()
		p.skipSetVisibility()
	}

	tok := p.cur()
	switch {
	case tok.isKeyword("use"):
		p.skipStatement()
	case tok.isKeyword("const"):
		p.advance()
		p.parseClassConstants(c, groups, start)
	case tok.isKeyword("case") && c.Kind == ast.KindEnum:
		p.advance()
		p.parseEnumCase(c, groups, start)
	case tok.isKeyword("function"):
		p.advance()
		p.parseMethod(c, groups, start, static)
	case tok.isPunct(";"):
		p.advance()
	default:
		p.parseProperties(c, groups, start, static)
	}
}

// skipSetVisibility skips the "(set)" of asymmetric visibility modifiers.
func (p *fileParser) skipSetVisibility() {
	if p.cur().isPunct("(") && p.peek(1).isKeyword("set") && p.peek(2).isPunct(")") {
		p.pos += 3
	}
}

func (p *fileParser) parseClassConstants(c *ast.ClassLike, groups []*ast.AttributeGroup, start token) {
	// Typed constants: skip the type up to the name followed by "=".
	for !(p.cur().kind == tkName && p.peek(1).isPunct("=")) {
		if p.cur().kind == tkEOF || p.cur().isPunct(";") {
			p.unexpected()
		}
		p.advance()
	}

	first := true
	for {
		name := p.expectKind(tkName)
		p.expectPunct("=")
		pos := name.pos
		if first {
			pos = start.pos
		}
		c.Members = append(c.Members, &ast.ClassConstant{
			Pos:        declPos(groups, token{pos: pos}),
			Name:       name.value,
			AttrGroups: groups,
			Value:      p.parseExpr(0),
		})
		first = false
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(";")
}

func (p *fileParser) parseEnumCase(c *ast.ClassLike, groups []*ast.AttributeGroup, start token) {
	name := p.expectKind(tkName)
	ec := &ast.EnumCase{
		Pos:        declPos(groups, start),
		Name:       name.value,
		AttrGroups: groups,
	}
	if p.acceptPunct("=") {
		ec.Value = p.parseExpr(0)
	}
	p.expectPunct(";")
	c.Members = append(c.Members, ec)
}

func (p *fileParser) parseMethod(c *ast.ClassLike, groups []*ast.AttributeGroup, start token, static bool) {
	p.acceptPunct("&")
	name := p.expectKind(tkName)
	m := &ast.Method{
		Pos:        declPos(groups, start),
		Name:       name.value,
		Static:     static,
		AttrGroups: groups,
	}
	m.Params = p.parseParams()
	c.Members = append(c.Members, m)

	if strings.EqualFold(m.Name, "__construct") {
		for _, param := range m.Params {
			if param.Promoted {
				c.Members = append(c.Members, &ast.Property{
					Pos:        param.Pos,
					Name:       param.Name,
					Promoted:   true,
					AttrGroups: param.AttrGroups,
				})
			}
		}
	}

	p.skipReturnTypeAndBody()
}

func (p *fileParser) parseProperties(c *ast.ClassLike, groups []*ast.AttributeGroup, start token, static bool) {
	// Skip the type up to the first variable.
	for p.cur().kind != tkVariable {
		if p.cur().kind == tkEOF || p.cur().isPunct(";") || p.cur().isPunct("}") {
			p.unexpected()
		}
		p.advance()
	}

	first := true
	for {
		name := p.expectKind(tkVariable)
		pos := name.pos
		if first {
			pos = start.pos
		}
		c.Members = append(c.Members, &ast.Property{
			Pos:        declPos(groups, token{pos: pos}),
			Name:       name.value,
			Static:     static,
			AttrGroups: groups,
		})
		first = false

		if p.acceptPunct("=") {
			p.skipExpression(",", ";", "{")
		}
		if p.cur().isPunct("{") {
			// property hooks
			p.skipBlock()
			return
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(";")
}

// tryFunction parses a named function declaration; closures return nil.
func (p *fileParser) tryFunction(groups []*ast.AttributeGroup) *ast.Function {
	n := 1
	if p.peek(n).isPunct("&") {
		n++
	}
	if p.peek(n).isPunct("(") {
		return nil
	}
	if p.peek(n).kind != tkName {
		p.unexpectedAt(p.peek(n))
	}
	if !p.peek(n + 1).isPunct("(") {
		p.unexpectedAt(p.peek(n + 1))
	}
	start := p.cur()
	p.pos += n
	name := p.advance()

	fn := &ast.Function{
		Pos:        declPos(groups, start),
		Name:       name.value,
		FQName:     p.scope.qualify(name.value),
		Namespace:  p.scope.namespace,
		AttrGroups: groups,
	}
	fn.Params = p.parseParams()
	p.skipReturnTypeAndBody()
	return fn
}

var promotionModifiers = map[string]bool{
	"public": true, "protected": true, "private": true, "readonly": true,
}

func (p *fileParser) parseParams() []*ast.Parameter {
	p.expectPunct("(")

	var params []*ast.Parameter
	for !p.cur().isPunct(")") {
		groups := p.parseAttrGroups()
		start := p.cur()
		param := &ast.Parameter{AttrGroups: groups}

		for p.cur().kind == tkName && promotionModifiers[strings.ToLower(p.cur().value)] {
			param.Promoted = true
			p.advance()
			p.skipSetVisibility()
		}

		// type, by-reference and variadic markers
		for p.cur().kind != tkVariable {
			switch {
			case p.cur().kind == tkEOF, p.cur().isPunct(")"), p.cur().isPunct(","):
				p.unexpected()
			case p.cur().isPunct("..."):
				param.Variadic = true
			}
			p.advance()
		}

		name := p.advance()
		param.Name = name.value
		param.Pos = declPos(groups, start)

		if p.acceptPunct("=") {
			p.skipExpression(",", ")")
		}
		if p.cur().isPunct("{") {
			p.skipBlock()
		}
		params = append(params, param)

		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	return params
}

// skipReturnTypeAndBody skips ": Type" and then either ";" or a body block.
func (p *fileParser) skipReturnTypeAndBody() {
	for !p.cur().isPunct("{") && !p.cur().isPunct(";") {
		if p.cur().kind == tkEOF {
			p.unexpected()
		}
		p.advance()
	}
	if p.acceptPunct(";") {
		return
	}
	p.skipBlock()
}

// Attribute groups

func (p *fileParser) parseAttrGroups() []*ast.AttributeGroup {
	var groups []*ast.AttributeGroup
	for p.cur().kind == tkAttrOpen {
		groups = append(groups, p.parseAttrGroup())
	}
	return groups
}

func (p *fileParser) parseAttrGroup() *ast.AttributeGroup {
	open := p.advance()
	group := &ast.AttributeGroup{Pos: ast.FromLexerPosition(open.pos)}

	for !p.cur().isPunct("]") {
		group.Attrs = append(group.Attrs, p.parseAttribute())
		if !p.acceptPunct(",") {
			break
		}
	}
	if len(group.Attrs) == 0 {
		p.unexpected()
	}
	p.expectPunct("]")
	return group
}

func (p *fileParser) parseAttribute() *ast.Attribute {
	name := p.expectKind(tkName)
	attr := &ast.Attribute{
		Pos:     ast.FromLexerPosition(name.pos),
		Name:    p.scope.resolveClass(name.value),
		RawName: name.value,
	}
	if p.acceptPunct("(") {
		attr.Args = p.parseArguments()
	}
	return attr
}

// parseArguments parses a call argument list after the opening parenthesis,
// consuming the closing one.
func (p *fileParser) parseArguments() []*ast.Argument {
	var args []*ast.Argument
	for !p.cur().isPunct(")") {
		tok := p.cur()
		arg := &ast.Argument{Pos: ast.FromLexerPosition(tok.pos)}
		switch {
		case tok.isPunct("..."):
			p.advance()
			arg.Unpack = true
		case tok.kind == tkName && p.peek(1).isPunct(":"):
			p.advance()
			p.advance()
			arg.Name = tok.value
		}
		arg.Value = p.parseExpr(0)
		args = append(args, arg)

		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	return args
}

// Skipping

// skipStatement skips one statement: up to a ";" at depth zero, or through a
// brace block that returns to depth zero. An unbalanced "}" is left for the
// caller.
func (p *fileParser) skipStatement() {
	depth := 0
	for {
		tok := p.cur()
		switch {
		case tok.kind == tkEOF:
			if depth > 0 {
				p.unexpected()
			}
			return
		case tok.kind == tkAttrOpen, isOpen(tok):
			depth++
		case isClose(tok):
			if depth == 0 {
				if tok.isPunct("}") {
					return
				}
				p.unexpected()
			}
			depth--
			if depth == 0 && tok.isPunct("}") {
				p.advance()
				return
			}
		case tok.isPunct(";") && depth == 0:
			p.advance()
			return
		}
		p.advance()
	}
}

// skipBlock skips a balanced brace block starting at "{".
func (p *fileParser) skipBlock() {
	p.expectPunct("{")
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch {
		case tok.kind == tkEOF:
			p.errorAt(tok.pos, "syntax error, unexpected end of file")
		case tok.kind == tkAttrOpen, isOpen(tok):
			depth++
		case isClose(tok):
			depth--
		}
	}
}

// skipExpression skips tokens up to one of stops at depth zero.
func (p *fileParser) skipExpression(stops ...string) {
	depth := 0
	for {
		tok := p.cur()
		if tok.kind == tkEOF {
			p.unexpected()
		}
		if depth == 0 {
			for _, stop := range stops {
				if tok.isPunct(stop) {
					return
				}
			}
		}
		switch {
		case tok.kind == tkAttrOpen, isOpen(tok):
			depth++
		case isClose(tok):
			if depth == 0 {
				p.unexpected()
			}
			depth--
		}
		p.advance()
	}
}

func isOpen(tok token) bool {
	return tok.isPunct("(") || tok.isPunct("[") || tok.isPunct("{")
}

func isClose(tok token) bool {
	return tok.isPunct(")") || tok.isPunct("]") || tok.isPunct("}")
}

// declPos is the position of a declaration: its first attribute group if it
// has one, otherwise its first token.
func declPos(groups []*ast.AttributeGroup, start token) ast.Pos {
	if len(groups) > 0 {
		return groups[0].Pos
	}
	return ast.FromLexerPosition(start.pos)
}
