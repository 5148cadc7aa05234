package parsing

import (
	"strconv"
	"strings"

	"github.com/satishbabariya/phpattr/attrs/ast"
)

// Binding powers follow the PHP 8 precedence table. Left-associative
// operators have left < right, right-associative ones left > right.
type bindingPower struct {
	left, right int
}

var infixOps = map[string]bindingPower{
	"or":  {1, 2},
	"xor": {3, 4},
	"and": {5, 6},

	"=": {8, 7}, "+=": {8, 7}, "-=": {8, 7}, "*=": {8, 7}, "/=": {8, 7},
	".=": {8, 7}, "%=": {8, 7}, "**=": {8, 7}, "&=": {8, 7}, "|=": {8, 7},
	"^=": {8, 7}, "<<=": {8, 7}, ">>=": {8, 7}, "??=": {8, 7},

	"?":  {9, 10},
	"??": {12, 11},
	"||": {13, 14},
	"&&": {15, 16},
	"|":  {17, 18},
	"^":  {19, 20},
	"&":  {21, 22},

	"==": {23, 24}, "!=": {23, 24}, "<>": {23, 24},
	"===": {23, 24}, "!==": {23, 24}, "<=>": {23, 24},

	"<": {25, 26}, "<=": {25, 26}, ">": {25, 26}, ">=": {25, 26},

	".": {27, 28},

	"<<": {29, 30}, ">>": {29, 30},

	"+": {31, 32}, "-": {31, 32},

	"*": {33, 34}, "/": {33, 34}, "%": {33, 34},

	"instanceof": {37, 38},

	"**": {42, 41},
}

const (
	notPower    = 35
	prefixPower = 39
)

var castTypes = map[string]string{
	"int": "int", "integer": "int",
	"float": "float", "double": "float", "real": "float",
	"string": "string", "binary": "string",
	"bool": "bool", "boolean": "bool",
	"array": "array", "object": "object", "unset": "unset",
}

func (p *fileParser) infixOp() (string, bindingPower, bool) {
	tok := p.cur()
	var op string
	switch tok.kind {
	case tkPunct:
		op = tok.value
	case tkName:
		op = strings.ToLower(tok.value)
		if op != "and" && op != "or" && op != "xor" && op != "instanceof" {
			return "", bindingPower{}, false
		}
	default:
		return "", bindingPower{}, false
	}
	bp, ok := infixOps[op]
	return op, bp, ok
}

// parseExpr parses an expression whose operators bind tighter than minPower.
func (p *fileParser) parseExpr(minPower int) ast.Expr {
	left := p.parsePrefix()

	for {
		op, bp, ok := p.infixOp()
		if !ok || bp.left < minPower {
			return left
		}
		p.advance()
		// Operations start where their left operand starts.
		pos := left.Position()

		switch op {
		case "?":
			t := &ast.Ternary{Pos: pos, Cond: left}
			if !p.acceptPunct(":") {
				t.Then = p.parseExpr(0)
				p.expectPunct(":")
			}
			t.Else = p.parseExpr(bp.right)
			left = t
		case "instanceof":
			class := p.expectKind(tkName)
			left = &ast.Instanceof{Pos: pos, X: left, Class: p.scope.resolveClass(class.value)}
		default:
			left = &ast.Binary{Pos: pos, Op: op, X: left, Y: p.parseExpr(bp.right)}
		}
	}
}

func (p *fileParser) parsePrefix() ast.Expr {
	tok := p.cur()
	pos := ast.FromLexerPosition(tok.pos)

	if tok.kind == tkPunct {
		switch tok.value {
		case "!":
			p.advance()
			return &ast.Unary{Pos: pos, Op: "!", X: p.parseExpr(notPower)}
		case "-", "+", "~", "@":
			p.advance()
			return &ast.Unary{Pos: pos, Op: tok.value, X: p.parseExpr(prefixPower)}
		case "(":
			if cast, ok := castTypes[strings.ToLower(p.peek(1).value)]; ok && p.peek(1).kind == tkName && p.peek(2).isPunct(")") {
				p.pos += 3
				return &ast.Cast{Pos: pos, Type: cast, X: p.parseExpr(prefixPower)}
			}
		}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *fileParser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		tok := p.cur()
		switch {
		case tok.isPunct("["):
			p.advance()
			fetch := &ast.ArrayDimFetch{Pos: x.Position(), Var: x}
			if !p.cur().isPunct("]") {
				fetch.Dim = p.parseExpr(0)
			}
			p.expectPunct("]")
			x = fetch
		case tok.isPunct("->"), tok.isPunct("?->"):
			p.advance()
			name := p.advance()
			if name.kind != tkName && name.kind != tkVariable {
				p.errorAt(name.pos, "syntax error, unexpected %s", name.describe())
			}
			x = &ast.PropertyFetch{Pos: x.Position(), Var: x, Name: name.value, Nullsafe: tok.value == "?->"}
		case tok.isPunct("("):
			p.advance()
			x = &ast.Call{Pos: x.Position(), Func: x, Args: p.parseArguments()}
		default:
			return x
		}
	}
}

func (p *fileParser) parsePrimary() ast.Expr {
	tok := p.cur()
	pos := ast.FromLexerPosition(tok.pos)

	switch tok.kind {
	case tkInt:
		p.advance()
		return parseInt(pos, tok.value)
	case tkFloat:
		p.advance()
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.value, "_", ""), 64)
		if err != nil {
			p.errorAt(tok.pos, "syntax error, invalid numeric literal %s", tok.value)
		}
		return &ast.FloatLit{Pos: pos, Value: f, Raw: tok.value}
	case tkString:
		p.advance()
		return stringLiteral(pos, tok.value)
	case tkHeredoc:
		p.advance()
		return heredocLiteral(pos, tok)
	case tkVariable:
		p.advance()
		return &ast.Variable{Pos: pos, Name: tok.value}
	case tkName:
		return p.parseName()
	case tkPunct:
		switch tok.value {
		case "(":
			p.advance()
			x := p.parseExpr(0)
			p.expectPunct(")")
			return x
		case "[":
			p.advance()
			return p.parseArrayItems(pos, "]")
		}
	}
	p.unexpected()
	return nil
}

func (p *fileParser) parseName() ast.Expr {
	tok := p.advance()
	pos := ast.FromLexerPosition(tok.pos)
	lower := strings.ToLower(tok.value)

	if kind, ok := ast.LookupMagic(tok.value); ok {
		return &ast.MagicConst{Pos: pos, Kind: kind, Name: strings.ToUpper(tok.value)}
	}

	switch lower {
	case "new":
		return p.parseNew(pos)
	case "array":
		if p.cur().isPunct("(") {
			p.advance()
			return p.parseArrayItems(pos, ")")
		}
	case "static":
		if p.cur().isKeyword("function") || p.cur().isKeyword("fn") {
			return p.parseClosure(pos)
		}
	case "function", "fn":
		p.pos--
		return p.parseClosure(pos)
	case "list", "isset", "empty", "match", "include", "require", "print", "throw", "yield", "clone":
		p.errorAt(tok.pos, "syntax error, unexpected '%s' in constant expression", tok.value)
	}

	switch {
	case p.cur().isPunct("::"):
		p.advance()
		return p.parseStaticMember(pos, p.scope.resolveClass(tok.value))
	case p.cur().isPunct("("):
		p.advance()
		fn := &ast.ConstFetch{Pos: pos, Name: p.scope.resolveFunction(tok.value)}
		return &ast.Call{Pos: pos, Func: fn, Args: p.parseArguments()}
	}
	return &ast.ConstFetch{Pos: pos, Name: p.scope.resolveConstant(tok.value)}
}

func (p *fileParser) parseStaticMember(pos ast.Pos, class string) ast.Expr {
	member := p.advance()
	switch member.kind {
	case tkVariable:
		return &ast.StaticPropertyFetch{Pos: pos, Class: class, Name: member.value}
	case tkName:
		if p.acceptPunct("(") {
			return &ast.StaticCall{Pos: pos, Class: class, Method: member.value, Args: p.parseArguments()}
		}
		name := member.value
		if strings.EqualFold(name, "class") {
			name = "class"
		}
		return &ast.ClassConstFetch{Pos: pos, Class: class, Name: name}
	}
	p.errorAt(member.pos, "syntax error, unexpected %s", member.describe())
	return nil
}

func (p *fileParser) parseNew(pos ast.Pos) ast.Expr {
	tok := p.cur()
	if tok.isKeyword("class") {
		p.errorAt(tok.pos, "syntax error, anonymous classes are not supported here")
	}
	class := p.expectKind(tkName)
	n := &ast.New{Pos: pos, Class: p.scope.resolveClass(class.value)}
	if p.acceptPunct("(") {
		n.Args = p.parseArguments()
	}
	return n
}

// parseClosure skips a closure or arrow function; its value is never constant.
func (p *fileParser) parseClosure(pos ast.Pos) ast.Expr {
	arrow := p.advance().isKeyword("fn")
	p.acceptPunct("&")
	p.expectPunct("(")
	p.skipExpression(")")
	p.advance()

	if arrow {
		p.skipExpression(",", ")", "]", ";")
		return &ast.Closure{Pos: pos, Arrow: true}
	}

	if p.cur().isKeyword("use") {
		p.advance()
		p.expectPunct("(")
		p.skipExpression(")")
		p.advance()
	}
	for !p.cur().isPunct("{") {
		if p.cur().kind == tkEOF {
			p.unexpected()
		}
		p.advance()
	}
	p.skipBlock()
	return &ast.Closure{Pos: pos}
}

// parseArrayItems parses items after the opening bracket up to closer.
func (p *fileParser) parseArrayItems(pos ast.Pos, closer string) ast.Expr {
	arr := &ast.ArrayLit{Pos: pos}
	for !p.cur().isPunct(closer) {
		item := &ast.ArrayItem{}
		if p.acceptPunct("...") {
			item.Unpack = true
			item.Value = p.parseExpr(0)
		} else {
			value := p.parseExpr(0)
			if p.acceptPunct("=>") {
				item.Key = value
				value = p.parseExpr(0)
			}
			item.Value = value
		}
		arr.Items = append(arr.Items, item)
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(closer)
	return arr
}

// parseInt decodes decimal, hexadecimal, octal and binary literals. Values
// that overflow int64 become floats, as in PHP.
func parseInt(pos ast.Pos, raw string) ast.Expr {
	digits := strings.ReplaceAll(raw, "_", "")
	base := 10
	switch {
	case len(digits) > 1 && (digits[1] == 'x' || digits[1] == 'X'):
		base, digits = 16, digits[2:]
	case len(digits) > 1 && (digits[1] == 'b' || digits[1] == 'B'):
		base, digits = 2, digits[2:]
	case len(digits) > 1 && (digits[1] == 'o' || digits[1] == 'O'):
		base, digits = 8, digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		base, digits = 8, digits[1:]
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(digits, base, 64)
		f := float64(u)
		if uerr != nil {
			f, _ = strconv.ParseFloat(digits, 64)
		}
		return &ast.FloatLit{Pos: pos, Value: f, Raw: raw}
	}
	return &ast.IntLit{Pos: pos, Value: v, Raw: raw}
}

func stringLiteral(pos ast.Pos, raw string) ast.Expr {
	body := raw[1 : len(raw)-1]
	if raw[0] == '\'' {
		return &ast.StringLit{Pos: pos, Value: unescapeSingle(body), Raw: raw}
	}
	if hasInterpolation(body) {
		return &ast.InterpolatedString{Pos: pos, Raw: raw}
	}
	return &ast.StringLit{Pos: pos, Value: unescapeDouble(body, '"'), Raw: raw}
}

func heredocLiteral(pos ast.Pos, tok token) ast.Expr {
	if tok.nowdoc {
		return &ast.StringLit{Pos: pos, Value: tok.value}
	}
	if hasInterpolation(tok.value) {
		return &ast.InterpolatedString{Pos: pos, Raw: tok.value}
	}
	return &ast.StringLit{Pos: pos, Value: unescapeDouble(tok.value, 0)}
}

func unescapeSingle(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '\'') {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// hasInterpolation reports an unescaped "$name" or "{$" in a double-quoted body.
func hasInterpolation(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '$':
			if i+1 < len(s) && (isIdentStart(s[i+1]) || s[i+1] == '{') {
				return true
			}
		case '{':
			if i+1 < len(s) && s[i+1] == '$' {
				return true
			}
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// unescapeDouble processes the escape sequences of double-quoted strings and
// heredocs. quote is the delimiter that may be escaped, or 0 for heredocs.
func unescapeDouble(s string, quote byte) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		next := s[i+1]
		switch {
		case next == 'n':
			sb.WriteByte('\n')
		case next == 't':
			sb.WriteByte('\t')
		case next == 'r':
			sb.WriteByte('\r')
		case next == 'v':
			sb.WriteByte('\v')
		case next == 'e':
			sb.WriteByte(0x1b)
		case next == 'f':
			sb.WriteByte('\f')
		case next == '\\', next == '$':
			sb.WriteByte(next)
		case quote != 0 && next == quote:
			sb.WriteByte(next)
		case next >= '0' && next <= '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 16)
			sb.WriteByte(byte(v))
			i = j - 2
		case next == 'x' && i+2 < len(s) && isHex(s[i+2]):
			j := i + 2
			for j < len(s) && j < i+4 && isHex(s[j]) {
				j++
			}
			v, _ := strconv.ParseUint(s[i+2:j], 16, 8)
			sb.WriteByte(byte(v))
			i = j - 2
		case next == 'u' && i+2 < len(s) && s[i+2] == '{':
			end := strings.IndexByte(s[i+3:], '}')
			if end < 0 {
				sb.WriteByte(c)
				continue
			}
			v, err := strconv.ParseUint(s[i+3:i+3+end], 16, 32)
			if err != nil {
				sb.WriteByte(c)
				continue
			}
			sb.WriteRune(rune(v))
			i = i + 3 + end - 1
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
