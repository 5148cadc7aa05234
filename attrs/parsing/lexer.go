package parsing

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/phpattr/attrs/diagnostics"
)

const (
	identPattern = `[\p{L}_][\p{L}\p{N}_]*`
	digits       = `\d(?:_?\d)*`
)

// codeRules returns the rules of the "Code" state. The PHP 8 dialect lexes
// "#[" as the start of an attribute group; older versions treat it as a
// comment.
func codeRules(attributes bool) []lexer.Rule {
	rules := []lexer.Rule{
		{Name: "CloseTag", Pattern: `\?>`, Action: lexer.Pop()},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "DocComment", Pattern: `/\*\*(?s:.*?)\*/`},
		{Name: "Comment", Pattern: `/\*(?s:.*?)\*/`},
	}
	if attributes {
		rules = append(rules, lexer.Rule{Name: "AttrOpen", Pattern: `#\[`})
	}
	return append(rules,
		// A line comment ends at the line break or before "?>".
		lexer.Rule{Name: "LineComment", Pattern: `(?://|#)(?:[^\r\n?]|\?+[^>\r\n?])*(?:\?+(?m:$)|\?+\r)?`},
		lexer.Rule{Name: "Heredoc", Pattern: `<<<[ \t]*["']?(` + identPattern + `)["']?\r?\n`, Action: lexer.Push("Heredoc")},
		lexer.Rule{Name: "Variable", Pattern: `\$` + identPattern},
		lexer.Rule{Name: "Float", Pattern: `(?:` + digits + `)?\.` + digits + `(?:[eE][+-]?\d+)?|` + digits + `(?:\.(?:` + digits + `)?)?[eE][+-]?\d+|` + digits + `\.(?:` + digits + `)?`},
		lexer.Rule{Name: "Int", Pattern: `0[xX][0-9a-fA-F](?:_?[0-9a-fA-F])*|0[bB][01](?:_?[01])*|0[oO]?[0-7](?:_?[0-7])*|` + digits},
		lexer.Rule{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
		lexer.Rule{Name: "Name", Pattern: `\\?` + identPattern + `(?:\\` + identPattern + `)*`},
		lexer.Rule{Name: "Punct", Pattern: `\*\*=|\.\.\.|<=>|===|!==|\?\?=|<<=|>>=|\?->|\*\*|\+\+|--|->|=>|::|==|!=|<>|<=|>=|&&|\|\||\?\?|<<|>>|\+=|-=|\*=|/=|\.=|%=|&=|\|=|\^=|[-+*/%.=<>!~^&|?:;,()\[\]{}@\\$` + "`]"},
	)
}

func phpRules(attributes bool) lexer.Rules {
	return lexer.Rules{
		"Root": {
			{Name: "OpenTag", Pattern: `<\?php\b|<\?=|<\?`, Action: lexer.Push("Code")},
			{Name: "InlineHTML", Pattern: `[^<]+|<`},
		},
		"Code": codeRules(attributes),
		// \1 refers to the label captured by the Heredoc rule.
		"Heredoc": {
			{Name: "HeredocEnd", Pattern: `[ \t]*\1\b`, Action: lexer.Pop()},
			{Name: "HeredocLine", Pattern: `[^\n]*\n`},
		},
	}
}

var (
	// PHP8Lexer tokenizes PHP 8 source, where "#[" opens an attribute group.
	PHP8Lexer = lexer.MustStateful(phpRules(true))
	// PHP7Lexer tokenizes PHP 7 source, where "#[" starts a line comment.
	PHP7Lexer = lexer.MustStateful(phpRules(false))
)

type tokenKind int

const (
	tkEOF tokenKind = iota
	tkName
	tkVariable
	tkInt
	tkFloat
	tkString
	tkHeredoc
	tkAttrOpen
	tkPunct
)

func (k tokenKind) String() string {
	switch k {
	case tkEOF:
		return "end of file"
	case tkName:
		return "identifier"
	case tkVariable:
		return "variable"
	case tkInt:
		return "integer"
	case tkFloat:
		return "float"
	case tkString, tkHeredoc:
		return "string"
	case tkAttrOpen:
		return "'#['"
	default:
		return "token"
	}
}

// token is a significant token. Heredocs are folded into a single token whose
// value is the body with the closing indentation removed.
type token struct {
	kind  tokenKind
	value string
	pos   lexer.Position
	// nowdoc marks a heredoc opened with a quoted 'LABEL'.
	nowdoc bool
}

func (t token) is(kind tokenKind, value string) bool {
	return t.kind == kind && t.value == value
}

func (t token) isPunct(value string) bool {
	return t.is(tkPunct, value)
}

// isKeyword compares a name token case-insensitively, as PHP keywords are.
func (t token) isKeyword(word string) bool {
	return t.kind == tkName && strings.EqualFold(t.value, word)
}

func (t token) describe() string {
	if t.kind == tkEOF {
		return "end of file"
	}
	return "'" + t.value + "'"
}

// tokenize lexes src and drops trivia: whitespace, comments, inline HTML and
// open tags. A close tag acts as a statement terminator.
func tokenize(def *lexer.StatefulDefinition, filename, src string) ([]token, error) {
	lex, err := def.LexString(filename, src)
	if err != nil {
		return nil, lexError(filename, err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, lexError(filename, err)
	}

	names := make(map[lexer.TokenType]string)
	for name, typ := range def.Symbols() {
		names[typ] = name
	}

	tokens := make([]token, 0, len(raw)/2)
	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		if tok.EOF() {
			break
		}
		switch names[tok.Type] {
		case "Whitespace", "DocComment", "Comment", "LineComment", "InlineHTML", "OpenTag":
			continue
		case "CloseTag":
			tokens = append(tokens, token{kind: tkPunct, value: ";", pos: tok.Pos})
		case "AttrOpen":
			tokens = append(tokens, token{kind: tkAttrOpen, value: tok.Value, pos: tok.Pos})
		case "Variable":
			tokens = append(tokens, token{kind: tkVariable, value: tok.Value[1:], pos: tok.Pos})
		case "Float":
			tokens = append(tokens, token{kind: tkFloat, value: tok.Value, pos: tok.Pos})
		case "Int":
			tokens = append(tokens, token{kind: tkInt, value: tok.Value, pos: tok.Pos})
		case "String":
			tokens = append(tokens, token{kind: tkString, value: tok.Value, pos: tok.Pos})
		case "Name":
			tokens = append(tokens, token{kind: tkName, value: tok.Value, pos: tok.Pos})
		case "Punct":
			tokens = append(tokens, token{kind: tkPunct, value: tok.Value, pos: tok.Pos})
		case "Heredoc":
			heredoc, next := foldHeredoc(raw, i, names)
			tokens = append(tokens, heredoc)
			i = next
		default:
			return nil, &diagnostics.ParseError{
				File:    filename,
				Line:    tok.Pos.Line,
				Column:  tok.Pos.Column,
				Message: "syntax error, unexpected '" + tok.Value + "'",
			}
		}
	}
	return append(tokens, token{kind: tkEOF, pos: eofPosition(raw)}), nil
}

// foldHeredoc joins the lines of the heredoc starting at raw[start] and
// returns the folded token and the index of the HeredocEnd token.
func foldHeredoc(raw []lexer.Token, start int, names map[lexer.TokenType]string) (token, int) {
	open := raw[start]
	var lines []string
	end := start + 1
	indent := ""
	for ; end < len(raw); end++ {
		switch names[raw[end].Type] {
		case "HeredocLine":
			lines = append(lines, raw[end].Value)
			continue
		case "HeredocEnd":
			value := raw[end].Value
			indent = value[:len(value)-len(strings.TrimLeft(value, " \t"))]
		}
		break
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	body := strings.TrimSuffix(strings.Join(lines, ""), "\n")
	body = strings.TrimSuffix(body, "\r")

	return token{
		kind:   tkHeredoc,
		value:  body,
		pos:    open.Pos,
		nowdoc: strings.Contains(open.Value, "'"),
	}, end
}

func eofPosition(raw []lexer.Token) lexer.Position {
	if len(raw) == 0 {
		return lexer.Position{Line: 1, Column: 1}
	}
	return raw[len(raw)-1].Pos
}

func lexError(filename string, err error) error {
	var lexErr *lexer.Error
	if errors.As(err, &lexErr) {
		return &diagnostics.ParseError{
			File:    filename,
			Line:    lexErr.Pos.Line,
			Column:  lexErr.Pos.Column,
			Message: "syntax error, " + lexErr.Msg,
		}
	}
	return &diagnostics.ParseError{File: filename, Line: 1, Message: "syntax error, " + err.Error()}
}
