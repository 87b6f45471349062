package syntax

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Error reports a template parse failure with its source position.
type Error struct {
	Template string
	Line     int
	Column   int
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax: %s:%d:%d: %s", e.Template, e.Line, e.Column, e.Msg)
}

// rawTextElements keep their text content undecoded.
var rawTextElements = map[string]struct{}{"script": {}, "style": {}}

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {},
	"img": {}, "input": {}, "link": {}, "meta": {}, "param": {}, "source": {},
	"track": {}, "wbr": {},
}

// IsVoidElement reports whether tag never has children.
func IsVoidElement(tag string) bool {
	_, ok := voidElements[strings.ToLower(tag)]
	return ok
}

// Parse compiles source into a Template.
func Parse(name, source string) (*Template, error) {
	p := &parser{name: name, src: source}
	body, err := p.parseContent()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		switch {
		case p.hasPrefix("</"):
			return nil, p.errorf(p.off, "unexpected closing tag")
		case p.hasPrefix("{{/"):
			return nil, p.errorf(p.off, "unexpected block close")
		default:
			return nil, p.errorf(p.off, "unexpected {{else}} outside of a block")
		}
	}
	return &Template{Name: name, Source: source, Body: body}, nil
}

type parser struct {
	name string
	src  string
	off  int
	raw  int
}

// Position converts a byte offset into a 1-based line and column.
func Position(source string, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func (p *parser) errorf(off int, format string, args ...any) error {
	line, col := Position(p.src, off)
	return &Error{Template: p.name, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.off >= len(p.src) }

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.src[p.off:], s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.off]
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.src[p.off]) {
		p.off++
	}
}

func (p *parser) expect(s string) error {
	if !p.hasPrefix(s) {
		if p.eof() {
			return p.errorf(p.off, "expected %q, found end of template", s)
		}
		return p.errorf(p.off, "expected %q", s)
	}
	p.off += len(s)
	return nil
}

// parseContent reads statements until end of input, a closing tag, a block
// close or an else clause. The stop token is left unconsumed.
func (p *parser) parseContent() ([]Statement, error) {
	var out []Statement
	for !p.eof() {
		switch {
		case p.hasPrefix("{{/"), p.atElse(), p.hasPrefix("</"):
			return out, nil
		case p.hasPrefix("{{!"):
			stmt, err := p.parseMustacheComment()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		case p.hasPrefix("{{#"):
			stmt, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		case p.hasPrefix("{{"):
			stmt, err := p.parseMustache()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		case p.hasPrefix("<!--"):
			stmt, err := p.parseHTMLComment()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		case p.atOpenTag():
			stmt, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			out = append(out, stmt)
		default:
			out = appendText(out, p.parseText())
		}
	}
	return out, nil
}

func appendText(out []Statement, text *TextNode) []Statement {
	if text == nil || text.Value == "" {
		return out
	}
	if n := len(out); n > 0 {
		if prev, ok := out[n-1].(*TextNode); ok {
			prev.Value += text.Value
			return out
		}
	}
	return append(out, text)
}

func (p *parser) atOpenTag() bool {
	if !p.hasPrefix("<") || p.off+1 >= len(p.src) {
		return false
	}
	c := rune(p.src[p.off+1])
	return unicode.IsLetter(c) || c == '@' || c == ':'
}

func (p *parser) atElse() bool {
	if !p.hasPrefix("{{else") {
		return false
	}
	rest := p.src[p.off+len("{{else"):]
	return strings.HasPrefix(rest, "}}") || (len(rest) > 0 && isSpace(rest[0]))
}

func (p *parser) parseText() *TextNode {
	start := p.off
	var b strings.Builder
	for !p.eof() {
		if p.hasPrefix(`\{{`) {
			b.WriteString("{{")
			p.off += 3
			continue
		}
		if p.hasPrefix("{{") || p.hasPrefix("</") || p.hasPrefix("<!--") || p.atOpenTag() {
			break
		}
		b.WriteByte(p.src[p.off])
		p.off++
	}
	return &TextNode{pos: pos(start), Value: p.decode(b.String())}
}

// decode resolves character references in static text so the serializer
// escapes them exactly once.
func (p *parser) decode(text string) string {
	if p.raw > 0 || !strings.Contains(text, "&") {
		return text
	}
	return html.UnescapeString(text)
}

func (p *parser) parseMustacheComment() (Statement, error) {
	start := p.off
	if p.hasPrefix("{{!--") {
		end := strings.Index(p.src[p.off+5:], "--}}")
		if end < 0 {
			return nil, p.errorf(start, "unterminated comment")
		}
		value := p.src[p.off+5 : p.off+5+end]
		p.off += 5 + end + 4
		return &CommentNode{pos: pos(start), Value: value}, nil
	}
	end := strings.Index(p.src[p.off+3:], "}}")
	if end < 0 {
		return nil, p.errorf(start, "unterminated comment")
	}
	value := p.src[p.off+3 : p.off+3+end]
	p.off += 3 + end + 2
	return &CommentNode{pos: pos(start), Value: value}, nil
}

func (p *parser) parseHTMLComment() (Statement, error) {
	start := p.off
	end := strings.Index(p.src[p.off+4:], "-->")
	if end < 0 {
		return nil, p.errorf(start, "unterminated html comment")
	}
	value := p.src[p.off+4 : p.off+4+end]
	p.off += 4 + end + 3
	return &CommentNode{pos: pos(start), Value: value, HTML: true}, nil
}

func (p *parser) parseMustache() (Statement, error) {
	start := p.off
	trusted := p.hasPrefix("{{{")
	closer := "}}"
	if trusted {
		closer = "}}}"
		p.off += 3
	} else {
		p.off += 2
	}

	path, params, hash, blockParams, err := p.parseCall(closer)
	if err != nil {
		return nil, err
	}
	if blockParams != nil {
		return nil, p.errorf(start, "block params are only allowed on blocks and elements")
	}
	if err := p.expect(closer); err != nil {
		return nil, err
	}
	return &MustacheStatement{pos: pos(start), Path: path, Params: params, Hash: hash, Trusted: trusted}, nil
}

func (p *parser) parseBlock() (Statement, error) {
	start := p.off
	p.off += 3

	head, params, hash, blockParams, err := p.parseCall("}}")
	if err != nil {
		return nil, err
	}
	path, ok := head.(*PathExpression)
	if !ok {
		return nil, p.errorf(start, "block must start with a path")
	}
	if err := p.expect("}}"); err != nil {
		return nil, err
	}

	block := &BlockStatement{
		pos:         pos(start),
		Path:        path,
		Params:      params,
		Hash:        hash,
		BlockParams: blockParams,
	}
	if err := p.parseBlockBody(block); err != nil {
		return nil, err
	}

	closeStart := p.off
	if err := p.expect("{{/"); err != nil {
		return nil, p.errorf(start, "unclosed block {{#%s}}", path.Original)
	}
	p.skipSpace()
	name := p.readWhile(isPathChar)
	p.skipSpace()
	if err := p.expect("}}"); err != nil {
		return nil, err
	}
	if name != path.Original {
		return nil, p.errorf(closeStart, "{{#%s}} closed by {{/%s}}", path.Original, name)
	}
	return block, nil
}

// parseBlockBody fills Program and Inverse. An {{else if ...}} chain nests a
// block in Inverse that shares the outer block's close tag.
func (p *parser) parseBlockBody(block *BlockStatement) error {
	program, err := p.parseContent()
	if err != nil {
		return err
	}
	block.Program = program
	if !p.atElse() {
		return nil
	}

	elseStart := p.off
	p.off += len("{{else")
	p.skipSpace()
	if p.hasPrefix("}}") {
		p.off += 2
		inverse, err := p.parseContent()
		if err != nil {
			return err
		}
		block.Inverse = inverse
		if p.atElse() {
			return p.errorf(p.off, "duplicate {{else}} in {{#%s}}", block.Path.Original)
		}
		return nil
	}

	head, params, hash, blockParams, err := p.parseCall("}}")
	if err != nil {
		return err
	}
	path, ok := head.(*PathExpression)
	if !ok {
		return p.errorf(elseStart, "else chain must name a helper")
	}
	if err := p.expect("}}"); err != nil {
		return err
	}
	nested := &BlockStatement{
		pos:         pos(elseStart),
		Path:        path,
		Params:      params,
		Hash:        hash,
		BlockParams: blockParams,
	}
	if err := p.parseBlockBody(nested); err != nil {
		return err
	}
	block.Inverse = []Statement{nested}
	return nil
}

// parseCall reads `path params hash [as |x y|]` up to (not including) closer.
func (p *parser) parseCall(closer string) (Expression, []Expression, Hash, []string, error) {
	var (
		hash        Hash
		params      []Expression
		blockParams []string
	)

	p.skipSpace()
	head, err := p.parseExpression()
	if err != nil {
		return nil, nil, hash, nil, err
	}

	for {
		p.skipSpace()
		if p.eof() {
			return nil, nil, hash, nil, p.errorf(p.off, "expected %q, found end of template", closer)
		}
		if p.hasPrefix(closer) {
			return head, params, hash, blockParams, nil
		}
		if p.atBlockParams() {
			bp, err := p.parseBlockParams()
			if err != nil {
				return nil, nil, hash, nil, err
			}
			blockParams = bp
			continue
		}
		if blockParams != nil {
			return nil, nil, hash, nil, p.errorf(p.off, "block params must come last")
		}
		if key, ok := p.peekHashKey(); ok {
			p.off += len(key) + 1
			value, err := p.parseExpression()
			if err != nil {
				return nil, nil, hash, nil, err
			}
			hash.Pairs = append(hash.Pairs, HashPair{Key: key, Value: value})
			continue
		}
		if len(hash.Pairs) > 0 {
			return nil, nil, hash, nil, p.errorf(p.off, "positional params must come before hash pairs")
		}
		param, err := p.parseExpression()
		if err != nil {
			return nil, nil, hash, nil, err
		}
		params = append(params, param)
	}
}

func (p *parser) atBlockParams() bool {
	if !p.hasPrefix("as") {
		return false
	}
	rest := strings.TrimLeftFunc(p.src[p.off+2:], unicode.IsSpace)
	return len(rest) < len(p.src[p.off+2:]) && strings.HasPrefix(rest, "|")
}

func (p *parser) parseBlockParams() ([]string, error) {
	start := p.off
	p.off += 2
	p.skipSpace()
	if err := p.expect("|"); err != nil {
		return nil, err
	}
	end := strings.IndexByte(p.src[p.off:], '|')
	if end < 0 {
		return nil, p.errorf(start, "unterminated block params")
	}
	names := strings.Fields(p.src[p.off : p.off+end])
	p.off += end + 1
	if len(names) == 0 {
		return nil, p.errorf(start, "empty block params")
	}
	for _, name := range names {
		if !isIdentifier(name) {
			return nil, p.errorf(start, "invalid block param %q", name)
		}
	}
	return names, nil
}

func (p *parser) peekHashKey() (string, bool) {
	i := p.off
	for i < len(p.src) && isIdentChar(p.src[i]) {
		i++
	}
	if i == p.off || i >= len(p.src) || p.src[i] != '=' {
		return "", false
	}
	return p.src[p.off:i], true
}

func (p *parser) parseExpression() (Expression, error) {
	start := p.off
	switch c := p.peek(); {
	case c == 0:
		return nil, p.errorf(start, "expected expression, found end of template")
	case c == '(':
		return p.parseSubExpression()
	case c == '"' || c == '\'':
		value, err := p.readQuoted()
		if err != nil {
			return nil, err
		}
		return &StringLiteral{pos: pos(start), Value: value}, nil
	case isDigit(c) || (c == '-' && p.off+1 < len(p.src) && isDigit(p.src[p.off+1])):
		raw := p.readWhile(func(b byte) bool { return isDigit(b) || b == '.' || b == '-' || b == 'e' || b == 'E' })
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, p.errorf(start, "invalid number %q", raw)
		}
		return &NumberLiteral{pos: pos(start), Value: value, Original: raw}, nil
	case isPathChar(c):
		raw := p.readWhile(isPathChar)
		switch raw {
		case "true", "false":
			return &BooleanLiteral{pos: pos(start), Value: raw == "true"}, nil
		case "null":
			return &NullLiteral{pos: pos(start)}, nil
		case "undefined":
			return &NullLiteral{pos: pos(start), Undefined: true}, nil
		}
		return p.newPath(start, raw)
	default:
		return nil, p.errorf(start, "unexpected %q in expression", string(c))
	}
}

func (p *parser) parseSubExpression() (Expression, error) {
	start := p.off
	p.off++
	head, params, hash, blockParams, err := p.parseCall(")")
	if err != nil {
		return nil, err
	}
	if blockParams != nil {
		return nil, p.errorf(start, "block params are not allowed in sub-expressions")
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return &SubExpression{pos: pos(start), Path: head, Params: params, Hash: hash}, nil
}

func (p *parser) newPath(start int, raw string) (*PathExpression, error) {
	path := &PathExpression{pos: pos(start), Original: raw}
	body := raw
	if strings.HasPrefix(body, "@") {
		path.Kind = PathArg
		body = body[1:]
	}
	parts := strings.Split(body, ".")
	for _, part := range parts {
		if part == "" {
			return nil, p.errorf(start, "invalid path %q", raw)
		}
	}
	if path.Kind != PathArg && parts[0] == "this" {
		path.Kind = PathThis
		path.Tail = parts[1:]
		path.Head = "this"
		return path, nil
	}
	path.Head = parts[0]
	path.Tail = parts[1:]
	return path, nil
}

func (p *parser) readQuoted() (string, error) {
	start := p.off
	quote := p.src[p.off]
	p.off++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.off]
		if c == '\\' && p.off+1 < len(p.src) && p.src[p.off+1] == quote {
			b.WriteByte(quote)
			p.off += 2
			continue
		}
		if c == quote {
			p.off++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.off++
	}
	return "", p.errorf(start, "unterminated string")
}

func (p *parser) readWhile(ok func(byte) bool) string {
	start := p.off
	for !p.eof() && ok(p.src[p.off]) {
		p.off++
	}
	return p.src[start:p.off]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' || c == '$' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isPathChar(c byte) bool {
	return isIdentChar(c) || c == '.' || c == '@' || c == '?' || c == '!' || c == ':'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return !isDigit(s[0])
}
