package syntax

import (
	"strings"

	"golang.org/x/net/html"
)

func (p *parser) parseElement() (Statement, error) {
	start := p.off
	p.off++ // <
	tag := p.readWhile(func(c byte) bool {
		return !isSpace(c) && c != '>' && c != '/' && c != '{'
	})
	if tag == "" {
		return nil, p.errorf(start, "missing tag name")
	}

	el := &ElementNode{pos: pos(start), Tag: tag}
	if err := p.parseAttributes(el); err != nil {
		return nil, err
	}
	if el.SelfClosing || IsVoidElement(tag) {
		return el, nil
	}

	_, raw := rawTextElements[strings.ToLower(tag)]
	if raw {
		p.raw++
	}
	children, err := p.parseContent()
	if raw {
		p.raw--
	}
	if err != nil {
		return nil, err
	}
	el.Children = children

	if !p.hasPrefix("</") {
		if p.eof() {
			return nil, p.errorf(start, "unclosed element <%s>", tag)
		}
		return nil, p.errorf(p.off, "unexpected block delimiter inside <%s>", tag)
	}
	closeStart := p.off
	p.off += 2
	name := p.readWhile(func(c byte) bool { return !isSpace(c) && c != '>' })
	p.skipSpace()
	if err := p.expect(">"); err != nil {
		return nil, err
	}
	if name != tag {
		return nil, p.errorf(closeStart, "<%s> closed by </%s>", tag, name)
	}
	return el, nil
}

func (p *parser) parseAttributes(el *ElementNode) error {
	for {
		p.skipSpace()
		switch {
		case p.eof():
			return p.errorf(el.Offset(), "unterminated start tag <%s>", el.Tag)
		case p.hasPrefix("/>"):
			p.off += 2
			el.SelfClosing = true
			return nil
		case p.hasPrefix(">"):
			p.off++
			return nil
		case p.hasPrefix("{{"):
			return p.errorf(p.off, "element modifiers are not supported on <%s>", el.Tag)
		case p.hasPrefix(SplatAttribute):
			el.Attributes = append(el.Attributes, &AttrNode{pos: pos(p.off), Name: SplatAttribute})
			p.off += len(SplatAttribute)
		case p.atBlockParams():
			params, err := p.parseBlockParams()
			if err != nil {
				return err
			}
			el.BlockParams = params
		default:
			attr, err := p.parseAttribute()
			if err != nil {
				return err
			}
			if strings.HasPrefix(attr.Name, "@") {
				attr.Name = attr.Name[1:]
				if attr.Name == "" {
					return p.errorf(attr.Offset(), "empty argument name on <%s>", el.Tag)
				}
				el.Args = append(el.Args, attr)
				continue
			}
			el.Attributes = append(el.Attributes, attr)
		}
	}
}

func (p *parser) parseAttribute() (*AttrNode, error) {
	start := p.off
	name := p.readWhile(func(c byte) bool {
		return !isSpace(c) && c != '=' && c != '>' && c != '/' && c != '"' && c != '\''
	})
	if name == "" {
		return nil, p.errorf(start, "invalid attribute")
	}
	attr := &AttrNode{pos: pos(start), Name: name}

	p.skipSpace()
	if !p.hasPrefix("=") {
		attr.Value = &TextNode{pos: pos(p.off)}
		return attr, nil
	}
	p.off++
	p.skipSpace()

	valueStart := p.off
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		value, err := p.parseQuotedAttrValue()
		if err != nil {
			return nil, err
		}
		attr.Value = value
	case p.hasPrefix("{{"):
		stmt, err := p.parseMustache()
		if err != nil {
			return nil, err
		}
		attr.Value = stmt
	default:
		raw := p.readWhile(func(c byte) bool { return !isSpace(c) && c != '>' && !(c == '/' && p.hasPrefix("/>")) })
		if raw == "" {
			return nil, p.errorf(valueStart, "missing value for attribute %q", name)
		}
		attr.Value = &TextNode{pos: pos(valueStart), Value: html.UnescapeString(raw)}
	}
	return attr, nil
}

// parseQuotedAttrValue returns a TextNode for static values and a
// ConcatStatement when mustaches are interpolated.
func (p *parser) parseQuotedAttrValue() (Statement, error) {
	start := p.off
	quote := p.src[p.off]
	p.off++

	var (
		parts       []Statement
		text        strings.Builder
		textStart   = p.off
		interpolate bool
	)
	flush := func() {
		if text.Len() > 0 {
			parts = append(parts, &TextNode{pos: pos(textStart), Value: html.UnescapeString(text.String())})
			text.Reset()
		}
	}

	for {
		if p.eof() {
			return nil, p.errorf(start, "unterminated attribute value")
		}
		c := p.src[p.off]
		switch {
		case c == quote:
			p.off++
			flush()
			if !interpolate {
				value := ""
				if len(parts) == 1 {
					value = parts[0].(*TextNode).Value
				}
				return &TextNode{pos: pos(start), Value: value}, nil
			}
			return &ConcatStatement{pos: pos(start), Parts: parts}, nil
		case p.hasPrefix(`\{{`):
			text.WriteString("{{")
			p.off += 3
		case p.hasPrefix("{{!"):
			if _, err := p.parseMustacheComment(); err != nil {
				return nil, err
			}
		case p.hasPrefix("{{"):
			flush()
			stmt, err := p.parseMustache()
			if err != nil {
				return nil, err
			}
			parts = append(parts, stmt)
			interpolate = true
			textStart = p.off
		default:
			if text.Len() == 0 {
				textStart = p.off
			}
			text.WriteByte(c)
			p.off++
		}
	}
}
