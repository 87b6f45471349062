package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, source string) *Template {
	t.Helper()
	tpl, err := Parse("Test", source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	return tpl
}

func TestParseElementWithNamedArgument(t *testing.T) {
	tpl := mustParse(t, `<HelloWorld @name={{salutation}} class="greeting" />`)
	if len(tpl.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(tpl.Body))
	}
	el, ok := tpl.Body[0].(*ElementNode)
	if !ok {
		t.Fatalf("expected element, got %T", tpl.Body[0])
	}
	if el.Tag != "HelloWorld" || !el.SelfClosing {
		t.Fatalf("unexpected element %q self-closing=%v", el.Tag, el.SelfClosing)
	}
	if len(el.Args) != 1 || el.Args[0].Name != "name" {
		t.Fatalf("expected @name argument, got %+v", el.Args)
	}
	mustache, ok := el.Args[0].Value.(*MustacheStatement)
	if !ok {
		t.Fatalf("expected mustache argument value, got %T", el.Args[0].Value)
	}
	path := mustache.Path.(*PathExpression)
	if path.Kind != PathVar || path.Head != "salutation" {
		t.Fatalf("unexpected path %+v", path)
	}
	if len(el.Attributes) != 1 || el.Attributes[0].Value.(*TextNode).Value != "greeting" {
		t.Fatalf("unexpected attributes %+v", el.Attributes)
	}
}

func TestParseBlockParamsOnElement(t *testing.T) {
	tpl := mustParse(t, `<HelloWorld @name={{salutation}} as |name|>{{name}}</HelloWorld>`)
	el := tpl.Body[0].(*ElementNode)
	if diff := cmp.Diff([]string{"name"}, el.BlockParams); diff != "" {
		t.Fatalf("block params mismatch (-want +got):\n%s", diff)
	}
	if len(el.Children) != 1 {
		t.Fatalf("expected one child, got %d", len(el.Children))
	}
}

func TestParsePaths(t *testing.T) {
	cases := []struct {
		source string
		kind   PathKind
		head   string
		tail   []string
	}{
		{"{{this.user.name}}", PathThis, "this", []string{"user", "name"}},
		{"{{@name}}", PathArg, "name", nil},
		{"{{@user.name}}", PathArg, "user", []string{"name"}},
		{"{{item.title}}", PathVar, "item", []string{"title"}},
		{"{{this}}", PathThis, "this", []string{}},
	}
	for _, tc := range cases {
		tpl := mustParse(t, tc.source)
		path := tpl.Body[0].(*MustacheStatement).Path.(*PathExpression)
		if path.Kind != tc.kind || path.Head != tc.head {
			t.Errorf("%s: got kind=%v head=%q", tc.source, path.Kind, path.Head)
		}
		if len(path.Tail) != len(tc.tail) || (len(tc.tail) > 0 && !cmp.Equal(tc.tail, path.Tail)) {
			t.Errorf("%s: tail mismatch want %v got %v", tc.source, tc.tail, path.Tail)
		}
	}
}

func TestParseHelperCallWithLiteralsAndHash(t *testing.T) {
	tpl := mustParse(t, `{{format "a" 'b' 42 -1.5 true null (concat x "y") sep=", "}}`)
	m := tpl.Body[0].(*MustacheStatement)
	if m.Path.(*PathExpression).Original != "format" {
		t.Fatalf("unexpected helper path %+v", m.Path)
	}
	if len(m.Params) != 7 {
		t.Fatalf("expected 7 params, got %d", len(m.Params))
	}
	if m.Params[0].(*StringLiteral).Value != "a" || m.Params[1].(*StringLiteral).Value != "b" {
		t.Fatalf("unexpected string literals")
	}
	if m.Params[2].(*NumberLiteral).Value != 42 || m.Params[3].(*NumberLiteral).Value != -1.5 {
		t.Fatalf("unexpected number literals")
	}
	if !m.Params[4].(*BooleanLiteral).Value {
		t.Fatalf("expected true literal")
	}
	if _, ok := m.Params[5].(*NullLiteral); !ok {
		t.Fatalf("expected null literal, got %T", m.Params[5])
	}
	sub := m.Params[6].(*SubExpression)
	if len(sub.Params) != 2 {
		t.Fatalf("expected sub-expression params, got %d", len(sub.Params))
	}
	if len(m.Hash.Pairs) != 1 || m.Hash.Pairs[0].Key != "sep" || m.Hash.Pairs[0].Value.(*StringLiteral).Value != ", " {
		t.Fatalf("unexpected hash %+v", m.Hash)
	}
}

func TestParseIfElseChain(t *testing.T) {
	tpl := mustParse(t, `{{#if a}}A{{else if b}}B{{else}}C{{/if}}`)
	block := tpl.Body[0].(*BlockStatement)
	if block.Path.Original != "if" {
		t.Fatalf("unexpected block %q", block.Path.Original)
	}
	if block.Program[0].(*TextNode).Value != "A" {
		t.Fatalf("unexpected program")
	}
	nested := block.Inverse[0].(*BlockStatement)
	if nested.Program[0].(*TextNode).Value != "B" || nested.Inverse[0].(*TextNode).Value != "C" {
		t.Fatalf("unexpected else chain")
	}
}

func TestParseEachWithBlockParams(t *testing.T) {
	tpl := mustParse(t, `<ul>{{#each items as |item index|}}<li>{{index}}:{{item}}</li>{{else}}<li>none</li>{{/each}}</ul>`)
	ul := tpl.Body[0].(*ElementNode)
	block := ul.Children[0].(*BlockStatement)
	if diff := cmp.Diff([]string{"item", "index"}, block.BlockParams); diff != "" {
		t.Fatalf("block params mismatch (-want +got):\n%s", diff)
	}
	if len(block.Inverse) != 1 {
		t.Fatalf("expected else branch")
	}
}

func TestParseInterpolatedAttribute(t *testing.T) {
	tpl := mustParse(t, `<div class="card {{kind}} big" id={{id}} hidden></div>`)
	el := tpl.Body[0].(*ElementNode)
	concat, ok := el.Attributes[0].Value.(*ConcatStatement)
	if !ok || len(concat.Parts) != 3 {
		t.Fatalf("expected three concat parts, got %#v", el.Attributes[0].Value)
	}
	if _, ok := el.Attributes[1].Value.(*MustacheStatement); !ok {
		t.Fatalf("expected dynamic id attribute")
	}
	if text, ok := el.Attributes[2].Value.(*TextNode); !ok || text.Value != "" {
		t.Fatalf("expected valueless attribute")
	}
}

func TestParseCommentsTrustedAndEscapes(t *testing.T) {
	tpl := mustParse(t, `{{! hidden }}{{!-- also {{hidden}} --}}<!-- shown -->{{{raw}}}\{{literal}}`)
	if len(tpl.Body) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(tpl.Body))
	}
	if tpl.Body[1].(*CommentNode).Value != " also {{hidden}} " {
		t.Fatalf("unexpected block comment %q", tpl.Body[1].(*CommentNode).Value)
	}
	if !tpl.Body[2].(*CommentNode).HTML {
		t.Fatalf("expected html comment")
	}
	if !tpl.Body[3].(*MustacheStatement).Trusted {
		t.Fatalf("expected trusted mustache")
	}
	if tpl.Body[4].(*TextNode).Value != "{{literal}}" {
		t.Fatalf("expected escaped mustache text, got %q", tpl.Body[4].(*TextNode).Value)
	}
}

func TestParseDecodesCharacterReferences(t *testing.T) {
	tpl := mustParse(t, `<p title="a &amp; b" data-x="{{y}} &lt;3" id=x&amp;y>&copy; Tom &amp; Jerry</p><script>a &amp;&amp; b</script>`)
	p := tpl.Body[0].(*ElementNode)
	if got := p.Attributes[0].Value.(*TextNode).Value; got != "a & b" {
		t.Fatalf("static attribute not decoded: %q", got)
	}
	concat := p.Attributes[1].Value.(*ConcatStatement)
	if got := concat.Parts[1].(*TextNode).Value; got != " <3" {
		t.Fatalf("interpolated attribute text not decoded: %q", got)
	}
	if got := p.Attributes[2].Value.(*TextNode).Value; got != "x&y" {
		t.Fatalf("unquoted attribute not decoded: %q", got)
	}
	if got := p.Children[0].(*TextNode).Value; got != "© Tom & Jerry" {
		t.Fatalf("text not decoded: %q", got)
	}
	script := tpl.Body[1].(*ElementNode)
	if got := script.Children[0].(*TextNode).Value; got != "a &amp;&amp; b" {
		t.Fatalf("script text should stay raw: %q", got)
	}
}

func TestParseSplattributesAndVoidElements(t *testing.T) {
	tpl := mustParse(t, `<input class="a" ...attributes><br>text`)
	input := tpl.Body[0].(*ElementNode)
	if len(input.Attributes) != 2 || input.Attributes[1].Name != SplatAttribute {
		t.Fatalf("expected splattributes marker, got %+v", input.Attributes)
	}
	if tpl.Body[1].(*ElementNode).Tag != "br" {
		t.Fatalf("expected void br element")
	}
	if tpl.Body[2].(*TextNode).Value != "text" {
		t.Fatalf("expected trailing text")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		source string
		want   string
	}{
		{`<div>`, "unclosed element <div>"},
		{`<div></span>`, "<div> closed by </span>"},
		{`{{#if a}}x`, "unclosed block {{#if}}"},
		{`{{#if a}}x{{/each}}`, "{{#if}} closed by {{/each}}"},
		{`{{foo`, "found end of template"},
		{`</div>`, "unexpected closing tag"},
		{`{{else}}`, "outside of a block"},
		{`{{foo a=1 b}}`, "positional params must come before hash pairs"},
		{`<div {{on "click" x}}></div>`, "element modifiers are not supported"},
		{"line1\n  {{\"open}}", "unterminated string"},
	}
	for _, tc := range cases {
		_, err := Parse("Broken", tc.source)
		if err == nil {
			t.Errorf("%q: expected error", tc.source)
			continue
		}
		var syntaxErr *Error
		if !errors.As(err, &syntaxErr) {
			t.Errorf("%q: expected *Error, got %T", tc.source, err)
			continue
		}
		if syntaxErr.Template != "Broken" {
			t.Errorf("%q: template name not recorded", tc.source)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%q: error %q does not mention %q", tc.source, err, tc.want)
		}
	}
}

func TestParseErrorReportsLineAndColumn(t *testing.T) {
	_, err := Parse("Broken", "<p>ok</p>\n  </div>")
	var syntaxErr *Error
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if syntaxErr.Line != 2 || syntaxErr.Column != 3 {
		t.Fatalf("expected 2:3, got %d:%d", syntaxErr.Line, syntaxErr.Column)
	}
}

func TestInspectVisitsNestedStatements(t *testing.T) {
	tpl := mustParse(t, `<div>{{#if a}}<Child @x={{y}} />{{/if}}<span title="{{z}}"></span></div>`)
	var tags []string
	var mustaches int
	Inspect(tpl.Body, func(stmt Statement) bool {
		switch n := stmt.(type) {
		case *ElementNode:
			tags = append(tags, n.Tag)
		case *MustacheStatement:
			mustaches++
		}
		return true
	})
	if diff := cmp.Diff([]string{"div", "Child", "span"}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
	if mustaches != 2 {
		t.Fatalf("expected 2 mustaches, got %d", mustaches)
	}
}
