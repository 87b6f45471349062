package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-glimmer/pkg/component"
	"github.com/goliatone/go-glimmer/pkg/dom"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/syntax"
)

type mainComponent struct {
	component.Base
	Salutation  string
	Alternative string
	Pred        bool
	Items       []string
	destroyed   bool
}

func (m *mainComponent) WillDestroy() { m.destroyed = true }

func newRenderer(t *testing.T, templates map[string]string, factories map[string]component.Factory, opts ...Option) *Renderer {
	t.Helper()
	r := New(opts...)
	for name, source := range templates {
		tpl, err := syntax.Parse(name, source)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		if err := r.Define(Definition{Name: name, Template: tpl, Factory: factories[name]}); err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}
	return r
}

func renderHTML(t *testing.T, r *Renderer) (string, *html.Node) {
	t.Helper()
	target := dom.TreeConstruction{}.CreateElement("div")
	if err := r.Render(context.Background(), "Main", target); err != nil {
		t.Fatalf("render: %v", err)
	}
	out, err := dom.InnerHTML(target)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return out, target
}

func mainFactory(m *mainComponent) map[string]component.Factory {
	return map[string]component.Factory{
		"Main": func(o owner.Owner, args component.Args) any { return m },
	}
}

func TestRenderNamedArgumentInterpolation(t *testing.T) {
	m := &mainComponent{Salutation: "Glimmer"}
	r := newRenderer(t, map[string]string{
		"Main":       `<HelloWorld @name={{salutation}} />`,
		"HelloWorld": `<h1>Hello {{@name}}!</h1>`,
	}, mainFactory(m))

	got, _ := renderHTML(t, r)
	if diff := cmp.Diff("<h1>Hello Glimmer!</h1>", got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderDynamicComponentMatchesStaticInvocation(t *testing.T) {
	m := &mainComponent{Salutation: "Glimmer"}
	static := newRenderer(t, map[string]string{
		"Main":       `<HelloWorld @name={{salutation}} />`,
		"HelloWorld": `<h1>Hello {{@name}}!</h1>`,
	}, mainFactory(m))
	dynamic := newRenderer(t, map[string]string{
		"Main":       `{{component "HelloWorld" name=salutation}}`,
		"HelloWorld": `<h1>Hello {{@name}}!</h1>`,
	}, mainFactory(m))

	want, _ := renderHTML(t, static)
	got, _ := renderHTML(t, dynamic)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("dynamic component mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderYieldBindsBlockParams(t *testing.T) {
	m := &mainComponent{Salutation: "Glimmer"}
	r := newRenderer(t, map[string]string{
		"Main":       `<HelloWorld @name={{salutation}} as |name|>{{name}}</HelloWorld>`,
		"HelloWorld": `{{yield @name}}`,
	}, mainFactory(m))

	got, _ := renderHTML(t, r)
	if got != "Glimmer" {
		t.Fatalf("expected yielded value, got %q", got)
	}
}

func TestRenderInlineIf(t *testing.T) {
	for _, pred := range []bool{true, false} {
		m := &mainComponent{Salutation: "Glimmer", Alternative: "Angle", Pred: pred}
		r := newRenderer(t, map[string]string{
			"Main": `<p>{{if pred salutation alternative}}</p>`,
		}, mainFactory(m))

		want := "<p>Angle</p>"
		if pred {
			want = "<p>Glimmer</p>"
		}
		got, _ := renderHTML(t, r)
		if got != want {
			t.Fatalf("pred=%v: want %q got %q", pred, want, got)
		}
	}
}

func TestRenderCustomHelperReceivesPositionalArgsInOrder(t *testing.T) {
	helpers := NewHelperRegistry()
	var seen []any
	helpers.MustRegister("join", func(params []any, hash map[string]any) (any, error) {
		seen = params
		parts := make([]string, len(params))
		for i, p := range params {
			parts[i] = Stringify(p)
		}
		sep, _ := hash["sep"].(string)
		return strings.Join(parts, sep), nil
	})
	m := &mainComponent{Salutation: "Glimmer"}
	r := newRenderer(t, map[string]string{
		"Main": `{{join "a" salutation 3 sep="-"}}`,
	}, mainFactory(m), WithHelpers(helpers))

	got, _ := renderHTML(t, r)
	if got != "a-Glimmer-3" {
		t.Fatalf("unexpected helper output %q", got)
	}
	if diff := cmp.Diff([]any{"a", "Glimmer", 3}, seen); diff != "" {
		t.Fatalf("helper params mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderUnknownTagsPassThrough(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"Main": `<hello-world>foo</hello-world>`,
	}, nil)

	got, _ := renderHTML(t, r)
	if got != "<hello-world>foo</hello-world>" {
		t.Fatalf("expected verbatim custom element, got %q", got)
	}
}

func TestRenderUnknownHelperFailsWithoutTouchingTarget(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"Main": "<p>before</p>\n{{shout \"x\"}}",
	}, nil)

	target := dom.TreeConstruction{}.CreateElement("div")
	target.AppendChild(&html.Node{Type: html.TextNode, Data: "previous"})

	err := r.Render(context.Background(), "Main", target)
	if !errors.Is(err, ErrUnknownHelper) {
		t.Fatalf("expected ErrUnknownHelper, got %v", err)
	}
	var located *Error
	if !errors.As(err, &located) || located.Template != "Main" || located.Line != 2 {
		t.Fatalf("expected located error in Main line 2, got %#v", err)
	}
	if dom.TextContent(target) != "previous" {
		t.Fatalf("expected target untouched, got %q", dom.TextContent(target))
	}
}

func TestRenderUnknownCapitalizedComponentFails(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"Main": `<Missing />`,
	}, nil)
	target := dom.TreeConstruction{}.CreateElement("div")
	if err := r.Render(context.Background(), "Main", target); !errors.Is(err, ErrUnknownComponent) {
		t.Fatalf("expected ErrUnknownComponent, got %v", err)
	}
}

func TestRenderBlocksAndBuiltins(t *testing.T) {
	m := &mainComponent{Items: []string{"a", "b"}}
	r := newRenderer(t, map[string]string{
		"Main": `<ul>{{#each items as |item i|}}<li data-i={{i}}>{{item}}</li>{{else}}<li>none</li>{{/each}}</ul>` +
			`{{#if (eq items.length 2)}}two{{else}}other{{/if}}` +
			`{{#unless pred}}!{{/unless}}` +
			`{{#let (concat "x" "y") (array 1 2) as |xy arr|}}{{xy}}{{arr.length}}{{/let}}` +
			`{{#each-in (hash b=2 a=1) as |k v|}}{{k}}={{v}};{{/each-in}}`,
	}, mainFactory(m))

	got, _ := renderHTML(t, r)
	want := `<ul><li data-i="0">a</li><li data-i="1">b</li></ul>two!xy2a=1;b=2;`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}

	m.Items = nil
	got, _ = renderHTML(t, r)
	if !strings.HasPrefix(got, "<ul><li>none</li></ul>other") {
		t.Fatalf("expected else branches, got %q", got)
	}
}

func TestRenderAttributesAndSplattributes(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"Main":   `<Button class="primary" disabled={{true}} hidden={{false}} @label="Go" />`,
		"Button": `<button class="btn" ...attributes type="button">{{@label}}</button>`,
	}, nil)

	got, _ := renderHTML(t, r)
	want := `<button class="btn primary" disabled="" type="button">Go</button>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderTrustedContentIsSanitized(t *testing.T) {
	helpers := NewHelperRegistry()
	helpers.MustRegister("markup", Simple(func(...any) any {
		return `<b>bold</b><script>alert(1)</script>`
	}))
	r := newRenderer(t, map[string]string{
		"Main": `<div>{{{markup}}}</div><p>{{markup}}</p>`,
	}, nil, WithHelpers(helpers))

	got, _ := renderHTML(t, r)
	want := `<div><b>bold</b></div><p>&lt;b&gt;bold&lt;/b&gt;&lt;script&gt;alert(1)&lt;/script&gt;</p>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderCharacterReferencesEscapeOnce(t *testing.T) {
	m := &mainComponent{Salutation: "Glimmer"}
	r := newRenderer(t, map[string]string{
		"Main": `<hello-world>Tom &amp; Jerry</hello-world>` +
			`<p title="a &amp; b" data-x="{{salutation}} &lt;3">&copy; 2024</p>` +
			`<script>if (a &amp;&amp; b) {}</script>`,
	}, mainFactory(m))

	got, _ := renderHTML(t, r)
	want := `<hello-world>Tom &amp; Jerry</hello-world>` +
		`<p title="a &amp; b" data-x="Glimmer &lt;3">© 2024</p>` +
		`<script>if (a &amp;&amp; b) {}</script>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

type counter struct {
	component.Base
	Created   int
	destroyed bool
}

func (c *counter) WillDestroy() { c.destroyed = true }

func counterFactories(m *mainComponent, made *[]*counter) map[string]component.Factory {
	factories := mainFactory(m)
	factories["Counter"] = func(o owner.Owner, args component.Args) any {
		c := &counter{Created: len(*made) + 1}
		*made = append(*made, c)
		return c
	}
	return factories
}

func TestRenderKeepsInstancesAcrossPassesAndDestroysRemoved(t *testing.T) {
	m := &mainComponent{Pred: true}
	var made []*counter
	factories := counterFactories(m, &made)
	r := newRenderer(t, map[string]string{
		"Main":    `{{#if pred}}<Counter @n={{salutation}} />{{/if}}`,
		"Counter": `{{this.created}}:{{@n}}`,
	}, factories, WithOwner(owner.NewRegistry()))

	m.Salutation = "a"
	if got, _ := renderHTML(t, r); got != "1:a" {
		t.Fatalf("first pass: %q", got)
	}
	m.Salutation = "b"
	if got, _ := renderHTML(t, r); got != "1:b" {
		t.Fatalf("second pass should reuse instance and refresh args: %q", got)
	}
	if len(made) != 1 {
		t.Fatalf("expected one Counter instance, got %d", len(made))
	}
	if made[0].Owner() == nil {
		t.Fatalf("expected renderer owner to be attached")
	}

	m.Pred = false
	renderHTML(t, r)
	if r.Instance("Main") != m {
		t.Fatalf("expected root instance to stay registered")
	}
	r.Destroy()
	if !m.destroyed {
		t.Fatalf("expected Destroy to tear down the root component")
	}
}

func TestRenderKeysInstancesByPosition(t *testing.T) {
	m := &mainComponent{Pred: true}
	var made []*counter
	r := newRenderer(t, map[string]string{
		"Main":    `{{#if pred}}<Counter @n="a" />{{/if}}<Counter @n="b" />`,
		"Counter": `[{{this.created}}:{{@n}}]`,
	}, counterFactories(m, &made))

	if got, _ := renderHTML(t, r); got != "[1:a][2:b]" {
		t.Fatalf("first pass: %q", got)
	}

	m.Pred = false
	if got, _ := renderHTML(t, r); got != "[2:b]" {
		t.Fatalf("sibling should keep its own instance: %q", got)
	}
	if !made[0].destroyed || made[1].destroyed {
		t.Fatalf("expected only the conditional instance destroyed, got a=%v b=%v", made[0].destroyed, made[1].destroyed)
	}

	m.Pred = true
	if got, _ := renderHTML(t, r); got != "[3:a][2:b]" {
		t.Fatalf("restored branch should create a fresh instance: %q", got)
	}
	if len(made) != 3 {
		t.Fatalf("expected 3 Counter instances, got %d", len(made))
	}
}

func TestRenderKeysLoopInstancesByIndex(t *testing.T) {
	m := &mainComponent{Items: []string{"x", "y"}}
	var made []*counter
	r := newRenderer(t, map[string]string{
		"Main":    `{{#each items as |item|}}<Counter @n={{item}} />{{/each}}<Counter @n="tail" />`,
		"Counter": `[{{this.created}}:{{@n}}]`,
	}, counterFactories(m, &made))

	if got, _ := renderHTML(t, r); got != "[1:x][2:y][3:tail]" {
		t.Fatalf("first pass: %q", got)
	}

	m.Items = []string{"x"}
	if got, _ := renderHTML(t, r); got != "[1:x][3:tail]" {
		t.Fatalf("shrinking the list should not move the tail instance: %q", got)
	}
	if !made[1].destroyed {
		t.Fatalf("expected the dropped iteration to be destroyed")
	}
}

func TestRenderRecursionLimit(t *testing.T) {
	r := newRenderer(t, map[string]string{
		"Main": `<Main />`,
	}, nil)
	target := dom.TreeConstruction{}.CreateElement("div")
	if err := r.Render(context.Background(), "Main", target); !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("expected ErrRecursionLimit, got %v", err)
	}
}

func TestRenderHonoursContextCancellation(t *testing.T) {
	r := newRenderer(t, map[string]string{"Main": `x`}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Render(ctx, "Main", dom.TreeConstruction{}.CreateElement("div")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHelperRegistryRejectsKeywordsAndDuplicates(t *testing.T) {
	reg := NewHelperRegistry()
	if err := reg.Register("if", Simple(func(...any) any { return nil })); err == nil {
		t.Fatalf("expected keyword rejection")
	}
	reg.MustRegister("x", Simple(func(...any) any { return nil }))
	if err := reg.Register("x", Simple(func(...any) any { return nil })); err == nil {
		t.Fatalf("expected duplicate rejection")
	}
	if diff := cmp.Diff([]string{"x"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}
