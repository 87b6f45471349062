package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTreeConstructionBuildsSerializableTree(t *testing.T) {
	ops := TreeConstruction{}
	root := ops.CreateElement("div")
	heading := ops.CreateElement("h1")
	ops.SetAttribute(heading, "class", "title")
	ops.SetAttribute(heading, "class", "headline")
	ops.AppendChild(heading, ops.CreateText("Hello Glimmer!"))
	ops.AppendChild(root, heading)

	custom := ops.CreateElement("hello-world")
	ops.AppendChild(custom, ops.CreateText("foo"))
	ops.AppendChild(root, custom)

	got, err := OuterHTML(root)
	if err != nil {
		t.Fatalf("outer html: %v", err)
	}
	want := `<div><h1 class="headline">Hello Glimmer!</h1><hello-world>foo</hello-world></div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("serialized tree mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertHTMLParsesFragment(t *testing.T) {
	ops := TreeConstruction{}
	root := ops.CreateElement("div")
	if err := ops.InsertHTML(root, "<b>bold</b> text"); err != nil {
		t.Fatalf("insert html: %v", err)
	}

	got, err := InnerHTML(root)
	if err != nil {
		t.Fatalf("inner html: %v", err)
	}
	if got != "<b>bold</b> text" {
		t.Fatalf("unexpected inner html %q", got)
	}
	if TextContent(root) != "bold text" {
		t.Fatalf("unexpected text content %q", TextContent(root))
	}
}

func TestAppendChildReparents(t *testing.T) {
	ops := TreeConstruction{}
	a := ops.CreateElement("div")
	b := ops.CreateElement("div")
	child := ops.CreateText("x")
	ops.AppendChild(a, child)
	ops.AppendChild(b, child)

	if a.FirstChild != nil {
		t.Fatalf("expected child to be detached from the first parent")
	}
	if b.FirstChild != child {
		t.Fatalf("expected child under the second parent")
	}
}

func TestClearAndMoveChildren(t *testing.T) {
	ops := TreeConstruction{}
	src := ops.CreateElement("div")
	dst := ops.CreateElement("div")
	ops.AppendChild(src, ops.CreateText("a"))
	ops.AppendChild(src, ops.CreateText("b"))
	ops.AppendChild(dst, ops.CreateText("old"))

	ops.Clear(dst)
	MoveChildren(ops, dst, src)

	if src.FirstChild != nil {
		t.Fatalf("expected source to be empty")
	}
	if got := TextContent(dst); got != "ab" {
		t.Fatalf("expected moved text %q, got %q", "ab", got)
	}
}

func TestNewDocumentHasBody(t *testing.T) {
	doc := NewDocument()
	if doc.Body() == nil || doc.Head() == nil {
		t.Fatalf("expected head and body elements")
	}
	TreeConstruction{}.AppendChild(doc.Body(), TreeConstruction{}.CreateElement("main"))
	if !strings.Contains(doc.String(), "<body><main></main></body>") {
		t.Fatalf("unexpected document %q", doc.String())
	}
}
