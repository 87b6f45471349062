package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AppendOperations is the DOM-tree-construction capability a render pass
// writes through. Implementations may decorate or record the calls; the
// default is TreeConstruction.
type AppendOperations interface {
	CreateElement(tag string) *html.Node
	CreateText(text string) *html.Node
	CreateComment(text string) *html.Node
	SetAttribute(el *html.Node, name, value string)
	AppendChild(parent, child *html.Node)
	InsertHTML(parent *html.Node, markup string) error
	Clear(parent *html.Node)
}

// TreeConstruction builds detached x/net/html nodes.
type TreeConstruction struct{}

var _ AppendOperations = TreeConstruction{}

// CreateElement keeps the tag exactly as written so custom elements survive
// serialization unchanged.
func (TreeConstruction) CreateElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

func (TreeConstruction) CreateText(text string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

func (TreeConstruction) CreateComment(text string) *html.Node {
	return &html.Node{Type: html.CommentNode, Data: text}
}

// SetAttribute replaces an existing attribute of the same name or appends a
// new one, preserving first-seen order.
func (TreeConstruction) SetAttribute(el *html.Node, name, value string) {
	if el == nil || el.Type != html.ElementNode {
		return
	}
	for i := range el.Attr {
		if el.Attr[i].Namespace == "" && el.Attr[i].Key == name {
			el.Attr[i].Val = value
			return
		}
	}
	el.Attr = append(el.Attr, html.Attribute{Key: name, Val: value})
}

func (TreeConstruction) AppendChild(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// InsertHTML parses markup in the context of parent and appends the
// resulting nodes.
func (t TreeConstruction) InsertHTML(parent *html.Node, markup string) error {
	if parent == nil {
		return fmt.Errorf("dom: insert html: parent is nil")
	}
	if markup == "" {
		return nil
	}
	context := parent
	if context.Type != html.ElementNode {
		context = t.CreateElement("div")
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("dom: insert html: %w", err)
	}
	for _, n := range nodes {
		t.AppendChild(parent, n)
	}
	return nil
}

func (TreeConstruction) Clear(parent *html.Node) {
	if parent == nil {
		return
	}
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		parent.RemoveChild(c)
		c = next
	}
}

// MoveChildren transfers every child of src to dst through ops, in order.
func MoveChildren(ops AppendOperations, dst, src *html.Node) {
	if dst == nil || src == nil {
		return
	}
	for c := src.FirstChild; c != nil; {
		next := c.NextSibling
		ops.AppendChild(dst, c)
		c = next
	}
}
