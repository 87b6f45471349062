package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const emptyDocument = "<!DOCTYPE html><html><head></head><body></body></html>"

// Document is the handle renders attach their root element to. It wraps an
// x/net/html document node and caches the head and body elements.
type Document struct {
	root *html.Node
	head *html.Node
	body *html.Node
}

// NewDocument returns an empty HTML5 document.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(emptyDocument))
	if err != nil {
		// the literal above always parses
		panic(fmt.Sprintf("dom: parse empty document: %v", err))
	}
	return doc
}

// ParseDocument parses markup into a Document. The HTML5 parser always
// synthesises html, head and body elements.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse document: %w", err)
	}
	doc := &Document{root: root}
	doc.head = findElement(root, atom.Head)
	doc.body = findElement(root, atom.Body)
	if doc.body == nil {
		return nil, fmt.Errorf("dom: document has no body")
	}
	return doc, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Head returns the head element.
func (d *Document) Head() *html.Node {
	if d == nil {
		return nil
	}
	return d.head
}

// Body returns the body element.
func (d *Document) Body() *html.Node {
	if d == nil {
		return nil
	}
	return d.body
}

// String serializes the whole document.
func (d *Document) String() string {
	if d == nil || d.root == nil {
		return ""
	}
	var b strings.Builder
	if err := html.Render(&b, d.root); err != nil {
		return ""
	}
	return b.String()
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
