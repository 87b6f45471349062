package syntax

// Node is implemented by every AST node. Offset is the byte offset of the
// node in its template source.
type Node interface {
	Offset() int
}

// Statement is content-level: text, comments, mustaches, blocks, elements.
type Statement interface {
	Node
	statement()
}

// Expression is anything that evaluates to a value.
type Expression interface {
	Node
	expression()
}

// Template is a compiled template.
type Template struct {
	Name   string
	Source string
	Body   []Statement
}

type pos int

func (p pos) Offset() int { return int(p) }

// TextNode is literal markup text, already unescaped of \{{ sequences.
type TextNode struct {
	pos
	Value string
}

// CommentNode is either an HTML comment (rendered) or a mustache comment
// (dropped).
type CommentNode struct {
	pos
	Value string
	HTML  bool
}

// MustacheStatement is {{path params hash}} or {{{...}}} when Trusted.
type MustacheStatement struct {
	pos
	Path    Expression
	Params  []Expression
	Hash    Hash
	Trusted bool
}

// BlockStatement is {{#path params hash as |params|}}program{{else}}inverse{{/path}}.
type BlockStatement struct {
	pos
	Path        *PathExpression
	Params      []Expression
	Hash        Hash
	BlockParams []string
	Program     []Statement
	Inverse     []Statement
}

// ElementNode is an HTML element or a component invocation.
type ElementNode struct {
	pos
	Tag         string
	Attributes  []*AttrNode
	Args        []*AttrNode
	BlockParams []string
	Children    []Statement
	SelfClosing bool
}

// SplatAttribute is the attribute name that marks a ...attributes position.
const SplatAttribute = "...attributes"

// AttrNode is an attribute or a named argument (Name without the @ prefix).
// Value is a *TextNode, *MustacheStatement or *ConcatStatement.
type AttrNode struct {
	pos
	Name  string
	Value Statement
}

// ConcatStatement is a quoted attribute value mixing text and mustaches.
type ConcatStatement struct {
	pos
	Parts []Statement
}

// PathKind says how a path's head resolves.
type PathKind int

const (
	// PathVar is a bare head: a block param, helper, or property of this.
	PathVar PathKind = iota
	// PathThis is this or this.x.
	PathThis
	// PathArg is @x.
	PathArg
)

// PathExpression is this.a.b, @a.b or a.b.
type PathExpression struct {
	pos
	Kind     PathKind
	Head     string
	Tail     []string
	Original string
}

// SubExpression is (path params hash).
type SubExpression struct {
	pos
	Path   Expression
	Params []Expression
	Hash   Hash
}

// StringLiteral is "text" or 'text'.
type StringLiteral struct {
	pos
	Value string
}

// NumberLiteral holds a parsed number.
type NumberLiteral struct {
	pos
	Value    float64
	Original string
}

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	pos
	Value bool
}

// NullLiteral is null or undefined.
type NullLiteral struct {
	pos
	Undefined bool
}

// Hash holds key=value pairs in declaration order.
type Hash struct {
	Pairs []HashPair
}

// HashPair is one key=value entry.
type HashPair struct {
	Key   string
	Value Expression
}

func (*TextNode) statement()          {}
func (*CommentNode) statement()       {}
func (*MustacheStatement) statement() {}
func (*BlockStatement) statement()    {}
func (*ElementNode) statement()       {}
func (*ConcatStatement) statement()   {}

func (*PathExpression) expression() {}
func (*SubExpression) expression()  {}
func (*StringLiteral) expression()  {}
func (*NumberLiteral) expression()  {}
func (*BooleanLiteral) expression() {}
func (*NullLiteral) expression()    {}

// Inspect walks the statements depth first, calling fn for each statement,
// including attribute values. Returning false skips the node's children.
func Inspect(body []Statement, fn func(Statement) bool) {
	for _, stmt := range body {
		inspect(stmt, fn)
	}
}

func inspect(stmt Statement, fn func(Statement) bool) {
	if stmt == nil || !fn(stmt) {
		return
	}
	switch n := stmt.(type) {
	case *BlockStatement:
		Inspect(n.Program, fn)
		Inspect(n.Inverse, fn)
	case *ElementNode:
		for _, attr := range n.Attributes {
			inspect(attr.Value, fn)
		}
		for _, arg := range n.Args {
			inspect(arg.Value, fn)
		}
		Inspect(n.Children, fn)
	case *ConcatStatement:
		Inspect(n.Parts, fn)
	}
}
