package render

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/goliatone/go-glimmer/pkg/component"
	"github.com/goliatone/go-glimmer/pkg/owner"
	"github.com/goliatone/go-glimmer/pkg/syntax"
)

// ComponentRef is a component resolved by name at runtime, optionally with
// curried args. (component "Name" a=b) produces one; rendering it invokes
// the component.
type ComponentRef struct {
	Name string
	Args component.Args
}

type pass struct {
	ctx     context.Context
	r       *Renderer
	visited map[string]struct{}
	depth   int
}

type frame struct {
	def    Definition
	self   any
	args   component.Args
	locals *scope
	block  *block
	attrs  []html.Attribute
	key    string
	site   string
}

type scope struct {
	names  map[string]any
	parent *scope
}

// block is the content passed to a component invocation; it renders in the
// caller's frame.
type block struct {
	body    []syntax.Statement
	inverse []syntax.Statement
	params  []string
	caller  *frame
}

func (f *frame) lookup(name string) (any, bool) {
	for s := f.locals; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (f *frame) hasLocal(name string) bool {
	_, ok := f.lookup(name)
	return ok
}

func (f *frame) withLocals(names []string, values []any) *frame {
	if len(names) == 0 {
		return f
	}
	s := &scope{names: make(map[string]any, len(names)), parent: f.locals}
	for i, name := range names {
		var v any
		if i < len(values) {
			v = values[i]
		}
		s.names[name] = v
	}
	child := *f
	child.locals = s
	return &child
}

// at returns the tree position of n within the frame.
func (f *frame) at(n syntax.Node) string {
	return f.site + strconv.Itoa(n.Offset())
}

// within returns a copy of f whose positions are nested under step, such as
// one iteration of a loop.
func (f *frame) within(step string) *frame {
	child := *f
	child.site = f.site + step + "."
	return &child
}

func (p *pass) invoke(caller *frame, site string, def Definition, args component.Args, attrs []html.Attribute, blk *block, parent *html.Node) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if p.depth >= MaxDepth {
		return fmt.Errorf("%w at <%s>", ErrRecursionLimit, def.Name)
	}
	if def.Template == nil {
		return fmt.Errorf("render: component %q has no template", def.Name)
	}

	key := instanceKey(caller.key, def.Name, site)
	inst, ok := p.r.instances[key]
	if !ok {
		inst = &instance{name: def.Name}
		if def.Factory != nil {
			inst.self = def.Factory(p.r.owner, args)
			if holder, ok := inst.self.(owner.Holder); ok && owner.Get(holder) == nil && p.r.owner != nil {
				owner.Set(holder, p.r.owner)
			}
		}
		p.r.instances[key] = inst
		p.r.logger.Debug("component created", zap.String("component", def.Name), zap.String("key", key))
	}
	if recv, ok := inst.self.(component.ArgsReceiver); ok {
		recv.SetArgs(args)
	}
	p.visited[key] = struct{}{}

	child := &frame{
		def:   def,
		self:  inst.self,
		args:  args,
		block: blk,
		attrs: attrs,
		key:   key,
	}
	p.depth++
	defer func() { p.depth-- }()
	return p.statements(child, parent, def.Template.Body)
}

func (p *pass) invokeRef(caller *frame, site string, ref *ComponentRef, attrs []html.Attribute, blk *block, parent *html.Node) error {
	def, ok := p.r.defs[ref.Name]
	if !ok {
		return unknownComponent(ref.Name)
	}
	return p.invoke(caller, site, def, ref.Args.Clone(), attrs, blk, parent)
}

func (p *pass) statements(f *frame, parent *html.Node, stmts []syntax.Statement) error {
	for _, stmt := range stmts {
		if err := p.statement(f, parent, stmt); err != nil {
			return locate(f.def.Template, stmt, err)
		}
	}
	return nil
}

func (p *pass) statement(f *frame, parent *html.Node, stmt syntax.Statement) error {
	ops := p.r.ops
	switch n := stmt.(type) {
	case *syntax.TextNode:
		if n.Value != "" {
			ops.AppendChild(parent, ops.CreateText(n.Value))
		}
		return nil
	case *syntax.CommentNode:
		if n.HTML {
			ops.AppendChild(parent, ops.CreateComment(n.Value))
		}
		return nil
	case *syntax.MustacheStatement:
		return p.mustache(f, parent, n)
	case *syntax.BlockStatement:
		return p.blockStatement(f, parent, n)
	case *syntax.ElementNode:
		return p.element(f, parent, n)
	default:
		return fmt.Errorf("render: unexpected statement %T", stmt)
	}
}

func (p *pass) mustache(f *frame, parent *html.Node, m *syntax.MustacheStatement) error {
	if path, ok := m.Path.(*syntax.PathExpression); ok && path.Kind == syntax.PathVar && len(path.Tail) == 0 && !f.hasLocal(path.Head) {
		switch path.Head {
		case "yield":
			return p.yield(f, parent, m)
		case "component":
			ref, err := p.componentRef(f, m.Params, m.Hash)
			if err != nil || ref == nil {
				return err
			}
			return p.invokeRef(f, f.at(m), ref, nil, nil, parent)
		}
		if def, ok := p.r.defs[path.Head]; ok && IsComponentName(path.Head) {
			if len(m.Params) > 0 {
				return fmt.Errorf("render: {{%s}} takes named arguments only", path.Head)
			}
			args, err := p.hashValues(f, m.Hash)
			if err != nil {
				return err
			}
			return p.invoke(f, f.at(m), def, component.Args(args), nil, nil, parent)
		}
	}

	value, err := p.mustacheValue(f, m.Path, m.Params, m.Hash)
	if err != nil {
		return err
	}
	return p.appendValue(f, f.at(m), parent, value, m.Trusted)
}

func (p *pass) appendValue(f *frame, site string, parent *html.Node, value any, trusted bool) error {
	switch v := value.(type) {
	case *ComponentRef:
		return p.invokeRef(f, site, v, nil, nil, parent)
	case SafeString:
		return p.insertHTML(parent, string(v))
	}
	if trusted {
		return p.insertHTML(parent, Stringify(value))
	}
	if text := Stringify(value); text != "" {
		p.r.ops.AppendChild(parent, p.r.ops.CreateText(text))
	}
	return nil
}

func (p *pass) insertHTML(parent *html.Node, markup string) error {
	return p.r.ops.InsertHTML(parent, sanitizeMarkup(p.r.policy, markup))
}

func (p *pass) yield(f *frame, parent *html.Node, m *syntax.MustacheStatement) error {
	blk := f.block
	if blk == nil {
		return nil
	}
	body := blk.body
	for _, pair := range m.Hash.Pairs {
		if pair.Key != "to" {
			return fmt.Errorf("render: unknown yield option %q", pair.Key)
		}
		target, err := p.expr(f, pair.Value)
		if err != nil {
			return err
		}
		switch Stringify(target) {
		case "default":
		case "inverse", "else":
			body = blk.inverse
		default:
			return fmt.Errorf("render: cannot yield to %q", Stringify(target))
		}
	}

	values, err := p.values(f, m.Params)
	if err != nil {
		return err
	}
	// Yielded content belongs to the caller; the yield site keeps repeated
	// yields apart.
	caller := blk.caller.within(f.key + ">" + f.at(m))
	return p.statements(caller.withLocals(blk.params, values), parent, body)
}

func (p *pass) blockStatement(f *frame, parent *html.Node, b *syntax.BlockStatement) error {
	path := b.Path
	if path.Kind != syntax.PathVar || len(path.Tail) > 0 || f.hasLocal(path.Head) {
		return fmt.Errorf("%w %q used as a block", ErrUnknownHelper, path.Original)
	}

	switch path.Head {
	case "if", "unless":
		if len(b.Params) != 1 {
			return fmt.Errorf("render: {{#%s}} expects exactly one condition", path.Head)
		}
		cond, err := p.expr(f, b.Params[0])
		if err != nil {
			return err
		}
		truth := Truthy(cond)
		if path.Head == "unless" {
			truth = !truth
		}
		if truth {
			return p.statements(f, parent, b.Program)
		}
		return p.statements(f, parent, b.Inverse)
	case "each":
		return p.each(f, parent, b)
	case "each-in":
		return p.eachIn(f, parent, b)
	case "let":
		values, err := p.values(f, b.Params)
		if err != nil {
			return err
		}
		return p.statements(f.withLocals(b.BlockParams, values), parent, b.Program)
	case "component":
		ref, err := p.componentRef(f, b.Params, b.Hash)
		if err != nil || ref == nil {
			return err
		}
		return p.invokeRef(f, f.at(b), ref, nil, p.blockFor(f, b), parent)
	}

	if def, ok := p.r.defs[path.Head]; ok && IsComponentName(path.Head) {
		if len(b.Params) > 0 {
			return fmt.Errorf("render: {{#%s}} takes named arguments only", path.Head)
		}
		args, err := p.hashValues(f, b.Hash)
		if err != nil {
			return err
		}
		return p.invoke(f, f.at(b), def, component.Args(args), nil, p.blockFor(f, b), parent)
	}
	return fmt.Errorf("%w %q used as a block", ErrUnknownHelper, path.Original)
}

func (p *pass) blockFor(f *frame, b *syntax.BlockStatement) *block {
	return &block{body: b.Program, inverse: b.Inverse, params: b.BlockParams, caller: f}
}

func (p *pass) each(f *frame, parent *html.Node, b *syntax.BlockStatement) error {
	if len(b.Params) != 1 {
		return fmt.Errorf("render: {{#each}} expects exactly one list")
	}
	list, err := p.expr(f, b.Params[0])
	if err != nil {
		return err
	}
	if list == nil {
		return p.statements(f, parent, b.Inverse)
	}
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("render: {{#each}} expects a list, got %T", list)
	}
	if rv.Len() == 0 {
		return p.statements(f, parent, b.Inverse)
	}
	for i := 0; i < rv.Len(); i++ {
		child := f.within(fmt.Sprintf("%d[%d]", b.Offset(), i)).withLocals(b.BlockParams, []any{rv.Index(i).Interface(), i})
		if err := p.statements(child, parent, b.Program); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) eachIn(f *frame, parent *html.Node, b *syntax.BlockStatement) error {
	if len(b.Params) != 1 {
		return fmt.Errorf("render: {{#each-in}} expects exactly one object")
	}
	obj, err := p.expr(f, b.Params[0])
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Len() == 0 {
		return p.statements(f, parent, b.Inverse)
	}
	if rv.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("render: {{#each-in}} expects string keys, got %s", rv.Type().Key())
	}
	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		child := f.within(fmt.Sprintf("%d[%q]", b.Offset(), k)).withLocals(b.BlockParams, []any{k, value})
		if err := p.statements(child, parent, b.Program); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) element(f *frame, parent *html.Node, el *syntax.ElementNode) error {
	if v, ok := f.lookup(el.Tag); ok {
		ref, isRef := v.(*ComponentRef)
		if !isRef {
			return fmt.Errorf("render: <%s> is a local value, not a component", el.Tag)
		}
		args, attrs, err := p.invocation(f, el)
		if err != nil {
			return err
		}
		merged := ref.Args.Clone()
		for k, val := range args {
			merged[k] = val
		}
		return p.invokeRef(f, f.at(el), &ComponentRef{Name: ref.Name, Args: merged}, attrs, p.elementBlock(f, el), parent)
	}
	if def, ok := p.r.defs[el.Tag]; ok && IsComponentName(el.Tag) {
		args, attrs, err := p.invocation(f, el)
		if err != nil {
			return err
		}
		return p.invoke(f, f.at(el), def, args, attrs, p.elementBlock(f, el), parent)
	}
	if IsComponentName(el.Tag) || strings.ContainsAny(el.Tag, ".@") {
		return unknownComponent(el.Tag)
	}

	if len(el.Args) > 0 {
		return fmt.Errorf("render: named argument @%s is only valid on components, found on <%s>", el.Args[0].Name, el.Tag)
	}
	if len(el.BlockParams) > 0 {
		return fmt.Errorf("render: block params are only valid on components, found on <%s>", el.Tag)
	}

	ops := p.r.ops
	node := ops.CreateElement(el.Tag)
	for _, attr := range el.Attributes {
		if attr.Name == syntax.SplatAttribute {
			for _, forwarded := range f.attrs {
				p.setAttr(node, forwarded.Key, forwarded.Val)
			}
			continue
		}
		value, present, err := p.attrValue(f, attr.Value)
		if err != nil {
			return err
		}
		if present {
			p.setAttr(node, attr.Name, value)
		}
	}
	if err := p.statements(f, node, el.Children); err != nil {
		return err
	}
	ops.AppendChild(parent, node)
	return nil
}

// invocation evaluates the named args and forwarded attributes of a
// component element in the caller's frame.
func (p *pass) invocation(f *frame, el *syntax.ElementNode) (component.Args, []html.Attribute, error) {
	args := make(component.Args, len(el.Args))
	for _, arg := range el.Args {
		value, err := p.argValue(f, arg.Value)
		if err != nil {
			return nil, nil, err
		}
		args[arg.Name] = value
	}

	var attrs []html.Attribute
	for _, attr := range el.Attributes {
		if attr.Name == syntax.SplatAttribute {
			attrs = append(attrs, f.attrs...)
			continue
		}
		value, present, err := p.attrValue(f, attr.Value)
		if err != nil {
			return nil, nil, err
		}
		if present {
			attrs = append(attrs, html.Attribute{Key: attr.Name, Val: value})
		}
	}
	return args, attrs, nil
}

func (p *pass) elementBlock(f *frame, el *syntax.ElementNode) *block {
	if el.SelfClosing {
		return nil
	}
	return &block{body: el.Children, params: el.BlockParams, caller: f}
}

func (p *pass) setAttr(el *html.Node, name, value string) {
	if name == "class" {
		for _, a := range el.Attr {
			if a.Key == "class" && a.Val != "" {
				if value == "" {
					value = a.Val
				} else {
					value = a.Val + " " + value
				}
				break
			}
		}
	}
	p.r.ops.SetAttribute(el, name, value)
}

// attrValue reports present=false for nil and false so the attribute is
// omitted; true renders as an empty attribute.
func (p *pass) attrValue(f *frame, stmt syntax.Statement) (string, bool, error) {
	switch v := stmt.(type) {
	case *syntax.TextNode:
		return v.Value, true, nil
	case *syntax.MustacheStatement:
		value, err := p.mustacheValue(f, v.Path, v.Params, v.Hash)
		if err != nil {
			return "", false, err
		}
		switch value {
		case nil, false:
			return "", false, nil
		case true:
			return "", true, nil
		}
		return Stringify(value), true, nil
	case *syntax.ConcatStatement:
		s, err := p.concat(f, v)
		return s, err == nil, err
	}
	return "", false, fmt.Errorf("render: unexpected attribute value %T", stmt)
}

func (p *pass) argValue(f *frame, stmt syntax.Statement) (any, error) {
	switch v := stmt.(type) {
	case *syntax.TextNode:
		return v.Value, nil
	case *syntax.MustacheStatement:
		return p.mustacheValue(f, v.Path, v.Params, v.Hash)
	case *syntax.ConcatStatement:
		return p.concat(f, v)
	}
	return nil, fmt.Errorf("render: unexpected argument value %T", stmt)
}

func (p *pass) concat(f *frame, c *syntax.ConcatStatement) (string, error) {
	var b strings.Builder
	for _, part := range c.Parts {
		switch v := part.(type) {
		case *syntax.TextNode:
			b.WriteString(v.Value)
		case *syntax.MustacheStatement:
			value, err := p.mustacheValue(f, v.Path, v.Params, v.Hash)
			if err != nil {
				return "", err
			}
			b.WriteString(Stringify(value))
		}
	}
	return b.String(), nil
}

func (p *pass) mustacheValue(f *frame, path syntax.Expression, params []syntax.Expression, hash syntax.Hash) (any, error) {
	if len(params) == 0 && len(hash.Pairs) == 0 {
		return p.expr(f, path)
	}
	return p.call(f, path, params, hash)
}

func (p *pass) expr(f *frame, e syntax.Expression) (any, error) {
	switch n := e.(type) {
	case *syntax.StringLiteral:
		return n.Value, nil
	case *syntax.NumberLiteral:
		if !strings.ContainsAny(n.Original, ".eE") && n.Value == float64(int(n.Value)) {
			return int(n.Value), nil
		}
		return n.Value, nil
	case *syntax.BooleanLiteral:
		return n.Value, nil
	case *syntax.NullLiteral:
		return nil, nil
	case *syntax.SubExpression:
		return p.call(f, n.Path, n.Params, n.Hash)
	case *syntax.PathExpression:
		return p.path(f, n)
	}
	return nil, fmt.Errorf("render: unexpected expression %T", e)
}

// path resolves a path expression. A bare head checks block params first,
// then zero-argument helpers, then falls back to a property of this.
func (p *pass) path(f *frame, n *syntax.PathExpression) (any, error) {
	switch n.Kind {
	case syntax.PathThis:
		return component.Path(f.self, n.Tail), nil
	case syntax.PathArg:
		v, _ := f.args.Get(n.Head)
		return component.Path(v, n.Tail), nil
	}

	if v, ok := f.lookup(n.Head); ok {
		return component.Path(v, n.Tail), nil
	}
	if len(n.Tail) == 0 {
		if n.Head == "has-block" {
			return f.block != nil, nil
		}
		if h, ok := p.r.helper(n.Head); ok {
			return h(nil, map[string]any{})
		}
	}
	v, _ := component.Property(f.self, n.Head)
	return component.Path(v, n.Tail), nil
}

func (p *pass) call(f *frame, callee syntax.Expression, params []syntax.Expression, hash syntax.Hash) (any, error) {
	path, ok := callee.(*syntax.PathExpression)
	if !ok || path.Kind != syntax.PathVar || len(path.Tail) > 0 {
		return nil, fmt.Errorf("render: cannot call %s", describe(callee))
	}

	switch path.Head {
	case "if", "unless":
		if len(params) < 2 || len(params) > 3 {
			return nil, fmt.Errorf("render: inline %s expects 2 or 3 params, got %d", path.Head, len(params))
		}
		cond, err := p.expr(f, params[0])
		if err != nil {
			return nil, err
		}
		truth := Truthy(cond)
		if path.Head == "unless" {
			truth = !truth
		}
		if truth {
			return p.expr(f, params[1])
		}
		if len(params) == 3 {
			return p.expr(f, params[2])
		}
		return nil, nil
	case "component":
		ref, err := p.componentRef(f, params, hash)
		if err != nil || ref == nil {
			return nil, err
		}
		return ref, nil
	case "has-block":
		return f.block != nil, nil
	case "yield":
		return nil, fmt.Errorf("render: yield cannot be used as a value")
	}

	helper, ok := p.r.helper(path.Head)
	if !ok {
		return nil, unknownHelper(path.Head)
	}
	positional, err := p.values(f, params)
	if err != nil {
		return nil, err
	}
	named, err := p.hashValues(f, hash)
	if err != nil {
		return nil, err
	}
	result, err := helper(positional, named)
	if err != nil {
		return nil, fmt.Errorf("render: helper %q: %w", path.Head, err)
	}
	return result, nil
}

// componentRef resolves the target of {{component ...}}. A nil or empty name
// yields nil so nothing renders.
func (p *pass) componentRef(f *frame, params []syntax.Expression, hash syntax.Hash) (*ComponentRef, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("render: component expects exactly one name or component, got %d params", len(params))
	}
	target, err := p.expr(f, params[0])
	if err != nil {
		return nil, err
	}
	named, err := p.hashValues(f, hash)
	if err != nil {
		return nil, err
	}

	var ref *ComponentRef
	switch v := target.(type) {
	case nil:
		return nil, nil
	case *ComponentRef:
		ref = &ComponentRef{Name: v.Name, Args: v.Args.Clone()}
	default:
		name := Stringify(v)
		if name == "" {
			return nil, nil
		}
		ref = &ComponentRef{Name: name, Args: component.Args{}}
	}
	if _, ok := p.r.defs[ref.Name]; !ok {
		return nil, unknownComponent(ref.Name)
	}
	for k, v := range named {
		ref.Args[k] = v
	}
	return ref, nil
}

func (p *pass) values(f *frame, exprs []syntax.Expression) ([]any, error) {
	out := make([]any, 0, len(exprs))
	for _, e := range exprs {
		v, err := p.expr(f, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *pass) hashValues(f *frame, hash syntax.Hash) (map[string]any, error) {
	out := make(map[string]any, len(hash.Pairs))
	for _, pair := range hash.Pairs {
		v, err := p.expr(f, pair.Value)
		if err != nil {
			return nil, err
		}
		out[pair.Key] = v
	}
	return out, nil
}

func describe(e syntax.Expression) string {
	switch n := e.(type) {
	case *syntax.PathExpression:
		return fmt.Sprintf("%q", n.Original)
	case *syntax.StringLiteral:
		return fmt.Sprintf("string literal %q", n.Value)
	}
	return fmt.Sprintf("%T", e)
}
