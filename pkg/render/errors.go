package render

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-glimmer/pkg/syntax"
)

var (
	// ErrUnknownHelper is returned when a template calls a helper that is
	// neither built in nor registered.
	ErrUnknownHelper = errors.New("render: unknown helper")
	// ErrUnknownComponent is returned for component invocations without a
	// definition.
	ErrUnknownComponent = errors.New("render: unknown component")
	// ErrRecursionLimit stops runaway component nesting.
	ErrRecursionLimit = errors.New("render: component nesting limit exceeded")
)

// Error locates a render failure in a template.
type Error struct {
	Template string
	Line     int
	Column   int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Template, e.Line, e.Column, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// locate wraps err with the position of node unless it already carries one.
func locate(tpl *syntax.Template, node syntax.Node, err error) error {
	if err == nil || tpl == nil || node == nil {
		return err
	}
	var located *Error
	if errors.As(err, &located) {
		return err
	}
	line, col := syntax.Position(tpl.Source, node.Offset())
	return &Error{Template: tpl.Name, Line: line, Column: col, Err: err}
}

func unknownHelper(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownHelper, name)
}

func unknownComponent(name string) error {
	return fmt.Errorf("%w <%s>: no template registered under that name", ErrUnknownComponent, name)
}
