package app

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when a template or component name does not
	// start with a capital letter.
	ErrInvalidName = errors.New("app: names must start with a capital letter")
	// ErrMissingTemplate is returned by Boot when a component has no template.
	ErrMissingTemplate = errors.New("app: component requires a template")
	// ErrAlreadyBooted is returned when a builder is used after Boot.
	ErrAlreadyBooted = errors.New("app: application already booted")
)

// NameError reports a registration with an invalid name.
type NameError struct {
	Kind string
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("app: invalid %s name %q: template and component names must start with a capital letter", e.Kind, e.Name)
}

func (e *NameError) Is(target error) bool { return target == ErrInvalidName }

// MissingTemplateError names the component that has no template.
type MissingTemplateError struct {
	Component string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("app: component %q requires a template, but no template named %q was registered", e.Component, e.Component)
}

func (e *MissingTemplateError) Is(target error) bool { return target == ErrMissingTemplate }
