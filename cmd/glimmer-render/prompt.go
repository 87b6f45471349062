package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"

	"github.com/goliatone/go-glimmer/pkg/app"
	"github.com/goliatone/go-glimmer/pkg/loader"
)

// errAborted is returned when the user interrupts a prompt.
var errAborted = errors.New("prompt aborted")

// prompter asks the user to pick one of options.
type prompter interface {
	Interactive() bool
	Select(ctx context.Context, message string, options []string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

func (surveyPrompter) Select(ctx context.Context, message string, options []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if err := survey.AskOne(prompt, &out, survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}

// resolveRoot picks the root component: the flag, then app.yaml, then the
// default name when such a template exists, then a prompt.
func resolveRoot(ctx context.Context, m *loader.Manifest, flag string, prompt prompter) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if m.Root != "" {
		return m.Root, nil
	}
	if _, ok := m.Templates[app.DefaultRootName]; ok {
		return app.DefaultRootName, nil
	}

	names := m.Names()
	if len(names) == 1 {
		return names[0], nil
	}
	if prompt == nil || !prompt.Interactive() {
		return "", fmt.Errorf("no %s template and no root configured; pass --root (templates: %v)", app.DefaultRootName, names)
	}
	return prompt.Select(ctx, "Root component", names)
}
