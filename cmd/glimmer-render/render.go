package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-glimmer/pkg/app"
	"github.com/goliatone/go-glimmer/pkg/loader"
	"github.com/goliatone/go-glimmer/pkg/shell"
)

type renderFlags struct {
	root   string
	page   bool
	output string
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <dir>",
		Short: "Boot the application in <dir> and print its HTML",
		Long: `Boot the application in <dir> and print the rendered HTML.

The directory holds one .hbs file per component and an optional app.yaml.

Examples:
  glimmer-render render ./examples/hello
  glimmer-render render ./examples/hello --page --output index.html
  glimmer-render render ./examples/hello --root HelloWorld`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(global.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			out, err := renderDir(cmd.Context(), args[0], flags, logger, surveyPrompter{})
			if err != nil {
				return err
			}
			if flags.output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(flags.output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", flags.output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "HTML written to %s\n", flags.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&flags.root, "root", "r", "", "root component (overrides app.yaml)")
	cmd.Flags().BoolVar(&flags.page, "page", false, "wrap the output in a full HTML page")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func renderDir(ctx context.Context, dir string, flags *renderFlags, logger *zap.Logger, prompt prompter) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	manifest, err := loader.LoadFS(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	root, err := resolveRoot(ctx, manifest, flags.root, prompt)
	if err != nil {
		return nil, err
	}
	manifest.Root = root

	a, err := bootManifest(ctx, manifest, logger)
	if err != nil {
		return nil, err
	}
	defer a.Destroy()

	markup, err := a.HTML()
	if err != nil {
		return nil, err
	}
	if !flags.page {
		return []byte(markup + "\n"), nil
	}

	page, err := shell.New(manifest.ShellOptions()...)
	if err != nil {
		return nil, err
	}
	doc := manifest.Page(markup)
	doc.Data = map[string]any{"app": a.ID(), "root": root}
	return page.Render(doc)
}

func bootManifest(ctx context.Context, manifest *loader.Manifest, logger *zap.Logger) (*app.Application, error) {
	opts := append(manifest.Options(), app.WithLogger(logger))
	b := app.New(opts...)
	if err := manifest.Apply(b); err != nil {
		return nil, err
	}
	return b.Boot(ctx)
}
