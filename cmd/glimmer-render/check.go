package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-glimmer/pkg/loader"
)

func newCheckCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <dir>",
		Short: "Compile and boot the application in <dir> without output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(global.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			manifest, err := loader.LoadFS(os.DirFS(args[0]))
			if err != nil {
				return err
			}
			a, err := bootManifest(cmd.Context(), manifest, logger)
			if err != nil {
				return err
			}
			a.Destroy()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d templates\n", len(manifest.Templates))
			return nil
		},
	}
}
