package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/nbassist/internal/adapters/shell"
	"github.com/spf13/cobra"
)

func newShellCmd(app *app) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "shell [script.star]...",
		Short: "Start a Starlark session whose modules come from the session path",
		Long: `Start a Starlark session whose modules come from the session path.

Modules are imported with import_module("pkg.mod") or load("pkg/mod.star", ...)
and re-executed with f = reload(f). Lines starting with % run magics: every
nba command (%install, %clone, %pull, %status, ...) plus %reload [-v] <name>
and %autoreload on|off.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := app.tracker.Restore(ctx); err != nil {
				return err
			}

			sh := shell.New(shell.Options{
				Paths:  app.tracker,
				Magics: func() []*cobra.Command { return sessionCommands(app) },
				Out:    cmd.OutOrStdout(),
				Logger: app.log,
			})
			defer sh.Close()

			if code != "" {
				return sh.Run(ctx, strings.NewReader(code), false)
			}
			for _, script := range args {
				if err := runScript(ctx, sh, script); err != nil {
					return err
				}
			}
			if len(args) > 0 {
				return nil
			}

			return sh.Run(ctx, cmd.InOrStdin(), isTerminal(cmd.InOrStdin()))
		},
	}
	cmd.Flags().StringVarP(&code, "command", "c", "", "Run these cells instead of reading standard input")

	return cmd
}

func runScript(ctx context.Context, sh *shell.Shell, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	return sh.Run(ctx, f, false)
}
