package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newSecretCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store or remove the access tokens that $name@ references use",
	}
	cmd.AddCommand(newSecretSetCmd(app), newSecretRmCmd(app))

	return cmd
}

func newSecretSetCmd(app *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a token, read from the terminal or from stdin",
		Long: `Store a token under name, so that "$name@owner/repo" resolves to it.

On a terminal the token is asked for without echo; otherwise the first line
of stdin is used. Without --store the token goes to pass when it is
installed and to the secrets directory otherwise. --store env keeps it for
the current process only, which is what a shell session wants.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			value, err := readSecret(ctx, cmd, app, args[0])
			if err != nil {
				return err
			}
			if err := app.secrets.Set(ctx, args[0], value, backend); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: stored\n", strings.TrimPrefix(args[0], "$"))
			return err
		},
	}
	cmd.Flags().StringVar(&backend, "store", "", "Backend to write to: "+strings.Join(app.secrets.Backends(), ", "))

	return cmd
}

func newSecretRmCmd(app *app) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "rm <name>...",
		Short: "Remove tokens from every backend, or from --store only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			for _, name := range args {
				if err := app.secrets.Remove(ctx, name, backend); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: removed\n", strings.TrimPrefix(name, "$")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "store", "", "Backend to remove from: "+strings.Join(app.secrets.Backends(), ", "))

	return cmd
}

func readSecret(ctx context.Context, cmd *cobra.Command, app *app, name string) (string, error) {
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return app.prompt.Get(ctx, name)
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read secret from stdin: %w", err)
	}
	first, _, _ := strings.Cut(string(raw), "\n")

	return strings.TrimRight(first, "\r"), nil
}
