package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMountCmd(app *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "mount",
		Short: "Attach the storage volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := app.session.Mount(ctx, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mounted %s\n", app.cfg.MountPoint)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Remount even when already attached")

	return cmd
}

func newUnmountCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unmount",
		Short: "Detach the storage volume",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return app.session.Unmount(ctx)
		},
	}
}

func newRestartCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Save the session and start it over with the same records and path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return app.session.Restart(ctx)
		},
	}
}

func newEndCmd(app *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "end",
		Short: "Delete the repos root and saved state, detach the volume and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("end removes %s and the saved session; pass --yes to confirm", app.cfg.ReposRoot)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			return app.session.End(ctx)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the cleanup")

	return cmd
}
