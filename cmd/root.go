package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

const timeoutFlag = "timeout"

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nba",
		Short:         "Notebook assist (nba): fetch, track and hot-reload session packages",
		Long:          "nba installs and refreshes packages inside a long-lived notebook session, keeps a record of what was fetched so repeated calls are cheap, and reloads edited modules into a running Starlark shell.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().Duration(timeoutFlag, 0, "Abort after this long (0 waits indefinitely)")

	rootCmd.AddCommand(newVersionCmd())

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(sessionCommands(app)...)
	rootCmd.AddCommand(
		newShellCmd(app),
		newDownloadCmd(app),
	)

	return rootCmd
}

// sessionCommands are the commands available both from the CLI and as
// shell magics.
func sessionCommands(app *app) []*cobra.Command {
	return []*cobra.Command{
		newInstallCmd(app),
		newUpdateCmd(app, false),
		newUpdateCmd(app, true),
		newCloneCmd(app),
		newPullCmd(app),
		newForgetCmd(app),
		newStatusCmd(app),
		newPathCmd(app),
		newMountCmd(app),
		newUnmountCmd(app),
		newRestartCmd(app),
		newEndCmd(app),
		newSecretCmd(app),
	}
}

// commandContext applies --timeout when the command tree defines it. Shell
// magics have no such flag and run until the cell is interrupted.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	timeout, err := cmd.Flags().GetDuration(timeoutFlag)
	if err != nil || timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}
