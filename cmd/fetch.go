package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/nbassist/internal/application"
	"github.com/bnema/nbassist/internal/domain"
	"github.com/spf13/cobra"
)

const shortCommit = 10

var errDirWithManyRefs = errors.New("--dir names one clone and cannot be used with several references")

type fetchFlags struct {
	mode          string
	rev           string
	secret        string
	dir           string
	installerArgs []string
}

func (f *fetchFlags) register(cmd *cobra.Command, defaultMode domain.InstallMode) {
	cmd.Flags().StringVar(&f.mode, "mode", string(defaultMode), "Install mode: install, editable, path or clone")
	cmd.Flags().StringVar(&f.rev, "rev", "", "Branch, tag or commit to check out")
	cmd.Flags().StringVar(&f.secret, "secret", "", "Secret holding the access token ($ prompts for it)")
	cmd.Flags().StringVar(&f.dir, "dir", "", "Directory name of the clone under the repos root")
	registerInstallerArgs(cmd, &f.installerArgs)
}

func registerInstallerArgs(cmd *cobra.Command, target *[]string) {
	cmd.Flags().StringArrayVar(target, "installer-arg", nil, "Extra installer option such as --index-url=URL (repeatable)")
}

func registerKind(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "kind", "", "Which record to use when a name is both installed and cloned: index or git")
}

func parseKind(raw string) (domain.SourceKind, error) {
	switch kind := domain.SourceKind(strings.TrimSpace(raw)); kind {
	case "", domain.SourceIndex, domain.SourceGit:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrResolution, raw)
	}
}

func (f *fetchFlags) options() (application.FetchOptions, error) {
	mode := domain.InstallMode(strings.TrimSpace(f.mode))
	if !mode.Valid() {
		return application.FetchOptions{}, fmt.Errorf("%w: unknown mode %q", domain.ErrResolution, f.mode)
	}

	return application.FetchOptions{Mode: mode, Revision: f.rev, SecretRef: f.secret, Dir: f.dir, InstallerArgs: f.installerArgs}, nil
}

func newInstallCmd(app *app) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "install <ref>...",
		Short: "Fetch packages unless the session already has them",
		Long: `Fetch packages unless the session already has them.

A reference is either an index requirement such as "polars>=1.0", or a
repository written [$secret@][host/]owner/repo[@rev]. host may be a domain or
one of the $gh, $gl and $bb shorthands; "$@" prompts for the access token.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			return runFetch(cmd, app, args, opts)
		},
	}
	flags.register(cmd, domain.ModeInstall)

	return cmd
}

func newCloneCmd(app *app) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "clone <owner/repo>",
		Short: "Clone a repository into the repos root and put it on the module path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if !opts.Mode.Clones() {
				return fmt.Errorf("%w: clone needs mode editable, path or clone, got %q", domain.ErrResolution, opts.Mode)
			}
			return runFetch(cmd, app, args, opts)
		},
	}
	flags.register(cmd, domain.ModeClone)

	return cmd
}

func runFetch(cmd *cobra.Command, app *app, refs []string, opts application.FetchOptions) error {
	if len(refs) > 1 && opts.Dir != "" {
		return errDirWithManyRefs
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	for _, raw := range refs {
		var record domain.InstallRecord
		fetch := func(ctx context.Context) error {
			var err error
			record, err = app.tracker.EnsureFetched(ctx, raw, opts)
			return err
		}

		if err := withProgress(ctx, cmd, prompts(raw, opts.SecretRef), "Fetching "+raw+"...", fetch); err != nil {
			if record.Name != "" {
				printRecord(cmd.OutOrStdout(), record)
			}
			return err
		}
		printRecord(cmd.OutOrStdout(), record)
	}

	return nil
}

func newUpdateCmd(app *app, reinstall bool) *cobra.Command {
	use, short, verb := "update <name>...", "Upgrade fetched packages or pull their clones", "Updating"
	if reinstall {
		use, short, verb = "reinstall <name>...", "Reinstall fetched packages and their dependencies", "Reinstalling"
	}

	var kind string
	var installerArgs []string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceKind, err := parseKind(kind)
			if err != nil {
				return err
			}
			opts := application.UpdateOptions{Reinstall: reinstall, Kind: sourceKind, InstallerArgs: installerArgs}
			return runUpdate(cmd, app, args, opts, verb)
		},
	}
	registerKind(cmd, &kind)
	registerInstallerArgs(cmd, &installerArgs)

	return cmd
}

func newPullCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <name>...",
		Short: "Fetch and fast-forward cloned repositories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if _, ok := app.tracker.Record(name, domain.SourceGit); ok {
					continue
				}
				if record, ok := app.tracker.Record(name, domain.SourceIndex); ok {
					return fmt.Errorf("%s was installed from the package index; use update", record.Name)
				}
			}
			return runUpdate(cmd, app, args, application.UpdateOptions{Kind: domain.SourceGit}, "Pulling")
		},
	}
}

func runUpdate(cmd *cobra.Command, app *app, names []string, opts application.UpdateOptions, verb string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	for _, name := range names {
		prior, _ := app.tracker.Record(name, opts.Kind)

		var record domain.InstallRecord
		update := func(ctx context.Context) error {
			var err error
			record, err = app.tracker.EnsureUpdated(ctx, name, opts)
			return err
		}

		if err := withProgress(ctx, cmd, prior.SecretRef == domain.PromptSecretRef, verb+" "+name+"...", update); err != nil {
			return err
		}
		printRecord(cmd.OutOrStdout(), record)
	}

	return nil
}

func newForgetCmd(app *app) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "forget <name>...",
		Short: "Drop packages from the session record, keeping their files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sourceKind, err := parseKind(kind)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			for _, name := range args {
				record, err := app.tracker.Forget(ctx, name, sourceKind)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: forgotten\n", record.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
	registerKind(cmd, &kind)

	return cmd
}

// withProgress shows a spinner unless the operation may stop to prompt
// for a token, which needs the terminal to itself.
func withProgress(ctx context.Context, cmd *cobra.Command, interactive bool, label string, fn func(context.Context) error) error {
	if interactive {
		return fn(ctx)
	}

	return runWithSpinner(ctx, cmd.ErrOrStderr(), label, fn)
}

func prompts(raw string, secretRef string) bool {
	return secretRef == domain.PromptSecretRef || strings.HasPrefix(strings.TrimSpace(raw), domain.PromptSecretRef+"@")
}

func printRecord(w io.Writer, record domain.InstallRecord) {
	fmt.Fprintf(w, "%s: %s\n", record.Name, describe(record))
}

func describe(record domain.InstallRecord) string {
	if record.Kind != domain.SourceGit {
		return fmt.Sprintf("%s (%s)", record.Requirement, record.Mode)
	}

	source := record.Remote
	if record.Revision != "" {
		source += "@" + record.Revision
	}

	commit := record.Commit
	if len(commit) > shortCommit {
		commit = commit[:shortCommit]
	}
	if commit == "" {
		return fmt.Sprintf("%s (%s)", source, record.Mode)
	}

	return fmt.Sprintf("%s at %s in %s (%s)", source, commit, record.Dir, record.Mode)
}
