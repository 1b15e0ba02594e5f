package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

const reposDirMode = 0o755

var ErrWorkingCopyMissing = errors.New("recorded working copy is missing")

// Executor turns directives into installer and git invocations.
type Executor struct {
	runner    ports.Runner
	installer []string
	git       string
	log       zerolog.Logger
}

func NewExecutor(runner ports.Runner, installer []string, git string, logger zerolog.Logger) *Executor {
	return &Executor{
		runner:    runner,
		installer: append([]string(nil), installer...),
		git:       git,
		log:       logger,
	}
}

// Install runs `<installer> [-U|--reinstall] [options] -- <requirement>`.
func (e *Executor) Install(ctx context.Context, d Directive) error {
	args := []string{}
	switch {
	case d.Reinstall:
		args = append(args, "--reinstall")
	case d.Upgrade:
		args = append(args, "-U")
	}
	args = append(args, d.InstallerArgs...)
	args = append(args, "--", d.Ref.Requirement())

	e.log.Info().Str("requirement", d.Ref.Requirement()).Bool("upgrade", d.Upgrade).Bool("reinstall", d.Reinstall).Msg("installing package")
	_, err := e.runner.Run(ctx, e.installCommand(args, d.Credential))
	return err
}

// InstallEditable installs the working copy at d.Dir in develop mode.
func (e *Executor) InstallEditable(ctx context.Context, d Directive) error {
	args := []string{}
	if d.Reinstall {
		args = append(args, "--reinstall")
	}
	args = append(args, d.InstallerArgs...)
	args = append(args, "-e", d.Dir)

	e.log.Info().Str("dir", d.Dir).Msg("installing working copy in editable mode")
	_, err := e.runner.Run(ctx, e.installCommand(args, nil))
	return err
}

// Sync brings the working copy at d.Dir to the requested revision, cloning
// it first when needed, and returns the checked out commit.
func (e *Executor) Sync(ctx context.Context, d Directive) (string, error) {
	remote := d.Ref.Remote()
	fresh := false

	switch d.Kind {
	case DirectiveClone:
		exists, err := pathExists(d.Dir)
		if err != nil {
			return "", err
		}
		if exists {
			if err := e.checkOrigin(ctx, d.Dir, remote); err != nil {
				return "", err
			}
			e.log.Info().Str("dir", d.Dir).Msg("adopting existing clone")
			break
		}
		if err := e.clone(ctx, d); err != nil {
			return "", err
		}
		fresh = true
	case DirectivePull:
		exists, err := pathExists(d.Dir)
		if err != nil {
			return "", err
		}
		if !exists {
			return "", fmt.Errorf("%w: %w: working copy %s is gone; forget %s and clone it again",
				domain.ErrFetchFailure, ErrWorkingCopyMissing, d.Dir, d.Ref.RecordName())
		}
		if err := e.checkOrigin(ctx, d.Dir, remote); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("sync does not handle %s directives", d.Kind)
	}

	if !fresh {
		e.log.Info().Str("dir", d.Dir).Str("remote", remote).Msg("fetching")
		if _, err := e.gitRun(ctx, d.Dir, d.Credential, "fetch", "--quiet", "--prune", "--tags", remote, "+refs/heads/*:refs/remotes/origin/*"); err != nil {
			return "", err
		}
	}

	if err := e.checkout(ctx, d.Dir, d.Ref.Revision, fresh); err != nil {
		return "", err
	}

	out, err := e.gitRun(ctx, d.Dir, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

func (e *Executor) clone(ctx context.Context, d Directive) error {
	if err := os.MkdirAll(filepath.Dir(d.Dir), reposDirMode); err != nil {
		return fmt.Errorf("create repositories directory: %w", err)
	}

	remote := d.Ref.Remote()
	e.log.Info().Str("remote", remote).Str("dir", d.Dir).Msg("cloning")
	if _, err := e.gitRun(ctx, "", d.Credential, "clone", "--quiet", "--", remote, d.Dir); err != nil {
		return err
	}
	if d.Credential == nil {
		return nil
	}

	// git stored the authenticated URL as origin
	_, err := e.gitRun(ctx, d.Dir, nil, "remote", "set-url", "origin", remote)
	return err
}

// checkout moves to rev, or to the remote default branch when rev is empty,
// and fast-forwards branches to their remote tip. A fresh clone without a
// revision is already where it should be.
func (e *Executor) checkout(ctx context.Context, dir string, rev string, fresh bool) error {
	if rev == "" {
		if fresh {
			return nil
		}
		branch, err := e.defaultBranch(ctx, dir)
		if err != nil {
			return err
		}
		rev = branch
	}

	if _, err := e.gitRun(ctx, dir, nil, "checkout", "--quiet", rev); err != nil {
		return err
	}

	if _, err := e.gitRun(ctx, dir, nil, "rev-parse", "--verify", "--quiet", "refs/remotes/origin/"+rev); err != nil {
		// a tag or a commit: nothing to fast-forward
		return nil
	}

	_, err := e.gitRun(ctx, dir, nil, "merge", "--ff-only", "--quiet", "origin/"+rev)
	return err
}

func (e *Executor) defaultBranch(ctx context.Context, dir string) (string, error) {
	out, err := e.gitRun(ctx, dir, nil, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err == nil {
		return strings.TrimPrefix(strings.TrimSpace(out), "origin/"), nil
	}

	out, headErr := e.gitRun(ctx, dir, nil, "rev-parse", "--abbrev-ref", "HEAD")
	if headErr != nil {
		return "", errors.Join(err, headErr)
	}

	return strings.TrimSpace(out), nil
}

// checkOrigin refuses to touch a directory that tracks another remote.
func (e *Executor) checkOrigin(ctx context.Context, dir string, remote string) error {
	out, err := e.gitRun(ctx, dir, nil, "remote", "get-url", "origin")
	if err != nil {
		return fmt.Errorf("%w: %s exists but is not a clone of %s: %w", domain.ErrRemoteMismatch, dir, remote, err)
	}

	origin := strings.TrimSpace(out)
	if sameRemote(origin, remote) {
		return nil
	}

	return fmt.Errorf("%w: %w: %s tracks %s, not %s", domain.ErrFetchFailure, domain.ErrRemoteMismatch, dir, origin, remote)
}

func (e *Executor) gitRun(ctx context.Context, dir string, cred *ports.Credential, args ...string) (string, error) {
	result, err := e.runner.Run(ctx, ports.Command{Name: e.git, Args: args, Dir: dir, Credential: cred})
	return result.Stdout, err
}

func (e *Executor) installCommand(args []string, cred *ports.Credential) ports.Command {
	full := append(append([]string(nil), e.installer[1:]...), args...)
	return ports.Command{Name: e.installer[0], Args: full, Credential: cred}
}

// sameRemote compares two clone URLs ignoring credentials, case of the host,
// a trailing slash and the .git suffix.
func sameRemote(a string, b string) bool {
	normalize := func(remote string) string {
		host, owner, repo, err := domain.ParseRemote(remote)
		if err != nil {
			return strings.TrimSuffix(strings.TrimSuffix(remote, "/"), ".git")
		}
		return strings.ToLower(host) + "/" + owner + "/" + repo
	}

	return normalize(a) == normalize(b)
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

// importRoot is where a working copy's modules live: src/ when the project
// uses that layout, the working copy itself otherwise.
func importRoot(dir string, mode domain.InstallMode) string {
	if mode == domain.ModeClone {
		return dir
	}

	src := filepath.Join(dir, "src")
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return src
	}

	return dir
}
