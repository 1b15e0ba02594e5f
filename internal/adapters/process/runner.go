package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

const redacted = "***"

var errCredentialTarget = errors.New("credential URL is not one of the command arguments")

type execFunc func(ctx context.Context, name string, args []string, dir string) (stdout string, stderr string, err error)

// Runner runs installer and git subprocesses. It is the only place where a
// token is written into a URL, and it scrubs that token from everything it
// hands back.
type Runner struct {
	exec execFunc
	log  zerolog.Logger
}

var _ ports.Runner = (*Runner)(nil)

func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{exec: runCommand, log: logger}
}

func (r *Runner) Run(ctx context.Context, cmd ports.Command) (ports.CommandResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.CommandResult{}, err
	}

	args, secrets, err := materialize(cmd)
	if err != nil {
		return ports.CommandResult{}, err
	}

	r.log.Debug().
		Str("command", cmd.Name).
		Strs("args", cmd.Args).
		Str("dir", cmd.Dir).
		Bool("authenticated", cmd.Credential != nil).
		Msg("running subprocess")

	stdout, stderr, runErr := r.exec(ctx, cmd.Name, args, cmd.Dir)
	result := ports.CommandResult{
		Stdout: Redact(stdout, secrets...),
		Stderr: Redact(stderr, secrets...),
	}
	if runErr == nil {
		return result, nil
	}

	fetchErr := &domain.FetchError{
		Args:     append([]string{cmd.Name}, cmd.Args...),
		Dir:      cmd.Dir,
		ExitCode: -1,
		Stderr:   result.Stderr,
		Err:      runErr,
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		fetchErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		fetchErr.Err = errors.Join(runErr, ctxErr)
	}

	r.log.Debug().
		Str("command", cmd.Name).
		Int("exit_code", fetchErr.ExitCode).
		Msg("subprocess failed")

	return result, fetchErr
}

// AuthenticatedURL returns raw with token in its userinfo. Schemes such as
// "git+https" are kept.
func AuthenticatedURL(raw string, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse remote URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote URL %q has no host", raw)
	}

	u.User = url.User(token)
	return u.String(), nil
}

// Redact replaces every occurrence of each secret, raw or URL-escaped.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redacted)
		if escaped := url.User(secret).String(); escaped != secret {
			s = strings.ReplaceAll(s, escaped, redacted)
		}
	}

	return s
}

func materialize(cmd ports.Command) ([]string, []string, error) {
	args := append([]string(nil), cmd.Args...)
	if cmd.Credential == nil || cmd.Credential.Token == "" {
		return args, nil, nil
	}

	authenticated, err := AuthenticatedURL(cmd.Credential.URL, cmd.Credential.Token)
	if err != nil {
		return nil, nil, err
	}

	replaced := false
	for i, arg := range args {
		if arg == cmd.Credential.URL {
			args[i] = authenticated
			replaced = true
		}
	}
	if !replaced {
		return nil, nil, errCredentialTarget
	}

	return args, []string{cmd.Credential.Token}, nil
}

func runCommand(ctx context.Context, name string, args []string, dir string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
