package lifecycle

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

type execFunc func(argv0 string, argv []string, envv []string) error

// Process restarts the current program in place, or ends it. Neither
// returns on success.
type Process struct {
	exec       execFunc
	exit       func(code int)
	executable func() (string, error)
	args       []string
	log        zerolog.Logger
}

var _ ports.Lifecycle = (*Process)(nil)

func NewProcess(logger zerolog.Logger) *Process {
	return &Process{
		exec:       syscall.Exec,
		exit:       os.Exit,
		executable: os.Executable,
		args:       os.Args,
		log:        logger,
	}
}

// Restart replaces the process image with a fresh copy of itself, so the
// interpreter state is gone while files and installed packages remain.
func (p *Process) Restart(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := p.executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	p.log.Info().Str("executable", path).Strs("args", p.args).Msg("restarting session")
	if err := p.exec(path, p.args, os.Environ()); err != nil {
		return fmt.Errorf("restart session: %w", err)
	}

	return nil
}

func (p *Process) Terminate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.log.Info().Msg("terminating session")
	p.exit(0)
	return nil
}
