package mount

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

const (
	DefaultMountsFile = "/proc/self/mounts"
	pointPlaceholder  = "{point}"
)

var ErrNoMountCommand = errors.New("no mount command configured")

type Options struct {
	Point          string
	MountCommand   string
	UnmountCommand string
	MountsFile     string
}

// Mounter attaches the external storage volume by running the configured
// commands, and reads the kernel mount table to tell whether it is attached.
type Mounter struct {
	runner ports.Runner
	opts   Options
	log    zerolog.Logger
}

var _ ports.Mounter = (*Mounter)(nil)

func NewMounter(runner ports.Runner, opts Options, logger zerolog.Logger) *Mounter {
	if opts.MountsFile == "" {
		opts.MountsFile = DefaultMountsFile
	}
	if opts.Point != "" {
		opts.Point = filepath.Clean(opts.Point)
	}

	return &Mounter{runner: runner, opts: opts, log: logger}
}

func (m *Mounter) MountPoint() string {
	return m.opts.Point
}

// Mount is a no-op when the volume is attached, unless force asks for a
// remount.
func (m *Mounter) Mount(ctx context.Context, force bool) error {
	if m.opts.Point == "" || strings.TrimSpace(m.opts.MountCommand) == "" {
		return ErrNoMountCommand
	}

	if m.Mounted() {
		if !force {
			m.log.Debug().Str("point", m.opts.Point).Msg("volume already mounted")
			return nil
		}
		if err := m.Unmount(ctx); err != nil {
			return fmt.Errorf("remount: %w", err)
		}
	}

	if err := os.MkdirAll(m.opts.Point, 0o755); err != nil {
		return fmt.Errorf("create mount point: %w", err)
	}

	if _, err := m.runner.Run(ctx, command(m.opts.MountCommand, m.opts.Point)); err != nil {
		return fmt.Errorf("mount %s: %w", m.opts.Point, err)
	}

	m.log.Info().Str("point", m.opts.Point).Msg("volume mounted")
	return nil
}

// Unmount is a no-op when nothing is mounted at the mount point.
func (m *Mounter) Unmount(ctx context.Context) error {
	if m.opts.Point == "" || !m.Mounted() {
		return nil
	}
	if strings.TrimSpace(m.opts.UnmountCommand) == "" {
		return ErrNoMountCommand
	}

	if _, err := m.runner.Run(ctx, command(m.opts.UnmountCommand, m.opts.Point)); err != nil {
		return fmt.Errorf("unmount %s: %w", m.opts.Point, err)
	}

	m.log.Info().Str("point", m.opts.Point).Msg("volume unmounted")
	return nil
}

func (m *Mounter) Mounted() bool {
	if m.opts.Point == "" {
		return false
	}

	file, err := os.Open(m.opts.MountsFile)
	if err != nil {
		m.log.Debug().Err(err).Str("file", m.opts.MountsFile).Msg("cannot read mount table")
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if filepath.Clean(unescapeMountField(fields[1])) == m.opts.Point {
			return true
		}
	}

	return false
}

// command splits a configured command line on whitespace and substitutes the
// mount point, appending it when the line has no placeholder.
func command(line string, point string) ports.Command {
	fields := strings.Fields(line)
	substituted := false
	for i, field := range fields {
		if strings.Contains(field, pointPlaceholder) {
			fields[i] = strings.ReplaceAll(field, pointPlaceholder, point)
			substituted = true
		}
	}
	if !substituted {
		fields = append(fields, point)
	}

	return ports.Command{Name: fields[0], Args: fields[1:]}
}

// unescapeMountField undoes the octal escapes the kernel uses for spaces,
// tabs, newlines and backslashes in mount table paths.
func unescapeMountField(field string) string {
	replacer := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return replacer.Replace(field)
}
