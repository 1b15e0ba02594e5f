package application

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

// Status is a read-only view of the session for rendering.
type Status struct {
	Records    []domain.InstallRecord
	Paths      []string
	ReposRoot  string
	MountPoint string
	Mounted    bool
}

// SessionService owns the session-wide operations that go beyond one
// package: status, restart, end and the storage volume.
type SessionService struct {
	tracker   *Tracker
	state     ports.StateRepository
	mounter   ports.Mounter
	lifecycle ports.Lifecycle
	reposRoot string
	log       zerolog.Logger
}

func NewSessionService(tracker *Tracker, state ports.StateRepository, mounter ports.Mounter, lifecycle ports.Lifecycle, reposRoot string, logger zerolog.Logger) *SessionService {
	return &SessionService{
		tracker:   tracker,
		state:     state,
		mounter:   mounter,
		lifecycle: lifecycle,
		reposRoot: reposRoot,
		log:       logger,
	}
}

func (s *SessionService) Status(ctx context.Context) (Status, error) {
	if err := s.tracker.Restore(ctx); err != nil {
		return Status{}, err
	}

	status := Status{
		Records:   s.tracker.Records(),
		Paths:     s.tracker.Paths(),
		ReposRoot: s.reposRoot,
	}
	if s.mounter != nil {
		status.MountPoint = s.mounter.MountPoint()
		status.Mounted = s.mounter.Mounted()
	}

	return status, nil
}

// Restart saves the session state, then restarts the process. The next
// process restores the records and path entries on first use.
func (s *SessionService) Restart(ctx context.Context) error {
	if err := s.tracker.Restore(ctx); err != nil {
		return err
	}
	if err := s.tracker.Save(ctx); err != nil {
		return err
	}

	return s.lifecycle.Restart(ctx)
}

// End removes the working copies, forgets the saved state, detaches the
// volume and terminates the session. Nothing is terminated when a cleanup
// step fails.
func (s *SessionService) End(ctx context.Context) error {
	var errs []error

	if s.reposRoot != "" {
		if err := os.RemoveAll(s.reposRoot); err != nil {
			errs = append(errs, fmt.Errorf("remove repositories: %w", err))
		}
	}
	if s.state != nil {
		if err := s.state.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear session state: %w", err))
		}
	}
	if s.mounter != nil {
		if err := s.mounter.Unmount(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("end session: %w", errors.Join(errs...))
	}

	s.log.Info().Str("repos_root", s.reposRoot).Msg("session cleaned up")
	return s.lifecycle.Terminate(ctx)
}

func (s *SessionService) Mount(ctx context.Context, force bool) error {
	if s.mounter == nil {
		return errors.New("no storage volume configured")
	}

	return s.mounter.Mount(ctx, force)
}

func (s *SessionService) Unmount(ctx context.Context) error {
	if s.mounter == nil {
		return nil
	}

	return s.mounter.Unmount(ctx)
}
