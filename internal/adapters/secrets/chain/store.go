package chain

import (
	"context"
	"errors"
	"fmt"

	passstore "github.com/bnema/nbassist/internal/adapters/secrets/pass"
	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
)

// Store asks each backend in order. Get and Put stop at the first backend
// that succeeds; Delete visits them all.
type Store struct {
	backends []ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNoBackends = errors.New("secret store chain has no backends")
	errNilBackend = errors.New("secret store backend is nil")
)

func NewStore(backends ...ports.SecretStore) (*Store, error) {
	if len(backends) == 0 {
		return nil, errNoBackends
	}
	for i, backend := range backends {
		if backend == nil {
			return nil, fmt.Errorf("backend %d: %w", i, errNilBackend)
		}
	}

	return &Store{backends: backends}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for i, backend := range s.backends {
		value, err := backend.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if shouldStop(err) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("backend %d get failed: %w", i, err))
	}

	return "", combine(key, errs)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	var errs []error
	for i, backend := range s.backends {
		err := backend.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if shouldStop(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("backend %d put failed: %w", i, err))
	}

	return combine(key, errs)
}

// Delete removes key from every backend, so no stale copy keeps answering
// Get. Backends that never had the key are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	var errs []error
	deleted := false
	for i, backend := range s.backends {
		err := backend.Delete(ctx, key)
		if err == nil {
			deleted = true
			continue
		}
		if shouldStop(err) {
			return err
		}
		errs = append(errs, fmt.Errorf("backend %d delete failed: %w", i, err))
	}
	if len(errs) == 0 {
		return nil
	}

	err := combine(key, errs)
	if deleted && errors.Is(err, domain.ErrSecretNotFound) {
		return nil
	}

	return err
}

// combine reports a plain SecretNotFound when no backend failed for any other
// reason than not having the key or not being installed.
func combine(key string, errs []error) error {
	for _, err := range errs {
		if !errors.Is(err, domain.ErrSecretNotFound) && !errors.Is(err, passstore.ErrUnavailable) {
			return fmt.Errorf("secret %q: %w", key, errors.Join(errs...))
		}
	}

	return fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
}

func shouldStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
