package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/rs/zerolog"
)

var errEmptySecret = errors.New("secret value is empty")

// SecretService keeps the tokens that "$name@" references resolve to.
type SecretService struct {
	persist  ports.SecretStore
	all      ports.SecretStore
	backends map[string]ports.SecretStore
	log      zerolog.Logger
}

// NewSecretService writes through persist and removes through all unless a
// named backend is asked for.
func NewSecretService(persist ports.SecretStore, all ports.SecretStore, backends map[string]ports.SecretStore, logger zerolog.Logger) *SecretService {
	return &SecretService{persist: persist, all: all, backends: backends, log: logger}
}

// Backends lists the names Set and Remove accept.
func (s *SecretService) Backends() []string {
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (s *SecretService) Set(ctx context.Context, key string, value string, backend string) error {
	key, err := secretKey(key)
	if err != nil {
		return err
	}
	if value == "" {
		return errEmptySecret
	}

	store, err := s.store(backend, s.persist)
	if err != nil {
		return err
	}
	if err := store.Put(ctx, key, value); err != nil {
		return fmt.Errorf("store secret %q: %w", key, err)
	}

	s.log.Info().Str("secret", key).Str("backend", backend).Msg("secret stored")
	return nil
}

// Remove deletes key from backend, or from every backend when none is named.
func (s *SecretService) Remove(ctx context.Context, key string, backend string) error {
	key, err := secretKey(key)
	if err != nil {
		return err
	}

	store, err := s.store(backend, s.all)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove secret %q: %w", key, err)
	}

	s.log.Info().Str("secret", key).Str("backend", backend).Msg("secret removed")
	return nil
}

func (s *SecretService) store(backend string, fallback ports.SecretStore) (ports.SecretStore, error) {
	if backend == "" {
		return fallback, nil
	}

	store, ok := s.backends[backend]
	if !ok {
		return nil, fmt.Errorf("unknown secret backend %q (want one of %s)", backend, strings.Join(s.Backends(), ", "))
	}

	return store, nil
}

// secretKey accepts what may follow "$" in a reference.
func secretKey(key string) (string, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(key), domain.PromptSecretRef)
	if trimmed == "" {
		return "", fmt.Errorf("%w: secret name is empty", domain.ErrResolution)
	}
	if strings.ContainsAny(trimmed, "@/ \t") {
		return "", fmt.Errorf("%w: invalid secret name %q", domain.ErrResolution, key)
	}

	return trimmed, nil
}
