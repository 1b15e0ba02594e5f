package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
)

const DefaultPrefix = "NBA_SECRET_"

// Store maps secret keys onto environment variables, which is how notebook
// hosts usually expose user secrets to a runtime.
type Store struct {
	prefix string
	lookup func(string) (string, bool)
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore(prefix string) *Store {
	return &Store{prefix: prefix, lookup: os.LookupEnv}
}

// Variable returns the environment variable that holds key:
// "gh-token" becomes NBA_SECRET_GH_TOKEN.
func (s *Store) Variable(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("secret key is empty")
	}

	var b strings.Builder
	b.WriteString(s.prefix)
	for _, r := range strings.ToUpper(trimmed) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	return b.String(), nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, err := s.Variable(key)
	if err != nil {
		return "", err
	}

	value, ok := s.lookup(name)
	if !ok || value == "" {
		return "", fmt.Errorf("environment variable %s: %w", name, domain.ErrSecretNotFound)
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := s.Variable(key)
	if err != nil {
		return err
	}
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := s.Variable(key)
	if err != nil {
		return err
	}
	if err := os.Unsetenv(name); err != nil {
		return fmt.Errorf("unset %s: %w", name, err)
	}

	return nil
}
