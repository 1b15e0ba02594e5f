package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutUsesPassInsertUnderPrefix(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		prefix: "nbassist",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", "nbassist/gh-token"}, args)
			assert.Equal(t, "ghp_abc\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), "gh-token", "ghp_abc"))
	assert.True(t, called)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		prefix: "nbassist",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "nbassist/gh-token"}, args)
			assert.Empty(t, input)
			return "ghp_abc\nuser: me\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "gh-token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", value)
}

func TestStoreDeleteUsesPassRemove(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", "gh-token"}, args)
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), "gh-token"))
}

func TestStoreGetMapsMissingEntryToSecretNotFound(t *testing.T) {
	t.Parallel()

	store := &Store{
		prefix: "nbassist",
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: nbassist/gh-token is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "gh-token")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "pass get")
}

func TestStoreGetKeepsOtherFailuresVerbatim(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed: No secret key", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), "gh-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "gpg: decryption failed: No secret key")
}
