package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/nbassist/internal/domain"
	portmocks "github.com/bnema/nbassist/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreGetUsesFirstBackendThatAnswers(t *testing.T) {
	t.Parallel()

	env := portmocks.NewMockSecretStore(t)
	pass := portmocks.NewMockSecretStore(t)
	file := portmocks.NewMockSecretStore(t)
	store, err := NewStore(env, pass, file)
	require.NoError(t, err)

	env.EXPECT().Get(mock.Anything, "gh-token").Return("", domain.ErrSecretNotFound).Once()
	pass.EXPECT().Get(mock.Anything, "gh-token").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "gh-token")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetReportsSecretNotFoundWhenNoBackendHasIt(t *testing.T) {
	t.Parallel()

	env := portmocks.NewMockSecretStore(t)
	file := portmocks.NewMockSecretStore(t)
	store, err := NewStore(env, file)
	require.NoError(t, err)

	env.EXPECT().Get(mock.Anything, "gh-token").Return("", domain.ErrSecretNotFound).Once()
	file.EXPECT().Get(mock.Anything, "gh-token").Return("", domain.ErrSecretNotFound).Once()

	_, err = store.Get(context.Background(), "gh-token")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetCombinesUnexpectedFailures(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Get(mock.Anything, "gh-token").Return("", errors.New("gpg failed")).Once()
	fallback.EXPECT().Get(mock.Anything, "gh-token").Return("", domain.ErrSecretNotFound).Once()

	_, err = store.Get(context.Background(), "gh-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNoBackends)
	assert.ErrorContains(t, err, "backend 0 get failed")
	assert.ErrorContains(t, err, "gpg failed")
	assert.ErrorContains(t, err, "backend 1 get failed")
}

func TestStorePutStopsAtFirstSuccess(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Put(mock.Anything, "gh-token", "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), "gh-token", "secret"))
}

func TestStoreDeleteRemovesFromEveryBackend(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Delete(mock.Anything, "gh-token").Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, "gh-token").Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), "gh-token"))
}

func TestStoreDeleteIgnoresBackendsWithoutTheKey(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Delete(mock.Anything, "gh-token").Return(domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Delete(mock.Anything, "gh-token").Return(nil).Once()
	require.NoError(t, store.Delete(context.Background(), "gh-token"))

	primary.EXPECT().Delete(mock.Anything, "other").Return(domain.ErrSecretNotFound).Once()
	fallback.EXPECT().Delete(mock.Anything, "other").Return(domain.ErrSecretNotFound).Once()
	require.ErrorIs(t, store.Delete(context.Background(), "other"), domain.ErrSecretNotFound)
}

func TestStoreDeleteReportsUnexpectedFailure(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Delete(mock.Anything, "gh-token").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "gh-token").Return(nil).Once()

	err = store.Delete(context.Background(), "gh-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "pass failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContext(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.EXPECT().Get(mock.Anything, "gh-token").Return("", context.Canceled).Once()

	_, err = store.Get(context.Background(), "gh-token")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreRejectsMissingBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	require.ErrorIs(t, err, errNoBackends)

	_, err = NewStore(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilBackend)
}
