package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessRestartExecsSelfWithSameArgs(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotArgs []string
	p := &Process{
		exec: func(argv0 string, argv []string, _ []string) error {
			gotPath = argv0
			gotArgs = argv
			return nil
		},
		executable: func() (string, error) { return "/usr/local/bin/nba", nil },
		args:       []string{"nba", "shell"},
		log:        zerolog.Nop(),
	}

	require.NoError(t, p.Restart(context.Background()))
	assert.Equal(t, "/usr/local/bin/nba", gotPath)
	assert.Equal(t, []string{"nba", "shell"}, gotArgs)
}

func TestProcessRestartReportsExecFailure(t *testing.T) {
	t.Parallel()

	p := &Process{
		exec:       func(string, []string, []string) error { return errors.New("permission denied") },
		executable: func() (string, error) { return "/nba", nil },
		log:        zerolog.Nop(),
	}

	err := p.Restart(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "restart session: permission denied")
}

func TestProcessTerminateExitsZero(t *testing.T) {
	t.Parallel()

	code := -1
	p := &Process{exit: func(c int) { code = c }, log: zerolog.Nop()}

	require.NoError(t, p.Terminate(context.Background()))
	assert.Equal(t, 0, code)
}

func TestProcessHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Process{exit: func(int) { t.Fatal("exit must not run") }, log: zerolog.Nop()}
	require.ErrorIs(t, p.Terminate(ctx), context.Canceled)
	require.ErrorIs(t, p.Restart(ctx), context.Canceled)
}
