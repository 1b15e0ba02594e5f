package application

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/bnema/nbassist/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// fakeRunner plays git and the installer. Clones create their directory and
// remember the origin they were given, so later commands see a real tree.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []ports.Command
	origins map[string]string
	commit  string
	fail    func(cmd ports.Command) error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{origins: map[string]string{}, commit: "0123abcd"}
}

func (f *fakeRunner) Run(_ context.Context, cmd ports.Command) (ports.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)
	if f.fail != nil {
		if err := f.fail(cmd); err != nil {
			return ports.CommandResult{}, err
		}
	}
	if cmd.Name != "git" {
		return ports.CommandResult{}, nil
	}

	args := cmd.Args
	switch args[0] {
	case "clone":
		dir := args[len(args)-1]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ports.CommandResult{}, err
		}
		f.origins[dir] = args[len(args)-2]
	case "remote":
		switch args[1] {
		case "get-url":
			origin, ok := f.origins[cmd.Dir]
			if !ok {
				return ports.CommandResult{}, &domain.FetchError{
					Args:     append([]string{"git"}, args...),
					ExitCode: 2,
					Stderr:   "error: No such remote 'origin'\n",
				}
			}
			return ports.CommandResult{Stdout: origin + "\n"}, nil
		case "set-url":
			f.origins[cmd.Dir] = args[3]
		}
	case "rev-parse":
		switch args[1] {
		case "HEAD":
			return ports.CommandResult{Stdout: f.commit + "\n"}, nil
		case "--abbrev-ref":
			return ports.CommandResult{Stdout: "main\n"}, nil
		}
	case "symbolic-ref":
		return ports.CommandResult{Stdout: "origin/main\n"}, nil
	}

	return ports.CommandResult{}, nil
}

func (f *fakeRunner) Calls() []ports.Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]ports.Command(nil), f.calls...)
}

// gitVerbs lists the first argument of every git call, for order checks.
func (f *fakeRunner) gitVerbs() []string {
	var verbs []string
	for _, call := range f.Calls() {
		if call.Name == "git" {
			verbs = append(verbs, call.Args[0])
		}
	}

	return verbs
}

func (f *fakeRunner) installerCalls() []ports.Command {
	var calls []ports.Command
	for _, call := range f.Calls() {
		if call.Name == "uv" {
			calls = append(calls, call)
		}
	}

	return calls
}

type trackerFixture struct {
	tracker   *Tracker
	runner    *fakeRunner
	secrets   *mocks.MockSecretStore
	prompt    *mocks.MockSecretSource
	reposRoot string
}

func newTrackerFixture(t *testing.T, opts TrackerOptions) trackerFixture {
	t.Helper()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(testNow).Maybe()
	if opts.Clock == nil {
		opts.Clock = clock
	}
	opts.Logger = zerolog.Nop()

	runner := newFakeRunner()
	secrets := mocks.NewMockSecretStore(t)
	prompt := mocks.NewMockSecretSource(t)
	reposRoot := t.TempDir()

	locator := NewLocator(reposRoot, secrets, prompt, nil)
	executor := NewExecutor(runner, []string{"uv", "pip", "install", "--system"}, "git", zerolog.Nop())

	return trackerFixture{
		tracker:   NewTracker(locator, executor, opts),
		runner:    runner,
		secrets:   secrets,
		prompt:    prompt,
		reposRoot: reposRoot,
	}
}

func mockAnyContext() interface{} {
	return mock.Anything
}

func requireNoRuns(t *testing.T, runner *fakeRunner) {
	t.Helper()
	require.Empty(t, runner.Calls())
}
