package ports

import "context"

// Credential asks the runner to authenticate the argument equal to URL by
// putting Token in its userinfo for this one invocation.
type Credential struct {
	URL   string
	Token string
}

type Command struct {
	Name       string
	Args       []string
	Dir        string
	Credential *Credential
}

type CommandResult struct {
	Stdout string
	Stderr string
}

// Runner blocks until the command exits. A non-zero exit is reported as a
// *domain.FetchError.
type Runner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}
