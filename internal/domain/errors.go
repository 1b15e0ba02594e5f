package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrResolution          = errors.New("cannot resolve package reference")
	ErrFetchFailure        = errors.New("fetch failed")
	ErrUnknownPackage      = errors.New("unknown package")
	ErrSecretNotFound      = errors.New("secret not found")
	ErrReloadTargetMissing = errors.New("reload target missing from re-executed source")
	ErrNotReloadable       = errors.New("object is not reloadable")
	ErrRemoteMismatch      = errors.New("clone directory tracks a different remote")
	ErrNotMounted          = errors.New("storage volume is not mounted")
)

// FetchError reports a subprocess that exited non-zero. Args never contain
// credentials; Stderr is the process output as written, minus any token.
type FetchError struct {
	Args     []string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", strings.Join(e.Args, " "), e.Err)
	}
	if e.Stderr == "" {
		return msg
	}

	return msg + ":\n" + strings.TrimRight(e.Stderr, "\n")
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailure}
	}

	return []error{ErrFetchFailure, e.Err}
}
