package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/nbassist/internal/reload"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const contextKey = "nbassist.context"

// PathSource supplies the directories modules are imported from, front-most
// first. It is consulted on every import so newly cloned packages are seen
// without restarting the shell.
type PathSource interface {
	Paths() []string
}

type Options struct {
	Paths PathSource
	// Magics builds the %-commands the shell does not handle itself. It is
	// called once per magic line so flags never leak between runs.
	Magics func() []*cobra.Command
	Out    io.Writer
	Logger zerolog.Logger
}

// Shell is an interactive Starlark session: a persistent cell namespace plus
// a table of imported modules the reload engine can re-execute.
type Shell struct {
	paths  PathSource
	magics func() []*cobra.Command
	out    io.Writer
	log    zerolog.Logger
	engine *reload.Engine

	modules map[string]*reload.Module
	files   map[string]*reload.Module
	loading []string

	cell  starlark.StringDict
	cells int

	watcher *fsnotify.Watcher
}

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

func New(opts Options) *Shell {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	s := &Shell{
		paths:   opts.Paths,
		magics:  opts.Magics,
		out:     out,
		log:     opts.Logger,
		modules: map[string]*reload.Module{},
		files:   map[string]*reload.Module{},
	}
	s.engine = reload.NewEngine(s, opts.Logger)
	s.cell = s.builtins()

	return s
}

// Close stops autoreload.
func (s *Shell) Close() error {
	return s.stopAutoreload()
}

// Global returns a name bound in the cell namespace.
func (s *Shell) Global(name string) (starlark.Value, bool) {
	v, ok := s.cell[name]
	return v, ok
}

func (s *Shell) builtins() starlark.StringDict {
	return starlark.StringDict{
		"reload":        starlark.NewBuiltin("reload", s.reloadBuiltin),
		"import_module": starlark.NewBuiltin("import_module", s.importBuiltin),
	}
}

func (s *Shell) reloadBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var target starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &target); err != nil {
		return nil, err
	}

	result, err := s.engine.Reload(threadContext(thread), target)
	if err != nil {
		return nil, err
	}

	return result.Value, nil
}

func (s *Shell) importBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}

	return s.Import(threadContext(thread), name)
}

// newThread returns a thread bound to ctx: cancelling ctx interrupts the
// running Starlark code. The caller must call the returned stop function.
func (s *Shell) newThread(ctx context.Context, name string) (*starlark.Thread, func() bool) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(s.out, msg)
		},
		Load: s.load,
	}
	thread.SetLocal(contextKey, ctx)

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})

	return thread, stop
}

func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(contextKey).(context.Context); ok {
		return ctx
	}

	return context.Background()
}
