package reload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
)

// Host is the interactive session whose modules the engine reloads.
type Host interface {
	// ModuleForFile returns the imported module whose source is file.
	ModuleForFile(file string) (*Module, bool)
	// ExecModule runs src as module name in a namespace holding only the
	// module identity and the session builtins. It does not register
	// anything.
	ExecModule(ctx context.Context, name string, file string, src []byte) (starlark.StringDict, error)
}

type Result struct {
	// Value is what the caller should rebind: the new definition of a
	// function, or the module itself.
	Value  starlark.Value
	Module *Module
	Diff   string
}

// Engine re-executes the file behind a live value. It keeps no state
// between calls.
type Engine struct {
	host     Host
	readFile func(string) ([]byte, error)
	log      zerolog.Logger
}

func NewEngine(host Host, logger zerolog.Logger) *Engine {
	return &Engine{host: host, readFile: os.ReadFile, log: logger}
}

// Reload re-executes the module defining v and returns v's new definition.
// On any error the module namespace is left as it was.
func (e *Engine) Reload(ctx context.Context, v starlark.Value) (Result, error) {
	module, name, err := e.target(v)
	if err != nil {
		return Result{}, err
	}

	src, err := e.readFile(module.File())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s: %w", domain.ErrNotReloadable, module.Name(), err)
		}
		return Result{}, fmt.Errorf("read %s: %w", module.File(), err)
	}

	globals, err := e.host.ExecModule(ctx, module.Name(), module.File(), src)
	if err != nil {
		return Result{}, fmt.Errorf("re-execute %s: %w", module.Name(), err)
	}

	var value starlark.Value = module
	if name != "" {
		found, ok := globals[name]
		if !ok {
			return Result{}, fmt.Errorf("%w: %s no longer defines %q", domain.ErrReloadTargetMissing, module.Name(), name)
		}
		value = found
	}

	diff := Diff(module.File(), string(module.Source()), string(src))
	module.replace(globals, src)

	e.log.Debug().Str("module", module.Name()).Str("target", name).Bool("changed", diff != "").Msg("module reloaded")
	return Result{Value: value, Module: module, Diff: diff}, nil
}

// target finds the module behind v and the name v is bound to in it. The
// name is empty when v is the module itself.
func (e *Engine) target(v starlark.Value) (*Module, string, error) {
	switch v := v.(type) {
	case *Module:
		return v, "", nil
	case *starlark.Function:
		if v.Name() == "lambda" {
			return nil, "", fmt.Errorf("%w: anonymous function %s", domain.ErrNotReloadable, v.Position())
		}
		file := v.Position().Filename()
		module, ok := e.host.ModuleForFile(file)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s is defined in %s, which is not an imported module", domain.ErrNotReloadable, v.Name(), file)
		}
		return module, v.Name(), nil
	case nil:
		return nil, "", fmt.Errorf("%w: no value", domain.ErrNotReloadable)
	default:
		return nil, "", fmt.Errorf("%w: %s value has no backing file", domain.ErrNotReloadable, v.Type())
	}
}
