package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bnema/nbassist/internal/reload"
	"go.starlark.net/starlark"
)

const sourceExt = ".star"

var (
	ErrModuleNotFound = errors.New("module not found on the session path")
	ErrImportCycle    = errors.New("import cycle")
	errModuleName     = errors.New("invalid module name")
)

var _ reload.Host = (*Shell)(nil)

// Import returns the module called name ("pkg.mod" for pkg/mod.star),
// executing it on first use. Later imports return the same module.
func (s *Shell) Import(ctx context.Context, name string) (*reload.Module, error) {
	if err := validateModuleName(name); err != nil {
		return nil, err
	}
	if m, ok := s.modules[name]; ok {
		return m, nil
	}
	if slices.Contains(s.loading, name) {
		return nil, fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(append(slices.Clone(s.loading), name), " -> "))
	}

	file, err := s.find(name)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	s.loading = append(s.loading, name)
	globals, err := s.ExecModule(ctx, name, file, src)
	s.loading = s.loading[:len(s.loading)-1]
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", name, err)
	}

	m := reload.NewModule(name, file, globals, src)
	s.modules[name] = m
	s.files[m.File()] = m
	s.watchModule(m)

	s.log.Debug().Str("module", name).Str("file", file).Msg("module imported")
	return m, nil
}

// Module returns an already imported module.
func (s *Shell) Module(name string) (*reload.Module, bool) {
	m, ok := s.modules[name]
	return m, ok
}

func (s *Shell) ModuleForFile(file string) (*reload.Module, bool) {
	m, ok := s.files[filepath.Clean(file)]
	return m, ok
}

// ExecModule runs a module body with only its identity and the shell
// builtins predeclared.
func (s *Shell) ExecModule(ctx context.Context, name string, file string, src []byte) (starlark.StringDict, error) {
	thread, stop := s.newThread(ctx, name)
	defer stop()

	predeclared := s.builtins()
	predeclared["__name__"] = starlark.String(name)
	predeclared["__file__"] = starlark.String(file)

	return starlark.ExecFileOptions(fileOptions, thread, file, src, predeclared)
}

// load serves load() statements. Both "pkg/mod.star" and "pkg.mod" name the
// same module.
func (s *Shell) load(thread *starlark.Thread, module string) (starlark.StringDict, error) {
	name := module
	if strings.HasSuffix(module, sourceExt) {
		name = strings.ReplaceAll(strings.TrimSuffix(filepath.ToSlash(module), sourceExt), "/", ".")
	}

	m, err := s.Import(threadContext(thread), name)
	if err != nil {
		return nil, err
	}

	return m.Globals(), nil
}

func (s *Shell) find(name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/")) + sourceExt

	var dirs []string
	if s.paths != nil {
		dirs = s.paths.Paths()
	}
	for _, dir := range dirs {
		file := filepath.Join(dir, rel)
		info, err := os.Stat(file)
		if err == nil && info.Mode().IsRegular() {
			abs, err := filepath.Abs(file)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("import %s: %w", name, err)
		}
	}

	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

func validateModuleName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", errModuleName)
	}

	for _, part := range strings.Split(name, ".") {
		if !isIdentifier(part) {
			return fmt.Errorf("%w: %q", errModuleName, name)
		}
	}

	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}
