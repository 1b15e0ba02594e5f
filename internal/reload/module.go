package reload

import (
	"fmt"
	"path/filepath"
	"sort"

	"go.starlark.net/starlark"
)

// Module is an imported source file as the session sees it. Every holder of
// the same *Module observes a reload, because the namespace is swapped in
// place.
type Module struct {
	name    string
	file    string
	globals starlark.StringDict
	source  []byte
}

var (
	_ starlark.Value    = (*Module)(nil)
	_ starlark.HasAttrs = (*Module)(nil)
)

func NewModule(name string, file string, globals starlark.StringDict, source []byte) *Module {
	return &Module{
		name:    name,
		file:    filepath.Clean(file),
		globals: globals,
		source:  append([]byte(nil), source...),
	}
}

func (m *Module) Name() string { return m.name }
func (m *Module) File() string { return m.file }

// Globals returns the live namespace. Callers must not modify it.
func (m *Module) Globals() starlark.StringDict { return m.globals }

func (m *Module) Source() []byte { return m.source }

func (m *Module) replace(globals starlark.StringDict, source []byte) {
	m.globals = globals
	m.source = append([]byte(nil), source...)
}

func (m *Module) String() string        { return fmt.Sprintf("<module %q from %q>", m.name, m.file) }
func (m *Module) Type() string          { return "module" }
func (m *Module) Truth() starlark.Bool  { return starlark.True }
func (m *Module) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: module") }

func (m *Module) Freeze() {
	m.globals.Freeze()
}

func (m *Module) Attr(name string) (starlark.Value, error) {
	if v, ok := m.globals[name]; ok {
		return v, nil
	}

	return nil, nil
}

func (m *Module) AttrNames() []string {
	names := make([]string, 0, len(m.globals))
	for name := range m.globals {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
