package reload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/nbassist/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

type testHost struct {
	modules map[string]*Module
	execs   int
}

func newTestHost() *testHost {
	return &testHost{modules: map[string]*Module{}}
}

func (h *testHost) ModuleForFile(file string) (*Module, bool) {
	m, ok := h.modules[filepath.Clean(file)]
	return m, ok
}

func (h *testHost) ExecModule(_ context.Context, name string, file string, src []byte) (starlark.StringDict, error) {
	h.execs++
	thread := &starlark.Thread{Name: name}
	predeclared := starlark.StringDict{
		"__name__": starlark.String(name),
		"__file__": starlark.String(file),
	}

	return starlark.ExecFileOptions(&syntax.FileOptions{}, thread, file, src, predeclared)
}

func (h *testHost) importFile(t *testing.T, name string, file string) *Module {
	t.Helper()

	src, err := os.ReadFile(file)
	require.NoError(t, err)
	globals, err := h.ExecModule(context.Background(), name, file, src)
	require.NoError(t, err)

	m := NewModule(name, file, globals, src)
	h.modules[m.File()] = m
	return m
}

func writeSource(t *testing.T, file string, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(file, []byte(src), 0o644))
}

func call(t *testing.T, fn starlark.Value) starlark.Value {
	t.Helper()

	v, err := starlark.Call(&starlark.Thread{Name: "test"}, fn, nil, nil)
	require.NoError(t, err)
	return v
}

type fixture struct {
	host   *testHost
	engine *Engine
	fileA  string
	fileB  string
	modA   *Module
	modB   *Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		host:  newTestHost(),
		fileA: filepath.Join(dir, "mod_a.star"),
		fileB: filepath.Join(dir, "mod_b.star"),
	}
	writeSource(t, f.fileA, "def f():\n    return 1\n\nlimit = 10\n")
	writeSource(t, f.fileB, "def g():\n    return \"b\"\n")

	f.modA = f.host.importFile(t, "mod_a", f.fileA)
	f.modB = f.host.importFile(t, "mod_b", f.fileB)
	f.engine = NewEngine(f.host, zerolog.Nop())
	return f
}

func TestReloadReturnsNewDefinitionOfEditedFunction(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	oldF := f.modA.Globals()["f"]
	bGlobals := f.modB.Globals()
	oldG := bGlobals["g"]

	writeSource(t, f.fileA, "def f():\n    return 2\n\nlimit = 10\n")

	result, err := f.engine.Reload(context.Background(), oldF)
	require.NoError(t, err)

	assert.Equal(t, starlark.MakeInt(2), call(t, result.Value))
	assert.Same(t, f.modA, result.Module)
	assert.Equal(t, starlark.MakeInt(1), call(t, oldF), "held references keep the old behavior")

	attr, err := f.modA.Attr("f")
	require.NoError(t, err)
	assert.Equal(t, starlark.MakeInt(2), call(t, attr), "module holders observe the update")

	assert.Same(t, oldG.(*starlark.Function), f.modB.Globals()["g"].(*starlark.Function))
	assert.Equal(t, 2+1, f.host.execs, "only the defining module re-executes")

	assert.Contains(t, result.Diff, "-    return 1")
	assert.Contains(t, result.Diff, "+    return 2")
}

func TestReloadModuleReplacesNamespaceInPlace(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	writeSource(t, f.fileA, "def f():\n    return 3\n\ndef extra():\n    return \"x\"\n")

	result, err := f.engine.Reload(context.Background(), f.modA)
	require.NoError(t, err)

	assert.Same(t, f.modA, result.Value)
	assert.Equal(t, []string{"extra", "f"}, f.modA.AttrNames())

	limit, err := f.modA.Attr("limit")
	require.NoError(t, err)
	assert.Nil(t, limit, "names dropped from the source are not carried over")
}

func TestReloadFailsWhenTargetNameDisappears(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	oldF := f.modA.Globals()["f"]
	writeSource(t, f.fileA, "def renamed():\n    return 1\n")

	_, err := f.engine.Reload(context.Background(), oldF)
	require.ErrorIs(t, err, domain.ErrReloadTargetMissing)

	assert.Same(t, oldF.(*starlark.Function), f.modA.Globals()["f"].(*starlark.Function))
	assert.Equal(t, "def f():\n    return 1\n\nlimit = 10\n", string(f.modA.Source()))
}

func TestReloadLeavesModuleUntouchedWhenExecutionFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	before := f.modA.Globals()
	writeSource(t, f.fileA, "def f(:\n")

	_, err := f.engine.Reload(context.Background(), f.modA)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotReloadable)

	writeSource(t, f.fileA, "def f():\n    return 1 // 0\n\nboom = f()\n")
	_, err = f.engine.Reload(context.Background(), before["f"])
	require.Error(t, err)

	assert.Equal(t, before, f.modA.Globals())
}

func TestReloadRejectsValuesWithoutBackingModule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cell, err := starlark.ExecFileOptions(&syntax.FileOptions{}, &starlark.Thread{}, "<cell 1>", "def h():\n    return 0\nanon = lambda: 1\n", nil)
	require.NoError(t, err)
	lambdaInModule, err := starlark.ExecFileOptions(&syntax.FileOptions{}, &starlark.Thread{}, f.fileA, "anon = lambda: 1\n", nil)
	require.NoError(t, err)

	cases := map[string]starlark.Value{
		"int":           starlark.MakeInt(1),
		"string":        starlark.String("mod_a"),
		"builtin":       starlark.Universe["len"],
		"cell function": cell["h"],
		"lambda":        lambdaInModule["anon"],
		"none":          nil,
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.Reload(context.Background(), value)
			require.ErrorIs(t, err, domain.ErrNotReloadable)
		})
	}
	assert.Equal(t, 2, f.host.execs)
}

func TestReloadRejectsModuleWhoseFileIsGone(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.Remove(f.fileB))

	_, err := f.engine.Reload(context.Background(), f.modB.Globals()["g"])
	require.ErrorIs(t, err, domain.ErrNotReloadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReloadOfUnchangedSourceHasEmptyDiff(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	result, err := f.engine.Reload(context.Background(), f.modB)
	require.NoError(t, err)
	assert.Empty(t, result.Diff)
}
