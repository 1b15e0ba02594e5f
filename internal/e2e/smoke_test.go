package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	env := smokeEnv(t, home)

	stdout, stderr, err := runNBA(t, binaryPath, env, "install", "polars>=1.0")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "polars: polars>=1.0 (install)")

	stdout, stderr, err = runNBA(t, binaryPath, env, "status")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "polars [install]")

	_, stderr, err = runNBA(t, binaryPath, env, "update", "missing")
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown package")
}

func TestSmokeShellReload(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	env := smokeEnv(t, home)

	modules := filepath.Join(home, "modules")
	require.NoError(t, os.MkdirAll(modules, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modules, "calc.star"), []byte("def answer():\n    return 41\n"), 0o644))
	env = append(env, "NBA_SHELL_PATH="+modules)

	script := filepath.Join(home, "session.star")
	require.NoError(t, os.WriteFile(script, []byte(`calc = import_module("calc")
answer = calc.answer
answer()
%autoreload
`), 0o644))

	stdout, stderr, err := runNBA(t, binaryPath, env, "shell", script)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "41")
	assert.Contains(t, stdout, "autoreload is off")
}

func smokeEnv(t *testing.T, home string) []string {
	t.Helper()

	installer := filepath.Join(home, "installer.sh")
	require.NoError(t, os.WriteFile(installer, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	return append(os.Environ(),
		"HOME="+home,
		"NBA_INSTALLER_COMMAND="+installer,
		"NBA_REPOS_ROOT="+filepath.Join(home, "repos"),
	)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "nba-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/nba")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build nba binary: %s", string(output))
	return binaryPath
}

func runNBA(t *testing.T, binaryPath string, env []string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = env

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
