package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaultsNotebookLayout(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v, "/home/me", func(path string) bool { return path == "/content" })

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.Equal(t, "/content/repos", cfg.ReposRoot)
	assert.Equal(t, "/content/drive", cfg.MountPoint)
	assert.Equal(t, "/home/me/.nbassist/state.toml", cfg.StatePath)
	assert.Equal(t, []string{"uv", "pip", "install", "--system"}, cfg.Installer)
	assert.Equal(t, "git", cfg.Git)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
}

func TestSetDefaultsHomeLayout(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v, "/home/me", func(string) bool { return false })

	cfg, err := decode(v)
	require.NoError(t, err)
	assert.Equal(t, "/home/me/.nbassist/repos", cfg.ReposRoot)
	assert.Empty(t, cfg.MountPoint)
	assert.Equal(t, "/home/me/.nbassist/secrets", cfg.SecretsDir)
}

func TestLoadReadsConfigFileAndEnvironment(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("NBA_LOG_LEVEL", "debug")

	require.NoError(t, os.MkdirAll(filepath.Join(homeDir, ".nbassist"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(homeDir, ".nbassist", "config.toml"), []byte(`
[repos]
root = "/srv/repos"

[installer]
command = "pip install"

[shell]
path = ["/srv/lib", "/srv/extra"]
`), 0o600))

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/srv/repos", cfg.ReposRoot)
	assert.Equal(t, []string{"pip", "install"}, cfg.Installer)
	assert.Equal(t, []string{"/srv/lib", "/srv/extra"}, cfg.ShellPath)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New())
	require.NoError(t, err)
}

func TestDecodeRejectsBadValues(t *testing.T) {
	t.Parallel()

	v := viper.New()
	SetDefaults(v, "/home/me", func(string) bool { return false })
	v.Set(KeyLogLevel, "loud")
	_, err := decode(v)
	require.ErrorContains(t, err, "invalid log.level")

	v = viper.New()
	SetDefaults(v, "/home/me", func(string) bool { return false })
	v.Set(KeyInstallerCommand, "  ")
	_, err = decode(v)
	require.ErrorContains(t, err, "installer.command is empty")
}
