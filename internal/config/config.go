package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".nbassist"
	envPrefix  = "NBA"

	notebookRoot = "/content"
)

const (
	KeyReposRoot        = "repos.root"
	KeyStatePath        = "state.path"
	KeyInstallerCommand = "installer.command"
	KeyGitCommand       = "git.command"
	KeyMountPoint       = "mount.point"
	KeyMountCommand     = "mount.command"
	KeyUnmountCommand   = "unmount.command"
	KeySecretsDir       = "secrets.dir"
	KeyPassPrefix       = "secrets.pass_prefix"
	KeyLogLevel         = "log.level"
	KeyShellPath        = "shell.path"
)

type Config struct {
	ReposRoot      string
	StatePath      string
	Installer      []string
	Git            string
	MountPoint     string
	MountCommand   string
	UnmountCommand string
	SecretsDir     string
	PassPrefix     string
	LogLevel       zerolog.Level
	ShellPath      []string
}

// Load reads ~/.nbassist/config.toml (or the file already set on v) with NBA_
// environment overrides: NBA_REPOS_ROOT overrides repos.root.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v, homeDir, dirExists)

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return decode(v)
}

// SetDefaults lays the session out like a hosted notebook when its /content
// directory exists, and under the home directory otherwise.
func SetDefaults(v *viper.Viper, homeDir string, exists func(string) bool) {
	base := filepath.Join(homeDir, configDir)

	reposRoot := filepath.Join(base, "repos")
	mountPoint := ""
	if exists(notebookRoot) {
		reposRoot = filepath.Join(notebookRoot, "repos")
		mountPoint = filepath.Join(notebookRoot, "drive")
	}

	v.SetDefault(KeyReposRoot, reposRoot)
	v.SetDefault(KeyStatePath, filepath.Join(base, "state.toml"))
	v.SetDefault(KeyInstallerCommand, "uv pip install --system")
	v.SetDefault(KeyGitCommand, "git")
	v.SetDefault(KeyMountPoint, mountPoint)
	v.SetDefault(KeyMountCommand, "")
	v.SetDefault(KeyUnmountCommand, "fusermount -u")
	v.SetDefault(KeySecretsDir, filepath.Join(base, "secrets"))
	v.SetDefault(KeyPassPrefix, "nbassist")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyShellPath, []string{})
}

func decode(v *viper.Viper) (Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	installer := strings.Fields(v.GetString(KeyInstallerCommand))
	if len(installer) == 0 {
		return Config{}, fmt.Errorf("%s is empty", KeyInstallerCommand)
	}

	git := strings.TrimSpace(v.GetString(KeyGitCommand))
	if git == "" {
		return Config{}, fmt.Errorf("%s is empty", KeyGitCommand)
	}

	reposRoot, err := absPath(v.GetString(KeyReposRoot))
	if err != nil {
		return Config{}, fmt.Errorf("resolve %s: %w", KeyReposRoot, err)
	}

	return Config{
		ReposRoot:      reposRoot,
		StatePath:      v.GetString(KeyStatePath),
		Installer:      installer,
		Git:            git,
		MountPoint:     v.GetString(KeyMountPoint),
		MountCommand:   v.GetString(KeyMountCommand),
		UnmountCommand: v.GetString(KeyUnmountCommand),
		SecretsDir:     v.GetString(KeySecretsDir),
		PassPrefix:     v.GetString(KeyPassPrefix),
		LogLevel:       level,
		ShellPath:      v.GetStringSlice(KeyShellPath),
	}, nil
}

func absPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return filepath.Clean(abs), nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
