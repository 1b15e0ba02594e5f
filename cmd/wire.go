package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/bnema/nbassist/internal/adapters/download"
	"github.com/bnema/nbassist/internal/adapters/lifecycle"
	"github.com/bnema/nbassist/internal/adapters/mount"
	"github.com/bnema/nbassist/internal/adapters/process"
	statusadapter "github.com/bnema/nbassist/internal/adapters/render/status"
	tomlrepo "github.com/bnema/nbassist/internal/adapters/repo/toml"
	chainstore "github.com/bnema/nbassist/internal/adapters/secrets/chain"
	envstore "github.com/bnema/nbassist/internal/adapters/secrets/env"
	filestore "github.com/bnema/nbassist/internal/adapters/secrets/file"
	passstore "github.com/bnema/nbassist/internal/adapters/secrets/pass"
	promptstore "github.com/bnema/nbassist/internal/adapters/secrets/prompt"
	"github.com/bnema/nbassist/internal/application"
	"github.com/bnema/nbassist/internal/config"
	"github.com/bnema/nbassist/internal/ports"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	cfg            config.Config
	tracker        *application.Tracker
	session        *application.SessionService
	secrets        *application.SecretService
	prompt         ports.SecretSource
	downloader     *download.Downloader
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	log            zerolog.Logger
	now            func() time.Time
}

func wireApp() (*app, error) {
	v := viper.New()
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	runner := process.NewRunner(logger)

	env := envstore.NewStore(envstore.DefaultPrefix)
	pass := passstore.NewStore(cfg.PassPrefix)
	file := filestore.NewStore(cfg.SecretsDir)
	// writes skip the environment, which ends with the process
	secrets, err := chainstore.NewStore(env, pass, file)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}
	persistent, err := chainstore.NewStore(pass, file)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}
	prompt := promptstore.NewStore(os.Stdin, os.Stderr)

	var mounter ports.Mounter
	if cfg.MountPoint != "" {
		mounter = mount.NewMounter(runner, mount.Options{
			Point:          cfg.MountPoint,
			MountCommand:   cfg.MountCommand,
			UnmountCommand: cfg.UnmountCommand,
		}, logger)
	}

	repo, err := tomlrepo.NewRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire state repository: %w", err)
	}

	locator := application.NewLocator(cfg.ReposRoot, secrets, prompt, mounter)
	executor := application.NewExecutor(runner, cfg.Installer, cfg.Git, logger)
	tracker := application.NewTracker(locator, executor, application.TrackerOptions{
		State:    repo,
		BasePath: cfg.ShellPath,
		Logger:   logger,
	})

	return &app{
		cfg:     cfg,
		tracker: tracker,
		session: application.NewSessionService(tracker, repo, mounter, lifecycle.NewProcess(logger), cfg.ReposRoot, logger),
		secrets: application.NewSecretService(persistent, secrets, map[string]ports.SecretStore{
			"env":  env,
			"pass": pass,
			"file": file,
		}, logger),
		prompt:         prompt,
		downloader:     download.NewDownloader(http.DefaultClient, logger),
		statusRenderer: statusadapter.Render,
		log:            logger,
		now:            time.Now,
	}, nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}).Level(level).With().Timestamp().Logger()
}

func isTerminal(w any) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
