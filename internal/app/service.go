// Package app wires configuration, registries, the installer and the host
// together. Each exported method backs one CLI command.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	"wmtheme/internal/audit"
	"wmtheme/internal/config"
	"wmtheme/internal/console"
	"wmtheme/internal/doctor"
	"wmtheme/internal/host"
	"wmtheme/internal/installer"
	"wmtheme/internal/logging"
	"wmtheme/internal/probe"
	"wmtheme/internal/registry"
	"wmtheme/internal/security"
	"wmtheme/internal/source"
	"wmtheme/internal/vcs"
)

// Host is the window manager the themes are applied to.
type Host interface {
	Version(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
}

// Prompter asks the user to confirm or pick.
type Prompter interface {
	YesNo(question string) (bool, error)
	Choose(question string, options []string) (int, error)
}

type Options struct {
	ConfigDir  string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Verbosity  int
	Prompter   Prompter
	Git        installer.Git
	Host       Host
}

type Service struct {
	Config    config.Config
	Sources   *source.Manager
	Installer *installer.Service
	Scanner   *security.Scanner
	Host      Host
	Prompter  Prompter
	Audit     *audit.Logger
	Logger    *slog.Logger

	lookPath func(string) (string, error)
	openURL  func(string) error

	hostVersion    string
	hostVersionErr error
	hostQueried    bool
}

func New(opts Options) (*Service, error) {
	cfg, err := config.Ensure(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger, err = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, opts.Verbosity)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("loaded configuration", "dir", cfg.Dir, "registries", len(cfg.Registries))

	git := opts.Git
	if git == nil {
		git = vcs.New()
	}
	hostSvc := opts.Host
	if hostSvc == nil {
		hostSvc = host.New(cfg.Host.StateCommand, cfg.Host.VersionPrefix, cfg.Host.ReloadCommand)
	}
	prompter := opts.Prompter
	if prompter == nil {
		prompter = console.Stdio()
	}
	auditLog := audit.New(config.AuditPath(cfg.Dir))
	return &Service{
		Config:    cfg,
		Sources:   source.NewManager(opts.HTTPClient, logger),
		Installer: &installer.Service{ThemesDir: cfg.ThemesDir(), Git: git, Audit: auditLog},
		Scanner:   security.NewScanner(),
		Host:      hostSvc,
		Prompter:  prompter,
		Audit:     auditLog,
		Logger:    logger,
		lookPath:  exec.LookPath,
		openURL:   xdgOpen,
	}, nil
}

func xdgOpen(url string) error {
	return exec.Command("xdg-open", url).Start()
}

func (s *Service) SaveConfig() error {
	return config.Save(s.Config)
}

// refresh re-reads the themes directory into every registry without
// touching the network.
func (s *Service) refresh() error {
	snap, err := probe.New(s.Config.ThemesDir()).Snapshot()
	if err != nil {
		return err
	}
	for i := range s.Config.Registries {
		registry.Annotate(&s.Config.Registries[i], snap)
	}
	if err := s.Config.SyncLocal(); err != nil {
		return err
	}
	s.Config.EnforceSingleCurrent()
	return nil
}

// Status reports the applied theme and any disagreement between the
// configuration and the themes directory.
func (s *Service) Status(ctx context.Context) doctor.Report {
	return (&doctor.Service{Config: s.Config, Host: s.Host, Audit: s.Audit}).Run(ctx)
}

// RegistryAdd registers a remote registry feed.
func (s *Service) RegistryAdd(name, url string) (registry.Registry, error) {
	if err := s.Config.AddRegistry(name, url); err != nil {
		return registry.Registry{}, err
	}
	if err := s.SaveConfig(); err != nil {
		return registry.Registry{}, err
	}
	reg, _ := s.Config.FindRegistry(name)
	return *reg, nil
}

func (s *Service) RegistryRemove(name string) error {
	if err := s.Config.RemoveRegistry(name); err != nil {
		return err
	}
	if err := s.Config.SyncLocal(); err != nil {
		return err
	}
	return s.SaveConfig()
}

func (s *Service) RegistryList() []registry.Registry {
	return append([]registry.Registry(nil), s.Config.Registries...)
}
