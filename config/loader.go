package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// ProjectConfigFile is looked up from the working directory upwards.
	ProjectConfigFile = "semgraph.yaml"
	// UserConfigDir and UserConfigFile locate the per-user layer under $HOME.
	UserConfigDir  = ".config/semgraph"
	UserConfigFile = "config.yaml"
)

// Loader assembles a Config from defaults, the user file and the project file.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load is LoadWith with project file discovery.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWith("")
}

// LoadWith layers, lowest first: DefaultConfig, the user file, then
// projectFile (or the nearest semgraph.yaml when projectFile is empty). Each
// layer only overrides the keys it sets. A broken user file is logged and
// skipped; a broken project file fails the load. An unset repo path resolves
// to the enclosing git root, else the working directory.
func (l *Loader) LoadWith(projectFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		switch err := cfg.mergeFile(path); {
		case err == nil:
			l.logger.Debug("Merged user config", slog.String("path", path))
		case !errors.Is(err, fs.ErrNotExist):
			l.logger.Warn("Skipping unreadable user config", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	if projectFile == "" {
		projectFile = l.findProjectConfig()
	}
	if projectFile == "" {
		l.logger.Debug("No project config")
	} else {
		if err := cfg.mergeFile(projectFile); err != nil {
			return nil, fmt.Errorf("project config %s: %w", projectFile, err)
		}
		l.logger.Debug("Merged project config", slog.String("path", projectFile))
	}

	if cfg.Repo.Path == "" {
		cfg.Repo.Path = l.defaultRepoPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureUserConfig writes DefaultConfig to the user file unless one exists.
func (l *Loader) EnsureUserConfig() error {
	path := l.userConfigPath()
	if path == "" {
		return errors.New("cannot resolve home directory")
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := DefaultConfig().SaveToFile(path); err != nil {
		return err
	}
	l.logger.Info("Wrote default user config", slog.String("path", path))
	return nil
}

func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (l *Loader) defaultRepoPath() string {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if root := strings.TrimSpace(string(out)); err == nil && root != "" {
		l.logger.Debug("Repo path from git", slog.String("path", root))
		return root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	l.logger.Debug("Repo path from working directory", slog.String("path", cwd))
	return cwd
}
