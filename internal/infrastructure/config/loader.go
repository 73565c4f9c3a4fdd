// Package config loads optional installer overrides from YAML.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cloudenvhq/cloudenv-install/internal/domain"
	"github.com/cloudenvhq/cloudenv-install/internal/pkg/filesystem"
	"github.com/cloudenvhq/cloudenv-install/internal/ports"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "CLOUDENV_INSTALL_CONFIG"

// FileLoader loads YAML configuration from ~/.cloudenv/install.yaml
// (overridable via CLOUDENV_INSTALL_CONFIG). The file is optional and the
// loader never creates or modifies it: the installer persists no
// configuration of its own.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return domain.Config{}, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandTilde(custom)
	}
	return filepath.Join(filesystem.UserHomeDir(), ".cloudenv", "install.yaml")
}

func defaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Artifact: domain.Artifact{
			URL: domain.ArtifactURL,
		},
		Install: domain.Install{
			Prefix: domain.DefaultPrefix,
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Artifact.URL == "" {
		cfg.Artifact.URL = domain.ArtifactURL
	}
	if cfg.Install.Prefix == "" {
		cfg.Install.Prefix = domain.DefaultPrefix
	}
	if cfg.Install.Prefix != domain.DefaultPrefix {
		cfg.Install.Prefix = filesystem.ExpandTilde(cfg.Install.Prefix)
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
