package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type GitHubConfig struct {
	Token         string `env:"GITHUB_TOKEN"`
	APIBaseURL    string `env:"GITHUB_API_BASE_URL" envDefault:"https://api.github.com"`
	Owner         string `env:"GITHUB_OWNER"`
	ProjectNumber string `env:"GITHUB_PROJECT_NUMBER"`
}

type Config struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8443"`

	RepoDir      string `env:"REPO_DIR"`
	TrackingFile string `env:"TRACKING_FILE" envDefault:"TODO.md"`

	// WorkFolderPatterns are doublestar globs cleaned by the merge
	// workflow when cleanup is requested. Relative to RepoDir.
	WorkFolderPatterns []string `env:"WORK_FOLDER_PATTERNS" envSeparator:"," envDefault:"work/**"`

	DatabasePath string `env:"DATABASE_PATH"`

	RateLimitPerMinute int `env:"RATE_LIMIT_RPM" envDefault:"60"`
	RateLimitClients   int `env:"RATE_LIMIT_CLIENTS" envDefault:"1024"`

	// GitSlots caps concurrent git subprocesses.
	GitSlots int `env:"GIT_SLOTS" envDefault:"4"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	GitHub GitHubConfig
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.RepoDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.RepoDir = wd
	}

	if cfg.DatabasePath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.DatabasePath = filepath.Join(homeDir, ".ghflow", "ghflow.db")
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
