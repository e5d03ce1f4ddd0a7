package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 8443 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.TrackingFile != "TODO.md" {
		t.Errorf("tracking file = %q", cfg.TrackingFile)
	}
	if cfg.RateLimitPerMinute != 60 {
		t.Errorf("rate limit = %d", cfg.RateLimitPerMinute)
	}
	if cfg.RepoDir == "" {
		t.Error("repo dir must default to the working directory")
	}
	if cfg.DatabasePath == "" {
		t.Error("database path must get a default")
	}
	if len(cfg.WorkFolderPatterns) != 1 || cfg.WorkFolderPatterns[0] != "work/**" {
		t.Errorf("work folder patterns = %v", cfg.WorkFolderPatterns)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("PORT", "9000")
	t.Setenv("WORK_FOLDER_PATTERNS", "scratch/**,tmp/*")
	t.Setenv("GITHUB_OWNER", "octocat")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Addr(); got != "0.0.0.0:9000" {
		t.Errorf("addr = %q", got)
	}
	if len(cfg.WorkFolderPatterns) != 2 {
		t.Errorf("work folder patterns = %v", cfg.WorkFolderPatterns)
	}
	if cfg.GitHub.Owner != "octocat" {
		t.Errorf("owner = %q", cfg.GitHub.Owner)
	}
}
