package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Quiz.Mode != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigQuizSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[quiz]\nmode = \"infinite\"\nweeks = [\"1\", \"9\"]\nfeedback-delay = \"250ms\"\nvalidate = false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quiz.Mode == nil || *cfg.Quiz.Mode != "infinite" {
		t.Fatalf("unexpected mode: %v", cfg.Quiz.Mode)
	}
	if cfg.Quiz.Weeks == nil || !slices.Equal(*cfg.Quiz.Weeks, []string{"1", "9"}) {
		t.Fatalf("unexpected weeks: %v", cfg.Quiz.Weeks)
	}
	if cfg.Quiz.Validate == nil || *cfg.Quiz.Validate {
		t.Fatalf("expected validate=false")
	}
	if cfg.Quiz.FeedbackDelay == nil || *cfg.Quiz.FeedbackDelay != "250ms" {
		t.Fatalf("unexpected delay: %v", cfg.Quiz.FeedbackDelay)
	}
}

func TestDotEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINQUIZ_STORE=json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvStore, "")
	if err := os.Unsetenv(EnvStore); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	store := "sqlite"
	cfg := ApplyEnv(FileConfig{Quiz: QuizConfig{Store: &store}})
	if *cfg.Quiz.Store != "json" {
		t.Fatalf("expected env to override file, got %q", *cfg.Quiz.Store)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should not error: %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("XDG_STATE_HOME", dir)
	t.Setenv(EnvLog, "")
	if got := DefaultDBPath(); got != filepath.Join(dir, "finquiz", "finquiz.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultJSONStorePath("finance_quiz_stats"); got != filepath.Join(dir, "finquiz", "finance_quiz_stats.json") {
		t.Fatalf("unexpected json path %q", got)
	}
	if got := DefaultLogPath(); got != filepath.Join(dir, "finquiz", "finquiz.log") {
		t.Fatalf("unexpected log path %q", got)
	}
}
