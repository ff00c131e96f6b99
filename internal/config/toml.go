// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Quiz QuizConfig `toml:"quiz"`
}

// QuizConfig maps quiz-related settings.
type QuizConfig struct {
	Bank          *string   `toml:"bank"`
	Store         *string   `toml:"store"`
	DB            *string   `toml:"db"`
	Mode          *string   `toml:"mode"`
	Weeks         *[]string `toml:"weeks"`
	FeedbackDelay *string   `toml:"feedback-delay"`
	Validate      *bool     `toml:"validate"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Environment variables that override the config file.
const (
	EnvBank  = "FINQUIZ_BANK"
	EnvStore = "FINQUIZ_STORE"
	EnvDB    = "FINQUIZ_DB"
	EnvLog   = "FINQUIZ_LOG"
)

// LoadDotEnv loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overlays FINQUIZ_* variables onto cfg.
func ApplyEnv(cfg FileConfig) FileConfig {
	set := func(dst **string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = &v
		}
	}
	set(&cfg.Quiz.Bank, EnvBank)
	set(&cfg.Quiz.Store, EnvStore)
	set(&cfg.Quiz.DB, EnvDB)
	return cfg
}
