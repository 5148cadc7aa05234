// Package config loads phpattr settings from config files, the environment
// and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// FileName is the config file name without extension.
const FileName = ".phpattr"

// AppFs is the filesystem config files are read from and written to.
var AppFs = afero.NewOsFs()

// IndexConfig configures the SQL attribute index.
type IndexConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	DSN      string `mapstructure:"dsn" yaml:"dsn"`
}

// Config holds the application configuration
type Config struct {
	PHPVersion  string      `mapstructure:"php_version"`
	Paths       []string    `mapstructure:"paths"`
	Exclude     []string    `mapstructure:"exclude"`
	Concurrency int         `mapstructure:"concurrency"`
	FailFast    bool        `mapstructure:"fail_fast"`
	Format      string      `mapstructure:"format"`
	Index       IndexConfig `mapstructure:"index"`
	Debug       bool        `mapstructure:"debug"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PHPVersion: "8.3",
		Paths:      []string{"."},
		Exclude:    []string{"vendor/**", "node_modules/**", ".git/**"},
		Format:     "table",
		Index: IndexConfig{
			Provider: "sqlite",
			DSN:      ".phpattr.db",
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)

	def := Default()
	v.SetDefault("php_version", def.PHPVersion)
	v.SetDefault("paths", def.Paths)
	v.SetDefault("exclude", def.Exclude)
	v.SetDefault("concurrency", def.Concurrency)
	v.SetDefault("fail_fast", def.FailFast)
	v.SetDefault("format", def.Format)
	v.SetDefault("index.provider", def.Index.Provider)
	v.SetDefault("index.dsn", def.Index.DSN)
	v.SetDefault("debug", def.Debug)

	v.SetEnvPrefix("PHPATTR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An explicit file must exist; otherwise
// .phpattr.yaml is searched in the working directory, the home directory and
// ~/.config/phpattr, and a missing file leaves the defaults in place.
func Load(file string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "phpattr"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	// DATABASE_URL is honoured for the index like other tools do.
	if cfg.Index.DSN == Default().Index.DSN {
		if url := os.Getenv("DATABASE_URL"); url != "" {
			cfg.Index.DSN = url
		}
	}
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local, the latter taking priority.
// Failures are ignored; a broken .env must not prevent scanning.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	v := newViper()
	v.Set("php_version", cfg.PHPVersion)
	v.Set("paths", cfg.Paths)
	v.Set("exclude", cfg.Exclude)
	v.Set("concurrency", cfg.Concurrency)
	v.Set("fail_fast", cfg.FailFast)
	v.Set("format", cfg.Format)
	v.Set("index.provider", cfg.Index.Provider)
	v.Set("index.dsn", cfg.Index.DSN)
	v.Set("debug", cfg.Debug)

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultPath returns where `phpattr init` writes the project config.
func DefaultPath() string {
	return FileName + ".yaml"
}
