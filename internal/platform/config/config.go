package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix                = "PAHM"
	DefaultRecoveryThreshold = 30 * time.Second
)

type StageConfig struct {
	ID             int    `mapstructure:"id"`
	Name           string `mapstructure:"name"`
	MinimumMinutes int    `mapstructure:"minimum_minutes"`
	DefaultMinutes int    `mapstructure:"default_minutes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type RecoveryConfig struct {
	Threshold time.Duration `mapstructure:"threshold"`
}

type MirrorConfig struct {
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type OTelConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type Config struct {
	VaultPath string `mapstructure:"vault"`
	DBPath    string `mapstructure:"-"`
	StateDir  string `mapstructure:"-"`

	Log             LogConfig          `mapstructure:"log"`
	Recovery        RecoveryConfig     `mapstructure:"recovery"`
	AudioEnabled    bool               `mapstructure:"audio_enabled"`
	WakeLockEnabled bool               `mapstructure:"wake_lock_enabled"`
	Stages          []StageConfig      `mapstructure:"stages"`
	Scoring         map[string]float64 `mapstructure:"scoring"`
	Mirror          MirrorConfig       `mapstructure:"mirror"`
	OTel            OTelConfig         `mapstructure:"otel"`
}

// Options select where configuration is read from. Empty fields fall back to
// the PAHM_VAULT environment variable, then the working directory.
type Options struct {
	VaultPath  string
	ConfigFile string
}

// New returns the built-in defaults for a vault without reading any file.
func New(vaultPath string) (Config, error) {
	if vaultPath == "" {
		return Config{}, fmt.Errorf("vault path is required")
	}
	cfg := Config{
		VaultPath:       vaultPath,
		Log:             LogConfig{Level: "info"},
		Recovery:        RecoveryConfig{Threshold: DefaultRecoveryThreshold},
		AudioEnabled:    true,
		WakeLockEnabled: true,
	}
	return cfg.withPaths(), nil
}

// Load layers defaults, an optional pahm.yaml and PAHM_* environment variables.
func Load(opts Options) (Config, error) {
	v := viper.New()
	v.SetConfigName("pahm")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("vault", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("recovery.threshold", DefaultRecoveryThreshold)
	v.SetDefault("audio_enabled", true)
	v.SetDefault("wake_lock_enabled", true)
	v.SetDefault("mirror.postgres_dsn", "")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.endpoint", "localhost:4317")
	v.SetDefault("otel.insecure", true)

	vaultPath := opts.VaultPath
	if vaultPath == "" {
		vaultPath = v.GetString("vault")
	}
	loadDotEnv(vaultPath)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(vaultPath)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pahm"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if opts.VaultPath != "" {
		cfg.VaultPath = opts.VaultPath
	}
	if cfg.VaultPath == "" {
		return Config{}, fmt.Errorf("vault path is required")
	}
	if cfg.Recovery.Threshold <= 0 {
		return Config{}, fmt.Errorf("recovery.threshold must be positive, got %s", cfg.Recovery.Threshold)
	}
	return cfg.withPaths(), nil
}

func (c Config) withPaths() Config {
	c.StateDir = filepath.Join(c.VaultPath, ".pahm")
	c.DBPath = filepath.Join(c.StateDir, "pahm.db")
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.StateDir, "pahm.log")
	}
	return c
}

// loadDotEnv reads .env files from the working directory and the vault.
// Variables already present in the environment win.
func loadDotEnv(vaultPath string) {
	for _, path := range []string{".env", filepath.Join(vaultPath, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}
