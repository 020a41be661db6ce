// Package config provides configuration management for the ledger.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	lerrors "position-ledger/internal/errors"
	"position-ledger/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig       `mapstructure:"store" json:"store"`
	Server  ServerConfig      `mapstructure:"server" json:"server"`
	Log     logging.LogConfig `mapstructure:"log" json:"log"`
	Display DisplayConfig     `mapstructure:"display" json:"display"`
	Import  ImportConfig      `mapstructure:"import" json:"import"`

	// Path is the file the configuration was read from.
	Path string `mapstructure:"-" json:"path"`
}

// StoreConfig holds position store settings.
type StoreConfig struct {
	Path        string        `mapstructure:"path" json:"path" validate:"required"`
	BusyRetries int           `mapstructure:"busy_retries" json:"busy_retries" validate:"min=1,max=20"`
	BusyDelay   time.Duration `mapstructure:"busy_delay" json:"busy_delay" validate:"min=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" json:"mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// DisplayConfig holds output settings.
type DisplayConfig struct {
	Currency string `mapstructure:"currency" json:"currency" validate:"required,len=3,uppercase"`
}

// ImportConfig holds broker import settings.
type ImportConfig struct {
	Tickers []TickerMapping `mapstructure:"tickers" json:"tickers" validate:"dive"`
}

// TickerMapping maps a broker product name to a ticker. It is a list entry
// rather than a map key because viper lower-cases keys.
type TickerMapping struct {
	Product string `mapstructure:"product" json:"product" validate:"required"`
	Ticker  string `mapstructure:"ticker" json:"ticker" validate:"required"`
}

// TickerTable returns the configured product mappings as a map.
func (c ImportConfig) TickerTable() map[string]string {
	out := make(map[string]string, len(c.Tickers))
	for _, m := range c.Tickers {
		out[m.Product] = m.Ticker
	}
	return out
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/position-ledger"
	}
	return filepath.Join(home, ".config", "position-ledger")
}

// DefaultConfigPath returns the default configuration file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

func setDefaults(v *viper.Viper) {
	logCfg := logging.DefaultLogConfig()

	v.SetDefault("store.path", filepath.Join(DefaultConfigDir(), "ledger.db"))
	v.SetDefault("store.busy_retries", 5)
	v.SetDefault("store.busy_delay", "50ms")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("log.level", logCfg.Level)
	v.SetDefault("log.console", logCfg.Console)
	v.SetDefault("log.file", logCfg.File)
	v.SetDefault("log.file_path", logCfg.FilePath)
	v.SetDefault("log.max_size", logCfg.MaxSize)
	v.SetDefault("log.max_backups", logCfg.MaxBackups)
	v.SetDefault("log.max_age", logCfg.MaxAge)
	v.SetDefault("display.currency", "EUR")
}

// Load reads the configuration file at path, or the default file when path
// is empty. A missing file is replaced by the template and loading goes on
// with its values. A .env file next to the configuration is loaded first.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := loadEnvFile(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createTemplateConfig(path); err != nil {
			return nil, err
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, lerrors.Wrapf(lerrors.ErrConfigInvalid, "reading %s: %v", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, lerrors.Wrapf(lerrors.ErrConfigInvalid, "decoding %s: %v", path, err)
	}
	cfg.Path = path

	applyEnvOverrides(cfg)
	cfg.Store.Path = expandHome(cfg.Store.Path)
	cfg.Log.FilePath = expandHome(cfg.Log.FilePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return lerrors.Wrapf(lerrors.ErrConfigInvalid, "loading %s: %v", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LEDGER_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("LEDGER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LEDGER_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LEDGER_CURRENCY"); v != "" {
		cfg.Display.Currency = strings.ToUpper(v)
	}
	if v := os.Getenv("LEDGER_BUSY_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Store.BusyRetries = n
		}
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

var validate = validator.New()

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if lerrors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			return lerrors.Wrapf(lerrors.ErrConfigInvalid, "invalid fields: %s", strings.Join(fields, ", "))
		}
		return lerrors.Wrap(lerrors.ErrConfigInvalid, err.Error())
	}
	return nil
}
