// Package config loads the controller settings from flyscore.yaml, an
// optional .env file and FLYSCORE_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "flyscore.yaml"

// Host backends.
const (
	HostMemory = "memory"
	HostNone   = "none"
)

var ErrInvalidConfig = errors.New("invalid config")

// BrowserSource configures the web source the overlay is pointed at.
type BrowserSource struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Config holds the controller settings.
type Config struct {
	DataRoot      string        `yaml:"data_root"`
	BindAddress   string        `yaml:"bind_address"`
	Port          int           `yaml:"port"` // 0 uses server.port from plugin.json
	LogLevel      string        `yaml:"log_level"`
	Host          string        `yaml:"host"`
	BrowserSource BrowserSource `yaml:"browser_source"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Config {
	return Config{
		DataRoot:    DefaultDataRoot(),
		BindAddress: "127.0.0.1",
		LogLevel:    "info",
		Host:        HostMemory,
		BrowserSource: BrowserSource{
			Name:   "Fly Scoreboard",
			Width:  1920,
			Height: 1080,
		},
	}
}

// DefaultDataRoot is flyscore under the user config directory.
func DefaultDataRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "flyscore-data"
	}
	return filepath.Join(dir, "flyscore")
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Msg("no .env file")
			return
		}
		log.Warn().Err(err).Msg("could not load .env file")
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("%w: data_root is empty", ErrInvalidConfig)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Host {
	case HostMemory, HostNone:
	default:
		return fmt.Errorf("%w: unknown host %q", ErrInvalidConfig, c.Host)
	}
	if c.BrowserSource.Width <= 0 || c.BrowserSource.Height <= 0 {
		return fmt.Errorf("%w: browser source size %dx%d", ErrInvalidConfig, c.BrowserSource.Width, c.BrowserSource.Height)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(c.LogLevel))
}

// SaveDataRoot records dir as the data root in the file at path, keeping the
// other settings stored there.
func SaveDataRoot(path, dir string) error {
	cfg, err := readFile(path)
	if err != nil {
		return err
	}
	cfg.DataRoot = dir

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	log.Info().Str("path", path).Str("data_root", dir).Msg("saved data root")
	return nil
}

func readFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataRoot = getEnv("FLYSCORE_DATA_ROOT", c.DataRoot)
	c.BindAddress = getEnv("FLYSCORE_BIND_ADDRESS", c.BindAddress)
	c.Port = getEnvAsInt("FLYSCORE_PORT", c.Port)
	c.LogLevel = getEnv("FLYSCORE_LOG_LEVEL", c.LogLevel)
	c.Host = getEnv("FLYSCORE_HOST", c.Host)
	c.BrowserSource.Name = getEnv("FLYSCORE_SOURCE_NAME", c.BrowserSource.Name)
	c.BrowserSource.Width = getEnvAsInt("FLYSCORE_SOURCE_WIDTH", c.BrowserSource.Width)
	c.BrowserSource.Height = getEnvAsInt("FLYSCORE_SOURCE_HEIGHT", c.BrowserSource.Height)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-numeric environment value")
	}
	return defaultValue
}
