package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/como-monitor/como/internal/logger"
	"github.com/como-monitor/como/internal/producer"
	"github.com/como-monitor/como/internal/server"
)

// EnvPrefix prefixes every environment override, e.g. COMO_SERVER_PORT.
const EnvPrefix = "COMO_"

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Admin     AdminConfig     `yaml:"admin" envPrefix:"ADMIN_"`
	Producers ProducersConfig `yaml:"producers" envPrefix:"PRODUCERS_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	KeepAlive       time.Duration `yaml:"keep_alive" env:"KEEP_ALIVE"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	MaxQueuedFrames int           `yaml:"max_queued_frames" env:"MAX_QUEUED_FRAMES"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type AdminConfig struct {
	Enabled        bool     `yaml:"enabled" env:"ENABLED"`
	Addr           string   `yaml:"addr" env:"ADDR"`
	MaxConnections int      `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type ProducersConfig struct {
	Demo           bool          `yaml:"demo" env:"DEMO"`
	Interval       time.Duration `yaml:"interval" env:"INTERVAL"`
	System         bool          `yaml:"system" env:"SYSTEM"`
	SystemInterval time.Duration `yaml:"system_interval" env:"SYSTEM_INTERVAL"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            server.DefaultPort,
			KeepAlive:       server.DefaultKeepAlive,
			WriteTimeout:    server.DefaultWriteTimeout,
			MaxQueuedFrames: server.DefaultMaxQueuedFrames,
		},
		Admin: AdminConfig{
			Enabled:        true,
			Addr:           "127.0.0.1:8080",
			MaxConnections: 64,
		},
		Producers: ProducersConfig{
			Demo:           true,
			Interval:       producer.DefaultDemoInterval,
			System:         false,
			SystemInterval: producer.DefaultSystemInterval,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatText,
		},
	}
}

// Load reads a YAML file over the defaults. It does not apply environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Resolve loads path (or the defaults), applies a .env file from the working
// directory if there is one, then COMO_* environment overrides, and
// validates the result.
func Resolve(path string) (*Config, error) {
	cfg, err := LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from COMO_* environment variables. Unset
// variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: environment: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("%w: server.write_timeout must not be negative", ErrInvalid)
	}
	if c.Server.MaxQueuedFrames < 0 {
		return fmt.Errorf("%w: server.max_queued_frames must not be negative", ErrInvalid)
	}
	if c.Admin.Enabled && c.Admin.Addr == "" {
		return fmt.Errorf("%w: admin.addr is required when admin is enabled", ErrInvalid)
	}
	if c.Admin.MaxConnections < 0 {
		return fmt.Errorf("%w: admin.max_connections must not be negative", ErrInvalid)
	}
	if c.Producers.Demo && c.Producers.Interval <= 0 {
		return fmt.Errorf("%w: producers.interval must be positive", ErrInvalid)
	}
	if c.Producers.System && c.Producers.SystemInterval <= 0 {
		return fmt.Errorf("%w: producers.system_interval must be positive", ErrInvalid)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
