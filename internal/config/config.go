// Package config loads the outline service configuration from YAML, JSON or TOML files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/outline/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvAddr      = "OUTLINE_ADDR"
	EnvRedisAddr = "OUTLINE_REDIS_ADDR"
	EnvLogLevel  = "OUTLINE_LOG_LEVEL"
	EnvSelfPaced = "OUTLINE_SELF_PACED"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// ServerConfig configures the HTTP listener of the authority.
type ServerConfig struct {
	Addr           string `yaml:"addr" json:"addr" toml:"addr"`
	MethodOverride bool   `yaml:"method_override" json:"method_override" toml:"method_override"`
}

// RedisConfig configures the redis store and locker.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" toml:"addr"`
	Password string `yaml:"password" json:"password" toml:"password"`
	DB       int    `yaml:"db" json:"db" toml:"db"`
	Prefix   string `yaml:"prefix" json:"prefix" toml:"prefix"`
}

// StoreConfig selects where the authority keeps its nodes.
type StoreConfig struct {
	Driver string      `yaml:"driver" json:"driver" toml:"driver"`
	Redis  RedisConfig `yaml:"redis" json:"redis" toml:"redis"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level" toml:"level"`
}

// Config is the whole configuration file.
type Config struct {
	Server ServerConfig          `yaml:"server" json:"server" toml:"server"`
	Store  StoreConfig           `yaml:"store" json:"store" toml:"store"`
	Course domain.CourseSettings `yaml:"course" json:"course" toml:"course"`
	Log    LogConfig             `yaml:"log" json:"log" toml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "outline:node:"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration at path on top of the defaults, then applies environment overrides.
// The format follows the extension: .json, .toml, anything else is YAML.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.Redis.Addr = v
		c.Store.Driver = DriverRedis
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvSelfPaced); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSelfPaced, err)
		}
		c.Course.SelfPaced = b
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr required")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr required")
	}
	return nil
}
