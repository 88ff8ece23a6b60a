package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	DB          string        `yaml:"db"`
	CORSOrigins []string      `yaml:"cors_origins"`
	Monitor     MonitorConfig `yaml:"monitor"`
	Redis       RedisConfig   `yaml:"redis"`
}

// MonitorConfig tunes the demand monitor.
type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval"`
	Model        string        `yaml:"model"`
	Sigma        float64       `yaml:"sigma"`
	Floor        float64       `yaml:"floor"`
	ProjectStock bool          `yaml:"project_stock"`
	Disabled     bool          `yaml:"disabled"`
}

// RedisConfig enables the Redis alert channel when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Channel  string `yaml:"channel"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":9000",
		DB:          "inventory.db",
		CORSOrigins: []string{"*"},
		Monitor: MonitorConfig{
			Interval: 6 * time.Second,
			Model:    "linear",
			Sigma:    2,
		},
		Redis: RedisConfig{Channel: "stockwatch:alerts"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, the
// environment (after loading .env if present) and finally command-line flags.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	fsFlags := flag.NewFlagSet("stockwatch", flag.ContinueOnError)
	configPath := fsFlags.String("config", os.Getenv("STOCKWATCH_CONFIG"), "Path to YAML config file")
	addr := fsFlags.String("addr", "", "HTTP listen address")
	dbPath := fsFlags.String("db", "", "SQLite database path")
	interval := fsFlags.Duration("interval", 0, "Monitor check interval")
	model := fsFlags.String("model", "", "Demand model: linear or arima")
	if err := fsFlags.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}

	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DB = *dbPath
	}
	if *interval > 0 {
		cfg.Monitor.Interval = *interval
	}
	if *model != "" {
		cfg.Monitor.Model = *model
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STOCKWATCH_ADDR"); v != "" {
		c.Addr = v
	} else if v := getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv("STOCKWATCH_DB"); v != "" {
		c.DB = v
	}
	if v := getenv("STOCKWATCH_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
	if v := getenv("STOCKWATCH_MONITOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STOCKWATCH_MONITOR_INTERVAL: %w", err)
		}
		c.Monitor.Interval = d
	}
	if v := getenv("STOCKWATCH_MONITOR_MODEL"); v != "" {
		c.Monitor.Model = v
	}
	if v := getenv("STOCKWATCH_MONITOR_SIGMA"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STOCKWATCH_MONITOR_SIGMA: %w", err)
		}
		c.Monitor.Sigma = f
	}
	if v := getenv("STOCKWATCH_MONITOR_FLOOR"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("STOCKWATCH_MONITOR_FLOOR: %w", err)
		}
		c.Monitor.Floor = f
	}
	if v := getenv("STOCKWATCH_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := getenv("STOCKWATCH_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("STOCKWATCH_REDIS_CHANNEL"); v != "" {
		c.Redis.Channel = v
	}
	return nil
}

// Validate rejects configurations the application cannot run with.
func (c Config) Validate() error {
	if c.DB == "" {
		return errors.New("db path is required")
	}
	if c.Monitor.Interval <= 0 {
		return errors.New("monitor interval must be positive")
	}
	if c.Monitor.Sigma < 0 {
		return errors.New("monitor sigma must be non-negative")
	}
	switch c.Monitor.Model {
	case "linear", "arima":
	default:
		return fmt.Errorf("unknown monitor model %q", c.Monitor.Model)
	}
	return nil
}
