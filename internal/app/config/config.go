package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPath            = "config/config.toml"
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultShutdownTimeout = 15
	DefaultCacheTTL        = 300
)

type Config struct {
	App struct {
		Host            string `toml:"host"`
		Port            int    `toml:"port"`
		ShutdownTimeout int    `toml:"shutdown_timeout"` // seconds
		LogLevel        string `toml:"log_level"`
		Mode            string `toml:"mode"` // gin mode: debug, release, test
	} `toml:"app"`
	DB struct {
		URL     string `toml:"url"`
		Host    string `toml:"host"`
		Port    string `toml:"port"`
		User    string `toml:"user"`
		Pass    string `toml:"pass"`
		Name    string `toml:"name"`
		SSLMode string `toml:"sslmode"`
	} `toml:"db"`
	Redis struct {
		Addr        string `toml:"addr"`
		Password    string `toml:"password"`
		DB          int    `toml:"db"`
		DialTimeout int    `toml:"dial_timeout"` // seconds
		ReadTimeout int    `toml:"read_timeout"` // seconds
		TTL         int    `toml:"ttl"`          // seconds
	} `toml:"redis"`
}

// Load reads a TOML config file.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FromEnv builds the process configuration: .env first, then the TOML file
// when it exists, then defaults, then environment variables on top.
// A missing .env or config file is not an error, a malformed one is.
func FromEnv(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		logrus.Warnf("config file %s not found, using env/defaults", path)
		cfg = Config{}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Host == "" {
		c.App.Host = DefaultHost
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		c.App.Port = DefaultPort
	}
	if c.App.ShutdownTimeout <= 0 {
		c.App.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == "" {
		c.DB.Port = "5432"
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.Redis.DialTimeout <= 0 {
		c.Redis.DialTimeout = 5
	}
	if c.Redis.ReadTimeout <= 0 {
		c.Redis.ReadTimeout = 3
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = DefaultCacheTTL
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("PORT"); ok {
		if port, err := ParsePort(v); err == nil {
			c.App.Port = port
		} else {
			logrus.Warnf("ignoring PORT=%q: %v", v, err)
		}
	}
	c.App.Host = getenv("HOST", c.App.Host)
	c.App.LogLevel = getenv("LOG_LEVEL", c.App.LogLevel)
	c.App.Mode = getenv("GIN_MODE", c.App.Mode)

	c.DB.URL = getenv("DATABASE_URL", c.DB.URL)
	c.DB.Host = getenv("DB_HOST", c.DB.Host)
	c.DB.Port = getenv("DB_PORT", c.DB.Port)
	c.DB.User = getenv("DB_USER", c.DB.User)
	c.DB.Pass = getenv("DB_PASS", c.DB.Pass)
	c.DB.Name = getenv("DB_NAME", c.DB.Name)
	c.DB.SSLMode = getenv("DB_SSLMODE", c.DB.SSLMode)

	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
}

// ParsePort accepts a decimal TCP port in 1..65535.
func ParsePort(v string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, errors.New("port out of range")
	}
	return port, nil
}

// Path returns the config file location, CONFIG_PATH wins over the default.
func Path() string {
	return getenv("CONFIG_PATH", DefaultPath)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
