package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr           string        `yaml:"addr"`
	StoreURI           string        `yaml:"store_uri"`
	Database           string        `yaml:"database"`
	Collection         string        `yaml:"collection"`
	PoolSize           int           `yaml:"pool_size"`
	JWTSecret          string        `yaml:"jwt_secret"`
	AdminEmail         string        `yaml:"admin_email"`
	AdminPass          string        `yaml:"admin_pass"`
	StrictIntake       bool          `yaml:"strict_intake"`
	StrictConditionals bool          `yaml:"strict_conditionals"`
	GelfAddr           string        `yaml:"gelf_addr"`
	ServerURL          string        `yaml:"server_url"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:   ":8080",
		StoreURI:   "oxidb://127.0.0.1:4444",
		Database:   "icp",
		Collection: "seoForms",
		PoolSize:   3,
		AdminEmail: "admin@icp.local",
		ServerURL:  "http://localhost:8080",
	}
}

// Load layers defaults, the optional YAML file at path, a .env file in the
// working directory and finally the ICP_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg.HTTPAddr = getEnv("ICP_ADDR", cfg.HTTPAddr)
	cfg.StoreURI = getEnv("ICP_STORE_URI", cfg.StoreURI)
	cfg.Database = getEnv("ICP_DATABASE", cfg.Database)
	cfg.Collection = getEnv("ICP_COLLECTION", cfg.Collection)
	cfg.PoolSize = getEnvInt("ICP_POOL_SIZE", cfg.PoolSize)
	cfg.JWTSecret = getEnv("ICP_JWT_SECRET", cfg.JWTSecret)
	cfg.AdminEmail = getEnv("ICP_ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPass = getEnv("ICP_ADMIN_PASS", cfg.AdminPass)
	cfg.StrictIntake = getEnvBool("ICP_STRICT_INTAKE", cfg.StrictIntake)
	cfg.StrictConditionals = getEnvBool("ICP_STRICT_CONDITIONALS", cfg.StrictConditionals)
	cfg.GelfAddr = getEnv("ICP_GELF_ADDR", cfg.GelfAddr)
	cfg.ServerURL = getEnv("ICP_SERVER_URL", cfg.ServerURL)
	cfg.RequestTimeout = getEnvDuration("ICP_REQUEST_TIMEOUT", cfg.RequestTimeout)

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if c.StoreURI == "" {
		errs = append(errs, errors.New("store_uri must not be empty"))
	}
	if c.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("pool_size must be at least 1, got %d", c.PoolSize))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
