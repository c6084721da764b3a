package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMock = "mock"
	BackendExec = "exec"
)

const (
	defaultHTTPPort         = "8080"
	defaultBackend          = BackendMock
	defaultRunDelay         = 2 * time.Second
	defaultRunTimeout       = 60 * time.Second
	defaultShell            = "/bin/bash"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultHistoryRetention = 7 * 24 * time.Hour
)

type Config struct {
	HTTPPort string
	GRPCPort string

	Backend    string
	DBPath     string
	RunDelay   time.Duration
	RunTimeout time.Duration
	Shell      string
	// WorkDir is the directory exec commands start in. Empty means the
	// server's own working directory.
	WorkDir    string
	SeedFile   string

	LogLevel  string
	LogFormat string

	HistoryRetention time.Duration

	ConsulAddr     string
	ServiceAddress string
}

// Load reads the configuration from the environment. Values in envFiles
// (or ./.env when none are given) are applied first without overriding
// variables that are already set; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else {
		for _, f := range envFiles {
			if _, err := os.Stat(f); err != nil {
				continue
			}
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", f, err)
			}
		}
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", defaultHTTPPort),
		GRPCPort:       getEnv("GRPC_PORT", ""),
		Backend:        getEnv("BACKEND", defaultBackend),
		DBPath:         getEnv("DB_PATH", ""),
		Shell:          getEnv("SHELL_PATH", defaultShell),
		WorkDir:        getEnv("WORK_DIR", ""),
		SeedFile:       getEnv("SEED_FILE", ""),
		LogLevel:       getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:      getEnv("LOG_FORMAT", defaultLogFormat),
		ConsulAddr:     getEnv("CONSUL_HTTP_ADDR", ""),
		ServiceAddress: getEnv("SERVICE_ADDRESS", ""),
	}

	var err error
	if cfg.RunDelay, err = getDuration("RUN_DELAY", defaultRunDelay); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = getDuration("RUN_TIMEOUT", defaultRunTimeout); err != nil {
		return nil, err
	}
	if cfg.HistoryRetention, err = getDuration("HISTORY_RETENTION", defaultHistoryRetention); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMock, BackendExec:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}

	if c.RunTimeout <= 0 {
		return fmt.Errorf("RUN_TIMEOUT must be positive")
	}

	if c.RunDelay < 0 {
		return fmt.Errorf("RUN_DELAY must not be negative")
	}

	if c.WorkDir != "" {
		info, err := os.Stat(c.WorkDir)
		if err != nil {
			return fmt.Errorf("WORK_DIR: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("WORK_DIR %q is not a directory", c.WorkDir)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
