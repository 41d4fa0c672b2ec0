// Package config resolves runtime settings from the process environment and
// an optional .env file. Command-line flags override these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvHorizon    = "STOCKCAST_HORIZON"
	EnvWorkers    = "STOCKCAST_WORKERS"
	EnvFitTimeout = "STOCKCAST_FIT_TIMEOUT"
	EnvAddr       = "STOCKCAST_ADDR"
	EnvMySQLDSN   = "STOCKCAST_MYSQL_DSN"
	EnvSessionTTL = "STOCKCAST_SESSION_TTL"
)

// Config holds settings shared by all commands
type Config struct {
	Horizon    int
	Workers    int // 0 = runtime.NumCPU()
	FitTimeout time.Duration
	Addr       string
	MySQLDSN   string
	SessionTTL time.Duration
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Horizon:    30,
		Addr:       ":3000",
		SessionTTL: 30 * time.Minute,
	}
}

// LookupFunc reports the value of a named setting
type LookupFunc func(key string) (string, bool)

// Load reads envFile (when present) and the process environment. Process
// variables take precedence over the file.
func Load(envFile string) (Config, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	return FromEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	})
}

// FromEnv builds a Config from lookup over Default
func FromEnv(lookup LookupFunc) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvHorizon); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive integer, got %q", EnvHorizon, v)
		}
		cfg.Horizon = n
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("%s must be a non-negative integer, got %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvFitTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvFitTimeout, err)
		}
		cfg.FitTimeout = d
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(EnvMySQLDSN); ok {
		cfg.MySQLDSN = v
	}
	if v, ok := lookup(EnvSessionTTL); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvSessionTTL, err)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}
