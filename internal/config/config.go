package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr          = ":3000"
	DefaultAllowOrigins  = "http://localhost:5173"
	DefaultLogLevel      = "info"
	DefaultMatchInterval = time.Second
)

type Config struct {
	Addr          string        `yaml:"addr"`
	AllowOrigins  string        `yaml:"allow_origins"`
	LogLevel      string        `yaml:"log_level"`
	MatchInterval time.Duration `yaml:"match_interval"`
}

func Default() Config {
	return Config{
		Addr:          DefaultAddr,
		AllowOrigins:  DefaultAllowOrigins,
		LogLevel:      DefaultLogLevel,
		MatchInterval: DefaultMatchInterval,
	}
}

// Load reads filename over the defaults and then applies CHESS_* environment
// overrides. An empty filename skips the file.
func Load(filename string) (Config, error) {
	cfg := Default()

	if filename != "" {
		b, err := os.ReadFile(filename)
		if err != nil {
			return cfg, fmt.Errorf("'%s': %w", filename, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("'%s': %w", filename, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CHESS_ADDR"); ok {
		c.Addr = v
	}
	if v, ok := lookup("CHESS_ALLOW_ORIGINS"); ok {
		c.AllowOrigins = v
	}
	if v, ok := lookup("CHESS_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookup("CHESS_MATCH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_MATCH_INTERVAL: %w", err)
		}
		c.MatchInterval = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.MatchInterval <= 0 {
		errs = append(errs, fmt.Errorf("match_interval must be positive, got %s", c.MatchInterval))
	}
	return errors.Join(errs...)
}
