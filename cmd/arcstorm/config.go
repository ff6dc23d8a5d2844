package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config controls a storm run. Values come from an optional YAML file;
// flags given on the command line override it.
type Config struct {
	Workers      int           `yaml:"workers"`
	Rounds       int           `yaml:"rounds"`
	OpsPerWorker int           `yaml:"ops_per_worker"`
	Seed         uint64        `yaml:"seed"`
	Progress     time.Duration `yaml:"progress"`
	LogLevel     string        `yaml:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Workers:      runtime.GOMAXPROCS(0),
		Rounds:       16,
		OpsPerWorker: 100_000,
		Seed:         1,
		Progress:     time.Second,
		LogLevel:     "info",
	}
}

// parseConfig builds the configuration from command line arguments.
func parseConfig(args []string, stderr io.Writer) (Config, error) {
	cfg := defaultConfig()
	var fromFlags Config

	fs := flag.NewFlagSet("arcstorm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "path to a YAML config file")
	fs.IntVar(&fromFlags.Workers, "workers", cfg.Workers, "concurrent workers per round")
	fs.IntVar(&fromFlags.Rounds, "rounds", cfg.Rounds, "number of rounds")
	fs.IntVar(&fromFlags.OpsPerWorker, "ops", cfg.OpsPerWorker, "operations per worker per round")
	fs.Uint64Var(&fromFlags.Seed, "seed", cfg.Seed, "random seed")
	fs.DurationVar(&fromFlags.Progress, "progress", cfg.Progress, "progress report interval, 0 disables")
	fs.StringVar(&fromFlags.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *path != "" {
		if err := loadFile(*path, &cfg); err != nil {
			return Config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			cfg.Workers = fromFlags.Workers
		case "rounds":
			cfg.Rounds = fromFlags.Rounds
		case "ops":
			cfg.OpsPerWorker = fromFlags.OpsPerWorker
		case "seed":
			cfg.Seed = fromFlags.Seed
		case "progress":
			cfg.Progress = fromFlags.Progress
		case "log-level":
			cfg.LogLevel = fromFlags.LogLevel
		}
	})
	return cfg, cfg.validate()
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.Rounds < 1:
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	case c.OpsPerWorker < 0:
		return fmt.Errorf("ops must not be negative, got %d", c.OpsPerWorker)
	case c.Progress < 0:
		return fmt.Errorf("progress must not be negative, got %s", c.Progress)
	}
	_, err := parseLevel(c.LogLevel)
	return err
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}
