// Package config reads the YAML settings shared by the CLI and the HTTP
// server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable consulted when no path is given.
const PathEnv = "CONFIG_PATH"

var ErrInvalid = errors.New("config: invalid value")

type Governor struct {
	NMax      int    `yaml:"nmax"`
	Wait      int    `yaml:"wait"`
	Partition string `yaml:"partition"`
	User      string `yaml:"user"`
	RunAs     string `yaml:"run_as"`
}

// PollInterval is Wait in seconds.
func (g Governor) PollInterval() time.Duration {
	return time.Duration(g.Wait) * time.Second
}

type Scheduler struct {
	AdminUser string `yaml:"admin_user"`
	ChunkSize int    `yaml:"chunk_size"`
}

type Server struct {
	Listen string `yaml:"listen"`
	// DataDir holds the collections and histories named by API clients.
	// Clients only name paths relative to it.
	DataDir string `yaml:"data_dir"`
}

type Config struct {
	Governor  Governor  `yaml:"governor"`
	Scheduler Scheduler `yaml:"scheduler"`
	Server    Server    `yaml:"server"`
	History   string    `yaml:"history"`
}

func Default() *Config {
	return &Config{
		Governor: Governor{
			NMax: 1000,
			Wait: 120,
		},
		Scheduler: Scheduler{
			ChunkSize: 1000,
		},
		Server: Server{
			Listen:  ":8080",
			DataDir: ".",
		},
	}
}

// Load reads the file at path over the defaults. An empty path falls back to
// $CONFIG_PATH, and to the defaults alone when that is unset too.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	config := Default()
	if path == "" {
		return config, nil
	}

	cb, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(cb, config); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Governor.NMax <= 0 {
		return fmt.Errorf("%w: nmax must be positive, got %d", ErrInvalid, c.Governor.NMax)
	}
	if c.Governor.Wait <= 0 {
		return fmt.Errorf("%w: wait must be positive, got %d", ErrInvalid, c.Governor.Wait)
	}
	if c.Scheduler.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalid, c.Scheduler.ChunkSize)
	}
	return nil
}
