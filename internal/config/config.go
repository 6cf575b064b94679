package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Scan struct {
		// Ignore holds glob patterns matched against root-relative paths.
		Ignore  []string `yaml:"ignore"`
		Workers int      `yaml:"workers"`
	} `yaml:"scan"`
	Output struct {
		Snapshot string `yaml:"snapshot"`
		Database string `yaml:"database"`
	} `yaml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Project.Root = "."
	cfg.Scan.Ignore = []string{
		"**/__pycache__/**",
		"**/.git/**",
		"**/.pytest_cache/**",
		"**/venv/**",
		"**/env/**",
		"**/node_modules/**",
	}
	cfg.Scan.Workers = runtime.NumCPU()
	cfg.Output.Snapshot = "chunks.json"
	cfg.Output.Database = "codechunk.db"
	return cfg
}

// Load reads the YAML config at path, overlaying defaults. A missing file
// is not an error; defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// 3. Override with environment variables if present
	if root := os.Getenv("CODECHUNK_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if snapshot := os.Getenv("CODECHUNK_SNAPSHOT"); snapshot != "" {
		cfg.Output.Snapshot = snapshot
	}
	if db := os.Getenv("CODECHUNK_DB"); db != "" {
		cfg.Output.Database = db
	}
	if workers := os.Getenv("CODECHUNK_WORKERS"); workers != "" {
		n, err := strconv.Atoi(workers)
		if err != nil {
			return nil, fmt.Errorf("CODECHUNK_WORKERS: %w", err)
		}
		cfg.Scan.Workers = n
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}

	return cfg, nil
}
