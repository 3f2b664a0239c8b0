package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const DefaultFileName = "driftwatch.json"

type Config struct {
	ChangelogDir string        `json:"changelog_dir"`
	Scan         ScanConfig    `json:"scan"`
	Watcher      WatcherConfig `json:"watcher"`
	Server       ServerConfig  `json:"server"`
	LLM          LLMConfig     `json:"llm"`
}

type ScanConfig struct {
	Root               string `json:"root"`
	Workers            int    `json:"workers"`
	FileTimeoutSeconds int    `json:"file_timeout_seconds"`
}

type WatcherConfig struct {
	IntervalSeconds int    `json:"interval_seconds"`
	GitDir          string `json:"git_dir"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

func (s ScanConfig) FileTimeout() time.Duration {
	return time.Duration(s.FileTimeoutSeconds) * time.Second
}

func (w WatcherConfig) Interval() time.Duration {
	return time.Duration(w.IntervalSeconds) * time.Second
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		ChangelogDir: "changelog",
		Scan: ScanConfig{
			Root:               ".",
			FileTimeoutSeconds: 10,
		},
		Watcher: WatcherConfig{
			IntervalSeconds: 30,
			GitDir:          ".git",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

// Load reads and parses the given config file, fills unset fields with
// defaults, and applies environment overrides.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	config.applyEnv()
	return &config, nil
}

// LoadOrDefault loads the named file, or DefaultFileName when filename
// is empty. A missing default file is not an error; an explicitly named
// file must exist.
func LoadOrDefault(filename string) (*Config, error) {
	// .env values are picked up by applyEnv.
	_ = godotenv.Load()

	if filename != "" {
		return Load(filename)
	}
	if _, err := os.Stat(DefaultFileName); err != nil {
		config := Default()
		config.applyEnv()
		return config, nil
	}
	return Load(DefaultFileName)
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.ChangelogDir == "" {
		c.ChangelogDir = def.ChangelogDir
	}
	if c.Scan.Root == "" {
		c.Scan.Root = def.Scan.Root
	}
	if c.Scan.FileTimeoutSeconds <= 0 {
		c.Scan.FileTimeoutSeconds = def.Scan.FileTimeoutSeconds
	}
	if c.Watcher.IntervalSeconds <= 0 {
		c.Watcher.IntervalSeconds = def.Watcher.IntervalSeconds
	}
	if c.Watcher.GitDir == "" {
		c.Watcher.GitDir = def.Watcher.GitDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if model := os.Getenv("DRIFTWATCH_MODEL"); model != "" {
		c.LLM.Model = model
	}
}
