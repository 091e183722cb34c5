// Package config loads service configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Auth      Auth      `yaml:"auth"`
	Paths     Paths     `yaml:"paths"`
	Embedder  Embedder  `yaml:"embedder"`
	LLM       LLM       `yaml:"llm"`
	Chunking  Chunking  `yaml:"chunking"`
	Retrieval Retrieval `yaml:"retrieval"`
}

// Server holds HTTP listener settings.
type Server struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// Auth holds admin credentials and token settings. Secrets default to the
// ADMIN_USERNAME, ADMIN_PASSWORD and SECRET_KEY environment variables.
type Auth struct {
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
	SecretKey     string        `yaml:"secret_key"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
}

// Paths holds filesystem locations.
type Paths struct {
	UploadDir string `yaml:"upload_dir"`
	Database  string `yaml:"database"`
	BackupDir string `yaml:"backup_dir"`
}

// Embedder selects and configures the embedding backend.
type Embedder struct {
	Provider string `yaml:"provider"` // openai, ollama or simple
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Dim      int    `yaml:"dim"` // simple provider only
}

// LLM configures the chat completion backend.
type LLM struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
}

// Chunking controls the text splitter.
type Chunking struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// Retrieval controls similarity search.
type Retrieval struct {
	TopK int `yaml:"top_k"`
}

// Load reads the YAML file at path and applies defaults. An empty path
// yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Auth.AdminUsername == "" {
		c.Auth.AdminUsername = os.Getenv("ADMIN_USERNAME")
	}
	if c.Auth.AdminPassword == "" {
		c.Auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if c.Auth.SecretKey == "" {
		c.Auth.SecretKey = os.Getenv("SECRET_KEY")
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 60 * time.Minute
	}
	if c.Paths.UploadDir == "" {
		c.Paths.UploadDir = "data/uploads"
	}
	if c.Paths.Database == "" {
		c.Paths.Database = "data/vector_db/docsight.sqlite"
	}
	if c.Paths.BackupDir == "" {
		c.Paths.BackupDir = "data/backups"
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = "openai"
	}
	if c.Embedder.Dim == 0 {
		c.Embedder.Dim = 384
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.3-70b-versatile"
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 1024
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 10
	}
}

// Validate checks settings that have no workable default.
func (c *Config) Validate() error {
	if c.Auth.AdminUsername == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("config: admin credentials are required (ADMIN_USERNAME, ADMIN_PASSWORD)")
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("config: token signing key is required (SECRET_KEY)")
	}
	return nil
}
