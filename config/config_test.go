package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Chunking.Size != 1024 || cfg.Chunking.Overlap != 200 {
		t.Fatalf("chunking = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Fatalf("top_k = %d", cfg.Retrieval.TopK)
	}
	if cfg.Auth.TokenTTL != 60*time.Minute {
		t.Fatalf("token ttl = %s", cfg.Auth.TokenTTL)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.Paths.UploadDir != "data/uploads" {
		t.Fatalf("upload dir = %q", cfg.Paths.UploadDir)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
auth:
  admin_username: admin
  admin_password: secret
  secret_key: signing-key
chunking:
  size: 512
  overlap: 64
retrieval:
  top_k: 4
embedder:
  provider: simple
  dim: 32
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Chunking.Size != 512 || cfg.Chunking.Overlap != 64 {
		t.Fatalf("chunking = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 4 {
		t.Fatalf("top_k = %d", cfg.Retrieval.TopK)
	}
	if cfg.Embedder.Provider != "simple" || cfg.Embedder.Dim != 32 {
		t.Fatalf("embedder = %+v", cfg.Embedder)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoad_EnvSecrets(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "ops")
	t.Setenv("ADMIN_PASSWORD", "pw")
	t.Setenv("SECRET_KEY", "sk")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.AdminUsername != "ops" || cfg.Auth.AdminPassword != "pw" || cfg.Auth.SecretKey != "sk" {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_MissingSecrets(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("SECRET_KEY", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
