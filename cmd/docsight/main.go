// Command docsight runs the document question-answering service: it indexes
// uploaded documents into a sqlite-vec store and serves answers with source
// attribution over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/docsight/docsight/config"
	"github.com/docsight/docsight/docstore"
	"github.com/docsight/docsight/embeddings"
	"github.com/docsight/docsight/embeddings/ollama"
	"github.com/docsight/docsight/embeddings/openai"
	"github.com/docsight/docsight/embeddings/simple"
	"github.com/docsight/docsight/extractor"
	"github.com/docsight/docsight/index"
	"github.com/docsight/docsight/llm/openaichat"
	"github.com/docsight/docsight/query"
	"github.com/docsight/docsight/server"
)

func main() {
	configPath := flag.String("config", "", "path to config yaml")
	addr := flag.String("addr", "", "listen address, overrides config")
	envFile := flag.String("env", ".env", "env file to load before reading config")
	mode := flag.String("mode", "dev", "logger mode: dev or prod")
	flag.Parse()

	if err := run(*configPath, *addr, *envFile, *mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, addr, envFile, mode string) error {
	// missing env file is fine, secrets may come from the environment
	_ = godotenv.Load(envFile)

	log, err := newLogger(mode)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	embedder, model, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	log.Infof("using %s embedder", cfg.Embedder.Provider)

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Database), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	store, err := docstore.New(
		docstore.WithDSN(cfg.Paths.Database),
		docstore.WithEmbedder(embedder),
		docstore.WithEmbeddingModel(model),
		docstore.WithLogf(log.Infof),
	)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	factory := extractor.NewFactory(
		extractor.WithChunkSize(cfg.Chunking.Size),
		extractor.WithChunkOverlap(cfg.Chunking.Overlap),
		extractor.WithLogf(log.Infof),
	)
	manager := index.New(store, factory, cfg.Paths.UploadDir, index.WithLogf(log.Infof))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := manager.LoadOrCreate(ctx); err != nil {
		return err
	}

	generator := newGenerator(cfg)
	qa := query.New(manager, generator,
		query.WithTopK(cfg.Retrieval.TopK),
		query.WithLogf(log.Infof),
	)

	srv := server.New(cfg, manager, qa, log)
	return srv.Run(ctx)
}

func newLogger(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func newEmbedder(cfg *config.Config) (embeddings.Embedder, string, error) {
	switch cfg.Embedder.Provider {
	case "openai":
		var opts []openai.Option
		if cfg.Embedder.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Embedder.BaseURL))
		}
		e := openai.New(cfg.Embedder.APIKey, cfg.Embedder.Model, opts...)
		return e, cfg.Embedder.Model, nil
	case "ollama":
		var opts []ollama.Option
		if cfg.Embedder.BaseURL != "" {
			opts = append(opts, ollama.WithBaseURL(cfg.Embedder.BaseURL))
		}
		e := ollama.New(cfg.Embedder.Model, opts...)
		return e, cfg.Embedder.Model, nil
	case "simple":
		return simple.New(cfg.Embedder.Dim), "simple", nil
	default:
		return nil, "", fmt.Errorf("unknown embedder provider %q", cfg.Embedder.Provider)
	}
}

func newGenerator(cfg *config.Config) *openaichat.Generator {
	var opts []openaichat.Option
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openaichat.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Temperature != 0 {
		opts = append(opts, openaichat.WithTemperature(cfg.LLM.Temperature))
	}
	return openaichat.New(cfg.LLM.APIKey, cfg.LLM.Model, opts...)
}
