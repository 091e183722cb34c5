// Package server exposes the document question-answering service over HTTP:
// an open query endpoint and a token-guarded admin surface for document
// management.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docsight/docsight/config"
	"github.com/docsight/docsight/index"
	"github.com/docsight/docsight/query"
)

const version = "1.0.0"

// Server wires the HTTP surface to the index manager and query engine.
type Server struct {
	cfg     *config.Config
	manager *index.Manager
	qa      *query.Engine
	tokens  *TokenService
	log     *zap.SugaredLogger
	engine  *gin.Engine
}

// New builds the router.
func New(cfg *config.Config, manager *index.Manager, qa *query.Engine, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		qa:      qa,
		tokens:  NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL),
		log:     log,
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(log))
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	engine.GET("/health", s.handleHealth)

	api := engine.Group("/api")
	api.POST("/login", s.handleLogin)
	api.POST("/query", s.handleQuery)

	admin := api.Group("/admin", RequireAuth(s.tokens))
	admin.POST("/upload", s.handleUpload)
	admin.GET("/documents", s.handleListDocuments)
	admin.DELETE("/documents/:filename", s.handleDeleteDocument)
	admin.POST("/rebuild-index", s.handleRebuildIndex)
	admin.GET("/stats", s.handleStats)
	admin.POST("/backup", s.handleBackup)
	admin.POST("/restore", s.handleRestore)

	s.engine = engine
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.engine,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
