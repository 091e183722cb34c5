package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docsight/docsight/index"
	"github.com/docsight/docsight/query"
)

// UploadResponse reports the outcome of an upload.
type UploadResponse struct {
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentInfo describes an uploaded file.
type DocumentInfo struct {
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"upload_date"`
	Indexed    bool      `json:"indexed"`
}

// QueryRequest is the question payload.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// QueryResponse carries the answer, its sources and the processing time in
// seconds.
type QueryResponse struct {
	Answer         string         `json:"answer"`
	Sources        []query.Source `json:"sources"`
	ProcessingTime float64        `json:"processing_time"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type restoreRequest struct {
	BackupPath string `json:"backup_path" binding:"required"`
}

func (s *Server) handleHealth(c *gin.Context) {
	documents := 0
	if stats, err := s.manager.Stats(c.Request.Context()); err == nil {
		documents = stats.TotalChunks
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"version":   version,
		"documents": documents,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Username != s.cfg.Auth.AdminUsername || req.Password != s.cfg.Auth.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
		return
	}
	token, err := s.tokens.Issue(req.Username)
	if err != nil {
		s.log.Errorw("issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	answer, sources, elapsed, err := s.qa.Answer(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, index.ErrNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "index is not ready"})
			return
		}
		s.log.Errorw("query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, QueryResponse{
		Answer:         answer,
		Sources:        sources,
		ProcessingTime: elapsed.Seconds(),
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	filename := filepath.Base(file.Filename)
	if !s.manager.Supported(filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file type %s not allowed, allowed types: %v", filepath.Ext(filename), s.manager.Extensions()),
		})
		return
	}
	if err := os.MkdirAll(s.cfg.Paths.UploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	path := filepath.Join(s.cfg.Paths.UploadDir, filename)
	if _, err := os.Stat(path); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file %q already exists, rename or delete the existing file", filename),
		})
		return
	}
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ok, err := s.manager.AddDocument(c.Request.Context(), path)
	if err != nil || !ok {
		// keep the upload dir consistent with the index
		_ = os.Remove(path)
		if err != nil {
			s.log.Errorw("index upload", "file", filename, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, UploadResponse{
			Filename:  filename,
			Status:    "error",
			Message:   fmt.Sprintf("Failed to index document %q", filename),
			Timestamp: time.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, UploadResponse{
		Filename:  filename,
		Status:    "success",
		Message:   fmt.Sprintf("Document %q uploaded and indexed successfully", filename),
		Timestamp: time.Now(),
	})
}

func (s *Server) handleListDocuments(c *gin.Context) {
	entries, err := os.ReadDir(s.cfg.Paths.UploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusOK, []DocumentInfo{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	documents := make([]DocumentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		documents = append(documents, DocumentInfo{
			Filename:   entry.Name(),
			Type:       filepath.Ext(entry.Name()),
			Size:       info.Size(),
			UploadDate: info.ModTime(),
			Indexed:    true,
		})
	}
	sort.Slice(documents, func(i, j int) bool {
		return documents[i].UploadDate.After(documents[j].UploadDate)
	})
	c.JSON(http.StatusOK, documents)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(s.cfg.Paths.UploadDir, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if err := os.Remove(path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := s.manager.DeleteDocument(c.Request.Context(), filename); err != nil {
		s.log.Errorw("delete from index", "file", filename, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Document %q deleted successfully", filename)})
}

func (s *Server) handleRebuildIndex(c *gin.Context) {
	if err := s.manager.RebuildFromUploads(c.Request.Context()); err != nil {
		s.log.Errorw("rebuild index", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index rebuilt successfully", "status": "success"})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.manager.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	uploaded := 0
	if entries, err := os.ReadDir(s.cfg.Paths.UploadDir); err == nil {
		uploaded = len(entries)
	}
	c.JSON(http.StatusOK, gin.H{
		"total_chunks":       stats.TotalChunks,
		"index_loaded":       stats.IndexLoaded,
		"query_engine_ready": stats.Ready,
		"uploaded_files":     uploaded,
		"sample_metadata":    stats.SampleMetadata,
	})
}

func (s *Server) handleBackup(c *gin.Context) {
	if err := os.MkdirAll(s.cfg.Paths.BackupDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	target := filepath.Join(s.cfg.Paths.BackupDir,
		fmt.Sprintf("docsight_backup_%s.sqlite", time.Now().Format("20060102_150405")))
	if err := s.manager.Backup(c.Request.Context(), target); err != nil {
		s.log.Errorw("backup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create backup"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup created successfully", "backup_path": target})
}

func (s *Server) handleRestore(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "backup_path is required"})
		return
	}
	if err := s.manager.Restore(c.Request.Context(), req.BackupPath); err != nil {
		s.log.Errorw("restore", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Backup restored successfully"})
}
