// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package viewer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server exposes a local PDF corpus under /pdfs/ so DocumentRef URLs
// resolve without the collaborator's static host.
type Server struct {
	dir    string
	log    *zap.Logger
	router *gin.Engine
}

// NewServer returns a server for the PDFs in dir.
func NewServer(dir string, log *zap.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening pdf directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pdf directory %s is not a directory", dir)
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{dir: dir, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/pdfs/:filename", s.servePDF)
	r.HEAD("/pdfs/:filename", s.servePDF)
	s.router = r

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info("serving pdfs", zap.String("addr", addr), zap.String("dir", s.dir))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) servePDF(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!strings.EqualFold(filepath.Ext(name), ".pdf") {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}

	path := filepath.Join(s.dir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "paper not found"})
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.File(path)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)),
	)
}
