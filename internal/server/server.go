package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driftwatch/internal/changelog"
	"driftwatch/internal/git"
	"driftwatch/internal/indexer"
)

const shutdownTimeout = 5 * time.Second

// Server exposes the changelog, git controls, and namespace scans over
// HTTP for the dashboard.
type Server struct {
	repo    *git.Repo
	builder *indexer.Builder
	reader  *changelog.Reader
	hub     *hub
	logger  *slog.Logger
	version string
}

func New(repo *git.Repo, builder *indexer.Builder, reader *changelog.Reader, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		repo:    repo,
		builder: builder,
		reader:  reader,
		hub:     newHub(logger),
		logger:  logger,
		version: version,
	}
}

// Router builds the gin engine with all API routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/changes", s.handleListChanges)
		api.GET("/changes/stream", s.handleChangesStream)
		api.GET("/changes/:id", s.handleChangeDetail)
		api.GET("/commits", s.handleListCommits)
		api.GET("/commits/:hash", s.handleCommitDetail)
		api.GET("/status", s.handleStatus)
		api.POST("/checkout", s.handleCheckout)
		api.GET("/namespaces", s.handleNamespaces)
		api.GET("/namespaces/diff", s.handleNamespacesDiff)
	}
	return router
}

// Run serves until ctx is canceled, then shuts down gracefully. A live
// tail of the changelog directory feeds the websocket stream.
func (s *Server) Run(ctx context.Context, addr string, tail *changelog.Tail) error {
	if tail != nil {
		go func() {
			if err := tail.Run(ctx); err != nil {
				s.logger.Error("changelog tail failed", "error", err)
			}
		}()
		go func() {
			for entry := range tail.Entries() {
				s.hub.broadcast(entry)
			}
		}()
	}

	srv := &http.Server{Addr: addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
