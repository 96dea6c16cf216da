// Package statusserver exposes a Worker Pool's progress over a small
// read-only HTTP endpoint, for a caller that wants to poll
// materialization progress from another process instead of linking
// against this Engine directly.
package statusserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"

	"github.com/brackenforge/mcengine/internal/pool"
)

// Progress is the subset of Pool the server reads. Kept as an
// interface so tests can substitute a fake without spinning up a real
// worker pool.
type Progress interface {
	BytesTotal() int64
	BytesProcessed() int64
	Progress() float64
	Error() bool
}

var _ Progress = (*pool.Pool)(nil)

// Server serves a single GET /status endpoint reporting a Pool's
// current byte counters.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	log    logr.Logger
}

// New builds a Server backed by p, listening on addr (e.g. ":8080").
func New(p Progress, addr string, log logr.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"bytes_total":     p.BytesTotal(),
			"bytes_processed": p.BytesProcessed(),
			"progress":        p.Progress(),
			"error":           p.Error(),
		})
	})

	return &Server{
		engine: router,
		http:   &http.Server{Addr: addr, Handler: router},
		log:    log,
	}
}

// Run starts serving until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Error(err, "status server shutdown")
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
