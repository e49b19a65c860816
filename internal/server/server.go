// Package server exposes the annotator over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// SetupRouter registers the API routes
func SetupRouter(h *Handler, log *logrus.Logger) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(Recovery(log))

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/terms", h.ListTerms)
		api.POST("/annotate", h.Annotate)
	}

	return router
}

// Run serves router on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, router http.Handler, log *logrus.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
