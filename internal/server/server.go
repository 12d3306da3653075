// Package server exposes the GraphQL API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hmans/shelf/internal/config"
	"github.com/hmans/shelf/internal/graph"
	"github.com/hmans/shelf/internal/store"
)

// NewRouter builds the HTTP routes:
//   - POST /graphql executes operations
//   - GET /graphql executes the operation in its query parameter, or serves
//     the GraphQL playground when there is none
//   - GET /healthz reports whether the store is reachable
func NewRouter(cfg config.ServerConfig, resolver *graph.Resolver, logger zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		RequestLogger(logger),
		Recovery(),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
		Timeout(cfg.RequestTimeout),
	)

	gql := gin.WrapH(graph.NewHandler(resolver))
	router.POST("/graphql", gql)
	router.GET("/graphql", withPlayground(gql, playground.Handler("Shelf GraphQL", "/graphql")))
	router.OPTIONS("/graphql", gql)
	router.GET("/healthz", healthz(resolver.Store))

	return router
}

func withPlayground(api gin.HandlerFunc, ui http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("query") == "" {
			ui(c.Writer, c.Request)
			return
		}
		api(c)
	}
}

func healthz(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.Ping(ctx); err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.ServerConfig, resolver *graph.Resolver, logger zerolog.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(cfg, resolver, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info().Msg("server stopped")
	}

	return nil
}
