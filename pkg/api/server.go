// Package api serves the RSV codec and row store over HTTP.
//
// Routes under /api/v1 require the X-API-Key header when a key is
// configured:
//
//	POST   /api/v1/encode       JSON rows in, RSV bytes out
//	POST   /api/v1/decode       RSV bytes in, JSON rows out
//	POST   /api/v1/rows         import an RSV stream into the row store
//	GET    /api/v1/rows         export the row store as RSV, or JSON with ?format=json
//	GET    /api/v1/rows/{id}    one stored row
//	DELETE /api/v1/rows/{id}    delete one stored row
//	GET    /api/v1/stats        row store statistics
//
// /health and /metrics are unauthenticated.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	defaultMaxRowSize = 1 << 20
	shutdownTimeout   = 10 * time.Second
)

// NewRouter builds the HTTP handler for server. gatherer backs /metrics;
// nil means the default Prometheus gatherer.
func NewRouter(server *Server, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metrics := server.metrics

	origins := server.config.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(server.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link", headerCompression},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", metrics.InstrumentHandler("GET", "/health", server.handleHealth))

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		// Codec
		r.Post("/encode", metrics.InstrumentHandler("POST", "/api/v1/encode", server.handleEncode))
		r.Post("/decode", metrics.InstrumentHandler("POST", "/api/v1/decode", server.handleDecode))

		// Row store
		r.Post("/rows", metrics.InstrumentHandler("POST", "/api/v1/rows", server.handleImport))
		r.Get("/rows", metrics.InstrumentHandler("GET", "/api/v1/rows", server.handleExport))
		r.Get("/rows/{id}", metrics.InstrumentHandler("GET", "/api/v1/rows/{id}", server.handleGetRow))
		r.Delete("/rows/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/rows/{id}", server.handleDeleteRow))

		// Diagnostics
		r.Get("/stats", metrics.InstrumentHandler("GET", "/api/v1/stats", server.handleStats))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, store IRowStore, config ServerConfig, logger zerolog.Logger, reg prometheus.Registerer) error {
	// Initialize metrics
	metrics := NewMetrics(reg)
	server := NewServer(store, config, metrics, logger)

	gatherer, _ := reg.(prometheus.Gatherer)
	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server, gatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start background metrics updater
	go server.startMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("starting RSV API server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down RSV API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
