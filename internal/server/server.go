package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/predictify/predictify/internal/database"
	"github.com/predictify/predictify/internal/handler"
	"github.com/predictify/predictify/internal/logger"
	"github.com/predictify/predictify/internal/market"
	"github.com/predictify/predictify/internal/metrics"
	"github.com/predictify/predictify/internal/payout"
	"github.com/predictify/predictify/internal/vault"
)

type Server struct {
	httpServer    *http.Server
	dbPool        database.Pool
	marketService market.Service
	vaultService  vault.Service
	distributor   payout.Distributor
}

// NewServer creates a new Server instance
func NewServer(port int, apiKey string, dbPool database.Pool, marketService market.Service, vaultService vault.Service, distributor payout.Distributor) *Server {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		marketHandler := handler.NewMarketHandler(marketService, distributor)
		r.Route("/market", func(r chi.Router) {
			r.Post("/create", marketHandler.HandleCreateMarket)
			r.Post("/bet", marketHandler.HandlePlaceBet)
			r.Post("/resolve", marketHandler.HandleResolveMarket)
			r.Post("/resolve-oracle", marketHandler.HandleResolveMarketOracle)
			r.Post("/cancel", marketHandler.HandleCancelMarket)
			r.Post("/retry-refunds", marketHandler.HandleRetryRefunds)
			r.Post("/distribute", marketHandler.HandleDistributePayouts)
			r.Post("/retry-payout", marketHandler.HandleRetryPayout)
			r.Get("/get", marketHandler.HandleGetMarket)
			r.Get("/list", marketHandler.HandleListMarkets)
		})

		vaultHandler := handler.NewVaultHandler(vaultService)
		r.Route("/vault", func(r chi.Router) {
			r.Post("/collect-fees", vaultHandler.HandleCollectFees)
			r.Post("/withdraw", vaultHandler.HandleWithdrawFees)
			r.Get("/balance", vaultHandler.HandleGetBalance)
		})
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool:        dbPool,
		marketService: marketService,
		vaultService:  vaultService,
		distributor:   distributor,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
