package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/fedexbridge/internal/telemetry"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CredentialAdmin reads and replaces the provider credentials.
type CredentialAdmin interface {
	Resolve(ctx context.Context) shipper.Credentials
	Save(ctx context.Context, creds shipper.Credentials) (bool, error)
}

// Server is the HTTP server for the fulfillment bridge.
type Server struct {
	port     int
	provider shipper.Shipper
	admin    CredentialAdmin
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	router   *mux.Router
}

// Config holds server configuration.
type Config struct {
	Port int
}

// New creates a new server instance.
func New(cfg Config, provider shipper.Shipper, admin CredentialAdmin, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	s := &Server{
		port:     cfg.Port,
		provider: provider,
		admin:    admin,
		logger:   logger,
		metrics:  metrics,
	}
	s.initializeRoutes()

	return s
}

func (s *Server) initializeRoutes() {
	s.router = mux.NewRouter()
	s.router.Use(s.logRequests)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/admin/fedex", s.handleGetCredentials).Methods(http.MethodGet)
	s.router.HandleFunc("/admin/fedex", s.handleSaveCredentials).Methods(http.MethodPost)

	f := s.router.PathPrefix("/fulfillment").Subrouter()
	f.HandleFunc("/options", s.handleOptions).Methods(http.MethodGet)
	f.HandleFunc("/can-calculate", s.handleCanCalculate).Methods(http.MethodGet)
	f.HandleFunc("/services", s.handleServices).Methods(http.MethodGet)
	f.HandleFunc("/calculate", s.handleCalculate).Methods(http.MethodPost)
	f.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	f.HandleFunc("/create", s.handleCreate).Methods(http.MethodPost)
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Ctx(r.Context()).Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// record updates request metrics for one provider operation.
func (s *Server) record(operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		code := shipper.CodeOf(err)
		if code == "" {
			code = "UNKNOWN"
		}
		s.metrics.RecordError(operation, code)
	}
	s.metrics.RecordRequest(operation, status, time.Since(start).Seconds())
}
