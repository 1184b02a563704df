package rest

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nemanja-m/gopool/internal/admin"
	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
)

type API struct {
	pool     admin.PoolStatus
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

func NewAPI(pool admin.PoolStatus, gatherer prometheus.Gatherer, logger logging.Logger) *API {
	return &API{
		pool:     pool,
		gatherer: gatherer,
		logger:   logger,
	}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.health)
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{
		ErrorLog: promErrorLogger{a.logger},
	}))
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  StatusServing,
		PoolID:  a.pool.ID().String(),
		Name:    a.pool.Name(),
		State:   a.pool.State().String(),
		Workers: a.pool.Size(),
		Alive:   a.pool.Alive(),
		Pending: a.pool.Pending(),
	}

	code := http.StatusOK
	if !admin.Serving(a.pool) {
		resp.Status = StatusNotServing
		code = http.StatusServiceUnavailable
	}
	a.respondJSON(w, code, resp)
}

func (a *API) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Warn("Failed to encode response", "error", err)
	}
}

// promErrorLogger adapts the service logger to promhttp's error log.
type promErrorLogger struct {
	logger logging.Logger
}

func (l promErrorLogger) Println(v ...any) {
	l.logger.Error("Failed to serve metrics", "error", v)
}

func NewServer(
	cfg config.RESTConfig,
	pool admin.PoolStatus,
	gatherer prometheus.Gatherer,
	logger logging.Logger,
) *http.Server {
	api := NewAPI(pool, gatherer, logger)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	handler := ChainMiddleware(
		mux,
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
	)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
