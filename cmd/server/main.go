// Command server exposes the screening engine over HTTP: a gorilla/mux
// router with JWT-gated /v1 endpoints, Prometheus metrics, and a
// background loop that periodically rebuilds the index and atomically
// swaps it into the live orchestrator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sanctions-screening/internal/cache"
	"sanctions-screening/internal/config"
	"sanctions-screening/internal/ingest"
	"sanctions-screening/internal/matching"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/normalize"
	"sanctions-screening/internal/observability"
	"sanctions-screening/internal/screening"
	"sanctions-screening/internal/store"
	"sanctions-screening/internal/validation"
)

// analystClaims is the JWT payload expected on authenticated requests:
// the analyst identifier is echoed into every ScreeningInput so audit
// trails can attribute a screening to the caller that requested it.
type analystClaims struct {
	Analyst string `json:"analyst"`
	jwt.RegisteredClaims
}

// Server wires the HTTP surface to a hot-swappable Orchestrator.
type Server struct {
	cfg          *config.Config
	watcher      *config.Watcher
	logger       *observability.Logger
	httpServer   *http.Server
	orchestrator atomic.Pointer[screening.Orchestrator]
	historyStore store.ScreeningHistoryStore
	distCache    *cache.Cache
}

// currentConfig returns the watcher's live config when a config file is
// being hot-watched, or the config captured at startup otherwise.
func (s *Server) currentConfig() *config.Config {
	if s.watcher != nil {
		return s.watcher.Current()
	}
	return s.cfg
}

func newServer(cfg *config.Config, watcher *config.Watcher, logger *observability.Logger, hs store.ScreeningHistoryStore, c *cache.Cache) *Server {
	s := &Server{cfg: cfg, watcher: watcher, logger: logger, historyStore: hs, distCache: c}

	router := mux.NewRouter()
	s.setupRoutes(router)

	s.httpServer = &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes(router *mux.Router) {
	router.Use(s.requestLogMiddleware)
	if s.cfg.Server.RequireAuth {
		router.Use(s.jwtMiddleware)
	}

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/v1/screen", s.handleScreen).Methods("POST")
	router.HandleFunc("/v1/screenings/{id}", s.handleGetScreening).Methods("GET")
}

func (s *Server) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

func (s *Server) jwtMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "missing or malformed Authorization header", http.StatusUnauthorized)
			return
		}

		claims := &analystClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.Server.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), analystContextKey, claims.Analyst)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type contextKey string

const analystContextKey contextKey = "analyst"

func analystFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(analystContextKey).(string); ok {
		return v
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	o := s.orchestrator.Load()
	status := "ready"
	if o == nil {
		status = "loading"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "sanctions-screening",
	})
}

type screenRequest struct {
	Name           string `json:"name"`
	Document       string `json:"document"`
	DocumentType   string `json:"document_type"`
	DateOfBirth    string `json:"date_of_birth"`
	Nationality    string `json:"nationality"`
	Country        string `json:"country"`
	Limit          int    `json:"limit"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	o := s.orchestrator.Load()
	if o == nil {
		http.Error(w, "index not yet loaded", http.StatusServiceUnavailable)
		return
	}

	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed JSON body", http.StatusBadRequest)
		return
	}

	input := models.ScreeningInput{
		Name:           req.Name,
		DocumentNumber: req.Document,
		DocumentType:   req.DocumentType,
		DateOfBirth:    req.DateOfBirth,
		Nationality:    req.Nationality,
		Country:        req.Country,
		Analyst:        analystFromContext(r.Context()),
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.currentConfig().Matching.DefaultLimit
	}

	resp, coreErr := o.Screen(r.Context(), input, limit)
	if coreErr != nil {
		writeJSON(w, httpStatusForCode(coreErr.Code), coreErr)
		return
	}

	if s.historyStore != nil {
		if err := s.historyStore.SaveScreening(r.Context(), resp); err != nil {
			s.logger.WithError(err).Warn("failed to persist screening history")
		}
	}
	if s.distCache != nil {
		if err := s.distCache.PushRecentScreening(r.Context(), resp.ScreeningID, int64(s.currentConfig().Performance.RecentScreeningsCap)); err != nil {
			s.logger.WithError(err).Warn("failed to push recent screening to distributed cache")
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetScreening(w http.ResponseWriter, r *http.Request) {
	if s.historyStore == nil {
		http.Error(w, "screening history is not configured", http.StatusNotImplemented)
		return
	}
	id := mux.Vars(r)["id"]
	resp, err := s.historyStore.GetScreening(r.Context(), id)
	if err != nil {
		s.logger.WithError(err).Error("failed to read screening history")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if resp == nil {
		http.Error(w, "screening not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func httpStatusForCode(code models.ErrorCode) int {
	switch code {
	case models.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// reload runs one ingestion pass against the live config and, on
// success, atomically swaps in a freshly built Orchestrator. Picking up
// currentConfig() on every call means a matching/input_validation edit
// picked up by the Watcher takes effect on the very next reload, without
// a restart.
func (s *Server) reload(ctx context.Context, logger *observability.Logger) {
	cfg := s.currentConfig()
	idx, stats, err := ingest.NewPipeline(cfg, logger).Run(ctx)
	if err != nil {
		logger.WithError(err).Error("index reload failed, keeping previous index in place")
		return
	}

	validator := validation.New(cfg, logger)
	engine := matching.New(idx, cfg)
	orchestrator := screening.New(validator, engine, logger, cfg.Performance.RecentScreeningsCap)
	s.orchestrator.Store(orchestrator)

	logger.WithFields(map[string]interface{}{
		"entity_count": stats.EntityCount,
	}).Info("index reloaded")

	if s.distCache != nil {
		normalized := make([]string, 0, len(cfg.Matching.CommonNames))
		for _, n := range cfg.Matching.CommonNames {
			if norm := normalize.Name(n); norm != "" {
				normalized = append(normalized, norm)
			}
		}
		if err := s.distCache.SetCommonNames(ctx, normalized); err != nil {
			logger.WithError(err).Warn("failed to publish common names to distributed cache")
		}
	}
}

func (s *Server) reloadLoop(ctx context.Context, logger *observability.Logger) {
	interval := s.currentConfig().Server.ReloadInterval
	if interval <= 0 {
		interval = s.currentConfig().Data.UpdateFrequency
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reload(ctx, logger)
		}
	}
}

// Start begins serving HTTP traffic. It blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"addr": s.httpServer.Addr,
	}).Info("starting sanctions-screening server")
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping sanctions-screening server")
	return s.httpServer.Shutdown(ctx)
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	logger := observability.NewLogger(os.Getenv("SCREENING_ENV") != "production")
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	var watcher *config.Watcher
	if *configPath != "" {
		watcher, err = config.NewWatcher(*configPath, func(err error) {
			logger.WithError(err).Warn("config watcher failed to reload config file")
		})
		if err != nil {
			logger.WithError(err).Error("failed to start config watcher")
			os.Exit(1)
		}
		defer watcher.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	historyStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to open screening history store")
		os.Exit(1)
	}
	if historyStore != nil {
		defer historyStore.Close()
	}

	distCache, err := cache.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to connect to distributed cache")
		os.Exit(1)
	}
	if distCache != nil {
		defer distCache.Close()
	}

	srv := newServer(cfg, watcher, logger, historyStore, distCache)
	srv.reload(ctx, logger)
	go srv.reloadLoop(ctx, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.WithError(err).Error("server exited unexpectedly")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
}
