package forward

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/trackforge/gatag/facade"
	"github.com/trackforge/gatag/ga"
	"github.com/trackforge/gatag/internal/observability"
)

// Service exposes the event intake over HTTP and hands accepted events to
// the integration.
type Service struct {
	cfg         Config
	integration *ga.Integration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewService creates the intake service.
func NewService(cfg Config, integration *ga.Integration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		integration: integration,
		metrics:     metrics,
		logger:      logger.With("component", "forward"),
	}
}

// Router builds the HTTP routes. metricsHandler, when non-nil, is mounted
// at /metrics.
func (s *Service) Router(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(observability.HTTPMetrics(s.metrics))
	}

	r.Get("/healthz", s.handleHealth)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Post("/v1/events", s.handleEvent)

	return r
}

// Run serves the router until the context is canceled, then shuts down
// gracefully within the configured timeout.
func (s *Service) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// eventRequest is the intake envelope. Type selects the operation; the
// remaining fields apply per type.
type eventRequest struct {
	Type       string                       `json:"type"`
	Name       string                       `json:"name,omitempty"`
	Category   string                       `json:"category,omitempty"`
	Event      string                       `json:"event,omitempty"`
	UserID     string                       `json:"userId,omitempty"`
	Traits     facade.Properties            `json:"traits,omitempty"`
	Properties facade.Properties            `json:"properties,omitempty"`
	Context    facade.Context               `json:"context,omitempty"`
	Options    map[string]facade.Properties `json:"options,omitempty"`
}

func (s *Service) handleEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.reject(w, r, "invalid", "invalid request body")
		return
	}

	switch req.Type {
	case "page":
		s.integration.Page(&facade.Page{
			Name:       req.Name,
			Category:   req.Category,
			Properties: req.Properties,
			Context:    req.Context,
		})
	case "identify":
		if req.UserID == "" && len(req.Traits) == 0 {
			s.reject(w, r, req.Type, "userId or traits is required")
			return
		}
		s.integration.Identify(&facade.Identify{
			UserID: req.UserID,
			Traits: req.Traits,
		})
	case "track":
		if req.Event == "" {
			s.reject(w, r, req.Type, "event is required")
			return
		}
		s.integration.HandleTrack(&facade.Track{
			Event:      req.Event,
			Properties: req.Properties,
			Context:    req.Context,
			Options:    req.Options,
		})
	default:
		s.reject(w, r, req.Type, "unknown event type")
		return
	}

	if s.metrics != nil {
		s.metrics.EventsReceived.Add(r.Context(), 1, otelmetric.WithAttributes(
			attribute.String("type", req.Type),
		))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted"})
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request, eventType, reason string) {
	if s.metrics != nil {
		s.metrics.EventsRejected.Add(r.Context(), 1, otelmetric.WithAttributes(
			attribute.String("type", eventType),
		))
	}
	s.logger.Warn("rejected event", "type", eventType, "reason", reason)
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"status": "rejected",
		"error":  reason,
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"loaded": s.integration.Loaded(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
