// Package web provides the HTTP API for campbook.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/evcraddock/campbook/internal/availability"
	"github.com/evcraddock/campbook/internal/calday"
	"github.com/evcraddock/campbook/internal/logging"
)

// Server is the campbook HTTP API server.
type Server struct {
	svc      *availability.Service
	clock    calday.Clock
	resync   func()
	validate *validator.Validate
	router   *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithResync exposes POST /api/resync, which calls fn to schedule a full
// reload of the availability index.
func WithResync(fn func()) Option {
	return func(s *Server) { s.resync = fn }
}

// NewServer creates an API server over svc. clock supplies "today" when a
// request does not name a date.
func NewServer(svc *availability.Service, clock calday.Clock, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		clock:    clock,
		validate: newValidator(),
		router:   mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(logging.RequestLogger)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/units", s.apiListUnits).Methods(http.MethodGet)
	api.HandleFunc("/units/{id}/status", s.apiUnitStatus).Methods(http.MethodGet)
	api.HandleFunc("/units/{id}/calendar.ics", s.apiUnitICS).Methods(http.MethodGet)
	api.HandleFunc("/calendar", s.apiCalendar).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.apiSummary).Methods(http.MethodGet)

	api.HandleFunc("/reservations", s.apiCreateReservation).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}", s.apiGetReservation).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}", s.apiUpdateReservation).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{id}", s.apiDeleteReservation).Methods(http.MethodDelete)
	api.HandleFunc("/reservations/{id}/checkin", s.apiCheckIn).Methods(http.MethodPost)

	if s.resync != nil {
		api.HandleFunc("/resync", s.apiResync).Methods(http.MethodPost)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", "not_found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", "method_not_allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("http server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{
		"status": "ok",
		"index":  s.svc.Index().Health().String(),
	}, http.StatusOK)
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
