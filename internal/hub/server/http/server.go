// Package http exposes the hub's API: socket status, verification requests,
// control and refresh, plus health probes, metrics and the live status feed.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plughub-io/plughub/internal/hub/core"
	"github.com/plughub-io/plughub/internal/hub/core/device"
	"github.com/plughub-io/plughub/internal/hub/core/protocol"
	"github.com/plughub-io/plughub/pkg/log"
	"github.com/plughub-io/plughub/pkg/options"
)

// SessionService is the slice of the session controller the API needs.
type SessionService interface {
	Status() device.Snapshot
	RequestVerification(ctx context.Context, intent protocol.Intent) core.Result
	Control(ctx context.Context, intent protocol.Intent, code string) core.Result
	Refresh(ctx context.Context) core.Result
}

// Server is the HTTP ingress.
type Server struct {
	server *http.Server
}

// NewServer builds the router and the underlying http.Server. pushFeed serves
// the WebSocket status feed; it may be nil in tests.
func NewServer(opts *options.HttpOptions, svc SessionService, pushFeed http.Handler) *Server {
	router := NewRouter(svc, pushFeed)

	return &Server{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: router,
			// Full read/write timeouts would kill the long-lived /ws
			// connections, so only header reads are bounded.
			ReadHeaderTimeout: opts.Timeout,
		},
	}
}

// NewRouter wires the API routes. Split from the Server so handler tests can
// drive it with httptest directly.
func NewRouter(svc SessionService, pushFeed http.Handler) *mux.Router {
	h := &handler{svc: svc}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.status).Methods(http.MethodGet)
	api.HandleFunc("/request_verification", h.requestVerification).Methods(http.MethodPost)
	api.HandleFunc("/control", h.control).Methods(http.MethodPost)
	api.HandleFunc("/refresh", h.refresh).Methods(http.MethodPost)

	if pushFeed != nil {
		router.Handle("/ws", pushFeed)
	}

	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return router
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
