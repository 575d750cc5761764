package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbodonnell/wager/pkg/api/handlers"
	"github.com/cbodonnell/wager/pkg/api/middleware"
	"github.com/cbodonnell/wager/pkg/log"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port      int
	TLS       *TLSConfig
	Sessions  handlers.Sessions
	Tracker   handlers.EngagementReleaser
	Wallets   handlers.Wallets
	Arenas    handlers.Arenas
	WebSocket handlers.WebSocketServer
	// Metrics and Gatherer are optional.
	Metrics  middleware.RequestRecorder
	Gatherer prometheus.Gatherer
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the routes served by the APIServer.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	router := mux.NewRouter()
	// websocket connections live for the whole session and are kept out of
	// the request metrics
	router.HandleFunc("/ws/{partyID}", handlers.HandleWebSocket(opts.WebSocket)).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(middleware.NewLoggingMiddleware())
	if opts.Metrics != nil {
		api.Use(middleware.NewMetricsMiddleware(opts.Metrics))
	}
	api.HandleFunc("/sessions", handlers.HandleCreateSession(opts.Sessions)).Methods(http.MethodPost)
	api.HandleFunc("/parties/{partyID}/session", handlers.HandleGetSession(opts.Sessions)).Methods(http.MethodGet)
	api.HandleFunc("/parties/{partyID}/disconnect", handlers.HandleDisconnect(opts.Sessions)).Methods(http.MethodPost)
	api.HandleFunc("/parties/{partyID}/engagement", handlers.HandleReleaseEngagement(opts.Tracker)).Methods(http.MethodDelete)
	api.HandleFunc("/parties/{partyID}/wallet", handlers.HandleGetWallet(opts.Wallets)).Methods(http.MethodGet)
	api.HandleFunc("/parties/{partyID}/wallet/credit", handlers.HandleCreditWallet(opts.Wallets)).Methods(http.MethodPost)
	api.HandleFunc("/arenas", handlers.HandleListArenas(opts.Arenas)).Methods(http.MethodGet)
	if opts.Gatherer != nil {
		api.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return router
}

// Start serves until Stop is called.
func (s *APIServer) Start() error {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return nil
		}
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
