package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"zigbee-endpoint/internal/device"
	"zigbee-endpoint/internal/link"
	"zigbee-endpoint/internal/zcl"
)

// ServerOption configures the web server.
type ServerOption func(*Server)

// WithAPIKey enables API key authentication.
func WithAPIKey(key string) ServerOption {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithAllowedOrigins sets allowed WebSocket origin patterns.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithRegistry exposes cluster definitions on /api/clusters.
func WithRegistry(reg *zcl.Registry) ServerOption {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithVersion sets the application version string.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = v
	}
}

// Server is the HTTP monitor of one endpoint: a JSON API over the device state and a
// WebSocket stream of processed frames.
type Server struct {
	disp           *link.Dispatcher
	registry       *zcl.Registry
	wsHub          *WSHub
	logger         *slog.Logger
	mux            *http.ServeMux
	apiKey         string
	allowedOrigins []string
	version        string
	wg             sync.WaitGroup
}

// NewServer creates a new web server.
func NewServer(disp *link.Dispatcher, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		disp:   disp,
		logger: logger.With("component", "web"),
		mux:    http.NewServeMux(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.wsHub = NewWSHub(s.logger)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.wsHub.Run()
	}()

	s.routes()
	return s
}

// Observer returns a device observer that streams results to WebSocket clients.
func (s *Server) Observer() device.Observer {
	return device.ObserverFunc(func(res device.Result, err error) {
		ev := Event{Type: EventFrame, ClusterID: res.ClusterID, Data: frameEvent{Result: res}}
		if err != nil {
			ev.Data = frameEvent{Result: res, Error: err.Error()}
		}
		s.wsHub.Broadcast(ev)
	})
}

// Stop gracefully shuts down the WebSocket hub and waits for goroutines.
func (s *Server) Stop() {
	s.wsHub.Stop()
	s.wg.Wait()
}

func (s *Server) routes() {
	// REST API
	s.mux.HandleFunc("GET /api/endpoint", s.handleAPIEndpoint)
	s.mux.HandleFunc("GET /api/endpoint/clusters/{cluster}", s.handleAPICluster)
	s.mux.HandleFunc("PUT /api/endpoint/clusters/{cluster}/attributes/{attr}", s.handleAPISetAttribute)
	s.mux.HandleFunc("GET /api/endpoint/pending", s.handleAPIPending)
	s.mux.HandleFunc("POST /api/endpoint/frame", s.handleAPIFrame)
	s.mux.HandleFunc("GET /api/clusters", s.handleAPIListClusters)
	s.mux.HandleFunc("GET /api/version", s.handleAPIVersion)

	// WebSocket
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

// ServeHTTP implements http.Handler, applying auth and CORS middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS: check Origin on mutating requests to prevent CSRF.
	if len(s.allowedOrigins) > 0 {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if r.Method == http.MethodOptions {
				// Preflight request.
				if s.isOriginAllowed(origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "3600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if r.Method != http.MethodGet {
				if !s.isOriginAllowed(origin) {
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
	}

	// WebSocket upgrades cannot carry custom headers, so only /api/ is key-protected.
	if s.apiKey != "" && strings.HasPrefix(r.URL.Path, "/api/") {
		key := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}
	s.mux.ServeHTTP(w, r)
}

// isOriginAllowed checks if the origin matches any allowed origin pattern.
func (s *Server) isOriginAllowed(origin string) bool {
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func (s *Server) snapshot() device.Snapshot {
	var snap device.Snapshot
	s.disp.View(func(d *device.Device) { snap = d.Snapshot() })
	return snap
}
