package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Server serves the WebSocket endpoint and health checks.
type Server struct {
	httpServer *http.Server
	manager    *SessionManager
}

// NewServer wires the session manager behind a CORS'd mux.
func NewServer(cfg ServerConfig, manager *SessionManager) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", manager.HandleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": manager.SessionCount(),
		})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           c.Handler(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		manager: manager,
	}
}

// ListenAndServe blocks serving HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("gateway listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
