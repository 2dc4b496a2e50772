package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"airbnb-dashboard/utils"
)

// Server is the dashboard HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *utils.Logger
}

// NewRouter wires the dashboard pages and the JSON API.
func NewRouter(h *Handlers, allowedOrigins []string, logger *utils.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(logger), middleware.Recoverer)

	r.Get("/", h.Home)
	r.Get("/search", h.Search)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", traceHeader},
			ExposedHeaders: []string{traceHeader},
			MaxAge:         300,
		}))

		r.Get("/neighbourhoods", h.Neighbourhoods)
		r.Get("/listings", h.Listings)
		r.Get("/listings.csv", h.ListingsCSV)
		r.Get("/boxplot", h.Boxplot)
		r.Get("/boxplot.png", h.BoxplotPNG)
		r.Get("/map", h.Map)
		r.Get("/boundaries", h.Boundaries)
	})

	return r
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, logger *utils.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until the server is stopped.
func (s *Server) Start() error {
	s.logger.Info("[http] Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("[http] Stopping server...")
	return s.httpServer.Shutdown(ctx)
}
