package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"supmap-guidance/internal/config"
	"supmap-guidance/internal/ws"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Config           *config.Config
	WebsocketManager *ws.Manager
	Favorites        ws.FavoriteStore
	gatherer         prometheus.Gatherer
	originPatterns   []string
	logger           *slog.Logger
}

func NewServer(config *config.Config, manager *ws.Manager, favorites ws.FavoriteStore, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		Config:           config,
		WebsocketManager: manager,
		Favorites:        favorites,
		gatherer:         gatherer,
		originPatterns:   config.AllowedOrigins,
		logger:           logger,
	}
}

// Handler returns the routes served by the API server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /navigation", s.wsHandler())
	mux.HandleFunc("GET /favorites", s.favoritesHandler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    net.JoinHostPort(s.Config.APIServerHost, s.Config.APIServerPort),
		Handler: s.Handler(),
	}

	go func() {
		s.logger.Info("API server is running", "port", s.Config.APIServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server failed to listen and serve", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("API server failed to shutdown", "error", err)
		}
	}()

	wg.Wait()
	return nil
}
