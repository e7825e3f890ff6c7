// Package server exposes the analysis services over HTTP
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jwaldner/optionlab/internal/config"
	"github.com/jwaldner/optionlab/internal/handlers"
	"github.com/jwaldner/optionlab/internal/services"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	addr   string
	router *mux.Router
}

// New builds the router for market. Requests are normalized with cfg.Defaults.
func New(cfg *config.Config, market *services.Market) *Server {
	provider := market.Manager.GetProvider().GetProviderName()
	options := handlers.NewOptionsHandler(
		services.NewAnalysisService(market.Data),
		services.NewRequestService(cfg.Defaults),
		provider,
	)

	r := mux.NewRouter()
	options.Register(r)
	r.Use(accessLog)

	return &Server{
		addr:   net.JoinHostPort("0.0.0.0", cfg.Port),
		router: r,
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("http server starting", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return errors.Wrap(err, "server failed to start")
	case <-ctx.Done():
	}

	zap.L().Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zap.L().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
