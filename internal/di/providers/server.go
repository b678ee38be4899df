package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/questbank/questbank-server/internal/api"
	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/logger"
	"github.com/questbank/questbank-server/internal/ratelimit"
	"github.com/questbank/questbank-server/internal/tree"
)

// RateLimiterHandle wraps the mutation rate limiter with shutdown capability.
type RateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideRateLimiter provides the per-IP mutation rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &RateLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.Server.RateRPS, cfg.Server.RateBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*tree.Engine](i)
	query := do.MustInvoke[*tree.Query](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	limiterHandle := do.MustInvoke[*RateLimiterHandle](i)

	handler := api.NewServer(storeHandle.NodeStore, engine, query, log.Logger, api.Options{
		SearchIndex:     searchHandle.Index,
		MutationLimiter: limiterHandle.KeyedRateLimiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
