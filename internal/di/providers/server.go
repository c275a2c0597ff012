package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/api"
	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/config"
	"github.com/localcircle/localcircle-server/internal/logger"
	"github.com/localcircle/localcircle-server/internal/service"
)

// shutdownTimeout bounds how long each handle waits to drain on shutdown.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)

	services := &api.Services{
		Posts:       do.MustInvoke[*service.PostService](i),
		Feed:        do.MustInvoke[*service.FeedService](i),
		Ledger:      do.MustInvoke[*service.LedgerService](i),
		Collections: do.MustInvoke[*service.CollectionService](i),
		Comments:    do.MustInvoke[*service.CommentService](i),
		Alerts:      do.MustInvoke[*service.AlertService](i),
		Index:       indexHandle.SearchIndex,
	}

	handler := api.NewServer(storeHandle.Store, services, tokens, sseHandle.Manager, api.Config{
		Version:         Version,
		CORSOrigins:     cfg.Server.CORSOrigins,
		WritesPerMinute: cfg.RateLimit.WritesPerMinute,
		WriteBurst:      cfg.RateLimit.Burst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
