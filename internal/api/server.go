package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ryanbastic/go-gardenledger/internal/contentstore"
	"github.com/ryanbastic/go-gardenledger/internal/garden"
	"github.com/ryanbastic/go-gardenledger/internal/metrics"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(logger *slog.Logger, svc *garden.Service, content contentstore.ContentStore, backends map[string]Pinger) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(metrics.Metrics)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))

	health := NewHealthHandler(backends, logger)
	mux.Get("/v1/livez", health.Livez)
	mux.Get("/v1/readyz", health.Readyz)
	mux.Get("/v1/health", health.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	contentHandler := NewContentHandler(content, logger)
	mux.Get("/v1/content/*", contentHandler.Get)

	api := humachi.New(mux, huma.DefaultConfig("Garden Ledger API", "1.0.0"))
	registerTableRoutes(api, NewTableHandler(svc, logger))
	registerAssetRoutes(api, NewAssetHandler(svc, logger))
	registerPlantRoutes(api, NewPlantHandler(svc, logger))

	return mux
}
