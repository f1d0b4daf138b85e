package metricsserver

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

// MetricsHandler serves the scrape endpoint
type MetricsHandler interface {
	ServeHTTP(ctx *fasthttp.RequestCtx)
}

// StartMetricsServer runs the scrape endpoint on its own listener. It returns
// nil when metrics are disabled. Config validation guarantees the listen
// address differs from the site's.
func StartMetricsServer(cfg configtypes.MetricsConfig, handler MetricsHandler, logger *zap.Logger) (*fasthttp.Server, error) {
	if !cfg.Enabled {
		logger.Info("Metrics collection disabled")
		return nil, nil
	}

	listen, err := configtypes.NormalizeListen(cfg.Listen)
	if err != nil {
		return nil, err
	}

	server := &fasthttp.Server{
		Handler:            NewHandler(cfg.Path, handler),
		Name:               "Storefront-Metrics",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		MaxRequestBodySize: 1 * 1024,
		TCPKeepalive:       true,
		TCPKeepalivePeriod: 30 * time.Second,
		MaxConnsPerIP:      100,
		Concurrency:        100,
	}

	go func() {
		logger.Info("Metrics server listening",
			zap.String("listen", listen),
			zap.String("path", cfg.Path))

		if err := server.ListenAndServe(listen); err != nil {
			logger.Error("Metrics server stopped", zap.String("listen", listen), zap.Error(err))
		}
	}()

	return server, nil
}

// NewHandler answers the metrics path and 404s everything else
func NewHandler(path string, handler MetricsHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) == path {
			handler.ServeHTTP(ctx)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("Not Found")
	}
}
