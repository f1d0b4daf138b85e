package server

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/httputil"
	"github.com/autoinsurance/storefront/internal/common/requestid"
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/internal/site/clientip"
	"github.com/autoinsurance/storefront/internal/site/events"
	"github.com/autoinsurance/storefront/internal/site/leads"
	"github.com/autoinsurance/storefront/internal/site/metrics"
	"github.com/autoinsurance/storefront/internal/site/pagectx"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Route labels for request metrics
const (
	routeHome     = "home"
	routePage     = "page"
	routeQuote    = "quote"
	routeSections = "sections_api"
	routeHealth   = "health"
	routeReady    = "ready"
	routeNotFound = "not_found"
)

const sectionsAPIPrefix = "/api/sections/"

// ContentSource is the subset of the content client the server needs.
// Implementations never fail; faults come back as empty values.
type ContentSource interface {
	FetchPage(ctx context.Context, base, slug string) types.Page
	FetchHomepage(ctx context.Context, base string) types.Page
	FetchFooterMenu(ctx context.Context, base string) types.FooterMenu
	FetchSiteSettings(ctx context.Context, base string) types.SiteSettings
	FetchNavigation(ctx context.Context, base string) types.NavigationPayload
	FetchFooterAddress(ctx context.Context, base string) types.FooterAddress
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type Server struct {
	configManager configtypes.ConfigProvider
	content       ContentSource
	recorder      *leads.Recorder
	readiness     HealthChecker // nil when no backing store is configured
	metrics       *metrics.PrometheusMetrics
	eventEmitter  events.EventEmitter
	logger        *zap.Logger

	startedAt time.Time
	now       func() time.Time
}

func NewServer(
	configManager configtypes.ConfigProvider,
	contentSource ContentSource,
	recorder *leads.Recorder,
	readiness HealthChecker,
	metricsCollector *metrics.PrometheusMetrics,
	eventEmitter events.EventEmitter,
	logger *zap.Logger,
) *Server {
	if eventEmitter == nil {
		eventEmitter = &events.NoopEmitter{}
	}
	return &Server{
		configManager: configManager,
		content:       contentSource,
		recorder:      recorder,
		readiness:     readiness,
		metrics:       metricsCollector,
		eventEmitter:  eventEmitter,
		logger:        logger,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

func (s *Server) HandleRequest(ctx *fasthttp.RequestCtx) {
	requestID := requestid.GenerateRequestID(string(ctx.Request.Header.Peek(requestid.Header)))
	ctx.Response.Header.Set(requestid.Header, requestID)

	logger := s.logger.With(zap.String("request_id", requestID))
	path := string(ctx.Path())

	switch path {
	case "/health":
		s.handleHealth(ctx)
		return
	case "/ready":
		s.handleReady(ctx)
		return
	}

	if !ctx.IsGet() && !ctx.IsHead() {
		logger.Warn("Method not allowed", zap.String("method", string(ctx.Method())), zap.String("path", path))
		ctx.Response.Header.Set("Allow", "GET, HEAD")
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.metrics.IncActiveRequests()
	defer s.metrics.DecActiveRequests()

	cfg := s.configManager.GetConfig()
	pc := pagectx.NewPageContext(requestID, ctx, logger, cfg.Server.Timeout.ToDuration())
	pc.WithClientIP(clientip.Extract(ctx, s.clientIPHeaders()))

	route := routePage
	switch {
	case path == "/":
		route = routeHome
		s.servePage(pc, pipeline.HomeKey, nil, fasthttp.StatusOK)
	case path == "/quote":
		route = routeQuote
		s.handleQuote(pc)
	case strings.HasPrefix(path, sectionsAPIPrefix):
		route = routeSections
		key, ok := slugFromPath(strings.TrimPrefix(path, sectionsAPIPrefix))
		if !ok {
			route = routeNotFound
			httputil.JSONError(ctx, "Page not found", fasthttp.StatusNotFound)
			break
		}
		s.handleSections(pc, key)
	default:
		key, ok := slugFromPath(strings.TrimPrefix(path, "/"))
		if !ok {
			route = routeNotFound
			logger.Debug("Not found", zap.String("path", path))
			s.writeError(ctx, fasthttp.StatusNotFound, "Not found")
			break
		}
		s.servePage(pc, key, nil, fasthttp.StatusOK)
	}

	s.metrics.RecordRequest(route, ctx.Response.StatusCode(), pc.Elapsed())
	s.emitPageEvent(pc, route)
}

func (s *Server) emitPageEvent(pc *pagectx.PageContext, route string) {
	ctx := pc.HTTPCtx
	s.eventEmitter.Emit(&events.PageEvent{
		RequestID:   pc.RequestID,
		Host:        string(ctx.Host()),
		Method:      string(ctx.Method()),
		Path:        string(ctx.Path()),
		Route:       route,
		ClientIP:    pc.ClientIP,
		UserAgent:   string(ctx.UserAgent()),
		Referer:     string(ctx.Referer()),
		Slug:        pc.Slug,
		Category:    string(pc.Category),
		Sections:    pc.Sections,
		Dropped:     pc.Dropped,
		APIBase:     pc.APIBase,
		LeadOutcome: pc.LeadOutcome,
		StatusCode:  ctx.Response.StatusCode(),
		PageSize:    len(ctx.Response.Body()),
		ServeTime:   pc.Elapsed().Seconds(),
		CreatedAt:   s.now().UTC(),
	})
}

// Close releases the access log
func (s *Server) Close() error {
	return s.eventEmitter.Close()
}

// slugFromPath accepts a single path segment. Nested paths and file-like
// names (favicon.ico, robots.txt) are not CMS pages.
func slugFromPath(segment string) (string, bool) {
	segment = strings.TrimSuffix(segment, "/")
	if segment == "" {
		return pipeline.HomeKey, true
	}
	if strings.ContainsAny(segment, "/.") {
		return "", false
	}
	return segment, true
}

func (s *Server) clientIPHeaders() []string {
	cfg := s.configManager.GetConfig()
	if cfg.ClientIP != nil && len(cfg.ClientIP.Headers) > 0 {
		return cfg.ClientIP.Headers
	}
	return clientip.DefaultHeaders
}

type healthStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	RSSBytes      uint64  `json:"rss_bytes,omitempty"`
	Goroutines    int     `json:"goroutines"`
}

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	status := healthStatus{
		Status:        "ok",
		UptimeSeconds: s.now().Sub(s.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			status.RSSBytes = mem.RSS
		}
	}
	httputil.JSONData(ctx, status, fasthttp.StatusOK)
	s.metrics.RecordRequest(routeHealth, fasthttp.StatusOK, 0)
}

func (s *Server) handleReady(ctx *fasthttp.RequestCtx) {
	if s.readiness != nil {
		reqCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.readiness.HealthCheck(reqCtx); err != nil {
			s.logger.Warn("Readiness check failed", zap.Error(err))
			s.writeError(ctx, fasthttp.StatusServiceUnavailable, "Redis not available")
			s.metrics.RecordRequest(routeReady, fasthttp.StatusServiceUnavailable, 0)
			return
		}
	}

	ctx.Response.Header.Set("Content-Type", "text/plain")
	ctx.Response.SetStatusCode(fasthttp.StatusOK)
	ctx.Response.SetBodyString("OK")
	s.metrics.RecordRequest(routeReady, fasthttp.StatusOK, 0)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	ctx.Response.Header.Set("Content-Type", "text/plain; charset=utf-8")
	ctx.Response.SetStatusCode(statusCode)
	ctx.Response.SetBodyString(message)
}
