package pagectx

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/content/pipeline"
)

// PageContext carries the per-request state of one page render.
// startTime and timeout never change after creation, so TimeRemaining is
// safe to call from the fetch goroutines.
type PageContext struct {
	RequestID string
	Logger    *zap.Logger
	HTTPCtx   *fasthttp.RequestCtx

	startTime time.Time
	timeout   time.Duration

	Slug     string
	Category pipeline.Category
	APIBase  string
	ClientIP string

	// filled as the request progresses, for the access log
	Sections    int
	Dropped     int
	LeadOutcome string
}

// NewPageContext creates a page context bounded by timeout
func NewPageContext(requestID string, httpCtx *fasthttp.RequestCtx, baseLogger *zap.Logger, timeout time.Duration) *PageContext {
	return &PageContext{
		RequestID: requestID,
		Logger:    baseLogger,
		HTTPCtx:   httpCtx,
		startTime: time.Now().UTC(),
		timeout:   timeout,
	}
}

// WithSlug records the requested page key (logged as slug)
func (pc *PageContext) WithSlug(slug string) *PageContext {
	pc.Slug = slug
	pc.Logger = pc.Logger.With(zap.String("slug", slug))
	return pc
}

// WithCategory records the page category chosen by the classifier
func (pc *PageContext) WithCategory(category pipeline.Category) *PageContext {
	pc.Category = category
	pc.Logger = pc.Logger.With(zap.String("category", string(category)))
	return pc
}

// WithAPIBase records the content API base used for this request
func (pc *PageContext) WithAPIBase(base string) *PageContext {
	pc.APIBase = base
	pc.Logger = pc.Logger.With(zap.String("api_base", base))
	return pc
}

func (pc *PageContext) WithClientIP(ip string) *PageContext {
	pc.ClientIP = ip
	pc.Logger = pc.Logger.With(zap.String("client_ip", ip))
	return pc
}

// Elapsed is the time spent since the context was created
func (pc *PageContext) Elapsed() time.Duration {
	return time.Now().UTC().Sub(pc.startTime)
}

// TimeRemaining returns how much of the request budget is left
func (pc *PageContext) TimeRemaining() time.Duration {
	remaining := pc.timeout - pc.Elapsed()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (pc *PageContext) IsTimedOut() bool {
	return pc.TimeRemaining() == 0
}

// Context returns a context carrying the remaining request budget. An
// exhausted budget yields an already-cancelled context.
func (pc *PageContext) Context() (context.Context, context.CancelFunc) {
	remaining := pc.TimeRemaining()
	if remaining <= 0 {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	return context.WithTimeout(context.Background(), remaining)
}
