package leads

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

// Lead is one accepted ZIP submission
type Lead struct {
	ZIP       string
	ClientIP  string
	Referer   string
	RequestID string
	At        time.Time
}

// StreamWriter is the slice of the Redis client the recorder needs
type StreamWriter interface {
	XAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error)
	HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error)
}

// Outcome of a Record call, used for metrics
type Outcome string

const (
	OutcomeRecorded    Outcome = "recorded"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailed      Outcome = "failed"
	OutcomeDisabled    Outcome = "disabled"

	// OutcomeInvalid is never returned by Record; the quote handler uses it
	// for submissions rejected before recording.
	OutcomeInvalid Outcome = "invalid"
)

// Recorder persists leads. A nil writer makes it a no-op; errors are logged
// and never returned so the visitor's redirect always happens.
type Recorder struct {
	writer  StreamWriter
	stream  string
	maxLen  int64
	limiter *Limiter
	logger  *zap.Logger
}

func NewRecorder(writer StreamWriter, cfg configtypes.LeadsConfig, logger *zap.Logger) *Recorder {
	return &Recorder{
		writer:  writer,
		stream:  cfg.Redis.Stream,
		maxLen:  cfg.Redis.MaxLen,
		limiter: NewLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		logger:  logger,
	}
}

// CountsKey is the hash holding per-ZIP submission counts for a stream
func CountsKey(stream string) string {
	return stream + ":counts"
}

func (r *Recorder) Record(ctx context.Context, lead Lead) Outcome {
	if r.writer == nil {
		return OutcomeDisabled
	}
	if !r.limiter.Allow(lead.ClientIP) {
		r.logger.Debug("Lead recording rate limited", zap.String("client_ip", lead.ClientIP))
		return OutcomeRateLimited
	}

	values := map[string]interface{}{
		"zip":        lead.ZIP,
		"client_ip":  lead.ClientIP,
		"referer":    lead.Referer,
		"request_id": lead.RequestID,
		"ts":         strconv.FormatInt(lead.At.Unix(), 10),
	}

	id, err := r.writer.XAdd(ctx, r.stream, r.maxLen, values)
	if err != nil {
		r.logger.Warn("Failed to record lead", zap.String("zip", lead.ZIP), zap.Error(err))
		return OutcomeFailed
	}
	if _, err := r.writer.HIncrBy(ctx, CountsKey(r.stream), lead.ZIP, 1); err != nil {
		r.logger.Warn("Failed to bump lead counter", zap.String("zip", lead.ZIP), zap.Error(err))
	}

	r.logger.Debug("Lead recorded", zap.String("entry_id", id), zap.String("zip", lead.ZIP))
	return OutcomeRecorded
}

// Limiter hands out one token bucket per client IP. perMinute <= 0 disables
// limiting.
type Limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	maxIdle   time.Duration
	lastSweep time.Time // idle visitors are scanned at most once per maxIdle
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLimiter(perMinute, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		burst:    burst,
		visitors: make(map[string]*visitor),
		maxIdle:  10 * time.Minute,
		now:      time.Now,
	}
	if perMinute > 0 {
		l.limit = rate.Limit(float64(perMinute) / 60)
	} else {
		l.limit = rate.Inf
	}
	return l
}

func (l *Limiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		if now.Sub(l.lastSweep) >= l.maxIdle {
			l.sweep(now)
			l.lastSweep = now
		}
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep forgets visitors idle for longer than maxIdle. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.maxIdle {
			delete(l.visitors, key)
		}
	}
}
