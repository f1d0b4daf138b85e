package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/redis"
)

func TestNormalizeZIP(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "90210", want: "90210"},
		{raw: " 90210 ", want: "90210"},
		{raw: "90210-1234", want: "90210"},
		{raw: "9a0b2c1d0", want: "90210"},
		{raw: "123456789", want: "12345"},
		{raw: "1234", wantErr: true},
		{raw: "abcde", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeZIP(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidZIP)
				assert.Equal(t, "invalid ZIP code: need 5 digits", err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteURL(t *testing.T) {
	assert.Equal(t, "/quotes?zip=90210", QuoteURL("/quotes", "90210"))
	assert.Equal(t, "/quotes?src=home&zip=90210", QuoteURL("/quotes?src=home", "90210"))
}

func leadsConfig(stream string, perMinute, burst int) configtypes.LeadsConfig {
	return configtypes.LeadsConfig{
		Redis:     configtypes.LeadsRedisConfig{Enabled: true, Stream: stream, MaxLen: 1000},
		RateLimit: configtypes.RateLimitConfig{PerMinute: perMinute, Burst: burst},
	}
}

func TestRecorderWritesStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&configtypes.LeadsRedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	rec := NewRecorder(client, leadsConfig("leads:zip", 0, 0), zap.NewNop())
	outcome := rec.Record(context.Background(), Lead{ZIP: "90210", ClientIP: "203.0.113.5", RequestID: "abc", At: time.Unix(1700000000, 0)})
	assert.Equal(t, OutcomeRecorded, outcome)

	entries, err := mr.Stream("leads:zip")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Values, "90210")
	assert.Contains(t, entries[0].Values, "1700000000")

	assert.Equal(t, "1", mr.HGet(CountsKey("leads:zip"), "90210"))
}

func TestRecorderDisabled(t *testing.T) {
	rec := NewRecorder(nil, leadsConfig("leads:zip", 0, 0), zap.NewNop())
	assert.Equal(t, OutcomeDisabled, rec.Record(context.Background(), Lead{ZIP: "90210"}))
}

type failingWriter struct{}

func (failingWriter) XAdd(context.Context, string, int64, map[string]interface{}) (string, error) {
	return "", errors.New("connection refused")
}

func (failingWriter) HIncrBy(context.Context, string, string, int64) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	rec := NewRecorder(failingWriter{}, leadsConfig("leads:zip", 0, 0), zap.NewNop())
	assert.Equal(t, OutcomeFailed, rec.Record(context.Background(), Lead{ZIP: "90210"}))
}

func TestRecorderRateLimitsPerIP(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&configtypes.LeadsRedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	rec := NewRecorder(client, leadsConfig("leads:zip", 1, 2), zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, OutcomeRecorded, rec.Record(ctx, Lead{ZIP: "10001", ClientIP: "a"}))
	assert.Equal(t, OutcomeRecorded, rec.Record(ctx, Lead{ZIP: "10001", ClientIP: "a"}))
	assert.Equal(t, OutcomeRateLimited, rec.Record(ctx, Lead{ZIP: "10001", ClientIP: "a"}))
	assert.Equal(t, OutcomeRecorded, rec.Record(ctx, Lead{ZIP: "10001", ClientIP: "b"}))
}

func TestLimiterRefillsAndSweeps(t *testing.T) {
	l := NewLimiter(60, 1)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("ip"))

	now = now.Add(time.Hour)
	assert.True(t, l.Allow("other"))
	l.mu.Lock()
	_, kept := l.visitors["ip"]
	l.mu.Unlock()
	assert.False(t, kept)
}

func TestLimiterSweepsOncePerIdleWindow(t *testing.T) {
	l := NewLimiter(60, 1)
	start := time.Unix(1000, 0)
	now := start
	l.now = func() time.Time { return now }
	tracked := func() int {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.visitors)
	}

	l.Allow("a")
	now = start.Add(9 * time.Minute)
	l.Allow("b")
	now = start.Add(10 * time.Minute)
	l.Allow("c") // scans, "a" is not yet past maxIdle
	assert.Equal(t, 3, tracked())

	now = start.Add(15 * time.Minute)
	l.Allow("d") // within the window since the last scan
	assert.Equal(t, 4, tracked(), "idle visitors linger until the next window")

	now = start.Add(20 * time.Minute)
	l.Allow("e")
	l.mu.Lock()
	_, keptA := l.visitors["a"]
	_, keptB := l.visitors["b"]
	_, keptC := l.visitors["c"]
	l.mu.Unlock()
	assert.False(t, keptA)
	assert.False(t, keptB)
	assert.True(t, keptC)
	assert.Equal(t, 3, tracked())
}

func TestLimiterUnlimited(t *testing.T) {
	l := NewLimiter(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("ip"))
	}
}
