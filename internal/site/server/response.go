package server

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/site/pagectx"
)

// Bodies smaller than this are sent uncompressed
const minGzipSize = 512

// writeHTML sends a rendered document with an ETag. A matching
// If-None-Match on a 200 response becomes 304.
func (s *Server) writeHTML(pc *pagectx.PageContext, body []byte, status int) {
	ctx := pc.HTTPCtx
	etag := computeETag(body)

	ctx.Response.Header.Set("Content-Type", "text/html; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Vary", "Accept-Encoding")
	ctx.Response.Header.Set("ETag", etag)

	if status == fasthttp.StatusOK && etagMatches(string(ctx.Request.Header.Peek("If-None-Match")), etag) {
		ctx.SetStatusCode(fasthttp.StatusNotModified)
		ctx.Response.ResetBody()
		s.metrics.RecordNotModified()
		return
	}

	ctx.SetStatusCode(status)

	cfg := s.configManager.GetConfig()
	if cfg.Server.GzipEnabled() && len(body) >= minGzipSize && ctx.Request.Header.HasAcceptEncoding("gzip") {
		compressed, err := gzipBytes(body)
		if err != nil {
			pc.Logger.Warn("Gzip failed, sending identity body", zap.Error(err))
		} else {
			ctx.Response.Header.Set("Content-Encoding", "gzip")
			ctx.Response.SetBody(compressed)
			s.metrics.RecordCompression(len(body), len(compressed))
			return
		}
	}
	ctx.Response.SetBody(body)
}

// computeETag is a strong validator over the uncompressed body
func computeETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("gzip writer: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}
