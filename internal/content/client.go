// Package content talks to the CMS content API. Every fetch degrades to an
// empty value on failure; callers never see an error.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/urlutil"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Endpoint labels used in logs and metrics
const (
	EndpointPage          = "page"
	EndpointHomepage      = "homepage"
	EndpointFooterMenu    = "footer_menu"
	EndpointSiteSettings  = "site_settings"
	EndpointNavigation    = "navigation"
	EndpointFooterAddress = "footer_address"
)

// Fetch results
const (
	ResultOK             = "ok"
	ResultTimeout        = "timeout"
	ResultTransportError = "transport_error"
	ResultHTTPStatus     = "http_status"
	ResultNotJSON        = "not_json"
	ResultDecodeError    = "decode_error"
)

const maxBodyBytes = 8 << 20

// FetchObserver receives one call per content API request
type FetchObserver interface {
	RecordFetch(endpoint, result string, duration time.Duration)
}

// Client fetches content payloads
type Client struct {
	httpClient *http.Client
	paths      configtypes.ContentPaths
	timeout    time.Duration
	observer   FetchObserver
	logger     *zap.Logger
}

// NewClient builds a client; observer may be nil
func NewClient(cfg configtypes.ContentAPIConfig, observer FetchObserver, logger *zap.Logger) *Client {
	timeout := cfg.Timeout.ToDuration()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		paths:    cfg.Paths,
		timeout:  timeout,
		observer: observer,
		logger:   logger,
	}
}

// ResolveBase picks the API base: the configured value when set, else
// http://{hostname}:{port}/api built from the request's Host header.
func ResolveBase(configured, host string, port int) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	hostname := urlutil.ExtractHostname(host)
	if hostname == "" {
		hostname = "localhost"
	}
	return "http://" + net.JoinHostPort(hostname, strconv.Itoa(port)) + "/api"
}

// FetchPage returns the page payload for slug, or an empty page
func (c *Client) FetchPage(ctx context.Context, base, slug string) types.Page {
	path := strings.ReplaceAll(c.paths.Page, "{slug}", url.PathEscape(slug))

	page := types.EmptyPage()
	c.fetch(ctx, EndpointPage, base+path, true, func(body []byte) (err error) {
		page, err = types.DecodePage(body)
		return err
	})
	return page
}

// FetchHomepage returns the homepage payload, or an empty page
func (c *Client) FetchHomepage(ctx context.Context, base string) types.Page {
	page := types.EmptyPage()
	c.fetch(ctx, EndpointHomepage, base+c.paths.Homepage, false, func(body []byte) (err error) {
		page, err = types.DecodePage(body)
		return err
	})
	return page
}

func (c *Client) FetchFooterMenu(ctx context.Context, base string) types.FooterMenu {
	var menu types.FooterMenu
	c.fetch(ctx, EndpointFooterMenu, base+c.paths.FooterMenu, false, func(body []byte) (err error) {
		menu, err = types.DecodeFooterMenu(body)
		return err
	})
	return menu
}

func (c *Client) FetchSiteSettings(ctx context.Context, base string) types.SiteSettings {
	var settings types.SiteSettings
	c.fetch(ctx, EndpointSiteSettings, base+c.paths.SiteSettings, false, func(body []byte) (err error) {
		settings, err = types.DecodeSiteSettings(body)
		return err
	})
	return settings
}

func (c *Client) FetchNavigation(ctx context.Context, base string) types.NavigationPayload {
	var nav types.NavigationPayload
	c.fetch(ctx, EndpointNavigation, base+c.paths.Navigation, false, func(body []byte) error {
		var decoded types.NavigationPayload
		if err := json.Unmarshal(body, &decoded); err != nil {
			return err
		}
		nav = decoded
		return nil
	})
	return nav
}

func (c *Client) FetchFooterAddress(ctx context.Context, base string) types.FooterAddress {
	var addr types.FooterAddress
	c.fetch(ctx, EndpointFooterAddress, base+c.paths.FooterAddress, false, func(body []byte) error {
		var decoded types.FooterAddress
		if err := json.Unmarshal(body, &decoded); err != nil {
			return err
		}
		decoded.Address = strings.TrimSpace(decoded.Address)
		addr = decoded
		return nil
	})
	return addr
}

// fetch performs one request and hands a 2xx body to decode. Exactly one
// outcome is reported to the observer. When decode fails the caller keeps
// its empty value, so decode must only assign on success.
func (c *Client) fetch(ctx context.Context, endpoint, target string, requireJSON bool, decode func([]byte) error) {
	start := time.Now()
	result, err := c.do(ctx, target, requireJSON, decode)
	duration := time.Since(start)
	c.observe(endpoint, result, duration)

	if err != nil {
		c.logger.Warn("Content fetch failed, using empty value",
			zap.String("endpoint", endpoint),
			zap.String("url", target),
			zap.String("result", result),
			zap.Duration("duration", duration),
			zap.Error(err))
		return
	}

	c.logger.Debug("Content fetched",
		zap.String("endpoint", endpoint),
		zap.String("url", target),
		zap.Duration("duration", duration))
}

func (c *Client) do(ctx context.Context, target string, requireJSON bool, decode func([]byte) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ResultTransportError, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportResult(err), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return ResultHTTPStatus, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if requireJSON && !isJSON(resp.Header.Get("Content-Type")) {
		return ResultNotJSON, fmt.Errorf("content type %q is not JSON", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportResult(err), fmt.Errorf("read body: %w", err)
	}

	if err := decode(body); err != nil {
		return ResultDecodeError, err
	}
	return ResultOK, nil
}

func transportResult(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ResultTimeout
	}
	return ResultTransportError
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (c *Client) observe(endpoint, result string, duration time.Duration) {
	if c.observer != nil {
		c.observer.RecordFetch(endpoint, result, duration)
	}
}
