package server_test

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alicebob/miniredis/v2"
	"github.com/klauspost/compress/gzip"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/config"
	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/common/redis"
	"github.com/autoinsurance/storefront/internal/content"
	"github.com/autoinsurance/storefront/internal/site/leads"
	"github.com/autoinsurance/storefront/internal/site/metrics"
	"github.com/autoinsurance/storefront/internal/site/server"
)

var _ = Describe("Storefront server", func() {
	var (
		cms       *fakeCMS
		mr        *miniredis.Miniredis
		rdb       *redis.Client
		cfg       *configtypes.SiteConfig
		registry  *prometheus.Registry
		srv       *server.Server
		accessLog *recordingEmitter
	)

	build := func() {
		logger := zap.NewNop()
		registry = prometheus.NewRegistry()
		pm := metrics.NewPrometheusMetricsWithRegistry("storefront", registry, logger)
		client := content.NewClient(cfg.ContentAPI, pm, logger)
		recorder := leads.NewRecorder(rdb, cfg.Leads, logger)
		accessLog = &recordingEmitter{}
		srv = server.NewServer(staticConfig{cfg}, client, recorder, rdb, pm, accessLog, logger)
	}

	BeforeEach(func() {
		cms = newFakeCMS()
		DeferCleanup(cms.Close)

		mr = miniredis.NewMiniRedis()
		Expect(mr.Start()).To(Succeed())
		DeferCleanup(mr.Close)

		cfg = config.Default()
		cfg.ContentAPI.BaseURL = cms.base()
		cfg.Leads.Redis.Enabled = true
		cfg.Leads.Redis.Addr = mr.Addr()

		var err error
		rdb, err = redis.NewClient(&cfg.Leads.Redis, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(rdb.Close)

		build()
	})

	Describe("home page", func() {
		It("renders the filtered home sections with the quote form", func() {
			ctx := perform(srv, "GET", "/", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(ctx.Response.Header.ContentType())).To(HavePrefix("text/html"))
			Expect(ctx.Response.Header.Peek("ETag")).NotTo(BeEmpty())

			doc := parseHTML(ctx.Response.Body())
			Expect(doc.Find("title").Text()).To(Equal("Compare Car Insurance"))
			Expect(doc.Find(".home-hero .zip-form").Length()).To(Equal(1))

			titles := doc.Find(".sections h2").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
			Expect(titles).To(Equal([]string{"Why compare"}))
		})

		It("builds the navbar and footer from the content API", func() {
			doc := parseHTML(perform(srv, "GET", "/", nil).Response.Body())

			Expect(doc.Find(".brand-name").First().Text()).To(Equal("AutoInsurance.org"))
			Expect(doc.Find("address").Text()).To(Equal("1 Main St"))
			Expect(doc.Find(".nav").Text()).To(ContainSubstring("Car Insurance"))
			Expect(doc.Find(".nav").Text()).NotTo(ContainSubstring("State"))
			tel, _ := doc.Find("a.phone").Attr("href")
			Expect(tel).To(HavePrefix("tel:"))
		})
	})

	Describe("content pages", func() {
		It("renders the about page with the first section as hero", func() {
			ctx := perform(srv, "GET", "/about-us", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			doc := parseHTML(ctx.Response.Body())
			Expect(doc.Find(".page-hero h1").Text()).To(Equal("Our Company"))
			Expect(doc.Find(".sections h2").Length()).To(Equal(1))
			Expect(doc.Find(".sections h2").Text()).To(Equal("Our story"))
			Expect(doc.Find(".sections").Text()).NotTo(ContainSubstring("boilerplate"))

			helpful := doc.Find(".helpful-links a").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
			Expect(helpful).To(Equal([]string{"Privacy Policy"}))
		})

		It("drops redacted and clause sections on footer pages", func() {
			doc := parseHTML(perform(srv, "GET", "/privacy-policy", nil).Response.Body())

			Expect(doc.Find(".page-hero h1").Text()).To(Equal("Privacy Policy"))
			Expect(doc.Find(".page-hero-subtitle").Text()).To(Equal("How we handle data"))
			Expect(doc.Find(".sections section").Length()).To(Equal(1))
			Expect(doc.Find(".sections .section-body").Text()).To(Equal("We collect little."))
		})

		It("renders an empty page when the content API fails", func() {
			ctx := perform(srv, "GET", "/no-such-page", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			doc := parseHTML(ctx.Response.Body())
			Expect(doc.Find(".sections section").Length()).To(BeZero())
			Expect(doc.Find("footer").Length()).To(Equal(1))
		})

		It("treats a non-JSON page response as empty", func() {
			ctx := perform(srv, "GET", "/html-page", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(cms.pageHits.Load()).To(BeNumerically("==", 1))
			Expect(parseHTML(ctx.Response.Body()).Find(".sections section").Length()).To(BeZero())
		})

		It("still renders when the content API is unreachable", func() {
			cms.Close()

			ctx := perform(srv, "GET", "/about-us", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))

			doc := parseHTML(ctx.Response.Body())
			Expect(doc.Find(".page-hero h1").Text()).To(Equal("About Us"))
			Expect(doc.Find(".brand-name").First().Text()).To(Equal("AutoInsurance.org"))
		})

		It("derives the API base only from allowed request hosts", func() {
			cfg.ContentAPI.BaseURL = ""
			cfg.ContentAPI.FallbackPort = 1
			cfg.ContentAPI.AllowedHosts = []string{"autoinsurance.org"}
			build()

			ctx := perform(srv, "GET", "/about-us", map[string]string{"Host": "metadata.internal"})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(cms.pageHits.Load()).To(BeZero())
		})

		It("does not treat file names or nested paths as pages", func() {
			Expect(perform(srv, "GET", "/favicon.ico", nil).Response.StatusCode()).To(Equal(fasthttp.StatusNotFound))
			Expect(perform(srv, "GET", "/a/b", nil).Response.StatusCode()).To(Equal(fasthttp.StatusNotFound))
			Expect(cms.pageHits.Load()).To(BeZero())
		})

		It("counts renders by category", func() {
			perform(srv, "GET", "/about-us", nil)

			families, err := registry.Gather()
			Expect(err).NotTo(HaveOccurred())

			var found bool
			for _, mf := range families {
				if mf.GetName() != "storefront_page_renders_total" {
					continue
				}
				for _, m := range mf.GetMetric() {
					for _, l := range m.GetLabel() {
						if l.GetName() == "category" && l.GetValue() == "about" {
							found = m.GetCounter().GetValue() == 1
						}
					}
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("conditional and compressed responses", func() {
		It("answers a matching If-None-Match with 304", func() {
			first := perform(srv, "GET", "/about-us", nil)
			etag := string(first.Response.Header.Peek("ETag"))
			Expect(etag).To(MatchRegexp(`^"[0-9a-f]{16}"$`))

			second := perform(srv, "GET", "/about-us", map[string]string{"If-None-Match": etag})
			Expect(second.Response.StatusCode()).To(Equal(fasthttp.StatusNotModified))
			Expect(second.Response.Body()).To(BeEmpty())
		})

		It("ignores a stale ETag", func() {
			ctx := perform(srv, "GET", "/about-us", map[string]string{"If-None-Match": `"0000000000000000"`})
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
		})

		It("gzips when the client accepts it", func() {
			ctx := perform(srv, "GET", "/about-us", map[string]string{"Accept-Encoding": "gzip, deflate"})

			Expect(string(ctx.Response.Header.Peek("Content-Encoding"))).To(Equal("gzip"))
			zr, err := gzip.NewReader(bytes.NewReader(ctx.Response.Body()))
			Expect(err).NotTo(HaveOccurred())
			plain, err := io.ReadAll(zr)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(plain)).To(HavePrefix("<!DOCTYPE html>"))
		})

		It("sends identity bodies when gzip is disabled", func() {
			off := false
			cfg.Server.Gzip = &off
			build()

			ctx := perform(srv, "GET", "/about-us", map[string]string{"Accept-Encoding": "gzip"})
			Expect(ctx.Response.Header.Peek("Content-Encoding")).To(BeEmpty())
			Expect(string(ctx.Response.Body())).To(HavePrefix("<!DOCTYPE html>"))
		})
	})

	Describe("quote form", func() {
		It("redirects a valid ZIP and records the lead", func() {
			ctx := perform(srv, "GET", "/quote?zip=90210-1234", map[string]string{"X-Forwarded-For": "203.0.113.5"})

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusSeeOther))
			Expect(string(ctx.Response.Header.Peek("Location"))).To(Equal("/quotes?zip=90210"))

			entries, err := mr.Stream("leads:zip")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Values).To(ContainElements("zip", "90210", "client_ip", "203.0.113.5"))

			count, err := rdb.HGet(context.Background(), leads.CountsKey("leads:zip"), "90210")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal("1"))
		})

		It("redirects even when the lead store is down", func() {
			mr.Close()

			ctx := perform(srv, "GET", "/quote?zip=10001", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusSeeOther))
			Expect(string(ctx.Response.Header.Peek("Location"))).To(Equal("/quotes?zip=10001"))
		})

		It("re-renders the home page with an error for a bad ZIP", func() {
			ctx := perform(srv, "GET", "/quote?zip=12", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusUnprocessableEntity))
			doc := parseHTML(ctx.Response.Body())
			Expect(doc.Find(".zip-error").Text()).To(Equal("Please enter a valid 5-digit ZIP Code."))
			value, _ := doc.Find("input[name=zip]").Attr("value")
			Expect(value).To(Equal("12"))
		})
	})

	Describe("sections API", func() {
		It("returns the pipeline result as JSON", func() {
			ctx := perform(srv, "GET", "/api/sections/about-us", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			env := decodeEnvelope(ctx.Response.Body())
			Expect(env["success"]).To(BeTrue())

			data := env["data"].(map[string]interface{})
			Expect(data["category"]).To(Equal("about"))
			Expect(data["hero"].(map[string]interface{})["title"]).To(Equal("Our Company"))
			Expect(data["sections"]).To(HaveLen(1))
			Expect(data["stages"]).NotTo(BeEmpty())
		})

		It("classifies an empty slug as the home page", func() {
			env := decodeEnvelope(perform(srv, "GET", "/api/sections/", nil).Response.Body())
			Expect(env["data"].(map[string]interface{})["category"]).To(Equal("home"))
		})

		It("rejects nested slugs", func() {
			ctx := perform(srv, "GET", "/api/sections/a/b", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusNotFound))
			Expect(decodeEnvelope(ctx.Response.Body())["success"]).To(BeFalse())
		})
	})

	Describe("access log", func() {
		It("emits one event per page request", func() {
			perform(srv, "GET", "/about-us", map[string]string{"User-Agent": "test-agent"})

			Expect(accessLog.events).To(HaveLen(1))
			e := accessLog.events[0]
			Expect(e.Route).To(Equal("page"))
			Expect(e.Slug).To(Equal("about-us"))
			Expect(e.Category).To(Equal("about"))
			Expect(e.Sections).To(Equal(1))
			Expect(e.Dropped).To(Equal(1))
			Expect(e.StatusCode).To(Equal(fasthttp.StatusOK))
			Expect(e.PageSize).To(BeNumerically(">", 0))
			Expect(e.UserAgent).To(Equal("test-agent"))
			Expect(e.APIBase).To(Equal(cms.base()))
			Expect(e.ClientIP).To(Equal("198.51.100.7"))
		})

		It("records the lead outcome of quote requests", func() {
			perform(srv, "GET", "/quote?zip=10001", nil)
			perform(srv, "GET", "/quote?zip=abc", nil)

			Expect(accessLog.events).To(HaveLen(2))
			Expect(accessLog.events[0].LeadOutcome).To(Equal("recorded"))
			Expect(accessLog.events[0].StatusCode).To(Equal(fasthttp.StatusSeeOther))
			Expect(accessLog.events[1].LeadOutcome).To(Equal("invalid"))
		})

		It("skips health checks", func() {
			perform(srv, "GET", "/health", nil)
			Expect(accessLog.events).To(BeEmpty())
		})

		It("closes the emitter with the server", func() {
			Expect(srv.Close()).To(Succeed())
			Expect(accessLog.closed).To(BeTrue())
		})
	})

	Describe("system endpoints", func() {
		It("reports health with process info", func() {
			ctx := perform(srv, "GET", "/health", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			data := decodeEnvelope(ctx.Response.Body())["data"].(map[string]interface{})
			Expect(data["status"]).To(Equal("ok"))
			Expect(data["goroutines"]).To(BeNumerically(">", 0))
		})

		It("is ready while redis answers", func() {
			ctx := perform(srv, "GET", "/ready", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusOK))
			Expect(string(ctx.Response.Body())).To(Equal("OK"))
		})

		It("is not ready once redis is gone", func() {
			mr.Close()
			ctx := perform(srv, "GET", "/ready", nil)
			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusServiceUnavailable))
		})

		It("rejects other methods on pages", func() {
			ctx := perform(srv, "POST", "/about-us", nil)

			Expect(ctx.Response.StatusCode()).To(Equal(fasthttp.StatusMethodNotAllowed))
			Expect(string(ctx.Response.Header.Peek("Allow"))).To(Equal("GET, HEAD"))
		})

		It("echoes a sanitized request id", func() {
			ctx := perform(srv, "GET", "/health", map[string]string{"X-Request-ID": "trace<script>42"})

			id := string(ctx.Response.Header.Peek("X-Request-ID"))
			Expect(id).NotTo(BeEmpty())
			Expect(strings.ContainsAny(id, "<>")).To(BeFalse())
		})
	})
})
