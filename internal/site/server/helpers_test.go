package server_test

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	. "github.com/onsi/gomega"
	"github.com/valyala/fasthttp"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/internal/site/events"
	"github.com/autoinsurance/storefront/internal/site/server"
)

// recordingEmitter keeps emitted events in memory
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.PageEvent
	closed bool
}

func (r *recordingEmitter) Emit(e *events.PageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) Close() error {
	r.closed = true
	return nil
}

type staticConfig struct {
	cfg *configtypes.SiteConfig
}

func (s staticConfig) GetConfig() *configtypes.SiteConfig { return s.cfg }

// fakeCMS serves canned content API payloads under /api
type fakeCMS struct {
	*httptest.Server
	pageHits atomic.Int64
}

func newFakeCMS() *fakeCMS {
	f := &fakeCMS{}
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	mux.HandleFunc("/api/homepage", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data":{"meta":{"title":"Compare Car Insurance","description":"Free quotes"},"sections":[
			{"type":"text","title":"Why compare","body":"<p>Save money</p>"},
			{"type":"featured","title":"As seen on"},
			{"type":"text","title":"Featured In","body":"<p>press</p>"},
			{"type":"text","title":"Ultimate Insurance Guide","body":"<p>guide</p>"}
		]}}`)
	})
	mux.HandleFunc("/api/page/about-us/", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		writeJSON(w, `{"meta":{"title":"About"},"sections":[
			{"type":"text","title":"Our Company","subtitle":"Trusted since 2010","body":"<p>Intro</p>"},
			{"type":"text","title":"Our story","body":"<p>Started in a garage</p>"},
			{"type":"text","title":"Who We Are","body":"<p>boilerplate</p>"}
		]}`)
	})
	mux.HandleFunc("/api/page/privacy-policy/", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		writeJSON(w, `{"meta":{"title":"Privacy Policy","description":"How we handle data"},"sections":[
			{"type":"text","title":"Privacy Policy","body":"<p>We collect little.</p>"},
			{"type":"text","title":"Redacted","body":"<p>*****</p>"},
			{"type":"text","title":"16. Assignment","body":"<p>clause</p>"}
		]}`)
	})
	mux.HandleFunc("/api/page/html-page/", func(w http.ResponseWriter, r *http.Request) {
		f.pageHits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	mux.HandleFunc("/api/menu/footer/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"company":[{"name":"About Us","page_slug":"about-us"}],"legal":[{"name":"Privacy Policy","page_slug":"privacy-policy"}]}`)
	})
	mux.HandleFunc("/api/site-config/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"brand_name":"AutoInsurance.org","phone_number":"1-800-555-0100"}`)
	})
	mux.HandleFunc("/api/pages-with-categories/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"pages":[{"slug":"car-insurance","name":"Car Insurance","has_dropdown":false},{"slug":"state","name":"State","has_dropdown":false}]}`)
	})
	mux.HandleFunc("/api/footer-address/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"address":" 1 Main St "}`)
	})

	f.Server = httptest.NewServer(mux)
	return f
}

func (f *fakeCMS) base() string { return f.URL + "/api" }

// perform runs one request through the handler
func perform(s *server.Server, method, uri string, headers map[string]string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.SetHost("storefront.test")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, &net.TCPAddr{IP: net.ParseIP("198.51.100.7"), Port: 40000}, nil)
	s.HandleRequest(ctx)
	return ctx
}

func parseHTML(body []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	return doc
}

func decodeEnvelope(body []byte) map[string]interface{} {
	var out map[string]interface{}
	Expect(json.Unmarshal(body, &out)).To(Succeed())
	return out
}
