package server

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/autoinsurance/storefront/internal/common/httputil"
	"github.com/autoinsurance/storefront/internal/common/urlutil"
	"github.com/autoinsurance/storefront/internal/content"
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/internal/site/navigation"
	"github.com/autoinsurance/storefront/internal/site/pagectx"
	"github.com/autoinsurance/storefront/internal/site/render"
	"github.com/autoinsurance/storefront/pkg/types"
)

// bundle is everything fetched for one page render
type bundle struct {
	page     types.Page
	menu     types.FooterMenu
	settings types.SiteSettings
	nav      types.NavigationPayload
	address  types.FooterAddress
}

// fetchBundle loads the page payload and footer menu, plus the layout
// payloads when withChrome is set. All requests run concurrently and are
// awaited before returning.
func (s *Server) fetchBundle(pc *pagectx.PageContext, key string, withChrome bool) bundle {
	cfg := s.configManager.GetConfig()
	host := string(pc.HTTPCtx.Host())
	if cfg.ContentAPI.BaseURL == "" && !urlutil.HostAllowed(host, cfg.ContentAPI.AllowedHosts) {
		pc.Logger.Warn("Request host not allowed for content API base, using localhost", zap.String("host", host))
		host = "localhost"
	}
	base := content.ResolveBase(cfg.ContentAPI.BaseURL, host, cfg.ContentAPI.FallbackPort)
	pc.WithAPIBase(base)

	reqCtx, cancel := pc.Context()
	defer cancel()

	var b bundle
	g, gctx := errgroup.WithContext(reqCtx)
	g.Go(func() error {
		if key == pipeline.HomeKey {
			b.page = s.content.FetchHomepage(gctx, base)
		} else {
			b.page = s.content.FetchPage(gctx, base, key)
		}
		return nil
	})
	g.Go(func() error {
		b.menu = s.content.FetchFooterMenu(gctx, base)
		return nil
	})
	if withChrome {
		g.Go(func() error {
			b.settings = s.content.FetchSiteSettings(gctx, base)
			return nil
		})
		g.Go(func() error {
			b.nav = s.content.FetchNavigation(gctx, base)
			return nil
		})
		g.Go(func() error {
			b.address = s.content.FetchFooterAddress(gctx, base)
			return nil
		})
	}
	// fetchers degrade instead of failing, so Wait never returns an error
	_ = g.Wait()
	return b
}

// build classifies the page and runs the section pipeline
func (s *Server) build(pc *pagectx.PageContext, key string, b bundle) pipeline.Result {
	policy := s.configManager.GetConfig().Policy
	category := pipeline.Classify(key, b.menu, policy)
	pc.WithCategory(category)

	result := pipeline.Build(pipeline.Input{
		Key:      key,
		Category: category,
		Sections: b.page.Sections,
		Meta:     b.page.Meta,
	}, policy)

	pc.Sections = len(result.Sections)
	pc.Dropped = 0
	for _, st := range result.Stages {
		pc.Dropped += st.Dropped()
	}

	pc.Logger.Debug("Page assembled",
		zap.Int("sections_in", len(b.page.Sections)),
		zap.Int("sections_out", len(result.Sections)))
	return result
}

// servePage renders key as a full HTML document. form carries the quote
// form state when re-rendering the home page after a bad submission.
func (s *Server) servePage(pc *pagectx.PageContext, key string, form *render.ZIPForm, status int) {
	start := time.Now()
	pc.WithSlug(key)

	b := s.fetchBundle(pc, key, true)
	result := s.build(pc, key, b)

	cfg := s.configManager.GetConfig()
	view := render.PageView{
		Title:       pageTitle(b.page.Meta, result),
		Description: strings.TrimSpace(b.page.Meta.Description),
		OGImage:     firstNonBlank(b.page.Meta.OGImage, b.page.Meta.Image, b.page.Meta.HeroImage),
		MediaBase:   cfg.Site.MediaBase,
		Chrome: navigation.BuildChrome(navigation.ChromeInput{
			Settings:   b.settings,
			Menu:       b.menu,
			Navigation: b.nav,
			Address:    b.address,
		}, cfg.Site, s.now()),
		Result:  result,
		Helpful: navigation.HelpfulLinks(b.menu, key),
	}
	if form != nil {
		view.ZIP = *form
	}

	var buf bytes.Buffer
	if err := render.Document(view).Render(context.Background(), &buf); err != nil {
		pc.Logger.Error("Failed to render page", zap.Error(err))
		s.writeError(pc.HTTPCtx, fasthttp.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.metrics.RecordPageRender(string(result.Category), time.Since(start), droppedByStage(result))
	s.writeHTML(pc, buf.Bytes(), status)
}

// handleSections serves the pipeline result as JSON
func (s *Server) handleSections(pc *pagectx.PageContext, key string) {
	start := time.Now()
	pc.WithSlug(key)

	b := s.fetchBundle(pc, key, false)
	result := s.build(pc, key, b)

	s.metrics.RecordPageRender(string(result.Category), time.Since(start), droppedByStage(result))
	httputil.JSONData(pc.HTTPCtx, result, fasthttp.StatusOK)
}

func droppedByStage(result pipeline.Result) map[string]int {
	dropped := make(map[string]int, len(result.Stages))
	for _, st := range result.Stages {
		dropped[st.Stage] += st.Dropped()
	}
	return dropped
}

func pageTitle(meta types.PageMeta, result pipeline.Result) string {
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t
	}
	if result.Hero != nil {
		return result.Hero.Title
	}
	return ""
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
