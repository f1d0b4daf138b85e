// Package render writes the storefront HTML. Components are templ
// components built from ComponentFunc so the package needs no code
// generation step.
package render

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/internal/site/navigation"
	"github.com/autoinsurance/storefront/pkg/types"
)

const (
	aboutHeroImage   = "/globe.svg"
	helpfulLinksHead = "Helpful Links"
	zipHeading       = "Compare Quotes Now:"
)

// ZIPForm is the state of the quote form
type ZIPForm struct {
	Action string
	Value  string
	Error  string
}

// PageView is everything needed to render one full page
type PageView struct {
	Title       string
	Description string
	OGImage     string
	MediaBase   string
	Chrome      navigation.Chrome
	Result      pipeline.Result
	Helpful     []types.LinkItem
	ZIP         ZIPForm
}

// Document renders the complete HTML document
func Document(v PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(firstText(v.Title, v.Chrome.BrandName))
		h.raw(`</title>`)
		if v.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", v.Description)
			h.raw(`>`)
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", firstText(v.Title, v.Chrome.BrandName))
		h.raw(`>`)
		if img := safeURL(navigation.MediaURL(v.MediaBase, v.OGImage)); img != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", img)
			h.raw(`>`)
		}
		h.raw(`<link rel="stylesheet" href="/static/site.css"></head><body>`)
		if h.err != nil {
			return h.err
		}

		parts := []templ.Component{Navbar(v.Chrome), Main(v), Footer(v.Chrome)}
		for _, c := range parts {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}

		h.raw(`</body></html>`)
		return h.err
	})
}

// Main renders the page body between navbar and footer
func Main(v PageView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<main`)
		h.attr("class", "page page-"+string(v.Result.Category))
		h.raw(`>`)
		if h.err != nil {
			return h.err
		}

		var parts []templ.Component
		if v.Result.Category == pipeline.CategoryHome {
			parts = append(parts, HomeHero(v.ZIP))
		} else if v.Result.Hero != nil {
			hero := *v.Result.Hero
			if hero.ImageURL == "" && v.Result.Category == pipeline.CategoryAbout {
				hero.ImageURL = aboutHeroImage
			}
			hero.ImageURL = navigation.MediaURL(v.MediaBase, hero.ImageURL)
			parts = append(parts, Hero(hero))
		}
		parts = append(parts, Sections(v.Result.Sections, v.Result.Layout, v.MediaBase))
		if v.Result.Layout.HelpfulLinks {
			parts = append(parts, HelpfulLinks(v.Helpful))
		}

		for _, c := range parts {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		h.raw(`</main>`)
		return h.err
	})
}

// Hero is the dark banner above about and footer pages
func Hero(hero pipeline.Hero) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="page-hero page-hero-dark"><div class="page-hero-text">`)
		h.raw(`<h1>`)
		h.text(hero.Title)
		h.raw(`</h1>`)
		if hero.Subtitle != "" {
			h.raw(`<p class="page-hero-subtitle">`)
			h.text(hero.Subtitle)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
		if src := safeURL(hero.ImageURL); src != "" {
			h.raw(`<img class="page-hero-image"`)
			h.attr("src", src)
			h.raw(` alt="">`)
		}
		h.raw(`</section>`)
		return h.err
	})
}

// HomeHero is the home page banner holding the ZIP form
func HomeHero(form ZIPForm) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<section class="home-hero">`)
		if h.err != nil {
			return h.err
		}
		if err := ZipForm(form).Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</section>`)
		return h.err
	})
}

// ZipForm renders the quote form. It submits with GET so the server can
// validate and redirect.
func ZipForm(form ZIPForm) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		action := form.Action
		if action == "" {
			action = "/quote"
		}

		h.raw(`<div class="zip-card"><h2>`)
		h.text(zipHeading)
		h.raw(`</h2><form class="zip-form" method="get" novalidate`)
		h.attr("action", action)
		h.raw(`><input type="text" name="zip" inputmode="numeric" maxlength="10" placeholder="Enter 5-digit ZIP" required`)
		h.attr("value", form.Value)
		if form.Error != "" {
			h.raw(` aria-invalid="true"`)
		}
		h.raw(`><button type="submit">Get FREE Quotes</button></form>`)
		if form.Error != "" {
			h.raw(`<p class="zip-error" role="alert">`)
			h.text(form.Error)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// HelpfulLinks lists footer menu links other than the current page
func HelpfulLinks(links []types.LinkItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(links) == 0 {
			return nil
		}
		h := &htmlWriter{w: w}
		h.raw(`<nav class="helpful-links"><h2>`)
		h.text(helpfulLinksHead)
		h.raw(`</h2><ul>`)
		writeLinks(h, links)
		h.raw(`</ul></nav>`)
		return h.err
	})
}

func writeLinks(h *htmlWriter, links []types.LinkItem) {
	for _, l := range links {
		h.raw(`<li><a`)
		h.attr("href", firstText(safeURL(navigation.ResolveHref(l)), "#"))
		h.raw(`>`)
		h.text(l.Name)
		h.raw(`</a></li>`)
	}
}
