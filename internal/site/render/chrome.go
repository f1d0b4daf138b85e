package render

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/autoinsurance/storefront/internal/site/navigation"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Navbar renders brand, navigation with category dropdowns and the phone link
func Navbar(c navigation.Chrome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<header class="navbar"><a class="brand" href="/">`)
		writeLogo(h, c)
		h.raw(`</a>`)

		if len(c.Nav) > 0 {
			h.raw(`<nav class="nav"><ul>`)
			for _, item := range c.Nav {
				dropdown := item.HasDropdown && len(item.Items) > 0
				h.raw(`<li`)
				if dropdown {
					h.attr("class", "nav-item has-dropdown")
				} else {
					h.attr("class", "nav-item")
				}
				h.raw(`><a`)
				h.attr("href", item.Href())
				h.raw(`>`)
				h.text(item.Name)
				h.raw(`</a>`)
				if dropdown {
					h.raw(`<ul class="dropdown">`)
					for _, cat := range item.Items {
						h.raw(`<li><a`)
						h.attr("href", item.CategoryHref(cat))
						h.raw(`>`)
						h.text(cat.Name)
						h.raw(`</a></li>`)
					}
					h.raw(`</ul>`)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul></nav>`)
		}

		if c.Phone != "" {
			h.raw(`<a class="phone"`)
			h.attr("href", navigation.TelHref(c.Phone))
			h.raw(`>`)
			h.text(c.Phone)
			h.raw(`</a>`)
		}
		h.raw(`</header>`)
		return h.err
	})
}

// Footer renders brand text, link groups, social icons and the legal lines
func Footer(c navigation.Chrome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<footer class="footer"><div class="footer-brand">`)
		writeLogo(h, c)
		if c.FooterText != "" {
			h.raw(`<p class="footer-text">`)
			h.text(c.FooterText)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)

		if len(c.Social) > 0 {
			h.raw(`<ul class="social">`)
			for _, s := range c.Social {
				href := safeURL(s.Href)
				if href == "" {
					continue
				}
				h.raw(`<li><a target="_blank" rel="noopener noreferrer" aria-label="Social link"`)
				h.attr("href", href)
				h.attr("data-icon", string(s.Icon))
				h.raw(`></a></li>`)
			}
			h.raw(`</ul>`)
		}

		writeLinkGroup(h, "Company", c.Company)
		writeLinkGroup(h, "Legal", c.Legal)

		h.raw(`<div class="footer-bottom"><p class="copyright">`)
		h.text(c.Copyright)
		h.raw(`</p>`)
		if c.Address != "" {
			h.raw(`<address>`)
			h.text(c.Address)
			h.raw(`</address>`)
		}
		h.raw(`</div><p class="disclaimer">`)
		h.text(c.Disclaimer)
		h.raw(`</p></footer>`)
		return h.err
	})
}

func writeLinkGroup(h *htmlWriter, heading string, links []types.LinkItem) {
	if len(links) == 0 {
		return
	}
	h.raw(`<div class="footer-links"><h4>`)
	h.text(heading)
	h.raw(`</h4><ul>`)
	writeLinks(h, links)
	h.raw(`</ul></div>`)
}

func writeLogo(h *htmlWriter, c navigation.Chrome) {
	if src := safeURL(c.LogoURL); src != "" {
		h.raw(`<img class="logo"`)
		h.attr("src", src)
		h.attr("alt", c.BrandName)
		if c.LogoHeight > 0 {
			h.intAttr("height", c.LogoHeight)
		}
		h.raw(`>`)
		return
	}
	h.raw(`<span class="brand-name">`)
	h.text(c.BrandName)
	h.raw(`</span>`)
}
