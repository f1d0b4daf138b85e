// Package navigation turns CMS menu and settings payloads into the links and
// labels the layout renders.
package navigation

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
	"github.com/autoinsurance/storefront/pkg/types"
)

// excludedNavSlug duplicates the state landing page and is never listed
const excludedNavSlug = "state"

// ResolveHref returns the link target: the explicit href, else
// /{escaped page slug} with an optional #anchor, else "#".
func ResolveHref(item types.LinkItem) string {
	if item.Href != "" {
		return item.Href
	}
	if item.PageSlug != "" {
		href := "/" + url.PathEscape(item.PageSlug)
		if item.AnchorID != "" {
			href += "#" + item.AnchorID
		}
		return href
	}
	return "#"
}

// HelpfulLinks lists every footer menu link except the ones pointing at slug
func HelpfulLinks(menu types.FooterMenu, slug string) []types.LinkItem {
	current := strings.ToLower(slug)
	links := make([]types.LinkItem, 0, len(menu.Company)+len(menu.Legal))
	for _, l := range menu.All() {
		if strings.ToLower(l.PageSlug) == current {
			continue
		}
		links = append(links, l)
	}
	return links
}

// NavItem is a top-level navbar entry
type NavItem struct {
	Slug        string
	Name        string
	HasDropdown bool
	Items       []types.NavCategory
}

// Href of the navbar entry itself
func (n NavItem) Href() string {
	return "/" + url.PathEscape(n.Slug)
}

// CategoryHref links a dropdown entry below its page
func (n NavItem) CategoryHref(c types.NavCategory) string {
	return n.Href() + "/" + url.PathEscape(c.Slug)
}

// TransformNav keeps every page except the "state" duplicate, in order
func TransformNav(pages []types.NavPage) []NavItem {
	items := make([]NavItem, 0, len(pages))
	for _, p := range pages {
		if p.Slug == excludedNavSlug {
			continue
		}
		items = append(items, NavItem{
			Slug:        p.Slug,
			Name:        p.Name,
			HasDropdown: p.HasDropdown,
			Items:       append([]types.NavCategory(nil), p.Categories...),
		})
	}
	return items
}

// SocialLinks trims and deduplicates the settings' social URLs, keeping the
// first occurrence.
func SocialLinks(settings types.SiteSettings) []string {
	seen := make(map[string]bool, len(settings.SocialLinks))
	var out []string
	for _, raw := range settings.SocialLinks {
		href := strings.TrimSpace(raw)
		if href == "" || seen[href] {
			continue
		}
		seen[href] = true
		out = append(out, href)
	}
	return out
}

// Icon names the glyph drawn for a social link
type Icon string

const (
	IconFacebook  Icon = "facebook"
	IconTwitter   Icon = "twitter"
	IconInstagram Icon = "instagram"
	IconYouTube   Icon = "youtube"
	IconLinkedIn  Icon = "linkedin"
	IconGlobe     Icon = "globe"
)

// IconFor picks an icon from the link's hostname
func IconFor(link string) Icon {
	u, err := url.Parse(link)
	if err != nil {
		return IconGlobe
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "facebook"):
		return IconFacebook
	case strings.Contains(host, "twitter"), strings.Contains(host, "x.com"):
		return IconTwitter
	case strings.Contains(host, "instagram"):
		return IconInstagram
	case strings.Contains(host, "youtube"):
		return IconYouTube
	case strings.Contains(host, "linkedin"):
		return IconLinkedIn
	}
	return IconGlobe
}

// Versioned appends v=version to the URL so a changed logo busts caches.
// An empty URL stays empty.
func Versioned(link, version string) string {
	link = strings.TrimSpace(link)
	if link == "" || version == "" {
		return link
	}
	sep := "?"
	if strings.Contains(link, "?") {
		sep = "&"
	}
	return link + sep + "v=" + url.QueryEscape(version)
}

// MediaURL resolves CMS media paths against the media base. Absolute and
// protocol-relative URLs pass through.
func MediaURL(base, link string) string {
	link = strings.TrimSpace(link)
	if link == "" || base == "" {
		return link
	}
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(link, "//") || strings.HasPrefix(lower, "data:") {
		return link
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(link, "/")
}

// TelHref builds a tel: link with whitespace removed
func TelHref(phone string) string {
	return "tel:" + strings.Join(strings.Fields(phone), "")
}

// SocialLink is a rendered social icon
type SocialLink struct {
	Href string
	Icon Icon
}

// Chrome is everything the navbar and footer show, defaults applied
type Chrome struct {
	BrandName  string
	LogoURL    string
	LogoHeight int
	Phone      string
	FooterText string
	Disclaimer string
	Copyright  string
	Address    string
	Social     []SocialLink
	Company    []types.LinkItem
	Legal      []types.LinkItem
	Nav        []NavItem
}

// ChromeInput gathers the fetched payloads Chrome is built from
type ChromeInput struct {
	Settings   types.SiteSettings
	Menu       types.FooterMenu
	Navigation types.NavigationPayload
	Address    types.FooterAddress
}

// BuildChrome applies site identity defaults to the fetched settings. The
// footer-address payload wins over the settings address when present.
func BuildChrome(in ChromeInput, identity configtypes.SiteIdentity, now time.Time) Chrome {
	s := in.Settings
	c := Chrome{
		BrandName:  firstNonBlank(s.BrandName, identity.BrandName),
		LogoHeight: s.LogoHeight,
		Phone:      strings.TrimSpace(s.PhoneNumber),
		FooterText: firstNonBlank(s.FooterText, identity.FooterText),
		Disclaimer: firstNonBlank(s.Disclaimer, identity.Disclaimer),
		Address:    firstNonBlank(in.Address.Address, s.Address),
		Company:    in.Menu.Company,
		Legal:      in.Menu.Legal,
		Nav:        TransformNav(in.Navigation.Pages),
	}

	if s.LogoURL != "" {
		c.LogoURL = Versioned(MediaURL(identity.MediaBase, s.LogoURL), s.UpdatedAt)
	}

	c.Copyright = strings.TrimSpace(s.CopyrightText)
	if c.Copyright == "" {
		c.Copyright = fmt.Sprintf("Copyright © %d %s", now.Year(), c.BrandName)
	}

	for _, href := range SocialLinks(s) {
		c.Social = append(c.Social, SocialLink{Href: href, Icon: IconFor(href)})
	}

	return c
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
