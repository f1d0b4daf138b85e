package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var richPolicy = newRichPolicy()

// newRichPolicy is the UGC policy plus the embeds the CMS editor produces:
// iframes, video and source elements. Policies are safe for concurrent use
// once built.
func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowAttrs("class").Globally()

	p.AllowElements("iframe")
	p.AllowAttrs("src", "title", "allow", "loading", "referrerpolicy").OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(regexp.MustCompile(`^[0-9]+%?$`)).OnElements("iframe", "video")
	p.AllowAttrs("frameborder").Matching(regexp.MustCompile(`^[01]$`)).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").Matching(regexp.MustCompile(`^(|allowfullscreen|true)$`)).OnElements("iframe")

	p.AllowElements("video", "source")
	p.AllowAttrs("src", "poster", "preload").OnElements("video")
	p.AllowAttrs("controls", "muted", "loop", "playsinline").Matching(regexp.MustCompile(`^(|controls|muted|loop|playsinline|true)$`)).OnElements("video")
	p.AllowAttrs("src", "type").OnElements("source")

	p.RequireNoFollowOnLinks(false)
	return p
}

// SanitizeHTML cleans a rich text fragment from the CMS
func SanitizeHTML(fragment string) string {
	return richPolicy.Sanitize(fragment)
}
