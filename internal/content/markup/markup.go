// Package markup extracts visible text from CMS-authored HTML fragments.
package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// mediaMarkers are opening-tag prefixes that mark a fragment as carrying
// embedded media even when it has no visible text.
var mediaMarkers = []string{"<iframe", "<video", "<img"}

// StripTags returns the text content of an HTML fragment with all tags
// removed and entities decoded. Comments and doctype tokens are dropped.
func StripTags(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	return textContent(fragment, true)
}

// RemoveTags drops tags, comments and doctypes but leaves entity references
// as written, so "<p>&nbsp;</p>" keeps its "&nbsp;".
func RemoveTags(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	return textContent(fragment, false)
}

func textContent(fragment string, decode bool) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF is the only error a strings.Reader can produce
			return sb.String()
		case html.TextToken:
			if decode {
				sb.Write(z.Text())
			} else {
				sb.Write(z.Raw())
			}
		}
	}
}

// HasVisibleText reports whether the fragment has non-whitespace text once
// tags are removed. Entities count as text: editor placeholders such as
// "<p>&nbsp;</p>" are visible.
func HasVisibleText(fragment string) bool {
	return strings.TrimSpace(RemoveTags(fragment)) != ""
}

// ContainsEmbeddedMedia reports whether the raw fragment contains an iframe,
// video or img tag. The check is a case-insensitive substring match on the
// unparsed value.
func ContainsEmbeddedMedia(fragment string) bool {
	if fragment == "" {
		return false
	}
	lower := strings.ToLower(fragment)
	for _, marker := range mediaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
