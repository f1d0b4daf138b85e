package render

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/autoinsurance/storefront/internal/content/markup"
	"github.com/autoinsurance/storefront/internal/content/pipeline"
	"github.com/autoinsurance/storefront/internal/site/navigation"
	"github.com/autoinsurance/storefront/pkg/types"
)

// Sections renders the section list with the page's layout hints
func Sections(sections []types.Section, layout pipeline.LayoutHints, mediaBase string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(sections) == 0 {
			return nil
		}
		h := &htmlWriter{w: w}
		h.raw(`<div class="sections">`)
		for _, s := range sections {
			if h.err != nil {
				break
			}
			h.err = Section(s, layout, mediaBase).Render(ctx, w)
		}
		h.raw(`</div>`)
		return h.err
	})
}

// Section renders one CMS section. Rich fields are sanitized, plain fields
// escaped.
func Section(s types.Section, layout pipeline.LayoutHints, mediaBase string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		center := ""
		if layout.CenterText {
			center = "text-center"
		}

		h.raw(`<section`)
		h.attr("class", classList("section", "section-"+sectionTypeClass(s.Type), center))
		if id := s.Attr("anchor_id"); id != "" {
			h.attr("id", id)
		}
		h.raw(`>`)

		if t := strings.TrimSpace(s.Title()); t != "" {
			h.raw(`<h2 class="section-title">`)
			h.text(t)
			h.raw(`</h2>`)
		}
		if st := strings.TrimSpace(s.Subtitle()); st != "" {
			h.raw(`<p class="section-subtitle">`)
			h.text(st)
			h.raw(`</p>`)
		}

		switch strings.ToLower(s.Type) {
		case types.SectionTypeImage:
			src := s.Src
			if src == "" {
				src = s.Attr("image")
			}
			writeImage(h, navigation.MediaURL(mediaBase, src), firstText(s.Attr("alt"), s.Title()), layout)
		case types.SectionTypeVideo:
			writeVideo(h, navigation.MediaURL(mediaBase, s.VideoURL), s.Title())
		case types.SectionTypeColumns:
			writeColumns(h, s)
		}

		if body := s.Body(); showsContent(body) {
			h.raw(`<div class="section-body">`, SanitizeHTML(body), `</div>`)
		}

		for _, b := range s.Blocks() {
			writeBlock(h, b, layout, mediaBase)
		}

		h.raw(`</section>`)
		return h.err
	})
}

func writeColumns(h *htmlWriter, s types.Section) {
	h.raw(`<div class="columns">`)
	for n := 1; n <= types.ColumnCount; n++ {
		title := strings.TrimSpace(s.Get(types.ColumnTitle(n)))
		subtitle := strings.TrimSpace(s.Get(types.ColumnSubtitle(n)))
		rich := s.Get(types.ColumnRich(n))
		hasRich := showsContent(rich)
		if title == "" && subtitle == "" && !hasRich {
			continue
		}

		h.raw(`<div class="column">`)
		if title != "" {
			h.raw(`<h3 class="column-title">`)
			h.text(title)
			h.raw(`</h3>`)
		}
		if subtitle != "" {
			h.raw(`<p class="column-subtitle">`)
			h.text(subtitle)
			h.raw(`</p>`)
		}
		if hasRich {
			h.raw(`<div class="column-body">`, SanitizeHTML(rich), `</div>`)
		}
		h.raw(`</div>`)
	}
	h.raw(`</div>`)
}

func writeBlock(h *htmlWriter, b types.EditorBlock, layout pipeline.LayoutHints, mediaBase string) {
	kind := strings.ToLower(b.Type)
	switch {
	case kind == types.SectionTypeImage:
		writeImage(h, navigation.MediaURL(mediaBase, b.URL), "", layout)
	case kind == types.SectionTypeEmbed || kind == types.SectionTypeVideo:
		if b.URL != "" {
			writeVideo(h, navigation.MediaURL(mediaBase, b.URL), "")
		} else if b.Content != "" {
			h.raw(`<div class="block-embed">`, SanitizeHTML(b.Content), `</div>`)
		}
	case b.Content != "":
		h.raw(`<div`)
		h.attr("class", "block block-"+sectionTypeClass(kind))
		h.raw(`>`, SanitizeHTML(b.Content), `</div>`)
	}
}

func writeImage(h *htmlWriter, src, alt string, layout pipeline.LayoutHints) {
	src = safeURL(src)
	if src == "" {
		return
	}
	h.raw(`<img`)
	h.attr("src", src)
	h.attr("alt", alt)
	h.raw(` loading="lazy"`)
	if layout.RoundImages {
		h.attr("class", "rounded-full object-cover")
	}
	if layout.ImageSizePx > 0 {
		h.intAttr("width", layout.ImageSizePx)
		h.intAttr("height", layout.ImageSizePx)
	}
	h.raw(`>`)
}

var videoFileExts = []string{".mp4", ".webm", ".ogg", ".mov"}

// writeVideo uses a <video> for direct files and an <iframe> for players
func writeVideo(h *htmlWriter, src, title string) {
	src = safeURL(src)
	if src == "" {
		return
	}

	path := strings.ToLower(src)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, ext := range videoFileExts {
		if strings.HasSuffix(path, ext) {
			h.raw(`<video controls preload="metadata"`)
			h.attr("src", src)
			h.raw(`></video>`)
			return
		}
	}

	h.raw(`<div class="video-embed"><iframe`)
	h.attr("src", src)
	h.attr("title", firstText(title, "Embedded video"))
	h.raw(` loading="lazy" allowfullscreen></iframe></div>`)
}

// showsContent reports whether a fragment displays anything: decoded text
// that is not whitespace (so a lone &nbsp; is blank), or embedded media.
func showsContent(fragment string) bool {
	return strings.TrimSpace(markup.StripTags(fragment)) != "" || markup.ContainsEmbeddedMedia(fragment)
}

// sectionTypeClass keeps CSS class names to [a-z0-9-]
func sectionTypeClass(t string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(t) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '_' || r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "generic"
	}
	return b.String()
}

func firstText(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
