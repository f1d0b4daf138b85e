package pipeline

import (
	"strings"

	"github.com/autoinsurance/storefront/internal/content/markup"
	"github.com/autoinsurance/storefront/pkg/types"
)

// ContentKind names the representation that made a section renderable.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentFlatText
	ContentEmbeddedMedia
	ContentEditorBlocks
	ContentMediaProps
)

func (k ContentKind) String() string {
	switch k {
	case ContentFlatText:
		return "flat_text"
	case ContentEmbeddedMedia:
		return "embedded_media"
	case ContentEditorBlocks:
		return "editor_blocks"
	case ContentMediaProps:
		return "media_props"
	}
	return "none"
}

var mediaBlockTypes = map[string]bool{"embed": true, "video": true, "image": true}

var textBlockMarkers = []string{"rich", "text", "html"}

// markupFields may carry authored HTML and so embedded media. Titles and
// subtitles are plain text and are only checked for visible text.
var markupFields = func() []types.Field {
	fields := []types.Field{types.FieldBody}
	for n := 1; n <= types.ColumnCount; n++ {
		fields = append(fields, types.ColumnRich(n))
	}
	return fields
}()

// contentChecks is evaluated in order; the first match decides.
var contentChecks = []struct {
	kind  ContentKind
	check func(types.Section) bool
}{
	{ContentFlatText, hasFlatText},
	{ContentEmbeddedMedia, hasEmbeddedMedia},
	{ContentEditorBlocks, hasBlockContent},
	{ContentMediaProps, hasMediaProps},
}

// DetectContent reports which representation gives the section renderable
// content, or ContentNone when it has none.
func DetectContent(s types.Section) ContentKind {
	for _, c := range contentChecks {
		if c.check(s) {
			return c.kind
		}
	}
	return ContentNone
}

// FilterEmpty keeps only sections with renderable content. Order is preserved.
func FilterEmpty(sections []types.Section) []types.Section {
	out := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		if DetectContent(s) != ContentNone {
			out = append(out, s)
		}
	}
	return out
}

func hasFlatText(s types.Section) bool {
	for _, f := range types.ContentFields {
		if markup.HasVisibleText(s.Get(f)) {
			return true
		}
	}
	return false
}

func hasEmbeddedMedia(s types.Section) bool {
	for _, f := range markupFields {
		if markup.ContainsEmbeddedMedia(s.Get(f)) {
			return true
		}
	}
	return false
}

func hasBlockContent(s types.Section) bool {
	for _, b := range s.Blocks() {
		t := strings.ToLower(b.Type)
		if mediaBlockTypes[t] {
			return true
		}
		for _, marker := range textBlockMarkers {
			if strings.Contains(t, marker) {
				if markup.HasVisibleText(b.Content) {
					return true
				}
				break
			}
		}
	}
	return false
}

func hasMediaProps(s types.Section) bool {
	return (s.Type == types.SectionTypeImage && s.Src != "") ||
		(s.Type == types.SectionTypeVideo && s.VideoURL != "")
}
