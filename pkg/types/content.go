package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field names a text-bearing property of a Section as it appears in the CMS payload.
type Field string

const (
	FieldTitle    Field = "title"
	FieldSubtitle Field = "subtitle"
	FieldBody     Field = "body"
)

// ColumnCount is the number of parallel column groups a section may carry.
const ColumnCount = 5

// ColumnTitle returns the colN_title field for column n (1-based).
func ColumnTitle(n int) Field { return Field(fmt.Sprintf("col%d_title", n)) }

// ColumnSubtitle returns the colN_subtitle field for column n (1-based).
func ColumnSubtitle(n int) Field { return Field(fmt.Sprintf("col%d_subtitle", n)) }

// ColumnRich returns the colN_rich field for column n (1-based).
func ColumnRich(n int) Field { return Field(fmt.Sprintf("col%d_rich", n)) }

var (
	// TextFields lists every text-bearing field, in payload order.
	TextFields = buildTextFields()

	// ContentFields lists the fields whose text counts as section content:
	// title, subtitle, body and the rich body of each column.
	ContentFields = buildContentFields()

	textFieldSet = func() map[string]Field {
		set := make(map[string]Field, len(TextFields))
		for _, f := range TextFields {
			set[string(f)] = f
		}
		return set
	}()
)

func buildTextFields() []Field {
	fields := []Field{FieldTitle, FieldSubtitle, FieldBody}
	for n := 1; n <= ColumnCount; n++ {
		fields = append(fields, ColumnTitle(n), ColumnSubtitle(n), ColumnRich(n))
	}
	return fields
}

func buildContentFields() []Field {
	fields := []Field{FieldTitle, FieldSubtitle, FieldBody}
	for n := 1; n <= ColumnCount; n++ {
		fields = append(fields, ColumnRich(n))
	}
	return fields
}

// Known section type discriminators
const (
	SectionTypeText    = "text"
	SectionTypeImage   = "image"
	SectionTypeVideo   = "video"
	SectionTypeColumns = "columns"
	SectionTypeEmbed   = "embed"
)

// Section is a single CMS content block.
//
// Text fields live in a map so that a field the CMS did not send stays absent
// and is distinguishable from one sent as an empty string. Keys the model does
// not know about are kept in Extra and written back unchanged by MarshalJSON.
type Section struct {
	Type     string
	Text     map[Field]string
	Src      string
	VideoURL string

	// EditorBlocks holds the raw "editor_blocks" value, LegacyBlocks the raw
	// "blocks" value. Either may be a JSON array or a JSON-encoded string.
	EditorBlocks json.RawMessage
	LegacyBlocks json.RawMessage

	Extra map[string]json.RawMessage
}

// Lookup returns the value of a text field and whether the field is present.
func (s Section) Lookup(f Field) (string, bool) {
	v, ok := s.Text[f]
	return v, ok
}

// Get returns the value of a text field, or "" when absent.
func (s Section) Get(f Field) string {
	return s.Text[f]
}

// Title is shorthand for Get(FieldTitle).
func (s Section) Title() string { return s.Text[FieldTitle] }

// Subtitle is shorthand for Get(FieldSubtitle).
func (s Section) Subtitle() string { return s.Text[FieldSubtitle] }

// Body is shorthand for Get(FieldBody).
func (s Section) Body() string { return s.Text[FieldBody] }

// Attr returns an unmodelled string property such as "alt" or "caption".
func (s Section) Attr(key string) string {
	raw, ok := s.Extra[key]
	if !ok {
		return ""
	}
	v, _ := rawString(raw)
	return v
}

// Clone returns a shallow copy whose text map can be modified independently.
func (s Section) Clone() Section {
	next := s
	next.Text = make(map[Field]string, len(s.Text))
	for k, v := range s.Text {
		next.Text[k] = v
	}
	return next
}

// Blocks parses the section's editor blocks, preferring "editor_blocks" over
// the legacy "blocks" key. Malformed encodings yield an empty list.
func (s Section) Blocks() []EditorBlock {
	raw := s.EditorBlocks
	if isFalsyJSON(raw) {
		raw = s.LegacyBlocks
	}
	return ParseEditorBlocks(raw)
}

// UnmarshalJSON decodes a section leniently: string-valued text fields populate
// Text, everything else is preserved in Extra.
func (s *Section) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	out := Section{Text: make(map[Field]string)}
	for key, raw := range obj {
		if f, ok := textFieldSet[key]; ok {
			if v, isString := rawString(raw); isString {
				out.Text[f] = v
				continue
			}
		}

		switch key {
		case "type":
			if v, ok := rawString(raw); ok {
				out.Type = v
				continue
			}
		case "src":
			if v, ok := rawString(raw); ok {
				out.Src = v
				continue
			}
		case "video_url":
			if v, ok := rawString(raw); ok {
				out.VideoURL = v
				continue
			}
		case "editor_blocks":
			out.EditorBlocks = raw
			continue
		case "blocks":
			out.LegacyBlocks = raw
			continue
		}

		if out.Extra == nil {
			out.Extra = make(map[string]json.RawMessage)
		}
		out.Extra[key] = raw
	}

	*s = out
	return nil
}

// MarshalJSON writes the section back in CMS shape.
func (s Section) MarshalJSON() ([]byte, error) {
	obj := make(map[string]interface{}, len(s.Extra)+len(s.Text)+5)
	for k, v := range s.Extra {
		obj[k] = v
	}
	obj["type"] = s.Type
	for f, v := range s.Text {
		obj[string(f)] = v
	}
	if s.Src != "" {
		obj["src"] = s.Src
	}
	if s.VideoURL != "" {
		obj["video_url"] = s.VideoURL
	}
	if len(s.EditorBlocks) > 0 {
		obj["editor_blocks"] = s.EditorBlocks
	}
	if len(s.LegacyBlocks) > 0 {
		obj["blocks"] = s.LegacyBlocks
	}
	return json.Marshal(obj)
}

// EditorBlock is one sub-block of rich editor output.
type EditorBlock struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ParseEditorBlocks decodes an editor block list that may be given either as a
// JSON array or as a string containing a JSON array. Anything else, including
// a string that fails to parse, yields an empty list.
func ParseEditorBlocks(raw json.RawMessage) []EditorBlock {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil
		}
		raw = bytes.TrimSpace([]byte(encoded))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	blocks := make([]EditorBlock, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		blocks = append(blocks, EditorBlock{
			Type:    firstString(obj, "type", "block_type"),
			Content: firstString(obj, "html", "body", "content"),
			URL:     firstString(obj, "url", "src", "embed"),
		})
	}
	return blocks
}

// PageMeta is the metadata block of a page payload.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	HeroImage   string `json:"hero_image,omitempty"`
	OGImage     string `json:"og_image,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Page is the content payload for one page.
type Page struct {
	Meta     PageMeta  `json:"meta"`
	Sections []Section `json:"sections"`
}

// EmptyPage is the designated payload returned when content cannot be fetched.
func EmptyPage() Page {
	return Page{Sections: []Section{}}
}

// DecodePage decodes a page payload. A top-level "data" envelope is unwrapped,
// a non-array "sections" becomes an empty list, and entries that are not JSON
// objects are skipped.
func DecodePage(data []byte) (Page, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return EmptyPage(), fmt.Errorf("decode page: %w", err)
	}

	if inner, ok := obj["data"]; ok && !isFalsyJSON(inner) {
		var unwrapped map[string]json.RawMessage
		if err := json.Unmarshal(inner, &unwrapped); err == nil {
			obj = unwrapped
		}
	}

	page := EmptyPage()

	var meta map[string]json.RawMessage
	if raw, ok := obj["meta"]; ok && json.Unmarshal(raw, &meta) == nil {
		page.Meta = PageMeta{
			Title:       firstString(meta, "title"),
			Description: firstString(meta, "description"),
			HeroImage:   firstString(meta, "hero_image"),
			OGImage:     firstString(meta, "og_image"),
			Image:       firstString(meta, "image"),
		}
	}

	var items []json.RawMessage
	if raw, ok := obj["sections"]; ok && json.Unmarshal(raw, &items) == nil {
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || item[0] != '{' {
				continue
			}
			var section Section
			if err := json.Unmarshal(item, &section); err != nil {
				continue
			}
			page.Sections = append(page.Sections, section)
		}
	}

	return page, nil
}

// LinkItem is one footer menu entry.
type LinkItem struct {
	Name     string `json:"name"`
	PageSlug string `json:"page_slug,omitempty"`
	Href     string `json:"href,omitempty"`
	AnchorID string `json:"anchor_id,omitempty"`
}

// FooterMenu is the company/legal footer menu.
type FooterMenu struct {
	Company []LinkItem `json:"company"`
	Legal   []LinkItem `json:"legal"`
}

// All returns company links followed by legal links.
func (m FooterMenu) All() []LinkItem {
	all := make([]LinkItem, 0, len(m.Company)+len(m.Legal))
	all = append(all, m.Company...)
	return append(all, m.Legal...)
}

// DecodeFooterMenu decodes the footer menu; non-array groups become empty.
func DecodeFooterMenu(data []byte) (FooterMenu, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return FooterMenu{}, fmt.Errorf("decode footer menu: %w", err)
	}
	return FooterMenu{
		Company: decodeLinks(obj["company"]),
		Legal:   decodeLinks(obj["legal"]),
	}, nil
}

func decodeLinks(raw json.RawMessage) []LinkItem {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	links := make([]LinkItem, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		links = append(links, LinkItem{
			Name:     firstString(obj, "name"),
			PageSlug: firstScalar(obj, "page_slug"),
			Href:     firstString(obj, "href"),
			AnchorID: firstScalar(obj, "anchor_id"),
		})
	}
	return links
}

// SiteSettings is the site-wide configuration served by the content API.
type SiteSettings struct {
	BrandName     string   `json:"brand_name,omitempty"`
	LogoURL       string   `json:"logo_url,omitempty"`
	LogoHeight    int      `json:"logo_height,omitempty"`
	PhoneNumber   string   `json:"phone_number,omitempty"`
	FooterText    string   `json:"footer_text,omitempty"`
	Disclaimer    string   `json:"disclaimer,omitempty"`
	CopyrightText string   `json:"copyright_text,omitempty"`
	Address       string   `json:"address,omitempty"`
	SocialLinks   []string `json:"social_links,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

// socialFields are the per-network URL fields merged into SocialLinks.
var socialFields = []string{"facebook_url", "twitter_url", "instagram_url", "linkedin_url", "youtube_url"}

// DecodeSiteSettings decodes the site-config payload, folding the several
// aliases the CMS has used over time into one field each.
func DecodeSiteSettings(data []byte) (SiteSettings, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return SiteSettings{}, fmt.Errorf("decode site settings: %w", err)
	}

	settings := SiteSettings{
		BrandName:     strings.TrimSpace(firstString(obj, "brand_name", "site_name")),
		LogoURL:       firstString(obj, "logo_url"),
		LogoHeight:    firstInt(obj, "logo_height", "logo_height_px"),
		PhoneNumber:   firstString(obj, "phone_number"),
		FooterText:    strings.TrimSpace(firstString(obj, "footer_text")),
		Disclaimer:    strings.TrimSpace(firstString(obj, "footer_disclaimer", "disclaimer", "disclaimer_text")),
		CopyrightText: strings.TrimSpace(firstString(obj, "copyright_text")),
		Address:       strings.TrimSpace(firstString(obj, "address")),
		UpdatedAt:     firstScalar(obj, "updated_at"),
	}

	var listed []json.RawMessage
	if raw, ok := obj["social_links"]; ok && json.Unmarshal(raw, &listed) == nil {
		for _, item := range listed {
			if v, ok := rawString(item); ok {
				settings.SocialLinks = append(settings.SocialLinks, v)
			}
		}
	}
	for _, key := range socialFields {
		if v := firstString(obj, key); v != "" {
			settings.SocialLinks = append(settings.SocialLinks, v)
		}
	}

	return settings, nil
}

// FooterAddress is the address block derived from article content.
type FooterAddress struct {
	Address string `json:"address"`
	Source  string `json:"source,omitempty"`
}

// NavCategory is one dropdown entry under a navigation page.
type NavCategory struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// NavPage is one top-level navigation entry.
type NavPage struct {
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	HasDropdown bool          `json:"has_dropdown"`
	Categories  []NavCategory `json:"categories,omitempty"`
}

// NavigationPayload is the pages-with-categories response.
type NavigationPayload struct {
	Pages []NavPage `json:"pages"`
}

func rawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// firstString returns the first non-empty string value among keys.
func firstString(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if v, ok := rawString(obj[key]); ok && v != "" {
			return v
		}
	}
	return ""
}

// firstScalar is firstString that also accepts numbers, rendered as written.
func firstScalar(obj map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw := bytes.TrimSpace(obj[key])
		if v, ok := rawString(raw); ok && v != "" {
			return v
		}
		var n json.Number
		if len(raw) > 0 && json.Unmarshal(raw, &n) == nil {
			return n.String()
		}
	}
	return ""
}

func firstInt(obj map[string]json.RawMessage, keys ...string) int {
	for _, key := range keys {
		var n int
		if err := json.Unmarshal(obj[key], &n); err == nil && n != 0 {
			return n
		}
		if v, ok := rawString(obj[key]); ok {
			var parsed int
			if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil && parsed != 0 {
				return parsed
			}
		}
	}
	return 0
}

// isFalsyJSON reports whether raw is missing, null, false, 0 or "".
func isFalsyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
