// Package pipeline turns the raw section list of a CMS page into the sections
// that are actually rendered. Every stage returns a new list that is an
// order-preserving subsequence of its input.
package pipeline

import (
	"strings"

	"github.com/autoinsurance/storefront/pkg/types"
)

// HomeKey is the well-known page key of the home page.
const HomeKey = "homepage"

// Input is everything Build needs for one page. The footer menu is fetched by
// the caller and only used for classification, so Build itself does no I/O.
type Input struct {
	Key      string
	Category Category
	Sections []types.Section
	Meta     types.PageMeta
}

// Hero is the banner shown above the section list.
type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"image_url,omitempty"`
}

// LayoutHints tell the renderer how to present the sections.
type LayoutHints struct {
	CenterText   bool `json:"center_text,omitempty"`
	RoundImages  bool `json:"round_images,omitempty"`
	ImageSizePx  int  `json:"image_size_px,omitempty"`
	HelpfulLinks bool `json:"helpful_links,omitempty"`
}

// StageStat records how many sections entered and left one stage.
type StageStat struct {
	Stage string `json:"stage"`
	In    int    `json:"in"`
	Out   int    `json:"out"`
}

// Dropped is the number of sections the stage removed.
func (s StageStat) Dropped() int { return s.In - s.Out }

// Result is the final, render-ready page body.
type Result struct {
	Key      string          `json:"key"`
	Category Category        `json:"category"`
	Hero     *Hero           `json:"hero,omitempty"`
	Sections []types.Section `json:"sections"`
	Layout   LayoutHints     `json:"layout"`
	Stages   []StageStat     `json:"stages,omitempty"`
}

// Classify picks the category for a page key. The home key wins, then the
// about slugs, then any slug listed in the footer menu.
func Classify(key string, menu types.FooterMenu, policy Policy) Category {
	if key == HomeKey || key == "" {
		return CategoryHome
	}
	lower := strings.ToLower(key)
	for _, slug := range policy.About.Slugs {
		if strings.ToLower(slug) == lower {
			return CategoryAbout
		}
	}
	for _, item := range menu.All() {
		if item.PageSlug != "" && strings.ToLower(item.PageSlug) == lower {
			return CategoryFooterLegal
		}
	}
	return CategoryGeneric
}

// Build runs the filter sequence for the input's category.
func Build(in Input, policy Policy) Result {
	r := &run{sections: in.Sections}
	res := Result{Key: in.Key, Category: in.Category}

	switch in.Category {
	case CategoryAbout:
		res.Hero = r.about(policy)
		res.Layout = LayoutHints{CenterText: true, RoundImages: true, ImageSizePx: 200, HelpfulLinks: true}
	case CategoryFooterLegal:
		res.Hero = r.footerLegal(in, policy)
		res.Layout = LayoutHints{HelpfulLinks: true}
	case CategoryHome:
		r.home(policy)
	default:
		r.sections = append([]types.Section(nil), in.Sections...)
	}

	res.Sections = r.sections
	if res.Sections == nil {
		res.Sections = []types.Section{}
	}
	res.Stages = r.stats
	return res
}

// run applies stages to a section list and keeps per-stage counts.
type run struct {
	sections []types.Section
	stats    []StageStat
}

func (r *run) apply(stage string, fn func([]types.Section) []types.Section) {
	in := len(r.sections)
	r.sections = fn(r.sections)
	r.stats = append(r.stats, StageStat{Stage: stage, In: in, Out: len(r.sections)})
}

func (r *run) about(policy Policy) *Hero {
	heroText := policy.DefaultHeroSubtitle
	if len(r.sections) > 0 {
		first := r.sections[0]
		candidate := first.Subtitle()
		if candidate == "" {
			candidate = first.Title()
		}
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			heroText = trimmed
		}
	}

	r.apply("strip", func(s []types.Section) []types.Section { return StripSections(s, []string{heroText}) })
	r.apply("unwanted", func(s []types.Section) []types.Section { return FilterUnwanted(s, policy.About.BlockedPhrases) })
	r.apply("empty", FilterEmpty)

	hero := &Hero{Title: policy.About.DefaultTitle, Subtitle: policy.DefaultHeroSubtitle}
	if len(r.sections) > 0 {
		first := r.sections[0]
		if t := first.Title(); t != "" {
			hero.Title = t
		}
		if st := first.Subtitle(); st != "" {
			hero.Subtitle = st
		}
		r.sections = r.sections[1:]
	}
	return hero
}

func (r *run) footerLegal(in Input, policy Policy) *Hero {
	title := strings.TrimSpace(firstNonEmpty(in.Meta.Title, in.Key))
	subtitle := strings.TrimSpace(firstNonEmpty(in.Meta.Description, policy.DefaultHeroSubtitle))

	r.apply("strip", func(s []types.Section) []types.Section { return StripSections(s, []string{title, subtitle}) })
	r.apply("empty", FilterEmpty)

	isTerms := policy.Legal.TermsSlugFragment != "" &&
		strings.Contains(strings.ToLower(in.Key), strings.ToLower(policy.Legal.TermsSlugFragment))
	r.apply("legal", func(s []types.Section) []types.Section {
		return filterLegal(s, policy.Legal, isTerms)
	})

	return &Hero{Title: title, Subtitle: subtitle, ImageURL: in.Meta.HeroImage}
}

func filterLegal(sections []types.Section, policy LegalPolicy, isTerms bool) []types.Section {
	clauses := lowerAll(policy.ClauseMarkers)
	redactions := lowerAll(policy.RedactionMarkers)
	headings := lowerAll(policy.TermsHeadings)

	out := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		title := strings.ToLower(s.Title())
		body := strings.ToLower(s.Body())
		if matchesAny(title, clauses) || matchesAny(body, redactions) {
			continue
		}
		if isTerms && matchesAny(title, headings) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *run) home(policy Policy) {
	excludedTypes := lowerSet(policy.Home.ExcludedTypes)
	titles := lowerSet(policy.Home.ExcludedTitles)
	fragments := lowerAll(policy.Home.ExcludedTitleFragments)

	r.apply("excluded", func(sections []types.Section) []types.Section {
		out := make([]types.Section, 0, len(sections))
		for _, s := range sections {
			title := strings.ToLower(s.Title())
			if excludedTypes[strings.ToLower(s.Type)] || titles[title] || matchesAny(title, fragments) {
				continue
			}
			out = append(out, s)
		}
		return out
	})
	r.apply("unwanted", func(s []types.Section) []types.Section { return FilterUnwanted(s, policy.Home.BlockedPhrases) })
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range usablePhrases(values) {
		out = append(out, strings.ToLower(v))
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range lowerAll(values) {
		set[v] = true
	}
	return set
}
