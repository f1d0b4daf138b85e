package pipeline

// Category selects the filter sequence applied to a page.
type Category string

const (
	CategoryHome        Category = "home"
	CategoryAbout       Category = "about"
	CategoryFooterLegal Category = "footer-legal"
	CategoryGeneric     Category = "generic"
)

// DefaultHeroSubtitle is shown when neither the content nor the page meta
// provide a subtitle.
const DefaultHeroSubtitle = "We strive to be your most trusted partner in pursuing the right auto insurance."

// Policy is the table of phrases and markers that decide which CMS sections
// are suppressed, keyed by page category. Operators adjust it in the config
// file; DefaultPolicy holds the lists the site shipped with.
type Policy struct {
	DefaultHeroSubtitle string      `yaml:"default_hero_subtitle,omitempty" json:"default_hero_subtitle"`
	About               AboutPolicy `yaml:"about" json:"about"`
	Home                HomePolicy  `yaml:"home" json:"home"`
	Legal               LegalPolicy `yaml:"legal" json:"legal"`
}

type AboutPolicy struct {
	Slugs          []string `yaml:"slugs,omitempty" json:"slugs"`
	BlockedPhrases []string `yaml:"blocked_phrases,omitempty" json:"blocked_phrases"`
	DefaultTitle   string   `yaml:"default_title,omitempty" json:"default_title"`
}

type HomePolicy struct {
	ExcludedTypes          []string `yaml:"excluded_types,omitempty" json:"excluded_types"`
	ExcludedTitles         []string `yaml:"excluded_titles,omitempty" json:"excluded_titles"`
	ExcludedTitleFragments []string `yaml:"excluded_title_fragments,omitempty" json:"excluded_title_fragments"`
	BlockedPhrases         []string `yaml:"blocked_phrases,omitempty" json:"blocked_phrases"`
}

type LegalPolicy struct {
	ClauseMarkers     []string `yaml:"clause_markers,omitempty" json:"clause_markers"`
	RedactionMarkers  []string `yaml:"redaction_markers,omitempty" json:"redaction_markers"`
	TermsSlugFragment string   `yaml:"terms_slug_fragment,omitempty" json:"terms_slug_fragment"`
	TermsHeadings     []string `yaml:"terms_headings,omitempty" json:"terms_headings"`
}

// DefaultPolicy returns a fresh copy of the built-in policy table.
func DefaultPolicy() Policy {
	return Policy{
		DefaultHeroSubtitle: DefaultHeroSubtitle,
		About: AboutPolicy{
			Slugs:        []string{"about-us", "about"},
			DefaultTitle: "About Us",
			BlockedPhrases: []string{
				"Who We Are",
				"Our mission and values",
				"About Our Company",
				"We are committed to delivering reliable insurance information and tools that help you make informed decisions.",
				"Our team combines industry expertise with user-first design to create a trustworthy experience.",
				"What We Do",
				"Services and approach",
				"Our Services",
				"Policy comparisons",
				"Coverage guides",
				"Rate insights",
				"Our Approach",
				"We focus on transparency, accuracy, and usability.",
				"Content is vetted and layouts are optimized for all devices.",
			},
		},
		Home: HomePolicy{
			ExcludedTypes:          []string{"featured", "video", "embed"},
			ExcludedTitles:         []string{"featured in"},
			ExcludedTitleFragments: []string{"insurance guide"},
			BlockedPhrases: []string{
				"Featured In",
				"Why Choose Us",
				"insurance guides",
				"coverage basics",
				"rate factors",
				"savings tips",
				"Embedded Video",
				"Video Embed",
				"Featured Video",
				"Sample iframe via Editor Blocks",
				"Get up to speed quickly.",
				"transparent, accurate, and easy to compare.",
				"we make shopping for auto insurance simpler.",
			},
		},
		Legal: LegalPolicy{
			ClauseMarkers:     []string{"16. assignment"},
			RedactionMarkers:  []string{"*****"},
			TermsSlugFragment: "term",
			TermsHeadings:     []string{"terms & conditions", "terms and conditions"},
		},
	}
}

// Merge overlays the entries set in override onto p. A list given in
// override, including an empty one, replaces the default list rather than
// extending it.
func (p Policy) Merge(override Policy) Policy {
	out := p
	if override.DefaultHeroSubtitle != "" {
		out.DefaultHeroSubtitle = override.DefaultHeroSubtitle
	}

	out.About.Slugs = pickList(override.About.Slugs, p.About.Slugs)
	out.About.BlockedPhrases = pickList(override.About.BlockedPhrases, p.About.BlockedPhrases)
	if override.About.DefaultTitle != "" {
		out.About.DefaultTitle = override.About.DefaultTitle
	}

	out.Home.ExcludedTypes = pickList(override.Home.ExcludedTypes, p.Home.ExcludedTypes)
	out.Home.ExcludedTitles = pickList(override.Home.ExcludedTitles, p.Home.ExcludedTitles)
	out.Home.ExcludedTitleFragments = pickList(override.Home.ExcludedTitleFragments, p.Home.ExcludedTitleFragments)
	out.Home.BlockedPhrases = pickList(override.Home.BlockedPhrases, p.Home.BlockedPhrases)

	out.Legal.ClauseMarkers = pickList(override.Legal.ClauseMarkers, p.Legal.ClauseMarkers)
	out.Legal.RedactionMarkers = pickList(override.Legal.RedactionMarkers, p.Legal.RedactionMarkers)
	out.Legal.TermsHeadings = pickList(override.Legal.TermsHeadings, p.Legal.TermsHeadings)
	if override.Legal.TermsSlugFragment != "" {
		out.Legal.TermsSlugFragment = override.Legal.TermsSlugFragment
	}
	return out
}

// BlockedPhrases returns the block-list for a category; categories without
// one return nil.
func (p Policy) BlockedPhrases(category Category) []string {
	switch category {
	case CategoryAbout:
		return p.About.BlockedPhrases
	case CategoryHome:
		return p.Home.BlockedPhrases
	}
	return nil
}

// pickList uses override whenever it was given, even empty, so a config
// file can clear a list with "[]". Only an omitted (nil) list falls back.
func pickList(override, fallback []string) []string {
	if override != nil {
		return append([]string{}, override...)
	}
	if fallback == nil {
		return nil
	}
	return append([]string{}, fallback...)
}
