package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoinsurance/storefront/pkg/types"
)

func TestClassify(t *testing.T) {
	menu := types.FooterMenu{
		Company: []types.LinkItem{{Name: "Contact", PageSlug: "Contact-Us"}},
		Legal:   []types.LinkItem{{Name: "Terms", PageSlug: "terms-and-conditions"}, {Name: "Blog", Href: "/articles"}},
	}
	policy := DefaultPolicy()

	tests := []struct {
		key  string
		want Category
	}{
		{HomeKey, CategoryHome},
		{"about-us", CategoryAbout},
		{"About", CategoryAbout},
		{"contact-us", CategoryFooterLegal},
		{"terms-and-conditions", CategoryFooterLegal},
		{"car-insurance", CategoryGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.key, menu, policy))
		})
	}
}

func TestBuildAbout(t *testing.T) {
	in := Input{
		Key:      "about-us",
		Category: CategoryAbout,
		Sections: sections(t,
			`{"title":"Our Story","subtitle":"Helping drivers since 2010"}`,
			`{"title":"Who We Are","body":"<p>Legacy copy</p>"}`,
			`{"title":"Team","body":"<p>Helping drivers since 2010</p>"}`,
			`{"title":"Press","body":"<p>In the news</p>"}`,
		),
	}

	res := Build(in, DefaultPolicy())

	require.NotNil(t, res.Hero)
	assert.Equal(t, "Our Story", res.Hero.Title)
	assert.Equal(t, DefaultHeroSubtitle, res.Hero.Subtitle, "stripped subtitle falls back to default")
	assert.Equal(t, []string{"Team", "Press"}, titles(res.Sections))
	assert.Equal(t, "<p></p>", res.Sections[0].Body())
	assert.True(t, res.Layout.CenterText)
	assert.True(t, res.Layout.RoundImages)
	assert.Equal(t, 200, res.Layout.ImageSizePx)
}

func TestBuildAboutWithoutSections(t *testing.T) {
	res := Build(Input{Key: "about", Category: CategoryAbout}, DefaultPolicy())

	require.NotNil(t, res.Hero)
	assert.Equal(t, "About Us", res.Hero.Title)
	assert.Equal(t, DefaultHeroSubtitle, res.Hero.Subtitle)
	assert.NotNil(t, res.Sections)
	assert.Empty(t, res.Sections)
}

func TestBuildFooterLegal(t *testing.T) {
	in := Input{
		Key:      "terms-and-conditions",
		Category: CategoryFooterLegal,
		Meta:     types.PageMeta{Title: "Terms of Use", Description: "Read carefully.", HeroImage: "/hero.png"},
		Sections: sections(t,
			`{"title":"Terms of Use","body":""}`,
			`{"title":"1. Acceptance","body":"<p>Read carefully. You agree.</p>"}`,
			`{"title":"16. Assignment","body":"<p>No assignment.</p>"}`,
			`{"title":"17. Misc","body":"<p>*****</p>"}`,
			`{"title":"Terms and Conditions","body":"<p>Header copy</p>"}`,
			`{"title":"18. Law","body":"<p>Governing law.</p>"}`,
		),
	}

	res := Build(in, DefaultPolicy())

	require.NotNil(t, res.Hero)
	assert.Equal(t, Hero{Title: "Terms of Use", Subtitle: "Read carefully.", ImageURL: "/hero.png"}, *res.Hero)
	assert.Equal(t, []string{"1. Acceptance", "18. Law"}, titles(res.Sections))
	assert.Equal(t, "<p> You agree.</p>", res.Sections[0].Body())
	assert.True(t, res.Layout.HelpfulLinks)
}

func TestBuildFooterLegalKeepsTermsHeadingOnOtherPages(t *testing.T) {
	in := Input{
		Key:      "privacy",
		Category: CategoryFooterLegal,
		Sections: sections(t, `{"title":"See Terms and Conditions","body":"<p>x</p>"}`),
	}

	res := Build(in, DefaultPolicy())

	assert.Len(t, res.Sections, 1)
	assert.Equal(t, "privacy", res.Hero.Title)
	assert.Equal(t, DefaultHeroSubtitle, res.Hero.Subtitle)
}

func TestBuildHome(t *testing.T) {
	in := Input{
		Key:      HomeKey,
		Category: CategoryHome,
		Sections: sections(t,
			`{"type":"featured","title":"Logos"}`,
			`{"type":"Video","title":"Clip"}`,
			`{"type":"text","title":"Featured In"}`,
			`{"type":"text","title":"Your Insurance Guide"}`,
			`{"type":"text","title":"Compare","body":"We make shopping for auto insurance simpler."}`,
			`{"type":"text","title":"Save today","body":"<p>Quotes in minutes</p>"}`,
			`{"type":"text","title":"Empty but kept","body":""}`,
		),
	}

	res := Build(in, DefaultPolicy())

	assert.Nil(t, res.Hero)
	assert.Equal(t, []string{"Save today", "Empty but kept"}, titles(res.Sections))
	require.Len(t, res.Stages, 2)
	assert.Equal(t, 4, res.Stages[0].Dropped())
	assert.Equal(t, 1, res.Stages[1].Dropped())
}

func TestBuildGenericPassesThrough(t *testing.T) {
	in := Input{
		Key:      "car-insurance",
		Category: CategoryGeneric,
		Sections: sections(t, `{"body":"<p></p>"}`, `{"title":"Who We Are"}`),
	}

	res := Build(in, DefaultPolicy())

	assert.Len(t, res.Sections, 2)
	assert.Nil(t, res.Hero)
	assert.Empty(t, res.Stages)
}

func TestPolicyMerge(t *testing.T) {
	override := Policy{
		About: AboutPolicy{BlockedPhrases: []string{"only this"}},
		Legal: LegalPolicy{TermsSlugFragment: "tos"},
	}

	merged := DefaultPolicy().Merge(override)

	assert.Equal(t, []string{"only this"}, merged.About.BlockedPhrases)
	assert.Equal(t, DefaultPolicy().About.Slugs, merged.About.Slugs)
	assert.Equal(t, "tos", merged.Legal.TermsSlugFragment)
	assert.Equal(t, DefaultPolicy().Home.BlockedPhrases, merged.BlockedPhrases(CategoryHome))
	assert.Nil(t, merged.BlockedPhrases(CategoryGeneric))
}

func TestPolicyMergeClearsWithEmptyList(t *testing.T) {
	override := Policy{Home: HomePolicy{BlockedPhrases: []string{}, ExcludedTypes: []string{}}}

	merged := DefaultPolicy().Merge(override)

	assert.NotNil(t, merged.Home.BlockedPhrases)
	assert.Empty(t, merged.Home.BlockedPhrases)
	assert.Empty(t, merged.Home.ExcludedTypes)
	assert.Equal(t, DefaultPolicy().Home.ExcludedTitles, merged.Home.ExcludedTitles)

	// merging again keeps the cleared list cleared
	again := DefaultPolicy().Merge(merged)
	assert.Empty(t, again.Home.BlockedPhrases)

	res := Build(Input{
		Key:      HomeKey,
		Category: CategoryHome,
		Sections: sections(t, `{"type":"featured","title":"Why Choose Us","body":"x"}`),
	}, merged)
	assert.Len(t, res.Sections, 1)
}
