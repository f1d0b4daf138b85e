package pipeline

import (
	"strings"

	"github.com/autoinsurance/storefront/pkg/types"
)

// FilterUnwanted drops every section whose content text contains one of the
// blocked phrases, compared case-insensitively. Order is preserved.
func FilterUnwanted(sections []types.Section, blocked []string) []types.Section {
	lowered := make([]string, 0, len(blocked))
	for _, p := range usablePhrases(blocked) {
		lowered = append(lowered, strings.ToLower(p))
	}

	out := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		if !matchesAny(contentBlob(s), lowered) {
			out = append(out, s)
		}
	}
	return out
}

// contentBlob joins the present, non-empty content fields with a space and
// lower-cases the result.
func contentBlob(s types.Section) string {
	parts := make([]string, 0, len(types.ContentFields))
	for _, f := range types.ContentFields {
		if v := s.Get(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func matchesAny(blob string, lowered []string) bool {
	for _, p := range lowered {
		if strings.Contains(blob, p) {
			return true
		}
	}
	return false
}
