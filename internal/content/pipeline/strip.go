package pipeline

import (
	"strings"

	"github.com/autoinsurance/storefront/pkg/types"
)

// StripText removes every exact occurrence of each phrase from every text
// field of the section. Occurrences are located in the original value, so
// the result does not depend on phrase order and a removal never creates a
// new match. Blank phrases are ignored and absent fields stay absent. The
// input section is not modified.
func StripText(section types.Section, phrases []string) types.Section {
	next := section.Clone()
	active := usablePhrases(phrases)
	if len(active) == 0 {
		return next
	}

	for f, v := range next.Text {
		next.Text[f] = removeAll(v, active)
	}
	return next
}

// removeAll cuts the union of all phrase occurrences out of v
func removeAll(v string, phrases []string) string {
	cut := make([]bool, len(v))
	found := false
	for _, phrase := range phrases {
		for from := 0; from < len(v); {
			i := strings.Index(v[from:], phrase)
			if i < 0 {
				break
			}
			start := from + i
			for j := start; j < start+len(phrase); j++ {
				cut[j] = true
			}
			found = true
			from = start + len(phrase)
		}
	}
	if !found {
		return v
	}

	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if !cut[i] {
			b.WriteByte(v[i])
		}
	}
	return b.String()
}

// StripSections applies StripText to every section, preserving order.
func StripSections(sections []types.Section, phrases []string) []types.Section {
	out := make([]types.Section, 0, len(sections))
	for _, s := range sections {
		out = append(out, StripText(s, phrases))
	}
	return out
}

func usablePhrases(phrases []string) []string {
	active := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if strings.TrimSpace(p) != "" {
			active = append(active, p)
		}
	}
	return active
}
