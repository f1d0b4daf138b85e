package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoinsurance/storefront/pkg/types"
)

func section(t *testing.T, raw string) types.Section {
	t.Helper()
	var s types.Section
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	return s
}

func sections(t *testing.T, raws ...string) []types.Section {
	t.Helper()
	out := make([]types.Section, 0, len(raws))
	for _, raw := range raws {
		out = append(out, section(t, raw))
	}
	return out
}

func titles(secs []types.Section) []string {
	out := make([]string, 0, len(secs))
	for _, s := range secs {
		out = append(out, s.Title())
	}
	return out
}
