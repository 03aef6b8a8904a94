package rules

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replikanti/flowlint-tools/pkg/models"
)

func TestMetadataSource(t *testing.T) {
	source, err := NewMetadataSource()
	require.NoError(t, err)

	list, err := source.List(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, list)

	seen := map[string]bool{}
	for i, rule := range list {
		assert.Regexp(t, IDPattern, rule.ID)
		assert.False(t, seen[rule.ID], "duplicate rule id %s", rule.ID)
		seen[rule.ID] = true

		assert.NotEmpty(t, rule.Name, "rule %s has no name", rule.ID)
		assert.True(t, rule.Severity.Valid(), "rule %s severity %q", rule.ID, rule.Severity)
		assert.NotEmpty(t, rule.Description, "rule %s has no description", rule.ID)

		if i > 0 {
			assert.Less(t, Ordinal(list[i-1].ID), Ordinal(rule.ID),
				"rules out of order: %s before %s", list[i-1].ID, rule.ID)
		}
	}
}

func TestMetadataSourceListReturnsCopy(t *testing.T) {
	source, err := NewMetadataSource()
	require.NoError(t, err)

	first, err := source.List(context.Background())
	require.NoError(t, err)
	first[0].Name = "mutated"

	second, err := source.List(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second[0].Name)
}

func TestStaticSource(t *testing.T) {
	list, err := StaticSource{Count: 3}.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "R1", list[0].ID)
	assert.Equal(t, "R3", list[2].ID)

	// Static rules carry no metadata
	assert.Empty(t, list[0].Name)
	assert.Empty(t, list[0].Severity)

	_, err = StaticSource{Count: 0}.List(context.Background())
	assert.Error(t, err)
}

// stubLister returns a fixed directory listing or error.
type stubLister struct {
	dirs []string
	err  error
}

func (s stubLister) ListRuleDirectories(ctx context.Context, owner, repo string, pattern *regexp.Regexp) ([]string, error) {
	return s.dirs, s.err
}

func TestDiscoverySourceSortsByOrdinal(t *testing.T) {
	source := DiscoverySource{
		Lister: stubLister{dirs: []string{"R10", "R2", "R1"}},
		Owner:  "Replikanti",
		Repo:   "flowlint-examples",
	}

	list, err := source.List(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(list))
	for i, rule := range list {
		ids[i] = rule.ID
	}
	assert.Equal(t, []string{"R1", "R2", "R10"}, ids)
}

func TestDiscoverySourceErrors(t *testing.T) {
	_, err := DiscoverySource{Lister: stubLister{err: fmt.Errorf("api unreachable")}}.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule discovery failed")

	_, err = DiscoverySource{Lister: stubLister{}}.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rule directories")
}

func TestOrdinal(t *testing.T) {
	tests := []struct {
		id   string
		want int
	}{
		{"R1", 1},
		{"R14", 14},
		{"R007", 7},
		{"misc", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Ordinal(tt.id), "id %q", tt.id)
	}
}

func TestSortByOrdinal(t *testing.T) {
	list := []models.RuleMetadata{{ID: "R12"}, {ID: "R3"}, {ID: "R1"}}
	SortByOrdinal(list)
	assert.Equal(t, "R1", list[0].ID)
	assert.Equal(t, "R3", list[1].ID)
	assert.Equal(t, "R12", list[2].ID)
}
