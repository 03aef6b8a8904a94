// Package rules resolves the set of lint rules the aggregator operates on.
//
// Three interchangeable strategies exist behind the Source interface: the
// authoritative embedded metadata table (default), remote discovery against
// the examples repository, and a plain static range. The metadata table is
// the same data the documentation page renders, so it is the most complete
// strategy and the one production builds use.
package rules

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/replikanti/flowlint-tools/pkg/models"
)

// IDPattern matches rule identifiers: an "R" followed by the rule ordinal.
var IDPattern = regexp.MustCompile(`^R\d+$`)

//go:embed rules.yaml
var metadataYAML []byte

// Source yields the rule set for an aggregator run. Implementations return
// rules in canonical order: ascending by the ordinal embedded in the id.
type Source interface {
	List(ctx context.Context) ([]models.RuleMetadata, error)
}

// Ordinal extracts the numeric part of a rule identifier such as "R12".
// Identifiers without a numeral sort first.
func Ordinal(id string) int {
	digits := ordinalPattern.FindString(id)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

var ordinalPattern = regexp.MustCompile(`\d+`)

// SortByOrdinal orders rules ascending by their embedded ordinal, in place.
func SortByOrdinal(list []models.RuleMetadata) {
	sort.Slice(list, func(i, j int) bool {
		return Ordinal(list[i].ID) < Ordinal(list[j].ID)
	})
}

// MetadataSource serves the embedded rule table. It is the authoritative
// strategy: every bundle it produces carries full rule metadata.
type MetadataSource struct {
	rules []models.RuleMetadata
}

// NewMetadataSource decodes the embedded rule table. It fails if the table
// is malformed or contains an invalid id or severity, so a bad edit to
// rules.yaml breaks the build instead of producing a corrupt artifact.
func NewMetadataSource() (*MetadataSource, error) {
	var list []models.RuleMetadata
	if err := yaml.Unmarshal(metadataYAML, &list); err != nil {
		return nil, fmt.Errorf("failed to decode rule metadata: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("rule metadata table is empty")
	}

	seen := make(map[string]bool, len(list))
	for _, rule := range list {
		if !IDPattern.MatchString(rule.ID) {
			return nil, fmt.Errorf("invalid rule id: %q", rule.ID)
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate rule id: %q", rule.ID)
		}
		seen[rule.ID] = true
		if !rule.Severity.Valid() {
			return nil, fmt.Errorf("rule %s has invalid severity: %q", rule.ID, rule.Severity)
		}
	}

	SortByOrdinal(list)
	return &MetadataSource{rules: list}, nil
}

// List returns a copy of the rule table.
func (s *MetadataSource) List(ctx context.Context) ([]models.RuleMetadata, error) {
	out := make([]models.RuleMetadata, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

// StaticSource generates identifiers R1..RN with no metadata attached.
// Fallback strategy for builds that predate the metadata table.
type StaticSource struct {
	// Count is the number of rules to generate
	Count int
}

// List returns the generated identifiers in ascending order.
func (s StaticSource) List(ctx context.Context) ([]models.RuleMetadata, error) {
	if s.Count < 1 {
		return nil, fmt.Errorf("static rule source needs a positive count, got %d", s.Count)
	}

	list := make([]models.RuleMetadata, s.Count)
	for i := range list {
		list[i] = models.RuleMetadata{ID: fmt.Sprintf("R%d", i+1)}
	}
	return list, nil
}

// DirectoryLister lists repository directories matching a name pattern.
// Satisfied by the GitHub client; tests substitute a stub.
type DirectoryLister interface {
	ListRuleDirectories(ctx context.Context, owner, repo string, pattern *regexp.Regexp) ([]string, error)
}

// DiscoverySource derives the rule set from the top-level directories of
// the examples repository itself. Fallback strategy when the metadata table
// is unavailable; a listing failure is fatal to the run.
type DiscoverySource struct {
	Lister DirectoryLister
	Owner  string
	Repo   string
}

// List queries the repository listing and returns matching directory names
// as bare rule identifiers, sorted by ordinal.
func (s DiscoverySource) List(ctx context.Context) ([]models.RuleMetadata, error) {
	dirs, err := s.Lister.ListRuleDirectories(ctx, s.Owner, s.Repo, IDPattern)
	if err != nil {
		return nil, fmt.Errorf("rule discovery failed: %w", err)
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("rule discovery found no rule directories in %s/%s", s.Owner, s.Repo)
	}

	list := make([]models.RuleMetadata, len(dirs))
	for i, dir := range dirs {
		list[i] = models.RuleMetadata{ID: dir}
	}
	SortByOrdinal(list)
	return list, nil
}
