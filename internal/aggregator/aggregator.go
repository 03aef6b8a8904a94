// Package aggregator assembles the per-rule documentation and example
// bundles consumed by the documentation page into a single static artifact.
package aggregator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/replikanti/flowlint-tools/internal/config"
	"github.com/replikanti/flowlint-tools/internal/github"
	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/internal/rules"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// The three resources fetched per rule from the examples repository.
const (
	readmeFile = "README.md"
	goodFile   = "good-example.json"
	badFile    = "bad-example.json"
)

// maxInFlight bounds concurrent fetches across all rules. The resource
// count is small (tens of rules, three files each) so this is a courtesy
// to the content host, not backpressure.
const maxInFlight = 8

// ContentFetcher retrieves a single file from the examples repository.
// Satisfied by the GitHub client; tests substitute a stub.
type ContentFetcher interface {
	FetchRawFile(ctx context.Context, owner, repo, branch, path string) (string, error)
}

// Aggregator fetches rule content and persists the aggregated snapshot.
type Aggregator struct {
	cfg     config.AggregatorConfig
	source  rules.Source
	fetcher ContentFetcher
}

// New creates an aggregator over the given rule source and content fetcher.
func New(cfg config.AggregatorConfig, source rules.Source, fetcher ContentFetcher) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		source:  source,
		fetcher: fetcher,
	}
}

// Run resolves the rule set, fetches every rule's content and writes the
// aggregated document. Per-resource fetch failures resolve to empty fields;
// the only fatal conditions are rule-set resolution failure and a failed
// final write, both of which leave any previous artifact untouched.
func (a *Aggregator) Run(ctx context.Context) error {
	ruleSet, err := a.source.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve rule set: %w", err)
	}

	logging.Info("fetching rule examples",
		"rules", len(ruleSet),
		"repository", a.cfg.Org+"/"+a.cfg.Repo,
		"branch", a.cfg.Branch)

	result := a.collect(ctx, ruleSet)

	if err := a.write(result); err != nil {
		return fmt.Errorf("failed to write aggregated examples: %w", err)
	}

	logging.Info("examples saved", "path", a.cfg.OutputPath)
	return nil
}

// collect fetches readme, good and bad for every rule. Fetches run
// concurrently; each goroutine writes a distinct bundle field, so the
// assembly needs no locking. Completion order does not affect the result:
// bundles keep the rule-set order, which sources return sorted by ordinal.
func (a *Aggregator) collect(ctx context.Context, ruleSet []models.RuleMetadata) *Result {
	bundles := make([]models.RuleExampleBundle, len(ruleSet))
	for i, rule := range ruleSet {
		bundles[i].RuleMetadata = rule
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for i := range bundles {
		bundle := &bundles[i]
		id := bundle.ID
		logging.Info("processing rule", "rule", id)

		g.Go(func() error {
			bundle.Readme = a.fetch(ctx, id, readmeFile).collapse()
			return nil
		})
		g.Go(func() error {
			bundle.Good = a.fetch(ctx, id, goodFile).collapse()
			return nil
		})
		g.Go(func() error {
			bundle.Bad = a.fetch(ctx, id, badFile).collapse()
			return nil
		})
	}

	// Goroutines never return errors; per-resource failures are recovered
	// inside fetch. Wait only joins them.
	_ = g.Wait()

	return newResult(bundles)
}

// fetchOutcome classifies the result of a single resource fetch.
type fetchOutcome int

const (
	fetchOK fetchOutcome = iota
	fetchMissing
	fetchFailed
)

// fetchResult carries a fetched resource together with its outcome, so the
// distinction between "missing upstream" and "fetch error" survives until
// final assembly even though the persisted artifact does not record it.
type fetchResult struct {
	text    string
	outcome fetchOutcome
	err     error
}

// collapse reduces the result to the persisted representation: the content
// on success, an empty string otherwise.
func (r fetchResult) collapse() string {
	if r.outcome == fetchOK {
		return r.text
	}
	return ""
}

// fetch retrieves one resource for one rule. Missing resources and
// transport failures are both recovered here; neither aborts the run.
func (a *Aggregator) fetch(ctx context.Context, ruleID, filename string) fetchResult {
	path := ruleID + "/" + filename

	text, err := a.fetcher.FetchRawFile(ctx, a.cfg.Org, a.cfg.Repo, a.cfg.Branch, path)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			logging.Debug("rule resource missing", "rule", ruleID, "file", filename)
			return fetchResult{outcome: fetchMissing, err: err}
		}
		logging.Warn("could not fetch rule resource",
			"rule", ruleID,
			"file", filename,
			"error", err)
		return fetchResult{outcome: fetchFailed, err: err}
	}

	return fetchResult{text: text, outcome: fetchOK}
}

// write persists the result as pretty-printed JSON at the configured path,
// creating parent directories as needed. The document is staged in a temp
// file and renamed into place, so a failed run never truncates a previous
// artifact.
func (a *Aggregator) write(result *Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(a.cfg.OutputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".rule-examples-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, a.cfg.OutputPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}

// Result is the aggregation output: rule-id keyed bundles that serialize
// in canonical rule order rather than Go map order.
type Result struct {
	order   []string
	bundles map[string]models.RuleExampleBundle
}

func newResult(bundles []models.RuleExampleBundle) *Result {
	r := &Result{
		order:   make([]string, 0, len(bundles)),
		bundles: make(map[string]models.RuleExampleBundle, len(bundles)),
	}
	for _, b := range bundles {
		r.order = append(r.order, b.ID)
		r.bundles[b.ID] = b
	}
	return r
}

// Bundle returns the bundle for a rule id, if present.
func (r *Result) Bundle(id string) (models.RuleExampleBundle, bool) {
	b, ok := r.bundles[id]
	return b, ok
}

// IDs returns the rule ids in serialization order.
func (r *Result) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// MarshalJSON serializes the result as a JSON object whose keys follow the
// canonical rule order. encoding/json would sort map keys lexically, which
// puts R10 before R2.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.bundles[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
