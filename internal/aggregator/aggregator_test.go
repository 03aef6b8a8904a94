package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replikanti/flowlint-tools/internal/config"
	"github.com/replikanti/flowlint-tools/internal/github"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// sliceSource serves a fixed rule set.
type sliceSource []models.RuleMetadata

func (s sliceSource) List(ctx context.Context) ([]models.RuleMetadata, error) {
	return s, nil
}

// errSource fails rule-set resolution.
type errSource struct{}

func (errSource) List(ctx context.Context) ([]models.RuleMetadata, error) {
	return nil, fmt.Errorf("discovery API unreachable")
}

// stubFetcher serves canned content keyed by path, with optional per-path
// errors and a random delay to shuffle completion order.
type stubFetcher struct {
	files  map[string]string
	errs   map[string]error
	jitter bool
}

func (f *stubFetcher) FetchRawFile(ctx context.Context, owner, repo, branch, path string) (string, error) {
	if f.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	if content, ok := f.files[path]; ok {
		return content, nil
	}
	return "", fmt.Errorf("%s: %w", path, github.ErrNotFound)
}

func testConfig(t *testing.T) config.AggregatorConfig {
	t.Helper()
	return config.AggregatorConfig{
		Org:        "Replikanti",
		Repo:       "flowlint-examples",
		Branch:     "main",
		OutputPath: filepath.Join(t.TempDir(), "rule-examples.json"),
	}
}

func ruleSet(ids ...string) sliceSource {
	set := make(sliceSource, len(ids))
	for i, id := range ids {
		set[i] = models.RuleMetadata{ID: id}
	}
	return set
}

// fullFetcher returns a fetcher with all three files present for each rule.
func fullFetcher(ids ...string) *stubFetcher {
	files := map[string]string{}
	for _, id := range ids {
		files[id+"/README.md"] = "# " + id + "\n"
		files[id+"/good-example.json"] = `{"rule": "` + id + `", "ok": true}`
		files[id+"/bad-example.json"] = `{"rule": "` + id + `", "ok": false}`
	}
	return &stubFetcher{files: files}
}

func TestRunWritesOrderedDocument(t *testing.T) {
	cfg := testConfig(t)
	fetcher := fullFetcher("R1", "R2", "R10")
	agg := New(cfg, ruleSet("R1", "R2", "R10"), fetcher)

	require.NoError(t, agg.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)

	// Pretty-printed and parseable
	assert.True(t, strings.HasPrefix(string(data), "{\n"))
	var decoded map[string]models.RuleExampleBundle
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "# R2\n", decoded["R2"].Readme)

	// Keys appear in rule order, not lexical order (R10 after R2)
	text := string(data)
	assert.Less(t, strings.Index(text, `"R2"`), strings.Index(text, `"R10"`))
	assert.Less(t, strings.Index(text, `"R1"`), strings.Index(text, `"R2"`))
}

func TestRunIsDeterministicUnderRacingFetches(t *testing.T) {
	ids := []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8"}

	run := func() []byte {
		cfg := testConfig(t)
		fetcher := fullFetcher(ids...)
		fetcher.jitter = true
		agg := New(cfg, ruleSet(ids...), fetcher)
		require.NoError(t, agg.Run(context.Background()))

		data, err := os.ReadFile(cfg.OutputPath)
		require.NoError(t, err)
		return data
	}

	assert.Equal(t, run(), run(), "two runs over identical content must be byte-identical")
}

func TestRunToleratesMissingAndFailedResources(t *testing.T) {
	cfg := testConfig(t)
	fetcher := fullFetcher("R1", "R5", "R6")
	// R5's good example is missing upstream, R6's readme fails transport
	delete(fetcher.files, "R5/good-example.json")
	fetcher.errs = map[string]error{
		"R6/README.md": fmt.Errorf("connection reset"),
	}

	agg := New(cfg, ruleSet("R1", "R5", "R6"), fetcher)
	require.NoError(t, agg.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	var decoded map[string]models.RuleExampleBundle
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Empty(t, decoded["R5"].Good)
	assert.NotEmpty(t, decoded["R5"].Readme, "other fields of the same rule are unaffected")
	assert.NotEmpty(t, decoded["R5"].Bad)

	assert.Empty(t, decoded["R6"].Readme)
	assert.NotEmpty(t, decoded["R6"].Good)

	assert.NotEmpty(t, decoded["R1"].Readme, "other rules are unaffected")
	assert.NotEmpty(t, decoded["R1"].Good)
	assert.NotEmpty(t, decoded["R1"].Bad)
}

func TestRunFatalOnResolutionFailure(t *testing.T) {
	cfg := testConfig(t)
	agg := New(cfg, errSource{}, fullFetcher())

	err := agg.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve rule set")

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no output file may be written on a fatal resolution failure")
}

func TestRunFatalOnWriteFailure(t *testing.T) {
	cfg := testConfig(t)
	// Parent "directory" is a regular file, so MkdirAll must fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.OutputPath = filepath.Join(blocker, "rule-examples.json")

	agg := New(cfg, ruleSet("R1"), fullFetcher("R1"))
	err := agg.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write aggregated examples")
}

func TestRunOverwritesPreviousArtifact(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.OutputPath, []byte(`{"stale": true}`), 0644))

	agg := New(cfg, ruleSet("R1"), fullFetcher("R1"))
	require.NoError(t, agg.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Contains(t, string(data), `"R1"`)
}

func TestFetchDistinguishesMissingFromFailed(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &stubFetcher{
		files: map[string]string{"R1/README.md": "docs"},
		errs:  map[string]error{"R2/README.md": fmt.Errorf("timeout")},
	}
	agg := New(cfg, nil, fetcher)
	ctx := context.Background()

	ok := agg.fetch(ctx, "R1", readmeFile)
	assert.Equal(t, fetchOK, ok.outcome)
	assert.Equal(t, "docs", ok.collapse())

	missing := agg.fetch(ctx, "R3", readmeFile)
	assert.Equal(t, fetchMissing, missing.outcome)
	assert.Empty(t, missing.collapse())

	failed := agg.fetch(ctx, "R2", readmeFile)
	assert.Equal(t, fetchFailed, failed.outcome)
	assert.Empty(t, failed.collapse())

	// Missing and failed collapse identically but stay distinguishable
	assert.NotEqual(t, missing.outcome, failed.outcome)
}

func TestResultBundleCarriesMetadata(t *testing.T) {
	cfg := testConfig(t)
	source := sliceSource{{
		ID:          "R3",
		Name:        "secrets",
		Severity:    models.SeverityMust,
		Description: "Detects hardcoded credentials and API keys",
	}}

	agg := New(cfg, source, fullFetcher("R3"))
	require.NoError(t, agg.Run(context.Background()))

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	var decoded map[string]models.RuleExampleBundle
	require.NoError(t, json.Unmarshal(data, &decoded))

	bundle := decoded["R3"]
	assert.Equal(t, "secrets", bundle.Name)
	assert.Equal(t, models.SeverityMust, bundle.Severity)
	assert.Equal(t, "# R3\n", bundle.Readme)
}
