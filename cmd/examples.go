package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/replikanti/flowlint-tools/internal/aggregator"
	"github.com/replikanti/flowlint-tools/internal/config"
	"github.com/replikanti/flowlint-tools/internal/github"
	"github.com/replikanti/flowlint-tools/internal/rules"
)

var examplesCmd = &cobra.Command{
	Use:   "fetch-examples",
	Short: "Fetch rule documentation and examples into a static JSON bundle",
	Long: `Fetch README, good-example and bad-example content for every lint rule
from the flowlint-examples repository and write the aggregated result to a
single JSON file consumed by the documentation page.

Missing or unreachable files resolve to empty fields; only a failure to
resolve the rule set or to write the output aborts the run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			cfg.Aggregator.OutputPath = output
		}
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			cfg.Aggregator.RuleSource = source
		}

		client, err := github.NewClient(cfg.GitHub)
		if err != nil {
			return fmt.Errorf("failed to initialize GitHub client: %w", err)
		}

		ruleSource, err := buildRuleSource(cfg, client)
		if err != nil {
			return err
		}

		agg := aggregator.New(cfg.Aggregator, ruleSource, client)
		return agg.Run(cmd.Context())
	},
}

// buildRuleSource selects the configured rule-set resolution strategy.
func buildRuleSource(cfg *config.Config, client *github.Client) (rules.Source, error) {
	switch cfg.Aggregator.RuleSource {
	case "metadata":
		return rules.NewMetadataSource()
	case "discovery":
		return rules.DiscoverySource{
			Lister: client,
			Owner:  cfg.Aggregator.Org,
			Repo:   cfg.Aggregator.Repo,
		}, nil
	case "static":
		return rules.StaticSource{Count: cfg.Aggregator.RuleCount}, nil
	default:
		return nil, fmt.Errorf("unknown rule source: %q", cfg.Aggregator.RuleSource)
	}
}

func init() {
	examplesCmd.Flags().StringP("output", "o", "", "Output path for the aggregated JSON (overrides FLOWLINT_EXAMPLES_OUTPUT)")
	examplesCmd.Flags().StringP("source", "s", "", "Rule source: metadata, discovery or static (overrides FLOWLINT_RULE_SOURCE)")
}
