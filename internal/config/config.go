// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration parameters for the application.
type Config struct {
	GitHub     GitHubConfig
	Aggregator AggregatorConfig
	Support    SupportConfig
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token  string
	Domain string
}

// AggregatorConfig holds rule-example aggregator specific configuration.
type AggregatorConfig struct {
	// Org and Repo name the examples repository on GitHub
	Org    string
	Repo   string
	Branch string

	// RuleSource selects how the rule set is resolved:
	// "metadata" (default), "discovery" or "static"
	RuleSource string

	// RuleCount is the number of rules generated by the static source
	RuleCount int

	// OutputPath is where the aggregated JSON document is written
	OutputPath string
}

// SupportConfig holds support ticket router specific configuration.
type SupportConfig struct {
	// Addr is the listen address of the support server
	Addr string

	// Mode selects the delivery discipline: "issues" (default) or "intake"
	Mode string

	// StorePath is the ticket store file used by intake mode
	StorePath string

	// SendGridAPIKey and SupportEmail configure the intake mode email
	// notification; leaving either empty disables it
	SendGridAPIKey string
	SupportEmail   string
	FromEmail      string
}

// LoadConfig initializes and loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	// Initialize Viper for environment variables
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Map specific environment variables
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("github.domain", "GITHUB_DOMAIN")
	v.BindEnv("examples.org", "FLOWLINT_EXAMPLES_ORG")
	v.BindEnv("examples.repo", "FLOWLINT_EXAMPLES_REPO")
	v.BindEnv("examples.branch", "FLOWLINT_EXAMPLES_BRANCH")
	v.BindEnv("examples.source", "FLOWLINT_RULE_SOURCE")
	v.BindEnv("examples.count", "FLOWLINT_RULE_COUNT")
	v.BindEnv("examples.output", "FLOWLINT_EXAMPLES_OUTPUT")
	v.BindEnv("support.addr", "SUPPORT_ADDR")
	v.BindEnv("support.mode", "SUPPORT_MODE")
	v.BindEnv("support.store", "SUPPORT_STORE")
	v.BindEnv("support.sendgrid.key", "SENDGRID_API_KEY")
	v.BindEnv("support.email", "SUPPORT_EMAIL")
	v.BindEnv("support.from", "SUPPORT_FROM_EMAIL")

	// Defaults mirror the production deployment
	v.SetDefault("github.domain", "github.com")
	v.SetDefault("examples.org", "Replikanti")
	v.SetDefault("examples.repo", "flowlint-examples")
	v.SetDefault("examples.branch", "main")
	v.SetDefault("examples.source", "metadata")
	v.SetDefault("examples.count", 14)
	v.SetDefault("examples.output", "src/data/rule-examples.json")
	v.SetDefault("support.addr", ":8787")
	v.SetDefault("support.mode", "issues")
	v.SetDefault("support.store", "support-requests.jsonl")
	v.SetDefault("support.from", "noreply@flowlint.dev")

	// Create config structure
	config := &Config{
		GitHub: GitHubConfig{
			Token:  v.GetString("github.token"),
			Domain: v.GetString("github.domain"),
		},
		Aggregator: AggregatorConfig{
			Org:        v.GetString("examples.org"),
			Repo:       v.GetString("examples.repo"),
			Branch:     v.GetString("examples.branch"),
			RuleSource: v.GetString("examples.source"),
			RuleCount:  v.GetInt("examples.count"),
			OutputPath: v.GetString("examples.output"),
		},
		Support: SupportConfig{
			Addr:           v.GetString("support.addr"),
			Mode:           v.GetString("support.mode"),
			StorePath:      v.GetString("support.store"),
			SendGridAPIKey: v.GetString("support.sendgrid.key"),
			SupportEmail:   v.GetString("support.email"),
			FromEmail:      v.GetString("support.from"),
		},
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig ensures that configuration values shared by every command
// are coherent. Component specific requirements are validated separately.
func validateConfig(config *Config) error {
	switch config.Aggregator.RuleSource {
	case "metadata", "discovery", "static":
	default:
		return fmt.Errorf("invalid FLOWLINT_RULE_SOURCE: %q (valid values: metadata, discovery, static)",
			config.Aggregator.RuleSource)
	}

	switch config.Support.Mode {
	case "issues", "intake":
	default:
		return fmt.Errorf("invalid SUPPORT_MODE: %q (valid values: issues, intake)", config.Support.Mode)
	}

	if config.Aggregator.RuleCount < 1 {
		return fmt.Errorf("invalid FLOWLINT_RULE_COUNT: %d", config.Aggregator.RuleCount)
	}

	return nil
}

// ValidateGitHubConfig validates configuration required to call the GitHub API.
func ValidateGitHubConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}
