package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "github.com", config.GitHub.Domain)
	assert.Equal(t, "Replikanti", config.Aggregator.Org)
	assert.Equal(t, "flowlint-examples", config.Aggregator.Repo)
	assert.Equal(t, "main", config.Aggregator.Branch)
	assert.Equal(t, "metadata", config.Aggregator.RuleSource)
	assert.Equal(t, 14, config.Aggregator.RuleCount)
	assert.Equal(t, "src/data/rule-examples.json", config.Aggregator.OutputPath)
	assert.Equal(t, ":8787", config.Support.Addr)
	assert.Equal(t, "issues", config.Support.Mode)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr bool
		check   func(t *testing.T, config *Config)
	}{
		{
			name: "GitHub token and domain",
			envs: map[string]string{
				"GITHUB_TOKEN":  "test-token",
				"GITHUB_DOMAIN": "github.example.com",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "test-token", config.GitHub.Token)
				assert.Equal(t, "github.example.com", config.GitHub.Domain)
			},
		},
		{
			name: "Aggregator overrides",
			envs: map[string]string{
				"FLOWLINT_RULE_SOURCE":     "static",
				"FLOWLINT_RULE_COUNT":      "5",
				"FLOWLINT_EXAMPLES_OUTPUT": "out/examples.json",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "static", config.Aggregator.RuleSource)
				assert.Equal(t, 5, config.Aggregator.RuleCount)
				assert.Equal(t, "out/examples.json", config.Aggregator.OutputPath)
			},
		},
		{
			name: "Support intake mode",
			envs: map[string]string{
				"SUPPORT_MODE":     "intake",
				"SUPPORT_EMAIL":    "support@flowlint.dev",
				"SENDGRID_API_KEY": "sg-key",
			},
			check: func(t *testing.T, config *Config) {
				assert.Equal(t, "intake", config.Support.Mode)
				assert.Equal(t, "support@flowlint.dev", config.Support.SupportEmail)
				assert.Equal(t, "sg-key", config.Support.SendGridAPIKey)
			},
		},
		{
			name:    "Invalid rule source",
			envs:    map[string]string{"FLOWLINT_RULE_SOURCE": "guess"},
			wantErr: true,
		},
		{
			name:    "Invalid support mode",
			envs:    map[string]string{"SUPPORT_MODE": "both"},
			wantErr: true,
		},
		{
			name:    "Invalid rule count",
			envs:    map[string]string{"FLOWLINT_RULE_COUNT": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envs {
				t.Setenv(key, value)
			}

			config, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, config)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, config)
			tt.check(t, config)
		})
	}
}

func TestValidateGitHubConfig(t *testing.T) {
	withToken := &Config{GitHub: GitHubConfig{Token: "test-token"}}
	assert.NoError(t, ValidateGitHubConfig(withToken))

	withoutToken := &Config{}
	err := ValidateGitHubConfig(withoutToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
}

func TestMain(m *testing.M) {
	// Keep ambient developer credentials from leaking into assertions
	os.Unsetenv("GITHUB_TOKEN")
	os.Unsetenv("GITHUB_DOMAIN")
	os.Exit(m.Run())
}
