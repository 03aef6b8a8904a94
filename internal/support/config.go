// Package support implements the support ticket router: it turns support
// form submissions into GitHub issues in the right repository, or, in
// intake mode, records them locally and notifies the support inbox.
package support

import (
	"sort"
	"time"

	"github.com/replikanti/flowlint-tools/pkg/models"
)

// Config carries the routing tables and limits for the ticket router.
// It is built once at startup and treated as immutable; tests construct
// their own instead of mutating package state.
type Config struct {
	// Projects maps submitted project keys to destination repositories
	Projects map[string]models.Repository

	// TypeLabels maps ticket types to issue labels
	TypeLabels map[string]string

	// DefaultLabel is applied when the ticket type has no mapping
	DefaultLabel string

	// SupportLabel is appended to every created issue so tickets from
	// this path stay distinguishable from issues filed directly
	SupportLabel string

	// Timeout bounds the outbound issue-creation call
	Timeout time.Duration
}

// DefaultConfig returns the production routing tables.
func DefaultConfig() Config {
	return Config{
		Projects: map[string]models.Repository{
			"web":   {Owner: "Replikanti", Name: "flowlint-web"},
			"app":   {Owner: "Replikanti", Name: "flowlint-app"},
			"cli":   {Owner: "Replikanti", Name: "flowlint-app"},
			"api":   {Owner: "Replikanti", Name: "flowlint-app"},
			"rules": {Owner: "Replikanti", Name: "flowlint"},
		},
		TypeLabels: map[string]string{
			"bug":      "bug",
			"feature":  "enhancement",
			"help":     "help wanted",
			"question": "question",
			"other":    "question",
		},
		DefaultLabel: "question",
		SupportLabel: "support",
		Timeout:      10 * time.Second,
	}
}

// validProjects returns the accepted project keys in stable order, for
// error messages.
func (c Config) validProjects() []string {
	keys := make([]string, 0, len(c.Projects))
	for k := range c.Projects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// labelsFor derives the issue labels for a ticket type.
func (c Config) labelsFor(ticketType string) []string {
	label, ok := c.TypeLabels[ticketType]
	if !ok {
		label = c.DefaultLabel
	}

	labels := []string{label}
	if label != c.SupportLabel {
		labels = append(labels, c.SupportLabel)
	}
	return labels
}
