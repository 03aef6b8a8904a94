// Package models defines data structures shared across the application.
package models

// Severity classifies how strongly a lint rule's finding should be treated.
type Severity string

const (
	// SeverityMust marks rules whose violations block a merge.
	SeverityMust Severity = "must"
	// SeverityShould marks rules whose violations warrant review.
	SeverityShould Severity = "should"
	// SeverityNit marks stylistic rules.
	SeverityNit Severity = "nit"
)

// Valid reports whether the severity is one of the known values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMust, SeverityShould, SeverityNit:
		return true
	}
	return false
}

// RuleMetadata describes a single lint rule as published by the rule set.
type RuleMetadata struct {
	// ID is the short rule code (e.g., "R3")
	ID string `json:"id" yaml:"id"`

	// Name is the rule's machine-friendly name (e.g., "rate_limit_retry")
	Name string `json:"name,omitempty" yaml:"name"`

	// Severity is the rule's classification: must, should or nit
	Severity Severity `json:"severity,omitempty" yaml:"severity"`

	// Description is a one-line summary of what the rule checks
	Description string `json:"description,omitempty" yaml:"description"`

	// Details is extended prose shown on the documentation page
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// RuleExampleBundle is the aggregator's per-rule output unit: the rule's
// metadata plus its long-form documentation and pass/fail example payloads.
// The three content fields are empty strings when the remote resource could
// not be fetched; absence of content never fails a bundle.
type RuleExampleBundle struct {
	RuleMetadata

	// Readme is the rule's long-form documentation (markdown)
	Readme string `json:"readme"`

	// Good is a passing example workflow, serialized as JSON text
	Good string `json:"good"`

	// Bad is a failing example workflow, serialized as JSON text
	Bad string `json:"bad"`
}

// SupportTicket is a support form submission as received from the website.
type SupportTicket struct {
	// Name is the reporter's name; optional, defaults to "Anonymous"
	Name string `json:"name"`

	// Email is the reporter's contact address; optional
	Email string `json:"email"`

	// Project is the key of the component the ticket concerns (e.g., "cli")
	Project string `json:"project"`

	// Type is the ticket category: bug, feature, question, help or other
	Type string `json:"type"`

	// Title is the ticket's summary line
	Title string `json:"title"`

	// Description is the full report text
	Description string `json:"description"`
}

// Repository identifies a destination GitHub repository.
type Repository struct {
	Owner string
	Name  string
}

// String returns the repository in "owner/name" form.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// IssueReceipt reports a created issue back to the submitter. Both fields
// are taken verbatim from the issue tracker's response.
type IssueReceipt struct {
	// Number is the issue number in the destination repository
	Number int `json:"issue_number"`

	// URL is the canonical link to the created issue
	URL string `json:"issue_url"`
}
