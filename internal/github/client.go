// Package github provides functionality for interacting with the GitHub API
// and the raw content host backing the rule examples repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/replikanti/flowlint-tools/internal/config"
	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// ErrNotFound is returned when a requested remote resource does not exist.
// Callers that treat absence as non-fatal match against it with errors.Is.
var ErrNotFound = errors.New("resource not found")

// defaultRawBaseURL is the host serving raw file content for github.com.
const defaultRawBaseURL = "https://raw.githubusercontent.com"

// Client encapsulates the GitHub API client and the raw content endpoint.
type Client struct {
	client     *github.Client
	httpClient *http.Client
	rawBaseURL string
}

// NewClient creates a new GitHub API client from the supplied configuration.
// It initializes the client with the appropriate base URL for the configured
// domain. An empty token yields an anonymous client, which is sufficient for
// low-volume raw content fetches but subject to stricter rate limits.
func NewClient(cfg config.GitHubConfig) (*Client, error) {
	// Get domain from config, default to github.com
	domain := cfg.Domain
	if domain == "" {
		domain = "github.com"
	}

	// Construct API URL based on domain
	var apiURL string
	if domain == "github.com" {
		apiURL = "https://api.github.com/"
	} else {
		apiURL = fmt.Sprintf("https://%s/api/v3/", domain)
	}

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.Token))

	// Create the HTTP client, authenticated when a token is available
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	// Create GitHub client with custom base URL
	client := github.NewClient(httpClient)

	// If not using default GitHub.com, set custom API endpoint
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL

		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	return &Client{
		client:     client,
		httpClient: httpClient,
		rawBaseURL: defaultRawBaseURL,
	}, nil
}

// SetBaseURLs overrides the API and raw content endpoints. Tests point both
// at local stub servers; production code never calls this.
func (c *Client) SetBaseURLs(apiURL, rawURL string) error {
	// go-github requires a trailing slash on the base URL
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	parsedURL, err := url.Parse(apiURL)
	if err != nil {
		return fmt.Errorf("invalid github api url: %w", err)
	}
	c.client.BaseURL = parsedURL
	c.client.UploadURL = parsedURL
	c.rawBaseURL = rawURL
	return nil
}

// CheckAuth verifies that the configured token is accepted by the API.
// Long-running deployments call this once at startup so a bad credential
// fails fast instead of on the first ticket.
func (c *Client) CheckAuth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful", "username", user.GetLogin())
	return nil
}

// CreateIssue opens a new issue in the given repository and returns the
// created issue's number and canonical URL as reported by the API.
func (c *Client) CreateIssue(ctx context.Context, repo models.Repository, title, body string, labels []string) (models.IssueReceipt, error) {
	req := &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	}

	issue, _, err := c.client.Issues.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		logging.Error("failed to create github issue",
			"repository", repo.String(),
			"error", err)
		return models.IssueReceipt{}, fmt.Errorf("failed to create issue in %s: %w", repo.String(), err)
	}

	receipt := models.IssueReceipt{
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
	}

	logging.Info("created github issue",
		"repository", repo.String(),
		"issue_number", receipt.Number)
	return receipt, nil
}

// ListRuleDirectories lists the top-level directories of a repository whose
// names match pattern, in the order the API returns them. This backs the
// discovery strategy for rule-set resolution; ordering is the caller's concern.
func (c *Client) ListRuleDirectories(ctx context.Context, owner, repo string, pattern *regexp.Regexp) ([]string, error) {
	_, entries, _, err := c.client.Repositories.GetContents(ctx, owner, repo, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list contents of %s/%s: %w", owner, repo, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.GetType() != "dir" {
			continue
		}
		if pattern.MatchString(entry.GetName()) {
			dirs = append(dirs, entry.GetName())
		}
	}

	logging.Debug("discovered rule directories", "count", len(dirs))
	return dirs, nil
}

// FetchRawFile retrieves a single file from the raw content host at
// {base}/{owner}/{repo}/{branch}/{path}. A 404 returns ErrNotFound so
// callers can distinguish missing content from transport failures.
func (c *Client) FetchRawFile(ctx context.Context, owner, repo, branch, path string) (string, error) {
	fileURL := fmt.Sprintf("%s/%s/%s/%s/%s", c.rawBaseURL, owner, repo, branch, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", fileURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%s: %w", fileURL, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: %s", fileURL, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fileURL, err)
	}

	return string(content), nil
}
