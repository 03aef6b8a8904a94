package support

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// IssueCreator opens an issue in a destination repository. Satisfied by the
// GitHub client; tests substitute a stub to assert on call counts.
type IssueCreator interface {
	CreateIssue(ctx context.Context, repo models.Repository, title, body string, labels []string) (models.IssueReceipt, error)
}

// Handler is the synchronous-confirmation router: a ticket is accepted only
// once the destination repository has the issue. This is the deployed
// production discipline.
type Handler struct {
	cfg     Config
	creator IssueCreator
}

// NewHandler creates a ticket router over the given issue creator.
func NewHandler(cfg Config, creator IssueCreator) *Handler {
	return &Handler{cfg: cfg, creator: creator}
}

// response is the wire shape of every router reply.
type response struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	IssueNumber int    `json:"issue_number,omitempty"`
	IssueURL    string `json:"issue_url,omitempty"`
}

// ServeHTTP handles one support form submission.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS preflight carries no business logic
	if r.Method == http.MethodOptions {
		writeCORS(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, response{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	var ticket models.SupportTicket
	if err := json.NewDecoder(r.Body).Decode(&ticket); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	// Reject invalid input before any outbound call
	if missing := missingFields(ticket); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Error:   "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	repo, ok := h.cfg.Projects[ticket.Project]
	if !ok {
		writeJSON(w, http.StatusBadRequest, response{
			Success: false,
			Error: fmt.Sprintf("Invalid project: %s. Valid projects: %s",
				ticket.Project, strings.Join(h.cfg.validProjects(), ", ")),
		})
		return
	}

	title := fmt.Sprintf("[%s] %s", strings.ToUpper(ticket.Type), ticket.Title)
	labels := h.cfg.labelsFor(ticket.Type)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	receipt, err := h.creator.CreateIssue(ctx, repo, title, issueBody(ticket), labels)
	if err != nil {
		// Upstream detail stays server-side; the caller gets a generic error
		logging.Error("issue creation failed",
			"project", ticket.Project,
			"repository", repo.String(),
			"error", err)
		writeJSON(w, http.StatusInternalServerError, response{
			Success: false,
			Error:   "Failed to create GitHub issue",
		})
		return
	}

	writeJSON(w, http.StatusOK, response{
		Success:     true,
		IssueNumber: receipt.Number,
		IssueURL:    receipt.URL,
	})
}

// missingFields lists the required ticket fields that are empty.
func missingFields(t models.SupportTicket) []string {
	var missing []string
	if strings.TrimSpace(t.Project) == "" {
		missing = append(missing, "project")
	}
	if strings.TrimSpace(t.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(t.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(t.Description) == "" {
		missing = append(missing, "description")
	}
	return missing
}

// issueBody renders the deterministic markdown body of a support issue.
func issueBody(t models.SupportTicket) string {
	name := t.Name
	if name == "" {
		name = "Anonymous"
	}
	email := t.Email
	if email == "" {
		email = "Not provided"
	}

	var b strings.Builder
	b.WriteString("## Support Request Details\n\n")
	fmt.Fprintf(&b, "**Submitted by:** %s\n", name)
	fmt.Fprintf(&b, "**Contact:** %s\n", email)
	fmt.Fprintf(&b, "**Type:** %s\n", t.Type)
	fmt.Fprintf(&b, "**Project:** %s\n\n", t.Project)
	b.WriteString("## Description\n\n")
	b.WriteString(t.Description)
	b.WriteString("\n\n---\n")
	b.WriteString("*Submitted via [FlowLint Support Form](https://flowlint.dev/support)*")
	return b.String()
}

// writeCORS sets the permissive CORS headers every router response carries.
func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// writeJSON writes a JSON response with CORS headers.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	writeCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}
