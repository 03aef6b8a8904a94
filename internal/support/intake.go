package support

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// emailPattern is the loose address check applied by intake mode.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// TicketStore persists accepted tickets. Satisfied by FileStore.
type TicketStore interface {
	Append(ctx context.Context, rec StoredTicket) error
}

// Mailer delivers a ticket notification to the support inbox.
type Mailer interface {
	Send(ctx context.Context, ticket models.SupportTicket) error
}

// StoredTicket is the persisted form of an accepted submission.
type StoredTicket struct {
	models.SupportTicket

	// ReceivedAt is when the router accepted the submission
	ReceivedAt time.Time `json:"received_at"`

	// Status is the triage state; always "new" at intake
	Status string `json:"status"`
}

// IntakeHandler is the best-effort fan-out router: once a submission is
// structurally valid it is acknowledged with 200, and the store write and
// email notification are each attempted independently. A deployment mounts
// either this handler or Handler, never both.
type IntakeHandler struct {
	store  TicketStore
	mailer Mailer
	now    func() time.Time
}

// NewIntakeHandler creates an intake router. Either collaborator may be
// nil, which disables that delivery path.
func NewIntakeHandler(store TicketStore, mailer Mailer) *IntakeHandler {
	return &IntakeHandler{
		store:  store,
		mailer: mailer,
		now:    time.Now,
	}
}

// intakeResponse is the wire shape of intake mode replies.
type intakeResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ServeHTTP handles one support form submission in intake mode.
func (h *IntakeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeCORS(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, intakeResponse{
			Success: false,
			Error:   "Method not allowed",
		})
		return
	}

	var ticket models.SupportTicket
	if err := json.NewDecoder(r.Body).Decode(&ticket); err != nil {
		writeJSON(w, http.StatusBadRequest, intakeResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	// Intake mode requires an identity so the inbox can reply
	missing := missingFields(ticket)
	if strings.TrimSpace(ticket.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(ticket.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, intakeResponse{
			Success: false,
			Error:   "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	if !emailPattern.MatchString(ticket.Email) {
		writeJSON(w, http.StatusBadRequest, intakeResponse{
			Success: false,
			Error:   "Invalid email address",
		})
		return
	}

	accepted := h.now().UTC()

	// Best-effort fan-out: each path is attempted regardless of the other,
	// and neither failure is surfaced to the submitter.
	if h.store != nil {
		rec := StoredTicket{
			SupportTicket: ticket,
			ReceivedAt:    accepted,
			Status:        "new",
		}
		if err := h.store.Append(r.Context(), rec); err != nil {
			logging.Error("failed to store support ticket",
				"project", ticket.Project,
				"error", err)
		}
	}

	if h.mailer != nil {
		if err := h.mailer.Send(r.Context(), ticket); err != nil {
			logging.Error("failed to send support notification",
				"project", ticket.Project,
				"error", err)
		}
	}

	writeJSON(w, http.StatusOK, intakeResponse{
		Success:   true,
		Message:   "Support request received successfully",
		Timestamp: accepted.Format(time.RFC3339),
	})
}
