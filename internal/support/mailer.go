package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/replikanti/flowlint-tools/internal/logging"
	"github.com/replikanti/flowlint-tools/pkg/models"
)

// defaultSendGridURL is the SendGrid v3 send endpoint.
const defaultSendGridURL = "https://api.sendgrid.com/v3/mail/send"

// SendGridMailer delivers support notifications through the SendGrid API.
type SendGridMailer struct {
	apiKey   string
	to       string
	from     string
	endpoint string
	client   *http.Client
}

// NewSendGridMailer creates a mailer sending to the support inbox.
func NewSendGridMailer(apiKey, to, from string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   apiKey,
		to:       to,
		from:     from,
		endpoint: defaultSendGridURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetEndpoint overrides the SendGrid URL. Tests point it at a stub server.
func (m *SendGridMailer) SetEndpoint(url string) {
	m.endpoint = url
}

// sendGridPayload mirrors the subset of the SendGrid v3 send request the
// mailer uses.
type sendGridPayload struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	ReplyTo          sendGridAddress           `json:"reply_to"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridPersonalization struct {
	To      []sendGridAddress `json:"to"`
	Subject string            `json:"subject"`
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send delivers one ticket notification. The reply-to is set to the
// submitter so the inbox can answer directly.
func (m *SendGridMailer) Send(ctx context.Context, ticket models.SupportTicket) error {
	payload := sendGridPayload{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridAddress{{Email: m.to}},
			Subject: fmt.Sprintf("[FlowLint Support] %s: %s", strings.ToUpper(ticket.Type), ticket.Title),
		}},
		From: sendGridAddress{
			Email: m.from,
			Name:  "FlowLint Support System",
		},
		ReplyTo: sendGridAddress{
			Email: ticket.Email,
			Name:  ticket.Name,
		},
		Content: []sendGridContent{{
			Type:  "text/html",
			Value: notificationHTML(ticket),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// The response body may carry account detail; keep it in the log
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logging.Error("sendgrid rejected notification",
			"status", resp.StatusCode,
			"detail", string(detail))
		return fmt.Errorf("sendgrid returned %d", resp.StatusCode)
	}

	return nil
}

// notificationHTML renders the support notification. Every submitter
// supplied value is HTML-escaped before interpolation.
func notificationHTML(t models.SupportTicket) string {
	var b strings.Builder
	b.WriteString("<h2>New Support Request from FlowLint</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Issue Type:</strong> %s</p>\n", html.EscapeString(t.Type))
	fmt.Fprintf(&b, "<p><strong>Project:</strong> %s</p>\n", html.EscapeString(t.Project))
	fmt.Fprintf(&b, "<p><strong>Title:</strong> %s</p>\n", html.EscapeString(t.Title))
	b.WriteString("<h3>Submitter Information</h3>\n<ul>\n")
	fmt.Fprintf(&b, "<li><strong>Name:</strong> %s</li>\n", html.EscapeString(t.Name))
	fmt.Fprintf(&b, "<li><strong>Email:</strong> %s</li>\n", html.EscapeString(t.Email))
	b.WriteString("</ul>\n<h3>Description</h3>\n")
	description := strings.ReplaceAll(html.EscapeString(t.Description), "\n", "<br>")
	fmt.Fprintf(&b, "<p>%s</p>\n", description)
	b.WriteString("<hr>\n")
	fmt.Fprintf(&b, "<p><strong>Reply to:</strong> %s</p>\n", html.EscapeString(t.Email))
	return b.String()
}
