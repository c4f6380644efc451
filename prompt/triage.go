package prompt

import (
	"fmt"
	"time"
)

// TriageContext carries the alert fields embedded into the structured-triage
// and ticket-synthesis prompts.
type TriageContext struct {
	AlertID     string
	Description string
	Source      string
	Severity    string
	Timestamp   time.Time
}

// BuildStructuredTriage assembles the prompt for the structured triage step.
// The model is instructed to answer with a single JSON object; the caller
// parses it fail-closed.
func BuildStructuredTriage(alert TriageContext) string {
	return fmt.Sprintf(`You are a SOC triage assistant for Third Space. Classify the following security alert.

Alert ID: %s
Source: %s
Reported Severity: %s
Received At: %s

Alert Description:
"%s"

Respond with ONLY a JSON object, no prose, in exactly this shape:
{
  "summary": "<one-sentence meaning of the alert>",
  "severity": "<Low|Medium|High|Critical>",
  "recommended_action": "<first SOC action to take>",
  "ticket_required": <true|false>
}
`, alert.AlertID, alert.Source, alert.Severity, alert.Timestamp.UTC().Format(time.RFC3339), alert.Description)
}

// BuildTicketSynthesis assembles the prompt that turns a triage verdict into
// incident-ticket text.
func BuildTicketSynthesis(alert TriageContext, summary, severity, recommendedAction string) string {
	return fmt.Sprintf(`You are drafting a security incident ticket for Third Space.

Incident summary: %s
Severity: %s
Recommended action: %s

Original alert (ID %s, source %s):
"%s"

Write a clear, professional ticket with a subject line and a body. Be concise.
`, summary, severity, recommendedAction, alert.AlertID, alert.Source, alert.Description)
}
