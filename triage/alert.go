// Package triage implements the alert-ingestion pipeline: validate, extract
// indicators, enrich via reputation lookup, classify via the completion
// gateway, and optionally synthesize an incident ticket.
package triage

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/thirdspace/socrelay/indicator"
	"github.com/thirdspace/socrelay/reputation"
)

// IngestedAlert is the inbound alert. alert_id, description and source are
// required; the pipeline rejects incomplete alerts before any external call.
type IngestedAlert struct {
	AlertID     string    `json:"alert_id" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Source      string    `json:"source" validate:"required"`
	Severity    string    `json:"severity,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

// Verdict is the structured classification produced by the completion step.
type Verdict struct {
	Summary           string `json:"summary"`
	Severity          string `json:"severity"`
	RecommendedAction string `json:"recommended_action"`
	TicketRequired    bool   `json:"ticket_required"`
}

// Result is the outcome of a successful ingestion run.
type Result struct {
	Verdict    Verdict                   `json:"triage_result"`
	Enrichment []reputation.IPReputation `json:"enrichment"`
	// Ticket is nil when the verdict did not require one.
	Ticket *string `json:"ticket"`
	// RoutedTeam is the keyword-routed owner of the recommended action.
	RoutedTeam indicator.Team `json:"routed_team"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as their JSON tags so errors match the wire contract.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalize trims whitespace on required fields and applies defaults:
// severity "unknown", timestamp now.
func (a *IngestedAlert) normalize(now time.Time) {
	a.AlertID = strings.TrimSpace(a.AlertID)
	a.Description = strings.TrimSpace(a.Description)
	a.Source = strings.TrimSpace(a.Source)

	if strings.TrimSpace(a.Severity) == "" {
		a.Severity = "unknown"
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = now
	}
}

// validateRequired checks the required fields and returns a ValidationError
// naming the first missing one.
func (a *IngestedAlert) validateRequired() error {
	if err := validate.Struct(a); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return &ValidationError{Field: verrs[0].Field()}
		}
		return &ValidationError{Field: "alert"}
	}
	return nil
}
