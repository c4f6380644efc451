package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thirdspace/socrelay/indicator"
	"github.com/thirdspace/socrelay/llm"
	"github.com/thirdspace/socrelay/model"
	"github.com/thirdspace/socrelay/prompt"
	"github.com/thirdspace/socrelay/reputation"
)

// ticketMaxTokens bounds the drafted ticket length.
const ticketMaxTokens = 500

// ticketTemperature keeps ticket drafting close to deterministic.
const ticketTemperature = 0.2

// defaultClassifyTemperature is used for the classification tier unless
// overridden via WithTemperature.
const defaultClassifyTemperature = 0.2

// Completer abstracts the completion gateway for testing.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Enricher abstracts reputation enrichment for testing.
type Enricher interface {
	EnrichIPs(ctx context.Context, addrs []string) []reputation.IPReputation
}

// Orchestrator runs the ingestion pipeline for a single alert.
type Orchestrator struct {
	completer   Completer
	enricher    Enricher
	logger      *slog.Logger
	temperature float64
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTemperature sets the sampling temperature for the classification tier.
func WithTemperature(t float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.temperature = t
	}
}

// NewOrchestrator creates an orchestrator over the given completion gateway
// and reputation enricher.
func NewOrchestrator(completer Completer, enricher Enricher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		completer:   completer,
		enricher:    enricher,
		logger:      slog.Default(),
		temperature: defaultClassifyTemperature,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ingest validates the alert, enriches extracted IPv4 indicators, classifies
// the alert into a structured verdict, and drafts a ticket when the verdict
// requires one. Validation failures are reported before any external call.
func (o *Orchestrator) Ingest(ctx context.Context, alert IngestedAlert) (*Result, error) {
	alert.normalize(time.Now().UTC())
	if err := alert.validateRequired(); err != nil {
		return nil, err
	}

	addrs := indicator.ExtractIPv4(alert.Description)
	enrichment := o.enricher.EnrichIPs(ctx, addrs)

	verdict, err := o.classify(ctx, alert)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Verdict:    *verdict,
		Enrichment: enrichment,
		RoutedTeam: indicator.RouteByKeyword(verdict.RecommendedAction),
	}

	if verdict.TicketRequired {
		ticket, err := o.draftTicket(ctx, alert, verdict)
		if err != nil {
			return nil, err
		}
		result.Ticket = &ticket
	}

	o.logger.Info("Alert triaged",
		"alert_id", alert.AlertID,
		"severity", result.Verdict.Severity,
		"ticket_required", verdict.TicketRequired,
		"routed_team", result.RoutedTeam,
		"indicators", len(addrs))

	return result, nil
}

// classify runs the structured triage completion and parses the verdict.
func (o *Orchestrator) classify(ctx context.Context, alert IngestedAlert) (*Verdict, error) {
	temp := o.temperature
	req := llm.Request{
		Capability:  string(model.CapabilityAnalysis),
		Temperature: &temp,
		Messages: []llm.Message{
			{Role: "user", Content: prompt.BuildStructuredTriage(prompt.TriageContext{
				AlertID:     alert.AlertID,
				Description: alert.Description,
				Source:      alert.Source,
				Severity:    alert.Severity,
				Timestamp:   alert.Timestamp,
			})},
		},
	}

	resp, err := o.completer.Complete(ctx, req)
	if err != nil {
		return nil, &CompletionError{Stage: "classify", Err: err}
	}

	return parseVerdict(resp.Content)
}

// draftTicket runs the ticket-synthesis completion on the drafting capability.
func (o *Orchestrator) draftTicket(ctx context.Context, alert IngestedAlert, v *Verdict) (string, error) {
	temp := ticketTemperature
	req := llm.Request{
		Capability:  string(model.CapabilityDrafting),
		Temperature: &temp,
		MaxTokens:   ticketMaxTokens,
		Messages: []llm.Message{
			{Role: "user", Content: prompt.BuildTicketSynthesis(prompt.TriageContext{
				AlertID:     alert.AlertID,
				Description: alert.Description,
				Source:      alert.Source,
				Severity:    alert.Severity,
				Timestamp:   alert.Timestamp,
			}, v.Summary, v.Severity, v.RecommendedAction)},
		},
	}

	resp, err := o.completer.Complete(ctx, req)
	if err != nil {
		return "", &CompletionError{Stage: "ticket", Err: err}
	}

	ticket := strings.TrimSpace(resp.Content)
	if ticket == "" {
		return "", &CompletionError{Stage: "ticket", Err: llm.ErrEmptyCompletion}
	}
	return ticket, nil
}

// rawVerdict mirrors Verdict with pointer fields so missing keys are
// distinguishable from zero values.
type rawVerdict struct {
	Summary           *string `json:"summary"`
	Severity          *string `json:"severity"`
	RecommendedAction *string `json:"recommended_action"`
	TicketRequired    *bool   `json:"ticket_required"`
}

// parseVerdict extracts the JSON object from the completion content and
// rejects verdicts missing any required field.
func parseVerdict(content string) (*Verdict, error) {
	jsonStr := llm.ExtractJSON(content)
	if jsonStr == "" {
		return nil, &MalformedVerdictError{Reason: "no JSON object in completion"}
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, &MalformedVerdictError{Reason: fmt.Sprintf("invalid verdict JSON: %v", err)}
	}

	switch {
	case raw.Summary == nil:
		return nil, &MalformedVerdictError{Reason: "missing field: summary"}
	case raw.Severity == nil:
		return nil, &MalformedVerdictError{Reason: "missing field: severity"}
	case raw.RecommendedAction == nil:
		return nil, &MalformedVerdictError{Reason: "missing field: recommended_action"}
	case raw.TicketRequired == nil:
		return nil, &MalformedVerdictError{Reason: "missing field: ticket_required"}
	}

	if strings.TrimSpace(*raw.Summary) == "" {
		return nil, &MalformedVerdictError{Reason: "empty summary"}
	}

	return &Verdict{
		Summary:           *raw.Summary,
		Severity:          *raw.Severity,
		RecommendedAction: *raw.RecommendedAction,
		TicketRequired:    *raw.TicketRequired,
	}, nil
}
