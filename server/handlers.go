package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/thirdspace/socrelay/cve"
	"github.com/thirdspace/socrelay/indicator"
	"github.com/thirdspace/socrelay/llm"
	"github.com/thirdspace/socrelay/model"
	"github.com/thirdspace/socrelay/prompt"
	"github.com/thirdspace/socrelay/reputation"
	"github.com/thirdspace/socrelay/storage"
	"github.com/thirdspace/socrelay/triage"
)

// ----------------------------------------------------------------------------
// GET /api/ping
// ----------------------------------------------------------------------------

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// ----------------------------------------------------------------------------
// POST /api/alerts/ingest
// ----------------------------------------------------------------------------

type ingestResponse struct {
	Success      bool                      `json:"success"`
	TriageResult triage.Verdict            `json:"triage_result"`
	Enrichment   []reputation.IPReputation `json:"enrichment"`
	Ticket       *string                   `json:"ticket"`
	RoutedTeam   indicator.Team            `json:"routed_team"`
}

// handleIngest runs the full triage pipeline. The result is returned to the
// caller and not persisted; POST /api/alerts is the persistence path.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var alert triage.IngestedAlert
	if err := decodeJSON(w, r, &alert); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.ingester.Ingest(r.Context(), alert)
	if err != nil {
		if triage.IsValidationError(err) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Alert ingestion failed", "alert_id", alert.AlertID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "alert ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:      true,
		TriageResult: result.Verdict,
		Enrichment:   result.Enrichment,
		Ticket:       result.Ticket,
		RoutedTeam:   result.RoutedTeam,
	})
}

// ----------------------------------------------------------------------------
// POST /api/alerts, GET /api/alerts
// ----------------------------------------------------------------------------

type createAlertRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// handleAlerts persists an alert after scanning any URLs it contains, or
// lists stored alerts.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		alerts, err := s.store.ListAlerts(r.Context())
		if err != nil {
			s.logger.Error("List alerts failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "list alerts failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
	case http.MethodPost:
		s.handleCreateAlert(w, r)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	// Source is an optional label; only the alert text is required.
	req.Source = strings.TrimSpace(req.Source)
	if req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required field: text")
		return
	}

	urls := indicator.ExtractURLs(req.Text)
	findings := s.scanner.ScanURLs(r.Context(), urls)

	record := &storage.AlertRecord{
		Text:             req.Text,
		Source:           req.Source,
		PhishingDetected: len(findings) > 0,
		PhishingDetails:  findings,
	}

	if _, err := s.store.CreateAlert(r.Context(), record); err != nil {
		s.logger.Error("Persist alert failed", "source", req.Source, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "persist alert failed")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// ----------------------------------------------------------------------------
// GET /api/alerts/{id}
// ----------------------------------------------------------------------------

// handleAlertByID fetches a single stored alert. The path segment accepts
// either a bare UUID or the full "alert:<uuid>" entity ID.
func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "missing alert ID")
		return
	}

	id := storage.EntityID{Type: storage.EntityTypeAlert, ID: raw}
	if strings.Contains(raw, ":") {
		parsed, err := storage.ParseEntityID(raw)
		if err != nil || parsed.Type != storage.EntityTypeAlert {
			writeJSONError(w, http.StatusBadRequest, "invalid alert ID")
			return
		}
		id = parsed
	}

	record, err := s.store.GetAlert(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "alert not found")
			return
		}
		s.logger.Error("Get alert failed", "id", id.String(), "error", err)
		writeJSONError(w, http.StatusInternalServerError, "get alert failed")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// ----------------------------------------------------------------------------
// Assistant endpoints: one intent per route, one input field each.
// ----------------------------------------------------------------------------

type assistRoute struct {
	intent     prompt.Intent
	field      string
	capability model.Capability
	// drafting-tier ticket synthesis runs near-deterministic and bounded
	temperature *float64
	maxTokens   int
}

// defaultTemperature is used by assistant routes that do not pin their own;
// overridable via WithTemperature.
const defaultTemperature = 0.2

var ticketTemperature = 0.2

var (
	assistTriage      = assistRoute{intent: prompt.IntentTriage, field: "alert", capability: model.CapabilityAnalysis}
	assistKB          = assistRoute{intent: prompt.IntentKnowledgeBase, field: "question", capability: model.CapabilityAnalysis}
	assistThreatIntel = assistRoute{intent: prompt.IntentThreatIntel, field: "keyword", capability: model.CapabilityAnalysis}
	assistTicket      = assistRoute{intent: prompt.IntentTicketing, field: "incident", capability: model.CapabilityDrafting, temperature: &ticketTemperature, maxTokens: 500}
	assistPhishing    = assistRoute{intent: prompt.IntentPhishing, field: "text", capability: model.CapabilityAnalysis}
	assistRemediation = assistRoute{intent: prompt.IntentRemediation, field: "alert_text", capability: model.CapabilityAnalysis}
)

// assistHandler builds a handler that relays one input field through the
// completion gateway with the route's mission prompt.
func (s *Server) assistHandler(route assistRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requirePost(w, r) {
			return
		}

		var body map[string]string
		if err := decodeJSON(w, r, &body); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		input := strings.TrimSpace(body[route.field])
		if input == "" {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("missing required field: %s", route.field))
			return
		}

		temperature := route.temperature
		if temperature == nil {
			t := s.temperature
			temperature = &t
		}

		resp, err := s.completer.Complete(r.Context(), llm.Request{
			Capability:  string(route.capability),
			Temperature: temperature,
			MaxTokens:   route.maxTokens,
			Messages: []llm.Message{
				{Role: "user", Content: prompt.Build(route.intent, input)},
			},
		})
		if err != nil {
			s.logger.Error("Assistant completion failed", "intent", route.intent, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "completion failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"result": strings.TrimSpace(resp.Content)})
	}
}

// ----------------------------------------------------------------------------
// POST /api/phishing
// ----------------------------------------------------------------------------

type phishingScanResponse struct {
	Suspicious     bool     `json:"suspicious"`
	URLs           []string `json:"urls"`
	SuspiciousURLs []string `json:"suspicious_urls"`
	Reason         string   `json:"reason"`
}

// handlePhishingScan runs the keyword/TLD heuristic only. No model call and
// no reputation lookup, so it stays fast and free.
func (s *Server) handlePhishingScan(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required field: text")
		return
	}

	urls := indicator.ExtractURLs(body.Text)
	suspicious := make([]string, 0)
	for _, u := range urls {
		if indicator.IsSuspiciousURL(u) {
			suspicious = append(suspicious, u)
		}
	}

	resp := phishingScanResponse{
		Suspicious:     len(suspicious) > 0,
		URLs:           urls,
		SuspiciousURLs: suspicious,
	}
	if resp.Suspicious {
		resp.Reason = fmt.Sprintf("%d of %d URLs match phishing keyword or TLD patterns", len(suspicious), len(urls))
	} else {
		resp.Reason = "no suspicious URLs detected"
	}

	s.metrics.phishingScans.WithLabelValues(fmt.Sprintf("%t", resp.Suspicious)).Inc()
	writeJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------------------
// GET /api/cve-info?cve_id=
// ----------------------------------------------------------------------------

func (s *Server) handleCVEInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("cve_id"))
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "missing required parameter: cve_id")
		return
	}
	if !cve.ValidID(id) {
		writeJSONError(w, http.StatusBadRequest, "invalid CVE ID format")
		return
	}

	info, err := s.cves.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, cve.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "CVE not found")
			return
		}
		s.logger.Error("CVE lookup failed", "cve_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "CVE lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// ----------------------------------------------------------------------------
// POST /api/metrics/phishing-log, GET /api/metrics/phishing-log
// ----------------------------------------------------------------------------

type phishingLogRequest struct {
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
}

// handlePhishingLog records client-reported scan timings for the dashboard.
func (s *Server) handlePhishingLog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		logs, err := s.store.ListScanLogs(r.Context())
		if err != nil {
			s.logger.Error("List scan logs failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "list scan logs failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
	case http.MethodPost:
		var req phishingLogRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if req.DurationMs < 0 {
			writeJSONError(w, http.StatusBadRequest, "duration_ms must not be negative")
			return
		}

		entry := &storage.ScanLog{
			DurationMs: req.DurationMs,
			Timestamp:  req.Timestamp,
			Source:     strings.TrimSpace(req.Source),
		}
		if _, err := s.store.CreateScanLog(r.Context(), entry); err != nil {
			s.logger.Error("Persist scan log failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "persist scan log failed")
			return
		}

		s.metrics.scanDuration.Observe(float64(req.DurationMs) / 1000)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged"})
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
