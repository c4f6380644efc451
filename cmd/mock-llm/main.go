// Package main implements a mock upstream server for local development and
// e2e testing. It serves OpenAI-compatible /v1/chat/completions responses and
// VirusTotal-shaped reputation lookups, so socrelay can run fully offline.
//
// Usage:
//
//	mock-llm -port 11434 -fixtures /path/to/fixtures -malicious 94.130.10.120=14
//
// Completion responses come from JSON fixture files named by model
// (e.g. "gpt-4o.json"). When no fixture matches, the server answers with a
// canned triage verdict for verdict-shaped prompts and plain ticket text
// otherwise.
//
// Reputation lookups (/api/v3/ip_addresses/{ip}, /api/v3/urls/{id}) report
// the malicious vote count configured with -malicious; unlisted indicators
// report zero votes.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// --- OpenAI-compatible types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// cannedVerdict answers verdict-shaped prompts when no fixture matches.
const cannedVerdict = `{
  "summary": "Mock triage verdict for offline development",
  "severity": "Medium",
  "recommended_action": "Review the alert and block the indicator at the firewall",
  "ticket_required": true
}`

// cannedTicket answers free-text prompts when no fixture matches.
const cannedTicket = "Subject: Mock incident ticket\n\nThis ticket was generated by the mock upstream server."

type server struct {
	fixtures  map[string]string // model name → response content
	malicious map[string]int    // indicator → malicious vote count
	calls     atomic.Int64
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture response files (optional)")
	port := flag.Int("port", 11434, "port to listen on")
	maliciousSpec := flag.String("malicious", "", "comma-separated indicator=votes pairs, e.g. 94.130.10.120=14,http://secure-login.xyz=7")
	flag.Parse()

	if envDir := os.Getenv("MOCK_LLM_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}

	fixtures := map[string]string{}
	if *fixtureDir != "" {
		var err error
		fixtures, err = loadFixtures(*fixtureDir)
		if err != nil {
			log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
		}
		log.Printf("Loaded %d model fixture(s) from %s", len(fixtures), *fixtureDir)
	}

	s := &server{
		fixtures:  fixtures,
		malicious: parseMalicious(*maliciousSpec),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("/api/v3/ip_addresses/", s.handleIPLookup)
	mux.HandleFunc("/api/v3/urls/", s.handleURLLookup)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock upstream server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// parseMalicious parses "indicator=votes" pairs. Bare indicators default to
// ten votes, enough to cross the high-risk threshold.
func parseMalicious(spec string) map[string]int {
	out := make(map[string]int)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		indicator := part
		votes := 10
		if idx := strings.LastIndex(part, "="); idx > 0 {
			if n, err := strconv.Atoi(part[idx+1:]); err == nil {
				indicator = part[:idx]
				votes = n
			}
		}
		out[indicator] = votes
	}
	return out
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	callNum := s.calls.Add(1)
	log.Printf("[call %d] model=%s messages=%d", callNum, req.Model, len(req.Messages))

	content := s.contentFor(req)

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index: 0,
				Message: chatMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     len(content) / 4, // rough estimate
			CompletionTokens: len(content) / 4,
			TotalTokens:      len(content) / 2,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// contentFor resolves the response content: fixture by model name first,
// then a canned answer matched to the prompt shape.
func (s *server) contentFor(req chatRequest) string {
	if content, ok := s.fixtures[req.Model]; ok {
		return content
	}

	var promptText string
	if len(req.Messages) > 0 {
		promptText = req.Messages[len(req.Messages)-1].Content
	}
	if strings.Contains(promptText, "ONLY a JSON object") {
		return cannedVerdict
	}
	return cannedTicket
}

// vtReport is the VirusTotal v3 response shape socrelay parses.
type vtReport struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats struct {
				Malicious int `json:"malicious"`
			} `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (s *server) writeReport(w http.ResponseWriter, votes int) {
	var report vtReport
	report.Data.Attributes.LastAnalysisStats.Malicious = votes
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (s *server) handleIPLookup(w http.ResponseWriter, r *http.Request) {
	ip := strings.TrimPrefix(r.URL.Path, "/api/v3/ip_addresses/")
	log.Printf("reputation lookup ip=%s votes=%d", ip, s.malicious[ip])
	s.writeReport(w, s.malicious[ip])
}

func (s *server) handleURLLookup(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v3/urls/")

	// The client sends base64url(url); look up by the decoded URL.
	votes := 0
	if decoded, err := base64.RawURLEncoding.DecodeString(id); err == nil {
		votes = s.malicious[string(decoded)]
	}
	log.Printf("reputation lookup url_id=%s votes=%d", id, votes)
	s.writeReport(w, votes)
}

// handleStats returns call counts for test assertions.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"total_calls": s.calls.Load(),
	})
}

// loadFixtures reads JSON files from dir and returns a map of model→content.
// "gpt-4o.json" answers requests for model "gpt-4o".
func loadFixtures(dir string) (map[string]string, error) {
	fixtures := make(map[string]string)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("invalid JSON in %s", path)
		}

		model := strings.TrimSuffix(info.Name(), ".json")
		fixtures[model] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}

	return fixtures, nil
}
