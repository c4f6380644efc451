package main

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestLoadFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gpt-4o.json", `{"summary":"fixture verdict"}`)
	writeFixture(t, dir, "gpt-4o-mini.json", `{"ticket":"fixture ticket"}`)

	fixtures, err := loadFixtures(dir)
	if err != nil {
		t.Fatalf("loadFixtures: %v", err)
	}

	if len(fixtures) != 2 {
		t.Fatalf("expected 2 models, got %d", len(fixtures))
	}
	if !strings.Contains(fixtures["gpt-4o"], "fixture verdict") {
		t.Errorf("unexpected gpt-4o fixture: %s", fixtures["gpt-4o"])
	}
}

func TestLoadFixtures_RejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gpt-4o.json", `{not json`)

	if _, err := loadFixtures(dir); err == nil {
		t.Fatal("expected error for invalid JSON fixture")
	}
}

func TestLoadFixtures_EmptyDir(t *testing.T) {
	if _, err := loadFixtures(t.TempDir()); err == nil {
		t.Fatal("expected error for empty fixture dir")
	}
}

func TestParseMalicious(t *testing.T) {
	m := parseMalicious("94.130.10.120=14, http://secure-login.xyz=7,1.2.3.4")

	if m["94.130.10.120"] != 14 {
		t.Errorf("expected 14 votes, got %d", m["94.130.10.120"])
	}
	if m["http://secure-login.xyz"] != 7 {
		t.Errorf("expected 7 votes, got %d", m["http://secure-login.xyz"])
	}
	if m["1.2.3.4"] != 10 {
		t.Errorf("expected default 10 votes, got %d", m["1.2.3.4"])
	}
	if len(parseMalicious("")) != 0 {
		t.Error("empty spec should produce no entries")
	}
}

func TestChatCompletions_FixtureByModel(t *testing.T) {
	s := &server{fixtures: map[string]string{"gpt-4o": `{"summary":"from fixture"}`}}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`))
	w := httptest.NewRecorder()
	s.handleChatCompletions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected 1 choice, got %d", len(resp.Choices))
	}
	if !strings.Contains(resp.Choices[0].Message.Content, "from fixture") {
		t.Errorf("unexpected content: %s", resp.Choices[0].Message.Content)
	}
}

func TestChatCompletions_CannedVerdict(t *testing.T) {
	s := &server{fixtures: map[string]string{}}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"unknown","messages":[{"role":"user","content":"Respond with ONLY a JSON object"}]}`))
	w := httptest.NewRecorder()
	s.handleChatCompletions(w, req)

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	content := resp.Choices[0].Message.Content
	if !strings.Contains(content, "ticket_required") {
		t.Errorf("expected verdict-shaped content, got: %s", content)
	}
}

func TestChatCompletions_CannedTicket(t *testing.T) {
	s := &server{fixtures: map[string]string{}}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions",
		strings.NewReader(`{"model":"unknown","messages":[{"role":"user","content":"Write a ticket"}]}`))
	w := httptest.NewRecorder()
	s.handleChatCompletions(w, req)

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !strings.Contains(resp.Choices[0].Message.Content, "Subject:") {
		t.Errorf("expected ticket text, got: %s", resp.Choices[0].Message.Content)
	}
}

func TestIPLookup(t *testing.T) {
	s := &server{malicious: map[string]int{"94.130.10.120": 14}}

	req := httptest.NewRequest(http.MethodGet, "/api/v3/ip_addresses/94.130.10.120", nil)
	w := httptest.NewRecorder()
	s.handleIPLookup(w, req)

	var report vtReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got := report.Data.Attributes.LastAnalysisStats.Malicious; got != 14 {
		t.Errorf("expected 14 malicious votes, got %d", got)
	}
}

func TestIPLookup_UnknownIsClean(t *testing.T) {
	s := &server{malicious: map[string]int{}}

	req := httptest.NewRequest(http.MethodGet, "/api/v3/ip_addresses/8.8.8.8", nil)
	w := httptest.NewRecorder()
	s.handleIPLookup(w, req)

	var report vtReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got := report.Data.Attributes.LastAnalysisStats.Malicious; got != 0 {
		t.Errorf("expected 0 malicious votes, got %d", got)
	}
}

func TestURLLookup_DecodesBase64ID(t *testing.T) {
	s := &server{malicious: map[string]int{"http://secure-login.xyz": 7}}

	id := base64.RawURLEncoding.EncodeToString([]byte("http://secure-login.xyz"))
	req := httptest.NewRequest(http.MethodGet, "/api/v3/urls/"+id, nil)
	w := httptest.NewRecorder()
	s.handleURLLookup(w, req)

	var report vtReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got := report.Data.Attributes.LastAnalysisStats.Malicious; got != 7 {
		t.Errorf("expected 7 malicious votes, got %d", got)
	}
}
