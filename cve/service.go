package cve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/thirdspace/socrelay/llm"
	"github.com/thirdspace/socrelay/model"
	"github.com/thirdspace/socrelay/prompt"
)

// Info is the enriched lookup result returned to the caller: the upstream
// record plus an analyst-oriented summary from the completion gateway.
type Info struct {
	CVEID       string   `json:"cve_id"`
	CVSS        float64  `json:"cvss"`
	Description string   `json:"description"`
	References  []string `json:"references"`
	Summary     string   `json:"summary"`
}

// Fetcher abstracts the upstream CVE API for testing.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Record, error)
}

// Completer abstracts the completion gateway for testing.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Service combines the CVE API with model-generated explanations.
type Service struct {
	fetcher   Fetcher
	completer Completer
	logger    *slog.Logger
}

// NewService creates a lookup service over the given fetcher and completion
// gateway.
func NewService(fetcher Fetcher, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, completer: completer, logger: logger}
}

// Lookup fetches the CVE record and asks the model for an analyst summary.
// A failed completion degrades to an empty summary rather than failing the
// lookup.
func (s *Service) Lookup(ctx context.Context, id string) (*Info, error) {
	rec, err := s.fetcher.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &Info{
		CVEID:       rec.ID,
		CVSS:        rec.CVSS,
		Description: rec.Description,
		References:  rec.References,
	}

	input := fmt.Sprintf("%s (CVSS %.1f): %s", rec.ID, rec.CVSS, rec.Description)
	resp, err := s.completer.Complete(ctx, llm.Request{
		Capability: string(model.CapabilityDrafting),
		Messages: []llm.Message{
			{Role: "user", Content: prompt.Build(prompt.IntentCVE, input)},
		},
	})
	if err != nil {
		s.logger.Warn("CVE summary completion failed, returning record without summary",
			"cve_id", rec.ID, "error", err)
		return info, nil
	}

	info.Summary = strings.TrimSpace(resp.Content)
	return info, nil
}
