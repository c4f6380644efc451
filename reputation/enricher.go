package reputation

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Level describes how malicious the provider considers an IP address.
type Level string

const (
	LevelClean      Level = "Clean"
	LevelSuspicious Level = "Suspicious"
	LevelHighRisk   Level = "HighRisk"
	// LevelUnknown is the explicit fallback when the lookup fails or
	// enrichment is disabled. It never surfaces as a pipeline failure.
	LevelUnknown Level = "Unknown"
)

// ThreatLevel grades a positive URL finding.
type ThreatLevel string

const (
	ThreatMedium ThreatLevel = "Medium"
	ThreatHigh   ThreatLevel = "High"
)

// IPReputation is the per-address enrichment result.
type IPReputation struct {
	Address        string `json:"address"`
	Level          Level  `json:"reputation_level"`
	MaliciousVotes int    `json:"malicious_vote_count"`
}

// Finding is a positive URL verdict destined for an alert record.
type Finding struct {
	URL         string      `json:"url"`
	ThreatLevel ThreatLevel `json:"threat_level"`
	Source      string      `json:"source"`
}

// Provider is the lookup surface the enricher depends on.
// *Client implements it; tests substitute stubs.
type Provider interface {
	URLVotes(ctx context.Context, url string) (int, error)
	IPVotes(ctx context.Context, ip string) (int, error)
}

// Enricher maps provider vote counts onto local threat levels.
// Indicators are enriched sequentially in input order to bound simultaneous
// outbound calls to the provider.
type Enricher struct {
	provider Provider
	source   string
	disabled atomic.Bool
	logger   *slog.Logger
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnricherLogger sets the logger.
func WithEnricherLogger(logger *slog.Logger) EnricherOption {
	return func(e *Enricher) {
		e.logger = logger
	}
}

// WithSourceLabel overrides the provider label stamped on findings.
func WithSourceLabel(source string) EnricherOption {
	return func(e *Enricher) {
		e.source = source
	}
}

// NewEnricher creates an enricher over the given provider.
func NewEnricher(provider Provider, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		provider: provider,
		source:   DefaultSourceLabel,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDisabled toggles the global disable switch. When disabled, every lookup
// short-circuits without a network call. Safe for concurrent use; the config
// watcher flips this at runtime.
func (e *Enricher) SetDisabled(disabled bool) {
	e.disabled.Store(disabled)
}

// Disabled reports the current state of the disable switch.
func (e *Enricher) Disabled() bool {
	return e.disabled.Load()
}

// EnrichIPs looks up every address sequentially in input order.
// Lookup failures and the disable switch both degrade to Unknown with zero
// votes; this method never fails.
func (e *Enricher) EnrichIPs(ctx context.Context, addrs []string) []IPReputation {
	results := make([]IPReputation, 0, len(addrs))

	for _, addr := range addrs {
		if e.Disabled() {
			results = append(results, IPReputation{Address: addr, Level: LevelUnknown})
			continue
		}

		votes, err := e.provider.IPVotes(ctx, addr)
		if err != nil {
			e.logger.Warn("IP reputation lookup failed, degrading to Unknown",
				"address", addr, "error", err)
			results = append(results, IPReputation{Address: addr, Level: LevelUnknown})
			continue
		}

		results = append(results, IPReputation{
			Address:        addr,
			Level:          ipLevel(votes),
			MaliciousVotes: votes,
		})
	}

	return results
}

// ScanURLs looks up every URL sequentially in input order and keeps only
// positive findings. Lookup failures are logged and skipped; clean URLs
// produce no finding. This method never fails.
func (e *Enricher) ScanURLs(ctx context.Context, urls []string) []Finding {
	var findings []Finding

	for _, url := range urls {
		if e.Disabled() {
			continue
		}

		votes, err := e.provider.URLVotes(ctx, url)
		if err != nil {
			e.logger.Warn("URL reputation lookup failed, skipping",
				"url", url, "error", err)
			continue
		}
		if votes <= 0 {
			continue
		}

		level := ThreatMedium
		if votes > 5 {
			level = ThreatHigh
		}

		findings = append(findings, Finding{
			URL:         url,
			ThreatLevel: level,
			Source:      e.source,
		})
	}

	return findings
}

func ipLevel(votes int) Level {
	switch {
	case votes > 5:
		return LevelHighRisk
	case votes > 0:
		return LevelSuspicious
	default:
		return LevelClean
	}
}
