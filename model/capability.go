// Package model provides capability-based model selection for assistant tasks.
// Instead of hardcoding model names, callers specify capabilities (analysis,
// drafting) and the registry resolves them to available models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityAnalysis is for structured/critical tasks: alert triage,
	// phishing analysis, threat-intel summaries.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityDrafting is for bulk conversational tasks: ticket text,
	// knowledge-base answers.
	CapabilityDrafting Capability = "drafting"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAnalysis, CapabilityDrafting:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
