// Package prompt assembles the instruction blocks sent to the completion
// service. Templates are deterministic string interpolation; user input is
// embedded verbatim, trusted as plain text forwarded to the model.
package prompt

import "fmt"

// Intent selects the mission statement for a context-aware prompt.
type Intent string

const (
	IntentTriage        Intent = "Triage"
	IntentKnowledgeBase Intent = "KnowledgeBase"
	IntentThreatIntel   Intent = "ThreatIntel"
	IntentTicketing     Intent = "Ticketing"
	IntentPhishing      Intent = "Phishing"
	IntentCVE           Intent = "CVE"
	IntentRemediation   Intent = "Remediation"
	IntentGeneric       Intent = "Generic"
)

// missions maps each intent to its fixed mission statement.
var missions = map[Intent]string{
	IntentTriage:        `Analyze a security alert. Determine its meaning, severity (Low/Medium/High/Critical), and recommend the first SOC action.`,
	IntentKnowledgeBase: `Answer cybersecurity-related questions accurately, concisely, and clearly.`,
	IntentThreatIntel:   `Summarize threat actors or malware. Extract motivations, techniques, tools, and MITRE ATT&CK mappings. Present in structured format.`,
	IntentTicketing:     `Convert incident details into a clear, professional security ticket. Include subject and body.`,
	IntentPhishing:      `Detect phishing attempts. State whether the content is suspicious (Yes or No), give a confidence between 0.0 and 1.0, and explain briefly why.`,
	IntentCVE:           `Explain vulnerabilities to a security analyst: what they are, how they are exploited, affected systems, mitigations, and risk level.`,
	IntentRemediation:   `Generate a concise, professional remediation plan: containment, technical action, and an awareness step. Name the team to route to.`,
}

const genericMission = `Assist the user in cybersecurity operations based on their input.`

// Build assembles a role/context-aware prompt for the given intent.
// Pure and deterministic; unknown intents fall back to the generic mission.
func Build(intent Intent, userInput string) string {
	mission, ok := missions[intent]
	if !ok {
		mission = genericMission
	}

	return fmt.Sprintf(`Context:
- User Role: SOC Analyst
- Company: Third Space
- Current Page: %s
- Mission: %s

User Input:
"%s"
`, intent, mission, userInput)
}
