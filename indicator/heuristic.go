package indicator

import "strings"

// Team identifies the operations team an action should be routed to.
type Team string

const (
	TeamFirewall Team = "Firewall Team"
	TeamIT       Team = "IT Team"
	TeamNetwork  Team = "Network Team"
	TeamSecurity Team = "Security Team"
)

// suspiciousKeywords flag credential-phishing bait in URLs.
var suspiciousKeywords = []string{
	"login", "verify", "update", "secure", "account", "bank", "free", "bonus",
}

// uncommonTLDs are cheap registrations favored by phishing campaigns.
var uncommonTLDs = []string{
	".xyz", ".top", ".tk", ".ml", ".ga", ".cf",
}

// IsSuspiciousURL reports whether a URL matches the keyword or TLD denylist.
// Purely lexical; no network calls.
func IsSuspiciousURL(url string) bool {
	lower := strings.ToLower(url)

	for _, keyword := range suspiciousKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	for _, tld := range uncommonTLDs {
		if strings.HasSuffix(lower, tld) {
			return true
		}
	}

	return false
}

// routingRule maps action-text keywords to a team.
type routingRule struct {
	keywords []string
	team     Team
}

// routingRules is ordered: the first matching rule wins, even when a later
// rule's keywords also appear in the text.
var routingRules = []routingRule{
	{keywords: []string{"block", "firewall"}, team: TeamFirewall},
	{keywords: []string{"reset password", "account"}, team: TeamIT},
	{keywords: []string{"isolate", "scan", "network"}, team: TeamNetwork},
}

// RouteByKeyword assigns a recommended action to a team by first-match-wins
// keyword scanning. Unmatched actions default to the Security Team.
func RouteByKeyword(actionText string) Team {
	lower := strings.ToLower(actionText)

	for _, rule := range routingRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.team
			}
		}
	}

	return TeamSecurity
}
