// Package indicator extracts and classifies threat indicators (URLs, IPv4
// addresses) from free-form alert text.
package indicator

import (
	"regexp"
	"strings"
)

// Pre-compiled extraction patterns.
var (
	// urlPattern matches scheme-prefixed URLs up to the next whitespace.
	urlPattern = regexp.MustCompile(`https?://[^\s]+`)

	// ipv4Pattern matches dotted quads. Octet ranges are deliberately not
	// validated: upstream consumers treat anything dotted-quad-shaped as a
	// candidate and let the reputation provider sort it out.
	ipv4Pattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// trailingPunct holds characters stripped from the end of URL matches.
// Alert prose routinely wraps indicators in quotes or ends a sentence with
// them; that punctuation is not part of the indicator.
const trailingPunct = ".,;:!?\"')]}>"

// ExtractURLs returns all scheme-prefixed URLs in text, in order of first
// appearance. Duplicates are preserved. Trailing sentence punctuation is
// stripped from each match.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.TrimRight(m, trailingPunct)
	}
	return matches
}

// ExtractIPv4 returns all dotted-quad IPv4 candidates in text, in order of
// first appearance. Duplicates are preserved.
func ExtractIPv4(text string) []string {
	return ipv4Pattern.FindAllString(text, -1)
}
